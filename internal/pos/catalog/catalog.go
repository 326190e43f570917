// Package catalog is the read-only menu the cart adds items from.
package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/jcmexdev/club-pos/internal/pos/domain"
)

type Course struct {
	ID    int               `json:"id"`
	Name  string            `json:"name"`
	Items []domain.MenuItem `json:"items"`
}

type Catalog struct {
	courses []Course
	byID    map[int]domain.MenuItem
}

// New indexes courses by item id. Item ids must be unique across courses and
// every item must be sellable (positive id and price, non-empty name).
func New(courses []Course) (*Catalog, error) {
	c := &Catalog{byID: make(map[int]domain.MenuItem)}
	for _, course := range courses {
		for _, it := range course.Items {
			if err := it.LineItem().Validate(); err != nil {
				return nil, fmt.Errorf("catalog: course %q item %d: %w", course.Name, it.ID, err)
			}
			if _, dup := c.byID[it.ID]; dup {
				return nil, fmt.Errorf("catalog: item id %d listed twice", it.ID)
			}
			c.byID[it.ID] = it
		}
		c.courses = append(c.courses, course)
	}
	sort.SliceStable(c.courses, func(i, j int) bool { return c.courses[i].ID < c.courses[j].ID })
	return c, nil
}

// Load reads a JSON array of courses.
func Load(r io.Reader) (*Catalog, error) {
	var courses []Course
	if err := json.NewDecoder(r).Decode(&courses); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	return New(courses)
}

func (c *Catalog) Courses() []Course {
	return append([]Course(nil), c.courses...)
}

// Course returns one course by id.
func (c *Catalog) Course(id int) (Course, bool) {
	for _, course := range c.courses {
		if course.ID == id {
			return course, true
		}
	}
	return Course{}, false
}

// Lookup resolves a menu item id.
func (c *Catalog) Lookup(id int) (domain.MenuItem, bool) {
	it, ok := c.byID[id]
	return it, ok
}
