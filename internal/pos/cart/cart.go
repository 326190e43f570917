// Package cart holds the in-memory line items of an order that is still being
// built. A Cart never contains two entries with the same item id and never
// keeps an entry with a quantity below one.
package cart

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/club-pos/internal/pos/domain"
)

type Cart struct {
	items []domain.LineItem
	fees  []Fee
}

// New returns an empty cart. Fees are applied on top of the item subtotal.
func New(fees ...Fee) *Cart {
	return &Cart{fees: fees}
}

// FromItems builds a cart from raw line items, merging entries that share an
// id. Any invalid item rejects the whole input.
func FromItems(items []domain.LineItem, fees ...Fee) (*Cart, error) {
	c := New(fees...)
	if err := c.MergeItems(items); err != nil {
		return nil, err
	}
	return c, nil
}

// AddItem adds one unit of m, incrementing the existing line if present.
func (c *Cart) AddItem(m domain.MenuItem) error {
	line := m.LineItem()
	if err := line.Validate(); err != nil {
		return err
	}
	if i := c.index(m.ID); i >= 0 {
		c.items[i].Quantity++
		return nil
	}
	c.items = append(c.items, line)
	return nil
}

// IncreaseItem adds one unit to the line with the given id. It reports
// whether the id was present.
func (c *Cart) IncreaseItem(id int) bool {
	i := c.index(id)
	if i < 0 {
		return false
	}
	c.items[i].Quantity++
	return true
}

// DecreaseItem removes one unit, dropping the line when it reaches zero.
func (c *Cart) DecreaseItem(id int) bool {
	i := c.index(id)
	if i < 0 {
		return false
	}
	if c.items[i].Quantity <= 1 {
		c.removeAt(i)
		return true
	}
	c.items[i].Quantity--
	return true
}

// RemoveItem drops the line regardless of its quantity.
func (c *Cart) RemoveItem(id int) bool {
	i := c.index(id)
	if i < 0 {
		return false
	}
	c.removeAt(i)
	return true
}

// MergeItems folds raw items into the cart, summing quantities by id. The
// cart is left untouched if any item is invalid.
func (c *Cart) MergeItems(items []domain.LineItem) error {
	for _, it := range items {
		if err := it.Validate(); err != nil {
			return err
		}
	}
	for _, it := range items {
		c.mergeLine(it)
	}
	return nil
}

// Merge returns a new cart holding the lines of c followed by the lines of
// other whose ids c does not have. Shared ids have their quantities summed;
// name and price come from c. Fees are taken from c.
func (c *Cart) Merge(other *Cart) *Cart {
	out := &Cart{
		items: append([]domain.LineItem(nil), c.items...),
		fees:  c.fees,
	}
	if other != nil {
		for _, it := range other.items {
			out.mergeLine(it)
		}
	}
	return out
}

func (c *Cart) mergeLine(it domain.LineItem) {
	if i := c.index(it.ID); i >= 0 {
		c.items[i].Quantity += it.Quantity
		return
	}
	c.items = append(c.items, it)
}

// Items returns a copy of the lines in insertion order.
func (c *Cart) Items() []domain.LineItem {
	return append([]domain.LineItem{}, c.items...)
}

func (c *Cart) Len() int { return len(c.items) }

func (c *Cart) IsEmpty() bool { return len(c.items) == 0 }

// Count is the number of units across all lines.
func (c *Cart) Count() int {
	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

// Subtotal is sum(price * quantity).
func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range c.items {
		sum = sum.Add(it.Subtotal())
	}
	return sum
}

// Total is the subtotal plus every configured fee. With no fees configured it
// equals Subtotal.
func (c *Cart) Total() decimal.Decimal {
	return c.Totals().GrandTotal
}

// Totals returns the full price breakdown of the cart.
func (c *Cart) Totals() Totals {
	sub := c.Subtotal()
	t := Totals{
		ItemCount:  c.Count(),
		SubTotal:   sub,
		GrandTotal: sub,
	}
	for _, f := range c.fees {
		amount := f.Amount(sub)
		t.Fees = append(t.Fees, FeeLine{Name: f.Name(), Amount: amount})
		t.GrandTotal = t.GrandTotal.Add(amount)
	}
	return t
}

func (c *Cart) index(id int) int {
	for i, it := range c.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func (c *Cart) removeAt(i int) {
	c.items = append(c.items[:i], c.items[i+1:]...)
}

func (c *Cart) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Items())
}

// UnmarshalJSON replaces the lines of c, enforcing the same rules as
// FromItems. Fees already set on c are kept.
func (c *Cart) UnmarshalJSON(b []byte) error {
	var items []domain.LineItem
	if err := json.Unmarshal(b, &items); err != nil {
		return domain.NewValidationError("cart", "malformed item list")
	}
	fresh := New(c.fees...)
	if err := fresh.MergeItems(items); err != nil {
		return err
	}
	*c = *fresh
	return nil
}
