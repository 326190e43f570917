package orderlog

import (
	"context"
	"sync"
)

// Repository persists order log entries. Save appends; it never upserts.
type Repository interface {
	Save(ctx context.Context, entry *Entry) error
	History(ctx context.Context, orderNumber string) ([]Entry, error)
}

// MemoryRepository keeps entries in process memory.
type MemoryRepository struct {
	mu      sync.Mutex
	entries []Entry
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (m *MemoryRepository) Save(_ context.Context, entry *Entry) error {
	m.mu.Lock()
	m.entries = append(m.entries, *entry)
	m.mu.Unlock()
	return nil
}

// History returns the entries of one order, oldest first.
func (m *MemoryRepository) History(_ context.Context, orderNumber string) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Entry{}
	for _, e := range m.entries {
		if e.OrderNumber == orderNumber {
			out = append(out, e)
		}
	}
	return out, nil
}
