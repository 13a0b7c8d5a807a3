package mocks

import (
	"context"
	"sync"

	"github.com/opsdocs-labs/sopqa-core/internal/core/domain"
)

// MockHistoryStore is an in-memory implementation of HistoryStore for testing
type MockHistoryStore struct {
	mu      sync.Mutex
	entries []*domain.HistoryEntry

	// Err, when set, is returned by every call
	Err error
}

// NewMockHistoryStore creates a new MockHistoryStore
func NewMockHistoryStore() *MockHistoryStore {
	return &MockHistoryStore{}
}

func (m *MockHistoryStore) Record(ctx context.Context, entry *domain.HistoryEntry) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *MockHistoryStore) Recent(ctx context.Context, limit int) ([]*domain.HistoryEntry, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*domain.HistoryEntry, 0, limit)
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}

// Entries returns all recorded entries in insertion order
func (m *MockHistoryStore) Entries() []*domain.HistoryEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.HistoryEntry, len(m.entries))
	copy(out, m.entries)
	return out
}
