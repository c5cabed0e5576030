package tokenstore

import (
	"context"
	"sync"
)

// MemoryStore is a process-local Store for tests, development, and
// single-instance deployments that don't need persistence across restarts.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// Compile-time check to ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string][]byte)}
}

// Get returns the stored record for the principal.
func (m *MemoryStore) Get(ctx context.Context, principalID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.records[principalID]
	if !ok {
		return nil, ErrNotFound
	}
	// Copy so callers can't mutate stored bytes.
	out := make([]byte, len(record))
	copy(out, record)
	return out, nil
}

// Put replaces the principal's record.
func (m *MemoryStore) Put(ctx context.Context, principalID string, record []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	stored := make([]byte, len(record))
	copy(stored, record)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[principalID] = stored
	return nil
}

// Delete removes the principal's record.
func (m *MemoryStore) Delete(ctx context.Context, principalID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, principalID)
	return nil
}
