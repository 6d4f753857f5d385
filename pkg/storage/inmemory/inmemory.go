// Package inmemory implements pkg/storage's Driver over a plain map. It is
// the dry-run and test backend; nothing survives the process.
package inmemory

import (
	"context"
	"sync"

	"github.com/papercomputeco/liner/pkg/memory"
	"github.com/papercomputeco/liner/pkg/storage"
)

// Driver implements storage.Driver using an in-memory map.
type Driver struct {
	// mu guards records and order.
	mu sync.RWMutex

	// records maps memory id to the stored record.
	records map[string]memory.Memory

	// order preserves insertion order for stable listing.
	order []string
}

// NewDriver creates a new in-memory store.
func NewDriver() *Driver {
	return &Driver{
		records: make(map[string]memory.Memory),
	}
}

// Write stores a new memory, refusing duplicate ids.
func (s *Driver) Write(_ context.Context, m memory.Memory) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[m.MemoryID]; ok {
		return storage.DuplicateKeyError{ID: m.MemoryID}
	}

	s.records[m.MemoryID] = m
	s.order = append(s.order, m.MemoryID)

	return nil
}

// Read retrieves a memory by its id.
func (s *Driver) Read(_ context.Context, id string) (memory.Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.records[id]
	if !ok {
		return memory.Memory{}, storage.NotFoundError{ID: id}
	}

	return m, nil
}

// Update applies a partial update and returns the updated record.
func (s *Driver) Update(_ context.Context, id string, p storage.Patch) (memory.Memory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.records[id]
	if !ok {
		return memory.Memory{}, storage.NotFoundError{ID: id}
	}

	if err := p.Apply(&m); err != nil {
		return memory.Memory{}, err
	}
	s.records[id] = m

	return m, nil
}

// ListAll returns every memory in insertion order.
func (s *Driver) ListAll(_ context.Context) ([]memory.Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]memory.Memory, 0, len(s.order))
	for _, id := range s.order {
		all = append(all, s.records[id])
	}

	return all, nil
}

// ListIDsFor returns the ids owned by a conversation, in insertion order.
func (s *Driver) ListIDsFor(_ context.Context, conversationID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for _, id := range s.order {
		if s.records[id].ConversationID == conversationID {
			ids = append(ids, id)
		}
	}

	return ids, nil
}

// Count returns the number of stored memories.
func (s *Driver) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records)
}

// Close is a no-op for the in-memory store.
func (s *Driver) Close() error {
	return nil
}

var _ storage.Driver = (*Driver)(nil)
