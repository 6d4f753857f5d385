// Package storage provides durable keyed persistence for memory records.
//
// The Driver is the primary interface for working with pkg/memory records.
// It handles creation, lookup, partial update, and enumeration per the
// storage implementor. Stores are the system of record: a memory exists iff
// its store write succeeded, and every accepted memory is written before
// the pipeline moves to the next fact.
package storage

import (
	"context"

	"github.com/papercomputeco/liner/pkg/memory"
)

// Patch carries the updatable fields of a stored memory. Nil fields are
// left untouched.
//
// Vector attachment is one-shot: setting Vector on a record that already
// carries one fails with [VectorAttachedError]. Everything else on a
// memory is immutable after Write and has no patch field.
type Patch struct {
	// Confidence replaces the stored confidence when non-nil.
	Confidence *float64

	// Vector attaches the embedding when non-nil.
	Vector []float32
}

// Apply merges p into m, enforcing the one-time vector attachment rule.
func (p Patch) Apply(m *memory.Memory) error {
	if p.Confidence != nil {
		m.Confidence = *p.Confidence
	}
	if p.Vector != nil {
		if m.Vector != nil {
			return VectorAttachedError{ID: m.MemoryID}
		}
		m.Vector = p.Vector
	}

	return nil
}

// Driver defines the interface for persisting and retrieving memory
// records in a storage backend.
type Driver interface {
	// Write stores a new memory. It fails with DuplicateKeyError when
	// the id already exists; overwriting requires the separate Update.
	Write(ctx context.Context, m memory.Memory) error

	// Read retrieves a memory by id. Returns NotFoundError if absent.
	Read(ctx context.Context, id string) (memory.Memory, error)

	// Update applies a partial update and returns the updated record.
	// Returns NotFoundError if absent.
	Update(ctx context.Context, id string, p Patch) (memory.Memory, error)

	// ListAll returns every stored memory. Order is unspecified but
	// stable within a session; drivers return insertion order.
	ListAll(ctx context.Context) ([]memory.Memory, error)

	// ListIDsFor returns the ids of memories owned by a conversation,
	// in insertion order.
	ListIDsFor(ctx context.Context, conversationID string) ([]string, error)

	// Close closes the store and releases any resources.
	Close() error
}
