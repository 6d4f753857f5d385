package memory

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDAllocator hands out unique memory ids. Allocators must be safe for
// concurrent use; id assignment is the one place the pipeline may race.
type IDAllocator interface {
	NextID() string
}

// Sequence allocates dense increasing integer ids from an atomic counter.
type Sequence struct {
	next atomic.Int64
}

// NewSequence returns a Sequence whose first id is start. Seed it past the
// highest id already present in the store when resuming a collection.
func NewSequence(start int64) *Sequence {
	s := &Sequence{}
	s.next.Store(start)

	return s
}

// NextID returns the next id in the sequence.
func (s *Sequence) NextID() string {
	return strconv.FormatInt(s.next.Add(1)-1, 10)
}

// UUID allocates collision-resistant random ids. Use it when multiple
// writers share a store and a central counter is impractical.
type UUID struct{}

// NextID returns a new random UUID string.
func (UUID) NextID() string {
	return uuid.NewString()
}

var (
	_ IDAllocator = (*Sequence)(nil)
	_ IDAllocator = UUID{}
)
