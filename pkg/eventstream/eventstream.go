// Package eventstream publishes pipeline lifecycle events for downstream
// consumers. Publishing is best effort: the pipeline logs publish failures
// and keeps going, so publishers must never be load-bearing for
// consolidation itself.
package eventstream

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/liner/pkg/memory"
)

// SchemaVersion is the current event payload version.
const SchemaVersion = 1

// EventTypeMemoryPersisted names the event emitted after a memory is
// durably stored.
const EventTypeMemoryPersisted = "memory.persisted"

// MemoryPersistedEvent announces that a memory was written to the store.
// The payload is the without-vector view; consumers that need the embedding
// read it from the index.
type MemoryPersistedEvent struct {
	SchemaVersion  int            `json:"schema_version"`
	EventID        string         `json:"event_id"`
	OccurredAt     time.Time      `json:"occurred_at"`
	ConversationID string         `json:"conversation_id"`
	Memory         map[string]any `json:"memory"`
}

// NewMemoryPersisted builds an event for a freshly stored memory.
func NewMemoryPersisted(m memory.Memory) MemoryPersistedEvent {
	return MemoryPersistedEvent{
		SchemaVersion:  SchemaVersion,
		EventID:        uuid.NewString(),
		OccurredAt:     time.Now().UTC(),
		ConversationID: m.ConversationID,
		Memory:         m.Meta(),
	}
}

// Publisher emits events to a stream backend.
type Publisher interface {
	Publish(ctx context.Context, event MemoryPersistedEvent) error
	Close() error
}
