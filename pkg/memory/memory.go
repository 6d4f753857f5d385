// Package memory defines the durable memory record produced by the
// consolidation pipeline, plus the identity scheme used to key it.
//
// Facts are distilled, persistent knowledge derived from conversations,
// not raw messages. A Fact is the ephemeral candidate proposed by the
// extraction model; a Memory is the deduplicated, provenance-tagged record
// the resolver accepted and wrote to durable storage.
//
// A Memory has two serialization views. Its own JSON encoding is the
// with-vector view persisted by memory stores. Meta is the without-vector
// view attached to vector-index documents, where the index owns the
// embedding and the metadata payload must never duplicate it.
package memory

import "time"

// Fact is an extraction candidate. Facts are consumed immediately by the
// resolver and never persisted.
type Fact struct {
	// Content is the declarative statement text.
	Content string `json:"content"`

	// Confidence is the extractor's self-reported certainty in [0,1].
	Confidence float64 `json:"confidence"`

	// PreviousValue optionally names the text of a fact this one
	// supersedes, as judged by the extractor.
	PreviousValue string `json:"previous_value,omitempty"`
}

// Memory is the durable unit of consolidated knowledge.
//
// Content, ConversationID, TurnID, and PreviousMemoryID are immutable once
// written. Vector may be attached once after creation and never changed;
// stores enforce that rule on update.
type Memory struct {
	// MemoryID is unique and stable, assigned by an [IDAllocator] at
	// creation.
	MemoryID string `json:"memory_id"`

	// Content is the fact text.
	Content string `json:"content"`

	// ConversationID names the owning conversation.
	ConversationID string `json:"conversation_id"`

	// TurnID is provenance: the turn the memory was derived from.
	TurnID int `json:"turn_id"`

	// Confidence is carried over from the source fact.
	Confidence float64 `json:"confidence"`

	// Timestamp is the creation time in UTC.
	Timestamp time.Time `json:"timestamp"`

	// PreviousMemoryID is an optional back-reference to the memory this
	// one supersedes. It is a weak reference used only for version-chain
	// traversal, never an ownership edge.
	PreviousMemoryID string `json:"previous_memory_id,omitempty"`

	// Vector is the optional fixed-dimension embedding. Absent when
	// embedding generation failed.
	Vector []float32 `json:"vector,omitempty"`
}

// Meta returns the without-vector serialization view: the metadata payload
// stored alongside a vector-index document. Timestamps are rendered as
// RFC 3339 so the payload stays portable across index backends.
func (m Memory) Meta() map[string]any {
	meta := map[string]any{
		"memory_id":       m.MemoryID,
		"content":         m.Content,
		"conversation_id": m.ConversationID,
		"turn_id":         m.TurnID,
		"confidence":      m.Confidence,
		"timestamp":       m.Timestamp.UTC().Format(time.RFC3339Nano),
	}
	if m.PreviousMemoryID != "" {
		meta["previous_memory_id"] = m.PreviousMemoryID
	}

	return meta
}
