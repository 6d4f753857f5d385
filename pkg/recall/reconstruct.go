package recall

import (
	"fmt"
	"time"

	"github.com/papercomputeco/liner/pkg/memory"
	"github.com/papercomputeco/liner/pkg/vector"
)

// ValidationError reports a retrieved document that could not be rebuilt
// into a memory. Reconstruction fails closed: one bad record is dropped
// without affecting the rest of the batch.
type ValidationError struct {
	ID     string
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("reconstructing memory %s: field %q %s", e.ID, e.Field, e.Reason)
}

// ReconstructMemory rebuilds a full memory from an index document, merging
// the stored metadata fields with the stored embedding. Every required field
// must be present and well-typed or the whole document is rejected with a
// ValidationError.
func ReconstructMemory(doc vector.Document) (memory.Memory, error) {
	meta := doc.Metadata

	memoryID, err := stringField(doc.ID, meta, "memory_id")
	if err != nil {
		return memory.Memory{}, err
	}
	content, err := stringField(doc.ID, meta, "content")
	if err != nil {
		return memory.Memory{}, err
	}
	conversationID, err := stringField(doc.ID, meta, "conversation_id")
	if err != nil {
		return memory.Memory{}, err
	}
	turnID, err := intField(doc.ID, meta, "turn_id")
	if err != nil {
		return memory.Memory{}, err
	}
	confidence, err := floatField(doc.ID, meta, "confidence")
	if err != nil {
		return memory.Memory{}, err
	}
	timestamp, err := timeField(doc.ID, meta, "timestamp")
	if err != nil {
		return memory.Memory{}, err
	}

	m := memory.Memory{
		MemoryID:       memoryID,
		Content:        content,
		ConversationID: conversationID,
		TurnID:         turnID,
		Confidence:     confidence,
		Timestamp:      timestamp,
		Vector:         doc.Embedding,
	}

	if raw, ok := meta["previous_memory_id"]; ok {
		prev, ok := raw.(string)
		if !ok {
			return memory.Memory{}, ValidationError{
				ID: doc.ID, Field: "previous_memory_id",
				Reason: fmt.Sprintf("has type %T, want string", raw),
			}
		}
		m.PreviousMemoryID = prev
	}

	return m, nil
}

func stringField(id string, meta map[string]any, key string) (string, error) {
	raw, ok := meta[key]
	if !ok {
		return "", ValidationError{ID: id, Field: key, Reason: "is missing"}
	}
	s, ok := raw.(string)
	if !ok {
		return "", ValidationError{
			ID: id, Field: key,
			Reason: fmt.Sprintf("has type %T, want string", raw),
		}
	}
	if s == "" {
		return "", ValidationError{ID: id, Field: key, Reason: "is empty"}
	}
	return s, nil
}

// intField accepts the integer encodings produced by the index backends:
// native ints from the in-memory driver, float64 from JSON round trips, and
// int64 from qdrant payloads.
func intField(id string, meta map[string]any, key string) (int, error) {
	raw, ok := meta[key]
	if !ok {
		return 0, ValidationError{ID: id, Field: key, Reason: "is missing"}
	}
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		n := int(v)
		if float64(n) != v {
			return 0, ValidationError{
				ID: id, Field: key,
				Reason: fmt.Sprintf("value %v is not an integer", v),
			}
		}
		return n, nil
	default:
		return 0, ValidationError{
			ID: id, Field: key,
			Reason: fmt.Sprintf("has type %T, want integer", raw),
		}
	}
}

func floatField(id string, meta map[string]any, key string) (float64, error) {
	raw, ok := meta[key]
	if !ok {
		return 0, ValidationError{ID: id, Field: key, Reason: "is missing"}
	}
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, ValidationError{
			ID: id, Field: key,
			Reason: fmt.Sprintf("has type %T, want number", raw),
		}
	}
}

func timeField(id string, meta map[string]any, key string) (time.Time, error) {
	raw, err := stringField(id, meta, key)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, ValidationError{
			ID: id, Field: key,
			Reason: fmt.Sprintf("does not parse as RFC 3339: %v", err),
		}
	}
	return t, nil
}
