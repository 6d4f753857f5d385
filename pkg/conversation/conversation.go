// Package conversation defines the turn-ordered dialogue types consumed by
// the consolidation pipeline.
//
// A Conversation is owned by the ingestion caller and is never mutated by
// the pipeline. Turns are immutable once created and are processed strictly
// in order.
package conversation

// Role identifies the speaker of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Turn is one utterance in a conversation.
type Turn struct {
	// TurnID is monotonic within a conversation.
	TurnID int `json:"turn_id"`

	// Role is the speaker: user, assistant, or system.
	Role Role `json:"role"`

	// Content is the utterance text.
	Content string `json:"content"`
}

// Conversation is an ordered, append-only sequence of turns.
type Conversation struct {
	// ConversationID uniquely identifies the conversation.
	ConversationID string `json:"conversation_id"`

	// Turns is the ordered dialogue history.
	Turns []Turn `json:"turns"`

	// GroundTruth is an optional annotation consumed only by evaluation.
	// The pipeline itself never reads it.
	GroundTruth string `json:"ground_truth,omitempty"`
}
