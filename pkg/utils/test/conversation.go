package testutils

import (
	"time"

	"github.com/papercomputeco/liner/pkg/conversation"
	"github.com/papercomputeco/liner/pkg/memory"
)

// NewTestConversation creates a conversation whose turns alternate between
// user and assistant, starting with the user.
func NewTestConversation(id string, contents ...string) conversation.Conversation {
	conv := conversation.Conversation{ConversationID: id}
	for i, content := range contents {
		role := conversation.RoleUser
		if i%2 == 1 {
			role = conversation.RoleAssistant
		}
		conv.Turns = append(conv.Turns, conversation.Turn{
			TurnID:  i + 1,
			Role:    role,
			Content: content,
		})
	}
	return conv
}

// NewTestMemory creates a minimal memory record for store and index tests.
func NewTestMemory(id, content, conversationID string) memory.Memory {
	return memory.Memory{
		MemoryID:       id,
		Content:        content,
		ConversationID: conversationID,
		TurnID:         1,
		Confidence:     0.9,
		Timestamp:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}
