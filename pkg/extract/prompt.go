package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/papercomputeco/liner/pkg/conversation"
	"github.com/papercomputeco/liner/pkg/memory"
)

const systemPrompt = `You are an expert AI system designed to extract key facts from conversations. Your task is to identify new pieces of information or updates to existing information and structure them as memories.

You MUST follow these rules:
1.  Analyze the conversation provided, paying close attention to the most recent turn.
2.  Extract facts that represent concrete, declarative statements about the user or the world.
3.  For each extracted fact, provide a confidence score from 0.0 to 1.0.
4.  If a new fact corrects or updates a previous fact, you MUST include the ` + "`previous_value`" + `.
5.  Your response MUST be a valid JSON object containing a single key "facts" which is a list of extracted fact objects.
6.  If no new or updated facts are found in the last turn, return an empty list: ` + "`{\"facts\": []}`" + `.
7.  Do not re-state facts that already appear under EXISTING MEMORIES unless the most recent turn updates them.

--- EXAMPLE ---
CONVERSATION:
[
  {"role": "user", "content": "My name is Alice and I work at OpenAI"},
  {"role": "assistant", "content": "Nice to meet you, Alice!"},
  {"role": "user", "content": "Actually, I just switched jobs to Anthropic"}
]

YOUR RESPONSE:
{
  "facts": [
    {
      "content": "User works at Anthropic.",
      "confidence": 0.98,
      "previous_value": "User works at OpenAI."
    }
  ]
}`

// promptTurn is the role/content projection of a turn sent to the model.
type promptTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// buildUserPrompt serializes the turn history as a role/content JSON array,
// prefixed by the contents of any existing memories so the model can avoid
// re-stating them.
func buildUserPrompt(history []conversation.Turn, existing []memory.Memory) (string, error) {
	turns := make([]promptTurn, len(history))
	for i, t := range history {
		turns[i] = promptTurn{Role: string(t.Role), Content: t.Content}
	}

	conversationStr, err := json.MarshalIndent(turns, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal conversation: %w", err)
	}

	var b strings.Builder
	if len(existing) > 0 {
		contents := make([]string, len(existing))
		for i, m := range existing {
			contents[i] = m.Content
		}
		existingStr, err := json.MarshalIndent(contents, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal existing memories: %w", err)
		}
		fmt.Fprintf(&b, "EXISTING MEMORIES:\n%s\n\n", existingStr)
	}
	fmt.Fprintf(&b, "CONVERSATION:\n%s\n\nYOUR RESPONSE:", conversationStr)

	return b.String(), nil
}
