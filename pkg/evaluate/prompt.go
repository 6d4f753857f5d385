package evaluate

import (
	"encoding/json"
	"fmt"

	"github.com/papercomputeco/liner/pkg/conversation"
	"github.com/papercomputeco/liner/pkg/memory"
)

const judgeSystemPrompt = `You are an AI quality assurance expert. Your task is to evaluate the quality of a single 'memory' extracted from a conversation.

Evaluate the memory based on the following criteria:
1.  **Correctness**: Is the memory factually correct based *only* on the provided conversation history?
2.  **Relevance**: Is the fact a meaningful and important piece of information to remember about the user or the world? Trivial or conversational fluff should be considered irrelevant.
3.  **Atomicity**: Does the memory represent a single, distinct fact? (e.g., "User likes green and drives an SUV" is not atomic and should be split).`

const judgeTaskTemplate = `--- CONTEXT ---

**Full Conversation History:**
%s

**Extracted Memory (from Turn %d):**
"%s"

--- TASK ---

Provide your evaluation in a valid JSON object. The JSON object must contain a single key "evaluation" with the following structure:
- "is_correct": boolean
- "is_relevant": boolean
- "is_atomic": boolean
- "score": integer (1-5, where 5 is excellent)
- "justification": string (a brief, one-sentence explanation for your score)

**Example Response:**
{
  "evaluation": {
    "is_correct": true,
    "is_relevant": true,
    "is_atomic": true,
    "score": 5,
    "justification": "The memory accurately captures a key user preference stated directly in the conversation."
  }
}

YOUR RESPONSE:`

// judgeTurn is the wire shape of one history entry in the judge prompt.
type judgeTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// buildJudgePrompt renders the user prompt for judging one memory against
// its source conversation.
func buildJudgePrompt(conv conversation.Conversation, m memory.Memory) (string, error) {
	turns := make([]judgeTurn, 0, len(conv.Turns))
	for _, t := range conv.Turns {
		turns = append(turns, judgeTurn{
			Role:    string(t.Role),
			Content: t.Content,
		})
	}

	history, err := json.MarshalIndent(turns, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal conversation history: %w", err)
	}

	return fmt.Sprintf(judgeTaskTemplate, history, m.TurnID, m.Content), nil
}
