package conversation

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadFile reads conversations from a JSON file. The file may hold a single
// conversation object or an array of them. Turns written without explicit
// ids are renumbered by position.
func LoadFile(path string) ([]Conversation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading conversations: %w", err)
	}

	return Parse(data)
}

// Parse decodes one conversation object or an array of them.
func Parse(data []byte) ([]Conversation, error) {
	var many []Conversation
	if err := json.Unmarshal(data, &many); err == nil {
		for i := range many {
			renumber(&many[i])
		}
		return many, nil
	}

	var one Conversation
	if err := json.Unmarshal(data, &one); err != nil {
		return nil, fmt.Errorf("parsing conversations: %w", err)
	}
	renumber(&one)

	return []Conversation{one}, nil
}

// renumber assigns positional turn ids when the source file carried none.
// Files that set any explicit id are left untouched.
func renumber(c *Conversation) {
	for _, t := range c.Turns {
		if t.TurnID != 0 {
			return
		}
	}
	for i := range c.Turns {
		c.Turns[i].TurnID = i
	}
}
