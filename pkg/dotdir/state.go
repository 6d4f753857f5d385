package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	stateFile = "state.json"
)

// ConsolidateState records how far consolidation has progressed through each
// conversation. Watch-mode reruns load it to skip turns that an earlier pass
// already consolidated.
type ConsolidateState struct {
	// Turns maps a conversation ID to the number of leading turns that
	// have been consolidated.
	Turns map[string]int `json:"turns"`

	// UpdatedAt is when the state was last saved.
	UpdatedAt time.Time `json:"updated_at"`
}

// ConsolidatedTurns returns how many leading turns of the given conversation
// have been consolidated. A conversation never seen before reports zero.
func (s *ConsolidateState) ConsolidatedTurns(conversationID string) int {
	if s == nil || s.Turns == nil {
		return 0
	}
	return s.Turns[conversationID]
}

// MarkConsolidated records that the first n turns of the given conversation
// have been consolidated.
func (s *ConsolidateState) MarkConsolidated(conversationID string, n int) {
	if s.Turns == nil {
		s.Turns = make(map[string]int)
	}
	s.Turns[conversationID] = n
}

// LoadConsolidateState loads the consolidation state from a target
// .liner/state.json. Returns nil, nil if no state exists (nothing
// consolidated yet).
// If overrideDir is non-empty, it is used instead of the default ~/.liner/ location.
func (m *Manager) LoadConsolidateState(overrideDir string) (*ConsolidateState, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return nil, nil
	}

	path := filepath.Join(dir, stateFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading consolidation state: %w", err)
	}

	state := &ConsolidateState{}
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parsing consolidation state: %w", err)
	}

	return state, nil
}

// SaveConsolidateState persists the consolidation state to a target
// .liner/state.json, creating the directory when none exists yet.
func (m *Manager) SaveConsolidateState(state *ConsolidateState, overrideDir string) error {
	if state == nil {
		return errors.New("cannot save nil consolidation state")
	}

	dir, err := m.Ensure(overrideDir)
	if err != nil {
		return err
	}

	state.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling consolidation state: %w", err)
	}

	path := filepath.Join(dir, stateFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing consolidation state: %w", err)
	}

	return nil
}

// ClearConsolidateState removes the state file so the next consolidation run
// starts from the beginning of every conversation.
// Returns nil if the file doesn't exist (already cleared).
func (m *Manager) ClearConsolidateState(overrideDir string) error {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}
	if dir == "" {
		return nil
	}

	path := filepath.Join(dir, stateFile)
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("removing consolidation state: %w", err)
	}

	return nil
}
