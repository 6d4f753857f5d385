// Package extract turns conversation history into candidate facts by way of
// an LLM collaborator. The extractor is a fail-soft boundary: call errors and
// malformed responses are logged and produce an empty fact list, never an
// error the pipeline has to handle.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/papercomputeco/liner/pkg/conversation"
	"github.com/papercomputeco/liner/pkg/memory"
)

// Extractor asks an LLM for the facts attributable to the newest turn of a
// conversation.
type Extractor struct {
	call CallFunc
	log  *slog.Logger
}

// NewExtractor creates an Extractor around an LLM call function.
func NewExtractor(call CallFunc, log *slog.Logger) *Extractor {
	return &Extractor{
		call: call,
		log:  log,
	}
}

// ExtractTurn submits the full ordered turn history, plus the memories
// already recorded for the conversation, and returns the facts the model
// attributes to the newest turn. It makes exactly one LLM call. An empty
// history short-circuits to no facts without calling out. Any failure,
// transport or parse, is logged and yields an empty list.
func (e *Extractor) ExtractTurn(ctx context.Context, history []conversation.Turn, existing []memory.Memory) []memory.Fact {
	if len(history) == 0 {
		return nil
	}

	user, err := buildUserPrompt(history, existing)
	if err != nil {
		e.log.Warn("building extraction prompt", "error", err)
		return nil
	}

	response, err := e.call(ctx, systemPrompt, user)
	if err != nil {
		e.log.Warn("fact extraction call failed",
			"turn", len(history),
			"error", err)
		return nil
	}

	facts, err := parseFactsResponse(response)
	if err != nil {
		e.log.Warn("discarding malformed extraction response",
			"turn", len(history),
			"error", err)
		return nil
	}

	return facts
}

// factPayload mirrors the wire shape of one extracted fact.
type factPayload struct {
	Content       string   `json:"content"`
	Confidence    *float64 `json:"confidence"`
	PreviousValue *string  `json:"previous_value"`
}

// parseFactsResponse decodes the model's JSON reply. The reply may be wrapped
// in markdown fences or prose, so the parse starts at the first '{' and ends
// at the last '}'. The object must carry a "facts" key and every entry must
// satisfy the schema; one bad entry fails the whole response.
func parseFactsResponse(response string) ([]memory.Fact, error) {
	jsonStr := response
	if idx := strings.Index(response, "{"); idx >= 0 {
		endIdx := strings.LastIndex(response, "}")
		if endIdx > idx {
			jsonStr = response[idx : endIdx+1]
		}
	}

	var payload struct {
		Facts *[]factPayload `json:"facts"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &payload); err != nil {
		return nil, fmt.Errorf("unmarshal facts JSON: %w", err)
	}
	if payload.Facts == nil {
		return nil, fmt.Errorf(`response has no "facts" key`)
	}

	facts := make([]memory.Fact, 0, len(*payload.Facts))
	for i, p := range *payload.Facts {
		if p.Content == "" {
			return nil, fmt.Errorf("fact %d has empty content", i)
		}
		if p.Confidence == nil {
			return nil, fmt.Errorf("fact %d has no confidence", i)
		}
		if *p.Confidence < 0 || *p.Confidence > 1 {
			return nil, fmt.Errorf("fact %d confidence %v outside [0,1]", i, *p.Confidence)
		}

		fact := memory.Fact{
			Content:    p.Content,
			Confidence: *p.Confidence,
		}
		if p.PreviousValue != nil {
			fact.PreviousValue = *p.PreviousValue
		}
		facts = append(facts, fact)
	}

	return facts, nil
}
