// Package evaluate grades stored memories with an LLM judge. Each memory is
// scored against its source conversation for correctness, relevance, and
// atomicity. Judging is skip-on-failure: a memory that cannot be judged is
// counted and passed over, never aborting the run.
package evaluate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/papercomputeco/liner/pkg/conversation"
	"github.com/papercomputeco/liner/pkg/extract"
	"github.com/papercomputeco/liner/pkg/memory"
)

// Evaluator judges memories one at a time through an LLM call function.
type Evaluator struct {
	call extract.CallFunc
	log  *slog.Logger
}

// NewEvaluator creates an Evaluator around an LLM call function.
func NewEvaluator(call extract.CallFunc, log *slog.Logger) (*Evaluator, error) {
	if call == nil {
		return nil, errors.New("evaluator requires a call function")
	}
	if log == nil {
		log = slog.Default()
	}

	return &Evaluator{
		call: call,
		log:  log,
	}, nil
}

// Run judges the memories in input order against their source conversations.
// Memories whose conversation is absent are skipped with a warning, as are
// memories the judge fails on. Cancellation aborts between memories with the
// partial report.
func (e *Evaluator) Run(ctx context.Context, conversations []conversation.Conversation, memories []memory.Memory) (*Report, error) {
	byID := make(map[string]conversation.Conversation, len(conversations))
	for _, conv := range conversations {
		byID[conv.ConversationID] = conv
	}

	report := &Report{}
	for _, m := range memories {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		conv, ok := byID[m.ConversationID]
		if !ok {
			report.Skipped++
			e.log.Warn("no matching conversation for memory, skipping",
				"memory_id", m.MemoryID,
				"conversation_id", m.ConversationID)
			continue
		}

		evaluation, err := e.judge(ctx, conv, m)
		if err != nil {
			report.Skipped++
			e.log.Warn("could not judge memory, skipping",
				"memory_id", m.MemoryID,
				"error", err)
			continue
		}

		e.log.Debug("judged memory",
			"memory_id", m.MemoryID,
			"score", evaluation.Score,
			"justification", evaluation.Justification)

		report.Results = append(report.Results, Result{
			MemoryID:       m.MemoryID,
			ConversationID: m.ConversationID,
			TurnID:         m.TurnID,
			MemoryContent:  m.Content,
			Evaluation:     evaluation,
		})
	}

	e.log.Info("evaluation finished",
		"judged", report.Judged(),
		"skipped", report.Skipped)

	return report, nil
}

func (e *Evaluator) judge(ctx context.Context, conv conversation.Conversation, m memory.Memory) (Evaluation, error) {
	user, err := buildJudgePrompt(conv, m)
	if err != nil {
		return Evaluation{}, err
	}

	response, err := e.call(ctx, judgeSystemPrompt, user)
	if err != nil {
		return Evaluation{}, fmt.Errorf("judge call: %w", err)
	}

	return parseEvaluationResponse(response)
}

// evaluationPayload mirrors the wire shape of the judge's verdict. Every
// field is required.
type evaluationPayload struct {
	IsCorrect     *bool   `json:"is_correct"`
	IsRelevant    *bool   `json:"is_relevant"`
	IsAtomic      *bool   `json:"is_atomic"`
	Score         *int    `json:"score"`
	Justification *string `json:"justification"`
}

// parseEvaluationResponse decodes the judge's JSON reply. Like extraction
// replies it may arrive wrapped in fences or prose, so the parse spans the
// first '{' through the last '}'. The object must carry an "evaluation" key
// with a complete verdict and a score in [1,5].
func parseEvaluationResponse(response string) (Evaluation, error) {
	jsonStr := response
	if idx := strings.Index(response, "{"); idx >= 0 {
		endIdx := strings.LastIndex(response, "}")
		if endIdx > idx {
			jsonStr = response[idx : endIdx+1]
		}
	}

	var payload struct {
		Evaluation *evaluationPayload `json:"evaluation"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &payload); err != nil {
		return Evaluation{}, fmt.Errorf("unmarshal evaluation JSON: %w", err)
	}
	if payload.Evaluation == nil {
		return Evaluation{}, fmt.Errorf(`response has no "evaluation" key`)
	}

	p := payload.Evaluation
	if p.IsCorrect == nil || p.IsRelevant == nil || p.IsAtomic == nil {
		return Evaluation{}, errors.New("verdict is missing a criteria field")
	}
	if p.Score == nil {
		return Evaluation{}, errors.New("verdict has no score")
	}
	if *p.Score < 1 || *p.Score > 5 {
		return Evaluation{}, fmt.Errorf("score %d outside [1,5]", *p.Score)
	}
	if p.Justification == nil {
		return Evaluation{}, errors.New("verdict has no justification")
	}

	return Evaluation{
		IsCorrect:     *p.IsCorrect,
		IsRelevant:    *p.IsRelevant,
		IsAtomic:      *p.IsAtomic,
		Score:         *p.Score,
		Justification: *p.Justification,
	}, nil
}
