package evaluate

import (
	"fmt"
	"strings"
)

// Evaluation is the judge's verdict on one memory.
type Evaluation struct {
	IsCorrect     bool   `json:"is_correct"`
	IsRelevant    bool   `json:"is_relevant"`
	IsAtomic      bool   `json:"is_atomic"`
	Score         int    `json:"score"`
	Justification string `json:"justification"`
}

// Result pairs a judged memory with its verdict.
type Result struct {
	MemoryID       string     `json:"memory_id"`
	ConversationID string     `json:"conversation_id"`
	TurnID         int        `json:"turn_id"`
	MemoryContent  string     `json:"memory_content"`
	Evaluation     Evaluation `json:"evaluation"`
}

// Report aggregates an evaluation run. Skipped counts memories that could
// not be judged: no source conversation, a failed call, or a malformed
// verdict.
type Report struct {
	Results []Result `json:"results"`
	Skipped int      `json:"skipped"`
}

// Judged returns the number of memories with a verdict.
func (r *Report) Judged() int {
	return len(r.Results)
}

// MeanScore averages the judged scores. Zero when nothing was judged.
func (r *Report) MeanScore() float64 {
	if len(r.Results) == 0 {
		return 0
	}

	var total int
	for _, res := range r.Results {
		total += res.Evaluation.Score
	}

	return float64(total) / float64(len(r.Results))
}

func (r *Report) counts() (correct, relevant, atomic int) {
	for _, res := range r.Results {
		if res.Evaluation.IsCorrect {
			correct++
		}
		if res.Evaluation.IsRelevant {
			relevant++
		}
		if res.Evaluation.IsAtomic {
			atomic++
		}
	}

	return correct, relevant, atomic
}

// Summary returns a human-readable summary of the evaluation run.
func (r *Report) Summary() string {
	correct, relevant, atomic := r.counts()

	return fmt.Sprintf(
		"Evaluation complete: %d judged, %d skipped\n"+
			"Mean score: %.1f/5\n"+
			"Correct: %d/%d, relevant: %d/%d, atomic: %d/%d",
		r.Judged(), r.Skipped,
		r.MeanScore(),
		correct, r.Judged(), relevant, r.Judged(), atomic, r.Judged(),
	)
}

// Markdown renders the report as a markdown document with one table row per
// judged memory.
func (r *Report) Markdown() string {
	var sb strings.Builder

	sb.WriteString("# Memory Evaluation\n\n")

	correct, relevant, atomic := r.counts()
	fmt.Fprintf(&sb, "**%d judged**, %d skipped. Mean score **%.1f/5**. Correct %d/%d, relevant %d/%d, atomic %d/%d.\n\n",
		r.Judged(), r.Skipped, r.MeanScore(),
		correct, r.Judged(), relevant, r.Judged(), atomic, r.Judged())

	if len(r.Results) == 0 {
		sb.WriteString("No memories were judged.\n")
		return sb.String()
	}

	sb.WriteString("| Memory | Conversation | Turn | Score | Correct | Relevant | Atomic | Justification |\n")
	sb.WriteString("|---|---|---|---|---|---|---|---|\n")
	for _, res := range r.Results {
		fmt.Fprintf(&sb, "| %s | %s | %d | %d | %s | %s | %s | %s |\n",
			res.MemoryID, res.ConversationID, res.TurnID,
			res.Evaluation.Score,
			yesNo(res.Evaluation.IsCorrect),
			yesNo(res.Evaluation.IsRelevant),
			yesNo(res.Evaluation.IsAtomic),
			strings.ReplaceAll(res.Evaluation.Justification, "|", "\\|"),
		)
	}

	return sb.String()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
