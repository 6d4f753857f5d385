package resolve

import (
	"fmt"
	"log/slog"

	"github.com/papercomputeco/liner/pkg/memory"
)

// Policy selects how an accepted memory is linked to a prior one. The two
// policies produce different version chains; a deployment picks one in
// configuration and never mixes them within a store.
type Policy string

const (
	// PolicyRecent links every accepted memory to the most recently created
	// memory of the same conversation, regardless of semantic relation. This
	// is the default.
	PolicyRecent Policy = "recent"

	// PolicyPreviousValue links only when the extractor supplied a
	// previous_value, and only to a memory whose content matches it exactly.
	PolicyPreviousValue Policy = "previous-value"
)

// Linker computes the previous_memory_id for a fact about to be stored,
// given the conversation's working set in creation order. It returns the
// empty string when no link applies.
type Linker interface {
	Link(working []memory.Memory, fact memory.Fact) string
}

// LinkerFor returns the Linker implementing the given policy. An empty
// policy selects PolicyRecent.
func LinkerFor(policy Policy, log *slog.Logger) (Linker, error) {
	switch policy {
	case PolicyRecent, "":
		return RecentLinker{}, nil
	case PolicyPreviousValue:
		return PreviousValueLinker{log: log}, nil
	default:
		return nil, fmt.Errorf("unknown versioning policy: %q", policy)
	}
}

// RecentLinker implements PolicyRecent.
type RecentLinker struct{}

// Link returns the id of the most recently created memory in the working
// set. Equal timestamps resolve to the later entry, since the working set is
// kept in creation order.
func (RecentLinker) Link(working []memory.Memory, _ memory.Fact) string {
	if len(working) == 0 {
		return ""
	}

	latest := working[0]
	for _, m := range working[1:] {
		if !m.Timestamp.Before(latest.Timestamp) {
			latest = m
		}
	}
	return latest.MemoryID
}

// PreviousValueLinker implements PolicyPreviousValue.
type PreviousValueLinker struct {
	log *slog.Logger
}

// Link returns the id of the memory whose content exactly equals the fact's
// previous_value, preferring the most recent timestamp when several match.
// A previous_value with no matching memory logs a warning and stays
// unlinked.
func (l PreviousValueLinker) Link(working []memory.Memory, fact memory.Fact) string {
	if fact.PreviousValue == "" {
		return ""
	}

	var best *memory.Memory
	for i := range working {
		m := &working[i]
		if m.Content != fact.PreviousValue {
			continue
		}
		if best == nil || !m.Timestamp.Before(best.Timestamp) {
			best = m
		}
	}

	if best == nil {
		if l.log != nil {
			l.log.Warn("previous_value matched no stored memory",
				"previous_value", fact.PreviousValue)
		}
		return ""
	}
	return best.MemoryID
}
