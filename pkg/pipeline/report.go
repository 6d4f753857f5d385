package pipeline

import "fmt"

// Report contains statistics from a consolidation run. On a fatal error the
// report still reflects everything committed before it.
type Report struct {
	// Conversations is the number of conversations processed, empty ones
	// included.
	Conversations int

	// Turns is the number of turns submitted for extraction.
	Turns int

	// FactsExtracted counts facts the extraction model yielded across all
	// turns, before the redundancy test.
	FactsExtracted int

	// MemoriesWritten counts facts accepted and durably stored.
	MemoriesWritten int

	// RedundantFacts counts facts discarded by the exact-match
	// redundancy test.
	RedundantFacts int

	// EmbeddingFailures counts memories that were stored but could not
	// be embedded. They remain queryable by id but never surface in
	// similarity retrieval.
	EmbeddingFailures int

	// IndexFailures counts memories that embedded fine but whose vector
	// attachment or index insert failed.
	IndexFailures int

	// Indexed counts memories embedded and inserted into the vector
	// index.
	Indexed int

	// EventsPublished counts memory.persisted events accepted by the
	// event stream.
	EventsPublished int
}

// Summary returns a human-readable summary of the consolidation run.
func (r *Report) Summary() string {
	return fmt.Sprintf(
		"Consolidation complete: %d conversations (%d turns)\n"+
			"Facts extracted: %d (%d redundant, discarded)\n"+
			"Memories written: %d, indexed: %d (%d embedding failures, %d index failures)\n"+
			"Events published: %d",
		r.Conversations, r.Turns,
		r.FactsExtracted, r.RedundantFacts,
		r.MemoriesWritten, r.Indexed, r.EmbeddingFailures, r.IndexFailures,
		r.EventsPublished,
	)
}
