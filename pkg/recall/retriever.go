// Package recall retrieves the memories most relevant to a query. The
// retriever embeds the query, searches the vector index, rebuilds each match
// into a full memory, and ranks the results by a normalized relevance score.
package recall

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/papercomputeco/liner/pkg/embeddings"
	"github.com/papercomputeco/liner/pkg/memory"
	"github.com/papercomputeco/liner/pkg/vector"
)

// DefaultTopK is the result count used when the caller passes no limit.
const DefaultTopK = 5

// Result pairs a retrieved memory with its relevance score. Scores are
// 1 − distance, so smaller distances rank higher. Results are transient and
// never persisted.
type Result struct {
	Memory memory.Memory `json:"memory"`
	Score  float64       `json:"score"`
}

// Retriever composes the embedding collaborator with a vector index.
type Retriever struct {
	embedder embeddings.Embedder
	index    vector.Driver
	log      *slog.Logger
}

// NewRetriever builds a Retriever. Both collaborators are required.
func NewRetriever(embedder embeddings.Embedder, index vector.Driver, log *slog.Logger) (*Retriever, error) {
	if embedder == nil {
		return nil, errors.New("retriever requires an embedder")
	}
	if index == nil {
		return nil, errors.New("retriever requires a vector index")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Retriever{
		embedder: embedder,
		index:    index,
		log:      log,
	}, nil
}

// Recall returns up to topK memories relevant to the query, ordered by
// descending score. A topK of zero or less selects DefaultTopK; topK beyond
// the collection size is clamped by the index. An empty or unembeddable
// query aborts the whole retrieval with an empty result, not an error.
// Per-item reconstruction failures drop that item and keep the rest.
func (r *Retriever) Recall(ctx context.Context, query string, topK int) ([]Result, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	if query == "" {
		r.log.Warn("recall query is empty, returning no results")
		return nil, nil
	}

	embedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		r.log.Error("could not embed recall query, aborting retrieval",
			"query", query,
			"error", err)
		return nil, nil
	}

	matches, err := r.index.Query(ctx, embedding, topK)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	results := make([]Result, 0, len(matches))
	for _, match := range matches {
		m, err := ReconstructMemory(match.Document)
		if err != nil {
			r.log.Warn("dropping result that failed reconstruction",
				"id", match.ID,
				"error", err)
			continue
		}
		results = append(results, Result{
			Memory: m,
			Score:  1 - float64(match.Distance),
		})
	}

	// The index returns ascending distances, but reconstruction may have
	// dropped items and backends are not all guaranteed to order ties the
	// same way.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return results, nil
}
