// Package pipeline orchestrates consolidation: it walks conversations turn
// by turn, extracts candidate facts, resolves them into memories, and makes
// each stored memory retrievable by embedding and indexing it.
//
// Processing is strictly sequential. Conversations are consolidated one at a
// time, turns in order, with at most one extraction call in flight, so that
// every turn sees the memories produced by the turns before it.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/liner/pkg/conversation"
	"github.com/papercomputeco/liner/pkg/embeddings"
	"github.com/papercomputeco/liner/pkg/eventstream"
	"github.com/papercomputeco/liner/pkg/eventstream/nop"
	"github.com/papercomputeco/liner/pkg/memory"
	"github.com/papercomputeco/liner/pkg/resolve"
	"github.com/papercomputeco/liner/pkg/storage"
	"github.com/papercomputeco/liner/pkg/vector"
)

// TurnExtractor yields candidate facts for the latest turn of a history.
// Implementations handle their own failures and return an empty list rather
// than an error; pkg/extract's Extractor is the production implementation.
type TurnExtractor interface {
	ExtractTurn(ctx context.Context, history []conversation.Turn, existing []memory.Memory) []memory.Fact
}

// Config assembles a Consolidator's collaborators.
type Config struct {
	// Extractor proposes facts per turn. Required.
	Extractor TurnExtractor

	// Resolver filters and links facts into stored memories. Required.
	Resolver *resolve.Resolver

	// Store is the system of record the resolver writes to. The
	// consolidator uses it to attach vectors after embedding. Required,
	// and must be the same store the resolver was built with.
	Store storage.Driver

	// Index receives embedded memories for similarity retrieval. Required.
	Index vector.Driver

	// Embedder turns memory content into vectors. Required.
	Embedder embeddings.Embedder

	// Publisher receives a memory.persisted event for each stored memory.
	// Nil selects the discarding publisher.
	Publisher eventstream.Publisher

	// Resume maps a conversation ID to the number of leading turns an
	// earlier run already consolidated. Resumed turns still feed the
	// rolling history handed to the extractor but are not re-extracted.
	// Optional; nil resumes nothing.
	Resume map[string]int

	Log *slog.Logger
}

// Consolidator runs the extract, resolve, embed, index sequence over
// conversations.
type Consolidator struct {
	extractor TurnExtractor
	resolver  *resolve.Resolver
	store     storage.Driver
	index     vector.Driver
	embedder  embeddings.Embedder
	publisher eventstream.Publisher
	resume    map[string]int
	log       *slog.Logger
}

// NewConsolidator validates the config and builds a Consolidator.
func NewConsolidator(cfg Config) (*Consolidator, error) {
	if cfg.Extractor == nil {
		return nil, errors.New("consolidator requires an extractor")
	}
	if cfg.Resolver == nil {
		return nil, errors.New("consolidator requires a resolver")
	}
	if cfg.Store == nil {
		return nil, errors.New("consolidator requires a store")
	}
	if cfg.Index == nil {
		return nil, errors.New("consolidator requires a vector index")
	}
	if cfg.Embedder == nil {
		return nil, errors.New("consolidator requires an embedder")
	}

	publisher := cfg.Publisher
	if publisher == nil {
		publisher = nop.NewPublisher()
	}
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}

	return &Consolidator{
		extractor: cfg.Extractor,
		resolver:  cfg.Resolver,
		store:     cfg.Store,
		index:     cfg.Index,
		embedder:  cfg.Embedder,
		publisher: publisher,
		resume:    cfg.Resume,
		log:       log,
	}, nil
}

// Run consolidates the conversations in order and returns run statistics.
// Store write failures and context cancellation abort the run; everything
// committed before the abort stays committed and is reflected in the report.
func (c *Consolidator) Run(ctx context.Context, conversations []conversation.Conversation) (*Report, error) {
	report := &Report{}
	for _, conv := range conversations {
		if err := c.consolidate(ctx, conv, report); err != nil {
			return report, err
		}
		report.Conversations++
	}

	return report, nil
}

// consolidate processes one conversation turn by turn. Each turn's
// extraction sees the full history up to and including that turn, plus the
// memories accepted so far.
func (c *Consolidator) consolidate(ctx context.Context, conv conversation.Conversation, report *Report) error {
	if len(conv.Turns) == 0 {
		c.log.Info("skipping conversation with no turns", "conversation_id", conv.ConversationID)
		return nil
	}

	session, err := c.resolver.Session(ctx, conv.ConversationID)
	if err != nil {
		return err
	}

	resumeAt := c.resume[conv.ConversationID]
	if resumeAt > 0 {
		c.log.Debug("resuming conversation",
			"conversation_id", conv.ConversationID,
			"consolidated_turns", resumeAt)
	}

	history := make([]conversation.Turn, 0, len(conv.Turns))
	for i, turn := range conv.Turns {
		if err := ctx.Err(); err != nil {
			return err
		}

		history = append(history, turn)
		if i < resumeAt {
			continue
		}
		report.Turns++

		facts := c.extractor.ExtractTurn(ctx, history, session.Memories())
		report.FactsExtracted += len(facts)
		if len(facts) == 0 {
			continue
		}

		accepted, err := session.Resolve(ctx, turn.TurnID, facts)
		report.MemoriesWritten += len(accepted)
		for _, m := range accepted {
			c.indexMemory(ctx, m, report)
		}
		if err != nil {
			return fmt.Errorf("consolidating %s turn %d: %w", conv.ConversationID, turn.TurnID, err)
		}
		report.RedundantFacts += len(facts) - len(accepted)
	}

	c.log.Info("consolidated conversation",
		"conversation_id", conv.ConversationID,
		"turns", len(conv.Turns))

	return nil
}

// indexMemory embeds a stored memory, attaches the vector, inserts the
// document into the index, and announces the memory on the event stream.
// Every step past the store write is best effort: failures are logged and
// counted, and the memory stays durable either way. A memory that never
// made it into the index must not surface in retrieval, so nothing is
// inserted on a partial failure.
func (c *Consolidator) indexMemory(ctx context.Context, m memory.Memory, report *Report) {
	final := m

	embedding, err := c.embedder.Embed(ctx, m.Content)
	switch {
	case err != nil:
		report.EmbeddingFailures++
		c.log.Warn("embedding failed, memory stored but not indexed",
			"memory_id", m.MemoryID,
			"error", err)
	default:
		updated, err := c.store.Update(ctx, m.MemoryID, storage.Patch{Vector: embedding})
		if err != nil {
			report.IndexFailures++
			c.log.Warn("attaching vector failed, memory stored but not indexed",
				"memory_id", m.MemoryID,
				"error", err)
			break
		}
		final = updated

		doc := vector.Document{
			ID:        updated.MemoryID,
			Embedding: embedding,
			Metadata:  updated.Meta(),
		}
		if err := c.index.Add(ctx, []vector.Document{doc}); err != nil {
			report.IndexFailures++
			c.log.Warn("index insert failed, memory stored but not indexed",
				"memory_id", m.MemoryID,
				"error", err)
			break
		}
		report.Indexed++
	}

	// The memory is durable regardless of how indexing went, so the
	// persisted event is emitted either way.
	if err := c.publisher.Publish(ctx, eventstream.NewMemoryPersisted(final)); err != nil {
		c.log.Warn("publishing memory.persisted event failed",
			"memory_id", m.MemoryID,
			"error", err)
		return
	}
	report.EventsPublished++
}
