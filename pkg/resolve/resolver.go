// Package resolve decides which extracted facts become memories. For each
// candidate fact it performs an exact-match redundancy test against the
// conversation's existing memories, and, when the fact is accepted, computes
// its version link under the configured policy.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/papercomputeco/liner/pkg/memory"
	"github.com/papercomputeco/liner/pkg/storage"
)

// Config assembles a Resolver's collaborators.
type Config struct {
	// Policy is the versioning policy. Empty selects PolicyRecent.
	Policy Policy

	// IDs allocates memory ids. Required.
	IDs memory.IDAllocator

	// Store persists accepted memories. Required.
	Store storage.Driver

	Log *slog.Logger
}

// Resolver creates per-conversation sessions that filter and link facts.
type Resolver struct {
	linker Linker
	ids    memory.IDAllocator
	store  storage.Driver
	log    *slog.Logger
}

// NewResolver validates the config and builds a Resolver.
func NewResolver(cfg Config) (*Resolver, error) {
	if cfg.IDs == nil {
		return nil, errors.New("resolver requires an id allocator")
	}
	if cfg.Store == nil {
		return nil, errors.New("resolver requires a store")
	}
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}

	linker, err := LinkerFor(cfg.Policy, log)
	if err != nil {
		return nil, err
	}

	return &Resolver{
		linker: linker,
		ids:    cfg.IDs,
		store:  cfg.Store,
		log:    log,
	}, nil
}

// Session holds the working set for one conversation. It is seeded from the
// store exactly once, at creation, and afterwards kept consistent by
// appending each accepted memory immediately. It must not be shared across
// conversations or goroutines.
type Session struct {
	resolver       *Resolver
	conversationID string
	working        []memory.Memory
	normalized     map[string]struct{}
}

// Session loads the conversation's memories from the store, in creation
// order, and returns a Session ready to resolve facts.
func (r *Resolver) Session(ctx context.Context, conversationID string) (*Session, error) {
	all, err := r.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("seeding working set for %s: %w", conversationID, err)
	}

	s := &Session{
		resolver:       r,
		conversationID: conversationID,
		normalized:     make(map[string]struct{}),
	}
	for _, m := range all {
		if m.ConversationID != conversationID {
			continue
		}
		s.working = append(s.working, m)
		s.normalized[Normalize(m.Content)] = struct{}{}
	}

	return s, nil
}

// Memories returns a copy of the current working set in creation order.
func (s *Session) Memories() []memory.Memory {
	out := make([]memory.Memory, len(s.working))
	copy(out, s.working)
	return out
}

// Resolve filters the facts for redundancy, links and persists the
// survivors, and returns the accepted memories in fact order. Every accepted
// memory is durably written before the next fact is considered, so on error
// the returned slice holds everything that was committed. Store write
// failures are fatal and propagate.
func (s *Session) Resolve(ctx context.Context, turnID int, facts []memory.Fact) ([]memory.Memory, error) {
	r := s.resolver

	var accepted []memory.Memory
	for _, fact := range facts {
		norm := Normalize(fact.Content)
		if _, dup := s.normalized[norm]; dup {
			r.log.Debug("discarding redundant fact",
				"conversation_id", s.conversationID,
				"content", fact.Content)
			continue
		}

		m := memory.Memory{
			MemoryID:         r.ids.NextID(),
			Content:          fact.Content,
			ConversationID:   s.conversationID,
			TurnID:           turnID,
			Confidence:       fact.Confidence,
			Timestamp:        time.Now().UTC(),
			PreviousMemoryID: r.linker.Link(s.working, fact),
		}

		if err := r.store.Write(ctx, m); err != nil {
			return accepted, fmt.Errorf("writing memory %s: %w", m.MemoryID, err)
		}

		s.working = append(s.working, m)
		s.normalized[norm] = struct{}{}
		accepted = append(accepted, m)

		r.log.Debug("stored new memory",
			"memory_id", m.MemoryID,
			"conversation_id", s.conversationID,
			"turn_id", turnID,
			"previous_memory_id", m.PreviousMemoryID)
	}

	return accepted, nil
}
