package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/liner/pkg/memory"
	"github.com/papercomputeco/liner/pkg/storage"
)

// ErrorResponse is the JSON envelope returned by every failing route.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MemoriesResponse lists stored memories.
type MemoriesResponse struct {
	Count    int             `json:"count"`
	Memories []memory.Memory `json:"memories"`
}

// ChainResponse carries the version chain of a memory, newest first.
type ChainResponse struct {
	// MemoryID is the id of the memory that was requested
	MemoryID string `json:"memory_id"`
	// Chain holds the memory followed by each predecessor it supersedes
	Chain []memory.Memory `json:"chain"`
	// Depth is the number of memories in the chain
	Depth int `json:"depth"`
}

// ConversationMemoriesResponse lists the memories owned by a conversation.
type ConversationMemoriesResponse struct {
	ConversationID string          `json:"conversation_id"`
	Count          int             `json:"count"`
	Memories       []memory.Memory `json:"memories"`
}

// StatsResponse summarizes the memory collection.
type StatsResponse struct {
	TotalMemories   int `json:"total_memories"`
	IndexedMemories int `json:"indexed_memories"`
	Conversations   int `json:"conversations"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleListMemories returns every stored memory.
func (s *Server) handleListMemories(c *fiber.Ctx) error {
	memories, err := s.config.Store.ListAll(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to list memories"})
	}

	if memories == nil {
		memories = []memory.Memory{}
	}

	return c.JSON(MemoriesResponse{
		Count:    len(memories),
		Memories: memories,
	})
}

// handleGetMemory returns a single memory by its id.
func (s *Server) handleGetMemory(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "id parameter required"})
	}

	m, err := s.config.Store.Read(c.Context(), id)
	if err != nil {
		var notFound storage.NotFoundError
		if errors.As(err, &notFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "memory not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to read memory"})
	}

	return c.JSON(m)
}

// handleMemoryChain returns the version chain anchored at a memory.
func (s *Server) handleMemoryChain(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "id parameter required"})
	}

	chain, err := storage.Chain(c.Context(), s.config.Store, id)
	if err != nil {
		var notFound storage.NotFoundError
		if errors.As(err, &notFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "memory not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to walk version chain"})
	}

	return c.JSON(ChainResponse{
		MemoryID: id,
		Chain:    chain,
		Depth:    len(chain),
	})
}

// handleConversationMemories returns the memories owned by a conversation,
// in insertion order.
func (s *Server) handleConversationMemories(c *fiber.Ctx) error {
	conversationID := c.Params("id")
	if conversationID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "id parameter required"})
	}

	ids, err := s.config.Store.ListIDsFor(c.Context(), conversationID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to list conversation memories"})
	}

	memories := make([]memory.Memory, 0, len(ids))
	for _, id := range ids {
		m, err := s.config.Store.Read(c.Context(), id)
		if err != nil {
			s.config.Logger.Warn("skipping unreadable memory",
				"id", id,
				"error", err)
			continue
		}
		memories = append(memories, m)
	}

	return c.JSON(ConversationMemoriesResponse{
		ConversationID: conversationID,
		Count:          len(memories),
		Memories:       memories,
	})
}

// handleStats returns statistics about the memory collection.
func (s *Server) handleStats(c *fiber.Ctx) error {
	memories, err := s.config.Store.ListAll(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to list memories"})
	}

	indexed := 0
	conversations := map[string]bool{}
	for _, m := range memories {
		if m.Vector != nil {
			indexed++
		}
		conversations[m.ConversationID] = true
	}

	return c.JSON(StatsResponse{
		TotalMemories:   len(memories),
		IndexedMemories: indexed,
		Conversations:   len(conversations),
	})
}
