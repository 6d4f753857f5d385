package api

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/liner/pkg/recall"
)

// RecallResponse is the output of the recall endpoint.
type RecallResponse struct {
	Query   string          `json:"query"`
	Results []recall.Result `json:"results"`
	Count   int             `json:"count"`
}

// handleRecall handles GET /v1/recall requests.
// Query parameters:
//   - query (required): the text to find relevant memories for
//   - top_k (optional, default 5): number of memories to return
func (s *Server) handleRecall(c *fiber.Ctx) error {
	// Verify retrieval is configured
	if s.config.Retriever == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Error: "recall is not configured: an embedder and vector index are required",
		})
	}

	query := c.Query("query")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "query parameter is required",
		})
	}

	topK := recall.DefaultTopK
	if topKStr := c.Query("top_k"); topKStr != "" {
		parsed, err := strconv.Atoi(topKStr)
		if err != nil || parsed <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error: "top_k must be a positive integer",
			})
		}
		topK = parsed
	}

	results, err := s.config.Retriever.Recall(c.Context(), query, topK)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: err.Error(),
		})
	}

	if results == nil {
		results = []recall.Result{}
	}

	return c.JSON(RecallResponse{
		Query:   query,
		Results: results,
		Count:   len(results),
	})
}
