package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/liner/pkg/recall"
)

var (
	recallToolName    = "memory_recall"
	recallDescription = "Recall consolidated memories relevant to a query. Returns the most relevant stored memories ranked by semantic similarity, each with its provenance and confidence. Use this to retrieve persistent knowledge distilled from past conversations."
)

// RecallInput represents the input arguments for the memory_recall tool.
type RecallInput struct {
	Query string `json:"query" jsonschema:"the text to find relevant memories for"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"number of memories to return (default: 5)"`
}

// RecallOutput represents the structured output of a recall.
type RecallOutput struct {
	Query   string          `json:"query"`
	Results []recall.Result `json:"results"`
	Count   int             `json:"count"`
}

// handleRecall processes a memory recall request via MCP.
func (s *Server) handleRecall(ctx context.Context, _ *mcp.CallToolRequest, input RecallInput) (*mcp.CallToolResult, RecallOutput, error) {
	if input.Query == "" {
		return toolError("query is required"), RecallOutput{}, nil
	}

	s.config.Logger.Debug("mcp recall request",
		"query", input.Query,
		"top_k", input.TopK)

	results, err := s.config.Retriever.Recall(ctx, input.Query, input.TopK)
	if err != nil {
		return toolError(fmt.Sprintf("Recall failed: %v", err)), RecallOutput{}, nil
	}

	if results == nil {
		results = []recall.Result{}
	}

	output := RecallOutput{
		Query:   input.Query,
		Results: results,
		Count:   len(results),
	}

	// Serialize the structured output as JSON for the text field
	// Per MCP spec: tools returning structured content should also return
	// serialized JSON in a TextContent block for backwards compatibility
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		return toolError(fmt.Sprintf("Failed to serialize results: %v", err)), RecallOutput{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}
