package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/liner/pkg/memory"
	"github.com/papercomputeco/liner/pkg/storage"
)

var (
	chainToolName    = "memory_chain"
	chainDescription = "Walk the version chain of a memory. Given a memory id, returns that memory followed by every predecessor it supersedes, newest first. Use this to see how a remembered fact evolved over time."
)

// ChainInput represents the input arguments for the memory_chain tool.
type ChainInput struct {
	MemoryID string `json:"memory_id" jsonschema:"the id of the memory whose version chain to walk"`
}

// ChainOutput represents the structured output of a chain walk.
type ChainOutput struct {
	MemoryID string          `json:"memory_id"`
	Chain    []memory.Memory `json:"chain"`
	Depth    int             `json:"depth"`
}

// handleChain processes a version chain request via MCP.
func (s *Server) handleChain(ctx context.Context, _ *mcp.CallToolRequest, input ChainInput) (*mcp.CallToolResult, ChainOutput, error) {
	if input.MemoryID == "" {
		return toolError("memory_id is required"), ChainOutput{}, nil
	}

	chain, err := storage.Chain(ctx, s.config.Store, input.MemoryID)
	if err != nil {
		return toolError(fmt.Sprintf("Chain walk failed: %v", err)), ChainOutput{}, nil
	}

	output := ChainOutput{
		MemoryID: input.MemoryID,
		Chain:    chain,
		Depth:    len(chain),
	}

	jsonBytes, err := json.Marshal(output)
	if err != nil {
		return toolError(fmt.Sprintf("Failed to serialize results: %v", err)), ChainOutput{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}
