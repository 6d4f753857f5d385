// Package mcp provides an MCP (Model Context Protocol) server over the
// consolidated memory collection.
package mcp

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/liner/pkg/recall"
	"github.com/papercomputeco/liner/pkg/storage"
	"github.com/papercomputeco/liner/pkg/utils"
)

type Config struct {
	// Store reads memories for version chain traversal
	Store storage.Driver

	// Retriever answers memory_recall queries (optional, enables the
	// memory_recall tool)
	Retriever *recall.Retriever

	// Noop for empty MCP server
	Noop bool

	// Logger is the configured structured logger
	Logger *slog.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the memory tools.
func NewServer(c Config) (*Server, error) {
	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "liner",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	if !c.Noop {
		if c.Store == nil {
			return nil, errors.New("memory store is required")
		}
		if c.Logger == nil {
			return nil, errors.New("logger is required")
		}

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        chainToolName,
			Description: chainDescription,
		}, s.handleChain)

		// Add the recall tool if a retriever is configured
		if c.Retriever != nil {
			mcp.AddTool(mcpServer, &mcp.Tool{
				Name:        recallToolName,
				Description: recallDescription,
			}, s.handleRecall)
		}
	}

	s.mcpServer = mcpServer

	// Create a streamable HTTP net/http handler for stateless operations.
	// A noop server still gets a handler so the /mcp endpoint stays
	// mountable with no tools exposed.
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// toolError reports a tool failure in-band. MCP tool errors travel in the
// result payload, not as transport errors.
func toolError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
	}
}
