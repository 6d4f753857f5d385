// Package api provides an HTTP API server for inspecting and querying the
// consolidated memory collection.
package api

import (
	"log/slog"

	"github.com/papercomputeco/liner/pkg/recall"
	"github.com/papercomputeco/liner/pkg/storage"
)

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8091")
	ListenAddr string

	// Store is the memory store backing every read endpoint
	Store storage.Driver

	// Retriever answers /v1/recall queries. Optional; without one the
	// recall endpoint reports that retrieval is not configured.
	Retriever *recall.Retriever

	// MCP exposes the memory tools over the Model Context Protocol
	// at /mcp. When false the endpoint stays mounted but serves no tools.
	MCP bool

	// Logger is the configured structured logger
	Logger *slog.Logger
}
