package api

import (
	"errors"
	"fmt"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/liner/api/mcp"
)

// Server is the API server for querying the liner memory collection.
type Server struct {
	config Config
	app    *fiber.App
}

// NewServer creates a new API server. The store is injected to allow
// sharing with other components (e.g., a consolidation run against the
// same backend).
func NewServer(config Config) (*Server, error) {
	if config.Store == nil {
		return nil, errors.New("memory store is required")
	}
	if config.Logger == nil {
		return nil, errors.New("logger is required")
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config: config,
		app:    app,
	}

	app.Get("/ping", s.handlePing)
	app.Get("/v1/recall", s.handleRecall)
	app.Get("/v1/memories", s.handleListMemories)
	app.Get("/v1/memories/:id", s.handleGetMemory)
	app.Get("/v1/memories/:id/chain", s.handleMemoryChain)
	app.Get("/v1/conversations/:id/memories", s.handleConversationMemories)
	app.Get("/v1/stats", s.handleStats)

	// The MCP endpoint is always mounted. With MCP disabled it serves a
	// noop server with no tools, so clients get a clean handshake rather
	// than a 404.
	mcpServer, err := mcp.NewServer(mcp.Config{
		Store:     config.Store,
		Retriever: config.Retriever,
		Noop:      !config.MCP,
		Logger:    config.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("configuring mcp: %w", err)
	}
	app.All("/mcp", adaptor.HTTPHandler(mcpServer.Handler()))

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.config.Logger.Info("starting api server",
		"listen", s.config.ListenAddr,
		"mcp", s.config.MCP)

	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
