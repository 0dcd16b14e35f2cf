package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
)

// Server is the API server for the link store.
type Server struct {
	config Config
	logger *slog.Logger
	app    *fiber.App
}

// NewServer creates a new API server.
// The saver and searcher are injected so the MCP server can share them.
func NewServer(config Config, logger *slog.Logger) (*Server, error) {
	if config.Saver == nil {
		return nil, errors.New("link saver is required")
	}
	if config.Searcher == nil {
		return nil, errors.New("link searcher is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config: config,
		logger: logger.With("component", "api"),
		app:    app,
	}

	app.Get("/ping", s.handlePing)
	app.Post("/links", s.handleCreateLink)
	app.Get("/links", s.handleListLinks)
	app.Get("/links/search", s.handleSearchLinks)
	app.Get("/stats", s.handleStats)

	if config.MCPHandler != nil {
		app.All("/mcp", adaptor.HTTPHandler(config.MCPHandler))
	}

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
