// Package mcp provides an MCP (Model Context Protocol) server exposing the
// saved-link tools.
package mcp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Rahi-padwal/linkRecall/api/search"
	"github.com/Rahi-padwal/linkRecall/ingest"
	"github.com/Rahi-padwal/linkRecall/pkg/link"
	"github.com/Rahi-padwal/linkRecall/pkg/utils"
)

// LinkSaver persists a link submission.
type LinkSaver interface {
	Create(ctx context.Context, req ingest.Request) (*link.Link, error)
}

// LinkSearcher answers list and semantic queries for one user.
type LinkSearcher interface {
	Search(ctx context.Context, query, userID string) (*search.SearchOutput, error)
	List(ctx context.Context, userID string) ([]*link.Link, error)
}

type Config struct {
	// Saver backs the save_link tool
	Saver LinkSaver

	// Searcher backs the list_links and search_links tools
	Searcher LinkSearcher

	// Noop for empty MCP server
	Noop bool

	// Logger is the configured slog logger
	Logger *slog.Logger
}

type Server struct {
	config    Config
	logger    *slog.Logger
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the link tools.
func NewServer(c Config) (*Server, error) {
	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "linkrecall",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	if !c.Noop {
		if c.Saver == nil {
			return nil, errors.New("link saver is required")
		}
		if c.Searcher == nil {
			return nil, errors.New("link searcher is required")
		}
		if c.Logger == nil {
			return nil, errors.New("logger is required")
		}
		s.logger = c.Logger.With("component", "mcp")

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        saveLinkToolName,
			Description: saveLinkDescription,
		}, s.handleSaveLink)

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        listLinksToolName,
			Description: listLinksDescription,
		}, s.handleListLinks)

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        searchLinksToolName,
			Description: searchLinksDescription,
		}, s.handleSearchLinks)
	}

	s.mcpServer = mcpServer

	// Stateless streamable HTTP so any API replica can answer a tool call.
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

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}
