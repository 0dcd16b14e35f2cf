// Package api provides the HTTP API server for saving, listing and searching
// links.
package api

import (
	"context"
	"net/http"

	"github.com/Rahi-padwal/linkRecall/api/search"
	"github.com/Rahi-padwal/linkRecall/ingest"
	"github.com/Rahi-padwal/linkRecall/ingest/worker"
	"github.com/Rahi-padwal/linkRecall/pkg/link"
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

// StatsProvider reports embedding pool counters.
type StatsProvider interface {
	Stats() worker.Stats
}

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8081")
	ListenAddr string

	// Saver handles POST /links
	Saver LinkSaver

	// Searcher handles GET /links and GET /links/search
	Searcher LinkSearcher

	// Stats is optional; GET /stats answers 503 without it
	Stats StatsProvider

	// MCPHandler is optional; it is mounted at /mcp when set
	MCPHandler http.Handler
}
