// Package search provides shared search types and logic for semantic search
// over a user's saved links. It is used by both the REST API endpoint and
// the MCP server tool.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/Rahi-padwal/linkRecall/pkg/embeddings"
	"github.com/Rahi-padwal/linkRecall/pkg/link"
	"github.com/Rahi-padwal/linkRecall/pkg/storage"
)

const (
	// DefaultMaxDistance is the cosine distance a result must stay strictly
	// below.
	DefaultMaxDistance = 0.5

	// DefaultLimit caps the number of results.
	DefaultLimit = 5
)

// Policy holds the retrieval threshold and result cap.
type Policy struct {
	MaxDistance float64 `json:"maxDistance"`
	Limit       int     `json:"limit"`
}

// DefaultPolicy returns the stock retrieval policy.
func DefaultPolicy() Policy {
	return Policy{MaxDistance: DefaultMaxDistance, Limit: DefaultLimit}
}

// Validate rejects a policy that could never return anything sensible.
func (p Policy) Validate() error {
	if p.MaxDistance <= 0 || p.MaxDistance > 2 {
		return fmt.Errorf("max distance must be in (0, 2], got %v", p.MaxDistance)
	}
	if p.Limit <= 0 {
		return fmt.Errorf("limit must be positive, got %d", p.Limit)
	}
	return nil
}

// SearchInput represents the input arguments for a search request.
type SearchInput struct {
	Query  string `json:"query"`
	UserID string `json:"userId"`
}

// SearchResult represents a single search result.
type SearchResult struct {
	ID          string  `json:"id"`
	OriginalURL string  `json:"originalUrl"`
	Title       string  `json:"title"`
	Score       float64 `json:"score"`
}

// SearchOutput represents the output of a search operation.
type SearchOutput struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
	Count   int            `json:"count"`
}

// Searcher answers semantic queries over one user's links.
type Searcher struct {
	embedder embeddings.Embedder
	driver   storage.Driver
	policy   atomic.Pointer[Policy]
	logger   *slog.Logger
}

// NewSearcher creates a Searcher with the given policy.
func NewSearcher(embedder embeddings.Embedder, driver storage.Driver, policy Policy, logger *slog.Logger) (*Searcher, error) {
	if embedder == nil || driver == nil {
		return nil, errors.New("searcher requires an embedder and a storage driver")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Searcher{
		embedder: embedder,
		driver:   driver,
		logger:   logger.With("component", "search"),
	}
	if err := s.SetPolicy(policy); err != nil {
		return nil, err
	}
	return s, nil
}

// Policy returns the policy in effect.
func (s *Searcher) Policy() Policy {
	return *s.policy.Load()
}

// SetPolicy replaces the policy for subsequent searches.
func (s *Searcher) SetPolicy(p Policy) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.policy.Store(&p)
	s.logger.Debug("search policy set", "max_distance", p.MaxDistance, "limit", p.Limit)
	return nil
}

// Search embeds the query and returns the user's nearest links. A blank
// query returns no results without calling the embedder. Embedding failures
// are returned as is; there is no lexical fallback.
func (s *Searcher) Search(ctx context.Context, query, userID string) (*SearchOutput, error) {
	if strings.TrimSpace(query) == "" {
		return &SearchOutput{Query: query, Results: []SearchResult{}}, nil
	}

	policy := s.Policy()
	s.logger.Debug("search request",
		"user_id", userID,
		"max_distance", policy.MaxDistance,
		"limit", policy.Limit,
	)

	queryEmbedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	matches, err := s.driver.NearestByOwner(ctx, storage.NearestQuery{
		UserID:      userID,
		Embedding:   queryEmbedding,
		MaxDistance: policy.MaxDistance,
		Limit:       policy.Limit,
	})
	if err != nil {
		var mismatch storage.DimensionMismatchError
		if errors.As(err, &mismatch) {
			return nil, fmt.Errorf("%w: %v", embeddings.ErrMalformed, err)
		}
		return nil, fmt.Errorf("failed to query link store: %w", err)
	}

	results := make([]SearchResult, 0, len(matches))
	for _, m := range matches {
		results = append(results, BuildSearchResult(m))
	}

	return &SearchOutput{
		Query:   query,
		Results: results,
		Count:   len(results),
	}, nil
}

// List returns the user's links newest first, without embedding anything.
func (s *Searcher) List(ctx context.Context, userID string) ([]*link.Link, error) {
	links, err := s.driver.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	return links, nil
}

// BuildSearchResult converts a store match into a SearchResult.
func BuildSearchResult(m storage.Match) SearchResult {
	return SearchResult{
		ID:          m.Link.ID,
		OriginalURL: m.Link.OriginalURL,
		Title:       m.Link.DisplayTitle(),
		Score:       m.Distance,
	}
}
