package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Rahi-padwal/linkRecall/api/search"
	"github.com/Rahi-padwal/linkRecall/pkg/link"
)

var (
	searchLinksToolName    = "search_links"
	searchLinksDescription = "Search a user's saved links by meaning. Returns the closest links first; a lower score is a closer match."
)

// SearchLinksInput represents the input arguments for the search_links tool.
type SearchLinksInput struct {
	Query  string `json:"query" jsonschema:"the search query text"`
	UserID string `json:"user_id" jsonschema:"the user whose links are searched"`
}

func (s *Server) handleSearchLinks(ctx context.Context, _ *mcp.CallToolRequest, input SearchLinksInput) (*mcp.CallToolResult, search.SearchOutput, error) {
	if strings.TrimSpace(input.UserID) == "" {
		return errorResult("user_id is required"), search.SearchOutput{}, nil
	}
	if err := link.ValidateUserID("user_id", input.UserID); err != nil {
		return errorResult(err.Error()), search.SearchOutput{}, nil
	}

	s.logger.Debug("MCP search_links request", "query", input.Query, "user_id", input.UserID)

	output, err := s.config.Searcher.Search(ctx, input.Query, input.UserID)
	if err != nil {
		s.logger.Error("failed to search links", "error", err)
		return errorResult(fmt.Sprintf("Failed to search links: %v", err)), search.SearchOutput{}, nil
	}

	return jsonResult(*output)
}
