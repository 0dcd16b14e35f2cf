package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Rahi-padwal/linkRecall/ingest"
	"github.com/Rahi-padwal/linkRecall/pkg/link"
)

var (
	saveLinkToolName    = "save_link"
	saveLinkDescription = "Save a web link for a user. The page title and description are fetched when not supplied, and the link becomes searchable once its embedding is stored."

	listLinksToolName    = "list_links"
	listLinksDescription = "List a user's saved links, newest first."
)

// SaveLinkInput represents the input arguments for the save_link tool.
type SaveLinkInput struct {
	URL     string   `json:"url" jsonschema:"the absolute http or https URL to save"`
	UserID  string   `json:"user_id,omitempty" jsonschema:"the owning user id"`
	Title   string   `json:"title,omitempty" jsonschema:"optional title, fetched from the page when empty"`
	Summary string   `json:"summary,omitempty" jsonschema:"optional summary, fetched from the page description when empty"`
	Tags    []string `json:"keywords,omitempty" jsonschema:"optional keywords"`
}

// LinkItem is the tool representation of a saved link.
type LinkItem struct {
	ID           string   `json:"id"`
	UserID       string   `json:"user_id"`
	URL          string   `json:"url"`
	Title        string   `json:"title"`
	Summary      string   `json:"summary,omitempty"`
	Keywords     []string `json:"keywords,omitempty"`
	HasEmbedding bool     `json:"has_embedding"`
	CreatedAt    string   `json:"created_at"`
}

// SaveLinkOutput represents the output of the save_link tool.
type SaveLinkOutput struct {
	Link LinkItem `json:"link"`
}

// ListLinksInput represents the input arguments for the list_links tool.
type ListLinksInput struct {
	UserID string `json:"user_id" jsonschema:"the user whose links are listed"`
}

// ListLinksOutput represents the output of the list_links tool.
type ListLinksOutput struct {
	Links []LinkItem `json:"links"`
	Count int        `json:"count"`
}

func (s *Server) handleSaveLink(ctx context.Context, _ *mcp.CallToolRequest, input SaveLinkInput) (*mcp.CallToolResult, SaveLinkOutput, error) {
	if err := link.ValidateURL("url", input.URL); err != nil {
		return errorResult(err.Error()), SaveLinkOutput{}, nil
	}
	if err := link.ValidateUserID("user_id", input.UserID); err != nil {
		return errorResult(err.Error()), SaveLinkOutput{}, nil
	}

	s.logger.Debug("MCP save_link request", "url", input.URL, "user_id", input.UserID)

	l, err := s.config.Saver.Create(ctx, ingest.Request{
		OriginalURL: input.URL,
		Title:       link.StringPtr(input.Title),
		Summary:     link.StringPtr(input.Summary),
		Keywords:    input.Tags,
		UserID:      input.UserID,
	})
	if err != nil {
		s.logger.Error("failed to save link", "error", err)
		return errorResult(fmt.Sprintf("Failed to save link: %v", err)), SaveLinkOutput{}, nil
	}

	return jsonResult(SaveLinkOutput{Link: buildLinkItem(l)})
}

func (s *Server) handleListLinks(ctx context.Context, _ *mcp.CallToolRequest, input ListLinksInput) (*mcp.CallToolResult, ListLinksOutput, error) {
	if strings.TrimSpace(input.UserID) == "" {
		return errorResult("user_id is required"), ListLinksOutput{}, nil
	}
	if err := link.ValidateUserID("user_id", input.UserID); err != nil {
		return errorResult(err.Error()), ListLinksOutput{}, nil
	}

	links, err := s.config.Searcher.List(ctx, input.UserID)
	if err != nil {
		s.logger.Error("failed to list links", "user_id", input.UserID, "error", err)
		return errorResult(fmt.Sprintf("Failed to list links: %v", err)), ListLinksOutput{}, nil
	}

	items := make([]LinkItem, 0, len(links))
	for _, l := range links {
		items = append(items, buildLinkItem(l))
	}

	return jsonResult(ListLinksOutput{Links: items, Count: len(items)})
}

// jsonResult pairs the structured output with its JSON text form, which
// older clients read instead of structured content.
func jsonResult[T any](output T) (*mcp.CallToolResult, T, error) {
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		var zero T
		return errorResult(fmt.Sprintf("Failed to serialize results: %v", err)), zero, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}

func buildLinkItem(l *link.Link) LinkItem {
	return LinkItem{
		ID:           l.ID,
		UserID:       l.UserID,
		URL:          l.OriginalURL,
		Title:        l.DisplayTitle(),
		Summary:      link.Deref(l.Summary),
		Keywords:     l.Keywords,
		HasEmbedding: l.HasEmbedding(),
		CreatedAt:    l.CreatedAt.Format(time.RFC3339),
	}
}
