// Package apiclient is the HTTP client the CLI uses to talk to a running
// linkrecall API server.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Rahi-padwal/linkRecall/api"
	"github.com/Rahi-padwal/linkRecall/api/search"
	"github.com/Rahi-padwal/linkRecall/ingest/worker"
	"github.com/Rahi-padwal/linkRecall/pkg/link"
)

// DefaultTimeout bounds a single API call. Saving a link includes the page
// fetch, so it is longer than the fetch timeout.
const DefaultTimeout = 30 * time.Second

// Error is a non-2xx answer from the API.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("linkrecall API request failed (HTTP %d): %s", e.StatusCode, e.Message)
}

// Client calls the linkrecall HTTP API.
type Client struct {
	base *url.URL
	http *http.Client
}

// New creates a Client for the API at target, e.g. "http://localhost:8081".
func New(target string, httpClient *http.Client) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(target, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid API target URL: %q", target)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{base: base, http: httpClient}, nil
}

// SaveLink submits a link.
func (c *Client) SaveLink(ctx context.Context, req api.CreateLinkRequest) (*link.Link, error) {
	var out link.Link
	if err := c.do(ctx, http.MethodPost, "/links", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListLinks returns the user's links newest first.
func (c *Client) ListLinks(ctx context.Context, userID string) ([]*link.Link, error) {
	var out api.ListLinksResponse
	q := url.Values{"userId": {userID}}
	if err := c.do(ctx, http.MethodGet, "/links", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Links, nil
}

// Search runs a semantic query over the user's links.
func (c *Client) Search(ctx context.Context, query, userID string) (*search.SearchOutput, error) {
	var out search.SearchOutput
	q := url.Values{"q": {query}, "userId": {userID}}
	if err := c.do(ctx, http.MethodGet, "/links/search", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Stats returns the server's embedding pool counters.
func (c *Client) Stats(ctx context.Context) (*worker.Stats, error) {
	var out worker.Stats
	if err := c.do(ctx, http.MethodGet, "/stats", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = query.Encode()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to linkrecall API at %s: %w", c.base, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr api.ErrorResponse
		msg := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		return &Error{StatusCode: resp.StatusCode, Message: msg}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
