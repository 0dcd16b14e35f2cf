// Package fetcher retrieves a page and extracts the bits of metadata used to
// describe a saved link. Every failure degrades to empty metadata.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const (
	// DefaultTimeout bounds a single fetch including redirects.
	DefaultTimeout = 10 * time.Second

	// MaxBodyBytes caps how much of a page is read.
	MaxBodyBytes = 1 << 20

	maxRedirects = 10

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"
)

// contentAttr matches a double or single quoted attribute so an apostrophe in a
// double quoted value is kept.
const contentAttr = `content=(?:"([^"]*)"|'([^']*)')`

var (
	descNameFirst    = regexp.MustCompile(`(?is)<meta[^>]*name=["']description["'][^>]*` + contentAttr + `[^>]*>`)
	descContentFirst = regexp.MustCompile(`(?is)<meta[^>]*` + contentAttr + `[^>]*name=["']description["'][^>]*>`)
	ogNameFirst      = regexp.MustCompile(`(?is)<meta[^>]*property=["']og:description["'][^>]*` + contentAttr + `[^>]*>`)
	ogContentFirst   = regexp.MustCompile(`(?is)<meta[^>]*` + contentAttr + `[^>]*property=["']og:description["'][^>]*>`)
	titleTag         = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
)

// Metadata is what a page says about itself. Empty fields are absent.
type Metadata struct {
	Title       string
	Description string
}

// Fetcher is anything able to produce Metadata for a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) Metadata
}

// Config configures an HTTP fetcher.
type Config struct {
	Timeout time.Duration

	// Client overrides the HTTP client. Its Timeout is left untouched.
	Client *http.Client
}

// HTTPFetcher fetches pages over HTTP.
type HTTPFetcher struct {
	client *http.Client
	logger *slog.Logger
}

// New creates an HTTPFetcher.
func New(cfg Config, logger *slog.Logger) *HTTPFetcher {
	client := cfg.Client
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{
			Timeout: timeout,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return errors.New("too many redirects")
				}
				return nil
			},
		}
	}

	return &HTTPFetcher{
		client: client,
		logger: logger.With("component", "fetcher"),
	}
}

// Fetch retrieves url and extracts its title and description.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) Metadata {
	body, err := f.get(ctx, url)
	if err != nil {
		f.logger.Warn("could not fetch page metadata", "url", url, "error", err)
		return Metadata{}
	}

	md := Parse(body)
	f.logger.Debug("fetched page metadata",
		"url", url,
		"has_title", md.Title != "",
		"has_description", md.Description != "",
	)
	return md
}

// FetchDescription returns the page's meta description, if any.
func (f *HTTPFetcher) FetchDescription(ctx context.Context, url string) (string, bool) {
	md := f.Fetch(ctx, url)
	return md.Description, md.Description != ""
}

func (f *HTTPFetcher) get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("reading body: %w", err)
	}
	return string(b), nil
}

// Parse extracts Metadata from an HTML document.
func Parse(doc string) Metadata {
	return Metadata{
		Title:       extractTitle(doc),
		Description: extractDescription(doc),
	}
}

func extractDescription(doc string) string {
	for _, re := range []*regexp.Regexp{descNameFirst, descContentFirst, ogNameFirst, ogContentFirst} {
		if m := re.FindStringSubmatch(doc); m != nil {
			if d := strings.TrimSpace(html.UnescapeString(m[1] + m[2])); d != "" {
				return d
			}
		}
	}
	return ""
}

func extractTitle(doc string) string {
	m := titleTag.FindStringSubmatch(doc)
	if m == nil {
		return ""
	}
	return strings.Join(strings.Fields(html.UnescapeString(m[1])), " ")
}

var _ Fetcher = (*HTTPFetcher)(nil)
