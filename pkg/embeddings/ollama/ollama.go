// Package ollama implements pkg/embeddings's Embedder client for Ollama's embedding APIs
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Rahi-padwal/linkRecall/pkg/embeddings"
)

const (
	// DefaultEmbeddingModel is the default model used for embeddings.
	DefaultEmbeddingModel = "nomic-embed-text"

	// DefaultBaseURL is the default Ollama API URL.
	DefaultBaseURL = "http://localhost:11434"

	// DefaultDimensions is the vector length produced by nomic-embed-text.
	DefaultDimensions = 768

	// DefaultTimeout bounds a single embedding call.
	DefaultTimeout = 30 * time.Second

	// EndpointEmbeddings is the single-prompt /api/embeddings endpoint.
	EndpointEmbeddings = "embeddings"

	// EndpointEmbed is the batch-capable /api/embed endpoint.
	EndpointEmbed = "embed"
)

// Embedder wraps Ollama's embedding API.
type Embedder struct {
	baseURL    string
	model      string
	endpoint   string
	dimensions int
	httpClient *http.Client
}

// EmbedderConfig holds configuration for the Ollama embedder.
type EmbedderConfig struct {
	// BaseURL is the Ollama API URL (e.g., "http://localhost:11434").
	// Defaults to DefaultBaseURL if empty.
	BaseURL string

	// Model is the embedding model to use (e.g., "nomic-embed-text", "all-minilm").
	// Defaults to DefaultEmbeddingModel if empty.
	Model string

	// Dimensions is the expected vector length. Every response is checked
	// against it. Defaults to DefaultDimensions if zero.
	Dimensions int

	// Endpoint selects EndpointEmbeddings (default) or EndpointEmbed.
	Endpoint string

	// Timeout bounds each HTTP call. Defaults to DefaultTimeout if zero.
	Timeout time.Duration
}

type promptRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type promptResponse struct {
	Embedding []float32 `json:"embedding"`
}

type inputRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type inputResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// NewEmbedder creates a new embedder using Ollama's embedding API.
func NewEmbedder(cfg EmbedderConfig) (*Embedder, error) {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultEmbeddingModel
	}

	dims := cfg.Dimensions
	if dims == 0 {
		dims = DefaultDimensions
	}
	if dims < 0 {
		return nil, fmt.Errorf("invalid embedding dimensions: %d", dims)
	}

	endpoint := cfg.Endpoint
	switch endpoint {
	case "":
		endpoint = EndpointEmbeddings
	case EndpointEmbeddings, EndpointEmbed:
	default:
		return nil, fmt.Errorf("unsupported ollama endpoint: %q", endpoint)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Embedder{
		baseURL:    baseURL,
		model:      model,
		endpoint:   endpoint,
		dimensions: dims,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Dimensions returns the vector length this embedder enforces.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

// Embed converts text into a vector embedding.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var reqBody any
	if e.endpoint == EndpointEmbed {
		reqBody = inputRequest{Model: e.model, Input: text}
	} else {
		reqBody = promptRequest{Model: e.model, Prompt: text}
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/"+e.endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", embeddings.ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: sending request: %v", embeddings.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: ollama returned status %d: %s", embeddings.ErrUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", embeddings.ErrUnavailable, err)
	}

	vec, err := e.decode(body)
	if err != nil {
		return nil, err
	}

	if len(vec) != e.dimensions {
		return nil, fmt.Errorf("%w: expected %d dimensions, got %d", embeddings.ErrMalformed, e.dimensions, len(vec))
	}

	return vec, nil
}

func (e *Embedder) decode(body []byte) ([]float32, error) {
	if e.endpoint == EndpointEmbed {
		var r inputResponse
		if err := json.Unmarshal(body, &r); err != nil {
			return nil, fmt.Errorf("%w: decoding response: %v", embeddings.ErrMalformed, err)
		}
		if len(r.Embeddings) == 0 {
			return nil, fmt.Errorf("%w: no embeddings returned", embeddings.ErrMalformed)
		}
		return r.Embeddings[0], nil
	}

	var r promptResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", embeddings.ErrMalformed, err)
	}
	if r.Embedding == nil {
		return nil, fmt.Errorf("%w: no embedding returned", embeddings.ErrMalformed)
	}
	return r.Embedding, nil
}

// Close releases resources held by the embedder.
func (e *Embedder) Close() error {
	e.httpClient.CloseIdleConnections()
	return nil
}

var _ embeddings.Embedder = (*Embedder)(nil)
