// Package embeddings defines the text-to-vector contract used by ingestion
// and retrieval.
package embeddings

import "context"

// Embedder provides text embedding capabilities.
type Embedder interface {
	// Embed converts text into a vector of the embedder's fixed dimension.
	// Failures wrap ErrUnavailable or ErrMalformed.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Close releases any resources held by the embedder.
	Close() error
}
