package testutils

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/Rahi-padwal/linkRecall/pkg/embeddings"
)

// MockEmbedder is a test embedder that returns predictable embeddings
type MockEmbedder struct {
	mu    sync.Mutex
	calls []string

	// Dimensions is the length of generated default vectors.
	Dimensions int

	// Embeddings maps input text to a fixed vector.
	Embeddings map[string][]float32

	// FailOn causes Embed to return Err when the input text matches.
	// An empty FailOn with a non-nil Err fails every call.
	FailOn string
	Err    error

	// Gate, when non-nil, blocks every Embed call until it is closed or
	// the context is done.
	Gate chan struct{}
}

func NewMockEmbedder(dims int) *MockEmbedder {
	return &MockEmbedder{
		Dimensions: dims,
		Embeddings: make(map[string][]float32),
	}
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.calls = append(m.calls, text)
	gate := m.Gate
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", embeddings.ErrUnavailable, ctx.Err())
		}
	}

	if m.Err != nil && (m.FailOn == "" || m.FailOn == text) {
		return nil, m.Err
	}

	m.mu.Lock()
	emb, ok := m.Embeddings[text]
	m.mu.Unlock()
	if ok {
		return emb, nil
	}

	return HashVector(text, m.Dimensions), nil
}

// Set registers a fixed vector for text.
func (m *MockEmbedder) Set(text string, vec []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Embeddings[text] = vec
}

// Calls returns the texts Embed was invoked with, in order.
func (m *MockEmbedder) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *MockEmbedder) Close() error {
	return nil
}

// HashVector derives a non-zero vector of length dims from text.
func HashVector(text string, dims int) []float32 {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	v := make([]float32, dims)
	for i := range v {
		seed ^= seed << 13
		seed ^= seed >> 7
		seed ^= seed << 17
		v[i] = float32(seed%1000)/1000 + 0.001
	}
	return v
}

// Axis returns a unit vector of length dims pointing along axis i.
func Axis(dims, i int) []float32 {
	v := make([]float32, dims)
	v[i%dims] = 1
	return v
}

var _ embeddings.Embedder = (*MockEmbedder)(nil)
