package testutils

import (
	"context"
	"sync"

	"github.com/Rahi-padwal/linkRecall/pkg/fetcher"
)

// MockFetcher returns canned page metadata keyed by URL.
type MockFetcher struct {
	mu    sync.Mutex
	Pages map[string]fetcher.Metadata
	calls int
}

func NewMockFetcher() *MockFetcher {
	return &MockFetcher{Pages: make(map[string]fetcher.Metadata)}
}

// Set registers metadata for url.
func (m *MockFetcher) Set(url string, md fetcher.Metadata) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Pages[url] = md
}

func (m *MockFetcher) Fetch(_ context.Context, url string) fetcher.Metadata {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.Pages[url]
}

// Calls returns how many times Fetch ran.
func (m *MockFetcher) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
