package testutils

import (
	"context"
	"sync"

	"github.com/Rahi-padwal/linkRecall/pkg/eventstream"
)

// MockPublisher records published link events.
type MockPublisher struct {
	mu     sync.Mutex
	events []eventstream.LinkEvent

	// Err is returned from every PublishLink call after recording.
	Err error
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) PublishLink(_ context.Context, event *eventstream.LinkEvent) error {
	if event == nil {
		return eventstream.ErrNilLinkEvent
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *event)
	return m.Err
}

// Types returns the event types published so far, in order.
func (m *MockPublisher) Types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, len(m.events))
	for i, e := range m.events {
		out[i] = e.EventType
	}
	return out
}

// Events returns a copy of the published events.
func (m *MockPublisher) Events() []eventstream.LinkEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]eventstream.LinkEvent(nil), m.events...)
}

func (m *MockPublisher) Close() error {
	return nil
}
