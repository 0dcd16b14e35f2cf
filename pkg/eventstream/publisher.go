package eventstream

import "context"

// Publisher publishes link events to an event stream backend.
type Publisher interface {
	PublishLink(ctx context.Context, event *LinkEvent) error
	Close() error
}
