package eventstream

import (
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeLinkCreated is emitted after a link is persisted.
	EventTypeLinkCreated = "linkrecall.link.created"

	// EventTypeEmbeddingStored is emitted after a link's embedding is written.
	EventTypeEmbeddingStored = "linkrecall.link.embedding_stored"

	// EventTypeEmbeddingFailed is emitted when the embedding step gives up on
	// a link. The link stays without an embedding.
	EventTypeEmbeddingFailed = "linkrecall.link.embedding_failed"
)

// LinkEvent is a transport-neutral event payload about a link's lifecycle.
type LinkEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`
	LinkID        string    `json:"link_id"`
	UserID        string    `json:"user_id"`
	OriginalURL   string    `json:"original_url"`
	Dimensions    int       `json:"dimensions,omitempty"`
	Error         string    `json:"error,omitempty"`
}

// NewLinkEvent returns an event of the given type stamped with a fresh ID
// and the current time.
func NewLinkEvent(eventType, linkID, userID, originalURL string) *LinkEvent {
	return &LinkEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     eventType,
		EventID:       "evt_" + uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		LinkID:        linkID,
		UserID:        userID,
		OriginalURL:   originalURL,
	}
}
