// Package storage defines the Link Store: users, links and their embeddings,
// plus the owner-scoped nearest-neighbour query used by search.
package storage

import (
	"context"

	"github.com/Rahi-padwal/linkRecall/pkg/link"
)

// DefaultDimensions is the embedding length used when a driver is not told
// otherwise. It matches the default embedding model.
const DefaultDimensions = 768

// Driver defines the interface for persisting and querying links in a
// storage backend. Every method is a single atomic store operation.
type Driver interface {
	// EnsureUser inserts the user if its ID is unknown and is a no-op
	// otherwise. It returns true when the user was newly created. Concurrent
	// calls for the same ID must not fail.
	EnsureUser(ctx context.Context, user *link.User) (bool, error)

	// GetUser returns the user with the given ID or OwnerNotFoundError.
	GetUser(ctx context.Context, id string) (*link.User, error)

	// FirstUser returns the oldest user or OwnerNotFoundError when there
	// are none.
	FirstUser(ctx context.Context) (*link.User, error)

	// InsertLink persists a link, assigning its ID and CreatedAt when unset.
	// The owner must already exist (OwnerNotFoundError otherwise).
	InsertLink(ctx context.Context, l *link.Link) (*link.Link, error)

	// GetLink returns the link with the given ID or LinkNotFoundError.
	GetLink(ctx context.Context, id string) (*link.Link, error)

	// UpdateEmbedding sets the embedding of an existing link. It is the only
	// mutation allowed after insert; the last write wins.
	UpdateEmbedding(ctx context.Context, id string, embedding []float32) error

	// ListByOwner returns the user's links, newest first.
	ListByOwner(ctx context.Context, userID string) ([]*link.Link, error)

	// NearestByOwner returns the user's embedded links whose cosine distance
	// to the query is strictly below MaxDistance, ascending by distance and
	// capped at Limit.
	NearestByOwner(ctx context.Context, q NearestQuery) ([]Match, error)

	// Close closes the store and releases any resources.
	Close() error
}

// NearestQuery parameterizes NearestByOwner.
type NearestQuery struct {
	UserID      string
	Embedding   []float32
	MaxDistance float64
	Limit       int
}

// Match is one NearestByOwner row.
type Match struct {
	Link     *link.Link
	Distance float64
}
