// Package inmemory provides a map-backed storage.Driver, used by tests and
// for throwaway local runs.
package inmemory

import (
	"context"
	"sync"

	"github.com/Rahi-padwal/linkRecall/pkg/link"
	"github.com/Rahi-padwal/linkRecall/pkg/storage"
)

// Driver implements storage.Driver using in-memory maps.
type Driver struct {
	// mu guards users, links and byOwner
	mu sync.RWMutex

	dims int

	users map[string]*link.User

	// links is keyed by link ID
	links map[string]*link.Link

	// byOwner indexes link IDs by user ID
	byOwner map[string][]string
}

// NewDriver creates a new in-memory driver enforcing the given embedding
// dimension. A zero dims uses storage.DefaultDimensions.
func NewDriver(dims int) *Driver {
	if dims <= 0 {
		dims = storage.DefaultDimensions
	}
	return &Driver{
		dims:    dims,
		users:   make(map[string]*link.User),
		links:   make(map[string]*link.Link),
		byOwner: make(map[string][]string),
	}
}

// EnsureUser inserts the user unless its ID already exists.
func (d *Driver) EnsureUser(_ context.Context, user *link.User) (bool, error) {
	u, err := storage.PrepareUser(user)
	if err != nil {
		return false, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.users[u.ID]; ok {
		return false, nil
	}
	d.users[u.ID] = u
	return true, nil
}

// GetUser returns a user by ID.
func (d *Driver) GetUser(_ context.Context, id string) (*link.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	u, ok := d.users[id]
	if !ok {
		return nil, storage.OwnerNotFoundError{UserID: id}
	}
	c := *u
	return &c, nil
}

// FirstUser returns the oldest user.
func (d *Driver) FirstUser(_ context.Context) (*link.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var first *link.User
	for _, u := range d.users {
		if first == nil ||
			u.CreatedAt.Before(first.CreatedAt) ||
			(u.CreatedAt.Equal(first.CreatedAt) && u.ID < first.ID) {
			first = u
		}
	}
	if first == nil {
		return nil, storage.OwnerNotFoundError{}
	}
	c := *first
	return &c, nil
}

// InsertLink stores a new link for an existing owner.
func (d *Driver) InsertLink(_ context.Context, l *link.Link) (*link.Link, error) {
	prepared, err := storage.PrepareLink(l, d.dims)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.users[prepared.UserID]; !ok {
		return nil, storage.OwnerNotFoundError{UserID: prepared.UserID}
	}

	d.links[prepared.ID] = prepared
	d.byOwner[prepared.UserID] = append(d.byOwner[prepared.UserID], prepared.ID)
	return prepared.Clone(), nil
}

// GetLink returns a link by ID.
func (d *Driver) GetLink(_ context.Context, id string) (*link.Link, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	l, ok := d.links[id]
	if !ok {
		return nil, storage.LinkNotFoundError{LinkID: id}
	}
	return l.Clone(), nil
}

// UpdateEmbedding replaces a link's embedding.
func (d *Driver) UpdateEmbedding(_ context.Context, id string, embedding []float32) error {
	if err := storage.CheckDimensions(d.dims, embedding); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	l, ok := d.links[id]
	if !ok {
		return storage.LinkNotFoundError{LinkID: id}
	}
	l.Embedding = append([]float32(nil), embedding...)
	return nil
}

// ListByOwner returns the owner's links, newest first.
func (d *Driver) ListByOwner(_ context.Context, userID string) ([]*link.Link, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := d.ownedLocked(userID)
	storage.SortNewestFirst(out)
	return out, nil
}

// NearestByOwner scans the owner's links and computes exact cosine distances.
func (d *Driver) NearestByOwner(_ context.Context, q storage.NearestQuery) ([]storage.Match, error) {
	if err := storage.ValidateNearest(q, d.dims); err != nil {
		return nil, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	return storage.SelectNearest(d.ownedLocked(q.UserID), q), nil
}

// Close is a no-op.
func (d *Driver) Close() error {
	return nil
}

// ownedLocked returns clones of the owner's links. Callers hold mu.
func (d *Driver) ownedLocked(userID string) []*link.Link {
	ids := d.byOwner[userID]
	out := make([]*link.Link, 0, len(ids))
	for _, id := range ids {
		out = append(out, d.links[id].Clone())
	}
	return out
}

var _ storage.Driver = (*Driver)(nil)
