// Package badger provides a storage driver on the BadgerDB key-value store.
// Distances are computed in Go over the owner's key range.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/Rahi-padwal/linkRecall/pkg/link"
	"github.com/Rahi-padwal/linkRecall/pkg/storage"
)

// maxConflictRetries bounds retries of an optimistic transaction that lost
// a write conflict.
const maxConflictRetries = 5

// Config holds configuration for the Badger driver.
type Config struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps everything in memory.
	InMemory bool

	// Dimensions is the embedding length enforced on writes and queries.
	// Defaults to storage.DefaultDimensions if zero.
	Dimensions int
}

// Driver implements storage.Driver using BadgerDB.
type Driver struct {
	db     *badger.DB
	dims   int
	logger *slog.Logger
}

// record is the stored form of a link. Unlike link.Link's JSON it carries
// the embedding.
type record struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	OriginalURL      string    `json:"original_url"`
	Title            *string   `json:"title,omitempty"`
	Summary          *string   `json:"summary,omitempty"`
	Keywords         []string  `json:"keywords"`
	RawExtractedText *string   `json:"raw_extracted_text,omitempty"`
	Embedding        []float32 `json:"embedding,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// NewDriver opens the database.
func NewDriver(c Config, logger *slog.Logger) (*Driver, error) {
	dims := c.Dimensions
	if dims == 0 {
		dims = storage.DefaultDimensions
	}

	var opts badger.Options
	switch {
	case c.InMemory:
		opts = badger.DefaultOptions("").WithInMemory(true)
	case c.Path != "":
		opts = badger.DefaultOptions(c.Path)
	default:
		return nil, errors.New("badger path is required")
	}
	opts.Logger = &badgerLogger{logger: logger.With("component", "badgerdb")}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db at %s: %w", c.Path, err)
	}

	logger.Info("badger storage driver initialized",
		"path", c.Path,
		"in_memory", c.InMemory,
		"dimensions", dims,
	)

	return &Driver{
		db:     db,
		dims:   dims,
		logger: logger,
	}, nil
}

// EnsureUser inserts the user unless its ID already exists.
func (d *Driver) EnsureUser(_ context.Context, user *link.User) (bool, error) {
	u, err := storage.PrepareUser(user)
	if err != nil {
		return false, err
	}

	val, err := json.Marshal(u)
	if err != nil {
		return false, fmt.Errorf("failed to marshal user: %w", err)
	}

	var created bool
	err = d.update(func(txn *badger.Txn) error {
		created = false
		_, err := txn.Get(userKey(u.ID))
		if err == nil {
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		if err := txn.Set(userKey(u.ID), val); err != nil {
			return err
		}
		if err := txn.Set(userOrderKey(u.CreatedAt, u.ID), nil); err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("inserting user %s: %w", u.ID, err)
	}
	return created, nil
}

// GetUser returns a user by ID.
func (d *Driver) GetUser(_ context.Context, id string) (*link.User, error) {
	var u *link.User
	err := d.db.View(func(txn *badger.Txn) error {
		var err error
		u, err = getUser(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// FirstUser returns the oldest user.
func (d *Driver) FirstUser(_ context.Context) (*link.User, error) {
	var u *link.User
	err := d.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(userOrderPrefix)
		it.Seek(prefix)
		if !it.ValidForPrefix(prefix) {
			return storage.OwnerNotFoundError{}
		}

		id, err := idFromIndexKey(it.Item().KeyCopy(nil))
		if err != nil {
			return err
		}
		u, err = getUser(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// InsertLink stores a new link. The owner check and the writes share one
// transaction, so a link never lands without its owner.
func (d *Driver) InsertLink(_ context.Context, l *link.Link) (*link.Link, error) {
	prepared, err := storage.PrepareLink(l, d.dims)
	if err != nil {
		return nil, err
	}

	val, err := json.Marshal(toRecord(prepared))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal link: %w", err)
	}

	err = d.update(func(txn *badger.Txn) error {
		if _, err := txn.Get(userKey(prepared.UserID)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.OwnerNotFoundError{UserID: prepared.UserID}
			}
			return err
		}
		if err := txn.Set(linkKey(prepared.ID), val); err != nil {
			return err
		}
		return txn.Set(ownerKey(prepared.UserID, prepared.CreatedAt, prepared.ID), nil)
	})
	if err != nil {
		var notFound storage.OwnerNotFoundError
		if errors.As(err, &notFound) {
			return nil, notFound
		}
		return nil, fmt.Errorf("inserting link: %w", err)
	}

	return prepared, nil
}

// GetLink returns a link by ID.
func (d *Driver) GetLink(_ context.Context, id string) (*link.Link, error) {
	var l *link.Link
	err := d.db.View(func(txn *badger.Txn) error {
		var err error
		l, err = getLink(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return l, nil
}

// UpdateEmbedding replaces a link's embedding.
func (d *Driver) UpdateEmbedding(_ context.Context, id string, embedding []float32) error {
	if err := storage.CheckDimensions(d.dims, embedding); err != nil {
		return err
	}

	return d.update(func(txn *badger.Txn) error {
		l, err := getLink(txn, id)
		if err != nil {
			return err
		}
		l.Embedding = append([]float32(nil), embedding...)

		val, err := json.Marshal(toRecord(l))
		if err != nil {
			return fmt.Errorf("failed to marshal link: %w", err)
		}
		return txn.Set(linkKey(id), val)
	})
}

// ListByOwner returns the owner's links, newest first, by walking the owner
// index in reverse.
func (d *Driver) ListByOwner(_ context.Context, userID string) ([]*link.Link, error) {
	out := []*link.Link{}
	err := d.db.View(func(txn *badger.Txn) error {
		var err error
		out, err = ownedLinks(txn, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// NearestByOwner computes exact cosine distances over the owner's links.
func (d *Driver) NearestByOwner(_ context.Context, q storage.NearestQuery) ([]storage.Match, error) {
	if err := storage.ValidateNearest(q, d.dims); err != nil {
		return nil, err
	}

	var candidates []*link.Link
	err := d.db.View(func(txn *badger.Txn) error {
		var err error
		candidates, err = ownedLinks(txn, q.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return storage.SelectNearest(candidates, q), nil
}

// Close closes the database.
func (d *Driver) Close() error {
	d.logger.Debug("closing badger db")
	return d.db.Close()
}

// update runs fn in a read-write transaction, retrying on write conflicts.
func (d *Driver) update(fn func(txn *badger.Txn) error) error {
	var err error
	for range maxConflictRetries {
		err = d.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

func getUser(txn *badger.Txn, id string) (*link.User, error) {
	item, err := txn.Get(userKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, storage.OwnerNotFoundError{UserID: id}
	}
	if err != nil {
		return nil, err
	}

	var u link.User
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &u)
	}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user %s: %w", id, err)
	}
	return &u, nil
}

func getLink(txn *badger.Txn, id string) (*link.Link, error) {
	item, err := txn.Get(linkKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, storage.LinkNotFoundError{LinkID: id}
	}
	if err != nil {
		return nil, err
	}

	var r record
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &r)
	}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal link %s: %w", id, err)
	}
	return r.toLink(), nil
}

func ownedLinks(txn *badger.Txn, userID string) ([]*link.Link, error) {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Reverse = true
	it := txn.NewIterator(opts)
	defer it.Close()

	prefix := ownerPrefix(userID)
	out := []*link.Link{}
	for it.Seek(append(append([]byte(nil), prefix...), 0xFF)); it.ValidForPrefix(prefix); it.Next() {
		id, err := idFromIndexKey(it.Item().KeyCopy(nil))
		if err != nil {
			return nil, err
		}
		l, err := getLink(txn, id)
		if err != nil {
			return nil, err
		}
		if l.UserID != userID {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func toRecord(l *link.Link) record {
	return record{
		ID:               l.ID,
		UserID:           l.UserID,
		OriginalURL:      l.OriginalURL,
		Title:            l.Title,
		Summary:          l.Summary,
		Keywords:         l.Keywords,
		RawExtractedText: l.RawExtractedText,
		Embedding:        l.Embedding,
		CreatedAt:        l.CreatedAt,
	}
}

func (r record) toLink() *link.Link {
	return &link.Link{
		ID:               r.ID,
		UserID:           r.UserID,
		OriginalURL:      r.OriginalURL,
		Title:            r.Title,
		Summary:          r.Summary,
		Keywords:         r.Keywords,
		RawExtractedText: r.RawExtractedText,
		Embedding:        r.Embedding,
		CreatedAt:        r.CreatedAt.UTC(),
	}
}

var _ storage.Driver = (*Driver)(nil)
