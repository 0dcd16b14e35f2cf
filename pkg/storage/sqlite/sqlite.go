// Package sqlite provides a SQLite-backed storage driver. Cosine distance is
// computed in the database by the sqlite-vec extension.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	"github.com/mattn/go-sqlite3"

	"github.com/Rahi-padwal/linkRecall/pkg/link"
	"github.com/Rahi-padwal/linkRecall/pkg/storage"
	"github.com/Rahi-padwal/linkRecall/pkg/vector"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id         TEXT PRIMARY KEY,
	email      TEXT NOT NULL UNIQUE,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS links (
	id                 TEXT PRIMARY KEY,
	user_id            TEXT NOT NULL REFERENCES users(id),
	original_url       TEXT NOT NULL,
	title              TEXT,
	summary            TEXT,
	keywords           TEXT NOT NULL DEFAULT '[]',
	raw_extracted_text TEXT,
	embedding          BLOB,
	created_at         INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS links_user_created ON links(user_id, created_at DESC);
`

const linkColumns = `id, user_id, original_url, title, summary, keywords, raw_extracted_text, embedding, created_at`

// Config holds configuration for the SQLite driver.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string

	// Dimensions is the embedding length enforced on writes and queries.
	// Defaults to storage.DefaultDimensions if zero.
	Dimensions int
}

// Driver implements storage.Driver using SQLite with sqlite-vec.
type Driver struct {
	db     *sql.DB
	dims   int
	logger *slog.Logger
}

// NewDriver opens (or creates) the database and applies the schema.
func NewDriver(c Config, logger *slog.Logger) (*Driver, error) {
	// enable connection to have sqlite-vec extension
	sqlite_vec.Auto()

	if c.DBPath == "" {
		return nil, errors.New("database path is required")
	}

	dims := c.Dimensions
	if dims == 0 {
		dims = storage.DefaultDimensions
	}

	db, err := sql.Open("sqlite3", c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps ":memory:" databases shared and serializes
	// writers the way SQLite wants anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite-vec not available: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	logger.Info("sqlite storage driver initialized",
		"db_path", c.DBPath,
		"dimensions", dims,
		"vec_version", vecVersion,
	)

	return &Driver{
		db:     db,
		dims:   dims,
		logger: logger,
	}, nil
}

// EnsureUser inserts the user unless its ID already exists.
func (d *Driver) EnsureUser(ctx context.Context, user *link.User) (bool, error) {
	u, err := storage.PrepareUser(user)
	if err != nil {
		return false, err
	}

	res, err := d.db.ExecContext(ctx,
		`INSERT INTO users(id, email, created_at) VALUES (?, ?, ?) ON CONFLICT(id) DO NOTHING`,
		u.ID, u.Email, u.CreatedAt.UnixNano(),
	)
	if err != nil {
		return false, fmt.Errorf("inserting user %s: %w", u.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading rows affected: %w", err)
	}
	return n == 1, nil
}

// GetUser returns a user by ID.
func (d *Driver) GetUser(ctx context.Context, id string) (*link.User, error) {
	row := d.db.QueryRowContext(ctx, `SELECT id, email, created_at FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.OwnerNotFoundError{UserID: id}
	}
	return u, err
}

// FirstUser returns the oldest user.
func (d *Driver) FirstUser(ctx context.Context) (*link.User, error) {
	row := d.db.QueryRowContext(ctx, `SELECT id, email, created_at FROM users ORDER BY created_at ASC, id ASC LIMIT 1`)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.OwnerNotFoundError{}
	}
	return u, err
}

// InsertLink stores a new link. The foreign key on user_id provides the
// referential check within the same statement.
func (d *Driver) InsertLink(ctx context.Context, l *link.Link) (*link.Link, error) {
	prepared, err := storage.PrepareLink(l, d.dims)
	if err != nil {
		return nil, err
	}

	keywords, err := json.Marshal(keywordsOrEmpty(prepared.Keywords))
	if err != nil {
		return nil, fmt.Errorf("encoding keywords: %w", err)
	}

	var blob []byte
	if prepared.Embedding != nil {
		blob = vector.SerializeFloat32(prepared.Embedding)
	}

	_, err = d.db.ExecContext(ctx,
		`INSERT INTO links(`+linkColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		prepared.ID,
		prepared.UserID,
		prepared.OriginalURL,
		prepared.Title,
		prepared.Summary,
		string(keywords),
		prepared.RawExtractedText,
		blob,
		prepared.CreatedAt.UnixNano(),
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey {
			return nil, storage.OwnerNotFoundError{UserID: prepared.UserID}
		}
		return nil, fmt.Errorf("inserting link: %w", err)
	}

	return prepared, nil
}

// GetLink returns a link by ID.
func (d *Driver) GetLink(ctx context.Context, id string) (*link.Link, error) {
	row := d.db.QueryRowContext(ctx, `SELECT `+linkColumns+` FROM links WHERE id = ?`, id)
	l, err := scanLink(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.LinkNotFoundError{LinkID: id}
	}
	return l, err
}

// UpdateEmbedding replaces a link's embedding.
func (d *Driver) UpdateEmbedding(ctx context.Context, id string, embedding []float32) error {
	if err := storage.CheckDimensions(d.dims, embedding); err != nil {
		return err
	}

	res, err := d.db.ExecContext(ctx,
		`UPDATE links SET embedding = ? WHERE id = ?`,
		vector.SerializeFloat32(embedding), id,
	)
	if err != nil {
		return fmt.Errorf("updating embedding for link %s: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading rows affected: %w", err)
	}
	if n == 0 {
		return storage.LinkNotFoundError{LinkID: id}
	}
	return nil
}

// ListByOwner returns the owner's links, newest first.
func (d *Driver) ListByOwner(ctx context.Context, userID string) ([]*link.Link, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT `+linkColumns+` FROM links WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing links: %w", err)
	}
	defer rows.Close()

	out := []*link.Link{}
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// NearestByOwner runs an exact scan over the owner's embedded links using
// vec_distance_cosine. Zero-magnitude vectors yield NULL and drop out.
func (d *Driver) NearestByOwner(ctx context.Context, q storage.NearestQuery) ([]storage.Match, error) {
	if err := storage.ValidateNearest(q, d.dims); err != nil {
		return nil, err
	}
	if q.Limit <= 0 {
		return []storage.Match{}, nil
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT `+linkColumns+`, distance FROM (
			SELECT `+linkColumns+`, vec_distance_cosine(embedding, ?) AS distance
			FROM links
			WHERE user_id = ? AND embedding IS NOT NULL
		)
		WHERE distance IS NOT NULL AND distance < ?
		ORDER BY distance ASC, created_at DESC, id ASC
		LIMIT ?`,
		vector.SerializeFloat32(q.Embedding), q.UserID, q.MaxDistance, q.Limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying nearest links: %w", err)
	}
	defer rows.Close()

	matches := []storage.Match{}
	for rows.Next() {
		var distance float64
		l, err := scanLink(rows, &distance)
		if err != nil {
			return nil, err
		}
		matches = append(matches, storage.Match{Link: l, Distance: distance})
	}
	return matches, rows.Err()
}

// Close closes the database.
func (d *Driver) Close() error {
	return d.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*link.User, error) {
	var (
		u       link.User
		created int64
	)
	if err := s.Scan(&u.ID, &u.Email, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning user: %w", err)
	}
	u.CreatedAt = time.Unix(0, created).UTC()
	return &u, nil
}

func scanLink(s scanner, extra ...any) (*link.Link, error) {
	var (
		l         link.Link
		title     sql.NullString
		summary   sql.NullString
		raw       sql.NullString
		keywords  string
		embedding []byte
		created   int64
	)

	dest := []any{&l.ID, &l.UserID, &l.OriginalURL, &title, &summary, &keywords, &raw, &embedding, &created}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning link: %w", err)
	}

	if err := json.Unmarshal([]byte(keywords), &l.Keywords); err != nil {
		return nil, fmt.Errorf("decoding keywords for link %s: %w", l.ID, err)
	}

	emb, err := vector.DeserializeFloat32(embedding)
	if err != nil {
		return nil, fmt.Errorf("decoding embedding for link %s: %w", l.ID, err)
	}
	l.Embedding = emb

	l.Title = nullString(title)
	l.Summary = nullString(summary)
	l.RawExtractedText = nullString(raw)
	l.CreatedAt = time.Unix(0, created).UTC()
	return &l, nil
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

func keywordsOrEmpty(k []string) []string {
	if k == nil {
		return []string{}
	}
	return k
}

var _ storage.Driver = (*Driver)(nil)
