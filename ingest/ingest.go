// Package ingest turns a link submission into a persisted link and queues the
// background embedding that makes it searchable.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Rahi-padwal/linkRecall/ingest/worker"
	"github.com/Rahi-padwal/linkRecall/pkg/eventstream"
	"github.com/Rahi-padwal/linkRecall/pkg/fetcher"
	"github.com/Rahi-padwal/linkRecall/pkg/link"
	"github.com/Rahi-padwal/linkRecall/pkg/storage"
)

// ErrOwnerRequired is returned when a submission names no owner and the
// anonymous default owner is disabled.
var ErrOwnerRequired = errors.New("owner id is required")

// Request is a link submission.
type Request struct {
	OriginalURL      string
	Title            *string
	Summary          *string
	Keywords         []string
	RawExtractedText *string

	// UserID is the owner. Empty means "no owner supplied".
	UserID string
}

// Enqueuer accepts embedding jobs.
type Enqueuer interface {
	Enqueue(ctx context.Context, job worker.Job) bool
}

// OwnerPolicy decides how Create resolves the owner.
type OwnerPolicy struct {
	// CreateMissingOwner creates a supplied but unknown owner with a
	// placeholder email. When false such a submission fails with
	// storage.OwnerNotFoundError.
	CreateMissingOwner bool

	// AllowAnonymousDefaultOwner assigns submissions without an owner to
	// the oldest user, creating one if the store is empty. When false such
	// a submission fails with ErrOwnerRequired.
	AllowAnonymousDefaultOwner bool
}

// Config configures a Coordinator.
type Config struct {
	Driver    storage.Driver
	Fetcher   fetcher.Fetcher
	Queue     Enqueuer
	Publisher eventstream.Publisher
	Owners    OwnerPolicy
	Logger    *slog.Logger
}

// Coordinator runs the synchronous half of ingestion.
type Coordinator struct {
	driver    storage.Driver
	fetcher   fetcher.Fetcher
	queue     Enqueuer
	publisher eventstream.Publisher
	owners    OwnerPolicy
	logger    *slog.Logger
}

// NewCoordinator creates a Coordinator. Fetcher and Publisher are optional.
func NewCoordinator(c Config) (*Coordinator, error) {
	if c.Driver == nil {
		return nil, errors.New("ingest coordinator requires a storage driver")
	}
	if c.Queue == nil {
		return nil, errors.New("ingest coordinator requires an embedding queue")
	}

	logger := c.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Coordinator{
		driver:    c.Driver,
		fetcher:   c.Fetcher,
		queue:     c.Queue,
		publisher: c.Publisher,
		owners:    c.Owners,
		logger:    logger.With("component", "ingest"),
	}, nil
}

// Create resolves the owner, extracts page metadata, persists the link and
// queues its embedding. The returned link never carries an embedding.
func (c *Coordinator) Create(ctx context.Context, req Request) (*link.Link, error) {
	url := strings.TrimSpace(req.OriginalURL)
	if url == "" {
		return nil, errors.New("original url is required")
	}

	userID, err := c.resolveOwner(ctx, strings.TrimSpace(req.UserID))
	if err != nil {
		return nil, err
	}

	var md fetcher.Metadata
	if c.fetcher != nil {
		md = c.fetcher.Fetch(ctx, url)
	}

	// The fetched page title is only shown; the embedded text uses the
	// caller's title and the page description.
	title := req.Title
	if title == nil {
		title = link.StringPtr(md.Title)
	}
	summary := req.Summary
	if summary == nil {
		summary = link.StringPtr(md.Description)
	}

	saved, err := c.driver.InsertLink(ctx, &link.Link{
		UserID:           userID,
		OriginalURL:      url,
		Title:            title,
		Summary:          summary,
		Keywords:         req.Keywords,
		RawExtractedText: req.RawExtractedText,
	})
	if err != nil {
		return nil, fmt.Errorf("saving link: %w", err)
	}

	c.logger.Info("link saved",
		"link_id", saved.ID,
		"user_id", saved.UserID,
		"has_description", md.Description != "",
	)
	c.publish(ctx, eventstream.NewLinkEvent(eventstream.EventTypeLinkCreated, saved.ID, saved.UserID, saved.OriginalURL))

	c.queue.Enqueue(ctx, worker.Job{
		LinkID:      saved.ID,
		UserID:      saved.UserID,
		OriginalURL: saved.OriginalURL,
		Text:        link.EmbeddingInput(link.Deref(req.Title), md.Description, saved.OriginalURL),
	})

	return saved, nil
}

func (c *Coordinator) resolveOwner(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		if !c.owners.AllowAnonymousDefaultOwner {
			return "", ErrOwnerRequired
		}
		return c.defaultOwner(ctx)
	}

	if !c.owners.CreateMissingOwner {
		if _, err := c.driver.GetUser(ctx, userID); err != nil {
			return "", err
		}
		return userID, nil
	}

	created, err := c.driver.EnsureUser(ctx, &link.User{
		ID:    userID,
		Email: "user+" + userID + "@example.com",
	})
	if err != nil {
		return "", fmt.Errorf("creating owner %s: %w", userID, err)
	}
	if created {
		c.logger.Info("created missing owner", "user_id", userID)
	}
	return userID, nil
}

// defaultOwner returns the oldest user, creating a placeholder one when the
// store has none.
func (c *Coordinator) defaultOwner(ctx context.Context) (string, error) {
	u, err := c.driver.FirstUser(ctx)
	if err == nil {
		return u.ID, nil
	}

	var notFound storage.OwnerNotFoundError
	if !errors.As(err, &notFound) {
		return "", fmt.Errorf("looking up default owner: %w", err)
	}

	id := uuid.NewString()
	if _, err := c.driver.EnsureUser(ctx, &link.User{
		ID:    id,
		Email: fmt.Sprintf("temp+%d@example.com", time.Now().UnixMilli()),
	}); err != nil {
		// a concurrent submission may have created the default owner first
		if u, lookupErr := c.driver.FirstUser(ctx); lookupErr == nil {
			return u.ID, nil
		}
		return "", fmt.Errorf("creating default owner: %w", err)
	}

	c.logger.Info("created default owner", "user_id", id)
	return id, nil
}

func (c *Coordinator) publish(ctx context.Context, event *eventstream.LinkEvent) {
	if c.publisher == nil {
		return
	}
	if err := c.publisher.PublishLink(ctx, event); err != nil {
		c.logger.Warn("failed to publish link event",
			"event_type", event.EventType,
			"link_id", event.LinkID,
			"error", err,
		)
	}
}
