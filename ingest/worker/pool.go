// Package worker provides the asynchronous worker pool that embeds saved
// links and writes their vectors using the provided storage.Driver and
// embeddings.Embedder.
//
// The pool decouples embedding from the request path: a link is returned to
// its submitter as soon as it is persisted, and becomes searchable once a
// worker has stored its embedding.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Rahi-padwal/linkRecall/pkg/embeddings"
	"github.com/Rahi-padwal/linkRecall/pkg/eventstream"
	"github.com/Rahi-padwal/linkRecall/pkg/storage"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 256
	defaultJobTimeout        = 60 * time.Second
)

const (
	// QueuePolicyDrop discards a job when the queue is full.
	QueuePolicyDrop = "drop"

	// QueuePolicyBlock waits for queue capacity until the caller's context
	// is done.
	QueuePolicyBlock = "block"
)

// ErrClosed is returned by EnqueueContext after Close.
var ErrClosed = errors.New("worker pool closed")

// ErrQueueFull is returned by EnqueueContext when a job is dropped.
var ErrQueueFull = errors.New("embedding queue full")

// Job is a unit of work for the worker pool to execute against.
type Job struct {
	LinkID      string
	UserID      string
	OriginalURL string

	// Text is the input handed to the embedder.
	Text string
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Driver is the storage backend the embeddings are written to.
	Driver storage.Driver

	// Embedder generates the text embeddings.
	Embedder embeddings.Embedder

	// Publisher receives embedding outcome events. Optional.
	Publisher eventstream.Publisher

	// Dimensions, when non-zero, is checked against every embedding before
	// it is written.
	Dimensions int

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	// QueuePolicy is QueuePolicyDrop (default) or QueuePolicyBlock.
	QueuePolicy string

	// JobTimeout bounds a single job (defaults to 60s).
	JobTimeout time.Duration

	// Logger is the provided slog logger
	Logger *slog.Logger
}

// Stats is a snapshot of the pool's counters.
type Stats struct {
	Queued    uint64 `json:"queued"`
	Stored    uint64 `json:"stored"`
	Failed    uint64 `json:"failed"`
	Dropped   uint64 `json:"dropped"`
	Pending   int    `json:"pending"`
	Workers   uint   `json:"workers"`
	QueueSize uint   `json:"queueSize"`
	QueueMode string `json:"queuePolicy"`
}

// Pool processes embedding jobs asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *slog.Logger

	// closeMu guards closed against concurrent Enqueue and Close
	closeMu sync.RWMutex
	closed  bool

	queued  atomic.Uint64
	stored  atomic.Uint64
	failed  atomic.Uint64
	dropped atomic.Uint64
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Driver == nil {
		return nil, errors.New("worker pool requires a storage driver")
	}
	if c.Embedder == nil {
		return nil, errors.New("worker pool requires an embedder")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.JobTimeout <= 0 {
		c.JobTimeout = defaultJobTimeout
	}

	switch c.QueuePolicy {
	case "":
		c.QueuePolicy = QueuePolicyDrop
	case QueuePolicyDrop, QueuePolicyBlock:
	default:
		return nil, fmt.Errorf("unsupported queue policy: %q", c.QueuePolicy)
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}

	wp := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: c.Logger.With("component", "embedding_pool"),
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits a job for processing by the worker pool.
// Returns true if enqueued, false if the job was dropped.
func (p *Pool) Enqueue(ctx context.Context, job Job) bool {
	return p.EnqueueContext(ctx, job) == nil
}

// EnqueueContext submits a job and reports why it was not accepted.
// Under QueuePolicyBlock it waits for capacity until ctx is done.
func (p *Pool) EnqueueContext(ctx context.Context, job Job) error {
	p.closeMu.RLock()
	defer p.closeMu.RUnlock()

	if p.closed {
		p.drop(job, "pool closed")
		return ErrClosed
	}

	if p.config.QueuePolicy == QueuePolicyBlock {
		select {
		case p.queue <- job:
			p.accepted(job)
			return nil
		case <-ctx.Done():
			p.drop(job, "context done while waiting for queue capacity")
			return fmt.Errorf("%w: %v", ErrQueueFull, ctx.Err())
		}
	}

	select {
	case p.queue <- job:
		p.accepted(job)
		return nil
	default:
		p.drop(job, "queue full")
		return ErrQueueFull
	}
}

// Stats returns the current counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Queued:    p.queued.Load(),
		Stored:    p.stored.Load(),
		Failed:    p.failed.Load(),
		Dropped:   p.dropped.Load(),
		Pending:   len(p.queue),
		Workers:   p.config.NumWorkers,
		QueueSize: p.config.QueueSize,
		QueueMode: p.config.QueuePolicy,
	}
}

// Close signals workers to stop and waits for in-flight jobs to drain.
// Call this during graceful shutdown after the HTTP server has stopped.
func (p *Pool) Close() {
	p.closeMu.Lock()
	if p.closed {
		p.closeMu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.closeMu.Unlock()

	p.wg.Wait()
}

func (p *Pool) accepted(job Job) {
	p.queued.Add(1)
	p.logger.Debug("embedding job queued",
		"link_id", job.LinkID,
		"user_id", job.UserID,
	)
}

func (p *Pool) drop(job Job, reason string) {
	p.dropped.Add(1)
	p.logger.Error("embedding job dropped, link stays without an embedding",
		"link_id", job.LinkID,
		"user_id", job.UserID,
		"reason", reason,
	)
}

// worker is the inner worker thread that continuously pulls jobs off the jobs queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", "worker_id", id)

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("worker stopped", "worker_id", id)
}

// processJob embeds the job's text and stores the vector on the link. The
// job runs on its own context so it outlives the request that queued it.
func (p *Pool) processJob(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), p.config.JobTimeout)
	defer cancel()

	started := time.Now()

	embedding, err := p.config.Embedder.Embed(ctx, job.Text)
	if err != nil {
		p.fail(ctx, job, "failed to generate embedding", err)
		return
	}

	if p.config.Dimensions > 0 && len(embedding) != p.config.Dimensions {
		err := fmt.Errorf("%w: expected %d dimensions, got %d", embeddings.ErrMalformed, p.config.Dimensions, len(embedding))
		p.fail(ctx, job, "failed to generate embedding", err)
		return
	}

	if err := p.config.Driver.UpdateEmbedding(ctx, job.LinkID, embedding); err != nil {
		p.fail(ctx, job, "failed to store embedding", err)
		return
	}

	p.stored.Add(1)
	p.logger.Info("embedding stored",
		"link_id", job.LinkID,
		"embedding_dim", len(embedding),
		"duration", time.Since(started),
	)

	event := eventstream.NewLinkEvent(eventstream.EventTypeEmbeddingStored, job.LinkID, job.UserID, job.OriginalURL)
	event.Dimensions = len(embedding)
	p.publish(ctx, event)
}

// fail records a failed job. Jobs are never retried; the link simply stays
// without an embedding.
func (p *Pool) fail(ctx context.Context, job Job, msg string, err error) {
	p.failed.Add(1)

	level := slog.LevelWarn
	if !errors.Is(err, embeddings.ErrUnavailable) {
		level = slog.LevelError
	}
	p.logger.Log(ctx, level, msg,
		"link_id", job.LinkID,
		"user_id", job.UserID,
		"error", err,
	)

	event := eventstream.NewLinkEvent(eventstream.EventTypeEmbeddingFailed, job.LinkID, job.UserID, job.OriginalURL)
	event.Error = err.Error()
	p.publish(ctx, event)
}

func (p *Pool) publish(ctx context.Context, event *eventstream.LinkEvent) {
	if p.config.Publisher == nil {
		return
	}
	if err := p.config.Publisher.PublishLink(ctx, event); err != nil {
		p.logger.Warn("failed to publish link event",
			"event_type", event.EventType,
			"link_id", event.LinkID,
			"error", err,
		)
	}
}
