package servecmder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/Rahi-padwal/linkRecall/api/mcp"
	"github.com/Rahi-padwal/linkRecall/api/search"
	"github.com/Rahi-padwal/linkRecall/ingest"
	"github.com/Rahi-padwal/linkRecall/ingest/worker"
	"github.com/Rahi-padwal/linkRecall/pkg/config"
	"github.com/Rahi-padwal/linkRecall/pkg/dotdir"
	"github.com/Rahi-padwal/linkRecall/pkg/embeddings"
	embeddingutils "github.com/Rahi-padwal/linkRecall/pkg/embeddings/utils"
	"github.com/Rahi-padwal/linkRecall/pkg/eventstream"
	eventstreamutils "github.com/Rahi-padwal/linkRecall/pkg/eventstream/utils"
	"github.com/Rahi-padwal/linkRecall/pkg/fetcher"
	"github.com/Rahi-padwal/linkRecall/pkg/storage"
	storageutils "github.com/Rahi-padwal/linkRecall/pkg/storage/utils"
)

// services is everything the API server is built on. Close releases them in
// reverse dependency order.
type services struct {
	driver      storage.Driver
	embedder    embeddings.Embedder
	publisher   eventstream.Publisher
	pool        *worker.Pool
	coordinator *ingest.Coordinator
	searcher    *search.Searcher
	mcp         *mcp.Server

	logger *slog.Logger
}

func newServices(ctx context.Context, cfg *config.Config, configDir string, logger *slog.Logger) (*services, error) {
	s := &services{logger: logger}
	dims := int(cfg.Embedding.Dimensions)

	ok := false
	defer func() {
		if !ok {
			s.Close()
		}
	}()

	storageOpts, err := storageOptions(cfg, configDir)
	if err != nil {
		return nil, err
	}
	s.driver, err = storageutils.NewDriver(ctx, storageOpts, logger)
	if err != nil {
		return nil, fmt.Errorf("creating link store: %w", err)
	}

	s.embedder, err = embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: cfg.Embedding.Provider,
		TargetURL:    cfg.Embedding.Target,
		Model:        cfg.Embedding.Model,
		Dimensions:   dims,
		Endpoint:     cfg.Embedding.Endpoint,
		Timeout:      config.Duration(cfg.Embedding.Timeout, 0),
	})
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	s.publisher, err = eventstreamutils.NewPublisher(&eventstreamutils.NewPublisherOpts{
		ProviderType: cfg.Events.Provider,
		Brokers:      config.SplitList(cfg.Events.Brokers),
		Topic:        cfg.Events.Topic,
	})
	if err != nil {
		return nil, fmt.Errorf("creating event publisher: %w", err)
	}

	s.pool, err = worker.NewPool(&worker.Config{
		Driver:      s.driver,
		Embedder:    s.embedder,
		Publisher:   s.publisher,
		Dimensions:  dims,
		NumWorkers:  cfg.Ingest.Workers,
		QueueSize:   cfg.Ingest.QueueSize,
		QueuePolicy: cfg.Ingest.QueuePolicy,
		JobTimeout:  config.Duration(cfg.Ingest.JobTimeout, 0),
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating embedding pool: %w", err)
	}

	s.coordinator, err = ingest.NewCoordinator(ingest.Config{
		Driver:    s.driver,
		Fetcher:   fetcher.New(fetcher.Config{Timeout: config.Duration(cfg.Fetch.Timeout, 0)}, logger),
		Queue:     s.pool,
		Publisher: s.publisher,
		Owners: ingest.OwnerPolicy{
			CreateMissingOwner:         cfg.Ingest.CreatesMissingOwner(),
			AllowAnonymousDefaultOwner: cfg.Ingest.AllowAnonymousDefaultOwner,
		},
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating ingest coordinator: %w", err)
	}

	s.searcher, err = search.NewSearcher(s.embedder, s.driver, searchPolicy(cfg), logger)
	if err != nil {
		return nil, fmt.Errorf("creating searcher: %w", err)
	}

	s.mcp, err = mcp.NewServer(mcp.Config{
		Saver:    s.coordinator,
		Searcher: s.searcher,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating MCP server: %w", err)
	}

	ok = true
	return s, nil
}

// storageOptions fills unset file-backed store paths with locations inside
// the .linkrecall/ directory.
func storageOptions(cfg *config.Config, configDir string) (*storageutils.NewDriverOpts, error) {
	opts := &storageutils.NewDriverOpts{
		ProviderType: cfg.Storage.Provider,
		SQLitePath:   cfg.Storage.SQLitePath,
		PostgresDSN:  cfg.Storage.PostgresDSN,
		BadgerPath:   cfg.Storage.BadgerPath,
		Dimensions:   int(cfg.Embedding.Dimensions),
	}

	needsDir := (opts.ProviderType == storageutils.ProviderSQLite && opts.SQLitePath == "") ||
		(opts.ProviderType == storageutils.ProviderBadger && opts.BadgerPath == "")
	if !needsDir {
		return opts, nil
	}

	dir, err := dotdir.NewManager().Ensure(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving data dir: %w", err)
	}
	if opts.SQLitePath == "" {
		opts.SQLitePath = filepath.Join(dir, config.DefaultSQLiteFile)
	}
	if opts.BadgerPath == "" {
		opts.BadgerPath = filepath.Join(dir, config.DefaultBadgerDir)
	}
	return opts, nil
}

func searchPolicy(cfg *config.Config) search.Policy {
	return search.Policy{
		MaxDistance: cfg.Search.MaxDistance,
		Limit:       int(cfg.Search.Limit),
	}
}

// applyConfig pushes a reloaded search policy into the running searcher.
// Other settings need a restart.
func (s *services) applyConfig(cfg *config.Config) {
	policy := searchPolicy(cfg)
	if policy == s.searcher.Policy() {
		return
	}
	if err := s.searcher.SetPolicy(policy); err != nil {
		s.logger.Warn("ignoring reloaded search policy", "error", err)
		return
	}
	s.logger.Info("search policy reloaded",
		"max_distance", policy.MaxDistance,
		"limit", policy.Limit,
	)
}

func (s *services) Close() {
	var errs []error
	if s.pool != nil {
		s.pool.Close()
	}
	if s.publisher != nil {
		errs = append(errs, s.publisher.Close())
	}
	if s.embedder != nil {
		errs = append(errs, s.embedder.Close())
	}
	if s.driver != nil {
		errs = append(errs, s.driver.Close())
	}
	if err := errors.Join(errs...); err != nil {
		s.logger.Warn("closing services", "error", err)
	}
}
