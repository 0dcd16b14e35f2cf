// Package servecmder provides the serve command, which runs the linkrecall
// API server together with its embedding workers.
package servecmder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Rahi-padwal/linkRecall/api"
	"github.com/Rahi-padwal/linkRecall/cmd/linkrecall/cmdutil"
	"github.com/Rahi-padwal/linkRecall/pkg/config"
	"github.com/Rahi-padwal/linkRecall/pkg/logger"
)

type serveCommander struct {
	flags config.FlagSet
	v     *viper.Viper

	listen          string
	storageProvider string
	sqlitePath      string
	postgresDSN     string
	badgerPath      string
	embeddingProv   string
	embeddingTgt    string
	embeddingModel  string
	embeddingDims   uint
	maxDistance     float64
	limit           uint
	workers         uint
	queuePolicy     string
	eventsProvider  string
	eventsBrokers   string

	noWatch   bool
	logFile   string
	configDir string
	logger    *slog.Logger
}

var serveFlags = config.FlagSet{
	config.FlagListen:          config.Flags[config.FlagListen],
	config.FlagStorageProvider: config.Flags[config.FlagStorageProvider],
	config.FlagSQLite:          config.Flags[config.FlagSQLite],
	config.FlagPostgres:        config.Flags[config.FlagPostgres],
	config.FlagBadger:          config.Flags[config.FlagBadger],
	config.FlagEmbeddingProv:   config.Flags[config.FlagEmbeddingProv],
	config.FlagEmbeddingTgt:    config.Flags[config.FlagEmbeddingTgt],
	config.FlagEmbeddingModel:  config.Flags[config.FlagEmbeddingModel],
	config.FlagEmbeddingDims:   config.Flags[config.FlagEmbeddingDims],
	config.FlagMaxDistance:     config.Flags[config.FlagMaxDistance],
	config.FlagLimit:           config.Flags[config.FlagLimit],
	config.FlagWorkers:         config.Flags[config.FlagWorkers],
	config.FlagQueuePolicy:     config.Flags[config.FlagQueuePolicy],
	config.FlagEventsProvider:  config.Flags[config.FlagEventsProvider],
	config.FlagEventsBrokers:   config.Flags[config.FlagEventsBrokers],
}

const serveLongDesc string = `Run the linkrecall API server.

Starts the HTTP API (and the MCP endpoint at /mcp) together with the pool of
embedding workers. Links saved through the API are stored immediately and
embedded in the background by the configured embedding provider.

Settings come from flags, LINKRECALL_* environment variables and
.linkrecall/config.toml, in that order. Edits to search.max_distance and
search.limit in config.toml apply without a restart.

Examples:
  linkrecall serve
  linkrecall serve --storage postgres --postgres "postgres://localhost/linkrecall"
  linkrecall serve --embedding-model mxbai-embed-large --embedding-dimensions 1024`

const serveShortDesc string = "Run the linkrecall API server"

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{
		flags: serveFlags,
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir = cmdutil.ConfigDir(cmd)

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, cmder.flags, []string{
				config.FlagListen,
				config.FlagStorageProvider,
				config.FlagSQLite,
				config.FlagPostgres,
				config.FlagBadger,
				config.FlagEmbeddingProv,
				config.FlagEmbeddingTgt,
				config.FlagEmbeddingModel,
				config.FlagEmbeddingDims,
				config.FlagMaxDistance,
				config.FlagLimit,
				config.FlagWorkers,
				config.FlagQueuePolicy,
				config.FlagEventsProvider,
				config.FlagEventsBrokers,
			})

			cmder.v = v
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.logger = cmdutil.NewLogger(cmd, os.Stdout)
			if cmder.logFile != "" {
				closeLog, err := cmder.teeLogFile(cmd)
				if err != nil {
					return err
				}
				defer closeLog()
			}
			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, cmder.flags, config.FlagListen, &cmder.listen)
	config.AddStringFlag(cmd, cmder.flags, config.FlagStorageProvider, &cmder.storageProvider)
	config.AddStringFlag(cmd, cmder.flags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, cmder.flags, config.FlagPostgres, &cmder.postgresDSN)
	config.AddStringFlag(cmd, cmder.flags, config.FlagBadger, &cmder.badgerPath)
	config.AddStringFlag(cmd, cmder.flags, config.FlagEmbeddingProv, &cmder.embeddingProv)
	config.AddStringFlag(cmd, cmder.flags, config.FlagEmbeddingTgt, &cmder.embeddingTgt)
	config.AddStringFlag(cmd, cmder.flags, config.FlagEmbeddingModel, &cmder.embeddingModel)
	config.AddUintFlag(cmd, cmder.flags, config.FlagEmbeddingDims, &cmder.embeddingDims)
	config.AddFloatFlag(cmd, cmder.flags, config.FlagMaxDistance, &cmder.maxDistance)
	config.AddUintFlag(cmd, cmder.flags, config.FlagLimit, &cmder.limit)
	config.AddUintFlag(cmd, cmder.flags, config.FlagWorkers, &cmder.workers)
	config.AddStringFlag(cmd, cmder.flags, config.FlagQueuePolicy, &cmder.queuePolicy)
	config.AddStringFlag(cmd, cmder.flags, config.FlagEventsProvider, &cmder.eventsProvider)
	config.AddStringFlag(cmd, cmder.flags, config.FlagEventsBrokers, &cmder.eventsBrokers)
	cmd.Flags().BoolVar(&cmder.noWatch, "no-watch", false, "Do not reload the search policy when config.toml changes")
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also append JSON logs to this file")

	return cmd
}

func (c *serveCommander) run(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	cfg := config.FromViper(c.v)

	svc, err := newServices(ctx, cfg, c.configDir, c.logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	apiServer, err := api.NewServer(api.Config{
		ListenAddr: cfg.API.Listen,
		Saver:      svc.coordinator,
		Searcher:   svc.searcher,
		Stats:      svc.pool,
		MCPHandler: svc.mcp.Handler(),
	}, c.logger)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	if !c.noWatch {
		c.watchConfig(ctx, svc)
	}

	c.logger.Info("starting api server",
		"api_addr", cfg.API.Listen,
		"storage", cfg.Storage.Provider,
		"embedding_model", cfg.Embedding.Model,
		"dimensions", cfg.Embedding.Dimensions,
		"workers", cfg.Ingest.Workers,
	)

	// Channel to capture errors from the server goroutine
	errChan := make(chan error, 1)

	go func() {
		if err := apiServer.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
	case <-ctx.Done():
	}

	if err := apiServer.Shutdown(); err != nil {
		c.logger.Warn("api server shutdown", "error", err)
	}
	return nil
}

// watchConfig reloads the search policy whenever config.toml in the resolved
// .linkrecall/ directory is written.
func (c *serveCommander) watchConfig(ctx context.Context, svc *services) {
	cfger, err := config.NewConfiger(c.configDir)
	if err != nil {
		c.logger.Warn("config watch disabled", "error", err)
		return
	}

	path := cfger.GetTarget()
	if path == "" {
		c.logger.Debug("config watch disabled: no .linkrecall directory")
		return
	}

	go func() {
		if err := config.Watch(ctx, path, c.logger, svc.applyConfig); err != nil {
			c.logger.Warn("config watch stopped", "path", path, "error", err)
		}
	}()
}

// teeLogFile adds a JSON logger writing to the --log-file path alongside the
// console logger.
func (c *serveCommander) teeLogFile(cmd *cobra.Command) (func(), error) {
	f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	debug, _ := cmd.Flags().GetBool(cmdutil.FlagDebug)
	c.logger = logger.Multi(c.logger, logger.New(
		logger.WithJSON(true),
		logger.WithDebug(debug),
		logger.WithWriter(f),
	))
	return func() { _ = f.Close() }, nil
}
