package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/Rahi-padwal/linkRecall/pkg/dotdir"
)

// EnvPrefix prefixes every environment override, e.g. LINKRECALL_API_LISTEN.
const EnvPrefix = "LINKRECALL"

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the LINKRECALL_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (LINKRECALL_API_LISTEN, LINKRECALL_SEARCH_LIMIT, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Storage
	v.SetDefault("storage.provider", d.Storage.Provider)
	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)
	v.SetDefault("storage.postgres_dsn", d.Storage.PostgresDSN)
	v.SetDefault("storage.badger_path", d.Storage.BadgerPath)

	// API and client
	v.SetDefault("api.listen", d.API.Listen)
	v.SetDefault("client.api_target", d.Client.APITarget)

	// Embedding
	v.SetDefault("embedding.provider", d.Embedding.Provider)
	v.SetDefault("embedding.target", d.Embedding.Target)
	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("embedding.dimensions", d.Embedding.Dimensions)
	v.SetDefault("embedding.endpoint", d.Embedding.Endpoint)
	v.SetDefault("embedding.timeout", d.Embedding.Timeout)

	v.SetDefault("fetch.timeout", d.Fetch.Timeout)

	// Search
	v.SetDefault("search.max_distance", d.Search.MaxDistance)
	v.SetDefault("search.limit", d.Search.Limit)

	// Ingest
	v.SetDefault("ingest.workers", d.Ingest.Workers)
	v.SetDefault("ingest.queue_size", d.Ingest.QueueSize)
	v.SetDefault("ingest.queue_policy", d.Ingest.QueuePolicy)
	v.SetDefault("ingest.job_timeout", d.Ingest.JobTimeout)
	v.SetDefault("ingest.allow_anonymous_default_owner", d.Ingest.AllowAnonymousDefaultOwner)
	v.SetDefault("ingest.create_missing_owner", d.Ingest.CreatesMissingOwner())

	// Events
	v.SetDefault("events.provider", d.Events.Provider)
	v.SetDefault("events.brokers", d.Events.Brokers)
	v.SetDefault("events.topic", d.Events.Topic)
}

// FromViper resolves the layered settings in v into a Config.
func FromViper(v *viper.Viper) *Config {
	createMissingOwner := v.GetBool("ingest.create_missing_owner")
	return &Config{
		Version: v.GetInt("version"),
		Storage: StorageConfig{
			Provider:    v.GetString("storage.provider"),
			SQLitePath:  v.GetString("storage.sqlite_path"),
			PostgresDSN: v.GetString("storage.postgres_dsn"),
			BadgerPath:  v.GetString("storage.badger_path"),
		},
		API: APIConfig{
			Listen: v.GetString("api.listen"),
		},
		Client: ClientConfig{
			APITarget: v.GetString("client.api_target"),
		},
		Embedding: EmbeddingConfig{
			Provider:   v.GetString("embedding.provider"),
			Target:     v.GetString("embedding.target"),
			Model:      v.GetString("embedding.model"),
			Dimensions: v.GetUint("embedding.dimensions"),
			Endpoint:   v.GetString("embedding.endpoint"),
			Timeout:    v.GetString("embedding.timeout"),
		},
		Fetch: FetchConfig{
			Timeout: v.GetString("fetch.timeout"),
		},
		Search: SearchConfig{
			MaxDistance: v.GetFloat64("search.max_distance"),
			Limit:       v.GetUint("search.limit"),
		},
		Ingest: IngestConfig{
			Workers:                    v.GetUint("ingest.workers"),
			QueueSize:                  v.GetUint("ingest.queue_size"),
			QueuePolicy:                v.GetString("ingest.queue_policy"),
			JobTimeout:                 v.GetString("ingest.job_timeout"),
			AllowAnonymousDefaultOwner: v.GetBool("ingest.allow_anonymous_default_owner"),
			CreateMissingOwner:         &createMissingOwner,
		},
		Events: EventsConfig{
			Provider: v.GetString("events.provider"),
			Brokers:  v.GetString("events.brokers"),
			Topic:    v.GetString("events.topic"),
		},
	}
}
