package config

import (
	"fmt"
	"strconv"
	"time"
)

// Config represents the persistent linkrecall configuration stored as
// config.toml in the .linkrecall/ directory. The TOML layout uses sections
// for logical grouping.
type Config struct {
	Version   int             `toml:"version"`
	Storage   StorageConfig   `toml:"storage"`
	API       APIConfig       `toml:"api"`
	Client    ClientConfig    `toml:"client"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Fetch     FetchConfig     `toml:"fetch"`
	Search    SearchConfig    `toml:"search"`
	Ingest    IngestConfig    `toml:"ingest"`
	Events    EventsConfig    `toml:"events"`
}

// StorageConfig selects the link store.
type StorageConfig struct {
	Provider    string `toml:"provider,omitempty"`
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
	BadgerPath  string `toml:"badger_path,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// ClientConfig holds settings for CLI commands that connect to the running
// API server (e.g. linkrecall save, linkrecall search).
// Values are full URLs (scheme + host + port).
type ClientConfig struct {
	APITarget string `toml:"api_target,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Model      string `toml:"model,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`
	Endpoint   string `toml:"endpoint,omitempty"`
	Timeout    string `toml:"timeout,omitempty"`
}

// FetchConfig holds page metadata fetch settings.
type FetchConfig struct {
	Timeout string `toml:"timeout,omitempty"`
}

// SearchConfig is the retrieval policy. It may be changed while serving.
type SearchConfig struct {
	MaxDistance float64 `toml:"max_distance,omitempty"`
	Limit       uint    `toml:"limit,omitempty"`
}

// IngestConfig holds the embedding pool and owner policy settings.
type IngestConfig struct {
	Workers     uint   `toml:"workers,omitempty"`
	QueueSize   uint   `toml:"queue_size,omitempty"`
	QueuePolicy string `toml:"queue_policy,omitempty"`
	JobTimeout  string `toml:"job_timeout,omitempty"`

	AllowAnonymousDefaultOwner bool `toml:"allow_anonymous_default_owner,omitempty"`

	// CreateMissingOwner is a pointer so an explicit false survives the
	// merge with defaults.
	CreateMissingOwner *bool `toml:"create_missing_owner,omitempty"`
}

// CreatesMissingOwner reports the effective create_missing_owner value.
func (c IngestConfig) CreatesMissingOwner() bool {
	if c.CreateMissingOwner == nil {
		return defaultCreateMissingOwner
	}
	return *c.CreateMissingOwner
}

// EventsConfig selects the link event publisher.
type EventsConfig struct {
	Provider string `toml:"provider,omitempty"`

	// Brokers is a comma separated host:port list.
	Brokers string `toml:"brokers,omitempty"`
	Topic   string `toml:"topic,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

func uintKey(name string, field func(c *Config) *uint) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *field(c) == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(*field(c)), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = uint(n)
			return nil
		},
	}
}

func durationKey(name string, field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error {
			if _, err := time.ParseDuration(v); err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = v
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"storage.provider":     stringKey(func(c *Config) *string { return &c.Storage.Provider }),
	"storage.sqlite_path":  stringKey(func(c *Config) *string { return &c.Storage.SQLitePath }),
	"storage.postgres_dsn": stringKey(func(c *Config) *string { return &c.Storage.PostgresDSN }),
	"storage.badger_path":  stringKey(func(c *Config) *string { return &c.Storage.BadgerPath }),

	"api.listen":        stringKey(func(c *Config) *string { return &c.API.Listen }),
	"client.api_target": stringKey(func(c *Config) *string { return &c.Client.APITarget }),

	"embedding.provider":   stringKey(func(c *Config) *string { return &c.Embedding.Provider }),
	"embedding.target":     stringKey(func(c *Config) *string { return &c.Embedding.Target }),
	"embedding.model":      stringKey(func(c *Config) *string { return &c.Embedding.Model }),
	"embedding.dimensions": uintKey("embedding.dimensions", func(c *Config) *uint { return &c.Embedding.Dimensions }),
	"embedding.endpoint":   stringKey(func(c *Config) *string { return &c.Embedding.Endpoint }),
	"embedding.timeout":    durationKey("embedding.timeout", func(c *Config) *string { return &c.Embedding.Timeout }),

	"fetch.timeout": durationKey("fetch.timeout", func(c *Config) *string { return &c.Fetch.Timeout }),

	"search.max_distance": {
		get: func(c *Config) string {
			if c.Search.MaxDistance == 0 {
				return ""
			}
			return strconv.FormatFloat(c.Search.MaxDistance, 'g', -1, 64)
		},
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid value for search.max_distance: %w", err)
			}
			if f <= 0 || f > 2 {
				return fmt.Errorf("invalid value for search.max_distance: %v is outside (0, 2]", f)
			}
			c.Search.MaxDistance = f
			return nil
		},
	},

	"search.limit": uintKey("search.limit", func(c *Config) *uint { return &c.Search.Limit }),

	"ingest.workers":     uintKey("ingest.workers", func(c *Config) *uint { return &c.Ingest.Workers }),
	"ingest.queue_size":  uintKey("ingest.queue_size", func(c *Config) *uint { return &c.Ingest.QueueSize }),
	"ingest.job_timeout": durationKey("ingest.job_timeout", func(c *Config) *string { return &c.Ingest.JobTimeout }),

	"ingest.queue_policy": {
		get: func(c *Config) string { return c.Ingest.QueuePolicy },
		set: func(c *Config, v string) error {
			if v != "drop" && v != "block" {
				return fmt.Errorf("invalid value for ingest.queue_policy: %q (expected drop or block)", v)
			}
			c.Ingest.QueuePolicy = v
			return nil
		},
	},
	"ingest.allow_anonymous_default_owner": {
		get: func(c *Config) string { return strconv.FormatBool(c.Ingest.AllowAnonymousDefaultOwner) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for ingest.allow_anonymous_default_owner: %w", err)
			}
			c.Ingest.AllowAnonymousDefaultOwner = b
			return nil
		},
	},
	"ingest.create_missing_owner": {
		get: func(c *Config) string { return strconv.FormatBool(c.Ingest.CreatesMissingOwner()) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for ingest.create_missing_owner: %w", err)
			}
			c.Ingest.CreateMissingOwner = &b
			return nil
		},
	},

	"events.provider": stringKey(func(c *Config) *string { return &c.Events.Provider }),
	"events.brokers":  stringKey(func(c *Config) *string { return &c.Events.Brokers }),
	"events.topic":    stringKey(func(c *Config) *string { return &c.Events.Topic }),
}
