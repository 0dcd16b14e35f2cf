package config

// File names used inside the .linkrecall/ directory when the storage paths
// are not configured.
const (
	DefaultSQLiteFile = "linkrecall.sqlite"
	DefaultBadgerDir  = "badger"
)

const (
	defaultStorageProvider = "sqlite"

	defaultAPIListen       = ":8081"
	defaultClientAPITarget = "http://localhost:8081"

	defaultEmbeddingProvider   = "ollama"
	defaultEmbeddingTarget     = "http://localhost:11434"
	defaultEmbeddingModel      = "nomic-embed-text"
	defaultEmbeddingDimensions = 768
	defaultEmbeddingEndpoint   = "embeddings"
	defaultEmbeddingTimeout    = "30s"

	defaultFetchTimeout = "10s"

	defaultSearchMaxDistance = 0.5
	defaultSearchLimit       = 5

	defaultIngestWorkers      = 3
	defaultIngestQueueSize    = 256
	defaultIngestQueuePolicy  = "drop"
	defaultIngestJobTimeout   = "60s"
	defaultCreateMissingOwner = true

	defaultEventsProvider = "none"
	defaultEventsTopic    = "linkrecall.links"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	createMissingOwner := defaultCreateMissingOwner
	return &Config{
		Version: CurrentV,
		Storage: StorageConfig{
			Provider: defaultStorageProvider,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Client: ClientConfig{
			APITarget: defaultClientAPITarget,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Target:     defaultEmbeddingTarget,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
			Endpoint:   defaultEmbeddingEndpoint,
			Timeout:    defaultEmbeddingTimeout,
		},
		Fetch: FetchConfig{
			Timeout: defaultFetchTimeout,
		},
		Search: SearchConfig{
			MaxDistance: defaultSearchMaxDistance,
			Limit:       defaultSearchLimit,
		},
		Ingest: IngestConfig{
			Workers:            defaultIngestWorkers,
			QueueSize:          defaultIngestQueueSize,
			QueuePolicy:        defaultIngestQueuePolicy,
			JobTimeout:         defaultIngestJobTimeout,
			CreateMissingOwner: &createMissingOwner,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
			Topic:    defaultEventsTopic,
		},
	}
}
