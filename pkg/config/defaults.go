package config

const (
	defaultStorageProvider = "jsonfile"
	defaultVectorProvider  = "sqlitevec"
	defaultCollection      = "liner"

	defaultEmbeddingProvider   = "ollama"
	defaultEmbeddingTarget     = "http://localhost:11434"
	defaultEmbeddingModel      = "nomic-embed-text"
	defaultEmbeddingDimensions = 768

	defaultExtractorProvider = "ollama"
	defaultExtractorTarget   = "http://localhost:11434"
	defaultExtractorModel    = "llama3.2"

	defaultVersioning = "recent"
	defaultIDScheme   = "sequence"

	defaultAPIListen       = ":8091"
	defaultEventsProvider  = "nop"
	defaultEventsTopic     = "liner.memories"
	defaultClientAPITarget = "http://localhost:8091"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Storage: StorageConfig{
			Provider: defaultStorageProvider,
		},
		Vector: VectorConfig{
			Provider:   defaultVectorProvider,
			Collection: defaultCollection,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Target:     defaultEmbeddingTarget,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		Extractor: ExtractorConfig{
			Provider: defaultExtractorProvider,
			Target:   defaultExtractorTarget,
			Model:    defaultExtractorModel,
		},
		Memory: MemoryConfig{
			Versioning: defaultVersioning,
			IDScheme:   defaultIDScheme,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
			Topic:    defaultEventsTopic,
		},
		Client: ClientConfig{
			APITarget: defaultClientAPITarget,
		},
	}
}
