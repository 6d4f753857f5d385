package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent liner configuration stored as config.toml
// in the .liner/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version   int             `toml:"version"`
	Storage   StorageConfig   `toml:"storage"`
	Vector    VectorConfig    `toml:"vector"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Extractor ExtractorConfig `toml:"extractor"`
	Memory    MemoryConfig    `toml:"memory"`
	API       APIConfig       `toml:"api"`
	Events    EventsConfig    `toml:"events"`
	Client    ClientConfig    `toml:"client"`
}

// StorageConfig holds durable memory store settings.
type StorageConfig struct {
	// Provider selects the store backend: jsonfile, inmemory, or postgres.
	Provider string `toml:"provider,omitempty"`

	// Path is the memories.json location for the jsonfile backend.
	// Empty resolves to <dotdir>/memories.json.
	Path string `toml:"path,omitempty"`

	// PostgresDSN is the connection string for the postgres backend.
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// VectorConfig holds vector index settings.
type VectorConfig struct {
	// Provider selects the index backend: sqlitevec, chroma, qdrant, or
	// inmemory.
	Provider string `toml:"provider,omitempty"`

	// Path is the database location for the sqlitevec backend.
	// Empty resolves to <dotdir>/vectors.db.
	Path string `toml:"path,omitempty"`

	// Target is the server URL for the chroma and qdrant backends.
	Target string `toml:"target,omitempty"`

	// Collection names the index collection.
	Collection string `toml:"collection,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Model      string `toml:"model,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`
}

// ExtractorConfig holds fact extraction LLM settings.
type ExtractorConfig struct {
	Provider string `toml:"provider,omitempty"`
	Target   string `toml:"target,omitempty"`
	Model    string `toml:"model,omitempty"`
}

// MemoryConfig holds consolidation behavior settings.
type MemoryConfig struct {
	// Versioning selects the link policy: recent or previous-value.
	Versioning string `toml:"versioning,omitempty"`

	// IDScheme selects the id allocator: sequence or uuid.
	IDScheme string `toml:"id_scheme,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen     string `toml:"listen,omitempty"`
	MCPEnabled bool   `toml:"mcp_enabled,omitempty"`
}

// EventsConfig holds event stream settings.
type EventsConfig struct {
	// Provider selects the publisher: nop or kafka.
	Provider string `toml:"provider,omitempty"`

	// Brokers is a comma-separated kafka broker list.
	Brokers string `toml:"brokers,omitempty"`

	// Topic is the kafka topic for memory.persisted events.
	Topic string `toml:"topic,omitempty"`
}

// ClientConfig holds settings for CLI commands that connect to a running
// liner API server (e.g. liner recall). Values are full URLs.
type ClientConfig struct {
	APITarget string `toml:"api_target,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"storage.provider": {
		get: func(c *Config) string { return c.Storage.Provider },
		set: func(c *Config, v string) error { c.Storage.Provider = v; return nil },
	},
	"storage.path": {
		get: func(c *Config) string { return c.Storage.Path },
		set: func(c *Config, v string) error { c.Storage.Path = v; return nil },
	},
	"storage.postgres_dsn": {
		get: func(c *Config) string { return c.Storage.PostgresDSN },
		set: func(c *Config, v string) error { c.Storage.PostgresDSN = v; return nil },
	},
	"vector.provider": {
		get: func(c *Config) string { return c.Vector.Provider },
		set: func(c *Config, v string) error { c.Vector.Provider = v; return nil },
	},
	"vector.path": {
		get: func(c *Config) string { return c.Vector.Path },
		set: func(c *Config, v string) error { c.Vector.Path = v; return nil },
	},
	"vector.target": {
		get: func(c *Config) string { return c.Vector.Target },
		set: func(c *Config, v string) error { c.Vector.Target = v; return nil },
	},
	"vector.collection": {
		get: func(c *Config) string { return c.Vector.Collection },
		set: func(c *Config, v string) error { c.Vector.Collection = v; return nil },
	},
	"embedding.provider": {
		get: func(c *Config) string { return c.Embedding.Provider },
		set: func(c *Config, v string) error { c.Embedding.Provider = v; return nil },
	},
	"embedding.target": {
		get: func(c *Config) string { return c.Embedding.Target },
		set: func(c *Config, v string) error { c.Embedding.Target = v; return nil },
	},
	"embedding.model": {
		get: func(c *Config) string { return c.Embedding.Model },
		set: func(c *Config, v string) error { c.Embedding.Model = v; return nil },
	},
	"embedding.dimensions": {
		get: func(c *Config) string {
			if c.Embedding.Dimensions == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Embedding.Dimensions), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for embedding.dimensions: %w", err)
			}
			c.Embedding.Dimensions = uint(n)
			return nil
		},
	},
	"extractor.provider": {
		get: func(c *Config) string { return c.Extractor.Provider },
		set: func(c *Config, v string) error { c.Extractor.Provider = v; return nil },
	},
	"extractor.target": {
		get: func(c *Config) string { return c.Extractor.Target },
		set: func(c *Config, v string) error { c.Extractor.Target = v; return nil },
	},
	"extractor.model": {
		get: func(c *Config) string { return c.Extractor.Model },
		set: func(c *Config, v string) error { c.Extractor.Model = v; return nil },
	},
	"memory.versioning": {
		get: func(c *Config) string { return c.Memory.Versioning },
		set: func(c *Config, v string) error { c.Memory.Versioning = v; return nil },
	},
	"memory.id_scheme": {
		get: func(c *Config) string { return c.Memory.IDScheme },
		set: func(c *Config, v string) error { c.Memory.IDScheme = v; return nil },
	},
	"api.listen": {
		get: func(c *Config) string { return c.API.Listen },
		set: func(c *Config, v string) error { c.API.Listen = v; return nil },
	},
	"api.mcp_enabled": {
		get: func(c *Config) string { return strconv.FormatBool(c.API.MCPEnabled) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for api.mcp_enabled: %w", err)
			}
			c.API.MCPEnabled = b
			return nil
		},
	},
	"events.provider": {
		get: func(c *Config) string { return c.Events.Provider },
		set: func(c *Config, v string) error { c.Events.Provider = v; return nil },
	},
	"events.brokers": {
		get: func(c *Config) string { return c.Events.Brokers },
		set: func(c *Config, v string) error { c.Events.Brokers = v; return nil },
	},
	"events.topic": {
		get: func(c *Config) string { return c.Events.Topic },
		set: func(c *Config, v string) error { c.Events.Topic = v; return nil },
	},
	"client.api_target": {
		get: func(c *Config) string { return c.Client.APITarget },
		set: func(c *Config, v string) error { c.Client.APITarget = v; return nil },
	},
}
