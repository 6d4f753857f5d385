package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g.,
// --embedding-target on both "liner consolidate" and "liner serve").
type Flag struct {
	// Name is the long flag name (e.g. "embedding-target").
	Name string

	// Shorthand is the one-letter short flag (e.g. "t"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "embedding.target").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddUintFlag, AddBoolFlag,
// and BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagStorageProvider = "storage-provider"
	FlagStoragePath     = "storage-path"
	FlagPostgresDSN     = "postgres-dsn"
	FlagVectorProvider  = "vector-provider"
	FlagVectorPath      = "vector-path"
	FlagVectorTarget    = "vector-target"
	FlagCollection      = "collection"
	FlagEmbeddingProv   = "embedding-provider"
	FlagEmbeddingTgt    = "embedding-target"
	FlagEmbeddingModel  = "embedding-model"
	FlagEmbeddingDims   = "embedding-dimensions"
	FlagExtractorProv   = "extractor-provider"
	FlagExtractorTgt    = "extractor-target"
	FlagExtractorModel  = "extractor-model"
	FlagVersioning      = "versioning"
	FlagIDScheme        = "id-scheme"
	FlagAPIListen       = "listen"
	FlagMCPEnabled      = "mcp"
	FlagEventsProvider  = "events-provider"
	FlagEventsBrokers   = "events-brokers"
	FlagEventsTopic     = "events-topic"
	FlagAPITarget       = "api-target"
)

// DefaultFlags is the shared registry of every config-backed flag. Commands
// register the subset they need by key; the definitions live here so a flag
// spelled on two commands cannot drift.
var DefaultFlags = FlagSet{
	FlagStorageProvider: {
		Name:        "storage-provider",
		ViperKey:    "storage.provider",
		Description: "Memory store backend (jsonfile, postgres, inmemory)",
	},
	FlagStoragePath: {
		Name:        "storage-path",
		ViperKey:    "storage.path",
		Description: "Path to the jsonfile memory store",
	},
	FlagPostgresDSN: {
		Name:        "postgres-dsn",
		ViperKey:    "storage.postgres_dsn",
		Description: "Postgres connection string for the postgres backend",
	},
	FlagVectorProvider: {
		Name:        "vector-provider",
		ViperKey:    "vector.provider",
		Description: "Vector index backend (sqlitevec, chroma, qdrant, inmemory)",
	},
	FlagVectorPath: {
		Name:        "vector-path",
		ViperKey:    "vector.path",
		Description: "Path to the sqlite-vec database",
	},
	FlagVectorTarget: {
		Name:        "vector-target",
		ViperKey:    "vector.target",
		Description: "Server address for chroma or qdrant",
	},
	FlagCollection: {
		Name:        "collection",
		ViperKey:    "vector.collection",
		Description: "Vector index collection name",
	},
	FlagEmbeddingProv: {
		Name:        "embedding-provider",
		ViperKey:    "embedding.provider",
		Description: "Embedding provider (ollama, openai)",
	},
	FlagEmbeddingTgt: {
		Name:        "embedding-target",
		ViperKey:    "embedding.target",
		Description: "Embedding provider base URL",
	},
	FlagEmbeddingModel: {
		Name:        "embedding-model",
		ViperKey:    "embedding.model",
		Description: "Embedding model name",
	},
	FlagEmbeddingDims: {
		Name:        "embedding-dimensions",
		ViperKey:    "embedding.dimensions",
		Description: "Embedding vector dimensions",
	},
	FlagExtractorProv: {
		Name:        "extractor-provider",
		ViperKey:    "extractor.provider",
		Description: "Fact extraction provider (ollama, openai, anthropic)",
	},
	FlagExtractorTgt: {
		Name:        "extractor-target",
		ViperKey:    "extractor.target",
		Description: "Fact extraction provider base URL",
	},
	FlagExtractorModel: {
		Name:        "extractor-model",
		ViperKey:    "extractor.model",
		Description: "Fact extraction model name",
	},
	FlagVersioning: {
		Name:        "versioning",
		ViperKey:    "memory.versioning",
		Description: "Version link policy (recent, previous-value)",
	},
	FlagIDScheme: {
		Name:        "id-scheme",
		ViperKey:    "memory.id_scheme",
		Description: "Memory id allocation scheme (sequence, uuid)",
	},
	FlagAPIListen: {
		Name:        "listen",
		Shorthand:   "l",
		ViperKey:    "api.listen",
		Description: "Address for the API server to listen on",
	},
	FlagMCPEnabled: {
		Name:        "mcp",
		ViperKey:    "api.mcp_enabled",
		Description: "Expose memory tools over MCP at /mcp",
	},
	FlagEventsProvider: {
		Name:        "events-provider",
		ViperKey:    "events.provider",
		Description: "Event stream publisher (nop, kafka)",
	},
	FlagEventsBrokers: {
		Name:        "events-brokers",
		ViperKey:    "events.brokers",
		Description: "Comma-separated kafka broker list",
	},
	FlagEventsTopic: {
		Name:        "events-topic",
		ViperKey:    "events.topic",
		Description: "Kafka topic for memory events",
	},
	FlagAPITarget: {
		Name:        "api-target",
		ViperKey:    "client.api_target",
		Description: "Base URL of a running liner API server",
	},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddUintFlag registers a uint flag on cmd from the given FlagSet.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *uint) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultUint(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().UintVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().UintVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddBoolFlag registers a bool flag on cmd from the given FlagSet.
func AddBoolFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *bool) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultBool(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().BoolVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().BoolVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}

// defaultUint returns the default uint value for a viper key from NewDefaultConfig.
func defaultUint(viperKey string) uint {
	v := viper.New()
	setViperDefaults(v)
	return v.GetUint(viperKey)
}

// defaultBool returns the default bool value for a viper key from NewDefaultConfig.
func defaultBool(viperKey string) bool {
	v := viper.New()
	setViperDefaults(v)
	return v.GetBool(viperKey)
}
