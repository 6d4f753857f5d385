package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/liner/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the LINER_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (LINER_API_LISTEN, LINER_STORAGE_PATH, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
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

	// 3. Environment variables: LINER_API_LISTEN, LINER_VECTOR_TARGET, etc.
	v.SetEnvPrefix("LINER")
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
	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("storage.postgres_dsn", d.Storage.PostgresDSN)

	// Vector index
	v.SetDefault("vector.provider", d.Vector.Provider)
	v.SetDefault("vector.path", d.Vector.Path)
	v.SetDefault("vector.target", d.Vector.Target)
	v.SetDefault("vector.collection", d.Vector.Collection)

	// Embedding
	v.SetDefault("embedding.provider", d.Embedding.Provider)
	v.SetDefault("embedding.target", d.Embedding.Target)
	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("embedding.dimensions", d.Embedding.Dimensions)

	// Extractor
	v.SetDefault("extractor.provider", d.Extractor.Provider)
	v.SetDefault("extractor.target", d.Extractor.Target)
	v.SetDefault("extractor.model", d.Extractor.Model)

	// Memory
	v.SetDefault("memory.versioning", d.Memory.Versioning)
	v.SetDefault("memory.id_scheme", d.Memory.IDScheme)

	// API
	v.SetDefault("api.listen", d.API.Listen)
	v.SetDefault("api.mcp_enabled", d.API.MCPEnabled)

	// Events
	v.SetDefault("events.provider", d.Events.Provider)
	v.SetDefault("events.brokers", d.Events.Brokers)
	v.SetDefault("events.topic", d.Events.Topic)

	// Client
	v.SetDefault("client.api_target", d.Client.APITarget)
}
