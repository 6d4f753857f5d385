// Package configcmder provides the config command for managing persistent
// liner configuration stored in the .liner/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent liner configuration.

Configuration is stored as config.toml in the .liner/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values.

Keys use dotted notation matching the TOML section structure:
  storage.provider, storage.path, storage.postgres_dsn,
  vector.provider, vector.path, vector.target, vector.collection,
  embedding.provider, embedding.target, embedding.model, embedding.dimensions,
  extractor.provider, extractor.target, extractor.model,
  memory.versioning, memory.id_scheme,
  api.listen, api.mcp_enabled,
  events.provider, events.brokers, events.topic,
  client.api_target

Use subcommands to get, set, or list configuration values:
  liner config set <key> <value>    Set a configuration value
  liner config get <key>            Get a configuration value
  liner config list                 List all configuration values
  liner config preset <name>        Apply a provider preset

Examples:
  liner config set embedding.model nomic-embed-text
  liner config set memory.versioning previous-value
  liner config get extractor.provider
  liner config preset anthropic
  liner config list`

const configShortDesc string = "Manage persistent liner configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newPresetCmd())

	return cmd
}
