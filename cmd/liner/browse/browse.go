// Package browsecmder provides the browse command: an interactive terminal
// UI over the memory store.
package browsecmder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/liner/pkg/config"
	"github.com/papercomputeco/liner/pkg/dotdir"
	"github.com/papercomputeco/liner/pkg/logger"
	"github.com/papercomputeco/liner/pkg/storage"
	storageinmemory "github.com/papercomputeco/liner/pkg/storage/inmemory"
	"github.com/papercomputeco/liner/pkg/storage/jsonfile"
	"github.com/papercomputeco/liner/pkg/storage/postgres"
)

const browseLongDesc string = `Browse stored memories in an interactive terminal UI.

Lists every memory in the store with its provenance. Move with j/k, press
enter to inspect a memory and its version chain, s to cycle the sort order,
f to cycle a conversation filter, and r to reload from the store.

Examples:
  liner browse
  liner browse --storage-path ./team/.liner/memories.json
  liner browse --storage-provider postgres --postgres-dsn $DSN`

const browseShortDesc string = "Browse memories in a terminal UI"

type browseCommander struct {
	storageProv string
	storagePath string
	postgresDSN string

	debug     bool
	configDir string
	v         *viper.Viper
}

// browseFlagKeys lists the registry keys the browse command binds.
var browseFlagKeys = []string{
	config.FlagStorageProvider,
	config.FlagStoragePath,
	config.FlagPostgresDSN,
}

func NewBrowseCmd() *cobra.Command {
	cmder := &browseCommander{}

	cmd := &cobra.Command{
		Use:   "browse",
		Short: browseShortDesc,
		Long:  browseLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			cmder.configDir, err = cmd.Flags().GetString("config-dir")
			if err != nil {
				return fmt.Errorf("could not get config-dir flag: %w", err)
			}

			cmder.v, err = config.InitViper(cmder.configDir)
			if err != nil {
				return err
			}
			config.BindRegisteredFlags(cmder.v, cmd, config.DefaultFlags, browseFlagKeys)

			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.DefaultFlags, config.FlagStorageProvider, &cmder.storageProv)
	config.AddStringFlag(cmd, config.DefaultFlags, config.FlagStoragePath, &cmder.storagePath)
	config.AddStringFlag(cmd, config.DefaultFlags, config.FlagPostgresDSN, &cmder.postgresDSN)

	return cmd
}

func (c *browseCommander) run(ctx context.Context) error {
	// The driver only logs during construction, before the alt screen opens.
	log := logger.New(logger.WithDebug(c.debug), logger.WithWriter(os.Stderr))

	store, err := c.newStore(ctx, log)
	if err != nil {
		return err
	}
	defer store.Close()

	memories, err := store.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("listing memories: %w", err)
	}

	// The store stays open for the TUI's lifetime: chain inspection and
	// refresh read from it on demand.
	return runBrowseTUI(ctx, store, memories)
}

func (c *browseCommander) newStore(ctx context.Context, log *slog.Logger) (storage.Driver, error) {
	provider := c.v.GetString("storage.provider")
	switch provider {
	case "jsonfile":
		path := c.v.GetString("storage.path")
		if path == "" {
			dir, err := dotdir.NewManager().Ensure(c.configDir)
			if err != nil {
				return nil, err
			}
			path = filepath.Join(dir, "memories.json")
		}
		return jsonfile.NewDriver(jsonfile.Config{Path: path}, log)

	case "postgres":
		dsn := c.v.GetString("storage.postgres_dsn")
		if dsn == "" {
			return nil, fmt.Errorf("storage.postgres_dsn is required for the postgres backend")
		}
		return postgres.NewDriver(ctx, dsn)

	case "inmemory":
		return storageinmemory.NewDriver(), nil

	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", provider)
	}
}
