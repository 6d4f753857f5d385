// Package servecmder provides the serve command for running the liner API server.
package servecmder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/liner/api"
	"github.com/papercomputeco/liner/pkg/config"
	"github.com/papercomputeco/liner/pkg/credentials"
	"github.com/papercomputeco/liner/pkg/dotdir"
	embeddingutils "github.com/papercomputeco/liner/pkg/embeddings/utils"
	"github.com/papercomputeco/liner/pkg/logger"
	"github.com/papercomputeco/liner/pkg/recall"
	"github.com/papercomputeco/liner/pkg/storage"
	"github.com/papercomputeco/liner/pkg/storage/inmemory"
	"github.com/papercomputeco/liner/pkg/storage/jsonfile"
	"github.com/papercomputeco/liner/pkg/storage/postgres"
	vectorutils "github.com/papercomputeco/liner/pkg/vector/utils"
)

const serveLongDesc string = `Run the liner API server.

Serves the consolidated memory collection over HTTP: recall queries,
memory and conversation listings, version chains, and store stats.
With --mcp the same memory tools are exposed over the Model Context
Protocol at /mcp so agents can recall memories directly.

Flag values fall back to environment variables (LINER_API_LISTEN and
friends), then config.toml, then built-in defaults.

Examples:
  liner serve
  liner serve --listen :9000
  liner serve --mcp
  liner serve --storage-provider postgres --postgres-dsn postgres://localhost/liner`

const serveShortDesc string = "Run the liner API server"

type serveCommander struct {
	listen         string
	mcp            bool
	storageProv    string
	storagePath    string
	postgresDSN    string
	vectorProv     string
	vectorPath     string
	vectorTarget   string
	collection     string
	embeddingProv  string
	embeddingTgt   string
	embeddingModel string
	embeddingDims  uint

	debug     bool
	configDir string
	v         *viper.Viper
}

// serveFlagKeys lists the registry keys the serve command binds.
var serveFlagKeys = []string{
	config.FlagAPIListen,
	config.FlagMCPEnabled,
	config.FlagStorageProvider,
	config.FlagStoragePath,
	config.FlagPostgresDSN,
	config.FlagVectorProvider,
	config.FlagVectorPath,
	config.FlagVectorTarget,
	config.FlagCollection,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
}

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
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
			config.BindRegisteredFlags(cmder.v, cmd, config.DefaultFlags, serveFlagKeys)

			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.DefaultFlags, config.FlagAPIListen, &cmder.listen)
	config.AddBoolFlag(cmd, config.DefaultFlags, config.FlagMCPEnabled, &cmder.mcp)
	config.AddStringFlag(cmd, config.DefaultFlags, config.FlagStorageProvider, &cmder.storageProv)
	config.AddStringFlag(cmd, config.DefaultFlags, config.FlagStoragePath, &cmder.storagePath)
	config.AddStringFlag(cmd, config.DefaultFlags, config.FlagPostgresDSN, &cmder.postgresDSN)
	config.AddStringFlag(cmd, config.DefaultFlags, config.FlagVectorProvider, &cmder.vectorProv)
	config.AddStringFlag(cmd, config.DefaultFlags, config.FlagVectorPath, &cmder.vectorPath)
	config.AddStringFlag(cmd, config.DefaultFlags, config.FlagVectorTarget, &cmder.vectorTarget)
	config.AddStringFlag(cmd, config.DefaultFlags, config.FlagCollection, &cmder.collection)
	config.AddStringFlag(cmd, config.DefaultFlags, config.FlagEmbeddingProv, &cmder.embeddingProv)
	config.AddStringFlag(cmd, config.DefaultFlags, config.FlagEmbeddingTgt, &cmder.embeddingTgt)
	config.AddStringFlag(cmd, config.DefaultFlags, config.FlagEmbeddingModel, &cmder.embeddingModel)
	config.AddUintFlag(cmd, config.DefaultFlags, config.FlagEmbeddingDims, &cmder.embeddingDims)

	return cmd
}

func (c *serveCommander) run(ctx context.Context) error {
	log := logger.New(logger.WithDebug(c.debug))

	store, err := c.newStore(ctx, log)
	if err != nil {
		return err
	}
	defer store.Close()

	retriever, err := c.newRetriever(ctx, log)
	if err != nil {
		return err
	}

	listen := c.v.GetString("api.listen")
	server, err := api.NewServer(api.Config{
		ListenAddr: listen,
		Store:      store,
		Retriever:  retriever,
		MCP:        c.v.GetBool("api.mcp_enabled"),
		Logger:     log,
	})
	if err != nil {
		return fmt.Errorf("creating api server: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("api server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		log.Info("received signal, shutting down", "signal", sig.String())
		return server.Shutdown()
	case <-ctx.Done():
		return server.Shutdown()
	}
}

// newStore builds the memory store selected by storage.provider.
func (c *serveCommander) newStore(ctx context.Context, log *slog.Logger) (storage.Driver, error) {
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
		log.Info("using jsonfile storage", "path", path)
		return jsonfile.NewDriver(jsonfile.Config{Path: path}, log)

	case "postgres":
		dsn := c.v.GetString("storage.postgres_dsn")
		if dsn == "" {
			return nil, fmt.Errorf("storage.postgres_dsn is required for the postgres backend")
		}
		log.Info("using postgres storage")
		return postgres.NewDriver(ctx, dsn)

	case "inmemory":
		log.Info("using in-memory storage")
		return inmemory.NewDriver(), nil

	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", provider)
	}
}

// newRetriever builds the embedder and vector index backing /v1/recall.
func (c *serveCommander) newRetriever(ctx context.Context, log *slog.Logger) (*recall.Retriever, error) {
	vectorPath := c.v.GetString("vector.path")
	if vectorPath == "" && c.v.GetString("vector.provider") == "sqlitevec" {
		dir, err := dotdir.NewManager().Ensure(c.configDir)
		if err != nil {
			return nil, err
		}
		vectorPath = filepath.Join(dir, "vectors.db")
	}

	index, err := vectorutils.NewVectorDriver(ctx, &vectorutils.NewVectorDriverOpts{
		ProviderType:   c.v.GetString("vector.provider"),
		TargetURL:      c.v.GetString("vector.target"),
		Path:           vectorPath,
		CollectionName: c.v.GetString("vector.collection"),
		Dimensions:     c.v.GetUint("embedding.dimensions"),
		Logger:         log,
	})
	if err != nil {
		return nil, fmt.Errorf("creating vector index: %w", err)
	}

	apiKey := ""
	if mgr, err := credentials.NewManager(c.configDir); err == nil {
		if key, err := mgr.GetKey(c.v.GetString("embedding.provider")); err == nil {
			apiKey = key
		}
	}

	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: c.v.GetString("embedding.provider"),
		TargetURL:    c.v.GetString("embedding.target"),
		Model:        c.v.GetString("embedding.model"),
		APIKey:       apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	return recall.NewRetriever(embedder, index, log)
}
