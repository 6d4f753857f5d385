// Package consolidatecmder provides the consolidate command for distilling
// recorded conversations into stored, indexed memories.
package consolidatecmder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/liner/pkg/cliui"
	"github.com/papercomputeco/liner/pkg/config"
	"github.com/papercomputeco/liner/pkg/conversation"
	"github.com/papercomputeco/liner/pkg/credentials"
	"github.com/papercomputeco/liner/pkg/dotdir"
	embeddingutils "github.com/papercomputeco/liner/pkg/embeddings/utils"
	"github.com/papercomputeco/liner/pkg/eventstream"
	"github.com/papercomputeco/liner/pkg/eventstream/kafka"
	"github.com/papercomputeco/liner/pkg/extract"
	"github.com/papercomputeco/liner/pkg/logger"
	"github.com/papercomputeco/liner/pkg/memory"
	"github.com/papercomputeco/liner/pkg/pipeline"
	"github.com/papercomputeco/liner/pkg/resolve"
	"github.com/papercomputeco/liner/pkg/storage"
	storageinmemory "github.com/papercomputeco/liner/pkg/storage/inmemory"
	"github.com/papercomputeco/liner/pkg/storage/jsonfile"
	"github.com/papercomputeco/liner/pkg/storage/postgres"
	"github.com/papercomputeco/liner/pkg/vector"
	vectorinmemory "github.com/papercomputeco/liner/pkg/vector/inmemory"
	vectorutils "github.com/papercomputeco/liner/pkg/vector/utils"
)

const consolidateLongDesc string = `Consolidate recorded conversations into memories.

Walks each conversation turn by turn, extracts durable facts with the
configured LLM, filters out facts already known, and stores the survivors
as memories with version links, embeddings, and a vector index entry.

Progress is tracked per conversation in .liner/state.json, so re-running
against a growing file only consolidates the new turns. Use --fresh to
discard that state and start over, or --dry-run to exercise the pipeline
against throwaway in-memory backends without persisting anything.

With --watch the command keeps running and re-consolidates whenever the
conversations file changes.

Examples:
  liner consolidate conversations.json
  liner consolidate conversations.json --watch
  liner consolidate conversations.json --fresh
  liner consolidate conversations.json --dry-run
  liner consolidate conversations.json --extractor-provider anthropic`

const consolidateShortDesc string = "Consolidate conversations into memories"

type consolidateCommander struct {
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
	extractorProv  string
	extractorTgt   string
	extractorModel string
	versioning     string
	idScheme       string
	eventsProv     string
	eventsBrokers  string
	eventsTopic    string

	watch  bool
	fresh  bool
	dryRun bool

	debug     bool
	configDir string
	v         *viper.Viper
}

// consolidateFlagKeys lists the registry keys the consolidate command binds.
var consolidateFlagKeys = []string{
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
	config.FlagExtractorProv,
	config.FlagExtractorTgt,
	config.FlagExtractorModel,
	config.FlagVersioning,
	config.FlagIDScheme,
	config.FlagEventsProvider,
	config.FlagEventsBrokers,
	config.FlagEventsTopic,
}

func NewConsolidateCmd() *cobra.Command {
	cmder := &consolidateCommander{}

	cmd := &cobra.Command{
		Use:   "consolidate <conversations.json>",
		Short: consolidateShortDesc,
		Long:  consolidateLongDesc,
		Args:  cobra.ExactArgs(1),
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
			config.BindRegisteredFlags(cmder.v, cmd, config.DefaultFlags, consolidateFlagKeys)

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd.OutOrStdout(), args[0])
		},
	}

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
	config.AddStringFlag(cmd, config.DefaultFlags, config.FlagExtractorProv, &cmder.extractorProv)
	config.AddStringFlag(cmd, config.DefaultFlags, config.FlagExtractorTgt, &cmder.extractorTgt)
	config.AddStringFlag(cmd, config.DefaultFlags, config.FlagExtractorModel, &cmder.extractorModel)
	config.AddStringFlag(cmd, config.DefaultFlags, config.FlagVersioning, &cmder.versioning)
	config.AddStringFlag(cmd, config.DefaultFlags, config.FlagIDScheme, &cmder.idScheme)
	config.AddStringFlag(cmd, config.DefaultFlags, config.FlagEventsProvider, &cmder.eventsProv)
	config.AddStringFlag(cmd, config.DefaultFlags, config.FlagEventsBrokers, &cmder.eventsBrokers)
	config.AddStringFlag(cmd, config.DefaultFlags, config.FlagEventsTopic, &cmder.eventsTopic)

	cmd.Flags().BoolVarP(&cmder.watch, "watch", "w", false, "Watch the conversations file and re-consolidate on change")
	cmd.Flags().BoolVar(&cmder.fresh, "fresh", false, "Clear consolidation state and start from the first turn")
	cmd.Flags().BoolVar(&cmder.dryRun, "dry-run", false, "Run against throwaway in-memory backends, persisting nothing")

	return cmd
}

func (c *consolidateCommander) run(ctx context.Context, out io.Writer, path string) error {
	// Pipeline logs go to stderr so stdout stays clean for the summary.
	log := logger.New(logger.WithDebug(c.debug), logger.WithWriter(os.Stderr))

	manager := dotdir.NewManager()
	if c.fresh {
		if err := manager.ClearConsolidateState(c.configDir); err != nil {
			return err
		}
	}

	if err := c.consolidateOnce(ctx, out, log, manager, path); err != nil {
		if !c.watch {
			return err
		}
		log.Error("consolidation failed, watching for changes", "error", err)
	}

	if !c.watch {
		return nil
	}

	return c.watchAndRerun(ctx, out, log, manager, path)
}

// consolidateOnce runs the full pipeline over the conversations file,
// resuming from whatever turns the saved state says are already done.
func (c *consolidateCommander) consolidateOnce(ctx context.Context, out io.Writer, log *slog.Logger, manager *dotdir.Manager, path string) error {
	var conversations []conversation.Conversation
	if err := cliui.Step(out, "Loading conversations", func() error {
		var loadErr error
		conversations, loadErr = conversation.LoadFile(path)
		return loadErr
	}); err != nil {
		return err
	}

	state, err := manager.LoadConsolidateState(c.configDir)
	if err != nil {
		return err
	}
	if state == nil {
		state = &dotdir.ConsolidateState{}
	}

	var handles *pipelineHandles
	if err := cliui.Step(out, "Preparing pipeline", func() error {
		var buildErr error
		handles, buildErr = c.buildPipeline(ctx, log, state)
		return buildErr
	}); err != nil {
		return err
	}
	defer handles.close(log)

	report, runErr := handles.consolidator.Run(ctx, conversations)

	// Conversations counts only fully consolidated ones, so marking the
	// prefix is safe even when the run aborted partway.
	if !c.dryRun && report.Conversations > 0 {
		for _, conv := range conversations[:report.Conversations] {
			state.MarkConsolidated(conv.ConversationID, len(conv.Turns))
		}
		if err := manager.SaveConsolidateState(state, c.configDir); err != nil {
			if runErr != nil {
				log.Error("saving consolidation state", "error", err)
				return runErr
			}
			return err
		}
	}

	c.printReport(out, report)

	return runErr
}

func (c *consolidateCommander) printReport(out io.Writer, report *pipeline.Report) {
	fmt.Fprintf(out, "\n  %s Consolidated %s conversations %s\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(strconv.Itoa(report.Conversations)),
		cliui.DimStyle.Render(fmt.Sprintf("(%d turns)", report.Turns)),
	)
	fmt.Fprintf(out, "    %s %s\n",
		cliui.KeyStyle.Render("facts:   "),
		cliui.ValueStyle.Render(fmt.Sprintf("%d extracted, %d redundant", report.FactsExtracted, report.RedundantFacts)),
	)
	fmt.Fprintf(out, "    %s %s\n",
		cliui.KeyStyle.Render("memories:"),
		cliui.ValueStyle.Render(fmt.Sprintf("%d written, %d indexed", report.MemoriesWritten, report.Indexed)),
	)
	if report.EmbeddingFailures > 0 || report.IndexFailures > 0 {
		fmt.Fprintf(out, "    %s %s\n",
			cliui.KeyStyle.Render("failures:"),
			cliui.WarnStyle.Render(fmt.Sprintf("%d embedding, %d index", report.EmbeddingFailures, report.IndexFailures)),
		)
	}
	fmt.Fprintf(out, "    %s %s\n",
		cliui.KeyStyle.Render("events:  "),
		cliui.ValueStyle.Render(fmt.Sprintf("%d published", report.EventsPublished)),
	)
	if c.dryRun {
		fmt.Fprintf(out, "\n  %s\n", cliui.DimStyle.Render("Dry run: nothing was persisted."))
	}
	fmt.Fprintln(out)
}

// watchAndRerun re-consolidates on writes to the conversations file until
// interrupted. Editors fire bursts of events per save, so reruns are
// debounced.
func (c *consolidateCommander) watchAndRerun(ctx context.Context, out io.Writer, log *slog.Logger, manager *dotdir.Manager, path string) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory rather than the file itself so replace-on-save
	// editors don't drop the watch.
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	log.Info("watching for changes", "path", path)

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			debounce = time.After(500 * time.Millisecond)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", "error", err)
		case <-debounce:
			debounce = nil
			if err := c.consolidateOnce(ctx, out, log, manager, path); err != nil {
				log.Error("consolidation failed, still watching", "error", err)
			}
		}
	}
}

// pipelineHandles bundles the consolidator with the resources that need
// closing once the run finishes.
type pipelineHandles struct {
	consolidator *pipeline.Consolidator
	store        storage.Driver
	index        vector.Driver
	publisher    *kafka.Publisher
}

func (h *pipelineHandles) close(log *slog.Logger) {
	if h.publisher != nil {
		if err := h.publisher.Close(); err != nil {
			log.Warn("closing event publisher", "error", err)
		}
	}
	if h.index != nil {
		if err := h.index.Close(); err != nil {
			log.Warn("closing vector index", "error", err)
		}
	}
	if h.store != nil {
		if err := h.store.Close(); err != nil {
			log.Warn("closing memory store", "error", err)
		}
	}
}

// buildPipeline assembles the store, index, embedder, extractor, resolver,
// and publisher the consolidator runs on. With --dry-run the store and index
// are throwaway in-memory instances; everything else is wired identically so
// a dry run still exercises extraction and embedding.
func (c *consolidateCommander) buildPipeline(ctx context.Context, log *slog.Logger, state *dotdir.ConsolidateState) (_ *pipelineHandles, err error) {
	h := &pipelineHandles{}
	defer func() {
		if err != nil {
			h.close(log)
		}
	}()

	h.store, err = c.newStore(ctx, log)
	if err != nil {
		return nil, err
	}

	h.index, err = c.newIndex(ctx, log)
	if err != nil {
		return nil, err
	}

	credMgr, err := credentials.NewManager(c.configDir)
	if err != nil {
		return nil, fmt.Errorf("loading credentials: %w", err)
	}

	embedderKey, err := credMgr.GetKey(c.v.GetString("embedding.provider"))
	if err != nil {
		return nil, err
	}
	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: c.v.GetString("embedding.provider"),
		TargetURL:    c.v.GetString("embedding.target"),
		Model:        c.v.GetString("embedding.model"),
		APIKey:       embedderKey,
	})
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	call, err := extract.NewCaller(extract.CallerConfig{
		Provider: c.v.GetString("extractor.provider"),
		Model:    c.v.GetString("extractor.model"),
		BaseURL:  c.v.GetString("extractor.target"),
		CredMgr:  credMgr,
	})
	if err != nil {
		return nil, fmt.Errorf("creating extraction caller: %w", err)
	}
	extractor := extract.NewExtractor(call, log)

	ids, err := c.newIDAllocator(ctx, h.store)
	if err != nil {
		return nil, err
	}

	resolver, err := resolve.NewResolver(resolve.Config{
		Policy: resolve.Policy(c.v.GetString("memory.versioning")),
		IDs:    ids,
		Store:  h.store,
		Log:    log,
	})
	if err != nil {
		return nil, err
	}

	var publisher eventstream.Publisher
	if c.v.GetString("events.provider") == "kafka" {
		brokers := strings.Split(c.v.GetString("events.brokers"), ",")
		for i := range brokers {
			brokers[i] = strings.TrimSpace(brokers[i])
		}
		h.publisher, err = kafka.NewPublisher(kafka.Config{
			Brokers: brokers,
			Topic:   c.v.GetString("events.topic"),
		}, log)
		if err != nil {
			return nil, fmt.Errorf("creating kafka publisher: %w", err)
		}
		publisher = h.publisher
	}

	h.consolidator, err = pipeline.NewConsolidator(pipeline.Config{
		Extractor: extractor,
		Resolver:  resolver,
		Store:     h.store,
		Index:     h.index,
		Embedder:  embedder,
		Publisher: publisher,
		Resume:    state.Turns,
		Log:       log,
	})
	if err != nil {
		return nil, err
	}

	return h, nil
}

func (c *consolidateCommander) newStore(ctx context.Context, log *slog.Logger) (storage.Driver, error) {
	if c.dryRun {
		return storageinmemory.NewDriver(), nil
	}

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
		log.Debug("using jsonfile storage", "path", path)
		return jsonfile.NewDriver(jsonfile.Config{Path: path}, log)

	case "postgres":
		dsn := c.v.GetString("storage.postgres_dsn")
		if dsn == "" {
			return nil, fmt.Errorf("storage.postgres_dsn is required for the postgres backend")
		}
		log.Debug("using postgres storage")
		return postgres.NewDriver(ctx, dsn)

	case "inmemory":
		log.Debug("using in-memory storage")
		return storageinmemory.NewDriver(), nil

	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", provider)
	}
}

func (c *consolidateCommander) newIndex(ctx context.Context, log *slog.Logger) (vector.Driver, error) {
	if c.dryRun {
		return vectorinmemory.NewDriver(), nil
	}

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

	return index, nil
}

func (c *consolidateCommander) newIDAllocator(ctx context.Context, store storage.Driver) (memory.IDAllocator, error) {
	scheme := c.v.GetString("memory.id_scheme")
	switch scheme {
	case "uuid":
		return memory.UUID{}, nil
	case "sequence", "":
		start, err := storage.NextSequenceStart(ctx, store)
		if err != nil {
			return nil, fmt.Errorf("deriving sequence start: %w", err)
		}
		return memory.NewSequence(start), nil
	default:
		return nil, fmt.Errorf("unsupported id scheme: %s", scheme)
	}
}
