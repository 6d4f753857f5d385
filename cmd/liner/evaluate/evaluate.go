// Package evaluatecmder provides the evaluate command for grading stored
// memories against their source conversations with an LLM judge.
package evaluatecmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/liner/pkg/cliui"
	"github.com/papercomputeco/liner/pkg/config"
	"github.com/papercomputeco/liner/pkg/conversation"
	"github.com/papercomputeco/liner/pkg/credentials"
	"github.com/papercomputeco/liner/pkg/dotdir"
	"github.com/papercomputeco/liner/pkg/evaluate"
	"github.com/papercomputeco/liner/pkg/extract"
	"github.com/papercomputeco/liner/pkg/logger"
	"github.com/papercomputeco/liner/pkg/memory"
	"github.com/papercomputeco/liner/pkg/storage"
	storageinmemory "github.com/papercomputeco/liner/pkg/storage/inmemory"
	"github.com/papercomputeco/liner/pkg/storage/jsonfile"
	"github.com/papercomputeco/liner/pkg/storage/postgres"
)

const evaluateLongDesc string = `Evaluate stored memories with an LLM judge.

Loads the memories consolidated from the given conversations file and asks
the judge to grade each one against its source conversation: is it correct,
is it relevant as durable memory, is it atomic, and a 1-5 score. Memories
that cannot be judged are skipped, never aborting the run.

The judge uses the extractor provider configuration. Results render as a
table; --output additionally writes the full report as JSON.

Examples:
  liner evaluate conversations.json
  liner evaluate conversations.json --extractor-provider anthropic
  liner evaluate conversations.json --output report.json`

const evaluateShortDesc string = "Judge stored memories against their conversations"

type evaluateCommander struct {
	storageProv    string
	storagePath    string
	postgresDSN    string
	extractorProv  string
	extractorTgt   string
	extractorModel string

	output string

	debug     bool
	configDir string
	v         *viper.Viper
}

// evaluateFlagKeys lists the registry keys the evaluate command binds.
var evaluateFlagKeys = []string{
	config.FlagStorageProvider,
	config.FlagStoragePath,
	config.FlagPostgresDSN,
	config.FlagExtractorProv,
	config.FlagExtractorTgt,
	config.FlagExtractorModel,
}

func NewEvaluateCmd() *cobra.Command {
	cmder := &evaluateCommander{}

	cmd := &cobra.Command{
		Use:   "evaluate <conversations.json>",
		Short: evaluateShortDesc,
		Long:  evaluateLongDesc,
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
			config.BindRegisteredFlags(cmder.v, cmd, config.DefaultFlags, evaluateFlagKeys)

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd.OutOrStdout(), args[0])
		},
	}

	config.AddStringFlag(cmd, config.DefaultFlags, config.FlagStorageProvider, &cmder.storageProv)
	config.AddStringFlag(cmd, config.DefaultFlags, config.FlagStoragePath, &cmder.storagePath)
	config.AddStringFlag(cmd, config.DefaultFlags, config.FlagPostgresDSN, &cmder.postgresDSN)
	config.AddStringFlag(cmd, config.DefaultFlags, config.FlagExtractorProv, &cmder.extractorProv)
	config.AddStringFlag(cmd, config.DefaultFlags, config.FlagExtractorTgt, &cmder.extractorTgt)
	config.AddStringFlag(cmd, config.DefaultFlags, config.FlagExtractorModel, &cmder.extractorModel)

	cmd.Flags().StringVarP(&cmder.output, "output", "o", "", "Write the full report as JSON to this path")

	return cmd
}

func (c *evaluateCommander) run(ctx context.Context, out io.Writer, path string) error {
	// Judge logs go to stderr so stdout stays clean for the rendered report.
	log := logger.New(logger.WithDebug(c.debug), logger.WithWriter(os.Stderr))

	var conversations []conversation.Conversation
	if err := cliui.Step(out, "Loading conversations", func() error {
		var loadErr error
		conversations, loadErr = conversation.LoadFile(path)
		return loadErr
	}); err != nil {
		return err
	}

	var memories []memory.Memory
	if err := cliui.Step(out, "Loading memories", func() error {
		store, err := c.newStore(ctx, log)
		if err != nil {
			return err
		}
		defer store.Close()

		memories, err = store.ListAll(ctx)
		return err
	}); err != nil {
		return err
	}

	if len(memories) == 0 {
		fmt.Fprintf(out, "\n  %s No memories to judge. Run 'liner consolidate %s' first.\n\n",
			cliui.DimStyle.Render("●"), path)
		return nil
	}

	var evaluator *evaluate.Evaluator
	if err := cliui.Step(out, "Preparing judge", func() error {
		credMgr, err := credentials.NewManager(c.configDir)
		if err != nil {
			return fmt.Errorf("loading credentials: %w", err)
		}

		call, err := extract.NewCaller(extract.CallerConfig{
			Provider: c.v.GetString("extractor.provider"),
			Model:    c.v.GetString("extractor.model"),
			BaseURL:  c.v.GetString("extractor.target"),
			CredMgr:  credMgr,
		})
		if err != nil {
			return fmt.Errorf("creating judge caller: %w", err)
		}

		evaluator, err = evaluate.NewEvaluator(call, log)
		return err
	}); err != nil {
		return err
	}

	var report *evaluate.Report
	runErr := cliui.Step(out, fmt.Sprintf("Judging %d memories", len(memories)), func() error {
		var err error
		report, err = evaluator.Run(ctx, conversations, memories)
		return err
	})
	if report == nil {
		return runErr
	}

	rendered, err := cliui.RenderMarkdown(report.Markdown())
	if err != nil {
		// Plain markdown still reads fine when the terminal renderer fails.
		rendered = report.Markdown()
	}
	fmt.Fprintln(out, rendered)

	if c.output != "" {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding report: %w", err)
		}
		if err := os.WriteFile(c.output, data, 0o644); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		fmt.Fprintf(out, "  %s Wrote report to %s\n\n",
			cliui.SuccessMark, cliui.DimStyle.Render(c.output))
	}

	return runErr
}

func (c *evaluateCommander) newStore(ctx context.Context, log *slog.Logger) (storage.Driver, error) {
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
