// Package statuscmder provides the status command for displaying the local
// liner state: resolved directories, effective configuration, store counts,
// and consolidation progress.
package statuscmder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/liner/pkg/cliui"
	"github.com/papercomputeco/liner/pkg/config"
	"github.com/papercomputeco/liner/pkg/dotdir"
	"github.com/papercomputeco/liner/pkg/git"
	"github.com/papercomputeco/liner/pkg/logger"
	"github.com/papercomputeco/liner/pkg/memory"
	"github.com/papercomputeco/liner/pkg/storage/jsonfile"
	"github.com/papercomputeco/liner/pkg/utils"
)

const statusLongDesc string = `Show the current liner state.

Reads the local .liner/ directory (or ~/.liner/) to display the effective
configuration, memory store counts, and how far consolidation has
progressed through each known conversation.

Examples:
  liner status`

const statusShortDesc string = "Show local memory store state"

func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: statusShortDesc,
		Long:  statusLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runStatus(cmd.Context(), configDir)
		},
	}

	return cmd
}

func runStatus(ctx context.Context, configDir string) error {
	manager := dotdir.NewManager()

	target, err := manager.Target(configDir)
	if err != nil {
		return fmt.Errorf("resolving .liner directory: %w", err)
	}

	if target == "" {
		fmt.Printf("  %s No .liner directory found. Run 'liner init' to create one.\n", cliui.DimStyle.Render("●"))
		return nil
	}

	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	cfg, err := cfger.LoadConfig()
	if err != nil {
		return err
	}

	fmt.Printf("\n  %s  %s\n", cliui.KeyStyle.Render("Project:    "), cliui.ValueStyle.Render(git.RepoName()))
	fmt.Printf("  %s  %s\n", cliui.KeyStyle.Render("Directory:  "), cliui.ValueStyle.Render(target))
	if cfger.GetTarget() != "" {
		fmt.Printf("  %s  %s\n", cliui.KeyStyle.Render("Config:     "), cliui.DimStyle.Render(cfger.GetTarget()))
	} else {
		fmt.Printf("  %s  %s\n", cliui.KeyStyle.Render("Config:     "), cliui.DimStyle.Render("defaults (no config.toml)"))
	}

	storePath := cfg.Storage.Path
	if storePath == "" {
		storePath = filepath.Join(target, "memories.json")
	}

	fmt.Printf("  %s  %s %s\n",
		cliui.KeyStyle.Render("Storage:    "),
		cliui.NameStyle.Render(cfg.Storage.Provider),
		cliui.DimStyle.Render(storePath),
	)
	fmt.Printf("  %s  %s %s\n",
		cliui.KeyStyle.Render("Vector:     "),
		cliui.NameStyle.Render(cfg.Vector.Provider),
		cliui.DimStyle.Render("collection "+cfg.Vector.Collection),
	)
	fmt.Printf("  %s  %s %s\n",
		cliui.KeyStyle.Render("Embedding:  "),
		cliui.NameStyle.Render(cfg.Embedding.Provider+"/"+cfg.Embedding.Model),
		cliui.DimStyle.Render(fmt.Sprintf("(%d dims)", cfg.Embedding.Dimensions)),
	)
	fmt.Printf("  %s  %s\n",
		cliui.KeyStyle.Render("Extractor:  "),
		cliui.NameStyle.Render(cfg.Extractor.Provider+"/"+cfg.Extractor.Model),
	)
	fmt.Printf("  %s  %s %s\n",
		cliui.KeyStyle.Render("Versioning: "),
		cliui.ValueStyle.Render(cfg.Memory.Versioning),
		cliui.DimStyle.Render("ids: "+cfg.Memory.IDScheme),
	)

	if cfg.Storage.Provider == "jsonfile" {
		if err := printStoreCounts(ctx, storePath); err != nil {
			return err
		}
	}

	if err := printConsolidation(manager, configDir); err != nil {
		return err
	}

	fmt.Println()
	return nil
}

// printStoreCounts summarizes the jsonfile store without creating it. A
// missing store file means nothing has been consolidated into this directory.
func printStoreCounts(ctx context.Context, storePath string) error {
	if !fileExists(storePath) {
		fmt.Printf("\n  %s No memories stored yet.\n", cliui.DimStyle.Render("●"))
		return nil
	}

	store, err := jsonfile.NewDriver(jsonfile.Config{Path: storePath}, logger.Nop())
	if err != nil {
		return fmt.Errorf("opening memory store: %w", err)
	}
	defer store.Close()

	memories, err := store.ListAll(ctx)
	if err != nil {
		return err
	}

	indexed := 0
	conversations := make(map[string]bool)
	for _, m := range memories {
		if m.Vector != nil {
			indexed++
		}
		conversations[m.ConversationID] = true
	}

	fmt.Printf("\n  %s  %s %s\n",
		cliui.KeyStyle.Render("Memories:   "),
		cliui.NameStyle.Render(strconv.Itoa(len(memories))),
		cliui.DimStyle.Render(fmt.Sprintf("(%d indexed)", indexed)),
	)
	fmt.Printf("  %s  %s\n",
		cliui.KeyStyle.Render("Sources:    "),
		cliui.NameStyle.Render(fmt.Sprintf("%d conversations", len(conversations))),
	)

	printRecent(memories)

	return nil
}

// printRecent previews the newest memories, one line each.
func printRecent(memories []memory.Memory) {
	if len(memories) == 0 {
		return
	}

	sort.Slice(memories, func(i, j int) bool {
		return memories[i].Timestamp.After(memories[j].Timestamp)
	})

	n := len(memories)
	if n > 3 {
		n = 3
	}

	fmt.Printf("\n  %s\n", cliui.KeyStyle.Render("Recent:"))
	for i := 0; i < n; i++ {
		preview := utils.Truncate(utils.FirstLine(memories[i].Content), 72)
		fmt.Printf("    %s %s\n",
			cliui.IDStyle.Render(memories[i].MemoryID),
			cliui.DimStyle.Render(preview),
		)
	}
}

// printConsolidation summarizes the consolidation cursor in state.json.
func printConsolidation(manager *dotdir.Manager, configDir string) error {
	state, err := manager.LoadConsolidateState(configDir)
	if err != nil {
		return err
	}

	if state == nil || len(state.Turns) == 0 {
		fmt.Printf("\n  %s No consolidation state. Next run starts from the beginning.\n", cliui.DimStyle.Render("●"))
		return nil
	}

	fmt.Printf("\n  %s  %s %s\n",
		cliui.KeyStyle.Render("Consolidated:"),
		cliui.NameStyle.Render(fmt.Sprintf("%d conversations", len(state.Turns))),
		cliui.DimStyle.Render("updated "+state.UpdatedAt.Format("2006-01-02 15:04:05 MST")),
	)

	ids := make([]string, 0, len(state.Turns))
	for id := range state.Turns {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		fmt.Printf("    %s %s\n",
			cliui.IDStyle.Render(id),
			cliui.DimStyle.Render(fmt.Sprintf("through turn %d", state.Turns[id])),
		)
	}

	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
