// Package linercmder
package linercmder

import (
	"github.com/spf13/cobra"

	authcmder "github.com/papercomputeco/liner/cmd/liner/auth"
	browsecmder "github.com/papercomputeco/liner/cmd/liner/browse"
	configcmder "github.com/papercomputeco/liner/cmd/liner/config"
	consolidatecmder "github.com/papercomputeco/liner/cmd/liner/consolidate"
	evaluatecmder "github.com/papercomputeco/liner/cmd/liner/evaluate"
	initcmder "github.com/papercomputeco/liner/cmd/liner/init"
	recallcmder "github.com/papercomputeco/liner/cmd/liner/recall"
	seedcmder "github.com/papercomputeco/liner/cmd/liner/seed"
	servecmder "github.com/papercomputeco/liner/cmd/liner/serve"
	statuscmder "github.com/papercomputeco/liner/cmd/liner/status"
	"github.com/papercomputeco/liner/pkg/utils"
)

const linerLongDesc string = `Liner distills durable liner notes (memories) from recorded agent
conversations and recalls them on demand.

Consolidate transcripts, then query what stuck:
  liner consolidate conversations.json      Distill memories from a transcript
  liner recall "where does the user work"   Retrieve relevant memories
  liner serve                               Run the API and MCP server`

const linerShortDesc string = "Liner - conversation memory"

func NewLinerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "liner",
		Short:   linerShortDesc,
		Long:    linerLongDesc,
		Version: utils.VersionString(),
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .liner/ config directory")

	// Add subcommands
	cmd.AddCommand(consolidatecmder.NewConsolidateCmd())
	cmd.AddCommand(recallcmder.NewRecallCmd())
	cmd.AddCommand(browsecmder.NewBrowseCmd())
	cmd.AddCommand(evaluatecmder.NewEvaluateCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(authcmder.NewAuthCmd())
	cmd.AddCommand(seedcmder.NewSeedCmd())
	cmd.AddCommand(statuscmder.NewStatusCmd())

	return cmd
}
