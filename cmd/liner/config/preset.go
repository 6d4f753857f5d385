package configcmder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/liner/pkg/cliui"
	"github.com/papercomputeco/liner/pkg/config"
)

const presetLongDesc string = `Apply a provider preset to the configuration.

A preset sets the extractor and embedding providers together with sensible
model defaults, overwriting those sections of config.toml. The anthropic
preset pairs the anthropic extractor with local ollama embeddings, since
Anthropic has no embeddings API.

Available presets: openai, anthropic, ollama

Examples:
  liner config preset anthropic
  liner config preset ollama`

const presetShortDesc string = "Apply a provider preset"

func newPresetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preset <name>",
		Short: presetShortDesc,
		Long:  presetLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runPreset(args[0], configDir)
		},
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return config.ValidPresetNames(), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
	}

	return cmd
}

func runPreset(name, configDir string) error {
	cfg, err := config.PresetConfig(name)
	if err != nil {
		return err
	}

	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfger.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Printf("\n  %s Applied %s preset %s\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(strings.ToLower(name)),
		cliui.DimStyle.Render("("+cfger.GetTarget()+")"),
	)
	fmt.Printf("  %s %s  %s %s\n\n",
		cliui.KeyStyle.Render("extractor:"),
		cliui.ValueStyle.Render(cfg.Extractor.Provider+"/"+cfg.Extractor.Model),
		cliui.KeyStyle.Render("embedding:"),
		cliui.ValueStyle.Render(cfg.Embedding.Provider+"/"+cfg.Embedding.Model),
	)
	return nil
}
