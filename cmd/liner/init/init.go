// Package initcmder provides the init command for initializing a local .liner
// directory in the current working directory.
package initcmder

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const (
	dirName = ".liner"
)

const initLongDesc string = `Initialize a new .liner/ directory in the current working directory.

Creates a local .liner/ directory that takes precedence over the default
~/.liner/ directory for memory storage, vector indexes, configuration,
consolidation state, and other liner operations.

This is useful for maintaining separate memory stores per project or directory.

Examples:
  liner init`

const initShortDesc string = "Initialize a local .liner/ directory"

func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runInit()
		},
	}

	return cmd
}

func runInit() error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dirName)

	info, err := os.Stat(dir)
	if err == nil && info.IsDir() {
		fmt.Printf("Already initialized: %s\n", dir)
		return nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating .liner directory: %w", err)
	}

	fmt.Printf("Initialized .liner directory: %s\n", dir)
	return nil
}
