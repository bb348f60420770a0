// Package cli implements the cask command-line interface.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/caskhq/cask/internal/config"
	"github.com/caskhq/cask/internal/eventlog"
)

// newInitCmd creates the init command
func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize cask in current directory",
		Long: `Initialize cask in the current directory.

Creates the .cask state directory with a default config and an empty
event store.

Examples:
  cask init                   # Initialize with defaults
  cask init --force           # Reinitialize existing project`,
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")

			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("get working directory: %w", err)
			}

			stateDir := filepath.Join(cwd, config.Dir)
			if _, err := os.Stat(stateDir); err == nil && !force {
				return fmt.Errorf("cask already initialized. Use --force to reinitialize")
			}

			if err := config.Default().Save(cwd); err != nil {
				return err
			}

			// Opening the store creates the database file and schema.
			store, err := eventlog.Open(config.DBPath(cwd))
			if err != nil {
				return err
			}
			_ = store.Close()

			if !quiet {
				fmt.Println("Initialized cask project in", stateDir)
			}
			return nil
		},
	}

	cmd.Flags().Bool("force", false, "Overwrite existing configuration")

	return cmd
}
