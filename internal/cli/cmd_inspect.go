// Package cli implements the cask command-line interface.
package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/caskhq/cask/internal/manifest"
	"github.com/caskhq/cask/internal/object"
	"github.com/caskhq/cask/internal/packer"
)

// newInspectCmd creates the inspect command
func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect FILE",
		Short: "Show what a container holds",
		Long: `Inspect a container's manifest without extracting it.

The manifest is streamed straight out of the compressed container, so
inspecting a large archive is cheap.

Examples:
  cask inspect backup.tar.gz
  cask inspect backup.tar.gz --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := packer.New().ReadFile(args[0], manifest.FileName)
			if err != nil {
				return err
			}
			man, err := manifest.Decode(data)
			if err != nil {
				return err
			}

			if jsonOut {
				out, err := json.MarshalIndent(man, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
				return nil
			}

			fmt.Printf("Format:    %s %s\n", man.FormatID, man.FormatVersion)
			fmt.Printf("Created:   %s\n", man.Timestamp.Format("2006-01-02 15:04:05 MST"))
			if tool, ok := man.Producer["tool"]; ok {
				fmt.Printf("Producer:  %s %s\n", tool, man.Producer["version"])
			}
			fmt.Printf("Items:     %d\n", man.Count)
			for _, t := range object.Types() {
				items := man.ItemsFor(t)
				if len(items) == 0 {
					continue
				}
				var size, exploded int64
				for _, item := range items {
					size += item.Size
					exploded += item.ExplodedSize
				}
				fmt.Printf("  %-8s %d file(s), %d bytes (%d uncompressed)\n",
					t, len(items), size, exploded)
			}
			return nil
		},
	}
}
