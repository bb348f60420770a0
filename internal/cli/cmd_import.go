// Package cli implements the cask command-line interface.
package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/caskhq/cask/internal/archive"
	"github.com/caskhq/cask/internal/object"
)

// newImportCmd creates the import command
func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Restore records from a container",
		Long: `Import a container produced by cask export.

The container is extracted into a scratch workspace, its manifest is
validated against the requested object types, and each type's records
are replayed into the local store. Replaying the same container twice
is a no-op.

Examples:
  cask import exports/cask-20260820-150405-1a2b3c4d.tar.gz
  cask import backup.tar.gz --objects log`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			objectsFlag, _ := cmd.Flags().GetString("objects")
			keep, _ := cmd.Flags().GetBool("keep-workspace")

			objects, err := object.ParseList(objectsFlag)
			if err != nil {
				return err
			}

			proj, err := loadProject()
			if err != nil {
				return err
			}
			defer proj.Close()

			pipeline := proj.newPipeline(keep)
			renderer := newStageRenderer()

			var final archive.ImportProgress
			for ev := range pipeline.Import(cmd.Context(), archive.ImportRequest{
				SourceFile: args[0],
				Objects:    objects,
			}) {
				if ev.Err != nil {
					return ev.Err
				}
				final = ev.Progress
				renderer.update(ev.Progress.Stage, importDetail(ev.Progress))
			}
			renderer.done()

			if jsonOut {
				data, err := json.MarshalIndent(final, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}
			var applied int
			for _, tp := range final.PerType {
				applied += len(tp.Applied)
			}
			fmt.Printf("Imported %d item(s) from %s\n", applied, args[0])
			return nil
		},
	}

	cmd.Flags().String("objects", "log", "Comma-separated object types to import")
	cmd.Flags().Bool("keep-workspace", false, "Keep the extraction workspace after import")

	return cmd
}
