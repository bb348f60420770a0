// Package cli implements the cask command-line interface.
package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/caskhq/cask/internal/archive"
	"github.com/caskhq/cask/internal/object"
)

// newExportCmd creates the export command
func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Bundle records into a portable container",
		Long: `Export the requested object types into a single tar.gz container.

Each type's records are staged by its delegate, a manifest describing
every staged file is sealed in, and the result is compressed into one
container under the configured export directory.

Examples:
  cask export                         # Export the event log
  cask export --objects log           # Same, explicitly
  cask export --output /tmp/out.tgz   # Write next to /tmp/out.tgz
  cask export --keep-workspace        # Leave staging files for inspection`,
		RunE: func(cmd *cobra.Command, args []string) error {
			objectsFlag, _ := cmd.Flags().GetString("objects")
			output, _ := cmd.Flags().GetString("output")
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

			var final archive.ExportProgress
			for ev := range pipeline.Export(cmd.Context(), archive.ExportRequest{
				TargetFile: output,
				Objects:    objects,
			}) {
				if ev.Err != nil {
					return ev.Err
				}
				final = ev.Progress
				renderer.update(ev.Progress.Stage, exportDetail(ev.Progress))
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
			fmt.Println(final.OutputFile)
			return nil
		},
	}

	cmd.Flags().String("objects", "log", "Comma-separated object types to export")
	cmd.Flags().StringP("output", "o", "", "Directory hint for the container (file name is generated)")
	cmd.Flags().Bool("keep-workspace", false, "Keep the staging workspace after export")

	return cmd
}
