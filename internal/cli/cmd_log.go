// Package cli implements the cask command-line interface.
package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/caskhq/cask/internal/eventlog"
)

// newLogCmd creates the log command group
func newLogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Work with the project event log",
	}
	cmd.AddCommand(newLogAddCmd())
	cmd.AddCommand(newLogListCmd())
	return cmd
}

// newLogAddCmd creates the log add command
func newLogAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record an event in the log",
		Long: `Record one event in the project's event log.

Examples:
  cask log add --kind note
  cask log add --kind metric --payload '{"cpu":0.93}'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, _ := cmd.Flags().GetString("kind")
			payload, _ := cmd.Flags().GetString("payload")

			if payload != "" && !json.Valid([]byte(payload)) {
				return fmt.Errorf("payload must be valid JSON")
			}

			proj, err := loadProject()
			if err != nil {
				return err
			}
			defer proj.Close()

			ev := eventlog.Event{
				ID:        uuid.NewString(),
				Kind:      kind,
				CreatedAt: time.Now(),
			}
			if payload != "" {
				ev.Payload = json.RawMessage(payload)
			}
			if err := proj.Store.Add(cmd.Context(), &ev); err != nil {
				return err
			}

			if !quiet {
				fmt.Println(ev.ID)
			}
			return nil
		},
	}

	cmd.Flags().String("kind", "", "Event kind (required)")
	cmd.Flags().String("payload", "", "Event payload as JSON")
	_ = cmd.MarkFlagRequired("kind")

	return cmd
}

// newLogListCmd creates the log list command
func newLogListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded events",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt64("limit")
			offset, _ := cmd.Flags().GetInt64("offset")

			proj, err := loadProject()
			if err != nil {
				return err
			}
			defer proj.Close()

			events, err := proj.Store.Page(cmd.Context(), offset, limit)
			if err != nil {
				return err
			}

			if jsonOut {
				data, err := json.MarshalIndent(events, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}

			if len(events) == 0 {
				fmt.Println("No events recorded.")
				return nil
			}
			for _, ev := range events {
				fmt.Printf("%s  %-12s %s\n",
					ev.CreatedAt.Local().Format("2006-01-02 15:04:05"), ev.Kind, ev.ID)
			}
			return nil
		},
	}

	cmd.Flags().Int64("limit", 50, "Maximum events to list")
	cmd.Flags().Int64("offset", 0, "Events to skip")

	return cmd
}
