package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/processtriage/triage/internal/session"
	"github.com/processtriage/triage/internal/telemetry"
)

// newTelemetryCmd implements `triage telemetry {status|prune}`: per-table
// row counts for a session, and removal of telemetry for old sessions
// (spec §4.C "seven pinned tables", §4.H retention).
func newTelemetryCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "telemetry",
		Short: "Inspect and prune recorded telemetry tables",
	}
	cmd.AddCommand(newTelemetryStatusCmd(flags), newTelemetryPruneCmd(flags))
	return cmd
}

func newTelemetryStatusCmd(flags *globalFlags) *cobra.Command {
	var sessionID string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report per-table row counts for a session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*flags)
			if err != nil {
				return err
			}
			defer a.log.Sync()

			id, err := resolveSessionID(a.cfg.Paths.SessionsDir(), sessionID)
			if err != nil {
				return err
			}
			dir := session.Open(a.cfg.Paths.SessionsDir(), id)
			telDir := dir.Path() + "/telemetry"

			counts := make(map[string]int, len(telemetry.AllTables))
			for _, t := range telemetry.AllTables {
				n, err := telemetry.CountRows(telDir, t)
				if err != nil {
					return fmt.Errorf("counting rows in table %s: %w", t, err)
				}
				counts[string(t)] = n
			}
			return renderOutput(cmd.OutOrStdout(), *flags, map[string]interface{}{
				"session_id": id,
				"tables":     counts,
			})
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "session id (default: most recent)")
	return cmd
}

func newTelemetryPruneCmd(flags *globalFlags) *cobra.Command {
	var keep int
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove telemetry directories for sessions beyond --keep",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*flags)
			if err != nil {
				return err
			}
			defer a.log.Sync()

			root := a.cfg.Paths.SessionsDir()
			ids, err := session.List(root)
			if err != nil {
				return fmt.Errorf("listing sessions: %w", err)
			}
			if keep < 0 {
				keep = 0
			}
			if len(ids) <= keep {
				return renderOutput(cmd.OutOrStdout(), *flags, map[string]interface{}{"pruned": 0})
			}
			pruned := 0
			for _, id := range ids[:len(ids)-keep] {
				telDir := session.Open(root, id).Path() + "/telemetry"
				if err := os.RemoveAll(telDir); err != nil {
					return fmt.Errorf("pruning telemetry for session %s: %w", id, err)
				}
				pruned++
			}
			return renderOutput(cmd.OutOrStdout(), *flags, map[string]interface{}{"pruned": pruned})
		},
	}
	cmd.Flags().IntVar(&keep, "keep", 20, "number of most recent sessions whose telemetry is retained")
	return cmd
}
