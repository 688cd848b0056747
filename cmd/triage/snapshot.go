package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/processtriage/triage/internal/collect"
	"github.com/processtriage/triage/internal/session"
	"github.com/processtriage/triage/internal/telemetry"
)

// newSnapshotCmd implements `triage snapshot` (spec §6): collects the
// host's current process set, opens a new session directory at t0, and
// records a proc_samples telemetry batch.
func newSnapshotCmd(flags *globalFlags) *cobra.Command {
	var alpha float64
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Collect a process snapshot and open a new session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*flags)
			if err != nil {
				return err
			}
			defer a.log.Sync()

			collector := collect.NewCollector(alpha)
			now := time.Now()
			snap, err := collector.Collect(now)
			if err != nil {
				return fmt.Errorf("collecting snapshot: %w", err)
			}

			cfgSnap, err := a.cfg.Snapshot()
			if err != nil {
				return fmt.Errorf("computing config snapshot: %w", err)
			}
			dir, err := session.Create(a.cfg.Paths.SessionsDir(), snap, cfgSnap)
			if err != nil {
				return fmt.Errorf("creating session: %w", err)
			}

			telDir := dir.Path() + "/telemetry"
			w, err := telemetry.NewWriter(telDir)
			if err != nil {
				return fmt.Errorf("opening telemetry writer: %w", err)
			}
			for _, r := range snap.Records {
				row := telemetry.ProcSampleRow{
					SchemaVersion:    telemetry.BundleSchemaVersion,
					SessionID:        string(dir.ID),
					CollectedAt:      snap.CollectedAt,
					PID:              r.PID,
					StartIDBootEpoch: r.StartID.BootEpoch,
					CPUUsageEWMA:     r.CPUUsageEWMA,
					RSSBytes:         r.RSSBytes,
					IOReadBps:        r.IOReadBps,
					IOWriteBps:       r.IOWriteBps,
					State:            string(r.State),
					SupervisorLevel:  r.SupervisorLevel.String(),
				}
				if err := w.WriteRow(telemetry.TableProcSamples, row); err != nil {
					w.Close()
					return fmt.Errorf("writing proc_samples row: %w", err)
				}
			}
			if err := w.WriteRow(telemetry.TableRuns, telemetry.RunRow{
				SchemaVersion: telemetry.BundleSchemaVersion,
				SessionID:     string(dir.ID),
				Command:       "snapshot",
				StartedAt:     now,
			}); err != nil {
				w.Close()
				return fmt.Errorf("writing runs row: %w", err)
			}
			if err := w.Close(); err != nil {
				return fmt.Errorf("closing telemetry writer: %w", err)
			}

			a.log.Info("snapshot complete", zap.String("session_id", string(dir.ID)), zap.Int("processes", len(snap.Records)))
			return renderOutput(cmd.OutOrStdout(), *flags, map[string]interface{}{
				"session_id":    dir.ID,
				"collected_at":  snap.CollectedAt,
				"process_count": len(snap.Records),
			})
		},
	}
	cmd.Flags().Float64Var(&alpha, "cpu-ewma-alpha", collect.DefaultEWMAAlpha, "EWMA smoothing factor for CPU utilization")
	return cmd
}
