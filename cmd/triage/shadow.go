package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/processtriage/triage/internal/bundle"
	"github.com/processtriage/triage/internal/report"
	"github.com/processtriage/triage/internal/session"
)

// shadowState is the on-disk marker for shadow mode, written by
// `shadow start`/`shadow stop` and reported by `shadow status`. Only the
// shadow subcommands read it; plan and apply behave the same whether or
// not it is active.
type shadowState struct {
	Active    bool      `json:"active"`
	StartedAt time.Time `json:"started_at"`
}

func shadowStatePath(dataDir string) string { return dataDir + "/shadow_state.json" }

// newShadowCmd implements `triage shadow {start|stop|status|export|report}`.
func newShadowCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shadow",
		Short: "Record a shadow-mode marker, and export or report session bundles",
	}
	cmd.AddCommand(
		newShadowStartCmd(flags),
		newShadowStopCmd(flags),
		newShadowStatusCmd(flags),
		newShadowExportCmd(flags),
		newShadowReportCmd(flags),
	)
	return cmd
}

func newShadowStartCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Mark shadow mode active",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*flags)
			if err != nil {
				return err
			}
			defer a.log.Sync()
			state := shadowState{Active: true, StartedAt: time.Now()}
			if err := writeJSONFile(shadowStatePath(a.cfg.Paths.DataDir), state); err != nil {
				return fmt.Errorf("writing shadow state: %w", err)
			}
			return renderOutput(cmd.OutOrStdout(), *flags, state)
		},
	}
}

func newShadowStopCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Mark shadow mode inactive",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*flags)
			if err != nil {
				return err
			}
			defer a.log.Sync()
			state := shadowState{Active: false}
			if err := writeJSONFile(shadowStatePath(a.cfg.Paths.DataDir), state); err != nil {
				return fmt.Errorf("writing shadow state: %w", err)
			}
			return renderOutput(cmd.OutOrStdout(), *flags, state)
		},
	}
}

func newShadowStatusCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report whether shadow mode is active",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*flags)
			if err != nil {
				return err
			}
			defer a.log.Sync()
			raw, err := os.ReadFile(shadowStatePath(a.cfg.Paths.DataDir))
			if err != nil {
				if os.IsNotExist(err) {
					return renderOutput(cmd.OutOrStdout(), *flags, shadowState{Active: false})
				}
				return fmt.Errorf("reading shadow state: %w", err)
			}
			var state shadowState
			if err := json.Unmarshal(raw, &state); err != nil {
				return fmt.Errorf("parsing shadow state: %w", err)
			}
			return renderOutput(cmd.OutOrStdout(), *flags, state)
		},
	}
}

func newShadowExportCmd(flags *globalFlags) *cobra.Command {
	var sessionID, out, profile, passphrase string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a session to a .ptb bundle archive",
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

			if out == "" {
				out = dir.Path() + "/export.ptb"
			}
			manifest, err := bundle.Write(out, bundle.Source{
				SessionID:    string(id),
				EventsPath:   dir.EventsPath(),
				TelemetryDir: dir.Path() + "/telemetry",
				Profile:      bundle.Profile(profile),
				Passphrase:   passphrase,
				CreatedAt:    time.Now(),
			})
			if err != nil {
				return fmt.Errorf("writing bundle: %w", err)
			}
			return renderOutput(cmd.OutOrStdout(), *flags, map[string]interface{}{
				"session_id": id,
				"bundle":     out,
				"manifest":   manifest,
			})
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "session id (default: most recent)")
	cmd.Flags().StringVar(&out, "out", "", "output .ptb path (default: <session>/export.ptb)")
	cmd.Flags().StringVar(&profile, "profile", "Safe", "export profile: Minimal, Safe, or Forensic")
	cmd.Flags().StringVar(&passphrase, "passphrase", "", "optional passphrase to encrypt the bundle (AES-256-GCM)")
	return cmd
}

func newShadowReportCmd(flags *globalFlags) *cobra.Command {
	var bundlePath, out, passphrase string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render an HTML report from a .ptb bundle archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*flags)
			if err != nil {
				return err
			}
			defer a.log.Sync()

			b, err := bundle.Read(bundlePath, passphrase)
			if err != nil {
				return fmt.Errorf("reading bundle: %w", err)
			}
			data, err := report.FromBundle(b, time.Now())
			if err != nil {
				return fmt.Errorf("projecting report data: %w", err)
			}
			html, err := report.Render(data)
			if err != nil {
				return fmt.Errorf("rendering report: %w", err)
			}
			if out == "" {
				out = bundlePath + ".html"
			}
			if err := os.WriteFile(out, html, 0o644); err != nil {
				return fmt.Errorf("writing report file: %w", err)
			}
			return renderOutput(cmd.OutOrStdout(), *flags, map[string]interface{}{
				"bundle": bundlePath,
				"report": out,
			})
		},
	}
	cmd.Flags().StringVar(&bundlePath, "bundle", "", "path to a .ptb bundle archive")
	cmd.Flags().StringVar(&out, "out", "", "output HTML path (default: <bundle>.html)")
	cmd.Flags().StringVar(&passphrase, "passphrase", "", "passphrase, if the bundle is encrypted")
	_ = cmd.MarkFlagRequired("bundle")
	return cmd
}
