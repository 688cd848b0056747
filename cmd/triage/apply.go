package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/processtriage/triage/internal/audit"
	"github.com/processtriage/triage/internal/decision"
	"github.com/processtriage/triage/internal/executor"
	"github.com/processtriage/triage/internal/session"
)

// newApplyCmd implements `triage apply`: dispatches a session's already-
// enforced plan.json to the host via the real executor, records the
// hash-chained audit trail, and closes the session with its outcome
// (spec §4.I "Action Executor & Recovery", §4.K "Audit logger").
func newApplyCmd(flags *globalFlags) *cobra.Command {
	var sessionID string
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Dispatch a session's enforced plan to the host",
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

			var plan decision.Plan
			raw, err := os.ReadFile(dir.Path() + "/plan.json")
			if err != nil {
				return fmt.Errorf("reading plan document (run `triage plan` first): %w", err)
			}
			if err := json.Unmarshal(raw, &plan); err != nil {
				return fmt.Errorf("parsing plan document: %w", err)
			}

			auditLog, err := audit.Open(dir.Path() + "/audit.jsonl")
			if err != nil {
				return fmt.Errorf("opening audit log: %w", err)
			}
			defer auditLog.Close()

			bus := session.NewEventBus()
			exec := executor.Executor{
				Runner:   executor.SignalRunner{},
				Identity: executor.LiveIdentityProvider{},
				Verifier: executor.LivePostconditionChecker{Identity: executor.LiveIdentityProvider{}},
				Policy:   *a.cfg.Policy,
				Progress: session.NewProgressEmitter(bus),
				Fanout:   session.NewFanoutEmitter(bus),
			}

			startedAt := time.Now()
			summary := exec.Execute(context.Background(), plan)

			outcome := session.Outcome{
				ClosedAt:      time.Now().UTC().Format(time.RFC3339),
				StepsPlanned:  len(plan.Steps),
				DroppedEvents: bus.DroppedCounts(),
			}
			for _, res := range summary.Results {
				payload := map[string]interface{}{
					"pid":          res.Target.PID,
					"action":       string(res.Action.Kind),
					"state":        res.State.String(),
					"failure_kind": string(res.FailureKind),
					"attempts":     res.Attempts,
				}
				if err := auditLog.Append(audit.KindOutcome, payload); err != nil {
					a.log.Warn("failed to append audit outcome entry", zap.Error(err))
				}
				if res.Err != nil {
					if aerr := auditLog.AppendError(res.Err); aerr != nil {
						a.log.Warn("failed to append audit error entry", zap.Error(aerr))
					}
				}
				switch res.State {
				case executor.StepVerified:
					outcome.StepsVerified++
				case executor.StepFailed:
					outcome.StepsFailed++
				case executor.StepSkipped:
					outcome.StepsSkipped++
				}
			}

			if err := dir.WriteOutcome(outcome); err != nil {
				return fmt.Errorf("writing session outcome: %w", err)
			}

			a.log.Info("apply complete",
				zap.String("session_id", string(id)),
				zap.Int("verified", outcome.StepsVerified),
				zap.Int("failed", outcome.StepsFailed),
				zap.Int("skipped", outcome.StepsSkipped),
				zap.Duration("elapsed", time.Since(startedAt)),
			)

			return renderOutput(cmd.OutOrStdout(), *flags, map[string]interface{}{
				"session_id": id,
				"outcome":    outcome,
			})
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "session id (default: most recent)")
	return cmd
}
