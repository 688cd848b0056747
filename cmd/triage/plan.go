package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/processtriage/triage/internal/capability"
	"github.com/processtriage/triage/internal/decision"
	"github.com/processtriage/triage/internal/impact"
	"github.com/processtriage/triage/internal/inference"
	"github.com/processtriage/triage/internal/pipeline"
	"github.com/processtriage/triage/internal/policy"
	"github.com/processtriage/triage/internal/session"
)

// planStepView is the CLI-rendered shape of one decision.PlannedStep plus
// its policy-enforcer verdict, since the bare decision type is an
// internal-package value not meant for direct JSON exposure across
// package boundaries with unstable field sets.
type planStepView struct {
	PID          int32             `json:"pid"`
	Action       string            `json:"action"`
	Rationale    string            `json:"rationale"`
	ExpectedLoss float64           `json:"expected_loss"`
	Severity     string            `json:"severity"`
	Admitted     bool              `json:"admitted"`
	Violation    *policy.Violation `json:"violation,omitempty"`
}

// newPlanCmd implements `triage plan`: loads a session's t0 snapshot,
// classifies every process, computes impact and a candidate plan, and
// runs each step through the policy enforcer (spec §4.F, §4.G).
func newPlanCmd(flags *globalFlags) *cobra.Command {
	var sessionID string
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Classify the latest snapshot and propose a remediation plan",
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
			snap, err := dir.LoadSnapshot()
			if err != nil {
				return fmt.Errorf("loading session snapshot: %w", err)
			}

			now := time.Now()
			cache, err := a.capabilityCache(now.Unix())
			if err != nil {
				return fmt.Errorf("opening capability cache: %w", err)
			}
			defer cache.Close()
			caps, _ := cache.Get()

			bands := a.cfg.Policy.Decision.ConfidenceBands
			classified := pipeline.ClassifySnapshot(snap, a.cfg.Priors, bands, inference.DefaultCeilings(), 5)

			feasibility := make(map[int32]decision.ActionFeasibility, len(snap.Records))
			for _, r := range snap.Records {
				feasibility[r.PID] = capability.Feasibility(caps, r)
			}

			thresholds := impact.Thresholds{
				CPUHigh: 4.0, CPUMedium: 1.0,
				RSSHigh: 2 << 30, RSSMedium: 256 << 20,
				DescendantHigh: a.cfg.Policy.MaxBlastRadius / 2, DescendantMedium: a.cfg.Policy.MaxBlastRadius / 10,
				HardCap: a.cfg.Policy.BlastRadiusHardCap,
			}
			plan := pipeline.BuildPlan(snap, classified, feasibility, thresholds, a.cfg.Policy.Decision)

			enf, alpha, store, err := a.enforcer()
			if err != nil {
				return err
			}

			idx := impact.BuildChildIndex(snap)
			byPID := snap.ByPID()
			views := make([]planStepView, 0, len(plan.Steps))
			for _, step := range plan.Steps {
				rec := byPID[step.Target.PID]
				descendants := len(idx.Descendants(step.Target.PID))
				cls := classifiedFor(classified, step.Target.PID)
				result := enf.Enforce(policy.EnforceInput{
					Step:            step,
					Command:         rec.Command,
					DescendantCount: descendants,
					PWrong:          cls.PWrong(),
					Force:           false,
					Now:             now,
				})
				views = append(views, planStepView{
					PID: step.Target.PID, Action: string(step.Action.Kind), Rationale: step.Rationale,
					ExpectedLoss: step.ExpectedLoss, Severity: string(step.BlastSeverity),
					Admitted: result.Admitted, Violation: result.Violation,
				})
			}

			if err := store.Save(alpha); err != nil {
				a.log.Warn("failed to persist alpha-investing state", zap.Error(err))
			}

			admitted := decision.Plan{}
			for i, step := range plan.Steps {
				if views[i].Admitted {
					admitted.Steps = append(admitted.Steps, step)
				}
			}
			// plan.json holds the admitted decision.Plan verbatim so
			// `triage apply` can reload it without re-deriving anything;
			// plan_report.json is the human/agent-facing view with every
			// step's verdict, admitted or not.
			if err := writeJSONFile(dir.Path()+"/plan.json", admitted); err != nil {
				return fmt.Errorf("writing plan document: %w", err)
			}
			if err := writeJSONFile(dir.Path()+"/plan_report.json", views); err != nil {
				return fmt.Errorf("writing plan report: %w", err)
			}

			return renderOutput(cmd.OutOrStdout(), *flags, map[string]interface{}{
				"session_id": id,
				"steps":      views,
			})
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "session id (default: most recent)")
	return cmd
}

func classifiedFor(classified []pipeline.Classified, pid int32) inference.Classification {
	for _, c := range classified {
		if c.Record.PID == pid {
			return c.Classification
		}
	}
	return inference.Classification{}
}

func writeJSONFile(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
