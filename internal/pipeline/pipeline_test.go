package pipeline

import (
	"testing"
	"time"

	"github.com/processtriage/triage/internal/config"
	"github.com/processtriage/triage/internal/decision"
	"github.com/processtriage/triage/internal/impact"
	"github.com/processtriage/triage/internal/inference"
	"github.com/processtriage/triage/internal/model"
)

func rec(pid, ppid int32, cpu float64) model.ProcessRecord {
	return model.ProcessRecord{
		PID: pid, PPID: ppid, HasPPID: ppid != 0,
		StartID: model.StartID{PID: pid, BootEpoch: 1},
		Command: "proc", State: model.StateRunning,
		CPUUsageEWMA: cpu, Uptime: time.Hour,
		CollectedAt: time.Unix(1000, 0),
	}
}

func TestClassifySnapshot_ProducesOneEntryPerRecord(t *testing.T) {
	snap := model.Snapshot{CollectedAt: time.Unix(1000, 0), Records: []model.ProcessRecord{rec(1, 0, 0.1), rec(2, 1, 6.0)}}
	priors := config.DefaultPriors()
	bands := config.ConfidenceBands{High: 2.0, Medium: 0.5}
	classified := ClassifySnapshot(snap, priors, bands, inference.DefaultCeilings(), 5)
	if len(classified) != 2 {
		t.Fatalf("expected 2 classified entries, got %d", len(classified))
	}
	for _, c := range classified {
		if c.Classification.Class == "" {
			t.Errorf("pid %d: expected a non-empty classification", c.Record.PID)
		}
	}
}

func TestBuildPlan_OrdersBySeverityThenStartID(t *testing.T) {
	snap := model.Snapshot{CollectedAt: time.Unix(1000, 0), Records: []model.ProcessRecord{rec(1, 0, 0.1), rec(2, 1, 6.0)}}
	priors := config.DefaultPriors()
	bands := config.ConfidenceBands{High: 2.0, Medium: 0.5}
	classified := ClassifySnapshot(snap, priors, bands, inference.DefaultCeilings(), 5)

	feasibility := map[int32]decision.ActionFeasibility{
		1: {decision.ActionNoOp: true, decision.ActionKill: true, decision.ActionRenice: true, decision.ActionPause: true},
		2: {decision.ActionNoOp: true, decision.ActionKill: true, decision.ActionRenice: true, decision.ActionPause: true},
	}
	plan := BuildPlan(snap, classified, feasibility, impact.DefaultThresholds(), config.DefaultPolicy().Decision)
	if len(plan.Steps) != 2 {
		t.Fatalf("expected 2 plan steps, got %d", len(plan.Steps))
	}
	for i := 1; i < len(plan.Steps); i++ {
		prev, cur := plan.Steps[i-1], plan.Steps[i]
		if prev.BlastSeverity.Rank() < cur.BlastSeverity.Rank() {
			t.Errorf("expected steps sorted by decreasing severity rank, got %d before %d", prev.BlastSeverity.Rank(), cur.BlastSeverity.Rank())
		}
	}
}
