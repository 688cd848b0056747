package decision

import (
	"testing"

	"github.com/processtriage/triage/internal/config"
	"github.com/processtriage/triage/internal/impact"
	"github.com/processtriage/triage/internal/inference"
	"github.com/processtriage/triage/internal/model"
)

func candidate(class config.Class, sev impact.Severity, feas ActionFeasibility) ProcessCandidate {
	return ProcessCandidate{
		Record:         model.ProcessRecord{PID: 42, StartID: model.StartID{PID: 42, BootEpoch: 1}},
		Classification: inference.Classification{Class: class, Confidence: inference.ConfidenceHigh, Margin: 5.0},
		Impact:         impact.ImpactComponents{Severity: sev},
		Feasibility:    feas,
	}
}

func TestDecideAction_RunawayHighSeverityProposesKillWhenFeasible(t *testing.T) {
	cfg := config.DefaultPolicy().Decision
	cand := candidate(config.ClassRunaway, impact.SeverityHigh, ActionFeasibility{ActionKill: true})
	step := DecideAction(cand, cfg)
	if step.Action.Kind != ActionKill {
		t.Errorf("expected Kill, got %s", step.Action.Kind)
	}
}

func TestDecideAction_DowngradesWhenKillInfeasible(t *testing.T) {
	cfg := config.DefaultPolicy().Decision
	cand := candidate(config.ClassRunaway, impact.SeverityHigh, ActionFeasibility{ActionKill: false, ActionPause: true})
	step := DecideAction(cand, cfg)
	if step.Action.Kind == ActionKill {
		t.Error("should not select infeasible Kill")
	}
}

func TestDecideAction_NormalClassProposesNoOp(t *testing.T) {
	cfg := config.DefaultPolicy().Decision
	cand := candidate(config.ClassNormal, impact.SeverityLow, ActionFeasibility{})
	step := DecideAction(cand, cfg)
	if step.Action.Kind != ActionNoOp {
		t.Errorf("expected NoOp, got %s", step.Action.Kind)
	}
	if step.Action.Reason == "" && step.Rationale == "" {
		t.Error("NoOp should carry a rationale")
	}
}

func TestDecideAction_NoFeasibleActionsFallsBackToNoOp(t *testing.T) {
	cfg := config.DefaultPolicy().Decision
	cand := candidate(config.ClassRunaway, impact.SeverityHigh, ActionFeasibility{})
	step := DecideAction(cand, cfg)
	if step.Action.Kind != ActionNoOp {
		t.Errorf("expected NoOp when nothing feasible, got %s", step.Action.Kind)
	}
}

func TestCandidateChain_StartsAtProposedAndIncludesOnlyFeasibleDownstream(t *testing.T) {
	chain := candidateChain(ActionPause, ActionFeasibility{ActionPause: true, ActionRenice: false})
	for _, k := range chain {
		if k == ActionKill {
			t.Error("chain should not include actions above the proposed kind")
		}
	}
	found := false
	for _, k := range chain {
		if k == ActionPause {
			found = true
		}
	}
	if !found {
		t.Error("expected proposed action to appear in chain when feasible")
	}
}

func TestCompareForTieBreak_HigherSeverityFirst(t *testing.T) {
	a := PlannedStep{BlastSeverity: impact.SeverityHigh, Target: TargetIdentity{StartID: model.StartID{PID: 5}}}
	b := PlannedStep{BlastSeverity: impact.SeverityLow, Target: TargetIdentity{StartID: model.StartID{PID: 1}}}
	if !CompareForTieBreak(a, b) {
		t.Error("expected higher severity to sort first")
	}
}

func TestCompareForTieBreak_LowerStartIDBreaksSeverityTie(t *testing.T) {
	a := PlannedStep{BlastSeverity: impact.SeverityMedium, Target: TargetIdentity{StartID: model.StartID{PID: 3}}}
	b := PlannedStep{BlastSeverity: impact.SeverityMedium, Target: TargetIdentity{StartID: model.StartID{PID: 7}}}
	if !CompareForTieBreak(a, b) {
		t.Error("expected lower start_id to sort first on severity tie")
	}
}
