package decision

import (
	"github.com/processtriage/triage/internal/config"
)

const (
	sigTerm = 15
	sigKill = 9
)

// DecideAction runs the selection rule of spec §4.F for one candidate:
// map (class, severity) through the decision table, downgrade through the
// fallback chain until feasible, then pick the minimum expected-loss
// action among the proposed action and its downgrades.
func DecideAction(cand ProcessCandidate, cfg config.DecisionConfig) PlannedStep {
	proposed := proposedActionKind(cand, cfg)

	candidates := candidateChain(proposed, cand.Feasibility)
	best := candidates[0]
	bestEL := expectedLoss(best, cand, cfg)
	for _, k := range candidates[1:] {
		el := expectedLoss(k, cand, cfg)
		if el < bestEL {
			best, bestEL = k, el
		}
	}

	target := TargetIdentity{PID: cand.Record.PID, StartID: cand.Record.StartID}
	action := materialize(best)
	return PlannedStep{
		Target:        target,
		Action:        action,
		Rationale:     rationale(cand, best),
		ExpectedLoss:  bestEL,
		BlastSeverity: cand.Impact.Severity,
	}
}

func proposedActionKind(cand ProcessCandidate, cfg config.DecisionConfig) ActionKind {
	key := string(cand.Classification.Class) + "/" + string(cand.Impact.Severity)
	if name, ok := cfg.DecisionTable[key]; ok {
		return ActionKind(name)
	}
	return ActionNoOp
}

// candidateChain returns every feasible action at or below proposed in
// FallbackChain (from the head of the chain when proposed is not in it),
// in chain order, always keeping NoOp as the last-resort entry so the
// chain is never empty (spec §4.F step 2: "downgrade per fallback chain").
func candidateChain(proposed ActionKind, feas ActionFeasibility) []ActionKind {
	startIdx := 0
	for i, k := range FallbackChain {
		if k == proposed {
			startIdx = i
			break
		}
	}
	var chain []ActionKind
	for i := startIdx; i < len(FallbackChain); i++ {
		k := FallbackChain[i]
		if k == ActionNoOp || feas.Feasible(k) {
			chain = append(chain, k)
		}
	}
	if len(chain) == 0 {
		chain = []ActionKind{ActionNoOp}
	}
	return chain
}

// expectedLoss implements spec §4.F step 3: EL = P(wrong)*cost_wrong -
// (1-P(wrong))*benefit, with P(wrong) derived from the classification
// margin.
func expectedLoss(kind ActionKind, cand ProcessCandidate, cfg config.DecisionConfig) float64 {
	cost, ok := cfg.ActionCosts[string(kind)]
	if !ok {
		cost = config.ActionCost{}
	}
	pWrong := cand.Classification.PWrong()
	return pWrong*cost.CostWrong - (1-pWrong)*cost.Benefit
}

func materialize(kind ActionKind) Action {
	switch kind {
	case ActionKill:
		return Action{Kind: ActionKill, Signal: sigTerm}
	case ActionPause:
		return Action{Kind: ActionPause}
	case ActionRenice:
		return Action{Kind: ActionRenice, ReniceDelta: 10}
	case ActionCgroupAdjust:
		return Action{Kind: ActionCgroupAdjust}
	default:
		return Action{Kind: ActionNoOp, Reason: "no feasible remediation below threshold"}
	}
}

func rationale(cand ProcessCandidate, kind ActionKind) string {
	if kind == ActionNoOp {
		return "classified " + string(cand.Classification.Class) + "; no action warranted or none feasible"
	}
	return "classified " + string(cand.Classification.Class) + " with " + string(cand.Impact.Severity) + " blast-radius severity"
}

// CompareForTieBreak orders two planned steps per spec §4.F step 4: higher
// blast-radius severity first, then lower start_id (pid, then boot epoch).
func CompareForTieBreak(a, b PlannedStep) bool {
	if a.BlastSeverity.Rank() != b.BlastSeverity.Rank() {
		return a.BlastSeverity.Rank() > b.BlastSeverity.Rank()
	}
	if a.Target.StartID.PID != b.Target.StartID.PID {
		return a.Target.StartID.PID < b.Target.StartID.PID
	}
	return a.Target.StartID.BootEpoch < b.Target.StartID.BootEpoch
}
