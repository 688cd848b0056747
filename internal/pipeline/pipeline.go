// Package pipeline wires the core components (spec §2 "Data flow:
// Collector → C (+B) → D → E → F → G → I") into the single call each CLI
// command needs, so cmd/triage stays thin cobra plumbing rather than a
// second home for business logic.
package pipeline

import (
	"github.com/processtriage/triage/internal/config"
	"github.com/processtriage/triage/internal/decision"
	"github.com/processtriage/triage/internal/impact"
	"github.com/processtriage/triage/internal/inference"
	"github.com/processtriage/triage/internal/model"
)

// Classified is one process carried through evidence derivation,
// posterior classification, and ledger attribution.
type Classified struct {
	Record         model.ProcessRecord
	Evidence       inference.Evidence
	Scores         inference.ClassScores
	Classification inference.Classification
	Ledger         []inference.BayesFactorEntry
}

// ClassifySnapshot runs §4.C/§4.D over every record in snap. A process
// whose posterior cannot be computed (PosteriorDomain) is classified
// Unknown/Low confidence and the session continues (spec §7).
func ClassifySnapshot(snap model.Snapshot, priors *config.Priors, bands config.ConfidenceBands, ceilings inference.Ceilings, ledgerK int) []Classified {
	out := make([]Classified, 0, len(snap.Records))
	for _, r := range snap.Records {
		ev := inference.DeriveEvidence(r, ceilings)
		scores, err := inference.ComputePosterior(ev, priors)
		var cls inference.Classification
		var ledger []inference.BayesFactorEntry
		if err != nil {
			cls = inference.Classification{Class: config.ClassUnknown, Confidence: inference.ConfidenceLow}
		} else {
			cls = inference.Classify(scores, bands)
			ledger, _ = inference.BuildLedger(ev, priors, cls.Class, ledgerK)
		}
		out = append(out, Classified{Record: r, Evidence: ev, Scores: scores, Classification: cls, Ledger: ledger})
	}
	return out
}

// BuildPlan runs §4.E/§4.F over every classified process: blast radius,
// impact severity, feasibility-gated action selection. Steps are sorted
// by decreasing expected utility with a deterministic start_id tie-break
// (spec §3 "Plan").
func BuildPlan(snap model.Snapshot, classified []Classified, feasibility map[int32]decision.ActionFeasibility, thresholds impact.Thresholds, decisionCfg config.DecisionConfig) decision.Plan {
	idx := impact.BuildChildIndex(snap)

	steps := make([]decision.PlannedStep, 0, len(classified))
	for _, c := range classified {
		imp := impact.Compute(idx, c.Record.PID, thresholds)
		feas := feasibility[c.Record.PID]
		cand := decision.ProcessCandidate{
			Record:         c.Record,
			Classification: c.Classification,
			Impact:         imp,
			Feasibility:    feas,
		}
		steps = append(steps, decision.DecideAction(cand, decisionCfg))
	}

	sortSteps(steps)
	return decision.Plan{Steps: steps}
}

func sortSteps(steps []decision.PlannedStep) {
	before := func(a, b decision.PlannedStep) bool {
		if a.ExpectedLoss != b.ExpectedLoss {
			return a.ExpectedLoss < b.ExpectedLoss
		}
		return decision.CompareForTieBreak(a, b)
	}
	for i := 1; i < len(steps); i++ {
		for j := i; j > 0 && before(steps[j], steps[j-1]); j-- {
			steps[j-1], steps[j] = steps[j], steps[j-1]
		}
	}
}
