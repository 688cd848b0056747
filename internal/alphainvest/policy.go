// Package alphainvest implements the alpha-investing sequential
// false-discovery-rate gate used as the policy enforcer's final check
// (spec §4.G.5), plus a Benjamini-Hochberg batch-mode alternative.
package alphainvest

import "math"

// minWealthDenom guards the alpha/(1-alpha) reward term against a
// division blowup in the pathological case alpha >= 1.
const minWealthDenom = 1e-6

// Policy tracks the running wealth and step counter of an alpha-investing
// process (spec §3 "AlphaInvestingState. Running wealth w, step counter,
// list of recent p-values and their reward contributions").
type Policy struct {
	Wealth    float64
	Step      int
	Gamma     float64
	History   []Record
	BootEpoch int64 // unix seconds of the boot this wealth was last persisted under
}

// Record is one decision's p-value and whether it was accepted, kept for
// audit/telemetry.
type Record struct {
	Step    int
	PValue  float64
	Alpha   float64
	Accepted bool
}

// NewPolicy starts a fresh alpha-investing process with the given initial
// wealth and gamma (spec §4.G.5 "α_j = γ / (1-γ)^j * w_{j-1}").
func NewPolicy(initialWealth, gamma float64) *Policy {
	return &Policy{Wealth: initialWealth, Gamma: gamma}
}

// NewPolicyAtBoot starts a fresh alpha-investing process stamped with the
// current boot epoch, so a later Load can detect a reboot (spec §9 Open
// Question (b)).
func NewPolicyAtBoot(initialWealth, gamma float64, bootEpoch int64) *Policy {
	p := NewPolicy(initialWealth, gamma)
	p.BootEpoch = bootEpoch
	return p
}

// Evaluate spends wealth against pValue: computes α_j from the current
// step and wealth, accepts if pValue <= α_j, and updates wealth per the
// alpha-investing rule (reward on accept, debit on reject). Returns
// whether the decision is accepted and the α_j used.
func (p *Policy) Evaluate(pValue float64) (accepted bool, alpha float64) {
	p.Step++
	alpha = p.alphaForStep(p.Step)
	accepted = pValue <= alpha

	// Foster-Stine alpha-investing update: every decision spends alpha,
	// but an accepted decision earns a bonus of alpha/(1-alpha) on top,
	// netting a gain; a rejected decision just loses alpha (spec §4.G.5
	// "On reject, wealth decreases; on accept, it is credited").
	if accepted {
		denom := 1 - alpha
		if denom <= 0 {
			denom = minWealthDenom
		}
		p.Wealth += alpha/denom - alpha
	} else {
		p.Wealth -= alpha
	}
	if p.Wealth < 0 {
		p.Wealth = 0
	}
	p.History = append(p.History, Record{Step: p.Step, PValue: pValue, Alpha: alpha, Accepted: accepted})
	return accepted, alpha
}

func (p *Policy) alphaForStep(step int) float64 {
	if p.Wealth <= 0 {
		return 0
	}
	denom := math.Pow(1-p.Gamma, float64(step))
	if denom <= 0 {
		return 0
	}
	alpha := (p.Gamma / denom) * p.Wealth
	if alpha > p.Wealth {
		alpha = p.Wealth
	}
	return alpha
}
