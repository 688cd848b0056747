package policy

import (
	"sync"
	"time"

	"github.com/processtriage/triage/internal/alphainvest"
	"github.com/processtriage/triage/internal/config"
	"github.com/processtriage/triage/internal/decision"
	"github.com/processtriage/triage/internal/ratelimit"
)

// ViolationKind names which of the five ordered checks rejected a step
// (spec §4.G).
type ViolationKind string

const (
	ViolationProtected    ViolationKind = "Protected"
	ViolationBlastRadius  ViolationKind = "BlastRadius"
	ViolationMaxKills     ViolationKind = "MaxKillsPerSession"
	ViolationRateLimit    ViolationKind = "RateLimit"
	ViolationFDRRejected  ViolationKind = "FDRRejected"
)

// Violation is a structured rejection (spec §4.G "Each rejection produces
// a ViolationKind and a structured log line").
type Violation struct {
	Kind              ViolationKind
	Detail            string
	DescendantCount   int // populated for ViolationBlastRadius
}

// Enforcer applies the five ordered checks of spec §4.G to a planned step
// before it reaches the executor. Rate-limit and alpha-investing state
// are serialized through the Enforcer's single mutex (spec §5 "policy
// checks are serialized through the enforcer: single mutex around
// rate-limit + alpha-investing state").
type Enforcer struct {
	mu sync.Mutex

	patterns []CompiledPattern
	policy   *config.Policy

	limiters map[string]*ratelimit.Limiter // keyed by action kind
	alpha    *alphainvest.Policy

	sessionKills       int
	sessionBlastRadius int
}

// NewEnforcer builds an Enforcer from a loaded policy, one rate limiter
// per action kind (all sharing the configured windows), and an
// alpha-investing policy.
func NewEnforcer(p *config.Policy, alpha *alphainvest.Policy) (*Enforcer, error) {
	patterns, err := CompilePatterns(p.ProtectedPatterns)
	if err != nil {
		return nil, err
	}
	return &Enforcer{
		patterns: patterns,
		policy:   p,
		limiters: make(map[string]*ratelimit.Limiter),
		alpha:    alpha,
	}, nil
}

func (e *Enforcer) limiterFor(actionKind string) *ratelimit.Limiter {
	if l, ok := e.limiters[actionKind]; ok {
		return l
	}
	windows := map[ratelimit.WindowName]ratelimit.WindowConfig{
		ratelimit.WindowRun:    {Duration: e.policy.RateLimit.Run.Duration, Limit: e.policy.RateLimit.Run.Limit},
		ratelimit.WindowMinute: {Duration: e.policy.RateLimit.Minute.Duration, Limit: e.policy.RateLimit.Minute.Limit},
		ratelimit.WindowHour:   {Duration: e.policy.RateLimit.Hour.Duration, Limit: e.policy.RateLimit.Hour.Limit},
		ratelimit.WindowDay:    {Duration: e.policy.RateLimit.Day.Duration, Limit: e.policy.RateLimit.Day.Limit},
	}
	l := ratelimit.NewLimiter(windows, e.policy.RateLimit.WarnUtilization)
	e.limiters[actionKind] = l
	return l
}

// EnforceInput is the subset of decision/impact output the enforcer
// needs, kept narrow so policy does not import inference/impact directly
// for anything beyond what decision already re-exports.
type EnforceInput struct {
	Step            decision.PlannedStep
	Command         string
	DescendantCount int
	PWrong          float64 // posterior probability this classification is wrong
	Force           bool
	Now             time.Time
}

// EnforceResult is Enforce's outcome: either admitted, or rejected with a
// Violation.
type EnforceResult struct {
	Admitted  bool
	Violation *Violation
}

// Enforce runs the five checks in order against one planned step. force,
// if the policy allows it, bypasses checks 1-4 but never check 5 (spec
// §4.G "force override ... bypasses checks 1-4 but never 5").
func (e *Enforcer) Enforce(in EnforceInput) EnforceResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	bypassable := in.Force && e.policy.AllowForce

	if !bypassable {
		if AnyMatches(e.patterns, in.Command) {
			return reject(ViolationProtected, "command matches a protected pattern")
		}
	}

	if !bypassable {
		if in.DescendantCount > e.policy.MaxBlastRadius {
			return EnforceResult{Violation: &Violation{
				Kind: ViolationBlastRadius, DescendantCount: in.DescendantCount,
				Detail: "descendant_count exceeds max_blast_radius",
			}}
		}
		if e.sessionBlastRadius+in.DescendantCount > e.policy.MaxTotalBlastRadius {
			return EnforceResult{Violation: &Violation{
				Kind: ViolationBlastRadius, DescendantCount: in.DescendantCount,
				Detail: "cumulative session blast radius exceeds max_total_blast_radius",
			}}
		}
	}

	if !bypassable && in.Step.Action.Kind == "kill" {
		if e.sessionKills+1 > e.policy.MaxKillsPerSession {
			return reject(ViolationMaxKills, "would exceed max_kills_per_session")
		}
	}

	if !bypassable {
		limiter := e.limiterFor(string(in.Step.Action.Kind))
		d := limiter.CheckAndRecord(in.Now)
		if !d.Admitted {
			return reject(ViolationRateLimit, "rate limit window "+string(d.Saturated)+" saturated")
		}
	}

	// Alpha-investing / FDR gate: never bypassed by force.
	pValue := in.PWrong
	accepted, _ := e.alpha.Evaluate(pValue)
	if !accepted {
		return reject(ViolationFDRRejected, "alpha-investing gate rejected at current wealth")
	}

	e.sessionBlastRadius += in.DescendantCount
	if in.Step.Action.Kind == "kill" {
		e.sessionKills++
	}
	return EnforceResult{Admitted: true}
}

func reject(kind ViolationKind, detail string) EnforceResult {
	return EnforceResult{Violation: &Violation{Kind: kind, Detail: detail}}
}
