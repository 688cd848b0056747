package config

import (
	"fmt"
	"strings"
	"time"
)

// PatternKind selects how a protected-pattern matcher compares a command
// name against its pattern (spec §4.G.1).
type PatternKind string

const (
	PatternLiteral PatternKind = "literal"
	PatternGlob    PatternKind = "glob"
	PatternRegex   PatternKind = "regex"
)

// ProtectedPattern is one entry in the protected-command allowlist. A
// process whose command matches is rejected by the enforcer's first
// check; --force (where the policy allows it) bypasses that check, but
// never the alpha-investing check.
type ProtectedPattern struct {
	Kind    PatternKind `yaml:"kind"`
	Pattern string      `yaml:"pattern"`
}

// RateLimitWindowConfig configures one sliding window of the rate limiter.
type RateLimitWindowConfig struct {
	Duration time.Duration `yaml:"duration"`
	Limit    int           `yaml:"limit"`
}

// RateLimitConfig configures the four standard windows (spec §3
// "RateLimitState ... run, minute, hour, day").
type RateLimitConfig struct {
	Run    RateLimitWindowConfig `yaml:"run"`
	Minute RateLimitWindowConfig `yaml:"minute"`
	Hour   RateLimitWindowConfig `yaml:"hour"`
	Day    RateLimitWindowConfig `yaml:"day"`

	// WarnUtilization is the fraction of a window's limit at which a
	// warning (not a rejection) is surfaced (spec §4.G.4, default 0.8).
	WarnUtilization float64 `yaml:"warn_utilization"`
}

// Windows returns the four windows in a stable, named order.
func (r RateLimitConfig) Windows() []struct {
	Name string
	Cfg  RateLimitWindowConfig
} {
	return []struct {
		Name string
		Cfg  RateLimitWindowConfig
	}{
		{"run", r.Run},
		{"minute", r.Minute},
		{"hour", r.Hour},
		{"day", r.Day},
	}
}

// AlphaInvestingConfig configures the sequential FDR gate (spec §4.G.5).
type AlphaInvestingConfig struct {
	// InitialWealth is w_0.
	InitialWealth float64 `yaml:"initial_wealth"`
	// Gamma is γ in α_j = γ/(1-γ)^j * w_{j-1}.
	Gamma float64 `yaml:"gamma"`
	// ResetOnReboot resolves spec §9 Open Question (b): whether wealth
	// persists across machine reboots. Default false (persists).
	ResetOnReboot bool `yaml:"reset_on_reboot"`
}

// ConfidenceBands are the default score-margin thresholds for Low/Medium/
// High confidence (spec §3 "Classification"), centralizing spec §9 Open
// Question (a).
type ConfidenceBands struct {
	High   float64 `yaml:"high"`
	Medium float64 `yaml:"medium"`
}

// ActionCost gives the expected-loss cost/benefit pair for one action kind,
// used by the decision engine's EL tie-break (spec §4.F step 3).
type ActionCost struct {
	CostWrong float64 `yaml:"cost_wrong"`
	Benefit   float64 `yaml:"benefit"`
}

// DecisionConfig centralizes every numeric input the decision engine needs
// that spec §9 Open Question (a) says should live in one place rather than
// be scattered across call sites: confidence bands, and the cost/benefit
// table for expected-loss tie-breaking, keyed by action kind name
// ("kill", "pause", "renice", "cgroup_adjust", "no_op").
type DecisionConfig struct {
	ConfidenceBands ConfidenceBands        `yaml:"confidence_bands"`
	ActionCosts     map[string]ActionCost  `yaml:"action_costs"`
	// DecisionTable maps "<class>/<severity>" to a proposed action kind,
	// e.g. "runaway/High" -> "kill" (spec §4.F step 1).
	DecisionTable map[string]string `yaml:"decision_table"`
}

// RetryPolicy configures action-executor retry/backoff (spec §4.F
// "Recovery planning").
type RetryPolicy struct {
	BackoffBase time.Duration `yaml:"backoff_base"`
	JitterFrac  float64       `yaml:"jitter_frac"`
	BackoffCap  time.Duration `yaml:"backoff_cap"`
	MaxRetries  int           `yaml:"max_retries"`
}

// Policy is the root of policy.yaml: guardrails, rate limits, protected
// patterns, the decision table, and FDR control (spec §3 "Policy").
type Policy struct {
	SchemaVersion string `yaml:"schema_version"`

	ProtectedPatterns []ProtectedPattern `yaml:"protected_patterns"`

	MaxBlastRadius      int `yaml:"max_blast_radius"`
	MaxTotalBlastRadius int `yaml:"max_total_blast_radius"`
	BlastRadiusHardCap  int `yaml:"blast_radius_hard_cap"`
	MaxKillsPerSession  int `yaml:"max_kills_per_session"`

	RateLimit      RateLimitConfig      `yaml:"rate_limit"`
	AlphaInvesting AlphaInvestingConfig `yaml:"alpha_investing"`
	Decision       DecisionConfig       `yaml:"decision"`
	Retry          RetryPolicy          `yaml:"retry"`

	VerificationTimeout time.Duration `yaml:"verification_timeout"`
	MaxPlanDuration     time.Duration `yaml:"max_plan_duration"`
	MaxApplyDuration    time.Duration `yaml:"max_apply_duration"`
	MaxParallelActions  int           `yaml:"max_parallel_actions"`

	// AllowForce controls whether the CLI's --force flag is honored at
	// all; when false, force is rejected outright regardless of flag
	// (spec §4.G "force override, if policy allows").
	AllowForce bool `yaml:"allow_force"`
}

// DefaultPolicy returns the built-in policy, tuned so that the end-to-end
// scenarios in spec §8 (sshd protected, 200-descendant blast radius
// rejection at max_blast_radius=50, per-minute limit=2) resolve as
// specified.
func DefaultPolicy() *Policy {
	return &Policy{
		SchemaVersion: CurrentSchemaVersion,
		ProtectedPatterns: []ProtectedPattern{
			{Kind: PatternLiteral, Pattern: "sshd"},
			{Kind: PatternLiteral, Pattern: "systemd"},
			{Kind: PatternLiteral, Pattern: "init"},
			{Kind: PatternGlob, Pattern: "kube*"},
		},
		MaxBlastRadius:      50,
		MaxTotalBlastRadius: 500,
		BlastRadiusHardCap:  1000,
		MaxKillsPerSession:  10,
		RateLimit: RateLimitConfig{
			Run:             RateLimitWindowConfig{Duration: 0, Limit: 5},
			Minute:          RateLimitWindowConfig{Duration: time.Minute, Limit: 2},
			Hour:            RateLimitWindowConfig{Duration: time.Hour, Limit: 20},
			Day:             RateLimitWindowConfig{Duration: 24 * time.Hour, Limit: 100},
			WarnUtilization: 0.8,
		},
		AlphaInvesting: AlphaInvestingConfig{
			InitialWealth: 0.05,
			Gamma:         0.5,
			ResetOnReboot: false,
		},
		Decision: DecisionConfig{
			ConfidenceBands: ConfidenceBands{High: 2.0, Medium: 0.5},
			ActionCosts: map[string]ActionCost{
				"kill":          {CostWrong: 10, Benefit: 3},
				"pause":         {CostWrong: 4, Benefit: 2},
				"renice":        {CostWrong: 1, Benefit: 1},
				"cgroup_adjust": {CostWrong: 2, Benefit: 1.5},
				"no_op":         {CostWrong: 0, Benefit: 0},
			},
			DecisionTable: defaultDecisionTable(),
		},
		Retry: RetryPolicy{
			BackoffBase: 100 * time.Millisecond,
			JitterFrac:  0.25,
			BackoffCap:  30 * time.Second,
			MaxRetries:  3,
		},
		VerificationTimeout: 5 * time.Second,
		MaxPlanDuration:     30 * time.Second,
		MaxApplyDuration:    120 * time.Second,
		MaxParallelActions:  4,
		AllowForce:          true,
	}
}

func defaultDecisionTable() map[string]string {
	t := map[string]string{}
	for _, sev := range []string{"Low", "Medium", "High", "Critical"} {
		t[string(ClassRunaway)+"/"+sev] = "renice"
		t[string(ClassStuck)+"/"+sev] = "pause"
		t[string(ClassNormal)+"/"+sev] = "no_op"
		t[string(ClassProtected)+"/"+sev] = "no_op"
		t[string(ClassUnknown)+"/"+sev] = "no_op"
	}
	// Escalate runaway/stuck at the top two severities, matching the
	// spec §8 scenario 1 expectation that a high-confidence Runaway with
	// heavy resource use is actioned more aggressively than a mild one.
	t[string(ClassRunaway)+"/High"] = "kill"
	t[string(ClassRunaway)+"/Critical"] = "kill"
	t[string(ClassStuck)+"/High"] = "kill"
	t[string(ClassStuck)+"/Critical"] = "kill"
	return t
}

// ValidatePolicy checks policy.yaml for correctness, accumulating every
// violation (teacher's config.Validate pattern).
func ValidatePolicy(p *Policy) error {
	var errs []string
	if p.SchemaVersion != CurrentSchemaVersion {
		errs = append(errs, fmt.Sprintf("policy.schema_version must be %q, got %q", CurrentSchemaVersion, p.SchemaVersion))
	}
	for i, pp := range p.ProtectedPatterns {
		if pp.Pattern == "" {
			errs = append(errs, fmt.Sprintf("protected_patterns[%d].pattern must not be empty", i))
		}
		switch pp.Kind {
		case PatternLiteral, PatternGlob, PatternRegex:
		default:
			errs = append(errs, fmt.Sprintf("protected_patterns[%d].kind %q is not one of literal/glob/regex", i, pp.Kind))
		}
	}
	if p.MaxBlastRadius < 0 {
		errs = append(errs, "max_blast_radius must be >= 0")
	}
	if p.MaxTotalBlastRadius < p.MaxBlastRadius {
		errs = append(errs, "max_total_blast_radius must be >= max_blast_radius")
	}
	if p.BlastRadiusHardCap <= 0 {
		errs = append(errs, "blast_radius_hard_cap must be > 0")
	}
	if p.MaxKillsPerSession < 0 {
		errs = append(errs, "max_kills_per_session must be >= 0")
	}
	for _, w := range p.RateLimit.Windows() {
		if w.Cfg.Limit < 0 {
			errs = append(errs, fmt.Sprintf("rate_limit.%s.limit must be >= 0", w.Name))
		}
	}
	if !inUnit(p.RateLimit.WarnUtilization) {
		errs = append(errs, "rate_limit.warn_utilization must be in [0,1]")
	}
	if p.AlphaInvesting.InitialWealth <= 0 {
		errs = append(errs, "alpha_investing.initial_wealth must be > 0")
	}
	if !inUnit(p.AlphaInvesting.Gamma) || p.AlphaInvesting.Gamma == 0 {
		errs = append(errs, "alpha_investing.gamma must be in (0,1]")
	}
	if p.Decision.ConfidenceBands.High <= p.Decision.ConfidenceBands.Medium {
		errs = append(errs, "decision.confidence_bands.high must be > medium")
	}
	for kind, c := range p.Decision.ActionCosts {
		if c.CostWrong < 0 || c.Benefit < 0 {
			errs = append(errs, fmt.Sprintf("decision.action_costs[%s] must have non-negative cost_wrong/benefit", kind))
		}
	}
	if p.Retry.MaxRetries < 0 {
		errs = append(errs, "retry.max_retries must be >= 0")
	}
	if p.Retry.BackoffCap < p.Retry.BackoffBase {
		errs = append(errs, "retry.backoff_cap must be >= retry.backoff_base")
	}
	if !inUnit(p.Retry.JitterFrac) {
		errs = append(errs, "retry.jitter_frac must be in [0,1]")
	}
	if p.VerificationTimeout <= 0 {
		errs = append(errs, "verification_timeout must be > 0")
	}
	if p.MaxParallelActions < 1 {
		errs = append(errs, "max_parallel_actions must be >= 1")
	}
	if len(errs) > 0 {
		return fmt.Errorf("policy validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
