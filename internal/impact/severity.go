package impact

import "github.com/processtriage/triage/internal/model"

// Severity is the coarse-grained impact tier a process's blast radius is
// bucketed into (spec §4.E "Impact severity").
type Severity string

const (
	SeverityLow      Severity = "Low"
	SeverityMedium   Severity = "Medium"
	SeverityHigh     Severity = "High"
	SeverityCritical Severity = "Critical"
)

// Rank gives Severity a total order for tie-breaking (spec §4.F step 4:
// "higher blast-radius severity first").
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	default:
		return 0
	}
}

// Thresholds are the policy-declared breakpoints the piecewise scoring
// function in Score uses (spec §4.E "policy-declared piecewise scoring
// function").
type Thresholds struct {
	CPUHigh        float64 // aggregate logical cores
	CPUMedium      float64
	RSSHigh        uint64 // aggregate bytes
	RSSMedium      uint64
	DescendantHigh int
	DescendantMedium int
	HardCap        int // descendant_count >= this forces Critical
}

// DefaultThresholds returns the built-in piecewise breakpoints.
func DefaultThresholds() Thresholds {
	return Thresholds{
		CPUHigh:          4.0,
		CPUMedium:        1.0,
		RSSHigh:          2 << 30,
		RSSMedium:        256 << 20,
		DescendantHigh:   20,
		DescendantMedium: 5,
		HardCap:          1000,
	}
}

// Components is the input tuple to the severity scoring function (spec
// §4.E "(aggregate_cpu, aggregate_rss, descendant_count,
// max_supervisor_level)").
type Components struct {
	AggregateCPU       float64
	AggregateRSS       uint64
	DescendantCount    int
	MaxSupervisorLevel model.SupervisorLevel
}

// Score computes the piecewise severity. Critical is forced when any
// descendant has SupervisorCritical or the descendant count meets the
// hard cap, overriding the resource-based tiers (spec §4.E).
func Score(c Components, th Thresholds) Severity {
	if c.MaxSupervisorLevel == model.SupervisorCritical || c.DescendantCount >= th.HardCap {
		return SeverityCritical
	}
	tier := 0
	if c.AggregateCPU >= th.CPUHigh || c.AggregateRSS >= th.RSSHigh || c.DescendantCount >= th.DescendantHigh {
		tier = 2
	} else if c.AggregateCPU >= th.CPUMedium || c.AggregateRSS >= th.RSSMedium || c.DescendantCount >= th.DescendantMedium {
		tier = 1
	}
	switch tier {
	case 2:
		return SeverityHigh
	case 1:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// ImpactComponents is the renderer-facing summary of an impact computation
// for one target (spec §3 "ImpactComponents{severity, blast_radius,
// supervisor_level}").
type ImpactComponents struct {
	Severity        Severity
	BlastRadius     int
	SupervisorLevel model.SupervisorLevel
	Aggregate       Aggregate
}

// Compute runs the full pipeline for one target pid against idx: descendant
// enumeration, aggregation, and severity scoring.
func Compute(idx *ChildIndex, targetPID int32, th Thresholds) ImpactComponents {
	descendants := idx.Descendants(targetPID)
	agg := AggregateDescendants(descendants)
	sev := Score(Components{
		AggregateCPU:       agg.AggregateCPU,
		AggregateRSS:       agg.AggregateRSS,
		DescendantCount:    agg.DescendantCount,
		MaxSupervisorLevel: agg.MaxSupervisorLevel,
	}, th)
	return ImpactComponents{
		Severity:        sev,
		BlastRadius:     agg.DescendantCount,
		SupervisorLevel: agg.MaxSupervisorLevel,
		Aggregate:       agg,
	}
}
