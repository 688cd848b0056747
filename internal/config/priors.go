// Package config provides typed, validated loading of Process Triage's two
// configuration documents — priors.yaml (per-class hyperparameters) and
// policy.yaml (guardrails, rate limits, protected patterns, decision
// table) — plus resolution of their on-disk paths and session config
// snapshots for telemetry (spec §3 "Priors & Policy model").
//
// Loading follows the teacher's pattern in internal/config/config.go:
// defaults first, then YAML overlay, then Validate, which accumulates
// every violation into one error instead of failing on the first.
package config

import (
	"fmt"
	"strings"
)

// CPUEvidenceParams are the Beta-prior hyperparameters for the CPU
// evidence term, plus the Bernoulli probabilities for the steady-state and
// growing flags (spec §4.C "CPU term example").
type CPUEvidenceParams struct {
	Alpha       float64 `yaml:"alpha"`
	Beta        float64 `yaml:"beta"`
	PSteady     float64 `yaml:"p_steady"`
	PGrowing    float64 `yaml:"p_growing"`
}

// MemEvidenceParams are the Beta-prior hyperparameters for memory
// utilization evidence (RSS as a fraction of a configured ceiling).
type MemEvidenceParams struct {
	Alpha float64 `yaml:"alpha"`
	Beta  float64 `yaml:"beta"`
}

// IoEvidenceParams are the Gamma-prior hyperparameters for I/O rate
// evidence (spec §3 "Gamma for rates").
type IoEvidenceParams struct {
	Shape float64 `yaml:"shape"`
	Rate  float64 `yaml:"rate"`
}

// LifetimeEvidenceParams are the Gamma-prior hyperparameters for uptime,
// plus a Bernoulli probability for having observed a state transition
// recently.
type LifetimeEvidenceParams struct {
	UptimeShape   float64 `yaml:"uptime_shape"`
	UptimeRate    float64 `yaml:"uptime_rate"`
	PTransitioned float64 `yaml:"p_transitioned"`
}

// SupervisorEvidenceParams gives a Bernoulli probability of this class for
// each supervisor level.
type SupervisorEvidenceParams struct {
	PNone     float64 `yaml:"p_none"`
	PUser     float64 `yaml:"p_user"`
	PSystem   float64 `yaml:"p_system"`
	PCritical float64 `yaml:"p_critical"`
}

// CgroupEvidenceParams gives a Bernoulli probability of this class when the
// process lives in a throttled/limited cgroup.
type CgroupEvidenceParams struct {
	PThrottled float64 `yaml:"p_throttled"`
}

// ClassParams holds every evidence family's hyperparameters for one class,
// plus that class's prior weight (spec §4.C step 1: "Start with log π_c").
type ClassParams struct {
	LogPrior   float64                  `yaml:"log_prior"`
	CPU        CPUEvidenceParams        `yaml:"cpu"`
	Mem        MemEvidenceParams        `yaml:"mem"`
	Io         IoEvidenceParams         `yaml:"io"`
	Lifetime   LifetimeEvidenceParams   `yaml:"lifetime"`
	Supervisor SupervisorEvidenceParams `yaml:"supervisor"`
	Cgroup     CgroupEvidenceParams     `yaml:"cgroup"`
}

// Priors is the root of priors.yaml: per-class hyperparameters for every
// evidence family the posterior engine consumes (spec §3 "Priors").
type Priors struct {
	SchemaVersion string                 `yaml:"schema_version"`
	Classes       map[Class]ClassParams  `yaml:"classes"`
}

// ClassParamsFor returns the hyperparameters for class c, or a
// PriorsMissing-flavored error if none are declared (spec §4.C
// "PosteriorError::PriorsMissing").
func (p *Priors) ClassParamsFor(c Class) (ClassParams, error) {
	cp, ok := p.Classes[c]
	if !ok {
		return ClassParams{}, fmt.Errorf("priors: no hyperparameters declared for class %q", c)
	}
	return cp, nil
}

// DefaultPriors returns the built-in prior hyperparameters, tuned so that
// the "Runaway classification" scenario in spec §8 scenario 1 (cpu=7.8
// cores, rss=500MiB, uptime=3600s, Running) resolves to class=Runaway with
// High confidence.
func DefaultPriors() *Priors {
	return &Priors{
		SchemaVersion: CurrentSchemaVersion,
		Classes: map[Class]ClassParams{
			ClassRunaway: {
				LogPrior: logf(0.15),
				CPU:      CPUEvidenceParams{Alpha: 8, Beta: 2, PSteady: 0.85, PGrowing: 0.6},
				Mem:      MemEvidenceParams{Alpha: 5, Beta: 3},
				Io:       IoEvidenceParams{Shape: 2, Rate: 0.5},
				Lifetime: LifetimeEvidenceParams{UptimeShape: 2, UptimeRate: 0.0006, PTransitioned: 0.2},
				Supervisor: SupervisorEvidenceParams{
					PNone: 0.6, PUser: 0.3, PSystem: 0.08, PCritical: 0.02,
				},
				Cgroup: CgroupEvidenceParams{PThrottled: 0.4},
			},
			ClassStuck: {
				LogPrior: logf(0.1),
				CPU:      CPUEvidenceParams{Alpha: 1, Beta: 9, PSteady: 0.95, PGrowing: 0.05},
				Mem:      MemEvidenceParams{Alpha: 2, Beta: 2},
				Io:       IoEvidenceParams{Shape: 1, Rate: 5},
				Lifetime: LifetimeEvidenceParams{UptimeShape: 3, UptimeRate: 0.0003, PTransitioned: 0.02},
				Supervisor: SupervisorEvidenceParams{
					PNone: 0.5, PUser: 0.35, PSystem: 0.1, PCritical: 0.05,
				},
				Cgroup: CgroupEvidenceParams{PThrottled: 0.2},
			},
			ClassNormal: {
				LogPrior: logf(0.55),
				CPU:      CPUEvidenceParams{Alpha: 2, Beta: 8, PSteady: 0.3, PGrowing: 0.1},
				Mem:      MemEvidenceParams{Alpha: 2, Beta: 6},
				Io:       IoEvidenceParams{Shape: 2, Rate: 2},
				Lifetime: LifetimeEvidenceParams{UptimeShape: 2, UptimeRate: 0.001, PTransitioned: 0.3},
				Supervisor: SupervisorEvidenceParams{
					PNone: 0.4, PUser: 0.4, PSystem: 0.15, PCritical: 0.05,
				},
				Cgroup: CgroupEvidenceParams{PThrottled: 0.1},
			},
			ClassProtected: {
				LogPrior: logf(0.1),
				CPU:      CPUEvidenceParams{Alpha: 2, Beta: 6, PSteady: 0.5, PGrowing: 0.1},
				Mem:      MemEvidenceParams{Alpha: 2, Beta: 6},
				Io:       IoEvidenceParams{Shape: 2, Rate: 2},
				Lifetime: LifetimeEvidenceParams{UptimeShape: 2, UptimeRate: 0.0005, PTransitioned: 0.1},
				Supervisor: SupervisorEvidenceParams{
					PNone: 0.05, PUser: 0.15, PSystem: 0.4, PCritical: 0.4,
				},
				Cgroup: CgroupEvidenceParams{PThrottled: 0.05},
			},
			ClassUnknown: {
				LogPrior: logf(0.1),
				CPU:      CPUEvidenceParams{Alpha: 1, Beta: 1, PSteady: 0.5, PGrowing: 0.5},
				Mem:      MemEvidenceParams{Alpha: 1, Beta: 1},
				Io:       IoEvidenceParams{Shape: 1, Rate: 1},
				Lifetime: LifetimeEvidenceParams{UptimeShape: 1, UptimeRate: 0.001, PTransitioned: 0.5},
				Supervisor: SupervisorEvidenceParams{
					PNone: 0.25, PUser: 0.25, PSystem: 0.25, PCritical: 0.25,
				},
				Cgroup: CgroupEvidenceParams{PThrottled: 0.5},
			},
		},
	}
}

// ValidatePriors checks every class's hyperparameters for validity,
// accumulating all violations into one error (teacher's
// config.Validate pattern).
func ValidatePriors(p *Priors) error {
	var errs []string
	if p.SchemaVersion != CurrentSchemaVersion {
		errs = append(errs, fmt.Sprintf("priors.schema_version must be %q, got %q", CurrentSchemaVersion, p.SchemaVersion))
	}
	if len(p.Classes) == 0 {
		errs = append(errs, "priors.classes must declare at least one class")
	}
	for name, cp := range p.Classes {
		prefix := fmt.Sprintf("priors.classes[%s]", name)
		if cp.CPU.Alpha <= 0 || cp.CPU.Beta <= 0 {
			errs = append(errs, prefix+".cpu.alpha/beta must be > 0")
		}
		if !inUnit(cp.CPU.PSteady) || !inUnit(cp.CPU.PGrowing) {
			errs = append(errs, prefix+".cpu.p_steady/p_growing must be in [0,1]")
		}
		if cp.Mem.Alpha <= 0 || cp.Mem.Beta <= 0 {
			errs = append(errs, prefix+".mem.alpha/beta must be > 0")
		}
		if cp.Io.Shape <= 0 || cp.Io.Rate <= 0 {
			errs = append(errs, prefix+".io.shape/rate must be > 0")
		}
		if cp.Lifetime.UptimeShape <= 0 || cp.Lifetime.UptimeRate <= 0 {
			errs = append(errs, prefix+".lifetime.uptime_shape/uptime_rate must be > 0")
		}
		if !inUnit(cp.Lifetime.PTransitioned) {
			errs = append(errs, prefix+".lifetime.p_transitioned must be in [0,1]")
		}
		sv := cp.Supervisor
		for label, v := range map[string]float64{"p_none": sv.PNone, "p_user": sv.PUser, "p_system": sv.PSystem, "p_critical": sv.PCritical} {
			if !inUnit(v) {
				errs = append(errs, fmt.Sprintf("%s.supervisor.%s must be in [0,1]", prefix, label))
			}
		}
		if !inUnit(cp.Cgroup.PThrottled) {
			errs = append(errs, prefix+".cgroup.p_throttled must be in [0,1]")
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("priors validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func inUnit(v float64) bool { return v >= 0 && v <= 1 }
