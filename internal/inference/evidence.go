// Package inference computes per-class log-posteriors over a
// ProcessRecord's observed Evidence, and the explanatory ledger of
// per-feature Bayes factors behind each classification.
package inference

import "github.com/processtriage/triage/internal/model"

// CpuEvidence pins the CPU evidence term's semantics (spec §4.C "CPU term
// example"): utilization as a fraction of one logical core's worth of
// attention budget, plus two derived presence flags.
type CpuEvidence struct {
	Utilization float64
	Steady      bool
	Growing     bool
}

// MemEvidence is RSS expressed as a fraction of a configured ceiling.
type MemEvidence struct {
	Utilization float64
}

// IoEvidence is combined read+write throughput in bytes/sec, modeled as a
// Gamma-distributed rate.
type IoEvidence struct {
	BytesPerSec float64
}

// LifetimeEvidence carries uptime (Gamma-distributed) and whether the
// process has transitioned state recently (Bernoulli).
type LifetimeEvidence struct {
	UptimeSeconds float64
	Transitioned  bool
}

// SupervisorEvidence is the observed supervisor level, modeled as a
// categorical/Bernoulli indicator per class.
type SupervisorEvidence struct {
	Level model.SupervisorLevel
}

// CgroupEvidence indicates whether the process's cgroup is throttled.
type CgroupEvidence struct {
	Throttled bool
}

// Evidence is the full set of terms derived from one ProcessRecord. A zero
// value for any optional term (e.g. no cgroup info) is represented by a
// nil pointer so its term is skipped rather than scored against a
// fabricated zero observation.
type Evidence struct {
	CPU        CpuEvidence
	Mem        MemEvidence
	Io         IoEvidence
	Lifetime   LifetimeEvidence
	Supervisor SupervisorEvidence
	Cgroup     *CgroupEvidence
}

// Ceilings configures the denominators used to fold unbounded observations
// (CPU cores consumed, RSS bytes) into the [0,1] ratios the Beta family
// scores. Chosen per-host rather than hardcoded, since "one core's worth
// of attention" means something different on a 2-core VM than a 64-core
// server.
type Ceilings struct {
	CPUCores  float64
	RSSBytes  uint64
}

// DefaultCeilings returns a reasonable general-purpose default: 8 logical
// cores and 1 GiB RSS, clamped at the caller's discretion for specific
// hosts.
func DefaultCeilings() Ceilings {
	return Ceilings{CPUCores: 8.0, RSSBytes: 1 << 30}
}

// clampUnit folds a ratio into (epsilon, 1-epsilon) so it never lands
// exactly on a Beta density's boundary singularity.
func clampUnit(ratio float64) float64 {
	const eps = 1e-6
	if ratio < eps {
		return eps
	}
	if ratio > 1-eps {
		return 1 - eps
	}
	return ratio
}

// DeriveEvidence builds an Evidence set from a raw ProcessRecord, folding
// CPU and memory usage into Beta-compatible [0,1] ratios via ceilings.
func DeriveEvidence(r model.ProcessRecord, ceilings Ceilings) Evidence {
	ev := Evidence{
		CPU: CpuEvidence{
			Utilization: clampUnit(r.CPUUsageEWMA / ceilings.CPUCores),
			Steady:      isSteady(r),
			Growing:     isGrowing(r),
		},
		Mem: MemEvidence{Utilization: clampUnit(float64(r.RSSBytes) / float64(ceilings.RSSBytes))},
		Io:  IoEvidence{BytesPerSec: float64(r.IOReadBps) + float64(r.IOWriteBps)},
		Lifetime: LifetimeEvidence{
			UptimeSeconds: r.Uptime.Seconds(),
			Transitioned:  false,
		},
		Supervisor: SupervisorEvidence{Level: r.SupervisorLevel},
	}
	if r.CgroupPath != "" {
		ev.Cgroup = &CgroupEvidence{Throttled: false}
	}
	return ev
}

// isSteady reports whether CPU usage looks like a sustained plateau rather
// than a transient spike. The collector only hands us an EWMA, so this is
// a coarse heuristic pinned to a fixed threshold rather than a second
// moment we do not track.
func isSteady(r model.ProcessRecord) bool {
	return r.CPUUsageEWMA > 0.5 && r.State == model.StateRunning
}

func isGrowing(r model.ProcessRecord) bool {
	return r.CPUUsageEWMA > 1.0
}
