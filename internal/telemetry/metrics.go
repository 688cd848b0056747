// Package telemetry is the Core → Telemetry boundary (spec §6): the
// seven pinned tables written as append-only NDJSON row batches, plus
// the Prometheus counters an operator scrapes alongside them.
//
// Metric registration follows the teacher's observability.Metrics:
// a dedicated prometheus.Registry (never the global default, to avoid
// collisions with other instrumented libraries in the same process),
// metric names namespaced `process_triage_<subsystem>_<name>_<unit>`.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every Prometheus descriptor this repository exposes for
// operator scraping (spec §3 "ambient observability, not a spec-named
// feature, carried because the teacher always instruments its
// pipelines").
type Metrics struct {
	registry *prometheus.Registry

	EventsProcessedTotal *prometheus.CounterVec
	EventsDroppedTotal   *prometheus.CounterVec

	DecisionsTotal        *prometheus.CounterVec
	PolicyViolationsTotal *prometheus.CounterVec

	ActionsAppliedTotal *prometheus.CounterVec
	ActionsFailedTotal  *prometheus.CounterVec

	SessionDuration prometheus.Histogram
	AlphaWealth     prometheus.Gauge
}

// NewMetrics creates and registers every metric on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,

		EventsProcessedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "process_triage",
			Subsystem: "events",
			Name:      "processed_total",
			Help:      "Total session events processed, by event kind.",
		}, []string{"kind"}),

		EventsDroppedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "process_triage",
			Subsystem: "events",
			Name:      "dropped_total",
			Help:      "Total events dropped by a saturated subscriber buffer, by subscriber.",
		}, []string{"subscriber"}),

		DecisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "process_triage",
			Subsystem: "decision",
			Name:      "total",
			Help:      "Total decision-engine proposals, by action kind.",
		}, []string{"action"}),

		PolicyViolationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "process_triage",
			Subsystem: "policy",
			Name:      "violations_total",
			Help:      "Total policy enforcer rejections, by violation kind.",
		}, []string{"kind"}),

		ActionsAppliedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "process_triage",
			Subsystem: "executor",
			Name:      "actions_applied_total",
			Help:      "Total actions successfully verified, by action kind.",
		}, []string{"action"}),

		ActionsFailedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "process_triage",
			Subsystem: "executor",
			Name:      "actions_failed_total",
			Help:      "Total actions that failed to verify, by failure kind.",
		}, []string{"reason"}),

		SessionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "process_triage",
			Subsystem: "session",
			Name:      "duration_seconds",
			Help:      "Wall-clock duration of a snapshot-to-outcome session.",
			Buckets:   prometheus.DefBuckets,
		}),

		AlphaWealth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "process_triage",
			Subsystem: "alphainvest",
			Name:      "wealth",
			Help:      "Current alpha-investing wealth available for the FDR gate.",
		}),
	}

	reg.MustRegister(
		m.EventsProcessedTotal,
		m.EventsDroppedTotal,
		m.DecisionsTotal,
		m.PolicyViolationsTotal,
		m.ActionsAppliedTotal,
		m.ActionsFailedTotal,
		m.SessionDuration,
		m.AlphaWealth,
	)
	return m
}

// Registry exposes the underlying registry for wiring into an HTTP
// /metrics handler (left to cmd/triage, which owns the process's network
// surface).
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
