package telemetry

import "testing"

func TestNewMetrics_RegistersAllDescriptors(t *testing.T) {
	m := NewMetrics()
	if m.EventsProcessedTotal == nil || m.EventsDroppedTotal == nil {
		t.Error("expected events counters to be non-nil")
	}
	if m.DecisionsTotal == nil || m.PolicyViolationsTotal == nil {
		t.Error("expected decision/policy counters to be non-nil")
	}
	if m.ActionsAppliedTotal == nil || m.ActionsFailedTotal == nil {
		t.Error("expected executor counters to be non-nil")
	}
	if m.SessionDuration == nil {
		t.Error("expected SessionDuration histogram to be non-nil")
	}
	if m.AlphaWealth == nil {
		t.Error("expected AlphaWealth gauge to be non-nil")
	}
}

func TestNewMetrics_ReturnsOwnRegistry(t *testing.T) {
	m := NewMetrics()
	if m.Registry() == nil {
		t.Fatal("expected a non-nil registry")
	}

	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	if len(families) == 0 {
		t.Error("expected at least one registered metric family after construction")
	}
}

func TestNewMetrics_TwoInstancesDoNotCollide(t *testing.T) {
	// Each NewMetrics call uses its own prometheus.NewRegistry(), so two
	// instances in the same process must not panic on duplicate
	// registration against the global default registry.
	a := NewMetrics()
	b := NewMetrics()
	a.EventsProcessedTotal.WithLabelValues("snapshot").Inc()
	b.EventsProcessedTotal.WithLabelValues("snapshot").Inc()

	af, err := a.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather(a) failed: %v", err)
	}
	bf, err := b.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather(b) failed: %v", err)
	}
	if len(af) == 0 || len(bf) == 0 {
		t.Error("expected both independent registries to report metric families")
	}
}
