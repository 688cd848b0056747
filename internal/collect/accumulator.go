package collect

import "sync"

// cpuAccumulator smooths instantaneous CPU utilization into
// cpu_usage_ewma via P_{t+1} = α*P_t + (1-α)*A_t, adapted from the
// teacher's pressure accumulator (same formula, repurposed from anomaly
// pressure to CPU-utilization smoothing). One instance per pid, keyed by
// the Collector.
type cpuAccumulator struct {
	mu    sync.Mutex
	alpha float64
	value float64
}

func newCPUAccumulator(alpha float64) *cpuAccumulator {
	if alpha < 0.0 || alpha > 1.0 {
		panic("alpha must be in [0.0, 1.0]")
	}
	return &cpuAccumulator{alpha: alpha}
}

func (a *cpuAccumulator) update(instantaneous float64) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.value = a.alpha*a.value + (1.0-a.alpha)*instantaneous
	return a.value
}
