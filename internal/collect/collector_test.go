package collect

import (
	"os"
	"testing"
	"time"
)

func TestCollect_FindsSelfProcess(t *testing.T) {
	if _, err := os.Stat("/proc/self/stat"); err != nil {
		t.Skip("no /proc on this host")
	}
	c := NewCollector(DefaultEWMAAlpha)
	now := time.Now()
	snap, err := c.Collect(now)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if !snap.CollectedAt.Equal(now) {
		t.Errorf("expected CollectedAt to equal the passed-in timestamp")
	}

	self := int32(os.Getpid())
	found := false
	for _, r := range snap.Records {
		if r.PID == self {
			found = true
			break
		}
	}
	if !found {
		t.Error("expected to find this test process's own pid in the snapshot")
	}
}

func TestCollect_SecondScanComputesNonNegativeRates(t *testing.T) {
	if _, err := os.Stat("/proc/self/stat"); err != nil {
		t.Skip("no /proc on this host")
	}
	c := NewCollector(DefaultEWMAAlpha)
	if _, err := c.Collect(time.Now()); err != nil {
		t.Fatalf("first Collect failed: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	snap, err := c.Collect(time.Now())
	if err != nil {
		t.Fatalf("second Collect failed: %v", err)
	}
	for _, r := range snap.Records {
		if r.CPUUsageEWMA < 0 {
			t.Errorf("pid %d: expected non-negative cpu_usage_ewma, got %f", r.PID, r.CPUUsageEWMA)
		}
	}
}

func TestCollect_PruneDropsStatePastLivePids(t *testing.T) {
	c := NewCollector(DefaultEWMAAlpha)
	c.prev[999999] = sample{}
	c.ewma[999999] = newCPUAccumulator(0.5)
	c.prune(map[int32]bool{})
	if _, ok := c.prev[999999]; ok {
		t.Error("expected prune to drop state for pids absent from the live set")
	}
	if _, ok := c.ewma[999999]; ok {
		t.Error("expected prune to drop ewma accumulator for pids absent from the live set")
	}
}

func TestClassifySupervisor_PID1IsCritical(t *testing.T) {
	if got := classifySupervisor(1, 0, "systemd", ""); got.String() != "Critical" {
		t.Errorf("expected pid 1 to classify as Critical, got %s", got)
	}
}

func TestClassifySupervisor_ContainerCgroupIsSystem(t *testing.T) {
	got := classifySupervisor(1234, 1, "myapp", "/kubepods/burstable/pod123/container456")
	if got.String() != "System" {
		t.Errorf("expected container cgroup to classify as System, got %s", got)
	}
}

func TestClassifySupervisor_OrphanIsNone(t *testing.T) {
	got := classifySupervisor(1234, 0, "myapp", "")
	if got.String() != "None" {
		t.Errorf("expected orphan with no supervisor hints to classify as None, got %s", got)
	}
}

func TestBootEpoch_IsPositiveAndCached(t *testing.T) {
	if _, err := os.Stat("/proc/stat"); err != nil {
		t.Skip("no /proc on this host")
	}
	a := bootEpoch()
	b := bootEpoch()
	if a != b {
		t.Errorf("expected bootEpoch to be cached and stable, got %d then %d", a, b)
	}
	if a <= 0 {
		t.Errorf("expected a positive boot epoch, got %d", a)
	}
}
