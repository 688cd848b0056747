// Package collect implements the Collector external interface (spec §6
// "Collector → Core"): reading /proc on Linux and assembling
// ProcessRecords that share one collected_at snapshot timestamp. No eBPF
// (an explicit Non-goal: kernel-level tracing).
package collect

import (
	"sync"
	"time"

	"github.com/processtriage/triage/internal/model"
)

type sample struct {
	at    time.Time
	ticks uint64
	io    ioCounters
}

// Collector holds the per-pid state needed to turn cumulative /proc
// counters into rates: the previous sample's ticks/bytes and timestamp,
// plus a cpuAccumulator per pid for EWMA smoothing. State is scan-to-scan
// only; a pid that disappears between scans has its state discarded by
// prune at the end of the next Collect.
type Collector struct {
	mu    sync.Mutex
	prev  map[int32]sample
	ewma  map[int32]*cpuAccumulator
	alpha float64
}

// DefaultEWMAAlpha mirrors the teacher's pressure accumulator's default
// smoothing factor.
const DefaultEWMAAlpha = 0.8

// NewCollector constructs a Collector with the given EWMA smoothing
// factor (see cpuAccumulator).
func NewCollector(alpha float64) *Collector {
	if alpha <= 0 {
		alpha = DefaultEWMAAlpha
	}
	return &Collector{
		prev:  make(map[int32]sample),
		ewma:  make(map[int32]*cpuAccumulator),
		alpha: alpha,
	}
}

// Collect enumerates every pid currently in /proc, reads its stat,
// status, io, cgroup, and cmdline files, and assembles one ProcessRecord
// per pid, all sharing the single collectedAt timestamp passed in (spec
// §6 "records within one snapshot share a collected_at timestamp").
// Processes that vanish mid-scan (a normal race against process exit)
// are silently skipped rather than failing the whole scan.
func (c *Collector) Collect(collectedAt time.Time) (model.Snapshot, error) {
	pids, err := listPIDs()
	if err != nil {
		return model.Snapshot{}, err
	}

	snap := model.Snapshot{CollectedAt: collectedAt}
	live := make(map[int32]bool, len(pids))

	for _, pid := range pids {
		rec, ok := c.collectOne(pid, collectedAt)
		if !ok {
			continue
		}
		live[pid] = true
		snap.Records = append(snap.Records, rec)
	}

	c.prune(live)
	return snap, nil
}

func (c *Collector) collectOne(pid int32, collectedAt time.Time) (model.ProcessRecord, bool) {
	st, err := readStat(pid)
	if err != nil {
		return model.ProcessRecord{}, false
	}
	rssBytes, _ := readRSSBytes(pid)
	io := readIOCounters(pid)
	cgroupPath := readCgroupPath(pid)
	args := readCmdline(pid)

	totalTicks := st.utime + st.stime
	cpuInstant, ioReadBps, ioWriteBps := c.rates(pid, collectedAt, totalTicks, io)
	cpuEWMA := c.accumulator(pid).update(cpuInstant)

	command := st.comm
	if len(args) > 0 {
		command = args[0]
	}

	rec := model.ProcessRecord{
		PID:              pid,
		StartID:          model.StartID{PID: pid, BootEpoch: bootEpoch()},
		PPID:             st.ppid,
		HasPPID:          st.ppid > 0,
		Command:          command,
		Args:             args,
		State:            st.state,
		CPUUsageEWMA:     cpuEWMA,
		RSSBytes:         rssBytes,
		IOReadBps:        uint64(ioReadBps),
		IOWriteBps:       uint64(ioWriteBps),
		CgroupPath:       cgroupPath,
		SupervisorLevel:  classifySupervisor(pid, st.ppid, command, cgroupPath),
		CollectedAt:      collectedAt,
	}
	return rec, true
}

// rates converts cumulative tick/byte counters into per-second rates
// using the previous sample for this pid, if any. A pid seen for the
// first time this process's lifetime has no delta to compute from and
// reports zero rates for this scan.
func (c *Collector) rates(pid int32, now time.Time, ticks uint64, io ioCounters) (cpuCores, ioReadBps, ioWriteBps float64) {
	c.mu.Lock()
	prev, ok := c.prev[pid]
	c.prev[pid] = sample{at: now, ticks: ticks, io: io}
	c.mu.Unlock()

	if !ok {
		return 0, 0, 0
	}
	elapsed := now.Sub(prev.at).Seconds()
	if elapsed <= 0 {
		return 0, 0, 0
	}
	deltaTicks := float64(ticks - prev.ticks)
	if ticks < prev.ticks {
		deltaTicks = 0
	}
	cpuCores = (deltaTicks / clockTicksPerSec) / elapsed

	deltaRead := float64(0)
	if io.readBytes >= prev.io.readBytes {
		deltaRead = float64(io.readBytes - prev.io.readBytes)
	}
	deltaWrite := float64(0)
	if io.writeBytes >= prev.io.writeBytes {
		deltaWrite = float64(io.writeBytes - prev.io.writeBytes)
	}
	ioReadBps = deltaRead / elapsed
	ioWriteBps = deltaWrite / elapsed
	return cpuCores, ioReadBps, ioWriteBps
}

func (c *Collector) accumulator(pid int32) *cpuAccumulator {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.ewma[pid]
	if !ok {
		a = newCPUAccumulator(c.alpha)
		c.ewma[pid] = a
	}
	return a
}

// prune discards per-pid state for pids that no longer appeared in the
// most recent scan, bounding the collector's memory to currently-live
// processes.
func (c *Collector) prune(live map[int32]bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for pid := range c.prev {
		if !live[pid] {
			delete(c.prev, pid)
			delete(c.ewma, pid)
		}
	}
}
