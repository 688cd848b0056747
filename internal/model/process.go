// Package model holds the data types shared across the process-triage
// pipeline: the process record produced by the collector, and the stable
// identities and enums derived from it. Nothing in this package performs
// I/O or computation beyond simple derivations — it exists so that
// inference, impact, decision, session, and executor can share one
// vocabulary without importing each other.
package model

import "time"

// ProcessState is the scheduler state of a process, as read from /proc.
type ProcessState string

const (
	StateRunning  ProcessState = "Running"
	StateSleeping ProcessState = "Sleeping"
	StateDisk     ProcessState = "Disk"
	StateZombie   ProcessState = "Zombie"
	StateStopped  ProcessState = "Stopped"
	StateTraced   ProcessState = "Traced"
	StateKernel   ProcessState = "Kernel"
)

// SupervisorLevel classifies which init/manager owns a process.
type SupervisorLevel int

const (
	SupervisorNone SupervisorLevel = iota
	SupervisorUser
	SupervisorSystem
	SupervisorCritical
)

func (s SupervisorLevel) String() string {
	switch s {
	case SupervisorUser:
		return "User"
	case SupervisorSystem:
		return "System"
	case SupervisorCritical:
		return "Critical"
	default:
		return "None"
	}
}

// StartID is a stable (pid, boot-time) identity that survives pid reuse
// within one collector boot. It is globally unique within a collector boot
// (spec §3 invariant) and is used as the tie-break key throughout the
// decision and session layers because, unlike a bare pid, it never aliases
// across a reap/respawn.
type StartID struct {
	PID       int32
	BootEpoch int64 // unix seconds of the boot this pid was observed in
}

// ProcessRecord is the collector's sole output type (spec §3, §6). Every
// other component in this repository consumes ProcessRecords; none of them
// reach back into /proc directly.
type ProcessRecord struct {
	PID         int32
	StartID     StartID
	PPID        int32 // 0 / absent means reaped or no parent in this snapshot
	HasPPID     bool
	Command     string
	Args        []string
	State       ProcessState
	CPUUsageEWMA float64 // logical cores, [0, inf)
	RSSBytes     uint64
	IOReadBps    uint64
	IOWriteBps   uint64
	Uptime       time.Duration
	CgroupPath   string
	ContainerRuntime string // optional, "" if none
	SupervisorLevel  SupervisorLevel
	GPUVRAMMiB       *uint64 // optional

	CollectedAt time.Time
}

// Identity returns the stable (pid, start_id) pair used as a target
// identity throughout decision, policy, and executor.
func (p ProcessRecord) Identity() StartID { return p.StartID }

// Snapshot is a consistent point-in-time view of all ProcessRecords,
// sharing one CollectedAt timestamp (spec §6 Collector→Core interface).
type Snapshot struct {
	CollectedAt time.Time
	Records     []ProcessRecord
}

// ByPID returns an index of the snapshot's records keyed by pid, built
// once per use — callers that need repeated lookups should build and
// reuse this themselves (see impact.BuildChildIndex for the reverse
// parent→children index used by blast-radius enumeration).
func (s Snapshot) ByPID() map[int32]ProcessRecord {
	idx := make(map[int32]ProcessRecord, len(s.Records))
	for _, r := range s.Records {
		idx[r.PID] = r
	}
	return idx
}
