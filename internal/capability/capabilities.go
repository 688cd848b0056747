// Package capability detects what a host actually supports — which
// signals can be sent, whether cgroup limits can be adjusted, which
// supervisors are present — and turns that into per-action feasibility
// flags the decision engine consults before proposing a plan (spec §3
// "ActionFeasibility", §4.J "Capability gate").
package capability

import (
	"os"
	"runtime"

	"github.com/processtriage/triage/internal/decision"
	"github.com/processtriage/triage/internal/model"
)

// Capabilities is a snapshot of what this host supports, detected once
// and cached (spec §4.J "Capabilities (platform, data sources, tools,
// permissions, supervisors, actions)").
type Capabilities struct {
	Platform    string   `json:"platform"`
	DataSources []string `json:"data_sources"`
	Tools       []string `json:"tools"`
	Permissions []string `json:"permissions"`
	Supervisors []string `json:"supervisors"`

	// CanSignal etc. are the coarse, platform-level building blocks that
	// feasibility derivation below combines with a candidate's own
	// record (e.g. whether it has a cgroup_path at all).
	CanSignal      bool `json:"can_signal"`
	CanRenice      bool `json:"can_renice"`
	CanCgroupWrite bool `json:"can_cgroup_write"`

	DetectedAt int64 `json:"detected_at_unix"`
}

const (
	permSignalOthers = "signal_others"
	permRenice       = "renice"
	permCgroupWrite  = "cgroup_write"

	toolProcfs        = "procfs"
	toolSignal        = "signal"
	toolSetpriority   = "setpriority"
	toolCgroupv2Write = "cgroupv2_write"
)

// Detect probes this host's actual capabilities. It never fails: a probe
// that cannot determine an answer degrades to "unsupported" rather than
// returning an error, since capability detection is advisory (spec §5
// "Capability cache is read-only after load").
func Detect(now int64) Capabilities {
	c := Capabilities{
		Platform:   runtime.GOOS,
		DetectedAt: now,
	}

	if runtime.GOOS == "linux" {
		c.DataSources = append(c.DataSources, "proc")
		c.Tools = append(c.Tools, toolProcfs)
	}

	// Signal delivery: available whenever we can at least signal
	// ourselves, which every process can. Sending to another process's
	// PID additionally requires matching uid or CAP_KILL; we treat euid
	// 0 as the practical "can signal others" case and otherwise assume
	// same-uid processes only, which the executor's pre-check already
	// guards via a real syscall attempt.
	c.CanSignal = runtime.GOOS == "linux" || runtime.GOOS == "darwin"
	if c.CanSignal {
		c.Tools = append(c.Tools, toolSignal)
	}
	if os.Geteuid() == 0 {
		c.Permissions = append(c.Permissions, permSignalOthers)
	}

	c.CanRenice = runtime.GOOS == "linux" || runtime.GOOS == "darwin"
	if c.CanRenice {
		c.Tools = append(c.Tools, toolSetpriority)
		c.Permissions = append(c.Permissions, permRenice)
	}

	// Cgroup v2 write access requires both the kernel feature (Linux
	// only) and write permission on the controller files, which we
	// conservatively gate on euid 0 since unprivileged cgroup delegation
	// is host-specific and not worth guessing at.
	if runtime.GOOS == "linux" && os.Geteuid() == 0 {
		if _, err := os.Stat("/sys/fs/cgroup"); err == nil {
			c.CanCgroupWrite = true
			c.Tools = append(c.Tools, toolCgroupv2Write)
			c.Permissions = append(c.Permissions, permCgroupWrite)
		}
	}

	c.Supervisors = detectSupervisors()
	return c
}

func detectSupervisors() []string {
	var found []string
	if _, err := os.Stat("/run/systemd/system"); err == nil {
		found = append(found, "systemd")
	}
	if _, err := os.Stat("/.dockerenv"); err == nil {
		found = append(found, "docker")
	}
	if _, err := os.Stat("/var/run/secrets/kubernetes.io"); err == nil {
		found = append(found, "kubernetes")
	}
	return found
}

// Feasibility derives per-action feasibility flags for one process record
// from the host's detected Capabilities (spec §3 "the set of
// ActionFeasibility flags from the capability gate").
func Feasibility(c Capabilities, rec model.ProcessRecord) decision.ActionFeasibility {
	f := decision.ActionFeasibility{
		decision.ActionNoOp: true,
	}
	if c.CanSignal {
		f[decision.ActionKill] = true
		f[decision.ActionPause] = true
		f[decision.ActionResume] = true
	}
	if c.CanRenice {
		f[decision.ActionRenice] = true
	}
	if c.CanCgroupWrite && rec.CgroupPath != "" {
		f[decision.ActionCgroupAdjust] = true
	}
	// Critical-supervisor processes are never signalable regardless of
	// raw platform capability. The policy enforcer's protected-pattern
	// check matches command names only, so the capability gate is where
	// the supervisor level removes Kill and Pause, and the decision engine
	// downgrades before policy even runs.
	if rec.SupervisorLevel == model.SupervisorCritical {
		f[decision.ActionKill] = false
		f[decision.ActionPause] = false
	}
	return f
}
