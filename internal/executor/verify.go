package executor

import (
	"fmt"
	"os"
	"strings"

	"github.com/processtriage/triage/internal/decision"
	"github.com/processtriage/triage/internal/model"
)

// PostconditionChecker observes whether a dispatched Action's expected
// effect has actually taken hold (spec §4.I step 3: "Kill: target exits
// or becomes zombie. Pause: state becomes Stopped. Renice: nice value
// updated."). Like ActionRunner and IdentityProvider, it is injected so
// tests never depend on real process state.
type PostconditionChecker interface {
	Verified(target decision.TargetIdentity, action decision.Action) (bool, error)
}

// LivePostconditionChecker re-derives the real effect of each action:
// Kill verifies once the target is no longer live or its /proc/<pid>/stat
// state is Zombie, Pause verifies the
// target's /proc/<pid>/stat state has actually become Stopped; every
// other action is considered verified as soon as the runner returns
// without error, since this repository does not poll /proc for nice
// values or cgroup state beyond what the collector's next scan would
// show.
type LivePostconditionChecker struct {
	Identity IdentityProvider
}

var _ PostconditionChecker = LivePostconditionChecker{}

func (c LivePostconditionChecker) Verified(target decision.TargetIdentity, action decision.Action) (bool, error) {
	switch action.Kind {
	case decision.ActionKill:
		live, err := c.Identity.IsLive(target)
		if err != nil {
			return false, fmt.Errorf("verifying kill: %w", err)
		}
		if !live {
			return true, nil
		}
		state, err := processState(target.PID)
		return err == nil && state == model.StateZombie, nil
	case decision.ActionPause:
		state, err := processState(target.PID)
		if err != nil {
			return false, fmt.Errorf("verifying pause: %w", err)
		}
		return state == model.StateStopped, nil
	default:
		return true, nil
	}
}

// processState reads the scheduler state character out of
// /proc/<pid>/stat — the first whitespace-separated field after the
// comm parenthetical closes (stat(5)) — and maps it the same way
// collect's procfs reader does.
func processState(pid int32) (model.ProcessState, error) {
	raw, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return "", err
	}
	line := string(raw)
	closeParen := strings.LastIndexByte(line, ')')
	if closeParen < 0 || closeParen+2 >= len(line) {
		return "", fmt.Errorf("malformed stat line for pid %d", pid)
	}
	fields := strings.Fields(line[closeParen+2:])
	if len(fields) < 1 {
		return "", fmt.Errorf("truncated stat line for pid %d", pid)
	}
	switch fields[0] {
	case "R":
		return model.StateRunning, nil
	case "S":
		return model.StateSleeping, nil
	case "D":
		return model.StateDisk, nil
	case "Z":
		return model.StateZombie, nil
	case "T", "t":
		return model.StateStopped, nil
	default:
		return model.StateKernel, nil
	}
}

// StaticPostconditionChecker answers from a fixed, test-supplied map
// keyed by pid.
type StaticPostconditionChecker struct {
	Results map[int32]bool
}

var _ PostconditionChecker = StaticPostconditionChecker{}

func (c StaticPostconditionChecker) Verified(target decision.TargetIdentity, action decision.Action) (bool, error) {
	v, ok := c.Results[target.PID]
	if !ok {
		return true, nil
	}
	return v, nil
}
