package executor

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/processtriage/triage/internal/decision"
)

// IdentityProvider answers whether a (pid, start_id) pair still resolves
// to a live process. The executor never calls the OS directly for this;
// it calls IdentityProvider so unit tests can substitute
// StaticIdentityProvider and remove the only nondeterministic call from
// the step state machine (spec §4.I "Identity provider").
type IdentityProvider interface {
	IsLive(target decision.TargetIdentity) (bool, error)
}

// LiveIdentityProvider checks a real host: signal 0 to the pid succeeds
// iff the process exists and is visible to this process (same uid, or
// root).
type LiveIdentityProvider struct{}

var _ IdentityProvider = LiveIdentityProvider{}

func (LiveIdentityProvider) IsLive(target decision.TargetIdentity) (bool, error) {
	err := unix.Kill(int(target.PID), 0)
	if err == nil {
		return true, nil
	}
	if err == unix.ESRCH {
		return false, nil
	}
	if err == unix.EPERM {
		// The process exists but we can't signal it; still "live" from
		// the identity provider's perspective, the feasibility gate is
		// what decides whether we're allowed to act on it.
		return true, nil
	}
	return false, fmt.Errorf("checking liveness of pid %d: %w", target.PID, err)
}

// StaticIdentityProvider answers from a fixed, test-supplied map, keyed
// by pid, removing the real syscall from unit tests entirely.
type StaticIdentityProvider struct {
	Live map[int32]bool
}

var _ IdentityProvider = StaticIdentityProvider{}

func (s StaticIdentityProvider) IsLive(target decision.TargetIdentity) (bool, error) {
	return s.Live[target.PID], nil
}
