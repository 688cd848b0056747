package executor

import (
	"os"
	"testing"

	"github.com/processtriage/triage/internal/decision"
	"github.com/processtriage/triage/internal/model"
)

func TestLivePostconditionChecker_KillVerifiesOnceTargetGone(t *testing.T) {
	c := LivePostconditionChecker{Identity: StaticIdentityProvider{Live: map[int32]bool{1: false}}}
	ok, err := c.Verified(decision.TargetIdentity{PID: 1}, decision.Action{Kind: decision.ActionKill})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected kill to verify once the target is no longer live")
	}
}

func TestLivePostconditionChecker_KillNotVerifiedWhileStillLive(t *testing.T) {
	c := LivePostconditionChecker{Identity: StaticIdentityProvider{Live: map[int32]bool{1: true}}}
	ok, err := c.Verified(decision.TargetIdentity{PID: 1}, decision.Action{Kind: decision.ActionKill})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected kill to stay unverified while the target is still live")
	}
}

func TestLivePostconditionChecker_RenicePassesThroughUnchecked(t *testing.T) {
	c := LivePostconditionChecker{Identity: StaticIdentityProvider{}}
	ok, err := c.Verified(decision.TargetIdentity{PID: 1}, decision.Action{Kind: decision.ActionRenice})
	if err != nil || !ok {
		t.Errorf("expected renice to verify unconditionally, got ok=%v err=%v", ok, err)
	}
}

func TestLivePostconditionChecker_PauseNotVerifiedForRunningSelf(t *testing.T) {
	if _, err := os.Stat("/proc/self/stat"); err != nil {
		t.Skip("no /proc on this host")
	}
	c := LivePostconditionChecker{}
	ok, err := c.Verified(decision.TargetIdentity{PID: int32(os.Getpid())}, decision.Action{Kind: decision.ActionPause})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected pause postcondition to fail for the running test process, not Stopped")
	}
}

func TestProcessState_ParsesSelfAsNotStopped(t *testing.T) {
	if _, err := os.Stat("/proc/self/stat"); err != nil {
		t.Skip("no /proc on this host")
	}
	state, err := processState(int32(os.Getpid()))
	if err != nil {
		t.Fatalf("processState failed: %v", err)
	}
	if state == model.StateStopped {
		t.Error("expected the running test process not to report Stopped")
	}
}

func TestProcessState_ErrorsForNonexistentPID(t *testing.T) {
	if _, err := processState(999999999); err == nil {
		t.Error("expected an error reading stat for a nonexistent pid")
	}
}
