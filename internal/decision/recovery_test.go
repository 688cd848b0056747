package decision

import (
	"testing"

	"github.com/processtriage/triage/internal/config"
)

func TestPlanRecovery_TargetGoneAborts(t *testing.T) {
	d := PlanRecovery(ActionFailure{Kind: FailureTargetGone}, config.DefaultPolicy().Retry, 1)
	if d.Kind != RecoveryAbort {
		t.Errorf("expected Abort, got %s", d.Kind)
	}
}

func TestPlanRecovery_PermissionDeniedNeverRetries(t *testing.T) {
	d := PlanRecovery(ActionFailure{Kind: FailurePermissionDenied}, config.DefaultPolicy().Retry, 1)
	if d.Kind != RecoveryAbort {
		t.Errorf("expected Abort, got %s", d.Kind)
	}
}

func TestPlanRecovery_TransientIORetriesUntilMax(t *testing.T) {
	policy := config.DefaultPolicy().Retry
	d := PlanRecovery(ActionFailure{Kind: FailureTransientIO, AttemptNum: 1}, policy, 1)
	if d.Kind != RecoveryRetry {
		t.Errorf("attempt 1: expected Retry, got %s", d.Kind)
	}
	d = PlanRecovery(ActionFailure{Kind: FailureTransientIO, AttemptNum: policy.MaxRetries + 1}, policy, 1)
	if d.Kind != RecoveryAbort {
		t.Errorf("past max retries: expected Abort, got %s", d.Kind)
	}
}

func TestPlanRecovery_PostconditionFailedEscalatesSigtermToSigkill(t *testing.T) {
	policy := config.DefaultPolicy().Retry
	failure := ActionFailure{
		Kind:   FailurePostconditionFailed,
		Action: Action{Kind: ActionKill, Signal: sigTerm},
	}
	d := PlanRecovery(failure, policy, 1)
	if d.Kind != RecoveryEscalate {
		t.Fatalf("expected Escalate, got %s", d.Kind)
	}
	if d.NewAction.Signal != sigKill {
		t.Errorf("expected escalation to SIGKILL, got signal %d", d.NewAction.Signal)
	}
}

func TestPlanRecovery_PostconditionFailedAfterEscalationAbortsEventually(t *testing.T) {
	policy := config.DefaultPolicy().Retry
	failure := ActionFailure{
		Kind:       FailurePostconditionFailed,
		Action:     Action{Kind: ActionKill, Signal: sigKill},
		AttemptNum: policy.MaxRetries + 1,
	}
	d := PlanRecovery(failure, policy, 1)
	if d.Kind != RecoveryAbort {
		t.Errorf("expected Abort after exhausting retries post-escalation, got %s", d.Kind)
	}
}

func TestBackoff_RespectsCapAndNeverNegative(t *testing.T) {
	policy := config.DefaultPolicy().Retry
	for attempt := 1; attempt <= 10; attempt++ {
		d := backoff(policy, attempt, uint64(attempt))
		if d < 0 {
			t.Errorf("attempt %d: negative backoff %v", attempt, d)
		}
		if d > policy.BackoffCap {
			t.Errorf("attempt %d: backoff %v exceeds cap %v", attempt, d, policy.BackoffCap)
		}
	}
}

func TestDeterministicUnit_StableForSameSeed(t *testing.T) {
	a := deterministicUnit(12345)
	b := deterministicUnit(12345)
	if a != b {
		t.Errorf("expected deterministic output for same seed: %v vs %v", a, b)
	}
}
