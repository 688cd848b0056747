package decision

import (
	"math"
	"time"

	"github.com/processtriage/triage/internal/config"
)

// FailureKind classifies why a dispatched action failed to verify, per
// spec §7's error taxonomy.
type FailureKind string

const (
	FailureTransientIO         FailureKind = "transient_io"
	FailurePermissionDenied    FailureKind = "permission_denied"
	FailureTargetGone          FailureKind = "target_gone"
	FailurePostconditionFailed FailureKind = "postcondition_failed"
)

// ActionFailure describes one failed attempt to apply an action.
type ActionFailure struct {
	Kind       FailureKind
	Action     Action
	Target     TargetIdentity
	AttemptNum int // 1-indexed
}

// RecoveryKind is the shape of a RecoveryDecision (spec §4.F "Recovery
// planning").
type RecoveryKind string

const (
	RecoveryRetry    RecoveryKind = "retry"
	RecoveryEscalate RecoveryKind = "escalate"
	RecoveryAbort    RecoveryKind = "abort"
)

// RecoveryDecision is the outcome of PlanRecovery.
type RecoveryDecision struct {
	Kind       RecoveryKind
	After      time.Duration // valid when Kind == RecoveryRetry
	NewAction  Action        // valid when Kind == RecoveryEscalate
	AbortReason string       // valid when Kind == RecoveryAbort
}

// PlanRecovery implements spec §4.F "plan_recovery(ActionFailure,
// RetryPolicy)" and the per-kind handling table in §7.
func PlanRecovery(failure ActionFailure, policy config.RetryPolicy, jitterSeed uint64) RecoveryDecision {
	switch failure.Kind {
	case FailureTargetGone:
		// Not a failure at all; nothing to recover (spec §7 "Skip step;
		// not a failure"), but callers that reach PlanRecovery anyway get
		// an abort rather than a retry loop against a process that no
		// longer exists.
		return RecoveryDecision{Kind: RecoveryAbort, AbortReason: "target no longer resolves to a live process"}

	case FailurePermissionDenied:
		// Never retried; always escalated to the operator (spec §7).
		return RecoveryDecision{Kind: RecoveryAbort, AbortReason: "permission denied; operator escalation required"}

	case FailureTransientIO:
		if failure.AttemptNum > policy.MaxRetries {
			return RecoveryDecision{Kind: RecoveryAbort, AbortReason: "transient I/O failure exceeded max retries"}
		}
		return RecoveryDecision{Kind: RecoveryRetry, After: backoff(policy, failure.AttemptNum, jitterSeed)}

	case FailurePostconditionFailed:
		return recoverPostcondition(failure, policy, jitterSeed)

	default:
		return RecoveryDecision{Kind: RecoveryAbort, AbortReason: "unrecognized failure kind"}
	}
}

// recoverPostcondition escalates SIGTERM to SIGKILL once; any other
// unverified action is retried with backoff until the attempt number
// exceeds MaxRetries, then aborted (spec §8 scenario 5).
func recoverPostcondition(failure ActionFailure, policy config.RetryPolicy, jitterSeed uint64) RecoveryDecision {
	if failure.Action.Kind == ActionKill && failure.Action.Signal == sigTerm {
		return RecoveryDecision{
			Kind:      RecoveryEscalate,
			NewAction: Action{Kind: ActionKill, Signal: sigKill, Reason: "SIGTERM did not verify; escalating"},
		}
	}
	if failure.AttemptNum <= policy.MaxRetries {
		return RecoveryDecision{Kind: RecoveryRetry, After: backoff(policy, failure.AttemptNum, jitterSeed)}
	}
	return RecoveryDecision{Kind: RecoveryAbort, AbortReason: "postcondition never verified after retries and escalation"}
}

// backoff computes exponential backoff with jitter (spec §4.F "base 100
// ms, jitter ±25%, cap 30s, max 3 retries"). jitterSeed drives a small
// deterministic LCG rather than math/rand so recovery planning stays pure
// and reproducible in tests; callers pass a value derived from the
// attempt's identity (e.g. pid) when real randomness isn't required.
func backoff(policy config.RetryPolicy, attempt int, jitterSeed uint64) time.Duration {
	base := float64(policy.BackoffBase) * math.Pow(2, float64(attempt-1))
	if base > float64(policy.BackoffCap) {
		base = float64(policy.BackoffCap)
	}
	jitterFrac := (deterministicUnit(jitterSeed)*2 - 1) * policy.JitterFrac
	d := time.Duration(base * (1 + jitterFrac))
	if d < 0 {
		d = 0
	}
	if d > policy.BackoffCap {
		d = policy.BackoffCap
	}
	return d
}

// deterministicUnit derives a value in [0,1) from seed via a small linear
// congruential step, used only to vary jitter without introducing
// nondeterminism into recovery planning.
func deterministicUnit(seed uint64) float64 {
	const (
		a = 6364136223846793005
		c = 1442695040888963407
	)
	x := a*seed + c
	return float64(x>>11) / float64(1<<53)
}
