package executor

import (
	"context"
	"fmt"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/processtriage/triage/internal/config"
	"github.com/processtriage/triage/internal/decision"
	"github.com/processtriage/triage/internal/impact"
	"github.com/processtriage/triage/internal/session"
)

func newExecutor(identity map[int32]bool, verified map[int32]bool) (Executor, *NoopActionRunner) {
	runner := &NoopActionRunner{}
	bus := session.NewEventBus()
	return Executor{
		Runner:   runner,
		Identity: StaticIdentityProvider{Live: identity},
		Verifier: StaticPostconditionChecker{Results: verified},
		Policy:   config.DefaultPolicy(),
		Progress: session.NewProgressEmitter(bus),
		Fanout:   session.NewFanoutEmitter(bus),
	}, runner
}

func step(pid int32, kind decision.ActionKind) decision.PlannedStep {
	return decision.PlannedStep{
		Target:        decision.TargetIdentity{PID: pid},
		Action:        decision.Action{Kind: kind, Signal: 15},
		BlastSeverity: impact.SeverityLow,
	}
}

func TestExecute_VerifiedStepReachesVerified(t *testing.T) {
	e, runner := newExecutor(map[int32]bool{1: true}, map[int32]bool{1: true})
	plan := decision.Plan{Steps: []decision.PlannedStep{step(1, decision.ActionKill)}}

	summary := e.Execute(context.Background(), plan)
	if len(summary.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(summary.Results))
	}
	if summary.Results[0].State != StepVerified {
		t.Errorf("expected Verified, got %s (err=%v)", summary.Results[0].State, summary.Results[0].Err)
	}
	if len(runner.Applied) != 1 {
		t.Errorf("expected runner to be invoked once, got %d", len(runner.Applied))
	}
}

func TestExecute_TargetGoneSkipsWithoutDispatching(t *testing.T) {
	e, runner := newExecutor(map[int32]bool{1: false}, nil)
	plan := decision.Plan{Steps: []decision.PlannedStep{step(1, decision.ActionKill)}}

	summary := e.Execute(context.Background(), plan)
	if summary.Results[0].State != StepSkipped || summary.Results[0].SkipReason != SkipTargetGone {
		t.Errorf("expected Skipped{TargetGone}, got %s/%s", summary.Results[0].State, summary.Results[0].SkipReason)
	}
	if len(runner.Applied) != 0 {
		t.Error("expected runner never invoked for a pre-check failure")
	}
}

func TestExecute_CancelledContextSkipsStep(t *testing.T) {
	e, _ := newExecutor(map[int32]bool{1: true}, map[int32]bool{1: true})
	plan := decision.Plan{Steps: []decision.PlannedStep{step(1, decision.ActionKill)}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary := e.Execute(ctx, plan)
	if summary.Results[0].State != StepSkipped || summary.Results[0].SkipReason != SkipCancelled {
		t.Errorf("expected Skipped{Cancelled}, got %s/%s", summary.Results[0].State, summary.Results[0].SkipReason)
	}
}

func TestExecute_PostconditionFailureEscalatesSigtermToSigkill(t *testing.T) {
	e, runner := newExecutor(map[int32]bool{1: true}, map[int32]bool{1: false})
	plan := decision.Plan{Steps: []decision.PlannedStep{step(1, decision.ActionKill)}}

	summary := e.Execute(context.Background(), plan)
	res := summary.Results[0]
	if res.State != StepFailed {
		t.Fatalf("expected eventual Failed after escalation+retries exhaust, got %s", res.State)
	}
	if len(runner.Applied) < 2 {
		t.Errorf("expected at least 2 dispatches (SIGTERM then SIGKILL), got %d", len(runner.Applied))
	}
	sawKill := false
	for _, call := range runner.Applied {
		if call.Action.Signal == 9 {
			sawKill = true
		}
	}
	if !sawKill {
		t.Error("expected an escalated SIGKILL dispatch among applied calls")
	}
}

func TestExecute_MultipleStepsAllComplete(t *testing.T) {
	e, _ := newExecutor(map[int32]bool{1: true, 2: true, 3: true}, map[int32]bool{1: true, 2: true, 3: true})
	plan := decision.Plan{Steps: []decision.PlannedStep{
		step(1, decision.ActionKill),
		step(2, decision.ActionPause),
		step(3, decision.ActionRenice),
	}}
	summary := e.Execute(context.Background(), plan)
	if len(summary.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(summary.Results))
	}
	for i, r := range summary.Results {
		if r.State != StepVerified {
			t.Errorf("step %d: expected Verified, got %s", i, r.State)
		}
	}
}

func TestExecutor_WorkerCountRespectsPolicyAndCap(t *testing.T) {
	e := Executor{Policy: config.Policy{MaxParallelActions: 2}}
	if got := e.workerCount(); got != 2 {
		t.Errorf("expected workerCount=2, got %d", got)
	}
	e = Executor{Policy: config.Policy{MaxParallelActions: 100}}
	if got := e.workerCount(); got > 4 {
		t.Errorf("expected workerCount capped at 4, got %d", got)
	}
}

func TestExecutor_VerifyWithTimeoutTimesOut(t *testing.T) {
	bus := session.NewEventBus()
	e := Executor{
		Runner:   &NoopActionRunner{},
		Identity: StaticIdentityProvider{Live: map[int32]bool{1: true}},
		Verifier: slowVerifier{delay: 50 * time.Millisecond},
		Policy:   config.Policy{VerificationTimeout: 5 * time.Millisecond, Retry: config.DefaultPolicy().Retry},
		Progress: session.NewProgressEmitter(bus),
		Fanout:   session.NewFanoutEmitter(bus),
	}
	_, err := e.verifyWithTimeout(decision.TargetIdentity{PID: 1}, decision.Action{Kind: decision.ActionKill})
	if err == nil {
		t.Error("expected a timeout error")
	}
}

type slowVerifier struct{ delay time.Duration }

func (s slowVerifier) Verified(decision.TargetIdentity, decision.Action) (bool, error) {
	time.Sleep(s.delay)
	return true, nil
}

// erroringRunner fails every Apply call with errno, recording how many
// times it was invoked so tests can assert retry counts.
type erroringRunner struct {
	errno unix.Errno
	calls int
}

func (r *erroringRunner) Apply(decision.TargetIdentity, decision.Action) error {
	r.calls++
	return fmt.Errorf("applying action: %w", r.errno)
}

func TestExecute_TransientDispatchErrorRetriesThenFails(t *testing.T) {
	runner := &erroringRunner{errno: unix.EAGAIN}
	bus := session.NewEventBus()
	e := Executor{
		Runner:   runner,
		Identity: StaticIdentityProvider{Live: map[int32]bool{1: true}},
		Verifier: StaticPostconditionChecker{Results: map[int32]bool{1: true}},
		Policy:   config.DefaultPolicy(),
		Progress: session.NewProgressEmitter(bus),
		Fanout:   session.NewFanoutEmitter(bus),
	}
	plan := decision.Plan{Steps: []decision.PlannedStep{step(1, decision.ActionKill)}}

	summary := e.Execute(context.Background(), plan)
	res := summary.Results[0]
	if res.State != StepFailed {
		t.Fatalf("expected eventual Failed once retries exhaust (runner never succeeds), got %s", res.State)
	}
	if res.FailureKind != decision.FailureTransientIO {
		t.Errorf("expected FailureTransientIO to have been classified and retried, got %s", res.FailureKind)
	}
	if runner.calls < 2 {
		t.Errorf("expected PlanRecovery to have retried the transient dispatch error, got %d calls", runner.calls)
	}
}

func TestExecute_PermissionDeniedDispatchErrorAbortsWithoutRetry(t *testing.T) {
	runner := &erroringRunner{errno: unix.EPERM}
	bus := session.NewEventBus()
	e := Executor{
		Runner:   runner,
		Identity: StaticIdentityProvider{Live: map[int32]bool{1: true}},
		Verifier: StaticPostconditionChecker{Results: map[int32]bool{1: true}},
		Policy:   config.DefaultPolicy(),
		Progress: session.NewProgressEmitter(bus),
		Fanout:   session.NewFanoutEmitter(bus),
	}
	plan := decision.Plan{Steps: []decision.PlannedStep{step(1, decision.ActionKill)}}

	summary := e.Execute(context.Background(), plan)
	res := summary.Results[0]
	if res.State != StepFailed {
		t.Fatalf("expected Failed, got %s", res.State)
	}
	if res.FailureKind != decision.FailurePermissionDenied {
		t.Errorf("expected FailurePermissionDenied, got %s", res.FailureKind)
	}
	if runner.calls != 1 {
		t.Errorf("expected permission-denied to abort without retry, got %d calls", runner.calls)
	}
}

func TestClassifyApplyError_MapsErrnoToFailureKind(t *testing.T) {
	cases := []struct {
		errno unix.Errno
		want  decision.FailureKind
	}{
		{unix.ESRCH, decision.FailureTargetGone},
		{unix.EPERM, decision.FailurePermissionDenied},
		{unix.EACCES, decision.FailurePermissionDenied},
		{unix.EAGAIN, decision.FailureTransientIO},
	}
	for _, c := range cases {
		wrapped := fmt.Errorf("wrapping: %w", c.errno)
		if got := classifyApplyError(wrapped); got != c.want {
			t.Errorf("classifyApplyError(%v) = %s, want %s", c.errno, got, c.want)
		}
	}
}
