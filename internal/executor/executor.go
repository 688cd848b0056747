package executor

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/processtriage/triage/internal/config"
	"github.com/processtriage/triage/internal/decision"
	"github.com/processtriage/triage/internal/session"
)

// StepResult is the terminal outcome of one plan step.
type StepResult struct {
	Target      decision.TargetIdentity
	Action      decision.Action
	State       StepState
	SkipReason  SkipReason
	FailureKind decision.FailureKind
	Attempts    int
	Err         error
}

// ExecutionSummary is Execute's return value: one StepResult per plan
// step, in the plan's original order (spec §4.I "Execute(plan) →
// ExecutionSummary").
type ExecutionSummary struct {
	Results []StepResult
}

// Executor carries the dependencies Execute needs, all interfaces so
// tests substitute deterministic fakes (spec §4.I "never referenced as a
// concrete type by the executor").
type Executor struct {
	Runner   ActionRunner
	Identity IdentityProvider
	Verifier PostconditionChecker
	Policy   config.Policy

	Progress session.ProgressEmitter
	Fanout   session.FanoutEmitter
}

// Execute dispatches every step of plan through the pre-check / dispatch
// / post-check / emit sequence (spec §4.I), fanning independent steps out
// to a bounded worker pool (spec §5 "size = min(available_cores,
// policy.max_parallel_actions, default 4)"). ctx carries cancellation: a
// step not yet dispatched when ctx is done transitions to
// Skipped{Cancelled} instead of running.
func (e Executor) Execute(ctx context.Context, plan decision.Plan) ExecutionSummary {
	results := make([]StepResult, len(plan.Steps))
	sem := make(chan struct{}, e.workerCount())

	var wg sync.WaitGroup
	for i, step := range plan.Steps {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, step decision.PlannedStep) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = e.runStep(ctx, step)
		}(i, step)
	}
	wg.Wait()
	return ExecutionSummary{Results: results}
}

func (e Executor) workerCount() int {
	n := runtime.NumCPU()
	if e.Policy.MaxParallelActions > 0 && e.Policy.MaxParallelActions < n {
		n = e.Policy.MaxParallelActions
	}
	if n > 4 {
		n = 4
	}
	if n < 1 {
		n = 1
	}
	return n
}

func (e Executor) runStep(ctx context.Context, step decision.PlannedStep) StepResult {
	target := step.Target
	action := step.Action
	res := StepResult{Target: target, Action: action, State: StepPlanned}

	e.Progress.StepStarted(map[string]interface{}{"pid": target.PID, "action": string(action.Kind)})

	if err := ctx.Err(); err != nil {
		res.State = StepSkipped
		res.SkipReason = SkipCancelled
		e.Progress.StepFailed(map[string]interface{}{"pid": target.PID, "reason": string(SkipCancelled)})
		return res
	}

	live, err := e.Identity.IsLive(target)
	if err != nil {
		res.State = StepFailed
		res.Err = fmt.Errorf("pre-check: %w", err)
		e.Progress.StepFailed(map[string]interface{}{"pid": target.PID, "error": res.Err.Error()})
		return res
	}
	if !live {
		res.State = StepSkipped
		res.SkipReason = SkipTargetGone
		e.Progress.StepCompleted(map[string]interface{}{"pid": target.PID, "skipped": string(SkipTargetGone)})
		return res
	}
	res.State = StepPreChecked

	return e.dispatchWithRecovery(ctx, step, res)
}

// dispatchWithRecovery dispatches the step and, on a failed dispatch or a
// failed verification, consults decision.PlanRecovery to retry, escalate,
// or abort (spec §4.F "Recovery planning", §4.I step 3).
func (e Executor) dispatchWithRecovery(ctx context.Context, step decision.PlannedStep, res StepResult) StepResult {
	target := step.Target
	action := step.Action
	attempt := 1

	for {
		res.Attempts = attempt
		if err := ctx.Err(); err != nil {
			res.State = StepSkipped
			res.SkipReason = SkipCancelled
			return res
		}

		if err := e.Runner.Apply(target, action); err != nil {
			res.State = StepFailed
			res.FailureKind = classifyApplyError(err)
			res.Err = err
			e.Fanout.ActionFailed(map[string]interface{}{"pid": target.PID, "action": string(action.Kind), "error": err.Error()})

			next, ok := e.recover(ctx, &res, target, action, attempt)
			if !ok {
				return res
			}
			action = next
			attempt++
			continue
		}
		res.State = StepDispatched
		e.Fanout.ActionApplied(map[string]interface{}{"pid": target.PID, "action": string(action.Kind)})

		verified, err := e.verifyWithTimeout(target, action)
		if err != nil {
			res.State = StepFailed
			res.FailureKind = decision.FailureTransientIO
			res.Err = err
		} else if verified {
			res.State = StepVerified
			res.FailureKind = ""
			res.Err = nil
			e.Progress.StepCompleted(map[string]interface{}{"pid": target.PID, "action": string(action.Kind)})
			return res
		} else {
			res.FailureKind = decision.FailurePostconditionFailed
		}

		next, ok := e.recover(ctx, &res, target, action, attempt)
		if !ok {
			return res
		}
		action = next
		attempt++
	}
}

// recover consults decision.PlanRecovery for the failure already recorded
// on res (FailureKind/Err set by the caller) and carries out its verdict:
// on retry or escalate it returns the action to dispatch next and ok=true
// to keep the loop going; on abort, or a cancelled retry wait, res is
// finalized and ok is false.
func (e Executor) recover(ctx context.Context, res *StepResult, target decision.TargetIdentity, action decision.Action, attempt int) (decision.Action, bool) {
	rec := decision.PlanRecovery(decision.ActionFailure{
		Kind:       res.FailureKind,
		Action:     action,
		Target:     target,
		AttemptNum: attempt,
	}, e.Policy.Retry, uint64(target.PID))

	switch rec.Kind {
	case decision.RecoveryRetry:
		select {
		case <-time.After(rec.After):
		case <-ctx.Done():
			res.State = StepSkipped
			res.SkipReason = SkipCancelled
			return action, false
		}
		return action, true
	case decision.RecoveryEscalate:
		return rec.NewAction, true
	default: // RecoveryAbort
		res.State = StepFailed
		res.Action = action
		e.Progress.StepFailed(map[string]interface{}{"pid": target.PID, "reason": rec.AbortReason})
		return action, false
	}
}

func (e Executor) verifyWithTimeout(target decision.TargetIdentity, action decision.Action) (bool, error) {
	timeout := e.Policy.VerificationTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	type outcome struct {
		ok  bool
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		ok, err := e.Verifier.Verified(target, action)
		done <- outcome{ok, err}
	}()
	select {
	case o := <-done:
		return o.ok, o.err
	case <-time.After(timeout):
		return false, fmt.Errorf("verification timed out after %s", timeout)
	}
}
