// Package decision selects an Action for a classified, impact-scored
// process candidate, and plans recovery when a dispatched action's
// post-condition fails to verify.
package decision

import (
	"github.com/processtriage/triage/internal/impact"
	"github.com/processtriage/triage/internal/inference"
	"github.com/processtriage/triage/internal/model"
)

// ActionKind enumerates the concrete remediations the executor knows how
// to carry out (spec §3 "Plan ... action").
type ActionKind string

const (
	ActionNoOp         ActionKind = "no_op"
	ActionRenice       ActionKind = "renice"
	ActionPause        ActionKind = "pause"
	ActionResume       ActionKind = "resume"
	ActionKill         ActionKind = "kill"
	ActionCgroupAdjust ActionKind = "cgroup_adjust"
)

// FallbackChain is the strictly ordered downgrade sequence consulted when
// the proposed action is infeasible (spec §4.F step 2).
var FallbackChain = []ActionKind{ActionKill, ActionPause, ActionRenice, ActionNoOp}

// Action is one fully-parameterized remediation (spec §3 "action ∈
// {NoOp, Renice(Δ), Pause, Resume, Kill(signal), CgroupAdjust(limit)}").
type Action struct {
	Kind ActionKind

	// ReniceDelta applies to ActionRenice: the nice-value adjustment.
	ReniceDelta int

	// Signal applies to ActionKill: the signal number to send (SIGTERM=15,
	// SIGKILL=9).
	Signal int

	// CgroupLimitBytes applies to ActionCgroupAdjust: the new memory
	// ceiling for the process's cgroup.
	CgroupLimitBytes uint64

	// Reason is a short human-readable rationale, always populated for
	// ActionNoOp (spec §4.F "Action and rationale, or NoOp with reason").
	Reason string
}

// TargetIdentity pins an action to a specific (pid, start_id) pair so that
// a pid-reuse race cannot redirect an action to the wrong process (spec §3
// "target_identity = (pid, start_id)").
type TargetIdentity struct {
	PID     int32
	StartID model.StartID
}

// ProcessCandidate is the decision engine's full input for one process
// (spec §3 "RobotCandidate / ProcessCandidate").
type ProcessCandidate struct {
	Record         model.ProcessRecord
	Classification inference.Classification
	Impact         impact.ImpactComponents
	Feasibility    ActionFeasibility
}

// ActionFeasibility reports, per action kind, whether the capability gate
// believes it can currently be carried out (spec §3 "ActionFeasibility
// flags from the capability gate").
type ActionFeasibility map[ActionKind]bool

// Feasible reports whether kind is feasible, defaulting to infeasible for
// any kind the capability gate never reported on.
func (f ActionFeasibility) Feasible(kind ActionKind) bool {
	return f[kind]
}

// PlannedStep is one entry of a Plan: an action targeted at an identity,
// with its rationale (spec §3 "Plan ... ordered list of (target_identity,
// action, rationale) triples").
type PlannedStep struct {
	Target        TargetIdentity
	Action        Action
	Rationale     string
	ExpectedLoss  float64
	BlastSeverity impact.Severity
}

// Plan is the decision engine's full output for one session's targets,
// ordered by decreasing expected utility (spec §3).
type Plan struct {
	Steps []PlannedStep
}
