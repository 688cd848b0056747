package session

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/processtriage/triage/internal/model"
)

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", path, err)
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadSnapshot reads back a session's t0 snapshot.
func (d Dir) LoadSnapshot() (model.Snapshot, error) {
	var snap model.Snapshot
	raw, err := os.ReadFile(d.SnapshotPath())
	if err != nil {
		return snap, fmt.Errorf("reading session snapshot: %w", err)
	}
	if err := json.Unmarshal(raw, &snap); err != nil {
		return snap, fmt.Errorf("parsing session snapshot: %w", err)
	}
	return snap, nil
}

// Outcome is the terminal summary written at session close (spec §4.H
// "surfaced in the final outcome" for the dropped-event counter, plus the
// executor's ExecutionSummary).
type Outcome struct {
	ClosedAt       string `json:"closed_at"`
	StepsPlanned   int    `json:"steps_planned"`
	StepsVerified  int    `json:"steps_verified"`
	StepsFailed    int    `json:"steps_failed"`
	StepsSkipped   int    `json:"steps_skipped"`
	DroppedEvents  map[string]uint64 `json:"dropped_events"` // per-subscriber
}

// WriteOutcome persists the session's terminal outcome document.
func (d Dir) WriteOutcome(o Outcome) error {
	return writeJSON(d.OutcomePath(), o)
}
