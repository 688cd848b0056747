package session

import (
	"math"
	"sort"

	"github.com/processtriage/triage/internal/model"
)

// DeltaKind names how a start_id's record changed between two snapshots
// (spec §4.H "Diff").
type DeltaKind string

const (
	DeltaAdded   DeltaKind = "Added"
	DeltaRemoved DeltaKind = "Removed"
	DeltaChanged DeltaKind = "Changed"
)

// DeltaEntry is one process's change between base and compare.
type DeltaEntry struct {
	StartID      model.StartID
	Kind         DeltaKind
	FieldsChanged []string
}

const numericTolerance = 1e-9

// Diff computes session_diff(base, compare) per spec §4.H: Added entries
// exist only in compare, Removed only in base, Changed exist in both with
// at least one semantically different field (numerics tolerated within
// 1e-9). Deterministic, stable ordering by start_id.
func Diff(base, compare model.Snapshot) []DeltaEntry {
	baseByID := indexByStartID(base)
	compareByID := indexByStartID(compare)

	var entries []DeltaEntry
	for id, rec := range compareByID {
		if baseRec, ok := baseByID[id]; ok {
			if changed := changedFields(baseRec, rec); len(changed) > 0 {
				entries = append(entries, DeltaEntry{StartID: id, Kind: DeltaChanged, FieldsChanged: changed})
			}
		} else {
			entries = append(entries, DeltaEntry{StartID: id, Kind: DeltaAdded})
		}
	}
	for id := range baseByID {
		if _, ok := compareByID[id]; !ok {
			entries = append(entries, DeltaEntry{StartID: id, Kind: DeltaRemoved})
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i].StartID, entries[j].StartID
		if a.PID != b.PID {
			return a.PID < b.PID
		}
		return a.BootEpoch < b.BootEpoch
	})
	return entries
}

func indexByStartID(snap model.Snapshot) map[model.StartID]model.ProcessRecord {
	idx := make(map[model.StartID]model.ProcessRecord, len(snap.Records))
	for _, r := range snap.Records {
		idx[r.StartID] = r
	}
	return idx
}

func changedFields(a, b model.ProcessRecord) []string {
	var changed []string
	if a.Command != b.Command {
		changed = append(changed, "command")
	}
	if a.State != b.State {
		changed = append(changed, "state")
	}
	if !floatEq(a.CPUUsageEWMA, b.CPUUsageEWMA) {
		changed = append(changed, "cpu_usage_ewma")
	}
	if a.RSSBytes != b.RSSBytes {
		changed = append(changed, "rss_bytes")
	}
	if a.IOReadBps != b.IOReadBps {
		changed = append(changed, "io_read_bps")
	}
	if a.IOWriteBps != b.IOWriteBps {
		changed = append(changed, "io_write_bps")
	}
	if a.SupervisorLevel != b.SupervisorLevel {
		changed = append(changed, "supervisor_level")
	}
	if a.CgroupPath != b.CgroupPath {
		changed = append(changed, "cgroup_path")
	}
	sort.Strings(changed)
	return changed
}

func floatEq(a, b float64) bool {
	return math.Abs(a-b) <= numericTolerance
}
