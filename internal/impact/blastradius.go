// Package impact enumerates a process's descendants over a snapshot and
// aggregates their resource usage into an impact score, used by the
// decision engine to weigh how disruptive an action would be.
package impact

import "github.com/processtriage/triage/internal/model"

// ChildIndex is the reverse parent->children index built once per
// snapshot (spec §4.E "Build a reverse index parent -> children").
type ChildIndex struct {
	byPID    map[int32]model.ProcessRecord
	children map[int32][]int32
}

// BuildChildIndex indexes a snapshot by pid and by parent pid, so that
// descendant enumeration for any target is a DFS rather than a
// full-snapshot scan (spec §4.E).
func BuildChildIndex(snap model.Snapshot) *ChildIndex {
	idx := &ChildIndex{
		byPID:    make(map[int32]model.ProcessRecord, len(snap.Records)),
		children: make(map[int32][]int32),
	}
	for _, r := range snap.Records {
		idx.byPID[r.PID] = r
	}
	for _, r := range snap.Records {
		if r.HasPPID {
			idx.children[r.PPID] = append(idx.children[r.PPID], r.PID)
		}
	}
	return idx
}

// Descendants enumerates every process reachable from rootPID by
// following the children index, including the root itself. A visited set
// guards against a pathological ppid cycle hanging the DFS (spec §4.E
// "Cycle guard").
func (idx *ChildIndex) Descendants(rootPID int32) []model.ProcessRecord {
	visited := make(map[int32]bool)
	var out []model.ProcessRecord

	var stack []int32
	if _, ok := idx.byPID[rootPID]; ok {
		stack = append(stack, rootPID)
	}
	for len(stack) > 0 {
		pid := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[pid] {
			continue
		}
		visited[pid] = true
		rec, ok := idx.byPID[pid]
		if !ok {
			continue
		}
		out = append(out, rec)
		for _, childPID := range idx.children[pid] {
			if !visited[childPID] {
				stack = append(stack, childPID)
			}
		}
	}
	return out
}

// Aggregate sums cpu/rss/io across a descendant set (including root) and
// tallies supervisor-level occurrences (spec §4.E "Resource aggregation").
type Aggregate struct {
	DescendantCount    int
	AggregateCPU       float64
	AggregateRSS       uint64
	AggregateIOBps     float64
	MaxSupervisorLevel model.SupervisorLevel
	SupervisorCounts   map[model.SupervisorLevel]int
}

func AggregateDescendants(records []model.ProcessRecord) Aggregate {
	agg := Aggregate{SupervisorCounts: make(map[model.SupervisorLevel]int)}
	agg.DescendantCount = len(records)
	for _, r := range records {
		agg.AggregateCPU += r.CPUUsageEWMA
		agg.AggregateRSS += r.RSSBytes
		agg.AggregateIOBps += float64(r.IOReadBps) + float64(r.IOWriteBps)
		agg.SupervisorCounts[r.SupervisorLevel]++
		if r.SupervisorLevel > agg.MaxSupervisorLevel {
			agg.MaxSupervisorLevel = r.SupervisorLevel
		}
	}
	return agg
}
