package session

import (
	"testing"

	"github.com/processtriage/triage/internal/model"
)

func TestDiff_Reflexive(t *testing.T) {
	snap := model.Snapshot{Records: []model.ProcessRecord{
		{PID: 1, StartID: model.StartID{PID: 1, BootEpoch: 1}, Command: "a"},
	}}
	entries := Diff(snap, snap)
	if len(entries) != 0 {
		t.Errorf("expected no diff against self, got %v", entries)
	}
}

func TestDiff_DetectsAddedAndRemoved(t *testing.T) {
	base := model.Snapshot{Records: []model.ProcessRecord{
		{PID: 1, StartID: model.StartID{PID: 1, BootEpoch: 1}},
	}}
	compare := model.Snapshot{Records: []model.ProcessRecord{
		{PID: 2, StartID: model.StartID{PID: 2, BootEpoch: 1}},
	}}
	entries := Diff(base, compare)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	byKind := map[DeltaKind]int{}
	for _, e := range entries {
		byKind[e.Kind]++
	}
	if byKind[DeltaAdded] != 1 || byKind[DeltaRemoved] != 1 {
		t.Errorf("expected one Added and one Removed, got %v", byKind)
	}
}

func TestDiff_AntisymmetricOnFieldDirection(t *testing.T) {
	base := model.Snapshot{Records: []model.ProcessRecord{
		{PID: 1, StartID: model.StartID{PID: 1, BootEpoch: 1}},
	}}
	compare := model.Snapshot{Records: []model.ProcessRecord{
		{PID: 2, StartID: model.StartID{PID: 2, BootEpoch: 1}},
	}}
	forward := Diff(base, compare)
	backward := Diff(compare, base)
	fKinds := map[DeltaKind]bool{}
	for _, e := range forward {
		fKinds[e.Kind] = true
	}
	bKinds := map[DeltaKind]bool{}
	for _, e := range backward {
		bKinds[e.Kind] = true
	}
	if fKinds[DeltaAdded] != bKinds[DeltaRemoved] {
		t.Error("expected forward Added to correspond to backward Removed")
	}
}

func TestDiff_ChangedListsOnlyDifferingFields(t *testing.T) {
	id := model.StartID{PID: 1, BootEpoch: 1}
	base := model.Snapshot{Records: []model.ProcessRecord{
		{PID: 1, StartID: id, Command: "foo", CPUUsageEWMA: 1.0, RSSBytes: 100},
	}}
	compare := model.Snapshot{Records: []model.ProcessRecord{
		{PID: 1, StartID: id, Command: "foo", CPUUsageEWMA: 2.0, RSSBytes: 100},
	}}
	entries := Diff(base, compare)
	if len(entries) != 1 {
		t.Fatalf("expected 1 changed entry, got %d", len(entries))
	}
	if entries[0].Kind != DeltaChanged {
		t.Fatalf("expected Changed, got %s", entries[0].Kind)
	}
	if len(entries[0].FieldsChanged) != 1 || entries[0].FieldsChanged[0] != "cpu_usage_ewma" {
		t.Errorf("expected only cpu_usage_ewma to differ, got %v", entries[0].FieldsChanged)
	}
}

func TestDiff_NumericToleranceIgnoresTinyDifferences(t *testing.T) {
	id := model.StartID{PID: 1, BootEpoch: 1}
	base := model.Snapshot{Records: []model.ProcessRecord{{PID: 1, StartID: id, CPUUsageEWMA: 1.0}}}
	compare := model.Snapshot{Records: []model.ProcessRecord{{PID: 1, StartID: id, CPUUsageEWMA: 1.0 + 1e-12}}}
	entries := Diff(base, compare)
	if len(entries) != 0 {
		t.Errorf("expected tiny float difference to be tolerated, got %v", entries)
	}
}

func TestDiff_StableOrderingByStartID(t *testing.T) {
	base := model.Snapshot{}
	compare := model.Snapshot{Records: []model.ProcessRecord{
		{PID: 5, StartID: model.StartID{PID: 5, BootEpoch: 1}},
		{PID: 1, StartID: model.StartID{PID: 1, BootEpoch: 1}},
		{PID: 3, StartID: model.StartID{PID: 3, BootEpoch: 1}},
	}}
	entries := Diff(base, compare)
	for i := 1; i < len(entries); i++ {
		if entries[i-1].StartID.PID > entries[i].StartID.PID {
			t.Errorf("expected ascending pid order, got %v then %v", entries[i-1].StartID, entries[i].StartID)
		}
	}
}
