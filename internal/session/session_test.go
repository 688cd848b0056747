package session

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/processtriage/triage/internal/config"
	"github.com/processtriage/triage/internal/model"
)

func TestNewID_LexicographicallyIncreasesWithTime(t *testing.T) {
	t1 := time.Unix(1000, 0)
	t2 := time.Unix(2000, 0)
	id1, err := NewID(t1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id2, err := NewID(t2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !(string(id1) < string(id2)) {
		t.Errorf("expected id1 < id2, got %s vs %s", id1, id2)
	}
}

func TestCreate_WritesSnapshotAndConfigDocuments(t *testing.T) {
	root := t.TempDir()
	snap := model.Snapshot{CollectedAt: time.Now(), Records: []model.ProcessRecord{{PID: 1}}}
	cfgSnap := config.Snapshot{Combined: "abc123"}
	d, err := Create(root, snap, cfgSnap)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	loaded, err := d.LoadSnapshot()
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if len(loaded.Records) != 1 || loaded.Records[0].PID != 1 {
		t.Errorf("loaded snapshot mismatch: %+v", loaded)
	}
}

func TestList_ReturnsSortedSessionIDs(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 3; i++ {
		snap := model.Snapshot{CollectedAt: time.Unix(int64(i)*1000, 0)}
		if _, err := Create(root, snap, config.Snapshot{}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
	ids, err := List(root)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(ids))
	}
	for i := 1; i < len(ids); i++ {
		if ids[i-1] >= ids[i] {
			t.Errorf("expected sorted order, got %v", ids)
		}
	}
}

func TestList_MissingRootReturnsEmpty(t *testing.T) {
	ids, err := List(filepath.Join(t.TempDir(), "nonexistent"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("expected empty, got %v", ids)
	}
}
