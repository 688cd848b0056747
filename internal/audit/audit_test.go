package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/processtriage/triage/internal/errkind"
)

func TestLogger_AppendChainsHashes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := l.Append(KindDecision, map[string]interface{}{"pid": 1}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := l.Append(KindOutcome, map[string]interface{}{"pid": 1, "result": "verified"}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	n, err := VerifyChain(path)
	if err != nil {
		t.Fatalf("VerifyChain failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 verified entries, got %d", n)
	}
}

func TestLogger_AppendErrorRecordsKind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer l.Close()

	e := errkind.New(errkind.TargetGone, "process exited before dispatch")
	if err := l.AppendError(e); err != nil {
		t.Fatalf("AppendError failed: %v", err)
	}
}

func TestLogger_ReopenContinuesChain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	l1, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := l1.Append(KindDecision, map[string]interface{}{"step": 1}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := l1.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	l2, err := Open(path)
	if err != nil {
		t.Fatalf("reopening Open failed: %v", err)
	}
	if err := l2.Append(KindDecision, map[string]interface{}{"step": 2}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := l2.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	n, err := VerifyChain(path)
	if err != nil {
		t.Fatalf("VerifyChain failed after reopen: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 entries across both sessions, got %d", n)
	}
}

func TestVerifyChain_DetectsTampering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := l.Append(KindDecision, map[string]interface{}{"pid": 1}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading audit log: %v", err)
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		t.Fatalf("parsing audit entry: %v", err)
	}
	e.Payload["pid"] = 999 // tamper with the payload, keep the stale hash
	tampered, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshaling tampered entry: %v", err)
	}
	tampered = append(tampered, '\n')
	if err := os.WriteFile(path, tampered, 0o644); err != nil {
		t.Fatalf("writing tampered log: %v", err)
	}

	if _, err := VerifyChain(path); err == nil {
		t.Error("expected VerifyChain to detect tampered payload")
	}
}
