// Package audit is the tamper-evident trail for every decision, outcome,
// and caught error (spec §4.K "Audit logger", §7 "no error silently
// swallowed; every caught error produces exactly one log record").
//
// Entries are hash-chained: each carries a canonical SHA-256 hash of its
// own content plus the previous entry's hash, adapting the teacher's
// EscalationDecision DecisionHash/ParentHash Merkle-chain from its
// constitutional-compliance use case to a plain tamper-evident ledger.
package audit

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/processtriage/triage/internal/errkind"
)

// Kind names what an Entry records.
type Kind string

const (
	KindDecision Kind = "decision"
	KindOutcome  Kind = "outcome"
	KindError    Kind = "error"
	KindPolicy   Kind = "policy_violation"
)

// Entry is one tamper-evident record. EntryHash covers every other field
// except itself; ParentHash links to the previous entry's EntryHash,
// forming a chain rooted at "" (spec §4.K).
type Entry struct {
	Kind       Kind                   `json:"kind"`
	Timestamp  time.Time              `json:"timestamp"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	ParentHash string                 `json:"parent_hash"`
	EntryHash  string                 `json:"entry_hash"`
}

// Logger appends Entries to an audit.jsonl file, computing the hash
// chain and fsyncing at Close (spec §4.K "Append-only, fsync-on-close
// JSONL").
type Logger struct {
	mu       sync.Mutex
	f        *os.File
	w        *bufio.Writer
	lastHash string
}

// Open opens (or creates) path for append and recovers the chain's tip
// hash from the last line already on disk, so a reopened logger
// continues the same chain rather than restarting it.
func Open(path string) (*Logger, error) {
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading existing audit log: %w", err)
	}
	lastHash := tipHash(existing)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	return &Logger{f: f, w: bufio.NewWriter(f), lastHash: lastHash}, nil
}

func tipHash(data []byte) string {
	lines := bytes.Split(bytes.TrimRight(data, "\n"), []byte("\n"))
	for i := len(lines) - 1; i >= 0; i-- {
		if len(lines[i]) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(lines[i], &e); err == nil {
			return e.EntryHash
		}
	}
	return ""
}

// Append writes one hash-chained entry.
func (l *Logger) Append(kind Kind, payload map[string]interface{}) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	e := Entry{Kind: kind, Timestamp: time.Now(), Payload: payload, ParentHash: l.lastHash}
	e.EntryHash = computeHash(e)
	l.lastHash = e.EntryHash

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshaling audit entry: %w", err)
	}
	data = append(data, '\n')
	if _, err := l.w.Write(data); err != nil {
		return fmt.Errorf("writing audit entry: %w", err)
	}
	return nil
}

// AppendError records a caught error as exactly one audit entry, per
// spec §7's "no error silently swallowed" guarantee.
func (l *Logger) AppendError(err error) error {
	return l.Append(KindError, map[string]interface{}{
		"error_kind": string(errkind.Of(err)),
		"message":    err.Error(),
	})
}

// Close flushes, fsyncs, and closes the underlying file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.w.Flush(); err != nil {
		l.f.Close()
		return fmt.Errorf("flushing audit log: %w", err)
	}
	if err := l.f.Sync(); err != nil {
		l.f.Close()
		return fmt.Errorf("syncing audit log: %w", err)
	}
	return l.f.Close()
}

func computeHash(e Entry) string {
	canonical := map[string]interface{}{
		"kind":        e.Kind,
		"timestamp":   e.Timestamp.UnixNano(),
		"payload":     e.Payload,
		"parent_hash": e.ParentHash,
	}
	data, _ := json.Marshal(canonical)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
