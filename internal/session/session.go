// Package session manages the on-disk session directory structure (spec
// §4.H, §3 "Session"): a lexicographically sortable session_id, its
// event log, snapshot, config snapshot, and outcome, plus the in-process
// event bus that feeds them.
package session

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/processtriage/triage/internal/config"
	"github.com/processtriage/triage/internal/model"
)

// ID is a monotonic, lexicographically sortable session identifier: a
// millisecond timestamp prefix followed by random bits, in the spirit of
// a ULID (spec §3 "session_id (lexicographically sortable, e.g.
// ULID-like)"). No ULID library appears anywhere in the example corpus,
// so this is a small hand-rolled encoder over crypto/rand rather than an
// imported dependency.
type ID string

// NewID generates a new session ID for timestamp t.
func NewID(t time.Time) (ID, error) {
	var randBits [10]byte
	if _, err := rand.Read(randBits[:]); err != nil {
		return "", fmt.Errorf("generating session id: %w", err)
	}
	ms := uint64(t.UnixMilli())
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], ms)
	copy(buf[8:], randBits[:])
	return ID(hex.EncodeToString(buf[:])), nil
}

// Dir describes one session's on-disk layout under a sessions root.
type Dir struct {
	Root string
	ID   ID
}

func (d Dir) Path() string           { return filepath.Join(d.Root, string(d.ID)) }
func (d Dir) EventsPath() string     { return filepath.Join(d.Path(), "events.jsonl") }
func (d Dir) SnapshotPath() string   { return filepath.Join(d.Path(), "snapshot.json") }
func (d Dir) ConfigPath() string     { return filepath.Join(d.Path(), "config.json") }
func (d Dir) OutcomePath() string    { return filepath.Join(d.Path(), "outcome.json") }

// Create creates a new session directory and writes its initial snapshot
// and config documents (spec §3 "Lifecycle: created by snapshot").
func Create(root string, snap model.Snapshot, cfgSnapshot config.Snapshot) (*Dir, error) {
	id, err := NewID(snap.CollectedAt)
	if err != nil {
		return nil, err
	}
	d := &Dir{Root: root, ID: id}
	if err := os.MkdirAll(d.Path(), 0o755); err != nil {
		return nil, fmt.Errorf("creating session dir: %w", err)
	}
	if err := writeJSON(d.SnapshotPath(), snap); err != nil {
		return nil, err
	}
	if err := writeJSON(d.ConfigPath(), cfgSnapshot); err != nil {
		return nil, err
	}
	return d, nil
}

// Open opens an existing session directory by id.
func Open(root string, id ID) *Dir {
	return &Dir{Root: root, ID: id}
}

// List returns every session id under root, sorted (lexicographic order
// matches chronological order by construction).
func List(root string) ([]ID, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	ids := make([]ID, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			ids = append(ids, ID(e.Name()))
		}
	}
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
	return ids, nil
}
