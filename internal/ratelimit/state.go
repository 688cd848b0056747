package ratelimit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"
)

// persistedEntry is one recorded admission, serialized with its action
// kind so a shared state file can back limiters for multiple action kinds
// (spec §3 "RateLimitState ... sliding deques of (timestamp,
// action_kind)").
type persistedEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Window    WindowName `json:"window"`
	ActionKind string    `json:"action_kind"`
}

type persistedState struct {
	Entries []persistedEntry `json:"entries"`
}

// Store persists Limiter state to a single JSON file guarded by an
// advisory exclusive file lock, enforcing the single-writer invariant
// spec §9 calls out for RateLimitState.
type Store struct {
	path string
}

// NewStore opens (without yet locking) the rate-limit state file at path.
func NewStore(path string) *Store { return &Store{path: path} }

// Load reads the persisted state, quarantining and reinitializing on
// parse failure rather than propagating a corrupt file upward (spec §3
// "corrupt files are quarantined and re-initialized").
func (s *Store) Load() (map[string][]persistedEntry, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string][]persistedEntry{}, nil
		}
		return nil, fmt.Errorf("reading rate limit state: %w", err)
	}
	var byAction map[string][]persistedEntry
	if err := json.Unmarshal(raw, &byAction); err != nil {
		if qerr := s.quarantine(raw); qerr != nil {
			return nil, fmt.Errorf("parsing rate limit state failed (%v) and quarantine failed: %w", err, qerr)
		}
		return map[string][]persistedEntry{}, nil
	}
	return byAction, nil
}

func (s *Store) quarantine(raw []byte) error {
	quarantinePath := s.path + fmt.Sprintf(".corrupt.%d", time.Now().UnixNano())
	return os.WriteFile(quarantinePath, raw, 0o600)
}

// Save writes byAction atomically under an advisory exclusive lock on a
// sibling .lock file: take the lock, write a temp file, then rename it into
// place, so a concurrent reader never observes a half-written file.
func (s *Store) Save(byAction map[string][]persistedEntry) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating rate limit state dir: %w", err)
	}
	lockPath := s.path + ".lock"
	lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return fmt.Errorf("opening rate limit lock: %w", err)
	}
	defer lockFile.Close()

	if err := unix.Flock(int(lockFile.Fd()), unix.LOCK_EX); err != nil {
		return fmt.Errorf("locking rate limit state: %w", err)
	}
	defer unix.Flock(int(lockFile.Fd()), unix.LOCK_UN)

	data, err := json.Marshal(byAction)
	if err != nil {
		return fmt.Errorf("marshaling rate limit state: %w", err)
	}
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("writing rate limit state: %w", err)
	}
	return os.Rename(tmpPath, s.path)
}
