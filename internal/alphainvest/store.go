package alphainvest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// persistedPolicy is the on-disk shape of Policy, omitting History beyond
// a bounded tail so the state file does not grow without limit.
type persistedPolicy struct {
	Wealth    float64  `json:"wealth"`
	Step      int      `json:"step"`
	Gamma     float64  `json:"gamma"`
	History   []Record `json:"history"`
	BootEpoch int64    `json:"boot_epoch"`
}

const maxPersistedHistory = 256

// Store persists a Policy's wealth/step/history to a JSON file under an
// advisory exclusive lock, mirroring ratelimit.Store's single-writer
// discipline (spec §9 "Global rate-limit and alpha-investing state").
type Store struct {
	path string
}

func NewStore(path string) *Store { return &Store{path: path} }

// Load reads the persisted policy. If ResetOnReboot is true, the caller
// is expected to have already detected a reboot (by comparing boot ids)
// and to call Reset instead of Load — Load itself just returns whatever
// is on disk, or a fresh Policy if none exists (spec §9 Open Question b,
// resolved by config.AlphaInvestingConfig.ResetOnReboot).
func (s *Store) Load(initialWealth, gamma float64) (*Policy, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewPolicy(initialWealth, gamma), nil
		}
		return nil, fmt.Errorf("reading alpha-investing state: %w", err)
	}
	var pp persistedPolicy
	if err := json.Unmarshal(raw, &pp); err != nil {
		return NewPolicy(initialWealth, gamma), nil
	}
	return &Policy{Wealth: pp.Wealth, Step: pp.Step, Gamma: pp.Gamma, History: pp.History, BootEpoch: pp.BootEpoch}, nil
}

// LoadWithBootCheck loads the persisted policy, then resets it when
// resetOnReboot is set and currentBootEpoch does not match the boot the
// persisted wealth was stamped with — a reboot changed the host's process
// population enough that accumulated FDR wealth no longer reflects a
// continuous decision stream (spec §9 Open Question (b), resolved by
// config.AlphaInvestingConfig.ResetOnReboot).
func (s *Store) LoadWithBootCheck(initialWealth, gamma float64, currentBootEpoch int64, resetOnReboot bool) (*Policy, error) {
	p, err := s.Load(initialWealth, gamma)
	if err != nil {
		return nil, err
	}
	if resetOnReboot && p.BootEpoch != 0 && p.BootEpoch != currentBootEpoch {
		return s.Reset(initialWealth, gamma, currentBootEpoch)
	}
	if p.BootEpoch == 0 {
		p.BootEpoch = currentBootEpoch
	}
	return p, nil
}

// Save persists p under an advisory exclusive lock, truncating history to
// its most recent entries.
func (s *Store) Save(p *Policy) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating alpha-investing state dir: %w", err)
	}
	lockPath := s.path + ".lock"
	lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return fmt.Errorf("opening alpha-investing lock: %w", err)
	}
	defer lockFile.Close()

	if err := unix.Flock(int(lockFile.Fd()), unix.LOCK_EX); err != nil {
		return fmt.Errorf("locking alpha-investing state: %w", err)
	}
	defer unix.Flock(int(lockFile.Fd()), unix.LOCK_UN)

	history := p.History
	if len(history) > maxPersistedHistory {
		history = history[len(history)-maxPersistedHistory:]
	}
	data, err := json.Marshal(persistedPolicy{Wealth: p.Wealth, Step: p.Step, Gamma: p.Gamma, History: history, BootEpoch: p.BootEpoch})
	if err != nil {
		return fmt.Errorf("marshaling alpha-investing state: %w", err)
	}
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("writing alpha-investing state: %w", err)
	}
	return os.Rename(tmpPath, s.path)
}

// Reset discards persisted wealth and starts fresh, used when
// ResetOnReboot is true and a new boot has been detected.
func (s *Store) Reset(initialWealth, gamma float64, bootEpoch int64) (*Policy, error) {
	p := NewPolicyAtBoot(initialWealth, gamma, bootEpoch)
	if err := s.Save(p); err != nil {
		return nil, err
	}
	return p, nil
}
