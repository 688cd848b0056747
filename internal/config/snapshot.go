package config

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Snapshot is the hash of a priors/policy pairing recorded into every
// session's config.json (spec §3 "Session ... config snapshot hash"), so
// that comparing two sessions' hashes tells whether the runs used the
// same effective configuration without storing the full documents twice.
type Snapshot struct {
	PriorsHash string `json:"priors_hash"`
	PolicyHash string `json:"policy_hash"`
	Combined   string `json:"combined_hash"`
}

// Snapshot computes the config snapshot for this bundle. Hashing is over
// the canonical JSON encoding rather than the YAML source so that
// formatting-only edits (comments, key order, whitespace) do not change
// the hash.
func (b *Bundle) Snapshot() (Snapshot, error) {
	priorsHash, err := hashJSON(b.Priors)
	if err != nil {
		return Snapshot{}, err
	}
	policyHash, err := hashJSON(b.Policy)
	if err != nil {
		return Snapshot{}, err
	}
	combined, err := hashJSON(struct {
		Priors string `json:"priors"`
		Policy string `json:"policy"`
	}{priorsHash, policyHash})
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{PriorsHash: priorsHash, PolicyHash: policyHash, Combined: combined}, nil
}

func hashJSON(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
