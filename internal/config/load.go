package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadPriors reads priors.yaml at path, overlaying it onto DefaultPriors()
// and validating the result. A missing file is not an error: the built-in
// defaults are returned unchanged (spec §6 "absent config documents fall
// back to embedded defaults").
func LoadPriors(path string) (*Priors, error) {
	p := DefaultPriors()
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return p, nil
		}
		return nil, fmt.Errorf("reading priors document: %w", err)
	}
	if err := yaml.Unmarshal(raw, p); err != nil {
		return nil, fmt.Errorf("parsing priors document: %w", err)
	}
	if err := ValidatePriors(p); err != nil {
		return nil, err
	}
	return p, nil
}

// LoadPolicy reads policy.yaml at path, overlaying it onto DefaultPolicy()
// and validating the result. A missing file falls back to built-in
// defaults, mirroring LoadPriors.
func LoadPolicy(path string) (*Policy, error) {
	p := DefaultPolicy()
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return p, nil
		}
		return nil, fmt.Errorf("reading policy document: %w", err)
	}
	if err := yaml.Unmarshal(raw, p); err != nil {
		return nil, fmt.Errorf("parsing policy document: %w", err)
	}
	if err := ValidatePolicy(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Bundle is the pair of documents a session or CLI invocation resolves
// against (spec §3 "Priors & Policy model").
type Bundle struct {
	Priors *Priors
	Policy *Policy
	Paths  Paths
}

// Load resolves paths per ResolvePaths and loads both documents.
func Load(flagConfigDir, flagDataDir string) (*Bundle, error) {
	paths := ResolvePaths(flagConfigDir, flagDataDir)
	priors, err := LoadPriors(paths.PriorsPath)
	if err != nil {
		return nil, fmt.Errorf("loading priors: %w", err)
	}
	policy, err := LoadPolicy(paths.PolicyPath)
	if err != nil {
		return nil, fmt.Errorf("loading policy: %w", err)
	}
	return &Bundle{Priors: priors, Policy: policy, Paths: paths}, nil
}
