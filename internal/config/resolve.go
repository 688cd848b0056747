package config

import (
	"os"
	"path/filepath"
)

// Paths holds the resolved on-disk locations of every Process Triage
// configuration document and data directory (spec §6 "Configuration
// resolution order").
type Paths struct {
	ConfigDir string
	DataDir   string
	PriorsPath string
	PolicyPath string
}

const (
	envConfigDir = "PROCESS_TRIAGE_CONFIG"
	envDataDir   = "PROCESS_TRIAGE_DATA"
	appDirName   = "process-triage"
)

// ResolvePaths applies spec §6's resolution order: explicit CLI flag,
// then environment variable, then XDG base directory, then a
// platform-appropriate fallback. flagConfigDir/flagDataDir may be empty.
func ResolvePaths(flagConfigDir, flagDataDir string) Paths {
	return Paths{
		ConfigDir:  resolveOne(flagConfigDir, envConfigDir, xdgConfigHome),
		DataDir:    resolveOne(flagDataDir, envDataDir, xdgDataHome),
		PriorsPath: "",
		PolicyPath: "",
	}.withDocumentPaths()
}

func (p Paths) withDocumentPaths() Paths {
	p.PriorsPath = filepath.Join(p.ConfigDir, "priors.yaml")
	p.PolicyPath = filepath.Join(p.ConfigDir, "policy.yaml")
	return p
}

func resolveOne(flagVal, envVar string, xdgFallback func() string) string {
	if flagVal != "" {
		return flagVal
	}
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	return xdgFallback()
}

func xdgConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, appDirName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "."+appDirName)
	}
	return filepath.Join(home, ".config", appDirName)
}

func xdgDataHome() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return filepath.Join(v, appDirName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "."+appDirName, "data")
	}
	return filepath.Join(home, ".local", "share", appDirName)
}

// EnsureDataDirs creates the session and capability-cache subdirectories
// under DataDir if they do not already exist.
func (p Paths) EnsureDataDirs() error {
	for _, sub := range []string{"sessions", "capability", "audit"} {
		if err := os.MkdirAll(filepath.Join(p.DataDir, sub), 0o755); err != nil {
			return err
		}
	}
	return nil
}

// SessionsDir, CapabilityDir, AuditDir are the conventional subdirectories
// of DataDir (spec §3 "Session", "Capabilities", and the audit log).
func (p Paths) SessionsDir() string   { return filepath.Join(p.DataDir, "sessions") }
func (p Paths) CapabilityDir() string { return filepath.Join(p.DataDir, "capability") }
func (p Paths) AuditDir() string      { return filepath.Join(p.DataDir, "audit") }
