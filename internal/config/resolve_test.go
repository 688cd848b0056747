package config

import "testing"

func TestResolvePaths_FlagTakesPrecedenceOverEnv(t *testing.T) {
	t.Setenv(envConfigDir, "/from/env")
	p := ResolvePaths("/from/flag", "")
	if p.ConfigDir != "/from/flag" {
		t.Errorf("ConfigDir = %q, want /from/flag", p.ConfigDir)
	}
}

func TestResolvePaths_EnvTakesPrecedenceOverXDG(t *testing.T) {
	t.Setenv(envConfigDir, "/from/env")
	p := ResolvePaths("", "")
	if p.ConfigDir != "/from/env" {
		t.Errorf("ConfigDir = %q, want /from/env", p.ConfigDir)
	}
}

func TestResolvePaths_DocumentPathsDeriveFromConfigDir(t *testing.T) {
	p := ResolvePaths("/cfg", "/data")
	if p.PriorsPath != "/cfg/priors.yaml" {
		t.Errorf("PriorsPath = %q", p.PriorsPath)
	}
	if p.PolicyPath != "/cfg/policy.yaml" {
		t.Errorf("PolicyPath = %q", p.PolicyPath)
	}
}

func TestPaths_SubdirHelpers(t *testing.T) {
	p := ResolvePaths("/cfg", "/data")
	if p.SessionsDir() != "/data/sessions" {
		t.Errorf("SessionsDir = %q", p.SessionsDir())
	}
	if p.CapabilityDir() != "/data/capability" {
		t.Errorf("CapabilityDir = %q", p.CapabilityDir())
	}
	if p.AuditDir() != "/data/audit" {
		t.Errorf("AuditDir = %q", p.AuditDir())
	}
}
