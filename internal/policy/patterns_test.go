package policy

import (
	"testing"

	"github.com/processtriage/triage/internal/config"
)

func TestCompilePatterns_LiteralMatchesExactly(t *testing.T) {
	cps, err := CompilePatterns([]config.ProtectedPattern{{Kind: config.PatternLiteral, Pattern: "sshd"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !AnyMatches(cps, "sshd") {
		t.Error("expected exact match")
	}
	if AnyMatches(cps, "sshd-helper") {
		t.Error("literal should not match a superstring")
	}
}

func TestCompilePatterns_GlobMatchesWildcard(t *testing.T) {
	cps, err := CompilePatterns([]config.ProtectedPattern{{Kind: config.PatternGlob, Pattern: "kube*"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !AnyMatches(cps, "kubelet") {
		t.Error("expected glob to match kubelet")
	}
	if AnyMatches(cps, "mykube") {
		t.Error("anchored glob should not match a prefix-free variant")
	}
}

func TestCompilePatterns_RegexMatches(t *testing.T) {
	cps, err := CompilePatterns([]config.ProtectedPattern{{Kind: config.PatternRegex, Pattern: "^sys(tem)?d$"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !AnyMatches(cps, "systemd") {
		t.Error("expected regex match for systemd")
	}
	if !AnyMatches(cps, "sysd") {
		t.Error("expected regex match for sysd")
	}
}

func TestCompilePatterns_InvalidRegexErrors(t *testing.T) {
	_, err := CompilePatterns([]config.ProtectedPattern{{Kind: config.PatternRegex, Pattern: "(unclosed"}})
	if err == nil {
		t.Error("expected error for invalid regex")
	}
}

func TestCompilePatterns_UnrecognizedKindErrors(t *testing.T) {
	_, err := CompilePatterns([]config.ProtectedPattern{{Kind: "mystery", Pattern: "x"}})
	if err == nil {
		t.Error("expected error for unrecognized pattern kind")
	}
}
