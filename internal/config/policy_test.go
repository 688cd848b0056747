package config

import "testing"

func TestDefaultPolicy_Valid(t *testing.T) {
	if err := ValidatePolicy(DefaultPolicy()); err != nil {
		t.Fatalf("DefaultPolicy() failed validation: %v", err)
	}
}

func TestDefaultPolicy_DecisionTableCoversAllClassSeverityPairs(t *testing.T) {
	p := DefaultPolicy()
	for _, c := range DefaultClasses {
		for _, sev := range []string{"Low", "Medium", "High", "Critical"} {
			key := string(c) + "/" + sev
			if _, ok := p.Decision.DecisionTable[key]; !ok {
				t.Errorf("decision table missing entry for %s", key)
			}
		}
	}
}

func TestDefaultPolicy_ProtectedPatternsIncludeSshd(t *testing.T) {
	p := DefaultPolicy()
	found := false
	for _, pp := range p.ProtectedPatterns {
		if pp.Kind == PatternLiteral && pp.Pattern == "sshd" {
			found = true
		}
	}
	if !found {
		t.Error("expected default policy to protect sshd")
	}
}

func TestValidatePolicy_RejectsBadConfidenceBands(t *testing.T) {
	p := DefaultPolicy()
	p.Decision.ConfidenceBands.High = 0.1
	p.Decision.ConfidenceBands.Medium = 0.5
	if err := ValidatePolicy(p); err == nil {
		t.Error("expected error when high <= medium")
	}
}

func TestValidatePolicy_RejectsBadRateLimitWindow(t *testing.T) {
	p := DefaultPolicy()
	p.RateLimit.Minute.Limit = -1
	if err := ValidatePolicy(p); err == nil {
		t.Error("expected error for negative rate limit")
	}
}

func TestValidatePolicy_RejectsUnknownSchemaVersion(t *testing.T) {
	p := DefaultPolicy()
	p.SchemaVersion = "99"
	if err := ValidatePolicy(p); err == nil {
		t.Error("expected error for mismatched schema version")
	}
}

func TestValidatePolicy_RejectsInvalidPatternKind(t *testing.T) {
	p := DefaultPolicy()
	p.ProtectedPatterns = append(p.ProtectedPatterns, ProtectedPattern{Kind: "fuzzy", Pattern: "x"})
	if err := ValidatePolicy(p); err == nil {
		t.Error("expected error for unknown pattern kind")
	}
}
