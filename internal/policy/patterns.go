// Package policy implements the strictly ordered enforcement pipeline
// that gates a decision engine's Plan before execution (spec §4.G):
// protected patterns, blast-radius caps, per-session kill caps, sliding
// window rate limits, and the alpha-investing FDR gate.
package policy

import (
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/processtriage/triage/internal/config"
)

// CompiledPattern is a ProtectedPattern ready for repeated matching
// without re-parsing a glob/regex on every candidate.
type CompiledPattern struct {
	Kind    config.PatternKind
	Literal string
	Regex   *regexp.Regexp // non-nil for Glob and Regex kinds
}

// CompilePatterns pre-compiles every protected pattern once so the
// enforcer's hot path never recompiles a regex per candidate.
func CompilePatterns(patterns []config.ProtectedPattern) ([]CompiledPattern, error) {
	out := make([]CompiledPattern, 0, len(patterns))
	for _, p := range patterns {
		cp := CompiledPattern{Kind: p.Kind}
		switch p.Kind {
		case config.PatternLiteral:
			cp.Literal = p.Pattern
		case config.PatternGlob:
			re, err := globToRegexp(p.Pattern)
			if err != nil {
				return nil, fmt.Errorf("compiling glob pattern %q: %w", p.Pattern, err)
			}
			cp.Regex = re
		case config.PatternRegex:
			re, err := regexp.Compile(p.Pattern)
			if err != nil {
				return nil, fmt.Errorf("compiling regex pattern %q: %w", p.Pattern, err)
			}
			cp.Regex = re
		default:
			return nil, fmt.Errorf("unrecognized pattern kind %q", p.Kind)
		}
		out = append(out, cp)
	}
	return out, nil
}

// Matches reports whether command matches this compiled pattern.
func (c CompiledPattern) Matches(command string) bool {
	switch c.Kind {
	case config.PatternLiteral:
		return command == c.Literal
	default:
		return c.Regex.MatchString(command)
	}
}

// AnyMatches reports whether command matches any pattern in the set (spec
// §4.G.1 "If any matches the target, reject").
func AnyMatches(patterns []CompiledPattern, command string) bool {
	for _, p := range patterns {
		if p.Matches(command) {
			return true
		}
	}
	return false
}

// globToRegexp translates a shell-style glob (using filepath.Match
// semantics: '*' any run, '?' one char) into an anchored regexp, so glob
// matching shares the same compiled-matcher path as literal/regex.
func globToRegexp(glob string) (*regexp.Regexp, error) {
	if _, err := filepath.Match(glob, ""); err != nil {
		return nil, err
	}
	var out []byte
	out = append(out, '^')
	for i := 0; i < len(glob); i++ {
		c := glob[i]
		switch c {
		case '*':
			out = append(out, '.', '*')
		case '?':
			out = append(out, '.')
		case '.', '+', '(', ')', '|', '[', ']', '{', '}', '^', '$', '\\':
			out = append(out, '\\', c)
		default:
			out = append(out, c)
		}
	}
	out = append(out, '$')
	return regexp.Compile(string(out))
}
