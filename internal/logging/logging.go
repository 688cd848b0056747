// Package logging builds the zap.Logger threaded through the session
// and CLI (spec §2 "Logging" ambient stack), grounded on the teacher's
// cmd/octoreflex buildLogger: zap.NewProductionConfig for JSON output,
// zap.NewDevelopmentConfig for the console encoder, level parsed from a
// string.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Format selects the log encoder.
type Format string

const (
	FormatJSON    Format = "json"
	FormatConsole Format = "console"
)

// Build constructs a *zap.Logger at the given level and format. level
// must parse as a zapcore.Level ("debug", "info", "warn", "error").
func Build(level string, format Format) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var cfg zap.Config
	if format == FormatConsole {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	return cfg.Build()
}

// Nop returns a logger that discards everything, for tests and library
// callers that don't want process-triage's own logging opinions.
func Nop() *zap.Logger { return zap.NewNop() }
