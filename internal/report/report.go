// Package report renders a single-file HTML summary of a read bundle
// (spec §2 "the report generator renders HTML... plumbing
// around the core"). Uses html/template (stdlib); no pack repo carries a
// templating engine for this, so there is nothing to ground the choice
// of library on beyond the standard library itself.
package report

import (
	"bytes"
	"encoding/json"
	"html/template"
	"time"

	"github.com/processtriage/triage/internal/bundle"
	"github.com/processtriage/triage/internal/telemetry"
)

// Data is the view model handed to the HTML template. Kept flat and
// pre-computed so the template itself has no business logic.
type Data struct {
	SessionID   string
	Profile     bundle.Profile
	GeneratedAt time.Time
	BundleID    string
	Inferences  []InferenceRow
	Outcomes    []OutcomeRow
}

type InferenceRow struct {
	PID        int32
	Class      string
	Confidence string
	Margin     float64
}

type OutcomeRow struct {
	PID         int32
	ActionKind  string
	State       string
	FailureKind string
}

// FromBundle builds report Data from an already-read bundle, decoding
// whichever of the proc_inference/outcomes tables that profile included.
func FromBundle(b *bundle.Bundle, generatedAt time.Time) (Data, error) {
	d := Data{
		SessionID:   b.Manifest.SessionID,
		Profile:     b.Manifest.Profile,
		GeneratedAt: generatedAt,
		BundleID:    b.Manifest.BundleID,
	}

	if raw, ok := b.Files["proc_inference.ndjson"]; ok {
		rows, err := decodeInferenceRows(raw)
		if err != nil {
			return Data{}, err
		}
		d.Inferences = rows
	}
	if raw, ok := b.Files["outcomes.ndjson"]; ok {
		rows, err := decodeOutcomeRows(raw)
		if err != nil {
			return Data{}, err
		}
		d.Outcomes = rows
	}
	return d, nil
}

func decodeInferenceRows(raw []byte) ([]InferenceRow, error) {
	var rows []InferenceRow
	for _, line := range splitLines(raw) {
		var r telemetry.ProcInferenceRow
		if err := json.Unmarshal(line, &r); err != nil {
			return nil, err
		}
		rows = append(rows, InferenceRow{PID: r.PID, Class: r.Class, Confidence: r.Confidence, Margin: r.Margin})
	}
	return rows, nil
}

func decodeOutcomeRows(raw []byte) ([]OutcomeRow, error) {
	var rows []OutcomeRow
	for _, line := range splitLines(raw) {
		var r telemetry.OutcomeRow
		if err := json.Unmarshal(line, &r); err != nil {
			return nil, err
		}
		rows = append(rows, OutcomeRow{PID: r.PID, ActionKind: r.ActionKind, State: r.State, FailureKind: r.FailureKind})
	}
	return rows, nil
}

func splitLines(raw []byte) [][]byte {
	var lines [][]byte
	start := 0
	for i, b := range raw {
		if b == '\n' {
			if i > start {
				lines = append(lines, raw[start:i])
			}
			start = i + 1
		}
	}
	if start < len(raw) {
		lines = append(lines, raw[start:])
	}
	return lines
}

// Render executes the report template against d and returns the
// resulting HTML document.
func Render(d Data) ([]byte, error) {
	tmpl, err := template.New("report").Parse(reportTemplate)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
