package inference

import (
	"testing"
	"time"

	"github.com/processtriage/triage/internal/config"
	"github.com/processtriage/triage/internal/model"
)

func TestBuildLedger_SortedByAbsLogBFDescending(t *testing.T) {
	priors := config.DefaultPriors()
	ev := DeriveEvidence(mkRecord(7.8, 500<<20, time.Hour, model.StateRunning), DefaultCeilings())
	entries, err := BuildLedger(ev, priors, config.ClassRunaway, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 1; i < len(entries); i++ {
		if absf(entries[i].LogBF) > absf(entries[i-1].LogBF) {
			t.Errorf("ledger not sorted: entry %d (%v) > entry %d (%v)", i, entries[i].LogBF, i-1, entries[i-1].LogBF)
		}
	}
}

func TestBuildLedger_TopKTruncates(t *testing.T) {
	priors := config.DefaultPriors()
	ev := DeriveEvidence(mkRecord(7.8, 500<<20, time.Hour, model.StateRunning), DefaultCeilings())
	entries, err := BuildLedger(ev, priors, config.ClassRunaway, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 5 {
		t.Errorf("expected 5 entries, got %d", len(entries))
	}
}

func TestBuildLedger_EveryEntryHasGlyph(t *testing.T) {
	priors := config.DefaultPriors()
	ev := DeriveEvidence(mkRecord(2, 100<<20, time.Hour, model.StateSleeping), DefaultCeilings())
	entries, err := BuildLedger(ev, priors, config.ClassNormal, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, e := range entries {
		if e.Glyph == "" {
			t.Errorf("entry for feature %s has no glyph", e.Feature)
		}
	}
}

func TestBuildLedger_DeterministicOrdering(t *testing.T) {
	priors := config.DefaultPriors()
	ev := DeriveEvidence(mkRecord(7.8, 500<<20, time.Hour, model.StateRunning), DefaultCeilings())
	e1, err := BuildLedger(ev, priors, config.ClassRunaway, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e2, err := BuildLedger(ev, priors, config.ClassRunaway, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(e1) != len(e2) {
		t.Fatalf("length mismatch: %d vs %d", len(e1), len(e2))
	}
	for i := range e1 {
		if e1[i].Feature != e2[i].Feature {
			t.Errorf("ordering mismatch at %d: %s vs %s", i, e1[i].Feature, e2[i].Feature)
		}
	}
}

func TestDirectionFor_Bands(t *testing.T) {
	if directionFor(1.0) != DirectionFor {
		t.Error("expected For")
	}
	if directionFor(-1.0) != DirectionAgainst {
		t.Error("expected Against")
	}
	if directionFor(0.01) != DirectionNeutral {
		t.Error("expected Neutral")
	}
}
