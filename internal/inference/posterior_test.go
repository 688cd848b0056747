package inference

import (
	"math"
	"testing"
	"time"

	"github.com/processtriage/triage/internal/config"
	"github.com/processtriage/triage/internal/model"
)

func mkRecord(cpuCores float64, rssBytes uint64, uptime time.Duration, state model.ProcessState) model.ProcessRecord {
	return model.ProcessRecord{
		PID:          100,
		StartID:      model.StartID{PID: 100, BootEpoch: 1},
		CPUUsageEWMA: cpuCores,
		RSSBytes:     rssBytes,
		Uptime:       uptime,
		State:        state,
	}
}

func TestComputePosterior_NormalizesToOne(t *testing.T) {
	priors := config.DefaultPriors()
	ev := DeriveEvidence(mkRecord(7.8, 500<<20, time.Hour, model.StateRunning), DefaultCeilings())
	scores, err := ComputePosterior(ev, priors)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sum := 0.0
	for _, c := range scores.Classes {
		sum += math.Exp(scores.Scores[c])
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("scores do not normalize: sum=%v", sum)
	}
}

func TestComputePosterior_RunawayScenarioClassifiesRunawayHighConfidence(t *testing.T) {
	priors := config.DefaultPriors()
	ev := DeriveEvidence(mkRecord(7.8, 500<<20, time.Hour, model.StateRunning), DefaultCeilings())
	scores, err := ComputePosterior(ev, priors)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cls := Classify(scores, config.ConfidenceBands{High: 2.0, Medium: 0.5})
	if cls.Class != config.ClassRunaway {
		t.Errorf("expected runaway classification, got %s (margin=%v)", cls.Class, cls.Margin)
	}
	if cls.Confidence != ConfidenceHigh {
		t.Errorf("expected High confidence given the extreme CPU evidence, got %s (margin=%v)", cls.Confidence, cls.Margin)
	}
}

func TestComputePosterior_Deterministic(t *testing.T) {
	priors := config.DefaultPriors()
	ev := DeriveEvidence(mkRecord(2, 200<<20, 30*time.Minute, model.StateSleeping), DefaultCeilings())
	s1, err := ComputePosterior(ev, priors)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s2, err := ComputePosterior(ev, priors)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, c := range s1.Classes {
		if s1.Scores[c] != s2.Scores[c] {
			t.Errorf("non-deterministic score for class %s: %v vs %v", c, s1.Scores[c], s2.Scores[c])
		}
	}
}

func TestComputePosterior_MonotonicInCPUUtilizationForRunaway(t *testing.T) {
	priors := config.DefaultPriors()
	low := DeriveEvidence(mkRecord(1, 100<<20, time.Hour, model.StateRunning), DefaultCeilings())
	high := DeriveEvidence(mkRecord(7, 100<<20, time.Hour, model.StateRunning), DefaultCeilings())

	sLow, err := ComputePosterior(low, priors)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sHigh, err := ComputePosterior(high, priors)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sHigh.Scores[config.ClassRunaway] < sLow.Scores[config.ClassRunaway] {
		t.Errorf("expected runaway score to increase with CPU: low=%v high=%v",
			sLow.Scores[config.ClassRunaway], sHigh.Scores[config.ClassRunaway])
	}
}

func TestComputePosterior_NoClassesIsPriorsMissing(t *testing.T) {
	priors := &config.Priors{SchemaVersion: config.CurrentSchemaVersion, Classes: map[config.Class]config.ClassParams{}}
	ev := DeriveEvidence(mkRecord(1, 1<<20, time.Minute, model.StateRunning), DefaultCeilings())
	_, err := ComputePosterior(ev, priors)
	if err == nil {
		t.Fatal("expected error for empty priors")
	}
	pe, ok := err.(*PosteriorError)
	if !ok || pe.Kind != PriorsMissing {
		t.Errorf("expected PriorsMissing, got %v", err)
	}
}

func TestClassify_BandsAppliedCorrectly(t *testing.T) {
	bands := config.ConfidenceBands{High: 2.0, Medium: 0.5}
	scores := ClassScores{
		Classes: []config.Class{config.ClassNormal, config.ClassRunaway},
		Scores:  map[config.Class]float64{config.ClassNormal: -0.1, config.ClassRunaway: -3.0},
	}
	c := Classify(scores, bands)
	if c.Class != config.ClassNormal {
		t.Fatalf("expected normal to win, got %s", c.Class)
	}
	if c.Confidence != ConfidenceHigh {
		t.Errorf("expected High confidence for margin 2.9, got %s", c.Confidence)
	}
}
