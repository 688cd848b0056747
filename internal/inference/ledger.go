package inference

import (
	"fmt"
	"sort"

	"github.com/processtriage/triage/internal/config"
	"github.com/processtriage/triage/internal/mathx"
)

// Direction is which way a feature's Bayes factor points the classification
// (spec §3 "BayesFactorEntry.direction").
type Direction string

const (
	DirectionFor     Direction = "For"
	DirectionAgainst Direction = "Against"
	DirectionNeutral Direction = "Neutral"
)

// directionEpsilon is the neutral-zone half-width (spec §4.D, default 0.05).
const directionEpsilon = 0.05

// BayesFactorEntry is one feature's evidentiary weight for the winning
// class against every other declared class (spec §3, §4.D).
type BayesFactorEntry struct {
	Feature string
	Class   config.Class
	LogBF   float64
	Glyph   string
	Direction Direction
}

// glyphMap is the fixed, declared feature -> symbolic token mapping (spec
// §4.D "Glyph map"). Every feature name evidenceTerms can emit MUST have
// an entry here; BuildLedger fails closed otherwise.
var glyphMap = map[string]string{
	"cpu.utilization":       "⚡",
	"cpu.steady":            "≈",
	"cpu.growing":           "↗",
	"mem.utilization":       "▣",
	"io.bytes_per_sec":      "⇄",
	"lifetime.uptime":       "⏱",
	"lifetime.transitioned": "⇌",
	"supervisor.level":      "☗",
	"cgroup.throttled":      "⧖",
}

// UnknownFeatureError is returned when a computed evidence term has no
// declared glyph (spec §4.D "fails closed").
type UnknownFeatureError struct {
	Feature string
}

func (e *UnknownFeatureError) Error() string {
	return fmt.Sprintf("evidence ledger: no glyph declared for feature %q", e.Feature)
}

// BuildLedger computes, for the winning class, every evidence term's log
// Bayes factor against the rest of the declared classes (spec §4.D),
// sorted by |log_bf| descending with a lexicographic tie-break on feature
// name, and returns the top k entries.
func BuildLedger(ev Evidence, priors *config.Priors, winner config.Class, k int) ([]BayesFactorEntry, error) {
	winnerParams, err := priors.ClassParamsFor(winner)
	if err != nil {
		return nil, err
	}
	winnerTerms, err := evidenceTerms(ev, winnerParams)
	if err != nil {
		return nil, err
	}

	// Pre-compute each rival class's log-prior + per-term log-likelihood,
	// indexed by feature name, so the rest-of-world denominator can be
	// assembled per feature.
	type rival struct {
		logPrior float64
		terms    map[string]float64
	}
	rivals := make([]rival, 0, len(priors.Classes))
	for c, cp := range priors.Classes {
		if c == winner {
			continue
		}
		terms, err := evidenceTerms(ev, cp)
		if err != nil {
			return nil, err
		}
		tm := make(map[string]float64, len(terms))
		for _, t := range terms {
			tm[t.feature] = t.logLik
		}
		rivals = append(rivals, rival{logPrior: cp.LogPrior, terms: tm})
	}

	entries := make([]BayesFactorEntry, 0, len(winnerTerms))
	for _, t := range winnerTerms {
		glyph, ok := glyphMap[t.feature]
		if !ok {
			return nil, &UnknownFeatureError{Feature: t.feature}
		}
		if len(rivals) == 0 {
			entries = append(entries, BayesFactorEntry{
				Feature: t.feature, Class: winner, LogBF: t.logLik, Glyph: glyph,
				Direction: directionFor(t.logLik),
			})
			continue
		}
		denomTerms := make([]float64, 0, len(rivals))
		for _, rv := range rivals {
			ll, ok := rv.terms[t.feature]
			if !ok {
				ll = 0
			}
			denomTerms = append(denomTerms, rv.logPrior+ll)
		}
		denom := mathx.LogSumExp(denomTerms)
		logBF := t.logLik - denom
		entries = append(entries, BayesFactorEntry{
			Feature:   t.feature,
			Class:     winner,
			LogBF:     logBF,
			Glyph:     glyph,
			Direction: directionFor(logBF),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		ai, aj := absf(entries[i].LogBF), absf(entries[j].LogBF)
		if ai != aj {
			return ai > aj
		}
		return entries[i].Feature < entries[j].Feature
	})

	if k > 0 && k < len(entries) {
		entries = entries[:k]
	}
	return entries, nil
}

func directionFor(logBF float64) Direction {
	switch {
	case logBF > directionEpsilon:
		return DirectionFor
	case logBF < -directionEpsilon:
		return DirectionAgainst
	default:
		return DirectionNeutral
	}
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
