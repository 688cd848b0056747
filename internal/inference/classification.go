package inference

import (
	"math"

	"github.com/processtriage/triage/internal/config"
)

// Confidence bands a classification's margin into a coarse tier (spec §3
// "Classification.confidence").
type Confidence string

const (
	ConfidenceLow    Confidence = "Low"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceHigh   Confidence = "High"
)

// Classification is the final, user-facing output of the posterior engine:
// the winning class, its confidence band, and the margin that produced it.
type Classification struct {
	Class      config.Class
	Confidence Confidence
	Margin     float64
}

// Classify reduces a ClassScores vector to a Classification using the
// confidence bands in bands (spec §3: default High >= 2.0, Medium >= 0.5).
func Classify(scores ClassScores, bands config.ConfidenceBands) Classification {
	best, _ := scores.Best()
	margin := scores.Margin()
	return Classification{
		Class:      best,
		Confidence: confidenceFor(margin, bands),
		Margin:     margin,
	}
}

func confidenceFor(margin float64, bands config.ConfidenceBands) Confidence {
	switch {
	case margin >= bands.High:
		return ConfidenceHigh
	case margin >= bands.Medium:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// PWrong approximates P(classification is wrong) from the margin for use
// by the decision engine's expected-loss computation (spec §4.F step 3).
// It is monotonically decreasing in margin, saturating near 0 for strongly
// separated posteriors and near 0.5 for a coin-flip margin of 0.
func (c Classification) PWrong() float64 {
	// A margin of 0 nats means score and runner-up are equal: p=0.5.
	// exp(-margin) maps margin->0 to 1 and margin->inf to 0, and
	// p = exp(-margin) / (1 + exp(-margin)) is exactly the logistic
	// function of the margin, which is the natural reading of "margin in
	// nats" as a log-odds gap between top two classes.
	return 1.0 / (1.0 + math.Exp(c.Margin))
}
