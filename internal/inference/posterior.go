package inference

import (
	"fmt"

	"github.com/processtriage/triage/internal/config"
	"github.com/processtriage/triage/internal/mathx"
	"github.com/processtriage/triage/internal/model"
)

// PosteriorErrorKind distinguishes the two ways classification can fail
// (spec §4.C "Errors").
type PosteriorErrorKind string

const (
	IllFormedEvidence PosteriorErrorKind = "ill_formed_evidence"
	PriorsMissing     PosteriorErrorKind = "priors_missing"
)

// PosteriorError reports why a classification could not be computed.
type PosteriorError struct {
	Kind PosteriorErrorKind
	Msg  string
}

func (e *PosteriorError) Error() string { return string(e.Kind) + ": " + e.Msg }

// ClassScores is a dense log-posterior vector indexed by class (spec §3
// "ClassScores"), normalized so that Σ exp(score[c]) == 1 within 1e-9.
type ClassScores struct {
	Classes []config.Class
	Scores  map[config.Class]float64
}

// Best returns the top-scoring class and its score.
func (s ClassScores) Best() (config.Class, float64) {
	var bestClass config.Class
	best := -1.0
	first := true
	for _, c := range s.Classes {
		v := s.Scores[c]
		if first || v > best {
			best, bestClass, first = v, c, false
		}
	}
	return bestClass, best
}

// Margin returns the gap in nats between the top class and the runner-up
// (spec §3 "Classification.margin").
func (s ClassScores) Margin() float64 {
	if len(s.Classes) < 2 {
		return 0
	}
	top, second := -1.0, -1.0
	firstTop, firstSecond := true, true
	for _, c := range s.Classes {
		v := s.Scores[c]
		if firstTop || v > top {
			second, firstSecond = top, firstTop
			top, firstTop = v, false
		} else if firstSecond || v > second {
			second, firstSecond = v, false
		}
	}
	return top - second
}

// ComputePosterior runs the algorithm in spec §4.C: for each declared
// class, sum the class's log prior with each evidence term's
// log-likelihood under that class's hyperparameters, then normalize in
// log-space via LogSumExp.
func ComputePosterior(ev Evidence, priors *config.Priors) (ClassScores, error) {
	classes := make([]config.Class, 0, len(priors.Classes))
	for c := range priors.Classes {
		classes = append(classes, c)
	}
	if len(classes) == 0 {
		return ClassScores{}, &PosteriorError{Kind: PriorsMissing, Msg: "no classes declared in priors"}
	}
	sortClasses(classes)

	raw := make(map[config.Class]float64, len(classes))
	values := make([]float64, 0, len(classes))
	for _, c := range classes {
		cp, err := priors.ClassParamsFor(c)
		if err != nil {
			return ClassScores{}, &PosteriorError{Kind: PriorsMissing, Msg: err.Error()}
		}
		score, err := logLikelihoodSum(ev, cp)
		if err != nil {
			return ClassScores{}, &PosteriorError{Kind: IllFormedEvidence, Msg: err.Error()}
		}
		score += cp.LogPrior
		raw[c] = score
		values = append(values, score)
	}

	logZ := mathx.LogSumExp(values)
	normalized := make(map[config.Class]float64, len(classes))
	for _, c := range classes {
		normalized[c] = raw[c] - logZ
	}
	return ClassScores{Classes: classes, Scores: normalized}, nil
}

// logLikelihoodSum computes steps 1-2 of spec §4.C for one class: the sum
// of every evidence term's log-likelihood under cp, NOT including the log
// prior (added separately so evidenceTerms can be reused by the ledger,
// which needs terms without the prior folded in).
func logLikelihoodSum(ev Evidence, cp config.ClassParams) (float64, error) {
	total := 0.0
	terms, err := evidenceTerms(ev, cp)
	if err != nil {
		return 0, err
	}
	for _, t := range terms {
		total += t.logLik
	}
	return total, nil
}

// evidenceTerm pairs a feature name with its log-likelihood contribution,
// used both by ComputePosterior (summed) and BuildLedger (compared
// per-term across classes).
type evidenceTerm struct {
	feature string
	logLik  float64
}

func evidenceTerms(ev Evidence, cp config.ClassParams) ([]evidenceTerm, error) {
	var terms []evidenceTerm

	cpuPdf, err := mathx.BetaLogPDF(ev.CPU.Utilization, cp.CPU.Alpha, cp.CPU.Beta)
	if err != nil {
		return nil, fmt.Errorf("cpu.utilization: %w", err)
	}
	cpuLL := cpuPdf
	steadyLL, err := mathx.BernoulliLogPMF(ev.CPU.Steady, cp.CPU.PSteady)
	if err != nil {
		return nil, fmt.Errorf("cpu.steady: %w", err)
	}
	growingLL, err := mathx.BernoulliLogPMF(ev.CPU.Growing, cp.CPU.PGrowing)
	if err != nil {
		return nil, fmt.Errorf("cpu.growing: %w", err)
	}
	terms = append(terms,
		evidenceTerm{"cpu.utilization", cpuLL},
		evidenceTerm{"cpu.steady", steadyLL},
		evidenceTerm{"cpu.growing", growingLL},
	)

	memLL, err := mathx.BetaLogPDF(ev.Mem.Utilization, cp.Mem.Alpha, cp.Mem.Beta)
	if err != nil {
		return nil, fmt.Errorf("mem.utilization: %w", err)
	}
	terms = append(terms, evidenceTerm{"mem.utilization", memLL})

	ioLL, err := mathx.GammaLogPDF(nonZero(ev.Io.BytesPerSec), cp.Io.Shape, cp.Io.Rate)
	if err != nil {
		return nil, fmt.Errorf("io.bytes_per_sec: %w", err)
	}
	terms = append(terms, evidenceTerm{"io.bytes_per_sec", ioLL})

	uptimeLL, err := mathx.GammaLogPDF(nonZero(ev.Lifetime.UptimeSeconds), cp.Lifetime.UptimeShape, cp.Lifetime.UptimeRate)
	if err != nil {
		return nil, fmt.Errorf("lifetime.uptime: %w", err)
	}
	transLL, err := mathx.BernoulliLogPMF(ev.Lifetime.Transitioned, cp.Lifetime.PTransitioned)
	if err != nil {
		return nil, fmt.Errorf("lifetime.transitioned: %w", err)
	}
	terms = append(terms,
		evidenceTerm{"lifetime.uptime", uptimeLL},
		evidenceTerm{"lifetime.transitioned", transLL},
	)

	supLL, err := supervisorLogLik(ev.Supervisor.Level, cp.Supervisor)
	if err != nil {
		return nil, fmt.Errorf("supervisor.level: %w", err)
	}
	terms = append(terms, evidenceTerm{"supervisor.level", supLL})

	if ev.Cgroup != nil {
		cgLL, err := mathx.BernoulliLogPMF(ev.Cgroup.Throttled, cp.Cgroup.PThrottled)
		if err != nil {
			return nil, fmt.Errorf("cgroup.throttled: %w", err)
		}
		terms = append(terms, evidenceTerm{"cgroup.throttled", cgLL})
	}

	return terms, nil
}

func supervisorLogLik(level model.SupervisorLevel, sp config.SupervisorEvidenceParams) (float64, error) {
	var p float64
	switch level {
	case model.SupervisorNone:
		p = sp.PNone
	case model.SupervisorUser:
		p = sp.PUser
	case model.SupervisorSystem:
		p = sp.PSystem
	case model.SupervisorCritical:
		p = sp.PCritical
	default:
		return 0, fmt.Errorf("unrecognized supervisor level %v", level)
	}
	return mathx.BernoulliLogPMF(true, p)
}

func nonZero(v float64) float64 {
	if v <= 0 {
		return 1e-9
	}
	return v
}

func sortClasses(cs []config.Class) {
	for i := 1; i < len(cs); i++ {
		for j := i; j > 0 && cs[j-1] > cs[j]; j-- {
			cs[j-1], cs[j] = cs[j], cs[j-1]
		}
	}
}
