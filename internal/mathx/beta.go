package mathx

import "math"

// LogBeta returns ln(B(a, b)) = LogGamma(a) + LogGamma(b) - LogGamma(a+b),
// per spec §4.A.
func LogBeta(a, b float64) (float64, error) {
	lga, err := LogGamma(a)
	if err != nil {
		return 0, err
	}
	lgb, err := LogGamma(b)
	if err != nil {
		return 0, err
	}
	lgab, err := LogGamma(a + b)
	if err != nil {
		return 0, err
	}
	return checkFinite("LogBeta", lga+lgb-lgab)
}

// BetaLogPDF returns the log-density of Beta(a, b) at x ∈ [0, 1]:
//
//	log f(x) = (a-1)ln(x) + (b-1)ln(1-x) - log_beta(a, b)
//
// x must lie in [0, 1]; a, b must be > 0. x exactly 0 or 1 is only valid
// when the corresponding exponent is non-negative (a>=1 or b>=1
// respectively), matching the standard convention 0^0 = 1 in the density.
func BetaLogPDF(x, a, b float64) (float64, error) {
	if x < 0 || x > 1 {
		return 0, domainErr("BetaLogPDF", "x must be in [0, 1]")
	}
	if a <= 0 || b <= 0 {
		return 0, domainErr("BetaLogPDF", "a and b must be > 0")
	}
	lb, err := LogBeta(a, b)
	if err != nil {
		return 0, err
	}
	var logX, log1mX float64
	if x == 0 {
		if a < 1 {
			return 0, domainErr("BetaLogPDF", "density diverges at x=0 for a<1")
		}
		logX = 0 // x^0 term when a==1; handled by multiplying by (a-1)=0 below
		if a > 1 {
			return math.Inf(-1), nil
		}
	} else {
		logX = math.Log(x)
	}
	if x == 1 {
		if b < 1 {
			return 0, domainErr("BetaLogPDF", "density diverges at x=1 for b<1")
		}
		log1mX = 0
		if b > 1 {
			return math.Inf(-1), nil
		}
	} else {
		log1mX = math.Log1p(-x)
	}
	result := (a-1)*logX + (b-1)*log1mX - lb
	return checkFinite("BetaLogPDF", result)
}

// GammaLogPDF returns the log-density of Gamma(shape=k, rate=θ) at x > 0:
//
//	log f(x) = k*ln(θ) + (k-1)*ln(x) - θ*x - log_gamma(k)
//
// Used for rate-valued evidence terms (spec §3 "Gamma for rates").
func GammaLogPDF(x, shape, rate float64) (float64, error) {
	if x <= 0 {
		return 0, domainErr("GammaLogPDF", "x must be > 0")
	}
	if shape <= 0 || rate <= 0 {
		return 0, domainErr("GammaLogPDF", "shape and rate must be > 0")
	}
	lg, err := LogGamma(shape)
	if err != nil {
		return 0, err
	}
	result := shape*math.Log(rate) + (shape-1)*math.Log(x) - rate*x - lg
	return checkFinite("GammaLogPDF", result)
}

// BernoulliLogPMF returns ln(P(X = 1)) = ln(p) if observed is true, else
// ln(1-p). Used for presence-flag evidence terms (spec §3).
func BernoulliLogPMF(observed bool, p float64) (float64, error) {
	if p < 0 || p > 1 {
		return 0, domainErr("BernoulliLogPMF", "p must be in [0, 1]")
	}
	if observed {
		if p == 0 {
			return math.Inf(-1), nil
		}
		return checkFinite("BernoulliLogPMF", math.Log(p))
	}
	if p == 1 {
		return math.Inf(-1), nil
	}
	return checkFinite("BernoulliLogPMF", math.Log1p(-p))
}

// DirichletLogPDF returns the log-density of Dirichlet(alpha) at the
// point x, a probability vector summing to 1 (spec §3 "multinomial for
// state" uses the Dirichlet as its conjugate prior family). len(x) must
// equal len(alpha) and all alpha[i] must be > 0.
func DirichletLogPDF(x, alpha []float64) (float64, error) {
	if len(x) != len(alpha) {
		return 0, domainErr("DirichletLogPDF", "x and alpha must have equal length")
	}
	if len(x) == 0 {
		return 0, domainErr("DirichletLogPDF", "alpha must be non-empty")
	}
	var sumAlpha, logNormTerm, sumXTerm float64
	for i, a := range alpha {
		if a <= 0 {
			return 0, domainErr("DirichletLogPDF", "all alpha must be > 0")
		}
		if x[i] < 0 || x[i] > 1 {
			return 0, domainErr("DirichletLogPDF", "x components must be in [0, 1]")
		}
		lg, err := LogGamma(a)
		if err != nil {
			return 0, err
		}
		sumAlpha += a
		logNormTerm -= lg
		if x[i] == 0 {
			if a < 1 {
				return 0, domainErr("DirichletLogPDF", "density diverges at x_i=0 for alpha_i<1")
			}
			if a > 1 {
				return math.Inf(-1), nil
			}
			continue
		}
		sumXTerm += (a - 1) * math.Log(x[i])
	}
	lgSum, err := LogGamma(sumAlpha)
	if err != nil {
		return 0, err
	}
	result := lgSum + logNormTerm + sumXTerm
	return checkFinite("DirichletLogPDF", result)
}
