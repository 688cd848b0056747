package mathx

import "math"

// lanczosG and lanczosCoeffs are the standard Lanczos approximation
// parameters (g=7, n=9) used by most production math libraries to hit a
// relative error well under 1e-13 for x > 0 in double precision; the
// accuracy target stated in spec §4.A (relative error <= 1e-8 on
// [1e-3, 1e6]) is comfortably inside that.
const lanczosG = 7.0

var lanczosCoeffs = [9]float64{
	0.99999999999980993,
	676.5203681218851,
	-1259.1392167224028,
	771.32342877765313,
	-176.61502916214059,
	12.507343278686905,
	-0.13857109526572012,
	9.9843695780195716e-6,
	1.5056327351493116e-7,
}

// LogGamma returns ln(Γ(x)) for x > 0. Non-positive x is a domain error
// (spec §4.A: "non-positive argument to log_gamma → DomainError").
func LogGamma(x float64) (float64, error) {
	if x <= 0 {
		return 0, domainErr("LogGamma", "argument must be > 0")
	}
	// The Lanczos series is defined for x >= 0.5; for x in (0, 0.5) use the
	// reflection formula Γ(x)Γ(1-x) = π/sin(πx), recovered in log space.
	if x < 0.5 {
		lg, err := LogGamma(1 - x)
		if err != nil {
			return 0, err
		}
		s := math.Sin(math.Pi * x)
		if s == 0 {
			return 0, domainErr("LogGamma", "pole at non-positive integer")
		}
		return checkFinite("LogGamma", math.Log(math.Pi/math.Abs(s))-lg)
	}

	x -= 1
	a := lanczosCoeffs[0]
	t := x + lanczosG + 0.5
	for i := 1; i < len(lanczosCoeffs); i++ {
		a += lanczosCoeffs[i] / (x + float64(i))
	}
	result := 0.5*math.Log(2*math.Pi) + (x+0.5)*math.Log(t) - t + math.Log(a)
	return checkFinite("LogGamma", result)
}

// LogFactorial returns ln(n!) = LogGamma(n+1).
func LogFactorial(n int) (float64, error) {
	if n < 0 {
		return 0, domainErr("LogFactorial", "argument must be >= 0")
	}
	return LogGamma(float64(n) + 1)
}

// LogBinomial returns ln(C(n, k)) = LogFactorial(n) - LogFactorial(k) -
// LogFactorial(n-k).
func LogBinomial(n, k int) (float64, error) {
	if k < 0 || k > n || n < 0 {
		return 0, domainErr("LogBinomial", "require 0 <= k <= n")
	}
	lfn, err := LogFactorial(n)
	if err != nil {
		return 0, err
	}
	lfk, err := LogFactorial(k)
	if err != nil {
		return 0, err
	}
	lfnk, err := LogFactorial(n - k)
	if err != nil {
		return 0, err
	}
	return checkFinite("LogBinomial", lfn-lfk-lfnk)
}
