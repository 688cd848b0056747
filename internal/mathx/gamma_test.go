package mathx

import (
	"math"
	"testing"
)

func TestLogGamma_KnownIntegerValues(t *testing.T) {
	// Gamma(n) = (n-1)! for positive integers.
	cases := []struct {
		x    float64
		want float64
	}{
		{1, 0},                 // Gamma(1) = 1
		{2, 0},                 // Gamma(2) = 1
		{5, math.Log(24)},      // Gamma(5) = 4! = 24
		{10, math.Log(362880)}, // Gamma(10) = 9!
	}
	for _, c := range cases {
		got, err := LogGamma(c.x)
		if err != nil {
			t.Fatalf("LogGamma(%v) error: %v", c.x, err)
		}
		relErr := math.Abs(got-c.want) / math.Max(1, math.Abs(c.want))
		if relErr > 1e-8 {
			t.Errorf("LogGamma(%v) = %v, want %v (relErr=%v)", c.x, got, c.want, relErr)
		}
	}
}

func TestLogGamma_HalfIntegerKnownValue(t *testing.T) {
	// Gamma(0.5) = sqrt(pi)
	got, err := LogGamma(0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := 0.5 * math.Log(math.Pi)
	if math.Abs(got-want) > 1e-8 {
		t.Errorf("LogGamma(0.5) = %v, want %v", got, want)
	}
}

func TestLogGamma_NonPositiveIsDomainError(t *testing.T) {
	for _, x := range []float64{0, -1, -2.5} {
		if _, err := LogGamma(x); err == nil {
			t.Errorf("LogGamma(%v) expected DomainError, got nil", x)
		}
	}
}

func TestLogGamma_NeverProducesNaN(t *testing.T) {
	for _, x := range []float64{1e-3, 1e-2, 0.1, 1, 10, 100, 1e4, 1e6} {
		got, err := LogGamma(x)
		if err != nil {
			t.Fatalf("LogGamma(%v) error: %v", x, err)
		}
		if math.IsNaN(got) {
			t.Errorf("LogGamma(%v) = NaN", x)
		}
	}
}

func TestLogFactorial(t *testing.T) {
	got, err := LogFactorial(5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := math.Log(120)
	if math.Abs(got-want) > 1e-8 {
		t.Errorf("LogFactorial(5) = %v, want %v", got, want)
	}
	if _, err := LogFactorial(-1); err == nil {
		t.Error("expected error for negative n")
	}
}

func TestLogBinomial(t *testing.T) {
	got, err := LogBinomial(10, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := math.Log(120) // C(10,3) = 120
	if math.Abs(got-want) > 1e-7 {
		t.Errorf("LogBinomial(10,3) = %v, want %v", got, want)
	}
	if _, err := LogBinomial(5, 6); err == nil {
		t.Error("expected error for k > n")
	}
	if _, err := LogBinomial(5, -1); err == nil {
		t.Error("expected error for negative k")
	}
}
