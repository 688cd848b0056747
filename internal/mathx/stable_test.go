package mathx

import (
	"math"
	"math/rand"
	"testing"
)

func TestLogSumExp_Empty(t *testing.T) {
	if got := LogSumExp(nil); !math.IsInf(got, -1) {
		t.Fatalf("LogSumExp(nil) = %v, want -Inf", got)
	}
}

func TestLogSumExp_AllNegInf(t *testing.T) {
	got := LogSumExp([]float64{math.Inf(-1), math.Inf(-1)})
	if !math.IsInf(got, -1) {
		t.Fatalf("LogSumExp(all -Inf) = %v, want -Inf", got)
	}
}

func TestLogSumExp_IgnoresNegInfEntries(t *testing.T) {
	got := LogSumExp([]float64{0, math.Inf(-1)})
	if math.Abs(got-0) > 1e-9 {
		t.Fatalf("LogSumExp([0, -Inf]) = %v, want 0", got)
	}
}

func TestLogSumExp_PermutationInvariant(t *testing.T) {
	xs := []float64{1.2, -3.4, 0.0, 5.6, -0.01, 2.2}
	want := LogSumExp(xs)
	r := rand.New(rand.NewSource(1))
	for trial := 0; trial < 20; trial++ {
		shuffled := append([]float64(nil), xs...)
		r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		got := LogSumExp(shuffled)
		if math.Abs(got-want) > 1e-12 {
			t.Fatalf("permutation changed result: got %v want %v", got, want)
		}
	}
}

func TestLogSumExp_MatchesNaiveForModerateInputs(t *testing.T) {
	xs := []float64{-1, -2, -3, 0}
	got := LogSumExp(xs)
	var naive float64
	for _, x := range xs {
		naive += math.Exp(x)
	}
	want := math.Log(naive)
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestLogAddExp(t *testing.T) {
	got := LogAddExp(math.Log(2), math.Log(3))
	want := math.Log(5)
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("LogAddExp = %v, want %v", got, want)
	}
}

func TestLogSubExp(t *testing.T) {
	got, err := LogSubExp(math.Log(5), math.Log(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := math.Log(3)
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("LogSubExp = %v, want %v", got, want)
	}
}

func TestLogSubExp_UnderflowWhenBGreaterEqualA(t *testing.T) {
	if _, err := LogSubExp(1.0, 1.0); err == nil {
		t.Fatal("expected underflow error for b == a")
	}
	if _, err := LogSubExp(1.0, 2.0); err == nil {
		t.Fatal("expected underflow error for b > a")
	}
}
