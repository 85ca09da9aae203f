package decay

import (
	"math"
	"testing"
	"time"
)

func TestFactorAtZero(t *testing.T) {
	if f := Default(0); f != 1 {
		t.Fatalf("expected 1, got %f", f)
	}
}

func TestFactorMonotonic(t *testing.T) {
	prev := Default(0)
	for _, y := range []float64{0.01, 0.5, 1, 2, 4, 10, 50} {
		f := Default(y)
		if f >= prev {
			t.Fatalf("decay(%.2f)=%f is not below previous %f", y, f, prev)
		}
		prev = f
	}
}

func TestFactorKnownValue(t *testing.T) {
	if f := Default(4); math.Abs(f-math.Exp(-1)) > 1e-12 {
		t.Fatalf("expected e^-1, got %f", f)
	}
}

func TestNegativeSpanIsClamped(t *testing.T) {
	if f := Default(-3); f != 1 {
		t.Fatalf("expected 1 for negative span, got %f", f)
	}
}

func TestYearsBetween(t *testing.T) {
	a := time.Date(1914, 6, 1, 0, 0, 0, 0, time.UTC)
	b := time.Date(1914, 7, 1, 0, 0, 0, 0, time.UTC)

	if y := YearsBetween(a, b); math.Abs(y-30.0/365.0) > 1e-12 {
		t.Fatalf("expected 30/365, got %f", y)
	}
	if y := YearsBetween(b, a); y != 0 {
		t.Fatalf("expected 0 for reversed dates, got %f", y)
	}
}
