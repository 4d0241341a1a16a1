package stellar

import (
	"testing"

	"github.com/gonum/floats"
)

func TestInterpolationZeroPolicy(t *testing.T) {
	interp := NewInterpolation([]float64{1, 2, 4}, []float64{10, 20, 40}, OutOfRangeZero)
	if got := interp.At(0.5); got != 0 {
		t.Fatalf("below domain: got %f, want 0", got)
	}
	if got := interp.At(5); got != 0 {
		t.Fatalf("above domain: got %f, want 0", got)
	}
	if got := interp.At(1); got != 10 {
		t.Fatalf("left node: got %f", got)
	}
	if got := interp.At(4); got != 40 {
		t.Fatalf("right node: got %f", got)
	}
	if got := interp.At(3); !floats.EqualWithinAbs(got, 30, 1e-12) {
		t.Fatalf("midpoint: got %f, want 30", got)
	}
	if got := interp.At(1.5); !floats.EqualWithinAbs(got, 15, 1e-12) {
		t.Fatalf("interior: got %f, want 15", got)
	}
}

func TestInterpolationClampPolicy(t *testing.T) {
	interp := NewInterpolation([]float64{1, 2, 4}, []float64{10, 20, 40}, OutOfRangeClamp)
	if got := interp.At(0); got != 10 {
		t.Fatalf("below domain: got %f, want 10", got)
	}
	if got := interp.At(100); got != 40 {
		t.Fatalf("above domain: got %f, want 40", got)
	}
}

func TestInterpolationSinglePoint(t *testing.T) {
	interp := NewInterpolation([]float64{2}, []float64{7}, OutOfRangeClamp)
	if got := interp.At(2); got != 7 {
		t.Fatalf("at node: got %f", got)
	}
	if got := interp.At(10); got != 7 {
		t.Fatalf("clamp: got %f", got)
	}
	if interp.Min() != 2 || interp.Max() != 2 {
		t.Fatal("domain of a single point table")
	}
}
