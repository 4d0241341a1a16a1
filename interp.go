package stellar

import "sort"

// OutOfRangePolicy defines what an Interpolation returns when queried
// outside of its tabulated domain.
type OutOfRangePolicy uint8

const (
	// OutOfRangeZero returns 0 outside the domain.
	OutOfRangeZero OutOfRangePolicy = iota
	// OutOfRangeClamp returns the nearest endpoint value outside the domain.
	OutOfRangeClamp
)

// Interpolation is a monotone piecewise linear lookup over sorted abscissae.
// It backs every tabulated function in this package: the EoS callables and
// the reconstructed stellar profiles.
type Interpolation struct {
	xs, ys []float64
	policy OutOfRangePolicy
}

// NewInterpolation returns a new Interpolation from the provided table.
// The abscissae must be sorted in increasing order; this is *not* checked
// here (the EoS loader validates its tables, and integration grids are
// increasing by construction).
func NewInterpolation(xs, ys []float64, policy OutOfRangePolicy) Interpolation {
	if len(xs) != len(ys) {
		panic("interpolation tables must have the same length")
	}
	if len(xs) == 0 {
		panic("interpolation table may not be empty")
	}
	return Interpolation{xs: xs, ys: ys, policy: policy}
}

// At evaluates the interpolant at x.
func (i Interpolation) At(x float64) float64 {
	n := len(i.xs)
	if x < i.xs[0] {
		if i.policy == OutOfRangeClamp {
			return i.ys[0]
		}
		return 0
	}
	if x > i.xs[n-1] {
		if i.policy == OutOfRangeClamp {
			return i.ys[n-1]
		}
		return 0
	}
	k := sort.SearchFloat64s(i.xs, x)
	if k < n && i.xs[k] == x {
		return i.ys[k]
	}
	// x lies strictly between xs[k-1] and xs[k].
	x0, x1 := i.xs[k-1], i.xs[k]
	y0, y1 := i.ys[k-1], i.ys[k]
	return y0 + (y1-y0)*(x-x0)/(x1-x0)
}

// Min returns the smallest abscissa of the domain.
func (i Interpolation) Min() float64 {
	return i.xs[0]
}

// Max returns the largest abscissa of the domain.
func (i Interpolation) Max() float64 {
	return i.xs[len(i.xs)-1]
}
