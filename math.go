package stellar

import (
	"math"

	"github.com/gonum/floats"
)

// isFinite returns whether v is neither NaN nor infinite.
func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// allFinite returns whether every component of the state is finite.
func allFinite(s []float64) bool {
	for _, v := range s {
		if !isFinite(v) {
			return false
		}
	}
	return true
}

// uniformStep returns the common step of an evenly spaced grid, or false if
// the spacing drifts by more than a part in 1e9 of the first step.
func uniformStep(grid []float64) (float64, bool) {
	step := grid[1] - grid[0]
	for i := 2; i < len(grid); i++ {
		if !floats.EqualWithinAbs(grid[i]-grid[i-1], step, step*1e-9) {
			return step, false
		}
	}
	return step, true
}
