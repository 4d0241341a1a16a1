package stellar

import "math"

// Hydrostatics is the local physics of the structure equations: it fills dy
// with the radial derivative of the state y = (μ, m) at radius r. The grid
// walking and surface detection in Structure are written against this
// interface only, so a different gravity model slots in without touching
// the integration logic.
type Hydrostatics interface {
	Derivs(r float64, y, dy []float64)
}

// NewtonianHydro is Newtonian hydrostatic equilibrium and mass continuity
// in geometrized code units (G = c = 1):
//
//	dμ/dr = -μ·m/r²
//	dm/dr = 4π·r²·μ
type NewtonianHydro struct{}

// Derivs implements Hydrostatics.
func (NewtonianHydro) Derivs(r float64, y, dy []float64) {
	μ, m := y[0], y[1]
	dy[0] = -μ * m / (r * r)
	dy[1] = 4 * math.Pi * r * r * μ
}
