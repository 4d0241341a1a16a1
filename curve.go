package stellar

import (
	"fmt"
	"sync"
)

// MRPoint is one point of a mass radius curve, in code units. Convert with
// Constants.RadiusKm and Constants.SolarMasses for physical values.
type MRPoint struct {
	RhoC float64 // central rest mass density, nuclear units
	R    float64 // surface radius, code units
	M    float64 // total mass, code units
	// Unreliable is set when the run exhausted its grid before finding the
	// surface; the point should not be trusted without a larger grid.
	Unreliable bool
	Err        error
}

// MassRadiusCurve integrates one star per central density and returns the
// resulting mass radius points in input order. Runs are independent and
// share only the read-only equation of state, so they are fanned out over
// the given number of workers.
func MassRadiusCurve(eos *EOS, densities []float64, grid []float64, tol float64, method IntegrationMethod, workers int) []MRPoint {
	if workers < 1 {
		workers = 1
	}
	points := make([]MRPoint, len(densities))
	jobs := make(chan int, len(densities))
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				points[i] = mrPoint(eos, densities[i], i, grid, tol, method)
			}
		}()
	}
	for i := range densities {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return points
}

func mrPoint(eos *EOS, ρc float64, idx int, grid []float64, tol float64, method IntegrationMethod) MRPoint {
	pt := MRPoint{RhoC: ρc}
	name := fmt.Sprintf("%s-%03d", eos.Name, idx)
	s, err := NewStructure(name, eos, ρc, grid, tol, method, ExportConfig{})
	if err != nil {
		pt.Err = err
		return pt
	}
	sol, err := s.Solve()
	if err != nil {
		pt.Err = err
		return pt
	}
	pt.R = sol.R()
	pt.M = sol.M()
	pt.Unreliable = sol.GridExhausted
	return pt
}
