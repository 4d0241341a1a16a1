package stellar

import (
	"fmt"
	"math"
	"os"
	"sync"

	"github.com/ChristopherRabotin/ode"
	kitlog "github.com/go-kit/kit/log"
	"github.com/gonum/matrix/mat64"
	"github.com/ready-steady/ode/dopri"
)

// IntegrationMethod defines an enum of supported ODE solvers.
type IntegrationMethod uint8

const (
	// RK4 is the fixed step fourth order Runge-Kutta solver. It requires an
	// evenly spaced radial grid.
	RK4 IntegrationMethod = iota
	// DormandPrince is the adaptive Dormand-Prince 5(4) solver, reporting at
	// the grid radii while stepping internally as it sees fit.
	DormandPrince
)

func (m IntegrationMethod) String() string {
	switch m {
	case RK4:
		return "RK4"
	case DormandPrince:
		return "Dormand-Prince"
	}
	panic("cannot stringify unknown integration method")
}

// NewRadialGrid returns an evenly spaced radial grid of n points from r0 to
// rMax. The grid is fixed before integration begins: it bounds the run and
// sets the solver's reporting interval.
func NewRadialGrid(r0, rMax float64, n int) []float64 {
	if r0 <= 0 {
		panic("config r0 must be positive: the structure equations are singular at r=0")
	}
	if rMax <= r0 {
		panic("config rMax must be greater than r0")
	}
	if n < 2 {
		panic("config n must be at least 2")
	}
	grid := make([]float64, n)
	step := (rMax - r0) / float64(n-1)
	for i := range grid {
		grid[i] = r0 + float64(i)*step
	}
	return grid
}

/* Handles the stellar structure integrations. */

// Structure integrates the structure equations for one star: it walks the
// radial grid from the center outward, advancing the state y = (μ, m) with
// the configured solver, and stops at the surface, where the pressure
// vanishes. One Structure does one run.
type Structure struct {
	Name    string
	EOS     *EOS
	Physics Hydrostatics

	grid     []float64
	tol      float64
	method   IntegrationMethod
	logger   kitlog.Logger
	histChan chan (ProfileState)
	wg       sync.WaitGroup

	cur               []float64 // latest committed state (μ, m)
	radii, μs, ms, ps []float64
	surfaced, solved  bool
	exhausted         bool
	solverStopped     bool
}

// NewStructure returns a new Structure for the given central rest mass
// density (in nuclear units), radial grid and surface detection tolerance.
// Configuration errors fail here, before any integration starts.
func NewStructure(name string, eos *EOS, ρc float64, grid []float64, tol float64, method IntegrationMethod, conf ExportConfig) (*Structure, error) {
	if eos == nil {
		return nil, fmt.Errorf("structure %s: no equation of state provided", name)
	}
	if ρc <= 0 {
		return nil, fmt.Errorf("structure %s: central density must be positive, got %g", name, ρc)
	}
	if len(grid) < 2 {
		return nil, fmt.Errorf("structure %s: radial grid needs at least 2 points, got %d", name, len(grid))
	}
	if grid[0] <= 0 {
		return nil, fmt.Errorf("structure %s: radial grid must start at a positive radius", name)
	}
	for i := 1; i < len(grid); i++ {
		if grid[i] <= grid[i-1] {
			return nil, fmt.Errorf("structure %s: radial grid not strictly increasing at index %d", name, i)
		}
	}
	if tol <= 0 {
		return nil, fmt.Errorf("structure %s: surface tolerance must be positive, got %g", name, tol)
	}
	μc := eos.EnergyDensity(ρc)
	if !isFinite(μc) || μc <= 0 {
		return nil, fmt.Errorf("structure %s: central density %g outside the domain of %s", name, ρc, eos.Name)
	}

	klog := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stdout))
	klog = kitlog.With(klog, "star", name, "eos", eos.Name)

	s := &Structure{Name: name, EOS: eos, Physics: NewtonianHydro{}, grid: grid, tol: tol, method: method, logger: klog}

	// If no filepath is provided, then no output will be written.
	if !conf.IsUseless() {
		s.histChan = make(chan (ProfileState), 1000) // a 1k entry buffer
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			StreamProfile(conf, s.histChan)
		}()
	}

	// Small radius expansion for the central mass avoids the r=0 singularity.
	r0 := grid[0]
	s.cur = []float64{μc, (4 * math.Pi / 3) * r0 * r0 * r0 * μc}
	// Write the first data point. The center is committed unconditionally:
	// surface detection starts at the first step.
	s.push(r0, s.cur, eos.Pressure(μc))

	return s, nil
}

// LogStatus logs the state of the integration.
func (s *Structure) LogStatus() {
	last := len(s.radii) - 1
	s.logger.Log("level", "info", "subsys", "struct", "r", s.radii[last], "μ", s.μs[last], "m", s.ms[last], "p", s.ps[last])
}

// Solve runs the integration until the surface is found or the grid is
// exhausted, and returns the truncated solution. It may only be called once
// per Structure.
func (s *Structure) Solve() (*Solution, error) {
	if s.solved {
		return nil, fmt.Errorf("structure %s: already solved", s.Name)
	}
	s.solved = true
	s.logger.Log("level", "info", "subsys", "struct", "status", "starting", "method", s.method, "points", len(s.grid), "μc", s.cur[0])

	switch s.method {
	case RK4:
		step, even := uniformStep(s.grid)
		if !even {
			return nil, fmt.Errorf("structure %s: RK4 requires an evenly spaced grid, use Dormand-Prince", s.Name)
		}
		ode.NewRK4(s.grid[0], step, s).Solve() // Blocking.
	case DormandPrince:
		if err := s.solveAdaptive(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("structure %s: unsupported method %d", s.Name, s.method)
	}

	if !s.surfaced {
		// The grid ran out before the pressure vanished. The run still
		// returns, pinned to the last grid point, but it is flagged: the
		// radius and mass are lower bounds, not physical results.
		s.exhausted = true
		s.logger.Log("level", "warning", "subsys", "struct", "status", "grid exhausted", "rMax", s.grid[len(s.grid)-1], "p", s.ps[len(s.ps)-1])
	}
	if s.histChan != nil {
		close(s.histChan)
	}
	s.wg.Wait() // Don't return until we're done writing all the files.

	sol := s.solution()
	s.logger.Log("level", "notice", "subsys", "struct", "status", "finished", "R", sol.R(), "M", sol.M(), "points", sol.Points())
	return sol, nil
}

// solveAdaptive advances the state over each grid sub-interval with the
// Dormand-Prince solver, the two bounding radii as reporting abscissae.
func (s *Structure) solveAdaptive() error {
	integ, err := dopri.New(dopri.DefaultConfig())
	if err != nil {
		return fmt.Errorf("structure %s: %s", s.Name, err)
	}
	for !s.surfaced && len(s.radii) < len(s.grid) {
		i := len(s.radii) - 1
		values, _, err := integ.Compute(s.Physics.Derivs, s.cur, []float64{s.grid[i], s.grid[i+1]})
		if err != nil {
			// The solver gave up. Near the surface that is the same
			// termination as a NaN state, but the run is flagged so a
			// failure on an early interval is not mistaken for a star.
			s.logger.Log("level", "warning", "subsys", "struct", "status", "solver stopped", "r", s.grid[i+1], "error", err)
			s.surfaced = true
			s.solverStopped = true
			break
		}
		next := values[len(values)-2:]
		if s.commit(s.grid[i+1], next) {
			s.cur = next
		}
	}
	return nil
}

// commit runs the surface test on a candidate state for radius r and stores
// it if the star continues. A vanished, negative or non finite pressure (or
// state) is the termination signal: the surface is then the previous grid
// radius and the candidate is discarded.
func (s *Structure) commit(r float64, y []float64) bool {
	p := s.EOS.Pressure(y[0])
	if !allFinite(y) || !isFinite(p) || y[0] < 0 || p <= s.tol {
		s.surfaced = true
		return false
	}
	s.push(r, y, p)
	return true
}

// push stores a committed state and streams it to the export, if any.
func (s *Structure) push(r float64, y []float64, p float64) {
	s.radii = append(s.radii, r)
	s.μs = append(s.μs, y[0])
	s.ms = append(s.ms, y[1])
	s.ps = append(s.ps, p)
	if s.histChan != nil {
		s.histChan <- ProfileState{R: r, Mu: y[0], M: y[1], P: p}
	}
}

// solution assembles the truncated solution from the committed states.
func (s *Structure) solution() *Solution {
	n := len(s.radii)
	states := mat64.NewDense(n, 2, nil)
	for i := 0; i < n; i++ {
		states.Set(i, 0, s.μs[i])
		states.Set(i, 1, s.ms[i])
	}
	return &Solution{
		Name:          s.Name,
		GridExhausted: s.exhausted,
		SolverStopped: s.solverStopped,
		radii:         s.radii,
		states:        states,
		μc:            s.μs[0],
		pc:            s.ps[0],
		μOfR:          NewInterpolation(s.radii, s.μs, OutOfRangeZero),
		pOfR:          NewInterpolation(s.radii, s.ps, OutOfRangeZero),
		mOfR:          NewInterpolation(s.radii, s.ms, OutOfRangeClamp),
	}
}

// GetState returns the latest committed state for the integrator.
func (s *Structure) GetState() []float64 {
	state := make([]float64, 2)
	copy(state, s.cur)
	return state
}

// SetState commits the state of the next grid radius.
func (s *Structure) SetState(r float64, y []float64) {
	if s.surfaced || len(s.radii) == len(s.grid) {
		return
	}
	if s.commit(s.grid[len(s.radii)], y) {
		s.cur = y
	}
}

// Stop implements the stop call of the integrator: the run ends at the
// surface or when the grid is exhausted.
func (s *Structure) Stop(r float64) bool {
	return s.surfaced || len(s.radii) == len(s.grid)
}

// Func is the integration function: it delegates to the local physics.
func (s *Structure) Func(r float64, y []float64) []float64 {
	dy := make([]float64, 2)
	s.Physics.Derivs(r, y, dy)
	return dy
}

// ProfileState stores one committed point of the integration.
type ProfileState struct {
	R  float64 // radius, code units
	Mu float64 // energy density, nuclear units
	M  float64 // enclosed mass, code units
	P  float64 // pressure, nuclear units
}

// Solution is the truncated output of one integration: the radial grid
// prefix up to the surface and the committed states, with the profiles
// rebuilt as interpolants over the truncated domain.
type Solution struct {
	Name string
	// GridExhausted is set when no surface was found within the grid. The
	// radius is then pinned to the last grid point and both R and M are
	// unreliable: rerun with a larger maximum radius.
	GridExhausted bool
	// SolverStopped is set when termination came from an adaptive solver
	// error rather than the pressure test. Expected right at the surface;
	// a short solution with this flag points at a configuration problem,
	// not a star.
	SolverStopped bool

	radii  []float64
	states *mat64.Dense
	μc, pc float64
	μOfR   Interpolation
	pOfR   Interpolation
	mOfR   Interpolation
}

// R returns the surface radius in code units.
func (sol *Solution) R() float64 {
	return sol.radii[len(sol.radii)-1]
}

// M returns the total mass in code units, i.e. the enclosed mass at the
// surface.
func (sol *Solution) M() float64 {
	return sol.mOfR.At(sol.R())
}

// Points returns the number of committed grid points.
func (sol *Solution) Points() int {
	return len(sol.radii)
}

// Radii returns the truncated radial grid.
func (sol *Solution) Radii() []float64 {
	return sol.radii
}

// States returns the committed states as a Points()×2 matrix of (μ, m).
func (sol *Solution) States() *mat64.Dense {
	return sol.states
}

// Mu returns the interpolated energy density profile, zero past the surface.
func (sol *Solution) Mu(r float64) float64 {
	return sol.μOfR.At(r)
}

// P returns the interpolated pressure profile, zero past the surface.
func (sol *Solution) P(r float64) float64 {
	return sol.pOfR.At(r)
}

// Mass returns the interpolated enclosed mass profile. Past the surface it
// clamps to the total mass, so mass queries at any outer radius return M.
func (sol *Solution) Mass(r float64) float64 {
	return sol.mOfR.At(r)
}

// MuNorm returns μ(r)/μc, the energy density profile normalized to the
// central value, for diagnostic plotting.
func (sol *Solution) MuNorm(r float64) float64 {
	return sol.μOfR.At(r) / sol.μc
}

// PNorm returns p(r)/p(μc), the pressure profile normalized to the central
// pressure.
func (sol *Solution) PNorm(r float64) float64 {
	return sol.pOfR.At(r) / sol.pc
}

// MassNorm returns m(r)/M, the enclosed mass fraction.
func (sol *Solution) MassNorm(r float64) float64 {
	return sol.mOfR.At(r) / sol.M()
}
