package stellar

import (
	"math"
	"testing"

	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"
)

func solveToy(t *testing.T, name string, method IntegrationMethod) *Solution {
	eos := toyEOS(t, name)
	grid := NewRadialGrid(1e-4, 10, 5000)
	s, err := NewStructure(name, eos, 2, grid, 1e-6, method, ExportConfig{})
	if err != nil {
		t.Fatal(err)
	}
	sol, err := s.Solve()
	if err != nil {
		t.Fatal(err)
	}
	return sol
}

func TestToyStarRK4(t *testing.T) {
	sol := solveToy(t, "toy-rk4", RK4)
	if sol.GridExhausted {
		t.Fatal("surface not found within the grid")
	}
	if !isFinite(sol.R()) || sol.R() <= 0 || sol.R() >= 10 {
		t.Fatalf("R = %f, want finite in (0, 10)", sol.R())
	}
	if !isFinite(sol.M()) || sol.M() <= 0 {
		t.Fatalf("M = %f, want finite positive", sol.M())
	}
	μ := mat64.Col(nil, 0, sol.States())
	m := mat64.Col(nil, 1, sol.States())
	for i := 1; i < len(μ); i++ {
		if μ[i] >= μ[i-1] {
			t.Fatalf("μ not strictly decreasing at %d: %g >= %g", i, μ[i], μ[i-1])
		}
		if m[i] <= m[i-1] {
			t.Fatalf("m not strictly increasing at %d: %g <= %g", i, m[i], m[i-1])
		}
	}
}

func TestToyStarDormandPrince(t *testing.T) {
	sol := solveToy(t, "toy-dp", DormandPrince)
	if sol.GridExhausted {
		t.Fatal("surface not found within the grid")
	}
	if sol.SolverStopped {
		t.Fatal("clean run flagged as a solver stop")
	}
	if sol.R() <= 0 || sol.R() >= 10 {
		t.Fatalf("R = %f, want in (0, 10)", sol.R())
	}
	if sol.M() <= 0 {
		t.Fatalf("M = %f, want positive", sol.M())
	}
	// Both solvers report on the same grid: the detected surfaces must agree
	// to within a few grid steps.
	rk4 := solveToy(t, "toy-dp-ref", RK4)
	if !floats.EqualWithinAbs(sol.R(), rk4.R(), 0.1) {
		t.Fatalf("solvers disagree on the surface: %f vs %f", sol.R(), rk4.R())
	}
}

func TestToyStarIdempotent(t *testing.T) {
	one := solveToy(t, "toy-idem-1", RK4)
	two := solveToy(t, "toy-idem-2", RK4)
	if one.Points() != two.Points() {
		t.Fatalf("runs differ in length: %d vs %d", one.Points(), two.Points())
	}
	if !floats.Equal(one.Radii(), two.Radii()) {
		t.Fatal("radii differ between identical runs")
	}
	if !mat64.Equal(one.States(), two.States()) {
		t.Fatal("states differ between identical runs")
	}
}

func TestSurfaceAtFirstStep(t *testing.T) {
	// A tolerance above the central pressure must terminate at the very
	// first step, the inclusive test leaving only the center committed.
	eos := toyEOS(t, "toy-first-step")
	grid := NewRadialGrid(1e-4, 10, 5000)
	s, err := NewStructure("toy-first-step", eos, 2, grid, 2.0, RK4, ExportConfig{})
	if err != nil {
		t.Fatal(err)
	}
	sol, err := s.Solve()
	if err != nil {
		t.Fatal(err)
	}
	if sol.Points() != 1 {
		t.Fatalf("expected only the center committed, got %d points", sol.Points())
	}
	if sol.R() != 1e-4 {
		t.Fatalf("R = %g, want the starting radius", sol.R())
	}
	if sol.M() <= 0 || !isFinite(sol.M()) {
		t.Fatalf("M = %g, want finite positive", sol.M())
	}
}

func TestLowestTabulatedDensity(t *testing.T) {
	// Central density at the table's lowest point: the zero pressure
	// boundary case must still return finite positive radius and mass.
	consts := StandardConstants()
	rows := [][3]float64{
		{2 * consts.RhoNuc, 2 * consts.RhoNuc, 0.5 * consts.RhoNuc},
		{4 * consts.RhoNuc, 4 * consts.RhoNuc, 2.0 * consts.RhoNuc},
	}
	eos, err := NewEOSFromTable("toy-lowest", rows, consts)
	if err != nil {
		t.Fatal(err)
	}
	grid := NewRadialGrid(1e-4, 10, 2000)
	s, err := NewStructure("toy-lowest", eos, eos.MinDensity(), grid, 1e-6, RK4, ExportConfig{})
	if err != nil {
		t.Fatal(err)
	}
	sol, err := s.Solve()
	if err != nil {
		t.Fatal(err)
	}
	if !isFinite(sol.R()) || sol.R() <= 0 {
		t.Fatalf("R = %g, want finite positive", sol.R())
	}
	if !isFinite(sol.M()) || sol.M() <= 0 {
		t.Fatalf("M = %g, want finite positive", sol.M())
	}
}

func TestGridExhaustion(t *testing.T) {
	// A grid that stops inside the star: soft failure, flagged and pinned
	// to the last grid point.
	eos := toyEOS(t, "toy-exhausted")
	grid := NewRadialGrid(1e-4, 0.5, 500)
	s, err := NewStructure("toy-exhausted", eos, 2, grid, 1e-6, RK4, ExportConfig{})
	if err != nil {
		t.Fatal(err)
	}
	sol, err := s.Solve()
	if err != nil {
		t.Fatal(err)
	}
	if !sol.GridExhausted {
		t.Fatal("expected the grid exhaustion flag")
	}
	if sol.R() != 0.5 {
		t.Fatalf("R = %g, want pinned to the last grid point", sol.R())
	}
	if sol.Points() != 500 {
		t.Fatalf("expected the full grid committed, got %d", sol.Points())
	}
}

func TestProfileInterpolants(t *testing.T) {
	sol := solveToy(t, "toy-profiles", RK4)
	R := sol.R()
	if got := sol.Mu(1e-4); !floats.EqualWithinAbs(got, 2, 1e-9) {
		t.Fatalf("central μ = %f", got)
	}
	if got := sol.Mu(2 * R); got != 0 {
		t.Fatalf("μ past the surface = %f, want 0", got)
	}
	if got := sol.P(2 * R); got != 0 {
		t.Fatalf("p past the surface = %f, want 0", got)
	}
	// Mass queries past the surface clamp to the total mass.
	if got := sol.Mass(2 * R); got != sol.M() {
		t.Fatalf("mass past the surface = %f, want %f", got, sol.M())
	}
	if got := sol.MuNorm(1e-4); !floats.EqualWithinAbs(got, 1, 1e-12) {
		t.Fatalf("central normalized μ = %f", got)
	}
	if got := sol.PNorm(1e-4); !floats.EqualWithinAbs(got, 1, 1e-12) {
		t.Fatalf("central normalized p = %f", got)
	}
	if got := sol.MassNorm(R); !floats.EqualWithinAbs(got, 1, 1e-12) {
		t.Fatalf("mass fraction at the surface = %f", got)
	}
	// The profile is non increasing in μ and non decreasing in m between
	// any two sampled radii.
	prevμ, prevM := sol.Mu(1e-4), sol.Mass(1e-4)
	for r := 0.01; r < R; r += 0.01 {
		μ, m := sol.Mu(r), sol.Mass(r)
		if μ > prevμ || m < prevM {
			t.Fatalf("profile not monotonic at r=%f", r)
		}
		prevμ, prevM = μ, m
	}
}

// blowUpHydro behaves like Newtonian hydrostatics until the cutoff radius,
// then drives the state to NaN, the way an overshoot past the true surface
// produces unphysical values.
type blowUpHydro struct {
	cutoff float64
}

func (h blowUpHydro) Derivs(r float64, y, dy []float64) {
	if r >= h.cutoff {
		dy[0] = math.NaN()
		dy[1] = math.NaN()
		return
	}
	NewtonianHydro{}.Derivs(r, y, dy)
}

func TestSurfaceOnNaNState(t *testing.T) {
	// A NaN state is the same termination signal as a vanished pressure:
	// the surface is the previous grid radius and the failing point is
	// excluded from the solution.
	eos := toyEOS(t, "toy-nan")
	grid := NewRadialGrid(1e-4, 10, 1000)
	// The tolerance is far below any pressure reached before the cutoff,
	// so only the NaN test can terminate this run.
	s, err := NewStructure("toy-nan", eos, 2, grid, 1e-300, RK4, ExportConfig{})
	if err != nil {
		t.Fatal(err)
	}
	s.Physics = blowUpHydro{cutoff: 0.5}
	sol, err := s.Solve()
	if err != nil {
		t.Fatal(err)
	}
	if sol.GridExhausted {
		t.Fatal("a NaN state must terminate as a surface, not exhaust the grid")
	}
	if sol.Points() >= len(grid) {
		t.Fatal("solution was not truncated")
	}
	if sol.R() >= 0.5 || sol.R() <= grid[0] {
		t.Fatalf("R = %g, want the last finite radius below the cutoff", sol.R())
	}
	// The surface is the previous grid radius: the truncated solution is an
	// exact prefix of the grid, NaN point excluded.
	if sol.R() != grid[sol.Points()-1] {
		t.Fatalf("R = %g, want grid point %g", sol.R(), grid[sol.Points()-1])
	}
	μ := mat64.Col(nil, 0, sol.States())
	m := mat64.Col(nil, 1, sol.States())
	if !allFinite(μ) || !allFinite(m) {
		t.Fatal("a non finite state was committed")
	}
}

func TestStructureConfigErrors(t *testing.T) {
	eos := toyEOS(t, "toy-errors")
	grid := NewRadialGrid(1e-4, 10, 100)
	cases := []struct {
		name string
		ρc   float64
		grid []float64
		tol  float64
	}{
		{"negative central density", -1, grid, 1e-6},
		{"zero central density", 0, grid, 1e-6},
		{"central density above table", 50, grid, 1e-6},
		{"short grid", 2, grid[:1], 1e-6},
		{"non increasing grid", 2, []float64{1, 1, 2}, 1e-6},
		{"zero tolerance", 2, grid, 0},
	}
	for _, tc := range cases {
		if _, err := NewStructure(tc.name, eos, tc.ρc, tc.grid, tc.tol, RK4, ExportConfig{}); err == nil {
			t.Fatalf("%s: expected a configuration error", tc.name)
		}
	}
	if _, err := NewStructure("nil eos", nil, 2, grid, 1e-6, RK4, ExportConfig{}); err == nil {
		t.Fatal("nil eos: expected a configuration error")
	}
}

func TestSolveOnlyOnce(t *testing.T) {
	eos := toyEOS(t, "toy-once")
	s, err := NewStructure("toy-once", eos, 2, NewRadialGrid(1e-4, 10, 500), 1e-6, RK4, ExportConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err = s.Solve(); err != nil {
		t.Fatal(err)
	}
	if _, err = s.Solve(); err == nil {
		t.Fatal("expected an error on the second Solve")
	}
}

func TestRK4RequiresUniformGrid(t *testing.T) {
	eos := toyEOS(t, "toy-nonuniform")
	grid := []float64{1e-4, 0.1, 0.5, 2, 9}
	s, err := NewStructure("toy-nonuniform", eos, 2, grid, 1e-6, RK4, ExportConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err = s.Solve(); err == nil {
		t.Fatal("expected an error for RK4 on a non uniform grid")
	}
}

func TestNewRadialGrid(t *testing.T) {
	grid := NewRadialGrid(1e-4, 10, 5000)
	if len(grid) != 5000 {
		t.Fatalf("got %d points", len(grid))
	}
	if grid[0] != 1e-4 || !floats.EqualWithinAbs(grid[4999], 10, 1e-12) {
		t.Fatalf("grid bounds [%g, %g]", grid[0], grid[4999])
	}
	if _, even := uniformStep(grid); !even {
		t.Fatal("grid should be evenly spaced")
	}
	assertPanics(t, "r0=0", func() { NewRadialGrid(0, 10, 100) })
	assertPanics(t, "rMax<r0", func() { NewRadialGrid(1, 0.5, 100) })
	assertPanics(t, "n<2", func() { NewRadialGrid(1e-4, 10, 1) })
}

func assertPanics(t *testing.T, name string, f func()) {
	defer func() {
		if recover() == nil {
			t.Fatalf("%s: expected a panic", name)
		}
	}()
	f()
}

func TestCentralMassExpansion(t *testing.T) {
	eos := toyEOS(t, "toy-center")
	r0 := 1e-4
	s, err := NewStructure("toy-center", eos, 2, NewRadialGrid(r0, 10, 100), 1e-6, RK4, ExportConfig{})
	if err != nil {
		t.Fatal(err)
	}
	want := (4 * math.Pi / 3) * r0 * r0 * r0 * 2
	if !floats.EqualWithinAbs(s.GetState()[1], want, 1e-18) {
		t.Fatalf("central mass %g, want %g", s.GetState()[1], want)
	}
}
