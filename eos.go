package stellar

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
)

// crustRows is the low density crust affixed below every loaded table so the
// relation stays valid near zero density. Columns are rest mass density,
// energy density and pressure/c², all in g/cm³. Electron degeneracy scaling.
var crustRows = [][3]float64{
	{1.0e4, 1.0e4, 1.5e-2},
	{1.0e6, 1.0e6, 7.0e0},
	{1.0e8, 1.0e8, 3.3e3},
	{1.0e10, 1.0e10, 1.5e6},
	{1.0e11, 1.0e11, 3.2e7},
	{1.0e12, 1.0e12, 7.0e8},
	{5.0e12, 5.0e12, 6.0e9},
	{1.5e13, 1.5e13, 2.6e10},
}

var (
	eosCacheMu sync.Mutex
	eosCache   = map[string]*EOS{}
)

// EOS is a tabulated equation of state in nuclear saturation density units,
// crust included. Immutable once loaded; safe for shared read-only use by
// concurrent integrations.
type EOS struct {
	Name      string
	ρ, μ, p   []float64
	pOfμ      Interpolation
	dpdμOfμ   Interpolation
	μOfρ      Interpolation
	constants Constants
}

// LoadEOS reads the named tabulated equation of state from path, affixes the
// low density crust and converts the table to nuclear density units. Tables
// loaded under the same name are cached and returned as is.
//
// The file must hold at least three numeric columns per row (rest mass
// density, energy density, pressure/c², all in g/cm³), comma or whitespace
// delimited, one sample per line, `#` starting a comment.
func LoadEOS(name, path string, consts Constants) (*EOS, error) {
	eosCacheMu.Lock()
	defer eosCacheMu.Unlock()
	if eos, found := eosCache[name]; found {
		return eos, nil
	}
	rows, err := readEOSFile(path)
	if err != nil {
		return nil, err
	}
	eos, err := newEOS(name, rows, consts)
	if err != nil {
		return nil, err
	}
	eosCache[name] = eos
	return eos, nil
}

// readEOSFile parses the raw table rows from the on disk format.
func readEOSFile(path string) ([][3]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	r := csv.NewReader(strings.NewReader(string(data)))
	if strings.Contains(string(data), ",") {
		r.Comma = ','
	} else {
		r.Comma = ' '
	}
	r.Comment = '#'
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	var rows [][3]float64
	for {
		record, err := r.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("%s: %s", path, err)
		}
		// Runs of spaces show up as empty fields.
		fields := record[:0]
		for _, f := range record {
			if strings.TrimSpace(f) != "" {
				fields = append(fields, f)
			}
		}
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 3 {
			return nil, fmt.Errorf("%s: row %d has %d columns, need at least 3", path, len(rows)+1, len(fields))
		}
		var row [3]float64
		for i := 0; i < 3; i++ {
			val, err := strconv.ParseFloat(strings.TrimSpace(fields[i]), 64)
			if err != nil {
				return nil, fmt.Errorf("%s: row %d: %s", path, len(rows)+1, err)
			}
			row[i] = val
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// NewEOSFromTable builds an equation of state from rows already in memory,
// in the same g/cm³ columns as the on disk format. Mostly used in tests and
// for toy equations of state; LoadEOS is the usual entry point.
func NewEOSFromTable(name string, rows [][3]float64, consts Constants) (*EOS, error) {
	return newEOS(name, rows, consts)
}

func newEOS(name string, rows [][3]float64, consts Constants) (*EOS, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("eos %s: table has %d rows, need at least 2", name, len(rows))
	}
	// Affix the crust below the lowest tabulated density.
	table := make([][3]float64, 0, len(rows)+len(crustRows))
	for _, c := range crustRows {
		if c[0] < rows[0][0] && c[1] < rows[0][1] {
			table = append(table, c)
		}
	}
	table = append(table, rows...)
	eos := &EOS{Name: name, constants: consts}
	for i, row := range table {
		ρ, μ, p := row[0]/consts.RhoNuc, row[1]/consts.RhoNuc, row[2]/consts.RhoNuc
		if ρ < 0 || μ < 0 || p < 0 {
			return nil, fmt.Errorf("eos %s: negative entry at row %d", name, i)
		}
		if i > 0 && (ρ < eos.ρ[i-1] || μ < eos.μ[i-1]) {
			return nil, fmt.Errorf("eos %s: non monotonic table at row %d", name, i)
		}
		eos.ρ = append(eos.ρ, ρ)
		eos.μ = append(eos.μ, μ)
		eos.p = append(eos.p, p)
	}
	eos.pOfμ = NewInterpolation(eos.μ, eos.p, OutOfRangeZero)
	eos.μOfρ = NewInterpolation(eos.ρ, eos.μ, OutOfRangeZero)
	eos.dpdμOfμ = NewInterpolation(eos.μ, gradient(eos.p, eos.μ), OutOfRangeZero)
	return eos, nil
}

// gradient computes the finite difference derivative dy/dx over a table,
// central differences inside and one sided at the ends.
func gradient(ys, xs []float64) []float64 {
	n := len(xs)
	g := make([]float64, n)
	g[0] = (ys[1] - ys[0]) / (xs[1] - xs[0])
	for i := 1; i < n-1; i++ {
		g[i] = (ys[i+1] - ys[i-1]) / (xs[i+1] - xs[i-1])
	}
	g[n-1] = (ys[n-1] - ys[n-2]) / (xs[n-1] - xs[n-2])
	return g
}

// Pressure returns the pressure at the given energy density, zero outside
// of the tabulated domain.
func (e *EOS) Pressure(μ float64) float64 {
	return e.pOfμ.At(μ)
}

// DpDμ returns the gradient of the pressure with respect to the energy
// density (the sound speed squared in code units), zero outside of the
// tabulated domain. The Newtonian equilibrium equations do not consume it;
// it is exposed for higher order integrators.
func (e *EOS) DpDμ(μ float64) float64 {
	return e.dpdμOfμ.At(μ)
}

// EnergyDensity returns the energy density at the given rest mass density,
// zero outside of the tabulated domain.
func (e *EOS) EnergyDensity(ρ float64) float64 {
	return e.μOfρ.At(ρ)
}

// Len returns the number of rows of the table, crust included.
func (e *EOS) Len() int {
	return len(e.ρ)
}

// Constants returns the physical constants this table was loaded with.
func (e *EOS) Constants() Constants {
	return e.constants
}

// MinDensity returns the lowest tabulated rest mass density in nuclear units.
func (e *EOS) MinDensity() float64 {
	return e.ρ[0]
}

// MaxDensity returns the highest tabulated rest mass density in nuclear units.
func (e *EOS) MaxDensity() float64 {
	return e.ρ[len(e.ρ)-1]
}

func (e *EOS) String() string {
	return fmt.Sprintf("EOS %s (%d rows, ρ ∈ [%g, %g] ρnuc)", e.Name, e.Len(), e.MinDensity(), e.MaxDensity())
}
