package stellar

import "math"

// Constants gathers the physical constants needed to move between the
// geometrized code units (G = c = 1, densities in units of the nuclear
// saturation density) and physical units. All values are CGS.
// The structure is immutable by convention: pass it by value.
type Constants struct {
	G      float64 // gravitational constant (cm³/g/s²)
	C      float64 // speed of light (cm/s)
	RhoNuc float64 // nuclear saturation density (g/cm³)
	MSun   float64 // solar mass (g)
}

// StandardConstants returns the constants used for all published runs.
func StandardConstants() Constants {
	return Constants{
		G:      6.67430e-8,
		C:      2.99792458e10,
		RhoNuc: 2.3e14,
		MSun:   1.98892e33,
	}
}

// lengthScale returns the code unit of length in cm: c/√(G·ρnuc).
func (c Constants) lengthScale() float64 {
	return c.C / math.Sqrt(c.G*c.RhoNuc)
}

// RadiusKm converts a code unit radius into kilometers.
func (c Constants) RadiusKm(rSol float64) float64 {
	return rSol * c.lengthScale() / 1e5
}

// SolarMasses converts a code unit mass into solar masses.
func (c Constants) SolarMasses(mSol float64) float64 {
	return mSol * math.Pow(c.C, 3) / (c.G * math.Sqrt(c.G*c.RhoNuc) * c.MSun)
}

// CodeRadius is the inverse of RadiusKm.
func (c Constants) CodeRadius(km float64) float64 {
	return km * 1e5 / c.lengthScale()
}

// CodeMass is the inverse of SolarMasses.
func (c Constants) CodeMass(msun float64) float64 {
	return msun * c.G * math.Sqrt(c.G*c.RhoNuc) * c.MSun / math.Pow(c.C, 3)
}
