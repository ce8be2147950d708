// Package units converts LAMMPS "real" units into the metal-style units
// expected by DeePMD-kit datasets.
package units

// Default conversion factors.
const (
	// KcalMolToEV converts kcal/mol to eV (and kcal/mol/Å to eV/Å).
	KcalMolToEV = 0.0433641

	// AtmA3ToEV converts a pressure-volume product in atm·Å³ to eV.
	AtmA3ToEV = 6.3247065e-7
)

// Constants holds the conversion factors used by a Converter.
type Constants struct {
	KcalMolToEV float64 `yaml:"kcal_mol_to_ev" json:"kcal_mol_to_ev"`
	AtmA3ToEV   float64 `yaml:"atm_a3_to_ev" json:"atm_a3_to_ev"`
}

// DefaultConstants returns the factors used by the reference workflow.
func DefaultConstants() Constants {
	return Constants{
		KcalMolToEV: KcalMolToEV,
		AtmA3ToEV:   AtmA3ToEV,
	}
}

// Converter applies fixed conversion factors. The zero value converts
// everything to zero; use NewConverter or Default.
type Converter struct {
	c Constants
}

// NewConverter creates a converter from the given constants.
func NewConverter(c Constants) Converter {
	return Converter{c: c}
}

// Default returns a converter using DefaultConstants.
func Default() Converter {
	return NewConverter(DefaultConstants())
}

// Constants returns the factors in use.
func (c Converter) Constants() Constants {
	return c.c
}

// Force converts a force component from kcal/mol/Å to eV/Å.
func (c Converter) Force(f float64) float64 {
	return f * c.c.KcalMolToEV
}

// Energy converts an energy from kcal/mol to eV.
func (c Converter) Energy(e float64) float64 {
	return e * c.c.KcalMolToEV
}

// Virial converts a stress-volume component from atm·Å³ to eV.
func (c Converter) Virial(w float64) float64 {
	return w * c.c.AtmA3ToEV
}

// ForceVec converts all three components of a force vector.
func (c Converter) ForceVec(f [3]float64) [3]float64 {
	return [3]float64{c.Force(f[0]), c.Force(f[1]), c.Force(f[2])}
}
