package thermo

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/deepwater/cgprep/pkg/units"
)

// VirialFields names the six independent virial columns.
type VirialFields struct {
	XX string `yaml:"xx" json:"xx"`
	YY string `yaml:"yy" json:"yy"`
	ZZ string `yaml:"zz" json:"zz"`
	XY string `yaml:"xy" json:"xy"`
	XZ string `yaml:"xz" json:"xz"`
	YZ string `yaml:"yz" json:"yz"`
}

// Names returns the columns in xx, yy, zz, xy, xz, yz order.
func (v VirialFields) Names() []string {
	return []string{v.XX, v.YY, v.ZZ, v.XY, v.XZ, v.YZ}
}

// Fields selects the log columns used for a dataset.
type Fields struct {
	Energy string       `yaml:"energy_field" json:"energy_field"`
	Virial VirialFields `yaml:"virial_fields" json:"virial_fields"`
}

// DefaultFields matches a log written with thermo_style custom ... pe v_Wxx ...
// where v_W* are equal-style variables of the pressure-volume product.
func DefaultFields() Fields {
	return Fields{
		Energy: "PotEng",
		Virial: VirialFields{
			XX: "v_Wxx", YY: "v_Wyy", ZZ: "v_Wzz",
			XY: "v_Wxy", XZ: "v_Wxz", YZ: "v_Wyz",
		},
	}
}

// Names returns all columns, energy first.
func (f Fields) Names() []string {
	return append([]string{f.Energy}, f.Virial.Names()...)
}

// Series holds converted per-step labels of one run.
type Series struct {
	Run      int
	Steps    []int64
	Energies []float64       // eV
	Virials  []*mat.SymDense // eV, 3×3 symmetric
}

// Len returns the number of steps.
func (s *Series) Len() int {
	return len(s.Energies)
}

// Extract pulls the energy and virial columns of run runIndex (1-based),
// converts them with conv and assembles one symmetric tensor per step.
// Nothing is returned unless every column is present.
func Extract(l *Log, runIndex int, fields Fields, conv units.Converter) (*Series, error) {
	run, err := l.Run(runIndex)
	if err != nil {
		return nil, err
	}

	cols := make([][]float64, 0, 7)
	for _, name := range fields.Names() {
		s, ok := run.Series(name)
		if !ok {
			return nil, &MissingFieldError{Source: l.Source, Run: runIndex, Field: name, Runs: len(l.Runs)}
		}
		cols = append(cols, s)
	}

	n := run.Len()
	out := &Series{
		Run:      runIndex,
		Steps:    run.Steps(),
		Energies: make([]float64, n),
		Virials:  make([]*mat.SymDense, n),
	}

	pe, xx, yy, zz, xy, xz, yz := cols[0], cols[1], cols[2], cols[3], cols[4], cols[5], cols[6]
	for i := 0; i < n; i++ {
		out.Energies[i] = conv.Energy(pe[i])

		// NewSymDense reads the upper triangle; (j,i) mirrors (i,j).
		out.Virials[i] = mat.NewSymDense(3, []float64{
			conv.Virial(xx[i]), conv.Virial(xy[i]), conv.Virial(xz[i]),
			0, conv.Virial(yy[i]), conv.Virial(yz[i]),
			0, 0, conv.Virial(zz[i]),
		})
	}

	return out, nil
}

// Average is the mean of one column over a run.
type Average struct {
	Field  string  `json:"field"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	N      int     `json:"n"`
}

// DefaultAverageFields are the columns summarized by default.
var DefaultAverageFields = []string{"Temp", "Press", "TotEng", "Density", "PotEng", "KinEng"}

// Averages computes mean and standard deviation of the named columns.
// Columns absent from the run are reported as a MissingFieldError.
func Averages(l *Log, runIndex int, names []string) ([]Average, error) {
	run, err := l.Run(runIndex)
	if err != nil {
		return nil, err
	}

	out := make([]Average, 0, len(names))
	for _, name := range names {
		s, ok := run.Series(name)
		if !ok {
			return nil, &MissingFieldError{Source: l.Source, Run: runIndex, Field: name, Runs: len(l.Runs)}
		}
		avg := Average{Field: name, N: len(s)}
		if len(s) > 0 {
			avg.Mean, avg.StdDev = stat.MeanStdDev(s, nil)
		}
		out = append(out, avg)
	}
	return out, nil
}
