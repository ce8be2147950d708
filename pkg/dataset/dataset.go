// Package dataset assembles coarse-grained frames and thermo labels into
// DeePMD-kit training data ("deepmd/raw" and "deepmd/npy" layouts).
package dataset

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"

	"github.com/deepwater/cgprep/internal/fsutil"
	"github.com/deepwater/cgprep/pkg/coarse"
	"github.com/deepwater/cgprep/pkg/thermo"
)

// File names of the raw layout.
const (
	TypeFile    = "type.raw"
	TypeMapFile = "type_map.raw"
	BoxFile     = "box.raw"
	CoordFile   = "coord.raw"
	ForceFile   = "force.raw"
	EnergyFile  = "energy.raw"
	VirialFile  = "virial.raw"
)

// DefaultTypeMap names the single bead type.
var DefaultTypeMap = []string{"TYPE_0"}

// ErrShapeMismatch is returned when frames disagree in size.
var ErrShapeMismatch = errors.New("dataset shape mismatch")

// Data holds per-frame arrays of a labeled system.
type Data struct {
	TypeMap  []string
	Types    []int        // per bead, index into TypeMap
	Boxes    []*mat.Dense // 3×3 cell vectors per frame
	Coords   []*mat.Dense // natoms×3 per frame
	Forces   []*mat.Dense // natoms×3 per frame, eV/Å
	Energies []float64    // eV
	Virials  []mat.Matrix // 3×3 per frame, eV
}

// Len returns the number of frames.
func (d *Data) Len() int {
	return len(d.Energies)
}

// Atoms returns the number of beads per frame.
func (d *Data) Atoms() int {
	return len(d.Types)
}

// Options controls how frames are turned into data.
type Options struct {
	// TypeMap names the bead types. DefaultTypeMap is used when empty.
	TypeMap []string

	// Wrap folds coordinates into the cell. Coordinates are always measured
	// from the cell origin, matching the origin-free cell vectors in box.raw.
	Wrap bool
}

// FromFrames pairs coarse-grained frames with thermo labels by position.
// The caller must make sure both have the same length.
func FromFrames(frames []*coarse.Frame, labels *thermo.Series, opts Options) (*Data, error) {
	if len(frames) != labels.Len() {
		return nil, fmt.Errorf("%w: %d frames but %d labels", ErrShapeMismatch, len(frames), labels.Len())
	}

	typeMap := opts.TypeMap
	if len(typeMap) == 0 {
		typeMap = DefaultTypeMap
	}

	d := &Data{
		TypeMap:  typeMap,
		Boxes:    make([]*mat.Dense, len(frames)),
		Coords:   make([]*mat.Dense, len(frames)),
		Forces:   make([]*mat.Dense, len(frames)),
		Energies: append([]float64(nil), labels.Energies...),
		Virials:  make([]mat.Matrix, len(frames)),
	}

	for i, f := range frames {
		n := len(f.Molecules)
		if i == 0 {
			d.Types = make([]int, n)
		} else if n != len(d.Types) {
			return nil, fmt.Errorf("%w: frame %d has %d beads, frame 0 has %d", ErrShapeMismatch, i, n, len(d.Types))
		}

		cell := f.Box.Cell()
		coords, forces := &mat.Dense{}, &mat.Dense{}
		if n > 0 {
			coords = mat.NewDense(n, 3, nil)
			forces = mat.NewDense(n, 3, nil)
			origin := f.Box.Origin()
			for j, m := range f.Molecules {
				coords.SetRow(j, []float64{m.Pos[0] - origin[0], m.Pos[1] - origin[1], m.Pos[2] - origin[2]})
				forces.SetRow(j, m.Force[:])
			}
			if opts.Wrap {
				var err error
				if coords, err = wrap(coords, cell); err != nil {
					return nil, fmt.Errorf("frame %d: %w", i, err)
				}
			}
		}

		d.Boxes[i] = cell
		d.Coords[i] = coords
		d.Forces[i] = forces
		d.Virials[i] = labels.Virials[i]
	}

	return d, nil
}

// wrap maps origin-relative Cartesian positions into the periodic cell.
func wrap(pos *mat.Dense, cell *mat.Dense) (*mat.Dense, error) {
	var inv mat.Dense
	if err := inv.Inverse(cell); err != nil {
		return nil, fmt.Errorf("singular cell: %w", err)
	}

	n, _ := pos.Dims()
	var frac mat.Dense
	frac.Mul(pos, &inv)
	frac.Apply(func(_, _ int, v float64) float64 { return v - math.Floor(v) }, &frac)

	out := mat.NewDense(n, 3, nil)
	out.Mul(&frac, cell)
	return out, nil
}

// Subset returns the frames at idx, in the order given.
func (d *Data) Subset(idx []int) *Data {
	out := &Data{
		TypeMap:  d.TypeMap,
		Types:    d.Types,
		Boxes:    make([]*mat.Dense, 0, len(idx)),
		Coords:   make([]*mat.Dense, 0, len(idx)),
		Forces:   make([]*mat.Dense, 0, len(idx)),
		Energies: make([]float64, 0, len(idx)),
		Virials:  make([]mat.Matrix, 0, len(idx)),
	}
	for _, i := range idx {
		out.Boxes = append(out.Boxes, d.Boxes[i])
		out.Coords = append(out.Coords, d.Coords[i])
		out.Forces = append(out.Forces, d.Forces[i])
		out.Energies = append(out.Energies, d.Energies[i])
		out.Virials = append(out.Virials, d.Virials[i])
	}
	return out
}

func asMatrices(ms []*mat.Dense) []mat.Matrix {
	out := make([]mat.Matrix, len(ms))
	for i, m := range ms {
		out[i] = m
	}
	return out
}

// EmitRaw writes the raw layout into dir, creating it if needed. Each file
// is written atomically and returned in the order written.
func EmitRaw(dir string, d *Data) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating %s: %w", fsutil.ErrIO, dir, err)
	}

	files := []struct {
		name  string
		write func(w io.Writer) error
	}{
		{TypeFile, func(w io.Writer) error { return writeInts(w, d.Types) }},
		{TypeMapFile, func(w io.Writer) error { return writeLines(w, d.TypeMap) }},
		{BoxFile, func(w io.Writer) error { return WriteRaw(w, asMatrices(d.Boxes)) }},
		{CoordFile, func(w io.Writer) error { return WriteRaw(w, asMatrices(d.Coords)) }},
		{ForceFile, func(w io.Writer) error { return WriteRaw(w, asMatrices(d.Forces)) }},
		{EnergyFile, func(w io.Writer) error { return WriteScalars(w, d.Energies) }},
		{VirialFile, func(w io.Writer) error { return WriteRaw(w, d.Virials) }},
	}

	written := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := fsutil.WriteFileAtomic(path, f.write); err != nil {
			return written, fmt.Errorf("writing %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}
