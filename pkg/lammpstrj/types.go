// Package lammpstrj reads and writes LAMMPS text dump trajectories
// (the ".lammpstrj" ITEM-block format).
package lammpstrj

import (
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Block markers of the dump format, in the order they appear in a frame.
const (
	MarkerTimestep = "ITEM: TIMESTEP"
	MarkerNumAtoms = "ITEM: NUMBER OF ATOMS"
	MarkerBox      = "ITEM: BOX BOUNDS"
	MarkerAtoms    = "ITEM: ATOMS"
)

// AtomRecord is one row of the ATOMS block.
type AtomRecord struct {
	ID    int
	Mol   int
	Type  int
	Pos   [3]float64
	Force [3]float64
}

// Box holds the parsed BOX BOUNDS block. For triclinic boxes Lo and Hi are
// the bounding-box values as written by LAMMPS and Tilt holds xy, xz, yz.
type Box struct {
	Lo        [3]float64
	Hi        [3]float64
	Tilt      [3]float64
	Triclinic bool
}

// Bounds returns the box as the 3×3 (lo, hi, tilt) matrix, one row per dimension.
func (b Box) Bounds() [3][3]float64 {
	var m [3][3]float64
	for k := 0; k < 3; k++ {
		m[k] = [3]float64{b.Lo[k], b.Hi[k], b.Tilt[k]}
	}
	return m
}

// Origin returns the lower corner of the simulation cell.
func (b Box) Origin() [3]float64 {
	if !b.Triclinic {
		return b.Lo
	}
	xy, xz, yz := b.Tilt[0], b.Tilt[1], b.Tilt[2]
	return [3]float64{
		b.Lo[0] - min(0, xy, xz, xy+xz),
		b.Lo[1] - min(0, yz),
		b.Lo[2],
	}
}

// Cell returns the cell vectors as rows of a 3×3 matrix:
// a = (lx, 0, 0), b = (xy, ly, 0), c = (xz, yz, lz).
func (b Box) Cell() *mat.Dense {
	lo, hi := b.Lo, b.Hi
	var xy, xz, yz float64
	if b.Triclinic {
		xy, xz, yz = b.Tilt[0], b.Tilt[1], b.Tilt[2]
		lo[0] -= min(0, xy, xz, xy+xz)
		hi[0] -= max(0, xy, xz, xy+xz)
		lo[1] -= min(0, yz)
		hi[1] -= max(0, yz)
	}
	return mat.NewDense(3, 3, []float64{
		hi[0] - lo[0], 0, 0,
		xy, hi[1] - lo[1], 0,
		xz, yz, hi[2] - lo[2],
	})
}

// Frame is one snapshot of a dump trajectory.
type Frame struct {
	// Index is the 0-based ordinal of the frame in its file.
	Index int

	// Timestep is the simulation step the frame was written at.
	Timestep int64

	// BoxHeader is the full BOX BOUNDS marker line, including boundary flags.
	BoxHeader string

	// BoxLines are the three bound lines exactly as read.
	BoxLines [3]string

	// Box is the parsed form of BoxLines.
	Box Box

	// Columns are the per-atom column names from the ATOMS marker line.
	Columns []string

	// Atoms holds one record per ATOMS line, in file order.
	Atoms []AtomRecord
}

// PositionLabels returns the names used for the position columns (x y z,
// or xu yu zu for unwrapped dumps).
func (f *Frame) PositionLabels() [3]string {
	labels := [3]string{"x", "y", "z"}
	for _, c := range f.Columns {
		switch c {
		case "xu":
			labels[0] = c
		case "yu":
			labels[1] = c
		case "zu":
			labels[2] = c
		}
	}
	return labels
}

// atomsHeader renders the ATOMS marker for the columns the writer emits.
func atomsHeader(pos [3]string) string {
	return MarkerAtoms + " id mol type " + strings.Join(pos[:], " ") + " fx fy fz"
}
