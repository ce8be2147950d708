// Package coarse reduces all-atom dump frames to one bead per molecule.
//
// Every atom contributes its converted force to its molecule; the anchor atom
// (oxygen for water) supplies the bead position and identity. Bead ids are
// renumbered through a Remapper shared by all frames of a run.
package coarse

import (
	"github.com/deepwater/cgprep/pkg/lammpstrj"
	"github.com/deepwater/cgprep/pkg/units"
)

// BeadType is the type tag of every coarse-grained particle.
const BeadType = 1

// DefaultAnchorType is the atom type that marks the anchor (oxygen) atom.
const DefaultAnchorType = 1

// MoleculeRecord is one coarse-grained bead.
type MoleculeRecord struct {
	// ID is the dense identifier from the Remapper.
	ID int
	// Mol is the source molecule identifier.
	Mol int
	// Type is always BeadType.
	Type int
	// Pos is the anchor atom position.
	Pos [3]float64
	// Force is the summed, converted force of all atoms in the molecule.
	Force [3]float64
	// Anchor is the original id of the representative atom.
	Anchor int
	// HasAnchor is false when no anchor-type atom was found in the molecule.
	HasAnchor bool
}

// Frame is a coarse-grained snapshot.
type Frame struct {
	Index     int
	Timestep  int64
	BoxHeader string
	BoxLines  [3]string
	Box       lammpstrj.Box
	PosLabels [3]string
	Molecules []MoleculeRecord
}

// Stats summarizes the reduction of one or more frames.
type Stats struct {
	Atoms         int
	Molecules     int
	MissingAnchor int
}

// Add accumulates other into s.
func (s *Stats) Add(other Stats) {
	s.Atoms += other.Atoms
	s.Molecules += other.Molecules
	s.MissingAnchor += other.MissingAnchor
}

// Dump converts the frame back to a dump frame for writing.
func (f *Frame) Dump() *lammpstrj.Frame {
	out := &lammpstrj.Frame{
		Index:     f.Index,
		Timestep:  f.Timestep,
		BoxHeader: f.BoxHeader,
		BoxLines:  f.BoxLines,
		Box:       f.Box,
		Columns:   []string{"id", "mol", "type", f.PosLabels[0], f.PosLabels[1], f.PosLabels[2], "fx", "fy", "fz"},
		Atoms:     make([]lammpstrj.AtomRecord, len(f.Molecules)),
	}
	for i, m := range f.Molecules {
		out.Atoms[i] = lammpstrj.AtomRecord{ID: m.ID, Mol: m.Mol, Type: m.Type, Pos: m.Pos, Force: m.Force}
	}
	return out
}

// FromDump rebuilds a coarse-grained frame from a dump frame that already
// holds one bead per line, e.g. a previously written coarse-grained trajectory.
func FromDump(f *lammpstrj.Frame) *Frame {
	out := &Frame{
		Index:     f.Index,
		Timestep:  f.Timestep,
		BoxHeader: f.BoxHeader,
		BoxLines:  f.BoxLines,
		Box:       f.Box,
		PosLabels: f.PositionLabels(),
		Molecules: make([]MoleculeRecord, len(f.Atoms)),
	}
	for i, a := range f.Atoms {
		out.Molecules[i] = MoleculeRecord{
			ID: a.ID, Mol: a.Mol, Type: a.Type, Pos: a.Pos, Force: a.Force,
			Anchor: a.ID, HasAnchor: true,
		}
	}
	return out
}

// Aggregator reduces frames. It is not safe for concurrent use because it
// shares the Remapper across calls.
type Aggregator struct {
	anchorType int
	conv       units.Converter
	remap      *Remapper
}

// NewAggregator creates an Aggregator. A nil remapper gets a fresh one.
func NewAggregator(anchorType int, conv units.Converter, remap *Remapper) *Aggregator {
	if remap == nil {
		remap = NewRemapper()
	}
	return &Aggregator{anchorType: anchorType, conv: conv, remap: remap}
}

// Remapper returns the identifier mapping used by this aggregator.
func (a *Aggregator) Remapper() *Remapper {
	return a.remap
}

// accumulator is the per-molecule running state inside one frame.
type accumulator struct {
	mol       int
	force     [3]float64
	pos       [3]float64
	anchor    int
	hasAnchor bool
}

// Reduce turns one frame into beads, ordered by the first appearance of each
// molecule in the frame.
//
// Forces are summed in input order. A molecule without an anchor-type atom
// takes the position and id of its last atom; such beads have HasAnchor set to
// false and are counted in Stats.MissingAnchor. Whether that fallback is
// physically meaningful has not been confirmed, so callers should surface it.
func (a *Aggregator) Reduce(f *lammpstrj.Frame) (*Frame, Stats) {
	index := make(map[int]int)
	accs := make([]accumulator, 0, len(f.Atoms)/3+1)

	for i := range f.Atoms {
		atom := &f.Atoms[i]

		k, ok := index[atom.Mol]
		if !ok {
			k = len(accs)
			index[atom.Mol] = k
			accs = append(accs, accumulator{mol: atom.Mol})
		}
		acc := &accs[k]

		force := a.conv.ForceVec(atom.Force)
		for d := 0; d < 3; d++ {
			acc.force[d] += force[d]
		}

		switch {
		case atom.Type == a.anchorType:
			acc.pos = atom.Pos
			acc.anchor = atom.ID
			acc.hasAnchor = true
		case !acc.hasAnchor:
			acc.pos = atom.Pos
			acc.anchor = atom.ID
		}
	}

	out := &Frame{
		Index:     f.Index,
		Timestep:  f.Timestep,
		BoxHeader: f.BoxHeader,
		BoxLines:  f.BoxLines,
		Box:       f.Box,
		PosLabels: f.PositionLabels(),
		Molecules: make([]MoleculeRecord, 0, len(accs)),
	}
	stats := Stats{Atoms: len(f.Atoms), Molecules: len(accs)}

	for _, acc := range accs {
		if !acc.hasAnchor {
			stats.MissingAnchor++
		}
		out.Molecules = append(out.Molecules, MoleculeRecord{
			ID:        a.remap.Assign(acc.anchor),
			Mol:       acc.mol,
			Type:      BeadType,
			Pos:       acc.pos,
			Force:     acc.force,
			Anchor:    acc.anchor,
			HasAnchor: acc.hasAnchor,
		})
	}

	return out, stats
}
