package coarse

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepwater/cgprep/pkg/lammpstrj"
	"github.com/deepwater/cgprep/pkg/units"
)

// water builds a molecule: oxygen first (type 1), then two hydrogens.
func water(mol, firstID int, o [3]float64) []lammpstrj.AtomRecord {
	return []lammpstrj.AtomRecord{
		{ID: firstID, Mol: mol, Type: 1, Pos: o, Force: [3]float64{1, 2, 3}},
		{ID: firstID + 1, Mol: mol, Type: 2, Pos: [3]float64{o[0] + 1, o[1], o[2]}, Force: [3]float64{0.5, -1, 0}},
		{ID: firstID + 2, Mol: mol, Type: 2, Pos: [3]float64{o[0], o[1] + 1, o[2]}, Force: [3]float64{-0.25, 0, 1}},
	}
}

func frameOf(atoms ...[]lammpstrj.AtomRecord) *lammpstrj.Frame {
	f := &lammpstrj.Frame{Timestep: 0, BoxLines: [3]string{"0 10", "0 10", "0 10"}}
	for _, a := range atoms {
		f.Atoms = append(f.Atoms, a...)
	}
	return f
}

func TestReduce_SumsForcesAndUsesAnchor(t *testing.T) {
	conv := units.Default()
	agg := NewAggregator(DefaultAnchorType, conv, nil)

	f := frameOf(water(5, 10, [3]float64{1, 1, 1}), water(2, 20, [3]float64{4, 4, 4}))
	cg, stats := agg.Reduce(f)

	require.Len(t, cg.Molecules, 2)
	assert.Equal(t, Stats{Atoms: 6, Molecules: 2}, stats)

	m := cg.Molecules[0]
	assert.Equal(t, 1, m.ID)
	assert.Equal(t, 5, m.Mol)
	assert.Equal(t, BeadType, m.Type)
	assert.Equal(t, [3]float64{1, 1, 1}, m.Pos)
	assert.Equal(t, 10, m.Anchor)
	assert.True(t, m.HasAnchor)

	want := [3]float64{1.25 * units.KcalMolToEV, 1 * units.KcalMolToEV, 4 * units.KcalMolToEV}
	for d := 0; d < 3; d++ {
		assert.InDelta(t, want[d], m.Force[d], 1e-12)
	}

	assert.Equal(t, 2, cg.Molecules[1].ID)
	assert.Equal(t, 2, cg.Molecules[1].Mol)
}

func TestReduce_MoleculeCountIsAtomsOverGroupSize(t *testing.T) {
	agg := NewAggregator(DefaultAnchorType, units.Default(), nil)

	var mols [][]lammpstrj.AtomRecord
	for i := 0; i < 64; i++ {
		mols = append(mols, water(i+1, 3*i+1, [3]float64{float64(i), 0, 0}))
	}
	f := frameOf(mols...)

	cg, _ := agg.Reduce(f)
	assert.Len(t, cg.Molecules, len(f.Atoms)/3)
	assert.Len(t, cg.Dump().Atoms, 64)
}

func TestReduce_IDsStableAcrossFrames(t *testing.T) {
	agg := NewAggregator(DefaultAnchorType, units.Default(), nil)

	first, _ := agg.Reduce(frameOf(water(1, 100, [3]float64{}), water(2, 200, [3]float64{})))
	// Same molecules, different order; a new molecule appears.
	second, _ := agg.Reduce(frameOf(water(2, 200, [3]float64{}), water(3, 300, [3]float64{}), water(1, 100, [3]float64{})))

	assert.Equal(t, []int{1, 2}, []int{first.Molecules[0].ID, first.Molecules[1].ID})
	assert.Equal(t, []int{2, 3, 1}, []int{second.Molecules[0].ID, second.Molecules[1].ID, second.Molecules[2].ID})
	assert.Equal(t, 3, agg.Remapper().Len())
}

func TestReduce_PermutationInvariantForces(t *testing.T) {
	conv := units.Default()
	atoms := []lammpstrj.AtomRecord{
		{ID: 1, Mol: 1, Type: 1, Force: [3]float64{1e3, -3.3e-4, 17.1}},
		{ID: 2, Mol: 1, Type: 2, Force: [3]float64{-999.7, 2.2e-4, 0.123456789}},
		{ID: 3, Mol: 1, Type: 2, Force: [3]float64{0.1, 1.2e-4, -17.2}},
	}
	base, _ := NewAggregator(1, conv, nil).Reduce(frameOf(atoms))

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 10; i++ {
		perm := make([]lammpstrj.AtomRecord, len(atoms))
		for j, k := range rng.Perm(len(atoms)) {
			perm[j] = atoms[k]
		}
		got, _ := NewAggregator(1, conv, nil).Reduce(frameOf(perm))
		for d := 0; d < 3; d++ {
			assert.InEpsilon(t, base.Molecules[0].Force[d], got.Molecules[0].Force[d], 1e-9)
		}
		assert.Equal(t, base.Molecules[0].Pos, got.Molecules[0].Pos)
	}
}

func TestReduce_MissingAnchorFallsBackToLastAtom(t *testing.T) {
	agg := NewAggregator(DefaultAnchorType, units.Default(), nil)
	f := frameOf([]lammpstrj.AtomRecord{
		{ID: 4, Mol: 9, Type: 2, Pos: [3]float64{1, 0, 0}},
		{ID: 5, Mol: 9, Type: 2, Pos: [3]float64{2, 0, 0}},
	}, water(3, 1, [3]float64{7, 7, 7}))

	cg, stats := agg.Reduce(f)

	require.Len(t, cg.Molecules, 2)
	m := cg.Molecules[0]
	assert.False(t, m.HasAnchor)
	assert.Equal(t, 5, m.Anchor)
	assert.Equal(t, [3]float64{2, 0, 0}, m.Pos)
	assert.Equal(t, 1, stats.MissingAnchor)
	assert.True(t, cg.Molecules[1].HasAnchor)
}

func TestReduce_AnchorWinsOverLaterHydrogens(t *testing.T) {
	agg := NewAggregator(DefaultAnchorType, units.Default(), nil)
	f := frameOf([]lammpstrj.AtomRecord{
		{ID: 2, Mol: 1, Type: 2, Pos: [3]float64{9, 9, 9}},
		{ID: 1, Mol: 1, Type: 1, Pos: [3]float64{1, 1, 1}},
		{ID: 3, Mol: 1, Type: 2, Pos: [3]float64{8, 8, 8}},
	})
	cg, _ := agg.Reduce(f)
	assert.Equal(t, [3]float64{1, 1, 1}, cg.Molecules[0].Pos)
	assert.Equal(t, 1, cg.Molecules[0].Anchor)
}

func TestReduce_EmptyFrame(t *testing.T) {
	agg := NewAggregator(DefaultAnchorType, units.Default(), nil)
	cg, stats := agg.Reduce(frameOf())
	assert.Empty(t, cg.Molecules)
	assert.Zero(t, stats.Molecules)
}

func TestDumpFromDump(t *testing.T) {
	agg := NewAggregator(DefaultAnchorType, units.Default(), nil)
	cg, _ := agg.Reduce(frameOf(water(1, 1, [3]float64{1, 2, 3})))

	back := FromDump(cg.Dump())
	assert.Equal(t, cg.Molecules[0].Pos, back.Molecules[0].Pos)
	assert.Equal(t, cg.Molecules[0].Force, back.Molecules[0].Force)
	assert.Equal(t, cg.BoxLines, back.BoxLines)
}
