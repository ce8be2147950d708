package thermo

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepwater/cgprep/pkg/units"
)

const sampleLog = `LAMMPS (2 Aug 2023 - Update 1)
units real
minimize 1.0e-4 1.0e-6 100 1000
Per MPI rank memory allocation (min/avg/max) = 12.5 | 12.5 | 12.5 Mbytes
   Step          Temp          PotEng
         0   0             -1000.5
        10   0             -1100.25
Loop time of 0.5 on 1 procs for 10 steps with 648 atoms

run 20
   Step          Temp          PotEng         v_Wxx          v_Wyy          v_Wzz          v_Wxy          v_Wxz          v_Wyz          Press
         0   300           100            1000000        2000000        3000000        10             20             30             1.5
WARNING: Dangerous builds (src/neighbor.cpp:1011)
        10   301.5         -50            -1000000       0              1              -10            -20            -30            2.5
Loop time of 1.25 on 1 procs for 20 steps with 648 atoms

run 5
   Step          Temp          PotEng
         0   310           7
`

func parseSample(t *testing.T) *Log {
	t.Helper()
	l, err := Parse(context.Background(), strings.NewReader(sampleLog), "log.lammps")
	require.NoError(t, err)
	return l
}

func TestParse_Runs(t *testing.T) {
	l := parseSample(t)

	require.Len(t, l.Runs, 3)
	assert.Equal(t, 2, l.Runs[0].Len())
	assert.True(t, l.Runs[0].Complete)

	run2 := l.Runs[1]
	assert.Equal(t, 2, run2.Index)
	assert.Equal(t, 2, run2.Len(), "warning line must be skipped")
	assert.Equal(t, []int64{0, 10}, run2.Steps())
	assert.True(t, run2.Has("v_Wyz"))

	press, ok := run2.Series("Press")
	require.True(t, ok)
	assert.Equal(t, []float64{1.5, 2.5}, press)

	assert.False(t, l.Runs[2].Complete, "truncated run has no loop time line")
	assert.Equal(t, 1, l.Runs[2].Len())
}

func TestLog_RunOutOfRange(t *testing.T) {
	l := parseSample(t)
	for _, idx := range []int{0, 4, -1} {
		_, err := l.Run(idx)
		assert.ErrorIs(t, err, ErrMissingField)
	}
}

func TestExtract(t *testing.T) {
	l := parseSample(t)
	s, err := Extract(l, 2, DefaultFields(), units.Default())
	require.NoError(t, err)

	require.Equal(t, 2, s.Len())
	assert.InDelta(t, 4.33641, s.Energies[0], 1e-12)
	assert.InDelta(t, -50*units.KcalMolToEV, s.Energies[1], 1e-12)

	v := s.Virials[0]
	assert.InDelta(t, 0.63247065, v.At(0, 0), 1e-12)
	assert.InDelta(t, 2*0.63247065, v.At(1, 1), 1e-12)
	assert.InDelta(t, 3*0.63247065, v.At(2, 2), 1e-12)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			assert.Equal(t, v.At(i, j), v.At(j, i), "virial must be symmetric at (%d,%d)", i, j)
		}
	}
	assert.InDelta(t, 10*units.AtmA3ToEV, v.At(0, 1), 1e-18)
	assert.InDelta(t, 20*units.AtmA3ToEV, v.At(2, 0), 1e-18)
	assert.InDelta(t, 30*units.AtmA3ToEV, v.At(1, 2), 1e-18)
	assert.InDelta(t, -30*units.AtmA3ToEV, s.Virials[1].At(2, 1), 1e-18)
}

func TestExtract_MissingField(t *testing.T) {
	l := parseSample(t)

	_, err := Extract(l, 1, DefaultFields(), units.Default())
	require.ErrorIs(t, err, ErrMissingField)

	var mf *MissingFieldError
	require.True(t, errors.As(err, &mf))
	assert.Equal(t, "v_Wxx", mf.Field)
	assert.Equal(t, 1, mf.Run)
}

func TestExtract_MissingRun(t *testing.T) {
	l := parseSample(t)
	_, err := Extract(l, 7, DefaultFields(), units.Default())

	var mf *MissingFieldError
	require.True(t, errors.As(err, &mf))
	assert.Empty(t, mf.Field)
	assert.Contains(t, err.Error(), "run 7 not found")
}

func TestAverages(t *testing.T) {
	l := parseSample(t)
	avgs, err := Averages(l, 2, []string{"Temp", "Press"})
	require.NoError(t, err)
	require.Len(t, avgs, 2)
	assert.InDelta(t, 300.75, avgs[0].Mean, 1e-12)
	assert.InDelta(t, 2.0, avgs[1].Mean, 1e-12)
	assert.Equal(t, 2, avgs[1].N)

	_, err = Averages(l, 2, []string{"Density"})
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.lammps")
	require.NoError(t, os.WriteFile(path, []byte(sampleLog), 0644))

	l, err := ParseFile(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, l.Runs, 3)
	assert.Equal(t, path, l.Source)
}

func TestParse_ErrorEndsBlock(t *testing.T) {
	content := "Step Temp\n0 1\nERROR: Lost atoms\n5 2\n"
	l, err := Parse(context.Background(), strings.NewReader(content), "x")
	require.NoError(t, err)
	require.Len(t, l.Runs, 1)
	assert.Equal(t, 1, l.Runs[0].Len())
}
