package dataset

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/sbinet/npyio"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/sampleuv"

	"github.com/deepwater/cgprep/internal/fsutil"
)

// SetDir is the subdirectory holding the numpy arrays of a system.
const SetDir = "set.000"

// Partition is the outcome of Split. Index slices refer to frames of the
// source Data and are ascending.
type Partition struct {
	Training   []int
	Validation []int
}

// Split draws int(n*fraction) validation frames uniformly without
// replacement, seeded by seed. The remaining frames, in order, form the
// training set. The same seed always gives the same partition.
func Split(n int, fraction float64, seed uint64) (Partition, error) {
	if fraction < 0 || fraction >= 1 {
		return Partition{}, fmt.Errorf("validation fraction %g must be in [0, 1)", fraction)
	}

	k := int(float64(n) * fraction)
	p := Partition{Validation: make([]int, k)}
	if k > 0 {
		sampleuv.WithoutReplacement(p.Validation, n, rand.NewSource(seed))
		slices.Sort(p.Validation)
	}

	p.Training = make([]int, 0, n-k)
	for i, v := 0, 0; i < n; i++ {
		if v < k && p.Validation[v] == i {
			v++
			continue
		}
		p.Training = append(p.Training, i)
	}
	return p, nil
}

// stack flattens per-frame matrices into one nframes×(r·c) matrix.
func stack(ms []mat.Matrix) *mat.Dense {
	if len(ms) == 0 {
		return &mat.Dense{}
	}
	r, c := ms[0].Dims()
	if r*c == 0 {
		return &mat.Dense{}
	}
	out := mat.NewDense(len(ms), r*c, nil)
	for f, m := range ms {
		row := out.RawRowView(f)
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				row[i*c+j] = m.At(i, j)
			}
		}
	}
	return out
}

// EmitNpy writes d in the numpy layout: type.raw and type_map.raw in dir,
// per-frame arrays in dir/set.000. Returned paths are in the order written.
func EmitNpy(dir string, d *Data) ([]string, error) {
	if d.Len() == 0 {
		return nil, fmt.Errorf("%w: no frames to write to %s", ErrShapeMismatch, dir)
	}
	setDir := filepath.Join(dir, SetDir)
	if err := os.MkdirAll(setDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating %s: %w", fsutil.ErrIO, setDir, err)
	}

	written := make([]string, 0, 7)
	write := func(path string, fn func(w io.Writer) error) error {
		if err := fsutil.WriteFileAtomic(path, fn); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		written = append(written, path)
		return nil
	}

	for _, raw := range []struct {
		name string
		fn   func(w io.Writer) error
	}{
		{TypeFile, func(w io.Writer) error { return writeInts(w, d.Types) }},
		{TypeMapFile, func(w io.Writer) error { return writeLines(w, d.TypeMap) }},
	} {
		if err := write(filepath.Join(dir, raw.name), raw.fn); err != nil {
			return written, err
		}
	}

	arrays := []struct {
		name string
		val  any
	}{
		{"box.npy", stack(asMatrices(d.Boxes))},
		{"coord.npy", stack(asMatrices(d.Coords))},
		{"force.npy", stack(asMatrices(d.Forces))},
		{"energy.npy", d.Energies},
		{"virial.npy", stack(d.Virials)},
	}
	for _, a := range arrays {
		val := a.val
		err := write(filepath.Join(setDir, a.name), func(w io.Writer) error {
			return npyio.Write(w, val)
		})
		if err != nil {
			return written, err
		}
	}
	return written, nil
}
