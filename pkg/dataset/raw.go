package dataset

import (
	"bufio"
	"io"
	"strconv"

	"gonum.org/v1/gonum/mat"
)

// rawPrecision is the number of fractional digits in raw files ("%.18e").
const rawPrecision = 18

// AppendValue formats v the way raw files expect it.
func AppendValue(b []byte, v float64) []byte {
	return strconv.AppendFloat(b, v, 'e', rawPrecision, 64)
}

// WriteRaw writes one line per frame. Each frame is flattened row-major
// (for a 3×3 virial: xx xy xz yx yy yz zx zy zz) and values are separated
// by single spaces.
func WriteRaw(w io.Writer, frames []mat.Matrix) error {
	bw := bufio.NewWriter(w)
	var b []byte
	for _, m := range frames {
		b = b[:0]
		r, c := m.Dims()
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				if i > 0 || j > 0 {
					b = append(b, ' ')
				}
				b = AppendValue(b, m.At(i, j))
			}
		}
		b = append(b, '\n')
		if _, err := bw.Write(b); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteScalars writes one value per line, e.g. per-frame energies.
func WriteScalars(w io.Writer, vals []float64) error {
	bw := bufio.NewWriter(w)
	var b []byte
	for _, v := range vals {
		b = AppendValue(b[:0], v)
		b = append(b, '\n')
		if _, err := bw.Write(b); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// writeLines writes one string per line.
func writeLines(w io.Writer, lines []string) error {
	bw := bufio.NewWriter(w)
	for _, l := range lines {
		if _, err := bw.WriteString(l + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// writeInts writes one integer per line.
func writeInts(w io.Writer, vals []int) error {
	bw := bufio.NewWriter(w)
	var b []byte
	for _, v := range vals {
		b = strconv.AppendInt(b[:0], int64(v), 10)
		b = append(b, '\n')
		if _, err := bw.Write(b); err != nil {
			return err
		}
	}
	return bw.Flush()
}
