package lammpstrj

import (
	"bufio"
	"io"
	"strconv"

	"github.com/deepwater/cgprep/internal/fsutil"
)

// Writer serializes frames in the dump format. Box lines are written
// verbatim; the atom count is always len(frame.Atoms).
type Writer struct {
	w   *bufio.Writer
	buf []byte
}

// NewWriter creates a Writer on top of w. Call Flush when done.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteFrame writes one frame. A frame without atoms is written with a zero
// count and an empty ATOMS block.
func (w *Writer) WriteFrame(f *Frame) error {
	b := w.buf[:0]

	b = append(b, MarkerTimestep...)
	b = append(b, '\n')
	b = strconv.AppendInt(b, f.Timestep, 10)
	b = append(b, '\n')

	b = append(b, MarkerNumAtoms...)
	b = append(b, '\n')
	b = strconv.AppendInt(b, int64(len(f.Atoms)), 10)
	b = append(b, '\n')

	header := f.BoxHeader
	if header == "" {
		header = MarkerBox + " pp pp pp"
	}
	b = append(b, header...)
	b = append(b, '\n')
	for _, l := range f.BoxLines {
		b = append(b, l...)
		b = append(b, '\n')
	}

	b = append(b, atomsHeader(f.PositionLabels())...)
	b = append(b, '\n')

	for i := range f.Atoms {
		b = appendAtom(b, &f.Atoms[i])
	}

	w.buf = b
	_, err := w.w.Write(b)
	return err
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

func appendAtom(b []byte, a *AtomRecord) []byte {
	b = strconv.AppendInt(b, int64(a.ID), 10)
	b = append(b, ' ')
	b = strconv.AppendInt(b, int64(a.Mol), 10)
	b = append(b, ' ')
	b = strconv.AppendInt(b, int64(a.Type), 10)
	for _, v := range a.Pos {
		b = append(b, ' ')
		b = strconv.AppendFloat(b, v, 'g', -1, 64)
	}
	for _, v := range a.Force {
		b = append(b, ' ')
		b = strconv.AppendFloat(b, v, 'g', -1, 64)
	}
	return append(b, '\n')
}

// WriteFile writes frames to path atomically, compressing by extension.
func WriteFile(path string, frames []*Frame) error {
	return fsutil.WriteFileAtomic(path, func(out io.Writer) error {
		w := NewWriter(out)
		for _, f := range frames {
			if err := w.WriteFrame(f); err != nil {
				return err
			}
		}
		return w.Flush()
	})
}
