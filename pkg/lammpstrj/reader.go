package lammpstrj

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/deepwater/cgprep/internal/fsutil"
)

// state is the position of the reader inside a frame.
type state int

const (
	stateTimestepMarker state = iota
	stateTimestepValue
	stateCountMarker
	stateCountValue
	stateBoxMarker
	stateBoxLines
	stateAtomsMarker
	stateAtoms
)

func (s state) String() string {
	switch s {
	case stateTimestepMarker:
		return "expecting " + MarkerTimestep
	case stateTimestepValue:
		return "timestep value"
	case stateCountMarker:
		return "expecting " + MarkerNumAtoms
	case stateCountValue:
		return "atom count value"
	case stateBoxMarker:
		return "expecting " + MarkerBox
	case stateBoxLines:
		return "box bounds"
	case stateAtomsMarker:
		return "expecting " + MarkerAtoms
	default:
		return "atom lines"
	}
}

// columnMap holds the index of each required field in an atom line.
type columnMap struct {
	id, mol, typ int
	pos          [3]int
	force        [3]int
	total        int
}

// defaultColumns is used when the ATOMS marker carries no column names.
var defaultColumns = columnMap{
	id: 0, mol: 1, typ: 2,
	pos:   [3]int{3, 4, 5},
	force: [3]int{6, 7, 8},
	total: 9,
}

// Reader parses frames from a dump trajectory, one at a time.
// It is not safe for concurrent use.
type Reader struct {
	sc     *bufio.Scanner
	closer io.Closer
	source string

	line  int
	frame int
	err   error
}

// NewReader reads frames from r. Source names the input in error messages.
func NewReader(r io.Reader, source string) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Reader{sc: sc, source: source}
}

// OpenFile opens a dump file, decompressing .gz and .zst inputs.
func OpenFile(path string) (*Reader, error) {
	rc, err := fsutil.Open(path)
	if err != nil {
		return nil, err
	}
	r := NewReader(rc, path)
	r.closer = rc
	return r, nil
}

// Close releases the underlying file, if the reader owns one.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}

// Next parses and returns the next frame. It returns io.EOF once all frames
// have been consumed. Any structural problem is reported as a *ParseError.
func (r *Reader) Next(ctx context.Context) (*Frame, error) {
	if r.err != nil {
		return nil, r.err
	}

	f, err := r.next(ctx)
	if err != nil {
		r.err = err
		return nil, err
	}
	r.frame++
	return f, nil
}

func (r *Reader) next(ctx context.Context) (*Frame, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var (
		f        = &Frame{Index: r.frame}
		st       = stateTimestepMarker
		cols     columnMap
		natoms   int
		boxCount int
	)

	for r.sc.Scan() {
		r.line++
		text := r.sc.Text()
		trimmed := strings.TrimSpace(text)

		switch st {
		case stateTimestepMarker:
			if trimmed == "" {
				continue
			}
			if !strings.HasPrefix(trimmed, MarkerTimestep) {
				return nil, r.errorf("%s, got %q", st, trimmed)
			}
			st = stateTimestepValue

		case stateTimestepValue:
			ts, err := strconv.ParseInt(trimmed, 10, 64)
			if err != nil {
				return nil, r.errorf("invalid timestep %q", trimmed)
			}
			f.Timestep = ts
			st = stateCountMarker

		case stateCountMarker:
			if !strings.HasPrefix(trimmed, MarkerNumAtoms) {
				return nil, r.errorf("%s, got %q", st, trimmed)
			}
			st = stateCountValue

		case stateCountValue:
			n, err := strconv.Atoi(trimmed)
			if err != nil || n < 0 {
				return nil, r.errorf("invalid atom count %q", trimmed)
			}
			natoms = n
			st = stateBoxMarker

		case stateBoxMarker:
			if !strings.HasPrefix(trimmed, MarkerBox) {
				return nil, r.errorf("%s, got %q", st, trimmed)
			}
			f.BoxHeader = text
			f.Box.Triclinic = strings.Contains(trimmed, "xy")
			st = stateBoxLines

		case stateBoxLines:
			if err := parseBoxLine(&f.Box, boxCount, trimmed); err != nil {
				return nil, r.errorf("box line %d: %v", boxCount+1, err)
			}
			f.BoxLines[boxCount] = text
			boxCount++
			if boxCount == 3 {
				st = stateAtomsMarker
			}

		case stateAtomsMarker:
			if !strings.HasPrefix(trimmed, MarkerAtoms) {
				return nil, r.errorf("%s, got %q", st, trimmed)
			}
			names := strings.Fields(trimmed)[2:]
			c, err := resolveColumns(names)
			if err != nil {
				return nil, r.errorf("%v", err)
			}
			cols = c
			f.Columns = names
			f.Atoms = make([]AtomRecord, 0, natoms)
			if natoms == 0 {
				return f, nil
			}
			st = stateAtoms

		case stateAtoms:
			atom, err := parseAtomLine(trimmed, cols)
			if err != nil {
				return nil, r.errorf("atom line %d: %v", len(f.Atoms)+1, err)
			}
			f.Atoms = append(f.Atoms, atom)
			if len(f.Atoms) == natoms {
				return f, nil
			}
		}
	}

	if err := r.sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", fsutil.ErrIO, r.source, err)
	}

	switch st {
	case stateTimestepMarker:
		return nil, io.EOF
	case stateAtoms:
		return nil, r.errorf("unexpected end of file: %d of %d atom lines", len(f.Atoms), natoms)
	case stateBoxLines:
		return nil, r.errorf("unexpected end of file: %d of 3 box lines", boxCount)
	default:
		return nil, r.errorf("unexpected end of file while %s", st)
	}
}

func (r *Reader) errorf(format string, args ...any) error {
	return &ParseError{
		Source: r.source,
		Frame:  r.frame,
		Line:   r.line,
		Msg:    fmt.Sprintf(format, args...),
	}
}

// resolveColumns maps column names to field indices. An unnamed ATOMS marker
// selects the fixed "id mol type x y z fx fy fz" layout.
func resolveColumns(names []string) (columnMap, error) {
	if len(names) == 0 {
		return defaultColumns, nil
	}

	c := columnMap{id: -1, mol: -1, typ: -1, pos: [3]int{-1, -1, -1}, force: [3]int{-1, -1, -1}, total: len(names)}
	for i, name := range names {
		switch name {
		case "id":
			c.id = i
		case "mol":
			c.mol = i
		case "type":
			c.typ = i
		case "x", "xu":
			c.pos[0] = i
		case "y", "yu":
			c.pos[1] = i
		case "z", "zu":
			c.pos[2] = i
		case "fx":
			c.force[0] = i
		case "fy":
			c.force[1] = i
		case "fz":
			c.force[2] = i
		}
	}

	var missing []string
	check := func(idx int, name string) {
		if idx < 0 {
			missing = append(missing, name)
		}
	}
	check(c.id, "id")
	check(c.mol, "mol")
	check(c.typ, "type")
	for k, axis := range []string{"x", "y", "z"} {
		check(c.pos[k], axis)
		check(c.force[k], "f"+axis)
	}
	if len(missing) > 0 {
		return columnMap{}, fmt.Errorf("missing atom columns: %s", strings.Join(missing, " "))
	}
	return c, nil
}

func parseBoxLine(b *Box, k int, line string) error {
	fields := strings.Fields(line)
	want := 2
	if b.Triclinic {
		want = 3
	}
	if len(fields) < want {
		return fmt.Errorf("expected %d values, got %d", want, len(fields))
	}

	vals := make([]float64, want)
	for i := range vals {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return fmt.Errorf("invalid value %q", fields[i])
		}
		vals[i] = v
	}

	b.Lo[k], b.Hi[k] = vals[0], vals[1]
	if b.Triclinic {
		b.Tilt[k] = vals[2]
	}
	return nil
}

func parseAtomLine(line string, c columnMap) (AtomRecord, error) {
	var a AtomRecord

	fields := strings.Fields(line)
	if len(fields) != c.total {
		return a, fmt.Errorf("number of columns don't match: %d (expected %d)", len(fields), c.total)
	}

	var err error
	if a.ID, err = strconv.Atoi(fields[c.id]); err != nil {
		return a, fmt.Errorf("invalid atom id %q", fields[c.id])
	}
	if a.Mol, err = strconv.Atoi(fields[c.mol]); err != nil {
		return a, fmt.Errorf("invalid molecule id %q", fields[c.mol])
	}
	if a.Type, err = strconv.Atoi(fields[c.typ]); err != nil {
		return a, fmt.Errorf("invalid atom type %q", fields[c.typ])
	}
	for k := 0; k < 3; k++ {
		if a.Pos[k], err = strconv.ParseFloat(fields[c.pos[k]], 64); err != nil {
			return a, fmt.Errorf("invalid position %q", fields[c.pos[k]])
		}
		if a.Force[k], err = strconv.ParseFloat(fields[c.force[k]], 64); err != nil {
			return a, fmt.Errorf("invalid force %q", fields[c.force[k]])
		}
	}
	return a, nil
}

// ReadAll reads every frame of the dump at path.
func ReadAll(ctx context.Context, path string) ([]*Frame, error) {
	r, err := OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var frames []*Frame
	for {
		f, err := r.Next(ctx)
		if err == io.EOF {
			return frames, nil
		}
		if err != nil {
			return nil, err
		}
		frames = append(frames, f)
	}
}
