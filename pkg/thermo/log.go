// Package thermo reads thermodynamic output from LAMMPS log files.
//
// A log holds one thermo block per run command. A block starts at the
// column header (first keyword "Step") and ends at "Loop time of", at an
// ERROR line, or at the end of the file.
package thermo

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/deepwater/cgprep/internal/fsutil"
)

// StepKeyword is the first column of every thermo header.
const StepKeyword = "Step"

// ErrMissingField is wrapped when a run segment or a named column is absent.
var ErrMissingField = errors.New("missing field")

// MissingFieldError names the absent run segment or column.
type MissingFieldError struct {
	Source string
	Run    int
	Field  string // empty when the run itself is missing
	Runs   int    // number of runs in the log
}

func (e *MissingFieldError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s: run %d not found (log has %d run(s))", ErrMissingField, e.Source, e.Run, e.Runs)
	}
	return fmt.Sprintf("%s: %s: run %d has no column %q", ErrMissingField, e.Source, e.Run, e.Field)
}

// Unwrap makes errors.Is(err, ErrMissingField) work.
func (e *MissingFieldError) Unwrap() error {
	return ErrMissingField
}

// Run is one thermo block.
type Run struct {
	// Index is the 1-based position of the block in the log.
	Index int

	// Keywords are the column names from the header line.
	Keywords []string

	// HeaderLine is the 1-based line number of the header.
	HeaderLine int

	// Complete is true when the block ended with "Loop time of".
	Complete bool

	columns map[string]int
	rows    [][]float64
}

// Len returns the number of recorded steps.
func (r *Run) Len() int {
	return len(r.rows)
}

// Has reports whether the run has a column named name.
func (r *Run) Has(name string) bool {
	_, ok := r.columns[name]
	return ok
}

// Series returns a copy of the named column.
func (r *Run) Series(name string) ([]float64, bool) {
	k, ok := r.columns[name]
	if !ok {
		return nil, false
	}
	out := make([]float64, len(r.rows))
	for i, row := range r.rows {
		out[i] = row[k]
	}
	return out, true
}

// Steps returns the Step column as integers.
func (r *Run) Steps() []int64 {
	s, ok := r.Series(StepKeyword)
	if !ok {
		return nil
	}
	out := make([]int64, len(s))
	for i, v := range s {
		out[i] = int64(v)
	}
	return out
}

// Log is a parsed LAMMPS log.
type Log struct {
	Source string
	Runs   []*Run
}

// Run returns the run with the given 1-based index.
func (l *Log) Run(index int) (*Run, error) {
	if index < 1 || index > len(l.Runs) {
		return nil, &MissingFieldError{Source: l.Source, Run: index, Runs: len(l.Runs)}
	}
	return l.Runs[index-1], nil
}

// Parse reads a LAMMPS log. Lines inside a thermo block that do not parse
// as a full numeric row (warnings, extra output) are skipped.
func Parse(ctx context.Context, r io.Reader, source string) (*Log, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	l := &Log{Source: source}
	var (
		cur    *Run
		lineNo int
	)

	for sc.Scan() {
		lineNo++
		if lineNo%4096 == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}

		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}

		if fields[0] == StepKeyword {
			cur = &Run{
				Index:      len(l.Runs) + 1,
				Keywords:   fields,
				HeaderLine: lineNo,
				columns:    make(map[string]int, len(fields)),
			}
			for i, k := range fields {
				cur.columns[k] = i
			}
			l.Runs = append(l.Runs, cur)
			continue
		}

		if cur == nil {
			continue
		}

		if fields[0] == "Loop" && len(fields) > 1 && fields[1] == "time" {
			cur.Complete = true
			cur = nil
			continue
		}
		if strings.HasPrefix(fields[0], "ERROR") {
			cur = nil
			continue
		}

		if row, ok := parseRow(fields, len(cur.Keywords)); ok {
			cur.rows = append(cur.rows, row)
		}
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", fsutil.ErrIO, source, err)
	}
	return l, nil
}

// ParseFile parses the log at path.
func ParseFile(ctx context.Context, path string) (*Log, error) {
	rc, err := fsutil.Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return Parse(ctx, rc, path)
}

func parseRow(fields []string, n int) ([]float64, bool) {
	if len(fields) != n {
		return nil, false
	}
	row := make([]float64, n)
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, false
		}
		row[i] = v
	}
	return row, true
}
