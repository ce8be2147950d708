// Package lcurve reads the learning curve file (lcurve.out) written by
// DeePMD-kit training and summarizes convergence per column.
package lcurve

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/deepwater/cgprep/internal/fsutil"
)

// StepColumn is the first column of every learning curve.
const StepColumn = "step"

// ErrNoHeader is returned when data rows appear before a "#" header line.
var ErrNoHeader = errors.New("lcurve: missing header")

// Curve holds the columns of a learning curve.
type Curve struct {
	Source  string
	Columns []string
	Steps   []int64
	values  [][]float64 // values[col][row], excluding the step column
}

// Len returns the number of rows.
func (c *Curve) Len() int {
	return len(c.Steps)
}

// Column returns the values of a named column.
func (c *Curve) Column(name string) ([]float64, bool) {
	for i, col := range c.Columns[1:] {
		if col == name {
			return c.values[i], true
		}
	}
	return nil, false
}

// Parse reads a learning curve. The last "#" line before the first data row
// names the columns; rows with a different field count are rejected.
func Parse(ctx context.Context, r io.Reader, source string) (*Curve, error) {
	sc := bufio.NewScanner(r)
	c := &Curve{Source: source}
	lineNo := 0

	for sc.Scan() {
		lineNo++
		if lineNo%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "#") {
			if c.Len() == 0 {
				c.setColumns(strings.Fields(strings.TrimLeft(line, "#")))
			}
			continue
		}

		if len(c.Columns) == 0 {
			return nil, fmt.Errorf("%w: %s:%d", ErrNoHeader, source, lineNo)
		}

		fields := strings.Fields(line)
		if len(fields) != len(c.Columns) {
			return nil, fmt.Errorf("%s:%d: expected %d columns, got %d", source, lineNo, len(c.Columns), len(fields))
		}

		step, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: invalid step %q", source, lineNo, fields[0])
		}
		c.Steps = append(c.Steps, int64(step))

		for i, f := range fields[1:] {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: invalid %s value %q", source, lineNo, c.Columns[i+1], f)
			}
			c.values[i] = append(c.values[i], v)
		}
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", fsutil.ErrIO, source, err)
	}
	if len(c.Columns) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoHeader, source)
	}
	return c, nil
}

func (c *Curve) setColumns(cols []string) {
	if len(cols) == 0 {
		return
	}
	if cols[0] != StepColumn {
		cols = append([]string{StepColumn}, cols...)
	}
	c.Columns = cols
	c.values = make([][]float64, len(cols)-1)
}

// ParseFile parses the learning curve at path.
func ParseFile(ctx context.Context, path string) (*Curve, error) {
	rc, err := fsutil.Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return Parse(ctx, rc, path)
}

// ColumnSummary describes one column of a curve.
type ColumnSummary struct {
	Name    string  `json:"name"`
	First   float64 `json:"first"`
	Last    float64 `json:"last"`
	Min     float64 `json:"min"`
	MinStep int64   `json:"min_step"`
}

// Summary is the convergence overview of a curve.
type Summary struct {
	Source   string          `json:"source"`
	Rows     int             `json:"rows"`
	LastStep int64           `json:"last_step"`
	Columns  []ColumnSummary `json:"columns"`
}

// Summarize reports first, last and minimum value of each column.
func (c *Curve) Summarize() Summary {
	s := Summary{Source: c.Source, Rows: c.Len()}
	if c.Len() == 0 {
		return s
	}
	s.LastStep = c.Steps[c.Len()-1]

	for i, name := range c.Columns[1:] {
		vals := c.values[i]
		k := floats.MinIdx(vals)
		s.Columns = append(s.Columns, ColumnSummary{
			Name:    name,
			First:   vals[0],
			Last:    vals[len(vals)-1],
			Min:     vals[k],
			MinStep: c.Steps[k],
		})
	}
	return s
}
