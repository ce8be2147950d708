package output

import (
	"context"
	"fmt"
	"io"

	"github.com/deepwater/cgprep/pkg/lcurve"
)

// Formatter renders command results in a specific format.
type Formatter interface {
	// Format renders a pipeline report to the given writer.
	Format(ctx context.Context, report *Report, w io.Writer) error

	// FormatAverages renders thermo column averages.
	FormatAverages(ctx context.Context, report *AveragesReport, w io.Writer) error

	// FormatCurve renders a learning curve summary.
	FormatCurve(ctx context.Context, summary *lcurve.Summary, w io.Writer) error

	// Name returns the format name (text, json).
	Name() string
}

// FormatOptions controls formatter behavior.
type FormatOptions struct {
	// Verbose lists every written file.
	Verbose bool

	// Quiet enables minimal summary-only output.
	Quiet bool
}

// New returns the formatter for name.
func New(name string, opts FormatOptions) (Formatter, error) {
	switch name {
	case "text":
		return NewTextFormatter(opts), nil
	case "json":
		return NewJSONFormatter(opts), nil
	default:
		return nil, &UnknownFormatError{Name: name}
	}
}

// UnknownFormatError is returned by New for an unsupported format name.
type UnknownFormatError struct {
	Name string
}

func (e *UnknownFormatError) Error() string {
	return fmt.Sprintf("unknown output format %q (use text or json)", e.Name)
}
