package output

import (
	"context"
	"encoding/json"
	"io"

	"github.com/deepwater/cgprep/pkg/lcurve"
)

// JSONFormatter formats reports as JSON.
type JSONFormatter struct {
	opts FormatOptions
}

// NewJSONFormatter creates a new JSON formatter with the given options.
func NewJSONFormatter(opts FormatOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

// Name returns the format name.
func (f *JSONFormatter) Name() string {
	return "json"
}

// Format renders the report as JSON.
func (f *JSONFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	if f.opts.Quiet {
		// Quiet mode: just summary
		return f.encode(w, report.Summary)
	}
	return f.encode(w, report)
}

// FormatAverages renders averages as JSON.
func (f *JSONFormatter) FormatAverages(ctx context.Context, report *AveragesReport, w io.Writer) error {
	return f.encode(w, report)
}

// FormatCurve renders a learning curve summary as JSON.
func (f *JSONFormatter) FormatCurve(ctx context.Context, summary *lcurve.Summary, w io.Writer) error {
	return f.encode(w, summary)
}

func (f *JSONFormatter) encode(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
