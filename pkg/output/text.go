package output

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/deepwater/cgprep/pkg/lcurve"
)

// TextFormatter formats reports as human-readable text.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Format renders the report as text.
func (f *TextFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	if f.opts.Quiet {
		return f.formatQuiet(report, w)
	}
	return f.formatFull(report, w)
}

func (f *TextFormatter) formatQuiet(report *Report, w io.Writer) error {
	s := report.Summary
	_, err := fmt.Fprintf(w, "cgprep: %d frames, %d steps, %d beads, %d training, %d validation\n",
		s.Frames, s.Steps, s.Beads, s.Training, s.Validation)
	return err
}

func (f *TextFormatter) formatFull(report *Report, w io.Writer) error {
	s := report.Summary
	m := report.Metadata

	fmt.Fprintln(w, "=== cgprep Report ===")
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Trajectory: %s\n", m.Trajectory)
	fmt.Fprintf(w, "Log:        %s (run %d)\n", m.Log, m.Run)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Frames: %d\n", s.Frames)
	fmt.Fprintf(w, "Steps:  %d\n", s.Steps)
	if s.Aligned {
		fmt.Fprintln(w, "  Frames and log steps match")
	} else {
		fmt.Fprintf(w, "  MISMATCH: %d frames vs %d steps\n", s.Frames, s.Steps)
	}
	fmt.Fprintf(w, "Atoms read: %d, beads per frame: %d\n", s.Atoms, s.Beads)
	if s.MissingAnchor > 0 {
		fmt.Fprintf(w, "Molecules without anchor: %d\n", s.MissingAnchor)
	}
	if s.Training+s.Validation > 0 {
		fmt.Fprintf(w, "Split: %d training, %d validation\n", s.Training, s.Validation)
	}

	if len(report.Warnings) > 0 {
		fmt.Fprintln(w)
		for _, warn := range report.Warnings {
			fmt.Fprintf(w, "Warning: %s\n", warn)
		}
	}

	fmt.Fprintln(w, "---")
	switch {
	case m.DryRun:
		fmt.Fprintln(w, "Dry run: nothing written")
	case len(report.Outputs) > 0:
		fmt.Fprintf(w, "Wrote %d file(s)", len(report.Outputs))
		if m.RunID != "" {
			fmt.Fprintf(w, " (run %s)", m.RunID)
		}
		fmt.Fprintln(w)
	}

	if f.opts.Verbose {
		for _, path := range report.Outputs {
			fmt.Fprintf(w, "  %s\n", path)
		}
		fmt.Fprintf(w, "Duration: %s\n", m.Duration.Round(1e6))
	}

	return nil
}

// FormatAverages renders averages as an aligned table.
func (f *TextFormatter) FormatAverages(ctx context.Context, report *AveragesReport, w io.Writer) error {
	fmt.Fprintf(w, "%s, run %d\n", report.Source, report.Run)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FIELD\tMEAN\tSTDDEV\tN")
	for _, a := range report.Averages {
		fmt.Fprintf(tw, "%s\t%.6g\t%.6g\t%d\n", a.Field, a.Mean, a.StdDev, a.N)
	}
	return tw.Flush()
}

// FormatCurve renders a learning curve summary as an aligned table.
func (f *TextFormatter) FormatCurve(ctx context.Context, summary *lcurve.Summary, w io.Writer) error {
	fmt.Fprintf(w, "%s: %d rows, last step %d\n", summary.Source, summary.Rows, summary.LastStep)
	if summary.Rows == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMN\tFIRST\tLAST\tMIN\tMIN STEP")
	for _, c := range summary.Columns {
		fmt.Fprintf(tw, "%s\t%.4g\t%.4g\t%.4g\t%d\n", c.Name, c.First, c.Last, c.Min, c.MinStep)
	}
	return tw.Flush()
}
