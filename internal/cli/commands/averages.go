package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/deepwater/cgprep/pkg/output"
	"github.com/deepwater/cgprep/pkg/thermo"
)

// AveragesOptions holds command-line options for the averages command.
type AveragesOptions struct {
	Output string
	Run    int
	Fields []string
}

// NewAveragesCommand creates the averages command.
func NewAveragesCommand() *cobra.Command {
	opts := &AveragesOptions{}

	cmd := &cobra.Command{
		Use:   "averages <log-file>",
		Short: "Print mean and standard deviation of thermo columns",
		Long: `Print the mean and standard deviation of thermo columns over one run of a
LAMMPS log. Values are reported in the log's own units.

Example:
  cgprep averages log.lammps
  cgprep averages --run 2 --field Temp --field Press log.lammps`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAverages(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().IntVar(&opts.Run, "run", 1, "Thermo run to average (1-based)")
	cmd.Flags().StringSliceVar(&opts.Fields, "field", thermo.DefaultAverageFields, "Column(s) to average (can be repeated)")

	return cmd
}

func runAverages(cmd *cobra.Command, args []string, opts *AveragesOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	formatter, err := output.New(opts.Output, output.FormatOptions{})
	if err != nil {
		return err
	}

	l, err := thermo.ParseFile(ctx, args[0])
	if err != nil {
		return err
	}

	avgs, err := thermo.Averages(l, opts.Run, opts.Fields)
	if err != nil {
		return dataError(cmd, err)
	}

	report := &output.AveragesReport{Source: args[0], Run: opts.Run, Averages: avgs}
	return formatter.FormatAverages(ctx, report, cmd.OutOrStdout())
}
