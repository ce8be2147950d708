package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/deepwater/cgprep/pkg/lcurve"
	"github.com/deepwater/cgprep/pkg/output"
)

// NewLcurveCommand creates the lcurve command.
func NewLcurveCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "lcurve <lcurve-file>",
		Short: "Summarize a DeePMD-kit learning curve",
		Long: `Summarize lcurve.out written during DeePMD-kit training: first, last and
minimum value of every column, and the step at which the minimum occurred.

Example:
  cgprep lcurve lcurve.out
  cgprep lcurve -o json lcurve.out`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			formatter, err := output.New(format, output.FormatOptions{})
			if err != nil {
				return err
			}

			c, err := lcurve.ParseFile(ctx, args[0])
			if err != nil {
				return err
			}

			summary := c.Summarize()
			return formatter.FormatCurve(ctx, &summary, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", "text", "Output format (text|json)")

	return cmd
}
