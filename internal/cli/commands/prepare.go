package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deepwater/cgprep/pkg/config"
	"github.com/deepwater/cgprep/pkg/dataset"
	"github.com/deepwater/cgprep/pkg/lammpstrj"
	"github.com/deepwater/cgprep/pkg/output"
	"github.com/deepwater/cgprep/pkg/pipeline"
	"github.com/deepwater/cgprep/pkg/thermo"
)

// ExitCode is set by commands to indicate the result
var ExitCode = 0

// PrepareOptions holds command-line options for the prepare command.
type PrepareOptions struct {
	Output  string
	Verbose bool
	Quiet   bool
	DryRun  bool
	NoSplit bool
}

// NewPrepareCommand creates the prepare command.
func NewPrepareCommand() *cobra.Command {
	opts := &PrepareOptions{}

	cmd := &cobra.Command{
		Use:   "prepare <config-file>",
		Short: "Coarse-grain a trajectory and write a training dataset",
		Long: `Coarse-grain an all-atom LAMMPS dump to one bead per molecule, label every
frame with energy and virial from the LAMMPS log, and write the dataset.

Writes:
  - the coarse-grained trajectory (trajectory.output)
  - DeePMD raw files: type, type_map, box, coord, force, energy, virial
  - training and validation sets in numpy layout (unless --no-split)
  - manifest.yaml describing the run

Nothing is written unless the trajectory frame count equals the number of
steps in the selected log run.

Exit codes:
  0 - Dataset written
  1 - Inputs inconsistent (frame mismatch, malformed dump, missing log column)
  2 - Configuration or runtime error`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrepare(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "List every written file")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Summary only, no details")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Read and check inputs without writing anything")
	cmd.Flags().BoolVar(&opts.NoSplit, "no-split", false, "Skip the training/validation split")

	return cmd
}

func runPrepare(cmd *cobra.Command, args []string, opts *PrepareOptions) error {
	configPath := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	formatter, err := output.New(opts.Output, output.FormatOptions{
		Verbose: opts.Verbose,
		Quiet:   opts.Quiet,
	})
	if err != nil {
		return err
	}

	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	pipeOpts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithDryRun(opts.DryRun),
	}
	if opts.NoSplit {
		pipeOpts = append(pipeOpts, pipeline.WithoutSplit())
	}

	result, err := pipeline.New(cfg, pipeOpts...).Run(ctx)
	if err != nil {
		var mismatch *pipeline.MismatchError
		if errors.As(err, &mismatch) && result != nil {
			// Show both counts before failing.
			if ferr := formatter.Format(ctx, output.NewReport(result, configPath), cmd.OutOrStdout()); ferr != nil {
				return fmt.Errorf("formatting output: %w", ferr)
			}
		}
		return dataError(cmd, err)
	}

	report := output.NewReport(result, configPath)
	if err := formatter.Format(ctx, report, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	return nil
}

// isDataError reports whether err means the inputs are inconsistent rather
// than the tool being misconfigured.
func isDataError(err error) bool {
	return errors.Is(err, pipeline.ErrFrameCountMismatch) ||
		errors.Is(err, lammpstrj.ErrMalformedTrajectory) ||
		errors.Is(err, thermo.ErrMissingField) ||
		errors.Is(err, dataset.ErrShapeMismatch)
}

// dataError prints data errors and sets exit code 1; other errors are
// returned for the root command to report with exit code 2.
func dataError(cmd *cobra.Command, err error) error {
	if !isDataError(err) {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	ExitCode = 1
	return nil
}
