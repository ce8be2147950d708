package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/deepwater/cgprep/pkg/config"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: `Validate a cgprep configuration file without reading any data.

Checks:
  - YAML syntax
  - Required fields (trajectory.input, log.path, ...)
  - Value ranges (run_index, anchor_type, unit factors, validation_fraction)
  - Input file existence (warning only)`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Validating %s...\n", configPath)

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Fprintf(out, "\nConfiguration valid!\n")
	fmt.Fprintf(out, "  Trajectory:  %s -> %s\n", cfg.Trajectory.Input, cfg.Trajectory.Output)
	fmt.Fprintf(out, "  Log:         %s (run %d)\n", cfg.Log.Path, cfg.Log.RunIndex)
	fmt.Fprintf(out, "  Anchor type: %d\n", cfg.AnchorType)
	fmt.Fprintf(out, "  Columns:     %v\n", cfg.Log.Fields.Names())
	fmt.Fprintf(out, "  Dataset:     %s\n", cfg.Dataset.Dir)
	if cfg.Dataset.SplitEnabled() {
		fmt.Fprintf(out, "  Split:       %.0f%% validation (seed %d)\n",
			cfg.Dataset.ValidationFraction*100, cfg.Dataset.Seed)
	}

	// Input existence is a warning only; files may be produced later.
	for _, path := range []string{cfg.Trajectory.Input, cfg.Log.Path} {
		if _, err := os.Stat(path); err != nil {
			fmt.Fprintf(out, "\nWarning: %s: %v\n", path, err)
		}
	}

	return nil
}
