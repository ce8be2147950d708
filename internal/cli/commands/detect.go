package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/deepwater/cgprep/pkg/config"
	"github.com/deepwater/cgprep/pkg/detector"
)

// DetectOptions holds command-line options for the detect command.
type DetectOptions struct {
	Output      string
	MaxFrames   int
	WriteConfig string
}

// NewDetectCommand creates the detect command.
func NewDetectCommand() *cobra.Command {
	opts := &DetectOptions{}

	cmd := &cobra.Command{
		Use:   "detect <dump-file> [log-file]",
		Short: "Inspect a dump (and log) and suggest settings",
		Long: `Inspect a LAMMPS dump and, optionally, its log to suggest cgprep settings.

Reports:
  - per-atom columns, atom and molecule counts, frame count
  - the atom type occurring once per molecule (anchor type candidate)
  - thermo runs with their step counts, energy and virial columns
  - the run whose step count matches the frame count

Optionally generates a starter config file with --write-config.

Example:
  cgprep detect tip4p.lammpstrj
  cgprep detect tip4p.lammpstrj log.lammps
  cgprep detect -w cgprep.yaml tip4p.lammpstrj log.lammps`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetect(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().IntVarP(&opts.MaxFrames, "max-frames", "n", 1000, "Stop counting frames after this many (0 = all)")
	cmd.Flags().StringVarP(&opts.WriteConfig, "write-config", "w", "", "Write starter config to file (will not overwrite)")

	return cmd
}

// Detection is the combined result of the detect command.
type Detection struct {
	Dump *detector.DumpInfo `json:"dump"`
	Log  *detector.LogInfo  `json:"log,omitempty"`

	// Run is the suggested log run, if a log was given.
	Run *detector.RunInfo `json:"suggested_run,omitempty"`

	// Aligned is set when Run has as many steps as the dump has frames.
	Aligned bool `json:"aligned"`
}

func runDetect(cmd *cobra.Command, args []string, opts *DetectOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	for _, path := range args {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", path)
		}
	}

	d := detector.New(detector.WithMaxFrames(opts.MaxFrames))

	dump, err := d.InspectDump(ctx, args[0])
	if err != nil {
		return dataError(cmd, fmt.Errorf("inspecting dump: %w", err))
	}
	det := &Detection{Dump: dump}

	if len(args) == 2 {
		det.Log, err = d.InspectLog(ctx, args[1])
		if err != nil {
			return fmt.Errorf("inspecting log: %w", err)
		}
		if !dump.Truncated {
			det.Run = det.Log.RunWithSteps(dump.Frames)
		}
		det.Aligned = det.Run != nil
		if det.Run == nil {
			det.Run = det.Log.SuggestedRun()
		}
	}

	if opts.WriteConfig != "" {
		if err := writeStarterConfig(cmd.OutOrStdout(), det, args, opts.WriteConfig); err != nil {
			return err
		}
	}

	switch opts.Output {
	case "json":
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(det)
	case "text":
		outputDetectText(cmd.OutOrStdout(), det)
		return nil
	default:
		return fmt.Errorf("unknown output format %q (use text or json)", opts.Output)
	}
}

func outputDetectText(w io.Writer, det *Detection) {
	dump := det.Dump
	fmt.Fprintln(w, "=== Input Detection ===")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Dump: %s\n", dump.Path)
	fmt.Fprintf(w, "Columns: %s\n", strings.Join(dump.Columns, " "))
	frames := fmt.Sprintf("%d", dump.Frames)
	if dump.Truncated {
		frames = fmt.Sprintf("at least %d", dump.Frames)
	}
	fmt.Fprintf(w, "Frames: %s (timesteps %d..%d)\n", frames, dump.FirstTimestep, dump.LastTimestep)
	fmt.Fprintf(w, "Atoms: %d in %d molecules\n", dump.Atoms, dump.Molecules)
	if dump.AnchorType > 0 {
		fmt.Fprintf(w, "Anchor type: %d (one per molecule)\n", dump.AnchorType)
	} else {
		fmt.Fprintln(w, "Anchor type: none found (no type occurs exactly once per molecule)")
	}
	fmt.Fprintln(w)

	if det.Log == nil {
		return
	}

	fmt.Fprintf(w, "Log: %s\n", det.Log.Path)
	for _, run := range det.Log.Runs {
		fmt.Fprintf(w, "  run %d: %d steps", run.Index, run.Steps)
		if run.Energy != "" {
			fmt.Fprintf(w, ", energy %s", run.Energy)
		}
		for _, v := range run.Virials {
			fmt.Fprintf(w, ", virial %s*", v.Prefix)
			if v.IsPressure() {
				fmt.Fprint(w, " (pressure)")
			}
		}
		if !run.Complete {
			fmt.Fprint(w, " [incomplete]")
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)

	switch {
	case det.Aligned:
		fmt.Fprintf(w, "Run %d matches the dump frame count.\n", det.Run.Index)
	case det.Run != nil:
		fmt.Fprintf(w, "WARNING: no run has %s steps; run %d is the last usable run.\n", frames, det.Run.Index)
	default:
		fmt.Fprintln(w, "WARNING: no run has both an energy and six virial columns.")
	}
}

// writeStarterConfig generates a starter config file from the detection.
func writeStarterConfig(w io.Writer, det *Detection, args []string, configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s (will not overwrite)", configPath)
	}

	content := generateStarterConfig(det, args)

	// #nosec G306 - config file doesn't need restrictive permissions
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(w, "Wrote starter config to: %s\n\n", configPath)
	return nil
}

// generateStarterConfig creates a YAML config template.
func generateStarterConfig(det *Detection, args []string) string {
	abs := func(p string) string {
		if a, err := filepath.Abs(p); err == nil {
			return a
		}
		return p
	}

	def := config.DefaultConfig()
	anchor := def.AnchorType
	if det.Dump.AnchorType > 0 {
		anchor = det.Dump.AnchorType
	}

	logPath := "log.lammps"
	if len(args) > 1 {
		logPath = abs(args[1])
	}

	runIndex := def.Log.RunIndex
	fields := def.Log.Fields
	if det.Run != nil {
		runIndex = det.Run.Index
		if det.Run.Energy != "" {
			fields.Energy = det.Run.Energy
		}
		for _, v := range det.Run.Virials {
			if v.IsPressure() {
				continue
			}
			f := v.Fields
			fields.Virial.XX, fields.Virial.YY, fields.Virial.ZZ = f[0], f[1], f[2]
			fields.Virial.XY, fields.Virial.XZ, fields.Virial.YZ = f[3], f[4], f[5]
			break
		}
	}

	return fmt.Sprintf(`# cgprep configuration
# Generated by: cgprep detect
# Dump: %d atoms in %d molecules, %d frame(s)

trajectory:
  input: %s
  output: %s

log:
  path: %s
  run_index: %d
  energy_field: %s
  virial_fields:
    xx: %s
    yy: %s
    zz: %s
    xy: %s
    xz: %s
    yz: %s

# Atom type that carries the bead position (oxygen for water).
anchor_type: %d

# Conversion from LAMMPS real units to eV.
units:
  kcal_mol_to_ev: %g
  atm_a3_to_ev: %g

dataset:
  dir: %s
  type_map: [%s]
  wrap: true
  validation_fraction: %g
  seed: %d
  training_dir: %s
  validation_dir: %s
`, det.Dump.Atoms, det.Dump.Molecules, det.Dump.Frames,
		abs(args[0]), def.Trajectory.Output,
		logPath, runIndex, fields.Energy,
		fields.Virial.XX, fields.Virial.YY, fields.Virial.ZZ,
		fields.Virial.XY, fields.Virial.XZ, fields.Virial.YZ,
		anchor,
		def.Units.KcalMolToEV, def.Units.AtmA3ToEV,
		def.Dataset.Dir, strings.Join(def.Dataset.TypeMap, ", "),
		def.Dataset.ValidationFraction, def.Dataset.Seed,
		def.Dataset.TrainingDir, def.Dataset.ValidationDir)
}
