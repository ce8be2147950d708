package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/deepwater/cgprep/pkg/config"
	"github.com/deepwater/cgprep/pkg/detector"
)

// DiagnoseOptions holds options for the diagnose command
type DiagnoseOptions struct {
	Verbose   bool
	MaxFrames int
}

// DiagnosticResult represents the result of a single diagnostic check
type DiagnosticResult struct {
	Check    string
	Status   string // "ok", "warning", "error"
	Message  string
	Details  []string
	Suggests []string
}

// NewDiagnoseCommand creates the diagnose command
func NewDiagnoseCommand() *cobra.Command {
	opts := &DiagnoseOptions{}

	cmd := &cobra.Command{
		Use:   "diagnose <config-file>",
		Short: "Diagnose common configuration issues",
		Long: `Diagnose common configuration issues.

This command checks your configuration against the actual input files:
- Config file syntax and structure
- Trajectory readability, columns and frame count
- Log run selection and the configured energy/virial columns
- Frame count against the steps of the selected run
- Anchor type against the atom types present in each molecule

Example:
  cgprep diagnose cgprep.yaml
  cgprep diagnose -v cgprep.yaml  # verbose output`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			runDiagnose(ctx, cmd.OutOrStdout(), args[0], opts)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show detailed diagnostic output")
	cmd.Flags().IntVarP(&opts.MaxFrames, "max-frames", "n", 0, "Stop counting frames after this many (0 = all)")

	return cmd
}

func runDiagnose(ctx context.Context, w io.Writer, configPath string, opts *DiagnoseOptions) []DiagnosticResult {
	results := []DiagnosticResult{}

	// 1. Check config file existence
	result := checkConfigExists(configPath)
	results = append(results, result)
	if result.Status == "error" {
		printDiagnostics(w, results, opts)
		return results
	}

	// 2. Parse config file
	cfg, result := checkConfigParseable(ctx, configPath)
	results = append(results, result)
	if result.Status == "error" {
		printDiagnostics(w, results, opts)
		return results
	}

	d := detector.New(detector.WithMaxFrames(opts.MaxFrames))

	// 3. Inspect the trajectory
	dump, result := checkTrajectory(ctx, d, cfg)
	results = append(results, result)

	// 4. Inspect the log and the selected run
	run, logResults := checkLog(ctx, d, cfg)
	results = append(results, logResults...)

	// 5. Cross-check the two
	if dump != nil {
		results = append(results, checkAnchor(cfg, dump))
		if run != nil {
			results = append(results, checkAlignment(dump, run))
		}
	}

	printDiagnostics(w, results, opts)
	return results
}

func checkConfigExists(path string) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Config File",
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		result.Status = "error"
		result.Message = fmt.Sprintf("Config file not found: %s", path)
		result.Suggests = []string{
			"Check the file path is correct",
			"Use 'cgprep detect <dump> <log> --write-config cgprep.yaml' to generate a starter config",
		}
		return result
	}
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Cannot access config file: %v", err)
		result.Suggests = []string{"Check file permissions"}
		return result
	}
	if info.IsDir() {
		result.Status = "error"
		result.Message = "Path is a directory, not a file"
		return result
	}
	if info.Size() == 0 {
		result.Status = "error"
		result.Message = "Config file is empty"
		result.Suggests = []string{
			"Use 'cgprep detect <dump> <log> --write-config cgprep.yaml' to generate a starter config",
		}
		return result
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("Found: %s (%d bytes)", path, info.Size())
	return result
}

func checkConfigParseable(ctx context.Context, path string) (*config.Config, DiagnosticResult) {
	result := DiagnosticResult{
		Check: "Config Syntax",
	}

	cfg, err := config.Load(ctx, path)
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Failed to parse config: %v", err)
		if strings.Contains(err.Error(), "yaml") {
			result.Suggests = []string{
				"Check YAML syntax - ensure proper indentation (use spaces, not tabs)",
			}
		}
		return nil, result
	}

	result.Status = "ok"
	result.Message = "Config file parsed successfully"
	result.Details = []string{
		fmt.Sprintf("Trajectory: %s", cfg.Trajectory.Input),
		fmt.Sprintf("Log: %s (run %d)", cfg.Log.Path, cfg.Log.RunIndex),
		fmt.Sprintf("Dataset: %s", cfg.Dataset.Dir),
	}
	return cfg, result
}

func checkTrajectory(ctx context.Context, d *detector.Detector, cfg *config.Config) (*detector.DumpInfo, DiagnosticResult) {
	result := DiagnosticResult{
		Check: fmt.Sprintf("Trajectory: %s", cfg.Trajectory.Input),
	}

	dump, err := d.InspectDump(ctx, cfg.Trajectory.Input)
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Cannot read trajectory: %v", err)
		result.Suggests = []string{
			"The dump needs id mol type, x y z (or xu yu zu) and fx fy fz columns",
		}
		return nil, result
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("%d frame(s), %d atoms in %d molecules", dump.Frames, dump.Atoms, dump.Molecules)
	if dump.Truncated {
		result.Message = fmt.Sprintf("at least %d frame(s), %d atoms in %d molecules", dump.Frames, dump.Atoms, dump.Molecules)
	}
	result.Details = []string{
		fmt.Sprintf("Columns: %s", strings.Join(dump.Columns, " ")),
		fmt.Sprintf("Timesteps: %d..%d", dump.FirstTimestep, dump.LastTimestep),
	}
	if dump.Triclinic {
		result.Details = append(result.Details, "Box: triclinic")
	}
	return dump, result
}

func checkLog(ctx context.Context, d *detector.Detector, cfg *config.Config) (*detector.RunInfo, []DiagnosticResult) {
	results := []DiagnosticResult{}

	result := DiagnosticResult{
		Check: fmt.Sprintf("Log: %s", cfg.Log.Path),
	}

	info, err := d.InspectLog(ctx, cfg.Log.Path)
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Cannot read log: %v", err)
		return nil, append(results, result)
	}
	if len(info.Runs) == 0 {
		result.Status = "error"
		result.Message = "No thermo output found"
		result.Suggests = []string{"Check that the log contains a 'Step ...' header line"}
		return nil, append(results, result)
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("%d run(s)", len(info.Runs))
	for _, r := range info.Runs {
		result.Details = append(result.Details, fmt.Sprintf("run %d: %d steps", r.Index, r.Steps))
	}
	results = append(results, result)

	runResult := DiagnosticResult{
		Check: fmt.Sprintf("Log Run %d", cfg.Log.RunIndex),
	}
	if cfg.Log.RunIndex > len(info.Runs) {
		runResult.Status = "error"
		runResult.Message = fmt.Sprintf("Log has only %d run(s)", len(info.Runs))
		if s := info.SuggestedRun(); s != nil {
			runResult.Suggests = []string{fmt.Sprintf("Set log.run_index: %d", s.Index)}
		}
		return nil, append(results, runResult)
	}

	run := &info.Runs[cfg.Log.RunIndex-1]
	have := make(map[string]bool, len(run.Keywords))
	for _, k := range run.Keywords {
		have[k] = true
	}
	var missing []string
	for _, name := range cfg.Log.Fields.Names() {
		if !have[name] {
			missing = append(missing, name)
		}
	}

	switch {
	case len(missing) > 0:
		runResult.Status = "error"
		runResult.Message = fmt.Sprintf("Missing column(s): %s", strings.Join(missing, ", "))
		runResult.Details = []string{fmt.Sprintf("Available: %s", strings.Join(run.Keywords, " "))}
		if run.Energy != "" {
			runResult.Suggests = append(runResult.Suggests, fmt.Sprintf("Energy column found: %s", run.Energy))
		}
		for _, v := range run.Virials {
			if v.IsPressure() {
				runResult.Suggests = append(runResult.Suggests,
					"Pxx..Pyz are pressures; compute the virial as pressure times volume with a variable")
				continue
			}
			runResult.Suggests = append(runResult.Suggests, fmt.Sprintf("Virial columns found: %s*", v.Prefix))
		}
	case !run.Complete:
		runResult.Status = "warning"
		runResult.Message = fmt.Sprintf("%d steps, no 'Loop time' line (run may be truncated)", run.Steps)
	default:
		runResult.Status = "ok"
		runResult.Message = fmt.Sprintf("%d steps with all configured columns", run.Steps)
	}
	results = append(results, runResult)

	if runResult.Status == "error" {
		return nil, results
	}
	return run, results
}

func checkAnchor(cfg *config.Config, dump *detector.DumpInfo) DiagnosticResult {
	result := DiagnosticResult{
		Check: fmt.Sprintf("Anchor Type %d", cfg.AnchorType),
	}

	count := dump.TypeCounts[cfg.AnchorType]
	switch {
	case count == 0:
		result.Status = "error"
		result.Message = "No atoms of this type in the first frame"
		result.Details = []string{"Every bead would fall back to the last atom of its molecule"}
	case cfg.AnchorType != dump.AnchorType:
		result.Status = "warning"
		result.Message = fmt.Sprintf("%d atoms of this type for %d molecules", count, dump.Molecules)
	default:
		result.Status = "ok"
		result.Message = "One anchor atom per molecule"
		return result
	}

	if dump.AnchorType > 0 {
		result.Suggests = []string{fmt.Sprintf("Type %d occurs once per molecule; set anchor_type: %d", dump.AnchorType, dump.AnchorType)}
	}
	return result
}

func checkAlignment(dump *detector.DumpInfo, run *detector.RunInfo) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Frame Alignment",
	}

	switch {
	case dump.Truncated:
		result.Status = "warning"
		result.Message = fmt.Sprintf("Frame count not checked (scan stopped at %d frames)", dump.Frames)
		result.Suggests = []string{"Run with --max-frames 0 to count every frame"}
	case dump.Frames != run.Steps:
		result.Status = "error"
		result.Message = fmt.Sprintf("%d frames vs %d steps in run %d", dump.Frames, run.Steps, run.Index)
		result.Suggests = []string{
			"Dump and thermo output must use the same interval",
			"Check that log.run_index selects the production run",
		}
	default:
		result.Status = "ok"
		result.Message = fmt.Sprintf("%d frames match %d steps", dump.Frames, run.Steps)
	}
	return result
}

func printDiagnostics(w io.Writer, results []DiagnosticResult, opts *DiagnoseOptions) {
	fmt.Fprintln(w, "=== cgprep Configuration Diagnostics ===")
	fmt.Fprintln(w)

	okCount := 0
	warnCount := 0
	errCount := 0

	for _, r := range results {
		var icon string
		switch r.Status {
		case "ok":
			icon = "PASS"
			okCount++
		case "warning":
			icon = "WARN"
			warnCount++
		case "error":
			icon = "FAIL"
			errCount++
		}

		fmt.Fprintf(w, "[%s] %s\n", icon, r.Check)
		fmt.Fprintf(w, "    %s\n", r.Message)

		if opts.Verbose || r.Status != "ok" {
			for _, d := range r.Details {
				fmt.Fprintf(w, "      - %s\n", d)
			}
		}

		for _, s := range r.Suggests {
			fmt.Fprintf(w, "      Hint: %s\n", s)
		}

		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

	if errCount > 0 {
		fmt.Fprintln(w, "\nFix the errors above before running prepare.")
	} else if warnCount > 0 {
		fmt.Fprintln(w, "\nConfiguration is usable but has warnings.")
	} else {
		fmt.Fprintln(w, "\nConfiguration looks good!")
	}
}
