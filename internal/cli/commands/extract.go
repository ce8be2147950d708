package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/deepwater/cgprep/internal/fsutil"
	"github.com/deepwater/cgprep/pkg/config"
	"github.com/deepwater/cgprep/pkg/dataset"
	"github.com/deepwater/cgprep/pkg/detector"
	"github.com/deepwater/cgprep/pkg/pipeline"
	"github.com/deepwater/cgprep/pkg/thermo"
	"github.com/deepwater/cgprep/pkg/units"
)

// ExtractOptions holds command-line options for the extract command.
type ExtractOptions struct {
	Dir string
}

// NewExtractCommand creates the extract command.
func NewExtractCommand() *cobra.Command {
	opts := &ExtractOptions{}

	cmd := &cobra.Command{
		Use:   "extract <config-file>",
		Short: "Write energy and virial labels from the LAMMPS log",
		Long: `Extract the configured energy and virial columns of one log run, convert
them to eV and write energy.raw and virial.raw.

Use this to relabel an existing raw dataset, e.g. one produced by another
conversion tool from the coarse-grained trajectory.

Nothing is written unless the run has one step per frame. Frames are counted
from, in order of preference:
  - box.raw in the target directory
  - the coarse-grained trajectory (trajectory.output)
  - the input trajectory (trajectory.input)`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Dir, "dir", "d", "", "Directory for the raw files (default: dataset.dir)")

	return cmd
}

func runExtract(cmd *cobra.Command, args []string, opts *ExtractOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(ctx, args[0])
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	dir := cfg.Dataset.Dir
	if opts.Dir != "" {
		dir = opts.Dir
	}

	l, err := thermo.ParseFile(ctx, cfg.Log.Path)
	if err != nil {
		return err
	}
	series, err := thermo.Extract(l, cfg.Log.RunIndex, cfg.Log.Fields, units.NewConverter(cfg.Units))
	if err != nil {
		return dataError(cmd, err)
	}

	ref, frames, err := countReferenceFrames(ctx, cfg, dir)
	if err != nil {
		return dataError(cmd, err)
	}
	if frames != series.Len() {
		return dataError(cmd, &pipeline.MismatchError{
			Trajectory: ref,
			Frames:     frames,
			Log:        cfg.Log.Path,
			Run:        series.Run,
			Steps:      series.Len(),
		})
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: creating %s: %w", fsutil.ErrIO, dir, err)
	}

	virials := make([]mat.Matrix, len(series.Virials))
	for i, v := range series.Virials {
		virials[i] = v
	}

	energyPath := filepath.Join(dir, dataset.EnergyFile)
	if err := fsutil.WriteFileAtomic(energyPath, func(w io.Writer) error {
		return dataset.WriteScalars(w, series.Energies)
	}); err != nil {
		return err
	}

	virialPath := filepath.Join(dir, dataset.VirialFile)
	if err := fsutil.WriteFileAtomic(virialPath, func(w io.Writer) error {
		return dataset.WriteRaw(w, virials)
	}); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %d of %s: %d steps (%d frames in %s)\n", series.Run, cfg.Log.Path, series.Len(), frames, ref)
	fmt.Fprintf(out, "  %s\n  %s\n", energyPath, virialPath)
	return nil
}

// countReferenceFrames returns the file the labels must align with and its
// frame count.
func countReferenceFrames(ctx context.Context, cfg *config.Config, dir string) (string, int, error) {
	box := filepath.Join(dir, dataset.BoxFile)
	if _, err := os.Stat(box); err == nil {
		n, err := countRawRows(box)
		return box, n, err
	}

	path := cfg.Trajectory.Output
	if _, err := os.Stat(path); err != nil {
		path = cfg.Trajectory.Input
	}
	dump, err := detector.New(detector.WithMaxFrames(0)).InspectDump(ctx, path)
	if err != nil {
		return path, 0, err
	}
	return path, dump.Frames, nil
}

// countRawRows counts the non-blank lines of a raw file.
func countRawRows(path string) (int, error) {
	r, err := fsutil.Open(path)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	n := 0
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) != "" {
			n++
		}
	}
	if err := sc.Err(); err != nil {
		return 0, fmt.Errorf("%w: reading %s: %w", fsutil.ErrIO, path, err)
	}
	return n, nil
}
