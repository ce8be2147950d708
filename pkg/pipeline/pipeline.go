package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/deepwater/cgprep/pkg/coarse"
	"github.com/deepwater/cgprep/pkg/config"
	"github.com/deepwater/cgprep/pkg/dataset"
	"github.com/deepwater/cgprep/pkg/lammpstrj"
	"github.com/deepwater/cgprep/pkg/thermo"
	"github.com/deepwater/cgprep/pkg/units"
)

// Pipeline turns one all-atom trajectory and its log into a dataset.
// A Pipeline is not safe for concurrent use; each Run gets its own Remapper.
type Pipeline struct {
	cfg  *config.Config
	conv units.Converter

	// Options
	logger *slog.Logger
	split  bool
	dryRun bool
	now    func() time.Time
}

// Option configures pipeline behavior.
type Option func(*Pipeline)

// WithLogger sets the logger for progress and warnings.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithoutSplit skips the training/validation split even if configured.
func WithoutSplit() Option {
	return func(p *Pipeline) {
		p.split = false
	}
}

// WithDryRun reads and checks all inputs but writes nothing.
func WithDryRun(v bool) Option {
	return func(p *Pipeline) {
		p.dryRun = v
	}
}

// New creates a pipeline from a validated configuration.
func New(cfg *config.Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:    cfg,
		conv:   units.NewConverter(cfg.Units),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		split:  cfg.Dataset.SplitEnabled(),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Coarsen reads the configured trajectory and reduces every frame to beads.
// Identifiers are assigned by a Remapper owned by this call.
func (p *Pipeline) Coarsen(ctx context.Context) ([]*coarse.Frame, coarse.Stats, error) {
	var total coarse.Stats

	r, err := lammpstrj.OpenFile(p.cfg.Trajectory.Input)
	if err != nil {
		return nil, total, err
	}
	defer r.Close()

	agg := coarse.NewAggregator(p.cfg.AnchorType, p.conv, coarse.NewRemapper())

	var frames []*coarse.Frame
	for {
		f, err := r.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, total, err
		}

		cg, stats := agg.Reduce(f)
		if stats.MissingAnchor > 0 {
			p.logger.Warn("molecules without anchor atom, using last atom as representative",
				"frame", f.Index, "timestep", f.Timestep,
				"molecules", stats.MissingAnchor, "anchor_type", p.cfg.AnchorType)
		}
		total.Add(stats)
		frames = append(frames, cg)
	}

	p.logger.Info("trajectory coarse-grained",
		"path", p.cfg.Trajectory.Input, "frames", len(frames),
		"atoms", total.Atoms, "beads", agg.Remapper().Len())
	return frames, total, nil
}

// Labels extracts per-step energies and virials from the configured log run.
func (p *Pipeline) Labels(ctx context.Context) (*thermo.Series, error) {
	l, err := thermo.ParseFile(ctx, p.cfg.Log.Path)
	if err != nil {
		return nil, err
	}

	s, err := thermo.Extract(l, p.cfg.Log.RunIndex, p.cfg.Log.Fields, p.conv)
	if err != nil {
		return nil, err
	}

	p.logger.Info("log labels extracted",
		"path", p.cfg.Log.Path, "run", s.Run, "runs", len(l.Runs), "steps", s.Len())
	return s, nil
}

// Run executes the whole pipeline. Frame counts are compared before any
// output is written, so a mismatch leaves the filesystem untouched.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	res := &Result{
		Trajectory: p.cfg.Trajectory.Input,
		Log:        p.cfg.Log.Path,
		Run:        p.cfg.Log.RunIndex,
		DryRun:     p.dryRun,
		StartTime:  p.now(),
	}

	frames, stats, err := p.Coarsen(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading trajectory: %w", err)
	}
	res.Frames = len(frames)
	res.Stats = stats
	if len(frames) > 0 {
		res.Beads = len(frames[0].Molecules)
	}

	series, err := p.Labels(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading log: %w", err)
	}
	res.Steps = series.Len()

	if !res.Aligned() {
		return res, &MismatchError{
			Trajectory: res.Trajectory, Frames: res.Frames,
			Log: res.Log, Run: res.Run, Steps: res.Steps,
		}
	}

	data, err := dataset.FromFrames(frames, series, dataset.Options{
		TypeMap: p.cfg.Dataset.TypeMap,
		Wrap:    p.cfg.Dataset.Wrap,
	})
	if err != nil {
		return nil, err
	}

	var part dataset.Partition
	if p.split {
		part, err = dataset.Split(data.Len(), p.cfg.Dataset.ValidationFraction, p.cfg.Dataset.Seed)
		if err != nil {
			return nil, err
		}
		res.Training, res.Validation = len(part.Training), len(part.Validation)
	}

	if p.dryRun {
		res.EndTime = p.now()
		return res, nil
	}

	if err := p.write(frames, data, part, res); err != nil {
		return nil, err
	}

	res.EndTime = p.now()
	p.logger.Info("dataset written",
		"dir", p.cfg.Dataset.Dir, "files", len(res.Outputs), "elapsed", res.Duration())
	return res, nil
}

func (p *Pipeline) write(frames []*coarse.Frame, data *dataset.Data, part dataset.Partition, res *Result) error {
	dumps := make([]*lammpstrj.Frame, len(frames))
	for i, f := range frames {
		dumps[i] = f.Dump()
	}
	if err := lammpstrj.WriteFile(p.cfg.Trajectory.Output, dumps); err != nil {
		return fmt.Errorf("writing trajectory: %w", err)
	}
	res.Outputs = append(res.Outputs, p.cfg.Trajectory.Output)

	files, err := dataset.EmitRaw(p.cfg.Dataset.Dir, data)
	res.Outputs = append(res.Outputs, files...)
	if err != nil {
		return err
	}

	if p.split {
		for _, set := range []struct {
			name string
			dir  string
			idx  []int
		}{
			{"training", p.cfg.Dataset.TrainingDir, part.Training},
			{"validation", p.cfg.Dataset.ValidationDir, part.Validation},
		} {
			if len(set.idx) == 0 {
				p.logger.Warn("empty subset, not written", "set", set.name, "dir", set.dir)
				continue
			}
			files, err := dataset.EmitNpy(set.dir, data.Subset(set.idx))
			res.Outputs = append(res.Outputs, files...)
			if err != nil {
				return fmt.Errorf("writing %s set: %w", set.name, err)
			}
			p.logger.Info("subset written", "set", set.name, "dir", set.dir, "frames", len(set.idx))
		}
	}

	m := dataset.NewManifest()
	m.CreatedAt = p.now().UTC()
	m.Trajectory = res.Trajectory
	m.Log = res.Log
	m.RunIndex = res.Run
	m.Frames = res.Frames
	m.Beads = res.Beads
	m.TypeMap = data.TypeMap
	m.KcalMolToEV = p.cfg.Units.KcalMolToEV
	m.AtmA3ToEV = p.cfg.Units.AtmA3ToEV
	if p.split {
		m.Seed = p.cfg.Dataset.Seed
		m.Training = part.Training
		m.Validation = part.Validation
	}
	m.Files = append([]string(nil), res.Outputs...)

	path := filepath.Join(p.cfg.Dataset.Dir, dataset.ManifestFile)
	if err := dataset.WriteManifest(path, m); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	res.Outputs = append(res.Outputs, path)
	res.Manifest = m
	return nil
}
