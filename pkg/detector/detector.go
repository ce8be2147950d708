// Package detector inspects LAMMPS dump and log files and suggests the
// settings needed to prepare a dataset from them.
package detector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/deepwater/cgprep/pkg/lammpstrj"
	"github.com/deepwater/cgprep/pkg/thermo"
)

// DumpInfo describes a dump trajectory.
type DumpInfo struct {
	Path      string
	Columns   []string
	Unwrapped bool // positions are xu yu zu
	Triclinic bool

	// Atoms and Molecules are counted in the first frame.
	Atoms     int
	Molecules int

	// TypeCounts maps atom type to its count in the first frame.
	TypeCounts map[int]int

	// AnchorType is the lowest atom type that occurs exactly once in every
	// molecule of the first frame, or 0 if there is none.
	AnchorType int

	// Frames is the number of frames scanned; Truncated is set when the
	// scan stopped at the frame limit.
	Frames        int
	Truncated     bool
	FirstTimestep int64
	LastTimestep  int64
}

// RunInfo describes one thermo block of a log.
type RunInfo struct {
	Index    int
	Keywords []string
	Steps    int
	Complete bool

	// Energy is the detected potential energy column, if any.
	Energy string

	// Virials lists column families with all six components.
	Virials []VirialFamily
}

// Usable reports whether the run has both an energy and a virial family.
func (r *RunInfo) Usable() bool {
	return r.Energy != "" && len(r.Virials) > 0
}

// LogInfo describes a LAMMPS log.
type LogInfo struct {
	Path string
	Runs []RunInfo
}

// SuggestedRun returns the last usable run, or nil.
func (l *LogInfo) SuggestedRun() *RunInfo {
	for i := len(l.Runs) - 1; i >= 0; i-- {
		if l.Runs[i].Usable() {
			return &l.Runs[i]
		}
	}
	return nil
}

// RunWithSteps returns the first usable run with exactly n steps, or nil.
func (l *LogInfo) RunWithSteps(n int) *RunInfo {
	for i := range l.Runs {
		if l.Runs[i].Usable() && l.Runs[i].Steps == n {
			return &l.Runs[i]
		}
	}
	return nil
}

// Detector inspects input files.
type Detector struct {
	maxFrames int
}

// Option configures the Detector.
type Option func(*Detector)

// WithMaxFrames limits how many frames are scanned (default 1000, 0 = all).
func WithMaxFrames(n int) Option {
	return func(d *Detector) {
		if n >= 0 {
			d.maxFrames = n
		}
	}
}

// New creates a new Detector.
func New(opts ...Option) *Detector {
	d := &Detector{
		maxFrames: 1000,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// InspectDump scans the dump at path.
func (d *Detector) InspectDump(ctx context.Context, path string) (*DumpInfo, error) {
	r, err := lammpstrj.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	info := &DumpInfo{Path: path}
	for {
		if d.maxFrames > 0 && info.Frames == d.maxFrames {
			_, err := r.Next(ctx)
			info.Truncated = err == nil
			break
		}

		f, err := r.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		if info.Frames == 0 {
			describeFrame(info, f)
		}
		info.Frames++
		info.LastTimestep = f.Timestep
	}

	if info.Frames == 0 {
		return nil, fmt.Errorf("%w: %s: no frames", lammpstrj.ErrMalformedTrajectory, path)
	}
	return info, nil
}

func describeFrame(info *DumpInfo, f *lammpstrj.Frame) {
	info.Columns = f.Columns
	info.Unwrapped = f.PositionLabels()[0] == "xu"
	info.Triclinic = f.Box.Triclinic
	info.FirstTimestep = f.Timestep
	info.Atoms = len(f.Atoms)
	info.TypeCounts = make(map[int]int)

	// per molecule: type -> count
	perMol := make(map[int]map[int]int)
	for _, a := range f.Atoms {
		info.TypeCounts[a.Type]++
		m := perMol[a.Mol]
		if m == nil {
			m = make(map[int]int)
			perMol[a.Mol] = m
		}
		m[a.Type]++
	}
	info.Molecules = len(perMol)

	types := make([]int, 0, len(info.TypeCounts))
	for t := range info.TypeCounts {
		types = append(types, t)
	}
	sort.Ints(types)

	for _, t := range types {
		if info.TypeCounts[t] != info.Molecules {
			continue
		}
		once := true
		for _, m := range perMol {
			if m[t] != 1 {
				once = false
				break
			}
		}
		if once {
			info.AnchorType = t
			return
		}
	}
}

// InspectLog parses the log at path and classifies its thermo columns.
func (d *Detector) InspectLog(ctx context.Context, path string) (*LogInfo, error) {
	l, err := thermo.ParseFile(ctx, path)
	if err != nil {
		return nil, err
	}

	info := &LogInfo{Path: path, Runs: make([]RunInfo, 0, len(l.Runs))}
	for _, run := range l.Runs {
		info.Runs = append(info.Runs, RunInfo{
			Index:    run.Index,
			Keywords: run.Keywords,
			Steps:    run.Len(),
			Complete: run.Complete,
			Energy:   findEnergy(run.Keywords),
			Virials:  findVirials(run.Keywords),
		})
	}
	return info, nil
}
