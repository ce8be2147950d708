// Package pipeline coarse-grains a trajectory, labels it from the thermo log
// and writes the trajectory and training dataset.
package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/deepwater/cgprep/pkg/coarse"
	"github.com/deepwater/cgprep/pkg/dataset"
)

// ErrFrameCountMismatch is returned when the trajectory and the selected log
// run disagree on the number of frames.
var ErrFrameCountMismatch = errors.New("frame count mismatch")

// MismatchError reports both counts of a failed frame alignment.
type MismatchError struct {
	Trajectory string
	Frames     int
	Log        string
	Run        int
	Steps      int
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s: trajectory %s has %d frames but run %d of %s has %d steps",
		ErrFrameCountMismatch, e.Trajectory, e.Frames, e.Run, e.Log, e.Steps)
}

func (e *MismatchError) Unwrap() error {
	return ErrFrameCountMismatch
}

// Result contains the outcome of a pipeline run.
type Result struct {
	// Trajectory and Log are the inputs that were read.
	Trajectory string
	Log        string

	// Run is the 1-based thermo block used for labels.
	Run int

	// Frames is the number of trajectory frames; Steps the number of log rows.
	Frames int
	Steps  int

	// Beads is the number of distinct coarse-grained particles.
	Beads int

	// Stats accumulates the reduction over all frames.
	Stats coarse.Stats

	// Training and Validation are the split sizes (zero when not split).
	Training   int
	Validation int

	// Outputs lists every file written, in order.
	Outputs []string

	// Manifest describes the written dataset; nil on a dry run.
	Manifest *dataset.Manifest

	// DryRun is set when nothing was written.
	DryRun bool

	StartTime time.Time
	EndTime   time.Time
}

// Duration returns how long the run took.
func (r *Result) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

// Aligned reports whether every frame has a matching log step.
func (r *Result) Aligned() bool {
	return r.Frames == r.Steps
}
