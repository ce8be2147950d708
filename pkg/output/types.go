// Package output provides formatting and output generation for pipeline results.
package output

import (
	"time"

	"github.com/deepwater/cgprep/pkg/pipeline"
	"github.com/deepwater/cgprep/pkg/thermo"
)

// Report is the complete pipeline output.
type Report struct {
	// Summary provides aggregate counts.
	Summary Summary `json:"summary"`

	// Outputs lists the files written, in order.
	Outputs []string `json:"outputs,omitempty"`

	// Warnings are non-fatal findings worth a look.
	Warnings []string `json:"warnings,omitempty"`

	// Metadata provides context about the run.
	Metadata Metadata `json:"metadata"`
}

// Summary provides aggregate counts.
type Summary struct {
	Frames        int  `json:"frames"`
	Steps         int  `json:"steps"`
	Beads         int  `json:"beads"`
	Atoms         int  `json:"atoms"`
	MissingAnchor int  `json:"missing_anchor"`
	Training      int  `json:"training"`
	Validation    int  `json:"validation"`
	Aligned       bool `json:"aligned"`
}

// Metadata provides context about the run.
type Metadata struct {
	// ConfigFile is the path to the configuration file used.
	ConfigFile string `json:"config_file"`

	// Trajectory and Log are the inputs.
	Trajectory string `json:"trajectory"`
	Log        string `json:"log"`

	// Run is the 1-based thermo block used for labels.
	Run int `json:"run"`

	// RunID identifies the written dataset; empty on a dry run.
	RunID string `json:"run_id,omitempty"`

	// DryRun is set when nothing was written.
	DryRun bool `json:"dry_run"`

	// GeneratedAt is when the run finished.
	GeneratedAt time.Time `json:"generated_at"`

	// Duration is how long the run took.
	Duration time.Duration `json:"duration"`
}

// NewReport creates a Report from a pipeline result.
func NewReport(result *pipeline.Result, configFile string) *Report {
	report := &Report{
		Outputs: result.Outputs,
		Metadata: Metadata{
			ConfigFile:  configFile,
			Trajectory:  result.Trajectory,
			Log:         result.Log,
			Run:         result.Run,
			DryRun:      result.DryRun,
			GeneratedAt: result.EndTime,
			Duration:    result.Duration(),
		},
		Summary: Summary{
			Frames:        result.Frames,
			Steps:         result.Steps,
			Beads:         result.Beads,
			Atoms:         result.Stats.Atoms,
			MissingAnchor: result.Stats.MissingAnchor,
			Training:      result.Training,
			Validation:    result.Validation,
			Aligned:       result.Aligned(),
		},
	}

	if result.Manifest != nil {
		report.Metadata.RunID = result.Manifest.RunID
	}

	if result.Stats.MissingAnchor > 0 {
		report.Warnings = append(report.Warnings,
			"molecules without an anchor atom were placed at their last atom")
	}
	if !result.Aligned() {
		report.Warnings = append(report.Warnings,
			"trajectory frames and log steps differ; no dataset was written")
	}

	return report
}

// HasIssues returns true if the run needs attention.
func (r *Report) HasIssues() bool {
	return !r.Summary.Aligned || r.Summary.MissingAnchor > 0
}

// AveragesReport holds column statistics of one thermo run.
type AveragesReport struct {
	Source   string           `json:"source"`
	Run      int              `json:"run"`
	Averages []thermo.Average `json:"averages"`
}
