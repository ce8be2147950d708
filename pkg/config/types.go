// Package config provides configuration loading and validation for cgprep.
package config

import (
	"github.com/deepwater/cgprep/pkg/thermo"
	"github.com/deepwater/cgprep/pkg/units"
)

// Config is the root configuration structure loaded from YAML.
type Config struct {
	Trajectory TrajectoryConfig `yaml:"trajectory"`
	Log        LogConfig        `yaml:"log"`
	AnchorType int              `yaml:"anchor_type"`
	Units      units.Constants  `yaml:"units"`
	Dataset    DatasetConfig    `yaml:"dataset"`
}

// TrajectoryConfig names the all-atom input dump and the coarse-grained output.
type TrajectoryConfig struct {
	// Input is the all-atom LAMMPS dump. A .gz or .zst suffix selects
	// decompression.
	Input string `yaml:"input"`

	// Output is where the coarse-grained dump is written.
	Output string `yaml:"output"`
}

// LogConfig selects the thermo data that labels each frame.
type LogConfig struct {
	// Path is the LAMMPS log file.
	Path string `yaml:"path"`

	// RunIndex picks the thermo block, counting from 1. The default, 2, is
	// the production run that follows an energy minimization.
	RunIndex int `yaml:"run_index"`

	// Fields names the energy and virial columns.
	thermo.Fields `yaml:",inline"`
}

// DatasetConfig controls the emitted training data.
type DatasetConfig struct {
	// Dir receives the raw files (type.raw, coord.raw, ...).
	Dir string `yaml:"dir"`

	// TypeMap names bead types; index 0 is the water bead.
	TypeMap []string `yaml:"type_map"`

	// Wrap folds bead coordinates back into the periodic cell.
	Wrap bool `yaml:"wrap"`

	// ValidationFraction of frames goes to ValidationDir. Zero disables the split.
	ValidationFraction float64 `yaml:"validation_fraction"`

	// Seed makes the split reproducible.
	Seed uint64 `yaml:"seed"`

	TrainingDir   string `yaml:"training_dir"`
	ValidationDir string `yaml:"validation_dir"`
}

// SplitEnabled reports whether a training/validation split is requested.
func (d *DatasetConfig) SplitEnabled() bool {
	return d.ValidationFraction > 0
}
