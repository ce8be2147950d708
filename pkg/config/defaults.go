package config

import (
	"os"
	"strconv"

	"github.com/deepwater/cgprep/pkg/coarse"
	"github.com/deepwater/cgprep/pkg/dataset"
	"github.com/deepwater/cgprep/pkg/thermo"
	"github.com/deepwater/cgprep/pkg/units"
)

// Default values for configuration.
const (
	DefaultTrajectoryOutput   = "cg_trajectory.lammpstrj"
	DefaultRunIndex           = 2
	DefaultDatasetDir         = "dpmd_raw"
	DefaultTrainingDir        = "deepmd_data/training_data"
	DefaultValidationDir      = "deepmd_data/validation_data"
	DefaultValidationFraction = 0.2
	DefaultSeed               = 1
)

// Environment variable names.
const (
	EnvTrajectoryInput = "CGPREP_TRAJECTORY_INPUT"
	EnvLogPath         = "CGPREP_LOG_PATH"
	EnvRunIndex        = "CGPREP_RUN_INDEX"
	EnvDatasetDir      = "CGPREP_DATASET_DIR"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Trajectory: TrajectoryConfig{
			Output: DefaultTrajectoryOutput,
		},
		Log: LogConfig{
			RunIndex: DefaultRunIndex,
			Fields:   thermo.DefaultFields(),
		},
		AnchorType: coarse.DefaultAnchorType,
		Units:      units.DefaultConstants(),
		Dataset: DatasetConfig{
			Dir:                DefaultDatasetDir,
			TypeMap:            append([]string(nil), dataset.DefaultTypeMap...),
			Wrap:               true,
			ValidationFraction: DefaultValidationFraction,
			Seed:               DefaultSeed,
			TrainingDir:        DefaultTrainingDir,
			ValidationDir:      DefaultValidationDir,
		},
	}
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
// An unparsable run index is left for Validate to report.
func (c *Config) applyEnvironmentOverrides() {
	if v := os.Getenv(EnvTrajectoryInput); v != "" {
		c.Trajectory.Input = v
	}
	if v := os.Getenv(EnvLogPath); v != "" {
		c.Log.Path = v
	}
	if v := os.Getenv(EnvRunIndex); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			n = 0
		}
		c.Log.RunIndex = n
	}
	if v := os.Getenv(EnvDatasetDir); v != "" {
		c.Dataset.Dir = v
	}
}
