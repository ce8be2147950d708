package config

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads and validates a configuration file.
func Load(_ context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnvironmentOverrides()

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Validate checks a configuration for errors.
func Validate(cfg *Config) error {
	if cfg.Trajectory.Input == "" {
		return errors.New("trajectory.input: path is required")
	}
	if cfg.Trajectory.Output == "" {
		return errors.New("trajectory.output: path is required")
	}
	if cfg.Trajectory.Output == cfg.Trajectory.Input {
		return errors.New("trajectory.output: must differ from trajectory.input")
	}

	if err := validateLog(&cfg.Log); err != nil {
		return fmt.Errorf("log.%w", err)
	}

	if cfg.AnchorType < 1 {
		return fmt.Errorf("anchor_type: must be >= 1, got %d", cfg.AnchorType)
	}

	if cfg.Units.KcalMolToEV <= 0 {
		return fmt.Errorf("units.kcal_mol_to_ev: must be positive, got %g", cfg.Units.KcalMolToEV)
	}
	if cfg.Units.AtmA3ToEV <= 0 {
		return fmt.Errorf("units.atm_a3_to_ev: must be positive, got %g", cfg.Units.AtmA3ToEV)
	}

	if err := validateDataset(&cfg.Dataset); err != nil {
		return fmt.Errorf("dataset.%w", err)
	}

	return nil
}

func validateLog(l *LogConfig) error {
	if l.Path == "" {
		return errors.New("path: path is required")
	}

	if l.RunIndex < 1 {
		return fmt.Errorf("run_index: must be >= 1, got %d", l.RunIndex)
	}

	if l.Energy == "" {
		return errors.New("energy_field: column name is required")
	}

	v := l.Virial
	for _, f := range []struct{ key, name string }{
		{"xx", v.XX}, {"yy", v.YY}, {"zz", v.ZZ},
		{"xy", v.XY}, {"xz", v.XZ}, {"yz", v.YZ},
	} {
		if f.name == "" {
			return fmt.Errorf("virial_fields.%s: column name is required", f.key)
		}
	}

	return nil
}

func validateDataset(d *DatasetConfig) error {
	if d.Dir == "" {
		return errors.New("dir: path is required")
	}

	if len(d.TypeMap) == 0 {
		return errors.New("type_map: at least one type name is required")
	}

	if d.ValidationFraction < 0 || d.ValidationFraction >= 1 {
		return fmt.Errorf("validation_fraction: must be in [0, 1), got %g", d.ValidationFraction)
	}

	if d.SplitEnabled() {
		if d.TrainingDir == "" {
			return errors.New("training_dir: path is required when validation_fraction > 0")
		}
		if d.ValidationDir == "" {
			return errors.New("validation_dir: path is required when validation_fraction > 0")
		}
		if d.TrainingDir == d.ValidationDir {
			return errors.New("validation_dir: must differ from training_dir")
		}
	}

	return nil
}
