package dataset

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/deepwater/cgprep/internal/fsutil"
)

// ManifestFile is written next to the raw files.
const ManifestFile = "manifest.yaml"

// Manifest records where a dataset came from and how it was split.
type Manifest struct {
	RunID      string    `yaml:"run_id" json:"run_id"`
	CreatedAt  time.Time `yaml:"created_at" json:"created_at"`
	Trajectory string    `yaml:"trajectory" json:"trajectory"`
	Log        string    `yaml:"log" json:"log"`
	RunIndex   int       `yaml:"run_index" json:"run_index"`
	Frames     int       `yaml:"frames" json:"frames"`
	Beads      int       `yaml:"beads" json:"beads"`
	TypeMap    []string  `yaml:"type_map" json:"type_map"`

	KcalMolToEV float64 `yaml:"kcal_mol_to_ev" json:"kcal_mol_to_ev"`
	AtmA3ToEV   float64 `yaml:"atm_a3_to_ev" json:"atm_a3_to_ev"`

	Seed       uint64 `yaml:"seed,omitempty" json:"seed,omitempty"`
	Training   []int  `yaml:"training,omitempty,flow" json:"training,omitempty"`
	Validation []int  `yaml:"validation,omitempty,flow" json:"validation,omitempty"`

	Files []string `yaml:"files" json:"files"`
}

// NewManifest stamps a fresh run id and creation time.
func NewManifest() *Manifest {
	return &Manifest{
		RunID:     uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}
}

// WriteManifest writes m as YAML to path, atomically.
func WriteManifest(path string, m *Manifest) error {
	return fsutil.WriteFileAtomic(path, func(w io.Writer) error {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return fmt.Errorf("encoding manifest: %w", err)
		}
		return enc.Close()
	})
}

// ReadManifest decodes a manifest written by WriteManifest.
func ReadManifest(r io.Reader) (*Manifest, error) {
	var m Manifest
	if err := yaml.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}
	return &m, nil
}
