// Package config provides configuration loading and management for neuroskin.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"neuroskin/internal/models"
)

// Edge styles for arbor meshing.
const (
	// EdgesSharp meshes the skeleton as sampled, with no resampling
	EdgesSharp = "sharp"

	// EdgesSmooth resamples sections before meshing so the vertex
	// smoothing filter cannot introduce faceting artifacts
	EdgesSmooth = "smooth"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Meshing parameters drive the skinning reconstruction
	Meshing struct {
		// Edges selects the edge style: "sharp" or "smooth"
		Edges string `yaml:"edges"`

		// ResampleSpacing is the target inter-sample distance used when
		// resampling for smooth edges, in morphology length units
		ResampleSpacing float64 `yaml:"resampleSpacing"`

		// SmoothIterations is the number of vertex smoothing passes
		// applied after the skin modifier
		SmoothIterations int `yaml:"smoothIterations"`

		// BridgeFromSomaCentre extrudes the auxiliary skeleton section
		// from the soma centre instead of a point just short of the
		// first sample
		BridgeFromSomaCentre bool `yaml:"bridgeFromSomaCentre"`

		// BridgeSamples is the number of auxiliary samples used when
		// bridging from the soma centre
		BridgeSamples int `yaml:"bridgeSamples"`
	} `yaml:"meshing"`

	// Arbors parameters control which arbors are built and how deep
	Arbors struct {
		// ApicalDendriteBranchOrder truncates the apical dendrite at
		// the given branching order
		ApicalDendriteBranchOrder int `yaml:"apicalDendriteBranchOrder"`

		// BasalDendritesBranchOrder truncates every basal dendrite
		BasalDendritesBranchOrder int `yaml:"basalDendritesBranchOrder"`

		// AxonBranchOrder truncates the axon
		AxonBranchOrder int `yaml:"axonBranchOrder"`

		// IgnoreApicalDendrite skips the apical dendrite entirely
		IgnoreApicalDendrite bool `yaml:"ignoreApicalDendrite"`

		// IgnoreBasalDendrites skips all basal dendrites
		IgnoreBasalDendrites bool `yaml:"ignoreBasalDendrites"`

		// IgnoreAxon skips the axon
		IgnoreAxon bool `yaml:"ignoreAxon"`
	} `yaml:"arbors"`

	// Materials lists the candidate materials per arbor type. Each list
	// must be non-empty; the builder uses the first entry.
	Materials struct {
		Soma            []models.Material `yaml:"soma"`
		Axon            []models.Material `yaml:"axon"`
		BasalDendrites  []models.Material `yaml:"basalDendrites"`
		ApicalDendrites []models.Material `yaml:"apicalDendrites"`
	} `yaml:"materials"`

	// Input parameters drive the batch scene import pass
	Input struct {
		// Directory holds the previously exported neuron meshes
		Directory string `yaml:"directory"`

		// Format is the asset type: "blend", "ply" or "obj"
		Format string `yaml:"format"`

		// GIDs lists the neurons to import
		GIDs []string `yaml:"gids"`
	} `yaml:"input"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default meshing parameters
	cfg.Meshing.Edges = EdgesSmooth
	cfg.Meshing.ResampleSpacing = 2.5
	cfg.Meshing.SmoothIterations = 2
	cfg.Meshing.BridgeFromSomaCentre = false
	cfg.Meshing.BridgeSamples = 5

	// Set default arbor parameters: effectively unlimited branching
	cfg.Arbors.ApicalDendriteBranchOrder = 100
	cfg.Arbors.BasalDendritesBranchOrder = 100
	cfg.Arbors.AxonBranchOrder = 100

	// Set default materials, one per arbor type
	cfg.Materials.Soma = []models.Material{{Name: "soma", R: 0.8, G: 0.8, B: 0.8, A: 1}}
	cfg.Materials.Axon = []models.Material{{Name: "axon", R: 0.1, G: 0.4, B: 0.9, A: 1}}
	cfg.Materials.BasalDendrites = []models.Material{{Name: "basal_dendrite", R: 0.9, G: 0.2, B: 0.1, A: 1}}
	cfg.Materials.ApicalDendrites = []models.Material{{Name: "apical_dendrite", R: 0.9, G: 0.6, B: 0.1, A: 1}}

	// Set default input parameters
	cfg.Input.Format = "blend"

	return cfg
}

// Validate checks the configuration invariants the pipeline relies on,
// in particular that no material list is empty: the builder indexes the
// first entry of each list.
func (cfg *Config) Validate() error {
	if cfg.Meshing.Edges != EdgesSharp && cfg.Meshing.Edges != EdgesSmooth {
		return fmt.Errorf("meshing.edges must be %q or %q, got %q",
			EdgesSharp, EdgesSmooth, cfg.Meshing.Edges)
	}
	if cfg.Meshing.ResampleSpacing <= 0 {
		return fmt.Errorf("meshing.resampleSpacing must be positive, got %g",
			cfg.Meshing.ResampleSpacing)
	}
	if cfg.Meshing.SmoothIterations < 0 {
		return fmt.Errorf("meshing.smoothIterations must not be negative, got %d",
			cfg.Meshing.SmoothIterations)
	}
	if cfg.Meshing.BridgeFromSomaCentre && cfg.Meshing.BridgeSamples < 2 {
		return fmt.Errorf("meshing.bridgeSamples must be at least 2, got %d",
			cfg.Meshing.BridgeSamples)
	}

	lists := []struct {
		name      string
		materials []models.Material
	}{
		{"materials.soma", cfg.Materials.Soma},
		{"materials.axon", cfg.Materials.Axon},
		{"materials.basalDendrites", cfg.Materials.BasalDendrites},
		{"materials.apicalDendrites", cfg.Materials.ApicalDendrites},
	}
	for _, l := range lists {
		if len(l.materials) == 0 {
			return fmt.Errorf("%s must list at least one material", l.name)
		}
	}
	return nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}
