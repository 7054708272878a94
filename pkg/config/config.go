// Package config provides configuration loading and management for gohsl.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Dataset parameters
	Dataset struct {
		// CubePath is the hyperspectral cube file (.npy, .mat or .h5)
		CubePath string `yaml:"cubePath"`

		// CubeKey selects the dataset inside keyed containers (.mat, .h5)
		CubeKey string `yaml:"cubeKey"`

		// MaskPath is the ground-truth mask file
		MaskPath string `yaml:"maskPath"`

		// MaskKey selects the dataset inside keyed containers
		MaskKey string `yaml:"maskKey"`

		// Name tags saved artifacts (train masks, histories)
		Name string `yaml:"name"`
	} `yaml:"dataset"`

	// Sampling parameters
	Sampling struct {
		// TrainSize is a fraction in (0, 1] or an absolute pixel count above 1
		TrainSize float64 `yaml:"trainSize"`

		// Mode is the split strategy: random, fixed or disjoint
		Mode string `yaml:"mode"`

		// Seed drives the random and fixed modes
		Seed int64 `yaml:"seed"`
	} `yaml:"sampling"`

	// Patch extraction parameters
	Patches struct {
		// Size is the spatial side of each patch
		Size int `yaml:"size"`

		// RemoveZeroLabels drops background patches and shifts labels down
		RemoveZeroLabels bool `yaml:"removeZeroLabels"`

		// BatchSize groups patches for batched prediction
		BatchSize int `yaml:"batchSize"`
	} `yaml:"patches"`

	// PCA parameters
	PCA struct {
		// Apply enables the spectral reduction step
		Apply bool `yaml:"apply"`

		// Components is the number of bands to keep
		Components int `yaml:"components"`
	} `yaml:"pca"`

	// Inference parameters
	Inference struct {
		// MaskVoidAreas zeroes predictions outside the labeled area
		MaskVoidAreas bool `yaml:"maskVoidAreas"`

		// OutputDir receives prediction maps and band exports
		OutputDir string `yaml:"outputDir"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"inference"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Dataset.CubeKey = "image"
	cfg.Dataset.MaskKey = "img"
	cfg.Dataset.Name = "dataset"

	cfg.Sampling.TrainSize = 0.7
	cfg.Sampling.Mode = "random"
	cfg.Sampling.Seed = 42

	cfg.Patches.Size = 5
	cfg.Patches.RemoveZeroLabels = true
	cfg.Patches.BatchSize = 64

	cfg.PCA.Apply = false
	cfg.PCA.Components = 30

	cfg.Inference.MaskVoidAreas = true
	cfg.Inference.OutputDir = "output"
	cfg.Inference.Verbose = true

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
