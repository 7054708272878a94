package model

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// History records per-epoch training curves for later inspection.
type History struct {
	Loss        []float64 `yaml:"loss"`
	Accuracy    []float64 `yaml:"accuracy"`
	ValLoss     []float64 `yaml:"val_loss"`
	ValAccuracy []float64 `yaml:"val_accuracy"`
	LearnRate   []float64 `yaml:"lr,omitempty"`
}

// Epochs returns how many epochs the history covers.
func (h *History) Epochs() int { return len(h.Loss) }

// Save writes the history as YAML.
func (h *History) Save(path string) error {
	data, err := yaml.Marshal(h)
	if err != nil {
		return fmt.Errorf("model: marshaling history: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// LoadHistory reads a history previously written by Save.
func LoadHistory(path string) (*History, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var h History
	if err := yaml.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("model: parsing history %s: %w", path, err)
	}
	return &h, nil
}
