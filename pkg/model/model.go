// Package model glues classifiers to the rest of the toolkit: split
// preparation, exhaustive inference over a cube, accuracy metrics and
// artifact persistence. The classifiers themselves live elsewhere; this
// package only sees them through small interfaces.
package model

import (
	"fmt"
	"log"

	"gohsl/pkg/hsimage"
	"gohsl/pkg/mask"
	"gohsl/pkg/sampler"
)

// Model is a trainable pixelwise classifier over hyperspectral patches.
type Model interface {
	// Fit trains on the cube under the given ground truth and returns the
	// per-epoch history.
	Fit(x *hsimage.Cube, y *mask.Mask, p FitParams) (*History, error)
	// Predict classifies every pixel of the cube. A non-nil y restricts
	// the result to its labeled area.
	Predict(x *hsimage.Cube, y *mask.Mask) (*mask.LabelMap, error)
}

// FitParams carries the knobs shared by every Model implementation.
type FitParams struct {
	Epochs     int
	BatchSize  int
	PatchSize  int
	TrainSize  float64
	SampleMode sampler.Mode
}

// Splits is the three-way partition of a ground truth used for a
// training run.
type Splits struct {
	Train *mask.LabelMap
	Val   *mask.LabelMap
	Test  *mask.LabelMap
}

// PrepareSplits carves gt into train, validation and test maps. The test
// set is split off first; validation then takes a tenth of what remains,
// both with the same sampling mode.
func PrepareSplits(gt *mask.LabelMap, trainSize float64, mode sampler.Mode) (*Splits, error) {
	train, test, err := sampler.Split(gt, trainSize, mode)
	if err != nil {
		return nil, fmt.Errorf("model: test split: %w", err)
	}
	train, val, err := sampler.Split(train, 0.9, mode)
	if err != nil {
		return nil, fmt.Errorf("model: validation split: %w", err)
	}

	log.Printf("full size: %d", gt.CountNonzero())
	log.Printf("train size: %d", train.CountNonzero())
	log.Printf("val size: %d", val.CountNonzero())

	return &Splits{Train: train, Val: val, Test: test}, nil
}
