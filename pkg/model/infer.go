package model

import (
	"errors"
	"fmt"

	"gohsl/pkg/dataset"
	"gohsl/pkg/hsimage"
	"gohsl/pkg/mask"
	"gohsl/pkg/window"
)

// Predictor scores a batch of channel-first (bands x p x p) float32
// patches, returning one probability vector per patch.
type Predictor interface {
	PredictBatch(patches [][]float32) ([][]float64, error)
	NClasses() int
}

// InferOptions tunes the exhaustive inference pass.
type InferOptions struct {
	PatchSize int
	BatchSize int
	// Void restricts the prediction to labeled pixels: wherever Void is
	// zero the output is forced to zero. Nil keeps every pixel.
	Void *mask.LabelMap
}

// Infer classifies every pixel of the cube by scoring the patch centered
// on it and accumulating class probabilities, then taking the argmax.
func Infer(p Predictor, c *hsimage.Cube, opts InferOptions) (*mask.LabelMap, error) {
	if opts.PatchSize < 1 {
		return nil, fmt.Errorf("model: patch size %d out of range", opts.PatchSize)
	}
	batchSize := opts.BatchSize
	if batchSize < 1 {
		batchSize = 1
	}
	nClasses := p.NClasses()
	if nClasses < 2 {
		return nil, errors.New("model: predictor reports fewer than two classes")
	}

	probs := make([]float64, c.Rows*c.Cols*nClasses)

	it := dataset.NewTestIterator(c, opts.PatchSize)
	batches := window.Batch(batchSize, it.Next)
	idx := 0
	for {
		batch, ok := batches()
		if !ok {
			break
		}
		out, err := p.PredictBatch(batch)
		if err != nil {
			return nil, fmt.Errorf("model: scoring batch: %w", err)
		}
		if len(out) != len(batch) {
			return nil, fmt.Errorf("model: predictor returned %d vectors for %d patches", len(out), len(batch))
		}
		for _, vec := range out {
			if len(vec) != nClasses {
				return nil, fmt.Errorf("model: probability vector has %d entries, want %d", len(vec), nClasses)
			}
			for k, v := range vec {
				probs[idx*nClasses+k] += v
			}
			idx++
		}
	}
	if idx != c.Rows*c.Cols {
		return nil, fmt.Errorf("model: scored %d pixels, cube has %d", idx, c.Rows*c.Cols)
	}

	pred := mask.NewLabelMap(c.Rows, c.Cols)
	for i := 0; i < c.Rows*c.Cols; i++ {
		best, bestV := 0, probs[i*nClasses]
		for k := 1; k < nClasses; k++ {
			if v := probs[i*nClasses+k]; v > bestV {
				best, bestV = k, v
			}
		}
		pred.Data[i] = best
	}

	if opts.Void != nil {
		if opts.Void.Rows != c.Rows || opts.Void.Cols != c.Cols {
			return nil, fmt.Errorf("model: void mask %dx%d does not match cube %dx%d",
				opts.Void.Rows, opts.Void.Cols, c.Rows, c.Cols)
		}
		for i, v := range opts.Void.Data {
			if v == 0 {
				pred.Data[i] = 0
			}
		}
	}
	return pred, nil
}
