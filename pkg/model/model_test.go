package model

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gohsl/pkg/hsimage"
	"gohsl/pkg/mask"
	"gohsl/pkg/sampler"
)

// thresholdPredictor classifies a patch by its center sample on band 0:
// class 1 below the threshold, class 2 at or above it
type thresholdPredictor struct {
	patchSize int
	threshold float32
}

func (p *thresholdPredictor) NClasses() int { return 3 }

func (p *thresholdPredictor) PredictBatch(patches [][]float32) ([][]float64, error) {
	out := make([][]float64, len(patches))
	for i, patch := range patches {
		center := patch[1*p.patchSize+1] // band 0, center of a 3x3 patch
		probs := []float64{0, 0, 0}
		if center < p.threshold {
			probs[1] = 1
		} else {
			probs[2] = 1
		}
		out[i] = probs
	}
	return out, nil
}

// splitCube builds a 6x6 single-band cube with low values in the top half
// and high values in the bottom half
func splitCube(t *testing.T) *hsimage.Cube {
	t.Helper()
	c := hsimage.NewCube(6, 6, 1)
	for r := 0; r < 6; r++ {
		v := float32(1)
		if r >= 3 {
			v = 9
		}
		for col := 0; col < 6; col++ {
			c.Set(r, col, 0, v)
		}
	}
	return c
}

func TestInferClassifiesEveryPixel(t *testing.T) {
	c := splitCube(t)
	pred, err := Infer(&thresholdPredictor{patchSize: 3, threshold: 5}, c, InferOptions{
		PatchSize: 3,
		BatchSize: 4,
	})
	require.NoError(t, err)

	for r := 0; r < 6; r++ {
		want := 1
		if r >= 3 {
			want = 2
		}
		for col := 0; col < 6; col++ {
			assert.Equal(t, want, pred.At(r, col), "pixel (%d,%d)", r, col)
		}
	}
}

func TestInferVoidMasking(t *testing.T) {
	c := splitCube(t)
	void := mask.NewLabelMap(6, 6)
	void.Set(0, 0, 1)
	void.Set(5, 5, 1)

	pred, err := Infer(&thresholdPredictor{patchSize: 3, threshold: 5}, c, InferOptions{
		PatchSize: 3,
		BatchSize: 8,
		Void:      void,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, pred.At(0, 0))
	assert.Equal(t, 2, pred.At(5, 5))
	assert.Zero(t, pred.At(2, 2), "unlabeled pixel must be voided")
	assert.Zero(t, pred.At(4, 4))
}

func TestInferVoidShapeMismatch(t *testing.T) {
	c := splitCube(t)
	void := mask.NewLabelMap(3, 3)

	_, err := Infer(&thresholdPredictor{patchSize: 3, threshold: 5}, c, InferOptions{
		PatchSize: 3,
		Void:      void,
	})
	assert.Error(t, err)
}

func TestPrepareSplits(t *testing.T) {
	gt := mask.NewLabelMap(10, 10)
	for i := range gt.Data {
		gt.Data[i] = 1 + i%2
	}

	splits, err := PrepareSplits(gt, 0.5, sampler.Random)
	require.NoError(t, err)

	assert.Equal(t, 45, splits.Train.CountNonzero(), "half of 100, minus a tenth for validation")
	assert.Equal(t, 5, splits.Val.CountNonzero())
	assert.Equal(t, 50, splits.Test.CountNonzero())
}

func TestEvaluatePerfectPrediction(t *testing.T) {
	gt := mask.NewLabelMap(4, 4)
	for i := range gt.Data {
		gt.Data[i] = 1 + i%3
	}

	m, err := Evaluate(gt.Clone(), gt)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, m.OA, 1e-9)
	assert.InDelta(t, 1.0, m.AA, 1e-9)
	assert.InDelta(t, 1.0, m.Kappa, 1e-9)
}

func TestEvaluateKnownConfusion(t *testing.T) {
	// Two classes, 8 labeled pixels: class 1 predicted perfectly,
	// class 2 half confused with class 1.
	target := mask.NewLabelMap(2, 4)
	copy(target.Data, []int{1, 1, 1, 1, 2, 2, 2, 2})
	pred := mask.NewLabelMap(2, 4)
	copy(pred.Data, []int{1, 1, 1, 1, 1, 1, 2, 2})

	m, err := Evaluate(pred, target)
	require.NoError(t, err)

	assert.Equal(t, 4, m.Confusion[1][1])
	assert.Equal(t, 2, m.Confusion[2][1])
	assert.Equal(t, 2, m.Confusion[2][2])
	assert.InDelta(t, 0.75, m.OA, 1e-9)
	assert.InDelta(t, 0.75, m.AA, 1e-9) // (1.0 + 0.5) / 2
	// pe = (4*6 + 4*2) / 64 = 0.5, kappa = (0.75-0.5)/0.5
	assert.InDelta(t, 0.5, m.Kappa, 1e-9)
}

func TestEvaluateIgnoresUnlabeled(t *testing.T) {
	target := mask.NewLabelMap(2, 2)
	copy(target.Data, []int{0, 0, 1, 1})
	pred := mask.NewLabelMap(2, 2)
	copy(pred.Data, []int{2, 2, 1, 1})

	m, err := Evaluate(pred, target)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, m.OA, 1e-9, "void target pixels must not count")
}

func TestSnakeCase(t *testing.T) {
	cases := map[string]string{
		"TF2DCNN":      "tf2_dcnn",
		"NM3DCNN":      "nm3_dcnn",
		"BaselineNet":  "baseline_net",
		"simple":       "simple",
		"HTTPServerV2": "http_server_v2",
	}
	for in, want := range cases {
		assert.Equal(t, want, SnakeCase(in), "SnakeCase(%q)", in)
	}
}

func TestHistoryRoundTrip(t *testing.T) {
	h := &History{
		Loss:        []float64{1.2, 0.8, 0.5},
		Accuracy:    []float64{0.4, 0.7, 0.9},
		ValLoss:     []float64{1.3, 0.9, 0.6},
		ValAccuracy: []float64{0.35, 0.65, 0.85},
	}

	path := filepath.Join(t.TempDir(), "history.yaml")
	require.NoError(t, h.Save(path))

	got, err := LoadHistory(path)
	require.NoError(t, err)
	assert.Equal(t, h, got)
	assert.Equal(t, 3, got.Epochs())
}

func TestSaveTrainMask(t *testing.T) {
	// Run in a temp dir so artifacts do not leak into the source tree.
	t.Chdir(t.TempDir())

	m := mask.NewLabelMap(4, 4)
	m.Set(1, 1, 1)
	m.Set(2, 2, 2)

	require.NoError(t, SaveTrainMask("BaselineNet", "toy", m))

	files, err := filepath.Glob(filepath.Join("masks", "baseline_net", "toy", "*.png"))
	require.NoError(t, err)
	assert.Len(t, files, 2, "gray and color masks")
}
