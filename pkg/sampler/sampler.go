// Package sampler splits a ground-truth label map into train and test
// maps. Unlabeled pixels (class 0) never enter either split.
package sampler

import (
	"errors"
	"fmt"
	"math/rand"

	"gohsl/pkg/mask"
)

// DefaultSeed makes repeated runs over the same ground truth reproducible.
const DefaultSeed = 42

// Mode selects a sampling strategy.
type Mode string

const (
	// Random draws the train set uniformly from all labeled pixels.
	Random Mode = "random"
	// Fixed draws the same number of pixels from every class.
	Fixed Mode = "fixed"
	// Disjoint splits each class spatially: bottom rows go to train,
	// the rest to test, so the two sets never share a neighborhood.
	Disjoint Mode = "disjoint"
)

var ErrUnsupportedMode = errors.New("sampler: unsupported mode")

type pixel struct {
	row, col int
}

// Split partitions gt into train and test label maps using DefaultSeed.
//
// trainSize in (0, 1] is a fraction of the labeled pixels; a value above 1
// is truncated to an absolute pixel count. In Fixed mode the count applies
// per class. gt itself is never modified.
func Split(gt *mask.LabelMap, trainSize float64, mode Mode) (*mask.LabelMap, *mask.LabelMap, error) {
	return SplitSeeded(gt, trainSize, mode, DefaultSeed)
}

// SplitSeeded is Split with an explicit random seed.
func SplitSeeded(gt *mask.LabelMap, trainSize float64, mode Mode, seed int64) (*mask.LabelMap, *mask.LabelMap, error) {
	switch mode {
	case Random:
		return splitRandom(gt, trainSize, seed)
	case Fixed:
		return splitFixed(gt, trainSize, seed)
	case Disjoint:
		return splitDisjoint(gt, trainSize)
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnsupportedMode, mode)
	}
}

// trainCount resolves trainSize against n labeled pixels. Sizes above 1
// are absolute counts, truncated toward zero.
func trainCount(trainSize float64, n int) int {
	if trainSize > 1 {
		return min(int(trainSize), n)
	}
	return int(trainSize * float64(n))
}

func labeledPixels(gt *mask.LabelMap) []pixel {
	px := make([]pixel, 0, gt.CountNonzero())
	for r := 0; r < gt.Rows; r++ {
		for c := 0; c < gt.Cols; c++ {
			if gt.At(r, c) != 0 {
				px = append(px, pixel{r, c})
			}
		}
	}
	return px
}

func splitRandom(gt *mask.LabelMap, trainSize float64, seed int64) (*mask.LabelMap, *mask.LabelMap, error) {
	px := labeledPixels(gt)
	if len(px) == 0 {
		return nil, nil, errors.New("sampler: ground truth has no labeled pixels")
	}

	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(px), func(i, j int) { px[i], px[j] = px[j], px[i] })

	n := trainCount(trainSize, len(px))
	train := mask.NewLabelMap(gt.Rows, gt.Cols)
	test := mask.NewLabelMap(gt.Rows, gt.Cols)
	for i, p := range px {
		if i < n {
			train.Set(p.row, p.col, gt.At(p.row, p.col))
		} else {
			test.Set(p.row, p.col, gt.At(p.row, p.col))
		}
	}
	return train, test, nil
}

func splitFixed(gt *mask.LabelMap, trainSize float64, seed int64) (*mask.LabelMap, *mask.LabelMap, error) {
	byClass := map[int][]pixel{}
	for r := 0; r < gt.Rows; r++ {
		for c := 0; c < gt.Cols; c++ {
			if v := gt.At(r, c); v != 0 {
				byClass[v] = append(byClass[v], pixel{r, c})
			}
		}
	}
	if len(byClass) == 0 {
		return nil, nil, errors.New("sampler: ground truth has no labeled pixels")
	}

	rng := rand.New(rand.NewSource(seed))
	train := mask.NewLabelMap(gt.Rows, gt.Cols)
	test := mask.NewLabelMap(gt.Rows, gt.Cols)
	for _, cls := range sortedClasses(byClass) {
		px := byClass[cls]
		rng.Shuffle(len(px), func(i, j int) { px[i], px[j] = px[j], px[i] })
		n := trainCount(trainSize, len(px))
		for i, p := range px {
			if i < n {
				train.Set(p.row, p.col, cls)
			} else {
				test.Set(p.row, p.col, cls)
			}
		}
	}
	return train, test, nil
}

func sortedClasses(m map[int][]pixel) []int {
	out := make([]int, 0, len(m))
	for c := range m {
		out = append(out, c)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// splitDisjoint scans each class's rows top to bottom, stopping at the
// first row where the prefix holds more than 0.9*trainSize of the class.
// Rows before the stop line leave the train set, so train keeps the
// bottom region and test the complement. The line is found per class,
// so every class appears in both halves when it spans enough rows.
func splitDisjoint(gt *mask.LabelMap, trainSize float64) (*mask.LabelMap, *mask.LabelMap, error) {
	if gt.CountNonzero() == 0 {
		return nil, nil, errors.New("sampler: ground truth has no labeled pixels")
	}

	train := gt.Clone()
	for _, cls := range gt.Classes() {
		// Per-row class counts, so prefix sums are cheap.
		rowCount := make([]int, gt.Rows)
		total := 0
		for r := 0; r < gt.Rows; r++ {
			for c := 0; c < gt.Cols; c++ {
				if gt.At(r, c) == cls {
					rowCount[r]++
				}
			}
			total += rowCount[r]
		}

		cut := 0
		prefix := 0
		for x := 0; x < gt.Rows; x++ {
			cut = x
			if total == 0 {
				continue
			}
			if float64(prefix)/float64(total) > 0.9*trainSize {
				break
			}
			prefix += rowCount[x]
		}

		// Rows before the cut leave the train set.
		for r := 0; r < cut; r++ {
			for c := 0; c < gt.Cols; c++ {
				if gt.At(r, c) == cls {
					train.Set(r, c, 0)
				}
			}
		}
	}

	test := gt.Clone()
	for r := 0; r < gt.Rows; r++ {
		for c := 0; c < gt.Cols; c++ {
			if train.At(r, c) > 0 {
				test.Set(r, c, 0)
			}
		}
	}
	return train, test, nil
}
