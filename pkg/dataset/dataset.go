// Package dataset turns a hyperspectral cube plus ground truth into the
// patch tensors a pixelwise classifier consumes.
package dataset

import (
	"errors"
	"fmt"

	"gohsl/pkg/hsimage"
	"gohsl/pkg/mask"
)

var ErrShapeMismatch = errors.New("dataset: cube and ground truth shapes differ")

// PadWithZeros returns a copy of the cube with margin rows and columns of
// zeros added on every spatial side. The band axis is untouched.
func PadWithZeros(c *hsimage.Cube, margin int) *hsimage.Cube {
	out := hsimage.NewCube(c.Rows+2*margin, c.Cols+2*margin, c.Bands)
	for r := 0; r < c.Rows; r++ {
		for col := 0; col < c.Cols; col++ {
			copy(out.Pixel(r+margin, col+margin), c.Pixel(r, col))
		}
	}
	return out
}

// InPaddedArea reports whether (r, c) lies strictly inside the unpadded
// region of an image padded by margin on each side.
func InPaddedArea(r, c, rows, cols, margin int) bool {
	return margin < r && r < rows-margin && margin < c && c < cols-margin
}

// PatchSet holds one spatial patch per pixel of interest. Data is laid out
// N x p x p x bands, row-major with the band axis last.
type PatchSet struct {
	PatchSize int
	Bands     int
	Data      []float32
	Labels    []int
}

// Len returns the number of patches.
func (p *PatchSet) Len() int { return len(p.Labels) }

// Patch returns the flat p x p x bands slice of patch i. The slice aliases
// the set's backing array.
func (p *PatchSet) Patch(i int) []float32 {
	n := p.PatchSize * p.PatchSize * p.Bands
	return p.Data[i*n : (i+1)*n]
}

// CreatePatches cuts one patchSize x patchSize neighborhood around every
// pixel of the cube, padding the border with zeros so edge pixels get full
// patches. Labels come from gt at the center pixel. patchSize must be odd
// so every patch has an exact center.
//
// With removeZeroLabels set, background patches are dropped and the
// surviving labels shift down by one so classes start at zero.
func CreatePatches(c *hsimage.Cube, gt *mask.LabelMap, patchSize int, removeZeroLabels bool) (*PatchSet, error) {
	if c.Rows != gt.Rows || c.Cols != gt.Cols {
		return nil, fmt.Errorf("%w: cube %dx%d, gt %dx%d", ErrShapeMismatch, c.Rows, c.Cols, gt.Rows, gt.Cols)
	}
	if patchSize < 1 || patchSize%2 == 0 {
		return nil, fmt.Errorf("dataset: patch size %d out of range, want odd", patchSize)
	}

	margin := (patchSize - 1) / 2
	padded := PadWithZeros(c, margin)

	perPatch := patchSize * patchSize * c.Bands
	set := &PatchSet{
		PatchSize: patchSize,
		Bands:     c.Bands,
		Data:      make([]float32, 0, c.Rows*c.Cols*perPatch),
		Labels:    make([]int, 0, c.Rows*c.Cols),
	}

	for r := 0; r < c.Rows; r++ {
		for col := 0; col < c.Cols; col++ {
			label := gt.At(r, col)
			if removeZeroLabels && label == 0 {
				continue
			}
			if removeZeroLabels {
				label--
			}
			for pr := 0; pr < patchSize; pr++ {
				for pc := 0; pc < patchSize; pc++ {
					set.Data = append(set.Data, padded.Pixel(r+pr, col+pc)...)
				}
			}
			set.Labels = append(set.Labels, label)
		}
	}
	return set, nil
}

// TestIterator yields one channel-first (bands x p x p) float32 patch per
// pixel of the cube in raster order, covering the padded cube exhaustively.
// Pair it with window.Batch to feed a batched predictor.
type TestIterator struct {
	padded    *hsimage.Cube
	patchSize int
	rows      int
	cols      int
	r, c      int
}

// NewTestIterator prepares the exhaustive inference tiling of the cube.
func NewTestIterator(c *hsimage.Cube, patchSize int) *TestIterator {
	return &TestIterator{
		padded:    PadWithZeros(c, patchSize/2),
		patchSize: patchSize,
		rows:      c.Rows,
		cols:      c.Cols,
	}
}

// Len returns the total number of patches the iterator will yield.
func (it *TestIterator) Len() int { return it.rows * it.cols }

// Next returns the next patch, or false when the tiling is exhausted.
func (it *TestIterator) Next() ([]float32, bool) {
	if it.r >= it.rows {
		return nil, false
	}
	p := it.patchSize
	out := make([]float32, it.padded.Bands*p*p)
	for pr := 0; pr < p; pr++ {
		for pc := 0; pc < p; pc++ {
			px := it.padded.Pixel(it.r+pr, it.c+pc)
			for b, v := range px {
				out[b*p*p+pr*p+pc] = v
			}
		}
	}

	it.c++
	if it.c >= it.cols {
		it.c = 0
		it.r++
	}
	return out, true
}
