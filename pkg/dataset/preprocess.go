package dataset

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"gohsl/pkg/hsimage"
)

// Normalize scales the whole cube to [0, 1] in place and returns it.
// A constant cube maps to all zeros.
func Normalize(c *hsimage.Cube) *hsimage.Cube {
	if len(c.Data) == 0 {
		return c
	}
	lo, hi := c.Data[0], c.Data[0]
	for _, v := range c.Data {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi == lo {
		for i := range c.Data {
			c.Data[i] = 0
		}
		return c
	}
	scale := 1 / (hi - lo)
	for i := range c.Data {
		c.Data[i] = (c.Data[i] - lo) * scale
	}
	return c
}

// Scaler holds per-band statistics fitted by Standardize, so the same
// transform can be replayed on another cube at inference time.
type Scaler struct {
	Mean []float64
	Std  []float64
}

// Transform applies the fitted statistics to the cube in place.
func (s *Scaler) Transform(c *hsimage.Cube) error {
	if c.Bands != len(s.Mean) {
		return fmt.Errorf("dataset: scaler fitted on %d bands, cube has %d", len(s.Mean), c.Bands)
	}
	for i, v := range c.Data {
		b := i % c.Bands
		c.Data[i] = float32((float64(v) - s.Mean[b]) / s.Std[b])
	}
	return nil
}

// Standardize shifts every band to zero mean and unit deviation in place
// and returns the fitted Scaler. Bands with zero deviation pass through
// with std pinned to 1.
func Standardize(c *hsimage.Cube) (*Scaler, error) {
	if c.Rows*c.Cols < 2 {
		return nil, errors.New("dataset: too few pixels to standardize")
	}

	s := &Scaler{Mean: make([]float64, c.Bands), Std: make([]float64, c.Bands)}
	band := make([]float64, c.Rows*c.Cols)
	for b := 0; b < c.Bands; b++ {
		for i := range band {
			band[i] = float64(c.Data[i*c.Bands+b])
		}
		mean, std := stat.MeanStdDev(band, nil)
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		s.Mean[b], s.Std[b] = mean, std
	}
	if err := s.Transform(c); err != nil {
		return nil, err
	}
	return s, nil
}

// PCA is a fitted spectral projection: pixels are centered and projected
// onto the top principal components, with whitening so every kept
// component has unit variance.
type PCA struct {
	Mean       []float64
	Components *mat.Dense // bands x n, columns are principal axes
	Scale      []float64  // per-component whitening divisor
}

// NComponents returns the dimensionality of the projected spectra.
func (p *PCA) NComponents() int { return len(p.Scale) }

// ApplyPCA fits a PCA on the cube's spectra and returns a new cube with n
// bands alongside the fitted projection. Use PCA.Project to apply the same
// projection to further cubes.
func ApplyPCA(c *hsimage.Cube, n int) (*hsimage.Cube, *PCA, error) {
	if n < 1 || n > c.Bands {
		return nil, nil, fmt.Errorf("dataset: cannot reduce %d bands to %d components", c.Bands, n)
	}
	npix := c.Rows * c.Cols
	if npix < 2 {
		return nil, nil, errors.New("dataset: too few pixels for PCA")
	}

	p := &PCA{Mean: make([]float64, c.Bands), Scale: make([]float64, n)}

	// Center the pixel matrix (npix x bands).
	x := mat.NewDense(npix, c.Bands, nil)
	for i := 0; i < npix; i++ {
		for b := 0; b < c.Bands; b++ {
			v := float64(c.Data[i*c.Bands+b])
			x.Set(i, b, v)
			p.Mean[b] += v
		}
	}
	for b := range p.Mean {
		p.Mean[b] /= float64(npix)
	}
	for i := 0; i < npix; i++ {
		for b := 0; b < c.Bands; b++ {
			x.Set(i, b, x.At(i, b)-p.Mean[b])
		}
	}

	var svd mat.SVD
	if !svd.Factorize(x, mat.SVDThin) {
		return nil, nil, errors.New("dataset: SVD failed to converge")
	}
	var v mat.Dense
	svd.VTo(&v)
	sigma := svd.Values(nil)

	p.Components = mat.NewDense(c.Bands, n, nil)
	for b := 0; b < c.Bands; b++ {
		for k := 0; k < n; k++ {
			p.Components.Set(b, k, v.At(b, k))
		}
	}
	for k := 0; k < n; k++ {
		// Component std over the samples; whitening divides it out.
		p.Scale[k] = sigma[k] / math.Sqrt(float64(npix-1))
		if p.Scale[k] == 0 {
			p.Scale[k] = 1
		}
	}

	out, err := p.Project(c)
	if err != nil {
		return nil, nil, err
	}
	return out, p, nil
}

// Project applies the fitted projection to a cube with the same band
// count, returning a new cube with NComponents bands.
func (p *PCA) Project(c *hsimage.Cube) (*hsimage.Cube, error) {
	if c.Bands != len(p.Mean) {
		return nil, fmt.Errorf("dataset: projection fitted on %d bands, cube has %d", len(p.Mean), c.Bands)
	}
	n := p.NComponents()
	out := hsimage.NewCube(c.Rows, c.Cols, n)
	centered := make([]float64, c.Bands)
	for i := 0; i < c.Rows*c.Cols; i++ {
		for b := 0; b < c.Bands; b++ {
			centered[b] = float64(c.Data[i*c.Bands+b]) - p.Mean[b]
		}
		for k := 0; k < n; k++ {
			dot := 0.0
			for b := 0; b < c.Bands; b++ {
				dot += centered[b] * p.Components.At(b, k)
			}
			out.Data[i*n+k] = float32(dot / p.Scale[k])
		}
	}
	return out, nil
}
