// Package hsimage holds the hyperspectral data cube consumed by the dataset
// and model layers: rows x cols pixels, each carrying a full spectral band
// vector.
package hsimage

import (
	"errors"
	"fmt"

	"gohsl/internal/codec"
	"gohsl/pkg/window"
)

// ErrBadCube reports cube data that violates the shape contract.
var ErrBadCube = errors.New("hsimage: invalid cube data")

// Cube is a hyperspectral image: row-major spatial layout with the band
// axis innermost, float32 samples.
type Cube struct {
	Rows, Cols, Bands int
	Data              []float32
}

// NewCube allocates a zeroed cube.
func NewCube(rows, cols, bands int) *Cube {
	return &Cube{Rows: rows, Cols: cols, Bands: bands, Data: make([]float32, rows*cols*bands)}
}

// At returns the sample of band b at (r, c).
func (c *Cube) At(r, col, b int) float32 { return c.Data[(r*c.Cols+col)*c.Bands+b] }

// Set assigns the sample of band b at (r, c).
func (c *Cube) Set(r, col, b int, v float32) { c.Data[(r*c.Cols+col)*c.Bands+b] = v }

// Pixel returns the spectral vector at (r, c) as a live sub-slice.
func (c *Cube) Pixel(r, col int) []float32 {
	base := (r*c.Cols + col) * c.Bands
	return c.Data[base : base+c.Bands]
}

// Band extracts band b as an independent 2D float plane.
func (c *Cube) Band(b int) ([]float32, error) {
	if b < 0 || b >= c.Bands {
		return nil, fmt.Errorf("%w: band %d of %d", ErrBadCube, b, c.Bands)
	}
	out := make([]float32, c.Rows*c.Cols)
	for i := range out {
		out[i] = c.Data[i*c.Bands+b]
	}
	return out, nil
}

// Clone returns an independent deep copy.
func (c *Cube) Clone() *Cube {
	out := NewCube(c.Rows, c.Cols, c.Bands)
	copy(out.Data, c.Data)
	return out
}

// Dims implements window.Source.
func (c *Cube) Dims() (int, int) { return c.Rows, c.Cols }

// Extract implements window.Source: it materializes the w.W x w.H x Bands
// sub-cube under the window, row-major, band-last.
func (c *Cube) Extract(w window.Window) []float32 {
	out := make([]float32, w.W*w.H*c.Bands)
	for dr := 0; dr < w.W; dr++ {
		for dc := 0; dc < w.H; dc++ {
			src := c.Pixel(w.Row+dr, w.Col+dc)
			copy(out[(dr*w.H+dc)*c.Bands:], src)
		}
	}
	return out
}

// Load reads a cube from a .npy, .mat or .h5 file through the codec
// registry. Integer cubes (raw sensor counts) are widened to float32.
func Load(path, key string) (*Cube, error) {
	arr, err := codec.Decode(path, key)
	if err != nil {
		return nil, fmt.Errorf("hsimage: loading %s: %w", path, err)
	}
	if arr.Rank() != 3 {
		return nil, fmt.Errorf("%w: want a 3D array, got rank %d", ErrBadCube, arr.Rank())
	}
	c := NewCube(arr.Shape[0], arr.Shape[1], arr.Shape[2])
	for i := range c.Data {
		c.Data[i] = float32(arr.FloatAt(i))
	}
	return c, nil
}

// Save writes the cube under the given key (when the format is keyed).
func (c *Cube) Save(path, key string) error {
	data := make([]float64, len(c.Data))
	for i, v := range c.Data {
		data[i] = float64(v)
	}
	arr, err := codec.NewFloat([]int{c.Rows, c.Cols, c.Bands}, data)
	if err != nil {
		return err
	}
	if err := codec.Encode(path, key, arr); err != nil {
		return fmt.Errorf("hsimage: saving %s: %w", path, err)
	}
	return nil
}
