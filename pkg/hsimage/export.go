package hsimage

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
)

// BandImage renders one spectral band as a grayscale image, scaling the
// band's value range to the full 8-bit range.
func (c *Cube) BandImage(b int) (image.Image, error) {
	plane, err := c.Band(b)
	if err != nil {
		return nil, err
	}

	lo, hi := plane[0], plane[0]
	for _, v := range plane {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	scale := float32(0)
	if hi > lo {
		scale = 255 / (hi - lo)
	}

	img := image.NewGray(image.Rect(0, 0, c.Cols, c.Rows))
	for r := 0; r < c.Rows; r++ {
		for col := 0; col < c.Cols; col++ {
			v := (plane[r*c.Cols+col] - lo) * scale
			img.SetGray(col, r, color.Gray{Y: uint8(v)})
		}
	}
	return img, nil
}

// ExportBands writes every band as a grayscale png into outputDir, named
// band_000.png onward. Useful for a quick visual pass over a capture.
func (c *Cube) ExportBands(outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}
	for b := 0; b < c.Bands; b++ {
		img, err := c.BandImage(b)
		if err != nil {
			return err
		}
		name := filepath.Join(outputDir, fmt.Sprintf("band_%03d.png", b))
		f, err := os.Create(name)
		if err != nil {
			return err
		}
		if err := png.Encode(f, img); err != nil {
			f.Close()
			return fmt.Errorf("hsimage: encoding %s: %w", name, err)
		}
		f.Close()
	}
	return nil
}
