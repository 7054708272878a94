package model

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gohsl/pkg/mask"
)

var (
	camelBoundary = regexp.MustCompile(`(.)([A-Z][a-z]+)`)
	lowerToUpper  = regexp.MustCompile(`([a-z0-9])([A-Z])`)
)

// SnakeCase converts a CamelCase identifier to snake_case, matching the
// directory naming used for saved artifacts.
func SnakeCase(name string) string {
	s := camelBoundary.ReplaceAllString(name, "${1}_${2}")
	return strings.ToLower(lowerToUpper.ReplaceAllString(s, "${1}_${2}"))
}

// Palette maps class values to display colors. Class 0 is always black.
func Palette(numClasses int) []color.RGBA {
	p := make([]color.RGBA, numClasses)
	for k := 1; k < numClasses; k++ {
		// Evenly spaced hues at full saturation.
		h := float64(k-1) / float64(numClasses-1) * 360
		p[k] = hueToRGB(h)
	}
	return p
}

func hueToRGB(h float64) color.RGBA {
	hh := h / 60
	x := uint8(255 * (1 - math.Abs(math.Mod(hh, 2)-1)))
	switch int(hh) % 6 {
	case 0:
		return color.RGBA{255, x, 0, 255}
	case 1:
		return color.RGBA{x, 255, 0, 255}
	case 2:
		return color.RGBA{0, 255, x, 255}
	case 3:
		return color.RGBA{0, x, 255, 255}
	case 4:
		return color.RGBA{x, 0, 255, 255}
	default:
		return color.RGBA{255, 0, x, 255}
	}
}

// SaveTrainMask writes the train split used for a run as a pair of pngs
// (raw labels and a colorized view) under masks/<model>/<dataset>/,
// timestamped so successive runs never clobber each other.
func SaveTrainMask(modelName, datasetName string, m *mask.LabelMap) error {
	dir := filepath.Join("masks", SnakeCase(modelName), datasetName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	stamp := time.Now().Format("2006_01_02_15_04_05")

	gray := image.NewGray(image.Rect(0, 0, m.Cols, m.Rows))
	colored := image.NewRGBA(image.Rect(0, 0, m.Cols, m.Rows))
	pal := Palette(len(m.Classes()) + 1)
	for r := 0; r < m.Rows; r++ {
		for c := 0; c < m.Cols; c++ {
			v := m.At(r, c)
			gray.SetGray(c, r, color.Gray{Y: uint8(v)})
			if v >= 0 && v < len(pal) {
				colored.Set(c, r, pal[v])
			}
		}
	}

	if err := writePNG(filepath.Join(dir, stamp+"_gray_mask.png"), gray); err != nil {
		return err
	}
	return writePNG(filepath.Join(dir, stamp+"_color_mask.png"), colored)
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("model: encoding %s: %w", path, err)
	}
	return nil
}
