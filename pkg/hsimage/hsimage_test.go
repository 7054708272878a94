package hsimage

import (
	"os"
	"path/filepath"
	"testing"

	"gohsl/pkg/window"
)

func buildCube(rows, cols, bands int) *Cube {
	c := NewCube(rows, cols, bands)
	for i := range c.Data {
		c.Data[i] = float32(i)
	}
	return c
}

func TestCubeAccessors(t *testing.T) {
	c := buildCube(3, 4, 2)

	c.Set(1, 2, 1, 99)
	if got := c.At(1, 2, 1); got != 99 {
		t.Errorf("At(1,2,1) = %v, want 99", got)
	}

	px := c.Pixel(1, 2)
	if len(px) != 2 {
		t.Fatalf("Pixel length = %d, want 2", len(px))
	}
	px[0] = 7
	if c.At(1, 2, 0) != 7 {
		t.Error("Pixel should alias the cube's backing array")
	}

	clone := c.Clone()
	clone.Set(0, 0, 0, 42)
	if c.At(0, 0, 0) == 42 {
		t.Error("Clone should not alias the cube")
	}
}

func TestCubeBand(t *testing.T) {
	c := buildCube(2, 2, 3)

	band, err := c.Band(1)
	if err != nil {
		t.Fatalf("Band(1) failed: %v", err)
	}
	for i, v := range band {
		if want := c.At(i/2, i%2, 1); v != want {
			t.Errorf("band[%d] = %v, want %v", i, v, want)
		}
	}

	if _, err := c.Band(5); err == nil {
		t.Error("Expected an error for an out-of-range band")
	}
}

// TestCubeExtract verifies the window.Source implementation used by the
// sliding-window inference path
func TestCubeExtract(t *testing.T) {
	c := buildCube(4, 4, 2)

	sub := c.Extract(window.Window{Row: 1, Col: 2, W: 2, H: 2})
	if len(sub) != 2*2*2 {
		t.Fatalf("Extract returned %d samples, want 8", len(sub))
	}
	if sub[0] != c.At(1, 2, 0) {
		t.Errorf("First sample = %v, want %v", sub[0], c.At(1, 2, 0))
	}
	if sub[len(sub)-1] != c.At(2, 3, 1) {
		t.Errorf("Last sample = %v, want %v", sub[len(sub)-1], c.At(2, 3, 1))
	}
}

func TestCubeSaveLoadNpy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cube.npy")

	c := buildCube(3, 4, 5)
	if err := c.Save(path, ""); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := Load(path, "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.Rows != 3 || got.Cols != 4 || got.Bands != 5 {
		t.Fatalf("Loaded shape %dx%dx%d, want 3x4x5", got.Rows, got.Cols, got.Bands)
	}
	for i := range c.Data {
		if got.Data[i] != c.Data[i] {
			t.Fatalf("Sample %d = %v, want %v", i, got.Data[i], c.Data[i])
		}
	}
}

type sliceFrames struct {
	frames [][]float32
	cols   int
	bands  int
	i      int
}

func (s *sliceFrames) FrameDims() (int, int) { return s.cols, s.bands }

func (s *sliceFrames) Next() ([]float32, bool) {
	if s.i >= len(s.frames) {
		return nil, false
	}
	f := s.frames[s.i]
	s.i++
	return f, true
}

func TestStackBuilder(t *testing.T) {
	src := &sliceFrames{
		frames: [][]float32{
			{1, 2, 3, 4, 5, 6},
			{7, 8, 9, 10, 11, 12},
		},
		cols:  3,
		bands: 2,
	}

	cube, err := (&StackBuilder{}).Build(src)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if cube.Rows != 2 || cube.Cols != 3 || cube.Bands != 2 {
		t.Fatalf("Built shape %dx%dx%d, want 2x3x2", cube.Rows, cube.Cols, cube.Bands)
	}
	if cube.At(1, 0, 0) != 7 {
		t.Errorf("At(1,0,0) = %v, want 7", cube.At(1, 0, 0))
	}
}

func TestStackBuilderEmptySource(t *testing.T) {
	src := &sliceFrames{cols: 3, bands: 2}
	if _, err := (&StackBuilder{}).Build(src); err == nil {
		t.Error("Expected an error for a source with no frames")
	}
}

func TestStackBuilderBadFrameLength(t *testing.T) {
	src := &sliceFrames{
		frames: [][]float32{{1, 2, 3}},
		cols:   3,
		bands:  2,
	}
	if _, err := (&StackBuilder{}).Build(src); err == nil {
		t.Error("Expected an error for a frame shorter than cols*bands")
	}
}

func TestExportBands(t *testing.T) {
	dir := t.TempDir()
	c := buildCube(4, 4, 3)

	if err := c.ExportBands(dir); err != nil {
		t.Fatalf("ExportBands failed: %v", err)
	}
	for _, name := range []string{"band_000.png", "band_001.png", "band_002.png"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("Missing export %s: %v", name, err)
		}
	}
}
