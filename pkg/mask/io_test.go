package mask

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gohsl/internal/codec"
)

func testMask(t *testing.T) *Mask {
	t.Helper()
	m := buildLabelMap(t, 4, 3, []int{
		0, 1, 2,
		2, 1, 0,
		0, 0, 1,
		1, 2, 0,
	})
	mk, err := FromLabelMap(m, nil)
	if err != nil {
		t.Fatalf("FromLabelMap failed: %v", err)
	}
	return mk
}

func assertSameProjection(t *testing.T, got, want *Mask) {
	t.Helper()
	if got.Len() != want.Len() {
		t.Fatalf("Loaded %d layers, want %d", got.Len(), want.Len())
	}
	if !got.Get2D().Equal(want.Get2D()) {
		t.Errorf("Loaded projection %v, want %v", got.Get2D().Data, want.Get2D().Data)
	}
}

func TestSaveLoadNpy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mask.npy")
	mk := testMask(t)

	if err := mk.SaveToNpy(path); err != nil {
		t.Fatalf("SaveToNpy failed: %v", err)
	}

	loaded := NewEmpty()
	if err := loaded.Load(path, ""); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	assertSameProjection(t, loaded, mk)
}

func TestSaveLoadMat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mask.mat")
	mk := testMask(t)

	if err := mk.SaveToMat(path, "img"); err != nil {
		t.Fatalf("SaveToMat failed: %v", err)
	}

	loaded := NewEmpty()
	if err := loaded.Load(path, "img"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	assertSameProjection(t, loaded, mk)
}

// TestLoad2DImage verifies that a grayscale image of class indices loads
// through the one-hot conversion
func TestLoad2DImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mask.png")
	mk := testMask(t)

	lm := mk.Get2D()
	data := make([]int64, len(lm.Data))
	for i, v := range lm.Data {
		data[i] = int64(v)
	}
	arr, err := codec.NewInt([]int{lm.Rows, lm.Cols}, data)
	if err != nil {
		t.Fatalf("NewInt failed: %v", err)
	}
	if err := codec.Encode(path, "", arr); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	loaded := NewEmpty()
	if err := loaded.Load(path, ""); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	assertSameProjection(t, loaded, mk)
}

// TestSaveImageWritesSingleLayer verifies the lossy one-layer export
func TestSaveImageWritesSingleLayer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layer.png")
	mk := testMask(t)

	if err := mk.SaveImage(path); err != nil {
		t.Fatalf("SaveImage failed: %v", err)
	}

	arr, err := codec.Decode(path, "")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	layer, err := mk.Layer(0)
	if err != nil {
		t.Fatalf("Layer(0) failed: %v", err)
	}
	for i := range layer.Data {
		if int(arr.Ints[i]) != layer.Data[i] {
			t.Errorf("Pixel %d = %d, want %d", i, arr.Ints[i], layer.Data[i])
		}
	}
}

func TestLoadResetsLabels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mask.npy")
	mk := testMask(t)
	if err := mk.SaveToNpy(path); err != nil {
		t.Fatalf("SaveToNpy failed: %v", err)
	}

	loaded := NewEmpty()
	loaded.SetLabels(map[int]string{})
	if err := loaded.Load(path, ""); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Labels() != nil {
		t.Errorf("Load should reset class descriptions, got %v", loaded.Labels())
	}
}

func TestLoadMissingFile(t *testing.T) {
	mk := NewEmpty()
	if err := mk.Load(filepath.Join(t.TempDir(), "nope.npy"), ""); err == nil {
		t.Error("Expected an error for a missing file")
	}
	if !mk.Empty() {
		t.Error("Failed load should leave the mask empty")
	}
}

func TestLoadUnknownExtension(t *testing.T) {
	mk := NewEmpty()
	if err := mk.Load("mask.xyz", ""); err == nil {
		t.Error("Expected an error for an unknown extension")
	}
}

// TestSaveRejectsMismatchedExtension verifies that a format-specific saver
// refuses a path that would dispatch to a different codec instead of
// silently writing the wrong format
func TestSaveRejectsMismatchedExtension(t *testing.T) {
	dir := t.TempDir()
	mk := testMask(t)

	cases := []struct {
		name string
		save func(path string) error
	}{
		{"mask.h5", func(p string) error { return mk.SaveToMat(p, "img") }},
		{"mask.mat", func(p string) error { return mk.SaveToH5(p, "img") }},
		{"mask.mat", func(p string) error { return mk.SaveToNpy(p) }},
		{"mask.npy", func(p string) error { return mk.SaveImage(p) }},
	}
	for _, tc := range cases {
		path := filepath.Join(dir, tc.name)
		if err := tc.save(path); !errors.Is(err, ErrFormat) {
			t.Errorf("Saving to %s: got %v, want ErrFormat", tc.name, err)
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("Rejected save to %s still created the file", tc.name)
		}
	}
}
