package codec

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestNewIntShapeCheck(t *testing.T) {
	if _, err := NewInt([]int{2, 3}, make([]int64, 5)); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch, got %v", err)
	}
	a, err := NewInt([]int{2, 3}, make([]int64, 6))
	if err != nil {
		t.Fatalf("NewInt failed: %v", err)
	}
	if a.Rank() != 2 || a.Len() != 6 {
		t.Errorf("Rank/Len = %d/%d, want 2/6", a.Rank(), a.Len())
	}
}

// TestLayoutRoundTrip verifies that the column-major conversion is its own
// inverse for 2D and 3D arrays
func TestLayoutRoundTrip(t *testing.T) {
	shapes := [][]int{{3, 4}, {2, 3, 4}, {5}, {1, 6}}
	for _, shape := range shapes {
		data := make([]int64, NumElements(shape))
		for i := range data {
			data[i] = int64(i)
		}
		a, err := NewInt(shape, data)
		if err != nil {
			t.Fatalf("NewInt failed: %v", err)
		}

		back := FortranToC(CToFortran(a))
		for i := range data {
			if back.Ints[i] != data[i] {
				t.Fatalf("Shape %v: element %d = %d after round trip, want %d",
					shape, i, back.Ints[i], data[i])
			}
		}
	}
}

// TestCToFortran2D verifies the transposition on a known 2x3 matrix
func TestCToFortran2D(t *testing.T) {
	// Row-major [[0,1,2],[3,4,5]] is 0,3,1,4,2,5 column-major.
	a, err := NewInt([]int{2, 3}, []int64{0, 1, 2, 3, 4, 5})
	if err != nil {
		t.Fatalf("NewInt failed: %v", err)
	}
	f := CToFortran(a)
	want := []int64{0, 3, 1, 4, 2, 5}
	for i, v := range want {
		if f.Ints[i] != v {
			t.Errorf("Fortran element %d = %d, want %d", i, f.Ints[i], v)
		}
	}
}

func TestLookupUnknownFormat(t *testing.T) {
	if _, err := Lookup("mask.xyz"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Expected ErrUnknownFormat, got %v", err)
	}
	if _, err := Lookup("noextension"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Expected ErrUnknownFormat, got %v", err)
	}
}

func TestLookupKnownFormats(t *testing.T) {
	for _, name := range []string{"a.npy", "b.mat", "c.h5", "d.png", "e.jpg", "f.bmp"} {
		if _, err := Lookup(name); err != nil {
			t.Errorf("Lookup(%q) failed: %v", name, err)
		}
	}
}

func TestNpyRoundTripFloat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.npy")

	data := []float64{1.5, -2, 3.25, 0, 7, 1e6}
	a, err := NewFloat([]int{2, 3}, data)
	if err != nil {
		t.Fatalf("NewFloat failed: %v", err)
	}
	if err := Encode(path, "", a); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	got, err := Decode(path, "")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got.Kind != Float {
		t.Fatalf("Decoded kind = %v, want Float", got.Kind)
	}
	if got.Rank() != 2 || got.Shape[0] != 2 || got.Shape[1] != 3 {
		t.Fatalf("Decoded shape = %v, want [2 3]", got.Shape)
	}
	for i, v := range data {
		if got.Floats[i] != v {
			t.Errorf("Element %d = %v, want %v", i, got.Floats[i], v)
		}
	}
}

func TestNpyRoundTripInt3D(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.npy")

	data := make([]int64, 24)
	for i := range data {
		data[i] = int64(i % 5)
	}
	a, err := NewInt([]int{2, 3, 4}, data)
	if err != nil {
		t.Fatalf("NewInt failed: %v", err)
	}
	if err := Encode(path, "", a); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	got, err := Decode(path, "")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got.Kind != Int {
		t.Fatalf("Decoded kind = %v, want Int", got.Kind)
	}
	for i, v := range data {
		if got.Ints[i] != v {
			t.Errorf("Element %d = %d, want %d", i, got.Ints[i], v)
		}
	}
}

func TestMatRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mask.mat")

	data := []int64{0, 1, 2, 2, 1, 0}
	a, err := NewInt([]int{2, 3}, data)
	if err != nil {
		t.Fatalf("NewInt failed: %v", err)
	}
	if err := Encode(path, "img", a); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	got, err := Decode(path, "img")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got.Shape[0] != 2 || got.Shape[1] != 3 {
		t.Fatalf("Decoded shape = %v, want [2 3]", got.Shape)
	}
	for i, v := range data {
		if got.IntAt(i) != v {
			t.Errorf("Element %d = %d, want %d", i, got.IntAt(i), v)
		}
	}
}

// TestMatDecodeFirstArray verifies that an empty key falls back to the
// first array in the container
func TestMatDecodeFirstArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "single.mat")

	a, err := NewInt([]int{2, 2}, []int64{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("NewInt failed: %v", err)
	}
	if err := Encode(path, "whatever", a); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	got, err := Decode(path, "")
	if err != nil {
		t.Fatalf("Decode with empty key failed: %v", err)
	}
	if got.IntAt(3) != 4 {
		t.Errorf("Element 3 = %d, want 4", got.IntAt(3))
	}
}

func TestH5RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cube.h5")

	data := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	a, err := NewFloat([]int{2, 2, 3}, data)
	if err != nil {
		t.Fatalf("NewFloat failed: %v", err)
	}
	if err := Encode(path, "hsi", a); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	got, err := Decode(path, "hsi")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got.Rank() != 3 || got.Shape[2] != 3 {
		t.Fatalf("Decoded shape = %v, want [2 2 3]", got.Shape)
	}
	for i, v := range data {
		if got.FloatAt(i) != v {
			t.Errorf("Element %d = %v, want %v", i, got.FloatAt(i), v)
		}
	}
}

func TestH5EncodeNeedsKey(t *testing.T) {
	a, err := NewInt([]int{2}, []int64{1, 2})
	if err != nil {
		t.Fatalf("NewInt failed: %v", err)
	}
	if err := Encode(filepath.Join(t.TempDir(), "x.h5"), "", a); err == nil {
		t.Error("Expected an error when no dataset name is given")
	}
}

func TestImageRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mask.png")

	data := []int64{0, 1, 2, 255, 128, 0}
	a, err := NewInt([]int{2, 3}, data)
	if err != nil {
		t.Fatalf("NewInt failed: %v", err)
	}
	if err := Encode(path, "", a); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	got, err := Decode(path, "")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got.Shape[0] != 2 || got.Shape[1] != 3 {
		t.Fatalf("Decoded shape = %v, want [2 3]", got.Shape)
	}
	for i, v := range data {
		if got.Ints[i] != v {
			t.Errorf("Pixel %d = %d, want %d", i, got.Ints[i], v)
		}
	}
}
