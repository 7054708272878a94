package mask

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"gohsl/internal/codec"
)

// ErrFormat reports on-disk data that cannot be interpreted as a mask.
var ErrFormat = errors.New("mask: unsupported mask format")

// Load reads a mask from path, dispatching on the file extension through the
// codec registry. key names the field (.mat) or dataset (.h5) to extract and
// is ignored by image and .npy files.
//
// A 2D integer array is validated as a label map and converted to its layer
// stack; a 3D array is validated as a stack directly. Anything else fails
// with a format error. On success the class count is refreshed from the new
// stack and any previous class descriptions are discarded.
func (m *Mask) Load(path, key string) error {
	arr, err := codec.Decode(path, key)
	if err != nil {
		return fmt.Errorf("mask: loading %s: %w", path, err)
	}

	stack, err := stackFromArray(arr)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrFormat, path, err)
	}

	m.stack = stack
	m.labels = nil
	return nil
}

// stackFromArray canonicalizes a decoded array into a layer stack.
func stackFromArray(arr *codec.Array) (*LayerStack, error) {
	switch arr.Rank() {
	case 2:
		if arr.Kind != codec.Int {
			return nil, fmt.Errorf("2D masks must carry integer samples, got %s", arr.Kind)
		}
		lm := NewLabelMap(arr.Shape[0], arr.Shape[1])
		for i := range lm.Data {
			lm.Data[i] = int(arr.Ints[i])
		}
		if err := lm.Validate(); err != nil {
			return nil, err
		}
		return lm.Stack(), nil
	case 3:
		s := NewLayerStack(arr.Shape[0], arr.Shape[1], arr.Shape[2])
		for i := range s.Data {
			v := arr.IntAt(i)
			if v != 0 && v != 1 {
				return nil, fmt.Errorf("layer stack holds non-binary value %d", v)
			}
			s.Data[i] = uint8(v)
		}
		if err := s.Validate(); err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("want a 2D or 3D array, got rank %d", arr.Rank())
	}
}

// stackArray exports the raw stack verbatim as a 3D integer array.
func (m *Mask) stackArray() (*codec.Array, error) {
	if m.stack == nil {
		return nil, ErrEmptyMask
	}
	s := m.stack
	data := make([]int64, len(s.Data))
	for i, v := range s.Data {
		data[i] = int64(v)
	}
	return codec.NewInt([]int{s.Rows, s.Cols, s.Layers}, data)
}

// checkExt guards a format-specific saver against a path whose extension
// would dispatch the codec registry to a different format.
func checkExt(path string, want ...string) error {
	ext := strings.ToLower(filepath.Ext(path))
	for _, w := range want {
		if ext == w {
			return nil
		}
	}
	return fmt.Errorf("%w: %s has extension %q, want %s", ErrFormat, path, ext, strings.Join(want, " or "))
}

// SaveToMat serializes the 3D stack under the given field name.
// No canonicalization is performed: the stack is written as-is.
func (m *Mask) SaveToMat(path, key string) error {
	if err := checkExt(path, ".mat"); err != nil {
		return err
	}
	arr, err := m.stackArray()
	if err != nil {
		return err
	}
	return codec.Encode(path, key, arr)
}

// SaveToH5 serializes the 3D stack under the given dataset name.
func (m *Mask) SaveToH5(path, key string) error {
	if err := checkExt(path, ".h5"); err != nil {
		return err
	}
	arr, err := m.stackArray()
	if err != nil {
		return err
	}
	return codec.Encode(path, key, arr)
}

// SaveToNpy serializes the 3D stack as a NumPy array file.
func (m *Mask) SaveToNpy(path string) error {
	if err := checkExt(path, ".npy"); err != nil {
		return err
	}
	arr, err := m.stackArray()
	if err != nil {
		return err
	}
	return codec.Encode(path, "", arr)
}

// SaveImage writes only layer 0 of the stack as a single-channel image.
// This is lossy for a multi-class mask; it exists for quick visual checks
// of a single layer, not for round-tripping.
func (m *Mask) SaveImage(path string) error {
	if err := checkExt(path, ".png", ".jpg", ".jpeg", ".bmp"); err != nil {
		return err
	}
	if m.stack == nil {
		return ErrEmptyMask
	}
	layer := m.stack.Layer(0)
	data := make([]int64, len(layer.Data))
	for i, v := range layer.Data {
		data[i] = int64(v)
	}
	arr, err := codec.NewInt([]int{layer.Rows, layer.Cols}, data)
	if err != nil {
		return err
	}
	return codec.Encode(path, "", arr)
}
