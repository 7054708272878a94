package mask

import (
	"fmt"
	"sort"
)

// LabelMap is a 2D class-index map. Each pixel holds a class index, with 0
// conventionally meaning unlabeled background. Data is row-major.
type LabelMap struct {
	Rows, Cols int
	Data       []int
}

// NewLabelMap allocates a zeroed label map.
func NewLabelMap(rows, cols int) *LabelMap {
	return &LabelMap{Rows: rows, Cols: cols, Data: make([]int, rows*cols)}
}

// At returns the class index at (r, c).
func (m *LabelMap) At(r, c int) int { return m.Data[r*m.Cols+c] }

// Set assigns the class index at (r, c).
func (m *LabelMap) Set(r, c, v int) { m.Data[r*m.Cols+c] = v }

// Clone returns an independent deep copy.
func (m *LabelMap) Clone() *LabelMap {
	out := NewLabelMap(m.Rows, m.Cols)
	copy(out.Data, m.Data)
	return out
}

// Equal reports whether two maps have identical shape and values.
func (m *LabelMap) Equal(o *LabelMap) bool {
	if m.Rows != o.Rows || m.Cols != o.Cols {
		return false
	}
	for i, v := range m.Data {
		if o.Data[i] != v {
			return false
		}
	}
	return true
}

// Classes returns the distinct values present, ascending.
func (m *LabelMap) Classes() []int {
	seen := map[int]struct{}{}
	for _, v := range m.Data {
		seen[v] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

// CountNonzero returns the number of labeled (nonzero) pixels.
func (m *LabelMap) CountNonzero() int {
	n := 0
	for _, v := range m.Data {
		if v != 0 {
			n++
		}
	}
	return n
}

// Validate checks the label-map contract: values must form the contiguous
// range {0, ..., U-1} with no gaps, where U is the distinct-value count.
func (m *LabelMap) Validate() error {
	if len(m.Data) != m.Rows*m.Cols {
		return fmt.Errorf("%w: payload length %d does not match %dx%d",
			ErrInvalidMask, len(m.Data), m.Rows, m.Cols)
	}
	for i, v := range m.Classes() {
		if v != i {
			return fmt.Errorf("%w: class values must form 0..U-1, found %d at rank %d",
				ErrInvalidMask, v, i)
		}
	}
	return nil
}

// Stack converts the map to its one-hot layer representation: one binary
// layer per distinct class value, in ascending class order.
func (m *LabelMap) Stack() *LayerStack {
	classes := m.Classes()
	rank := make(map[int]int, len(classes))
	for i, v := range classes {
		rank[v] = i
	}
	s := NewLayerStack(m.Rows, m.Cols, len(classes))
	for i, v := range m.Data {
		s.Data[i*s.Layers+rank[v]] = 1
	}
	return s
}

// LayerStack is a 3D stack of binary class layers with shape
// rows x cols x layers, row-major with the layer axis innermost.
type LayerStack struct {
	Rows, Cols, Layers int
	Data               []uint8
}

// NewLayerStack allocates a zeroed stack.
func NewLayerStack(rows, cols, layers int) *LayerStack {
	return &LayerStack{Rows: rows, Cols: cols, Layers: layers, Data: make([]uint8, rows*cols*layers)}
}

// At returns the binary value of layer k at (r, c).
func (s *LayerStack) At(r, c, k int) uint8 { return s.Data[(r*s.Cols+c)*s.Layers+k] }

// Set assigns the binary value of layer k at (r, c).
func (s *LayerStack) Set(r, c, k int, v uint8) { s.Data[(r*s.Cols+c)*s.Layers+k] = v }

// Clone returns an independent deep copy.
func (s *LayerStack) Clone() *LayerStack {
	out := NewLayerStack(s.Rows, s.Cols, s.Layers)
	copy(out.Data, s.Data)
	return out
}

// Layer extracts layer k as a binary 2D map.
func (s *LayerStack) Layer(k int) *LabelMap {
	out := NewLabelMap(s.Rows, s.Cols)
	for i := range out.Data {
		out.Data[i] = int(s.Data[i*s.Layers+k])
	}
	return out
}

// LabelMap projects the stack down to a 2D class map. Layers are applied in
// ascending index order, so on a pixel erroneously hot in several layers the
// last layer index wins. For a canonical one-hot stack the projection is the
// exact inverse of LabelMap.Stack.
func (s *LayerStack) LabelMap() *LabelMap {
	out := NewLabelMap(s.Rows, s.Cols)
	for i := 0; i < s.Rows*s.Cols; i++ {
		for k := 0; k < s.Layers; k++ {
			if s.Data[i*s.Layers+k] == 1 {
				out.Data[i] = k
			}
		}
	}
	return out
}

// Validate checks the stack contract: at least two layers, every sample
// strictly binary. Mutual exclusivity across layers is deliberately not
// enforced here; see Mask.Validate.
func (s *LayerStack) Validate() error {
	if len(s.Data) != s.Rows*s.Cols*s.Layers {
		return fmt.Errorf("%w: payload length %d does not match %dx%dx%d",
			ErrInvalidMask, len(s.Data), s.Rows, s.Cols, s.Layers)
	}
	if s.Layers < 2 {
		return fmt.Errorf("%w: a layer stack needs at least 2 layers, got %d",
			ErrInvalidMask, s.Layers)
	}
	for i, v := range s.Data {
		if v > 1 {
			return fmt.Errorf("%w: layer %d holds non-binary value %d",
				ErrInvalidMask, i%s.Layers, v)
		}
	}
	return nil
}

// insertLayer splices a layer at position pos (0 <= pos <= Layers).
func (s *LayerStack) insertLayer(pos int, layer []uint8) {
	newLayers := s.Layers + 1
	data := make([]uint8, s.Rows*s.Cols*newLayers)
	for i := 0; i < s.Rows*s.Cols; i++ {
		src := s.Data[i*s.Layers : (i+1)*s.Layers]
		dst := data[i*newLayers : (i+1)*newLayers]
		copy(dst, src[:pos])
		if layer != nil {
			dst[pos] = layer[i]
		}
		copy(dst[pos+1:], src[pos:])
	}
	s.Layers = newLayers
	s.Data = data
}

// deleteLayer removes the layer at position pos (0 <= pos < Layers).
func (s *LayerStack) deleteLayer(pos int) {
	newLayers := s.Layers - 1
	data := make([]uint8, s.Rows*s.Cols*newLayers)
	for i := 0; i < s.Rows*s.Cols; i++ {
		src := s.Data[i*s.Layers : (i+1)*s.Layers]
		dst := data[i*newLayers : (i+1)*newLayers]
		copy(dst, src[:pos])
		copy(dst[pos:], src[pos+1:])
	}
	s.Layers = newLayers
	s.Data = data
}
