// Package mask implements the canonical ground-truth label representation
// for hyperspectral classification: a 2D class-index map and its equivalent
// 3D stack of binary class layers, with conversions, structural layer edits
// and multi-format persistence.
package mask

import (
	"errors"
	"fmt"
	"log"
)

var (
	// ErrInvalidMask reports an array that violates the mask contract.
	ErrInvalidMask = errors.New("mask: invalid mask data")
	// ErrEmptyMask reports an operation on a mask with no data.
	ErrEmptyMask = errors.New("mask: empty mask")
	// ErrIndexOutOfRange reports a layer index outside the stack.
	ErrIndexOutOfRange = errors.New("mask: layer index out of range")
	// ErrInvalidLayer reports a caller-supplied layer that is not a binary
	// image of the stack's spatial shape.
	ErrInvalidLayer = errors.New("mask: invalid layer")
)

// Mask owns a layer-stack of binary class layers and optional per-class
// descriptions. The store is the sole mutable owner of its backing array;
// callers choose between the aliasing Borrow accessor and the isolating
// Clone accessor.
type Mask struct {
	stack  *LayerStack
	labels map[int]string
}

// NewEmpty returns a mask with no data, ready to be populated by Load.
func NewEmpty() *Mask { return &Mask{} }

// New validates a layer stack and wraps it in a store. The class-description
// map is kept only when it carries exactly one entry per layer; otherwise it
// is discarded with a warning while the array data is kept.
func New(stack *LayerStack, labels map[int]string) (*Mask, error) {
	if stack == nil {
		return nil, fmt.Errorf("%w: nil stack", ErrInvalidMask)
	}
	if err := stack.Validate(); err != nil {
		return nil, err
	}
	return &Mask{stack: stack, labels: checkLabels(labels, stack.Layers)}, nil
}

// FromLabelMap validates a 2D class map and stores its one-hot conversion.
func FromLabelMap(m *LabelMap, labels map[int]string) (*Mask, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil label map", ErrInvalidMask)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	stack := m.Stack()
	return &Mask{stack: stack, labels: checkLabels(labels, stack.Layers)}, nil
}

// checkLabels enforces the one-entry-per-layer rule, dropping the map
// (not the mask) when it does not hold.
func checkLabels(labels map[int]string, layers int) map[int]string {
	if labels == nil {
		return nil
	}
	if len(labels) != layers {
		log.Printf("mask: discarding class descriptions: %d entries for %d layers", len(labels), layers)
		return nil
	}
	for k := 0; k < layers; k++ {
		if _, ok := labels[k]; !ok {
			log.Printf("mask: discarding class descriptions: no entry for layer %d", k)
			return nil
		}
	}
	out := make(map[int]string, len(labels))
	for k, v := range labels {
		out[k] = v
	}
	return out
}

// Empty reports whether the store holds no data.
func (m *Mask) Empty() bool { return m.stack == nil }

// Len returns the layer count, zero for an empty store.
func (m *Mask) Len() int {
	if m.stack == nil {
		return 0
	}
	return m.stack.Layers
}

// NClasses equals the current layer count. It is derived from the live
// stack, so it tracks every load and structural edit.
func (m *Mask) NClasses() int { return m.Len() }

// Labels returns the class-description map, nil when absent or stale.
func (m *Mask) Labels() map[int]string { return m.labels }

// SetLabels replaces the class descriptions, subject to the
// one-entry-per-layer rule.
func (m *Mask) SetLabels(labels map[int]string) {
	m.labels = checkLabels(labels, m.Len())
}

// Layer returns binary layer k as a 2D map.
func (m *Mask) Layer(k int) (*LabelMap, error) {
	if k < 0 || k >= m.Len() {
		return nil, fmt.Errorf("%w: %d is too much for %d layers", ErrIndexOutOfRange, k, m.Len())
	}
	return m.stack.Layer(k), nil
}

// Get2D projects the stack to a freshly allocated 2D class map.
// Returns nil for an empty store.
func (m *Mask) Get2D() *LabelMap {
	if m.stack == nil {
		return nil
	}
	return m.stack.LabelMap()
}

// Borrow returns the live backing stack. The store keeps ownership: the
// caller must not mutate it while the store is in use elsewhere, and must
// copy via Clone when isolation is needed.
func (m *Mask) Borrow() *LayerStack { return m.stack }

// Clone returns an independent deep copy of the backing stack, nil for an
// empty store.
func (m *Mask) Clone() *LayerStack {
	if m.stack == nil {
		return nil
	}
	return m.stack.Clone()
}

// DeleteLayer removes the layer at pos. The class-description map becomes
// stale and is dropped; no further validation is performed.
func (m *Mask) DeleteLayer(pos int) error {
	if m.stack == nil {
		return ErrEmptyMask
	}
	if pos < 0 || pos >= m.stack.Layers {
		return fmt.Errorf("%w: %d is too much for %d layers", ErrIndexOutOfRange, pos, m.stack.Layers)
	}
	m.stack.deleteLayer(pos)
	m.labels = nil
	return nil
}

// AddVoidLayer inserts an all-zero layer at pos.
func (m *Mask) AddVoidLayer(pos int) error {
	if m.stack == nil {
		return ErrEmptyMask
	}
	if pos < 0 || pos > m.stack.Layers {
		return fmt.Errorf("%w: %d is too much for %d layers", ErrIndexOutOfRange, pos, m.stack.Layers)
	}
	m.stack.insertLayer(pos, nil)
	m.labels = nil
	return nil
}

// AddCompletedLayer inserts a caller-supplied binary layer at pos. The layer
// must match the stack's spatial shape and hold exactly the value set {0,1}.
func (m *Mask) AddCompletedLayer(pos int, layer *LabelMap) error {
	if m.stack == nil {
		return ErrEmptyMask
	}
	if pos < 0 || pos > m.stack.Layers {
		return fmt.Errorf("%w: %d is too much for %d layers", ErrIndexOutOfRange, pos, m.stack.Layers)
	}
	if layer == nil || layer.Rows != m.stack.Rows || layer.Cols != m.stack.Cols {
		return fmt.Errorf("%w: layer shape does not match %dx%d", ErrInvalidLayer, m.stack.Rows, m.stack.Cols)
	}
	hasZero, hasOne := false, false
	packed := make([]uint8, len(layer.Data))
	for i, v := range layer.Data {
		switch v {
		case 0:
			hasZero = true
		case 1:
			hasOne = true
			packed[i] = 1
		default:
			return fmt.Errorf("%w: value %d is not binary", ErrInvalidLayer, v)
		}
	}
	if !hasZero || !hasOne {
		return fmt.Errorf("%w: layer must contain both 0 and 1", ErrInvalidLayer)
	}
	m.stack.insertLayer(pos, packed)
	m.labels = nil
	return nil
}

// Validate re-runs the full structural check on the current stack, including
// the one-hot mutual exclusivity that layer edits are allowed to break
// transiently. Structural edit operations never call this implicitly.
func (m *Mask) Validate() error {
	if m.stack == nil {
		return ErrEmptyMask
	}
	if err := m.stack.Validate(); err != nil {
		return err
	}
	s := m.stack
	for i := 0; i < s.Rows*s.Cols; i++ {
		hot := 0
		for k := 0; k < s.Layers; k++ {
			if s.Data[i*s.Layers+k] == 1 {
				hot++
			}
		}
		if hot != 1 {
			return fmt.Errorf("%w: pixel (%d,%d) is hot in %d layers",
				ErrInvalidMask, i/s.Cols, i%s.Cols, hot)
		}
	}
	return nil
}
