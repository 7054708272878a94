// Package codec provides the on-disk array container used by mask and
// hyperspectral cube persistence. File formats are registered per extension
// so new encodings can be added without touching a central dispatch.
package codec

import (
	"errors"
	"fmt"
)

// Kind discriminates the payload carried by an Array.
type Kind int

const (
	// Int arrays carry integer samples (label maps, binary layers).
	Int Kind = iota
	// Float arrays carry floating-point samples (hyperspectral cubes).
	Float
)

func (k Kind) String() string {
	switch k {
	case Int:
		return "int"
	case Float:
		return "float"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Array is an N-dimensional numeric container in C (row-major) order.
// Exactly one of Ints or Floats is populated, selected by Kind.
type Array struct {
	Shape  []int
	Kind   Kind
	Ints   []int64
	Floats []float64
}

// ErrShapeMismatch reports a payload whose length disagrees with its shape.
var ErrShapeMismatch = errors.New("codec: payload length does not match shape")

// NewInt builds an integer array and checks the payload length.
func NewInt(shape []int, data []int64) (*Array, error) {
	if len(data) != NumElements(shape) {
		return nil, fmt.Errorf("%w: shape %v holds %d elements, payload has %d",
			ErrShapeMismatch, shape, NumElements(shape), len(data))
	}
	return &Array{Shape: shape, Kind: Int, Ints: data}, nil
}

// NewFloat builds a float array and checks the payload length.
func NewFloat(shape []int, data []float64) (*Array, error) {
	if len(data) != NumElements(shape) {
		return nil, fmt.Errorf("%w: shape %v holds %d elements, payload has %d",
			ErrShapeMismatch, shape, NumElements(shape), len(data))
	}
	return &Array{Shape: shape, Kind: Float, Floats: data}, nil
}

// NumElements returns the element count implied by shape.
// An empty shape describes a scalar, which counts as one element.
func NumElements(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// Rank returns the number of dimensions.
func (a *Array) Rank() int { return len(a.Shape) }

// Len returns the total element count.
func (a *Array) Len() int { return NumElements(a.Shape) }

// IntAt returns element i as an integer, truncating float payloads.
func (a *Array) IntAt(i int) int64 {
	if a.Kind == Int {
		return a.Ints[i]
	}
	return int64(a.Floats[i])
}

// FloatAt returns element i as a float.
func (a *Array) FloatAt(i int) float64 {
	if a.Kind == Float {
		return a.Floats[i]
	}
	return float64(a.Ints[i])
}

// CToFortran reorders a C-order payload into Fortran (column-major) order.
// MAT-files store arrays column-major; everything else in this module is
// row-major.
func CToFortran(a *Array) *Array {
	out := &Array{Shape: append([]int(nil), a.Shape...), Kind: a.Kind}
	n := a.Len()
	if a.Kind == Int {
		out.Ints = make([]int64, n)
	} else {
		out.Floats = make([]float64, n)
	}
	permute(a, out, true)
	return out
}

// FortranToC reorders a Fortran-order payload into C order.
func FortranToC(a *Array) *Array {
	out := &Array{Shape: append([]int(nil), a.Shape...), Kind: a.Kind}
	n := a.Len()
	if a.Kind == Int {
		out.Ints = make([]int64, n)
	} else {
		out.Floats = make([]float64, n)
	}
	permute(a, out, false)
	return out
}

// permute walks every multi-index once and copies between the two layouts.
// toFortran selects the direction: src C-order dst Fortran, or the reverse.
func permute(src, dst *Array, toFortran bool) {
	shape := src.Shape
	rank := len(shape)
	if rank == 0 || src.Len() == 0 {
		copyAll(src, dst)
		return
	}

	// Strides for both layouts.
	cStride := make([]int, rank)
	fStride := make([]int, rank)
	cStride[rank-1] = 1
	for i := rank - 2; i >= 0; i-- {
		cStride[i] = cStride[i+1] * shape[i+1]
	}
	fStride[0] = 1
	for i := 1; i < rank; i++ {
		fStride[i] = fStride[i-1] * shape[i-1]
	}

	idx := make([]int, rank)
	for {
		ci, fi := 0, 0
		for d := 0; d < rank; d++ {
			ci += idx[d] * cStride[d]
			fi += idx[d] * fStride[d]
		}
		si, di := ci, fi
		if !toFortran {
			si, di = fi, ci
		}
		if src.Kind == Int {
			dst.Ints[di] = src.Ints[si]
		} else {
			dst.Floats[di] = src.Floats[si]
		}

		// Advance the multi-index, last axis fastest.
		d := rank - 1
		for ; d >= 0; d-- {
			idx[d]++
			if idx[d] < shape[d] {
				break
			}
			idx[d] = 0
		}
		if d < 0 {
			return
		}
	}
}

func copyAll(src, dst *Array) {
	if src.Kind == Int {
		copy(dst.Ints, src.Ints)
	} else {
		copy(dst.Floats, src.Floats)
	}
}
