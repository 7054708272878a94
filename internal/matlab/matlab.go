// Package matlab implements a subset of the MAT-File Level 5 format:
// uncompressed and zlib-compressed real numeric arrays. It is enough to
// round-trip label masks and hyperspectral cubes with MATLAB and scipy.io.
//
// Arrays are exchanged in the on-disk column-major (Fortran) order; callers
// are responsible for reordering into row-major layouts.
package matlab

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"
)

// MAT5 data element types.
const (
	miINT8       = 1
	miUINT8      = 2
	miINT16      = 3
	miUINT16     = 4
	miINT32      = 5
	miUINT32     = 6
	miSINGLE     = 7
	miDOUBLE     = 9
	miINT64      = 12
	miUINT64     = 13
	miMATRIX     = 14
	miCOMPRESSED = 15
)

// MAT5 array classes.
const (
	mxDOUBLE = 6
	mxSINGLE = 7
	mxINT8   = 8
	mxUINT8  = 9
	mxINT16  = 10
	mxUINT16 = 11
	mxINT32  = 12
	mxUINT32 = 13
	mxINT64  = 14
	mxUINT64 = 15
)

var (
	// ErrNotMAT5 reports a file without a valid Level 5 header.
	ErrNotMAT5 = errors.New("matlab: not a MAT-file level 5 stream")
	// ErrNoSuchVariable reports a missing variable name.
	ErrNoSuchVariable = errors.New("matlab: variable not found")
)

// Matrix is a real numeric MATLAB array. The payload is column-major, with
// exactly one of Ints or Floats populated.
type Matrix struct {
	Name    string
	Dims    []int
	IsFloat bool
	Ints    []int64
	Floats  []float64
}

// NumElements returns the element count implied by Dims.
func (m *Matrix) NumElements() int {
	n := 1
	for _, d := range m.Dims {
		n *= d
	}
	return n
}

// ReadFile extracts the named variable from a MAT5 file. An empty name
// matches the first numeric array in the file.
func ReadFile(path, name string) (*Matrix, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading mat file: %w", err)
	}
	return Read(raw, name)
}

// Read extracts the named variable from an in-memory MAT5 stream.
func Read(raw []byte, name string) (*Matrix, error) {
	if len(raw) < 128 {
		return nil, ErrNotMAT5
	}
	order, err := headerByteOrder(raw[124:128])
	if err != nil {
		return nil, err
	}

	body := raw[128:]
	for len(body) >= 8 {
		elemType, payload, rest, err := nextElement(body, order)
		if err != nil {
			return nil, err
		}
		body = rest

		switch elemType {
		case miCOMPRESSED:
			zr, err := zlib.NewReader(bytes.NewReader(payload))
			if err != nil {
				return nil, fmt.Errorf("matlab: opening compressed element: %w", err)
			}
			inflated, err := io.ReadAll(zr)
			zr.Close()
			if err != nil {
				return nil, fmt.Errorf("matlab: inflating element: %w", err)
			}
			innerType, innerPayload, _, err := nextElement(inflated, order)
			if err != nil {
				return nil, err
			}
			if innerType != miMATRIX {
				continue
			}
			m, err := parseMatrix(innerPayload, order)
			if err != nil {
				return nil, err
			}
			if name == "" || m.Name == name {
				return m, nil
			}
		case miMATRIX:
			m, err := parseMatrix(payload, order)
			if err != nil {
				return nil, err
			}
			if name == "" || m.Name == name {
				return m, nil
			}
		default:
			// Skip elements this subset does not model.
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNoSuchVariable, name)
}

// headerByteOrder validates the version/endian trailer of the 128-byte header.
func headerByteOrder(trailer []byte) (binary.ByteOrder, error) {
	switch {
	case trailer[2] == 'I' && trailer[3] == 'M':
		return binary.LittleEndian, nil
	case trailer[2] == 'M' && trailer[3] == 'I':
		return binary.BigEndian, nil
	default:
		return nil, ErrNotMAT5
	}
}

// nextElement decodes one data element tag, handling the packed small-data
// form, and returns the element type, its payload and the remaining stream.
func nextElement(b []byte, order binary.ByteOrder) (elemType int, payload, rest []byte, err error) {
	if len(b) < 8 {
		return 0, nil, nil, fmt.Errorf("matlab: truncated element tag")
	}
	first := order.Uint32(b[:4])
	if first>>16 != 0 {
		// Small data element: type and size packed into the first word,
		// up to four payload bytes in the second.
		size := int(first >> 16)
		return int(first & 0xffff), b[4 : 4+size], b[8:], nil
	}
	size := int(order.Uint32(b[4:8]))
	if len(b) < 8+size {
		return 0, nil, nil, fmt.Errorf("matlab: element payload truncated (%d of %d bytes)", len(b)-8, size)
	}
	// Payloads are padded to the next 8-byte boundary, except at EOF.
	end := 8 + size + pad8(size)
	if end > len(b) {
		end = len(b)
	}
	return int(first), b[8 : 8+size], b[end:], nil
}

func pad8(n int) int { return (8 - n%8) % 8 }

// parseMatrix decodes the subelements of a miMATRIX payload.
func parseMatrix(b []byte, order binary.ByteOrder) (*Matrix, error) {
	// Array flags.
	t, flags, rest, err := nextElement(b, order)
	if err != nil {
		return nil, err
	}
	if t != miUINT32 || len(flags) < 8 {
		return nil, fmt.Errorf("matlab: malformed array flags element")
	}
	class := int(order.Uint32(flags[:4]) & 0xff)

	// Dimensions.
	t, dimsRaw, rest, err := nextElement(rest, order)
	if err != nil {
		return nil, err
	}
	if t != miINT32 {
		return nil, fmt.Errorf("matlab: malformed dimensions element")
	}
	dims := make([]int, len(dimsRaw)/4)
	for i := range dims {
		dims[i] = int(int32(order.Uint32(dimsRaw[i*4 : i*4+4])))
	}

	// Array name.
	t, nameRaw, rest, err := nextElement(rest, order)
	if err != nil {
		return nil, err
	}
	if t != miINT8 {
		return nil, fmt.Errorf("matlab: malformed array name element")
	}

	// Real part. MATLAB may store with a narrower data type than the class.
	dataType, data, _, err := nextElement(rest, order)
	if err != nil {
		return nil, err
	}

	m := &Matrix{Name: string(nameRaw), Dims: dims}
	switch class {
	case mxDOUBLE, mxSINGLE:
		m.IsFloat = true
		m.Floats, err = decodeFloats(dataType, data, order)
	case mxINT8, mxUINT8, mxINT16, mxUINT16, mxINT32, mxUINT32, mxINT64, mxUINT64:
		m.Ints, err = decodeInts(dataType, data, order)
	default:
		return nil, fmt.Errorf("matlab: unsupported array class %d", class)
	}
	if err != nil {
		return nil, err
	}
	if got := m.NumElements(); (m.IsFloat && len(m.Floats) != got) || (!m.IsFloat && len(m.Ints) != got) {
		return nil, fmt.Errorf("matlab: payload of %q does not match dims %v", m.Name, dims)
	}
	return m, nil
}

func decodeInts(dataType int, b []byte, order binary.ByteOrder) ([]int64, error) {
	switch dataType {
	case miINT8:
		out := make([]int64, len(b))
		for i, v := range b {
			out[i] = int64(int8(v))
		}
		return out, nil
	case miUINT8:
		out := make([]int64, len(b))
		for i, v := range b {
			out[i] = int64(v)
		}
		return out, nil
	case miINT16:
		out := make([]int64, len(b)/2)
		for i := range out {
			out[i] = int64(int16(order.Uint16(b[i*2:])))
		}
		return out, nil
	case miUINT16:
		out := make([]int64, len(b)/2)
		for i := range out {
			out[i] = int64(order.Uint16(b[i*2:]))
		}
		return out, nil
	case miINT32:
		out := make([]int64, len(b)/4)
		for i := range out {
			out[i] = int64(int32(order.Uint32(b[i*4:])))
		}
		return out, nil
	case miUINT32:
		out := make([]int64, len(b)/4)
		for i := range out {
			out[i] = int64(order.Uint32(b[i*4:]))
		}
		return out, nil
	case miINT64, miUINT64:
		out := make([]int64, len(b)/8)
		for i := range out {
			out[i] = int64(order.Uint64(b[i*8:]))
		}
		return out, nil
	default:
		// Integer classes stored with float payloads are converted.
		f, err := decodeFloats(dataType, b, order)
		if err != nil {
			return nil, err
		}
		out := make([]int64, len(f))
		for i, v := range f {
			out[i] = int64(v)
		}
		return out, nil
	}
}

func decodeFloats(dataType int, b []byte, order binary.ByteOrder) ([]float64, error) {
	switch dataType {
	case miSINGLE:
		out := make([]float64, len(b)/4)
		for i := range out {
			out[i] = float64(math.Float32frombits(order.Uint32(b[i*4:])))
		}
		return out, nil
	case miDOUBLE:
		out := make([]float64, len(b)/8)
		for i := range out {
			out[i] = math.Float64frombits(order.Uint64(b[i*8:]))
		}
		return out, nil
	default:
		// MATLAB stores float arrays with a narrower integer payload when
		// every value fits; widen back to float64.
		ints, err := decodeInts(dataType, b, order)
		if err != nil {
			return nil, err
		}
		out := make([]float64, len(ints))
		for i, v := range ints {
			out[i] = float64(v)
		}
		return out, nil
	}
}

// WriteFile persists a single numeric array as an uncompressed MAT5 file.
func WriteFile(path string, m *Matrix) error {
	buf, err := Marshal(m)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, buf, 0644); err != nil {
		return fmt.Errorf("writing mat file: %w", err)
	}
	return nil
}

// Marshal encodes a single numeric array as a MAT5 stream.
func Marshal(m *Matrix) ([]byte, error) {
	if m.Name == "" {
		return nil, fmt.Errorf("matlab: array name must not be empty")
	}
	if got, want := len(m.Floats)+len(m.Ints), m.NumElements(); got != want {
		return nil, fmt.Errorf("matlab: dims %v expect %d elements, payload has %d", m.Dims, want, got)
	}

	var out bytes.Buffer
	writeHeader(&out)

	// miMATRIX body is assembled first so the outer tag knows its size.
	var body bytes.Buffer

	// Array flags: class byte plus a reserved word.
	class := uint32(mxINT64)
	if m.IsFloat {
		class = mxDOUBLE
	}
	writeTag(&body, miUINT32, 8)
	le(&body, class)
	le(&body, uint32(0))

	// Dimensions.
	writeTag(&body, miINT32, 4*len(m.Dims))
	for _, d := range m.Dims {
		le(&body, int32(d))
	}
	padTo8(&body, 4*len(m.Dims))

	// Array name.
	writeTag(&body, miINT8, len(m.Name))
	body.WriteString(m.Name)
	padTo8(&body, len(m.Name))

	// Real part.
	if m.IsFloat {
		writeTag(&body, miDOUBLE, 8*len(m.Floats))
		for _, v := range m.Floats {
			le(&body, math.Float64bits(v))
		}
	} else {
		writeTag(&body, miINT64, 8*len(m.Ints))
		for _, v := range m.Ints {
			le(&body, uint64(v))
		}
	}

	writeTag(&out, miMATRIX, body.Len())
	out.Write(body.Bytes())
	return out.Bytes(), nil
}

func writeHeader(w *bytes.Buffer) {
	text := fmt.Sprintf("MATLAB 5.0 MAT-file, Platform: gohsl, Created on: %s",
		time.Now().Format(time.ANSIC))
	head := make([]byte, 128)
	for i := range head[:116] {
		head[i] = ' '
	}
	copy(head[:116], text)
	binary.LittleEndian.PutUint16(head[124:126], 0x0100)
	head[126] = 'I'
	head[127] = 'M'
	w.Write(head)
}

func writeTag(w *bytes.Buffer, elemType, size int) {
	le(w, uint32(elemType))
	le(w, uint32(size))
}

func padTo8(w *bytes.Buffer, size int) {
	for i := 0; i < pad8(size); i++ {
		w.WriteByte(0)
	}
}

func le(w *bytes.Buffer, v any) {
	// bytes.Buffer writes cannot fail.
	_ = binary.Write(w, binary.LittleEndian, v)
}
