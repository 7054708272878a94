package codec

import (
	"encoding/binary"
	"fmt"
	"os"
	"strings"

	"github.com/sbinet/npyio"
)

// npyCodec handles NumPy .npy array files. Reading goes through npyio with
// the element type dispatched from the header descr; writing emits a native
// NPY v1.0 stream because npyio has no API for runtime-shaped N-D output.
type npyCodec struct{}

func (npyCodec) Decode(path, _ string) (*Array, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening npy file: %w", err)
	}
	defer f.Close()

	r, err := npyio.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("reading npy header: %w", err)
	}

	shape := append([]int(nil), r.Header.Descr.Shape...)
	a, err := readNpyData(r, shape)
	if err != nil {
		return nil, fmt.Errorf("reading npy payload %s: %w", path, err)
	}
	if r.Header.Descr.Fortran {
		a = FortranToC(a)
	}
	return a, nil
}

// readNpyData reads the payload with the exact dtype from the header and
// widens it into the container's int64/float64 representation.
func readNpyData(r *npyio.Reader, shape []int) (*Array, error) {
	// Strip the byte-order character; npyio handles the ordering itself.
	descr := strings.TrimLeft(r.Header.Descr.Type, "<>|=")

	switch descr {
	case "u1":
		var raw []uint8
		if err := r.Read(&raw); err != nil {
			return nil, err
		}
		return NewInt(shape, widenUnsigned(raw))
	case "u2":
		var raw []uint16
		if err := r.Read(&raw); err != nil {
			return nil, err
		}
		return NewInt(shape, widenUnsigned(raw))
	case "u4":
		var raw []uint32
		if err := r.Read(&raw); err != nil {
			return nil, err
		}
		return NewInt(shape, widenUnsigned(raw))
	case "u8":
		var raw []uint64
		if err := r.Read(&raw); err != nil {
			return nil, err
		}
		return NewInt(shape, widenUnsigned(raw))
	case "i1":
		var raw []int8
		if err := r.Read(&raw); err != nil {
			return nil, err
		}
		return NewInt(shape, widenSigned(raw))
	case "i2":
		var raw []int16
		if err := r.Read(&raw); err != nil {
			return nil, err
		}
		return NewInt(shape, widenSigned(raw))
	case "i4":
		var raw []int32
		if err := r.Read(&raw); err != nil {
			return nil, err
		}
		return NewInt(shape, widenSigned(raw))
	case "i8":
		var raw []int64
		if err := r.Read(&raw); err != nil {
			return nil, err
		}
		return NewInt(shape, raw)
	case "f4":
		var raw []float32
		if err := r.Read(&raw); err != nil {
			return nil, err
		}
		out := make([]float64, len(raw))
		for i, v := range raw {
			out[i] = float64(v)
		}
		return NewFloat(shape, out)
	case "f8":
		var raw []float64
		if err := r.Read(&raw); err != nil {
			return nil, err
		}
		return NewFloat(shape, raw)
	default:
		return nil, fmt.Errorf("unsupported npy dtype %q", r.Header.Descr.Type)
	}
}

func widenSigned[T int8 | int16 | int32](raw []T) []int64 {
	out := make([]int64, len(raw))
	for i, v := range raw {
		out[i] = int64(v)
	}
	return out
}

func widenUnsigned[T uint8 | uint16 | uint32 | uint64](raw []T) []int64 {
	out := make([]int64, len(raw))
	for i, v := range raw {
		out[i] = int64(v)
	}
	return out
}

func (npyCodec) Encode(path, _ string, a *Array) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating npy file: %w", err)
	}
	defer f.Close()

	descr := "<i8"
	if a.Kind == Float {
		descr = "<f8"
	}

	dims := make([]string, len(a.Shape))
	for i, d := range a.Shape {
		dims[i] = fmt.Sprintf("%d", d)
	}
	shape := strings.Join(dims, ", ")
	if len(a.Shape) == 1 {
		shape += ","
	}
	header := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': (%s), }", descr, shape)

	// Magic + version + header length + dict, padded so the payload starts
	// on a 64-byte boundary, dict terminated by a newline.
	total := 6 + 2 + 2 + len(header) + 1
	pad := (64 - total%64) % 64
	header += strings.Repeat(" ", pad) + "\n"

	buf := make([]byte, 0, 10+len(header))
	buf = append(buf, 0x93, 'N', 'U', 'M', 'P', 'Y', 0x01, 0x00)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(header)))
	buf = append(buf, header...)
	if _, err := f.Write(buf); err != nil {
		return fmt.Errorf("writing npy header: %w", err)
	}

	if a.Kind == Int {
		err = binary.Write(f, binary.LittleEndian, a.Ints)
	} else {
		err = binary.Write(f, binary.LittleEndian, a.Floats)
	}
	if err != nil {
		return fmt.Errorf("writing npy payload: %w", err)
	}
	return nil
}
