package codec

import (
	"fmt"
	"reflect"

	"github.com/robert-malhotra/go-hdf5/hdf5"
)

// h5Codec stores arrays as HDF5 datasets under the file's root group.
type h5Codec struct{}

func (h5Codec) Decode(path, key string) (*Array, error) {
	f, err := hdf5.Open(path)
	if err != nil {
		return nil, fmt.Errorf("h5 codec: opening %s: %w", path, err)
	}
	defer f.Close()

	ds, err := f.Root().OpenDataset(key)
	if err != nil {
		return nil, fmt.Errorf("h5 codec: dataset %q: %w", key, err)
	}

	dims := ds.Shape()
	shape := make([]int, len(dims))
	for i, d := range dims {
		shape[i] = int(d)
	}

	goType, err := ds.GoType()
	if err != nil {
		return nil, fmt.Errorf("h5 codec: dataset %q: %w", key, err)
	}

	switch goType.Kind() {
	case reflect.Uint8:
		raw, err := ds.ReadUint8()
		if err != nil {
			return nil, fmt.Errorf("h5 codec: reading %q: %w", key, err)
		}
		return NewInt(shape, widenUnsigned(raw))
	case reflect.Uint16:
		raw, err := ds.ReadUint16()
		if err != nil {
			return nil, fmt.Errorf("h5 codec: reading %q: %w", key, err)
		}
		return NewInt(shape, widenUnsigned(raw))
	case reflect.Uint32:
		raw, err := ds.ReadUint32()
		if err != nil {
			return nil, fmt.Errorf("h5 codec: reading %q: %w", key, err)
		}
		return NewInt(shape, widenUnsigned(raw))
	case reflect.Uint64:
		raw, err := ds.ReadUint64()
		if err != nil {
			return nil, fmt.Errorf("h5 codec: reading %q: %w", key, err)
		}
		return NewInt(shape, widenUnsigned(raw))
	case reflect.Int8:
		raw, err := ds.ReadInt8()
		if err != nil {
			return nil, fmt.Errorf("h5 codec: reading %q: %w", key, err)
		}
		return NewInt(shape, widenSigned(raw))
	case reflect.Int16:
		raw, err := ds.ReadInt16()
		if err != nil {
			return nil, fmt.Errorf("h5 codec: reading %q: %w", key, err)
		}
		return NewInt(shape, widenSigned(raw))
	case reflect.Int32:
		raw, err := ds.ReadInt32()
		if err != nil {
			return nil, fmt.Errorf("h5 codec: reading %q: %w", key, err)
		}
		return NewInt(shape, widenSigned(raw))
	case reflect.Int64:
		raw, err := ds.ReadInt64()
		if err != nil {
			return nil, fmt.Errorf("h5 codec: reading %q: %w", key, err)
		}
		return NewInt(shape, raw)
	case reflect.Float32:
		raw, err := ds.ReadFloat32()
		if err != nil {
			return nil, fmt.Errorf("h5 codec: reading %q: %w", key, err)
		}
		out := make([]float64, len(raw))
		for i, v := range raw {
			out[i] = float64(v)
		}
		return NewFloat(shape, out)
	case reflect.Float64:
		raw, err := ds.ReadFloat64()
		if err != nil {
			return nil, fmt.Errorf("h5 codec: reading %q: %w", key, err)
		}
		return NewFloat(shape, raw)
	default:
		return nil, fmt.Errorf("h5 codec: unsupported dataset element type %s", goType)
	}
}

func (h5Codec) Encode(path, key string, a *Array) error {
	if key == "" {
		return fmt.Errorf("h5 codec: a dataset name is required")
	}

	data, err := nested(a)
	if err != nil {
		return err
	}

	f, err := hdf5.Create(path)
	if err != nil {
		return fmt.Errorf("h5 codec: creating %s: %w", path, err)
	}
	if _, err := f.Root().CreateDataset(key, data); err != nil {
		f.Close()
		return fmt.Errorf("h5 codec: writing dataset %q: %w", key, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("h5 codec: closing %s: %w", path, err)
	}
	return nil
}

// nested rebuilds the flat payload as nested slices so the dataset writer
// can infer the dataspace dimensions.
func nested(a *Array) (interface{}, error) {
	switch a.Rank() {
	case 1:
		if a.Kind == Int {
			return a.Ints, nil
		}
		return a.Floats, nil
	case 2:
		rows, cols := a.Shape[0], a.Shape[1]
		if a.Kind == Int {
			out := make([][]int64, rows)
			for r := range out {
				out[r] = a.Ints[r*cols : (r+1)*cols]
			}
			return out, nil
		}
		out := make([][]float64, rows)
		for r := range out {
			out[r] = a.Floats[r*cols : (r+1)*cols]
		}
		return out, nil
	case 3:
		d0, d1, d2 := a.Shape[0], a.Shape[1], a.Shape[2]
		if a.Kind == Int {
			out := make([][][]int64, d0)
			for i := range out {
				out[i] = make([][]int64, d1)
				for j := range out[i] {
					base := (i*d1 + j) * d2
					out[i][j] = a.Ints[base : base+d2]
				}
			}
			return out, nil
		}
		out := make([][][]float64, d0)
		for i := range out {
			out[i] = make([][]float64, d1)
			for j := range out[i] {
				base := (i*d1 + j) * d2
				out[i][j] = a.Floats[base : base+d2]
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("h5 codec: rank %d arrays are not supported", a.Rank())
	}
}
