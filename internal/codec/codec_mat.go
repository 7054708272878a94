package codec

import (
	"fmt"

	"gohsl/internal/matlab"
)

// matCodec bridges the registry onto the MAT5 container package.
// MAT-files hold arrays column-major, so payloads are reordered on the
// way in and out.
type matCodec struct{}

func (matCodec) Decode(path, key string) (*Array, error) {
	m, err := matlab.ReadFile(path, key)
	if err != nil {
		return nil, fmt.Errorf("mat codec: %w", err)
	}

	fortran := &Array{Shape: append([]int(nil), m.Dims...)}
	if m.IsFloat {
		fortran.Kind = Float
		fortran.Floats = m.Floats
	} else {
		fortran.Kind = Int
		fortran.Ints = m.Ints
	}
	return FortranToC(fortran), nil
}

func (matCodec) Encode(path, key string, a *Array) error {
	if key == "" {
		return fmt.Errorf("mat codec: a field name is required")
	}
	fortran := CToFortran(a)
	m := &matlab.Matrix{
		Name:    key,
		Dims:    fortran.Shape,
		IsFloat: a.Kind == Float,
		Ints:    fortran.Ints,
		Floats:  fortran.Floats,
	}
	if err := matlab.WriteFile(path, m); err != nil {
		return fmt.Errorf("mat codec: %w", err)
	}
	return nil
}
