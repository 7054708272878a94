package hsimage

import (
	"errors"
	"fmt"
)

// FrameSource yields successive raw sensor frames from a capture device
// (pushbroom rail, UAV, rotary stage). Each frame is one spatial line of
// cols pixels by bands channels, row-major.
type FrameSource interface {
	// Next returns the next frame, or false when the capture is finished.
	Next() ([]float32, bool)
	// FrameDims returns the per-frame shape.
	FrameDims() (cols, bands int)
}

// Builder assembles a Cube from raw captures. Geometry correction and
// sensor-specific preprocessing live behind implementations of this
// interface; the toolkit only consumes the finished cube.
type Builder interface {
	Build(src FrameSource) (*Cube, error)
}

// ErrNoFrames reports a capture that produced no data.
var ErrNoFrames = errors.New("hsimage: frame source produced no frames")

// StackBuilder is the trivial Builder: it stacks frames in arrival order
// with no geometric correction. It exists for tests and for devices whose
// driver already emits corrected lines.
type StackBuilder struct{}

// Build stacks every frame from src into a cube, one frame per row.
func (StackBuilder) Build(src FrameSource) (*Cube, error) {
	cols, bands := src.FrameDims()
	var rows [][]float32
	for {
		frame, ok := src.Next()
		if !ok {
			break
		}
		if len(frame) != cols*bands {
			return nil, fmt.Errorf("%w: frame %d has %d samples, want %d",
				ErrBadCube, len(rows), len(frame), cols*bands)
		}
		rows = append(rows, frame)
	}
	if len(rows) == 0 {
		return nil, ErrNoFrames
	}

	c := NewCube(len(rows), cols, bands)
	for r, frame := range rows {
		copy(c.Data[r*cols*bands:], frame)
	}
	return c, nil
}
