// Package window generates deterministic sliding-window positions over a 2D
// (or 2D-plus-bands) array, for patch extraction and inference tiling.
package window

// Window describes one rectangular sub-region. W and H are the window
// extents along the row and column axes respectively, matching the (w, h)
// window-size convention of Slide.
type Window struct {
	Row, Col int
	W, H     int
}

// Iterator walks window positions lazily, rows outer, columns inner.
// Each Slide call returns a fresh iterator, so a sequence can be restarted
// by asking for a new one.
type Iterator struct {
	rows, cols int
	step       int
	w, h       int
	nRows      int // count of row positions
	nCols      int // count of column positions
	i, j       int
}

// Slide returns an iterator over all window positions of size (w, h) on a
// rows x cols array with the given step. The trailing edge is always
// covered: a position whose window would cross the array bound is clamped
// back to dim-window, even when step does not evenly divide the image.
// Windows larger than the array produce no positions.
func Slide(rows, cols, step, w, h int) *Iterator {
	it := &Iterator{rows: rows, cols: cols, step: step, w: w, h: h}
	it.nRows = axisPositions(rows, w, step)
	it.nCols = axisPositions(cols, h, step)
	return it
}

// axisPositions counts the start positions along one axis. Starts run
// 0, step, 2*step, ... up to dim-win+offset inclusive, where
// offset = (dim-win) mod step compensates a step that does not divide the
// span evenly. When even the offset-extended range stops short of the last
// valid origin (dim=7, win=3, step=3 yields starts 0, 3 and leaves column 6
// uncovered), one extra position is emitted; clampPos pulls it back to
// dim-win, so the trailing edge is always covered.
func axisPositions(dim, win, step int) int {
	if win > dim || win <= 0 || step <= 0 {
		return 0
	}
	offset := (dim - win) % step
	n := (dim-win+offset)/step + 1
	if (n-1)*step < dim-win {
		n++
	}
	return n
}

// Next returns the next window position. The second result is false once
// the sequence is exhausted.
func (it *Iterator) Next() (Window, bool) {
	if it.i >= it.nRows || it.nCols == 0 {
		return Window{}, false
	}
	r := clampPos(it.i*it.step, it.rows, it.w)
	c := clampPos(it.j*it.step, it.cols, it.h)

	it.j++
	if it.j >= it.nCols {
		it.j = 0
		it.i++
	}
	return Window{Row: r, Col: c, W: it.w, H: it.h}, true
}

// clampPos pulls a start position back so the window stays inside the axis.
func clampPos(pos, dim, win int) int {
	if pos+win > dim {
		return dim - win
	}
	return pos
}

// Count returns the exact number of windows Slide would yield for the same
// parameters. It drains a coordinate iterator rather than estimating, so it
// always matches the generated sequence.
func Count(rows, cols, step, w, h int) int {
	it := Slide(rows, cols, step, w, h)
	n := 0
	for {
		if _, ok := it.Next(); !ok {
			return n
		}
		n++
	}
}

// Source is any 2D-plus-bands array windows can be cut from. hsimage.Cube
// satisfies it.
type Source interface {
	// Dims returns the spatial shape.
	Dims() (rows, cols int)
	// Extract materializes the sub-array under w, row-major, band-last.
	Extract(w Window) []float32
}

// DataIterator pairs each window position with its extracted sub-array.
type DataIterator struct {
	it  *Iterator
	src Source
}

// SlideData is the data-carrying variant of Slide.
func SlideData(src Source, step, w, h int) *DataIterator {
	rows, cols := src.Dims()
	return &DataIterator{it: Slide(rows, cols, step, w, h), src: src}
}

// Next returns the next window together with its data.
func (d *DataIterator) Next() ([]float32, Window, bool) {
	win, ok := d.it.Next()
	if !ok {
		return nil, Window{}, false
	}
	return d.src.Extract(win), win, true
}
