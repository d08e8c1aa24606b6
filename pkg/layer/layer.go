// Package layer defines the 2-D border grid and its consistency validator.
//
// A [Layer] holds one integer value per block of an (AxisY × AxisX) grid:
// rows follow the Y axis and columns follow the X axis. [Validate] checks a
// layer against value limits and, optionally, a maximum step between
// neighboring cells.
package layer

import (
	"fmt"
	"strings"
)

// Limits is an inclusive [min, max] value range.
type Limits [2]uint32

// NewLimits returns the range [lo, hi].
func NewLimits(lo, hi uint32) Limits { return Limits{lo, hi} }

// Min returns the lower bound.
func (l Limits) Min() uint32 { return l[0] }

// Max returns the upper bound.
func (l Limits) Max() uint32 { return l[1] }

// Valid reports whether Min <= Max.
func (l Limits) Valid() bool { return l[0] <= l[1] }

// Contains reports whether v lies within the limits.
func (l Limits) Contains(v uint32) bool { return v >= l[0] && v <= l[1] }

// String formats the limits as "[min,max]".
func (l Limits) String() string { return fmt.Sprintf("[%d,%d]", l[0], l[1]) }

// Layer is a rows × cols grid of border values. Every row has the same length.
type Layer [][]uint32

// New allocates a zeroed rows × cols layer backed by a single slice.
func New(rows, cols int) Layer {
	if rows <= 0 || cols <= 0 {
		return Layer{}
	}
	cells := make([]uint32, rows*cols)
	l := make(Layer, rows)
	for r := range l {
		l[r] = cells[r*cols : (r+1)*cols : (r+1)*cols]
	}
	return l
}

// Rows returns the number of rows.
func (l Layer) Rows() int { return len(l) }

// Cols returns the number of columns, or 0 for an empty layer.
func (l Layer) Cols() int {
	if len(l) == 0 {
		return 0
	}
	return len(l[0])
}

// Clone returns a deep copy.
func (l Layer) Clone() Layer {
	out := New(l.Rows(), l.Cols())
	for r := range l {
		copy(out[r], l[r])
	}
	return out
}

// Bounds returns the smallest and largest value in the layer.
func (l Layer) Bounds() (lo, hi uint32) {
	first := true
	for _, row := range l {
		for _, v := range row {
			if first {
				lo, hi, first = v, v, false
				continue
			}
			lo, hi = min(lo, v), max(hi, v)
		}
	}
	return lo, hi
}

// String renders the layer as whitespace-separated rows.
func (l Layer) String() string {
	var b strings.Builder
	for r, row := range l {
		if r > 0 {
			b.WriteByte('\n')
		}
		for c, v := range row {
			if c > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "%d", v)
		}
	}
	return b.String()
}
