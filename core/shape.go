package core

import (
	"errors"
	"fmt"
)

// ErrShape is returned when shapes do not fit together.
var ErrShape = errors.New("shape mismatch")

// Shape is the dimension sizes of a tensor, e.g. [2, 3, 4].
type Shape []int

// Strides are byte offsets per axis (row-major).
type Strides []int

// ContiguousStrides returns row-major byte strides for shape.
func ContiguousStrides(shape Shape, elemSize uintptr) Strides {
	if len(shape) == 0 {
		return nil
	}
	strides := make(Strides, len(shape))
	step := int(elemSize)
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = step
		step *= shape[i]
	}
	return strides
}

// NumElements returns the product of the dimensions.
// An empty shape has no elements; scalars are represented as [1].
func (s Shape) NumElements() int {
	if len(s) == 0 {
		return 0
	}
	n := 1
	for _, d := range s {
		if d <= 0 {
			return 0
		}
		n *= d
	}
	return n
}

// Equal reports whether s and o have the same dimensions.
func (s Shape) Equal(o Shape) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of s that does not alias it.
func (s Shape) Clone() Shape {
	return append(Shape(nil), s...)
}

// dimFromRight returns the size of the i-th axis counted from the last one,
// or 1 past the leading axis.
func (s Shape) dimFromRight(i int) int {
	if i >= len(s) {
		return 1
	}
	return s[len(s)-1-i]
}

// BroadcastShapes returns the NumPy broadcast of a and b. Axes are aligned
// from the right; a size-1 axis stretches to match the other side.
func BroadcastShapes(a, b Shape) (Shape, error) {
	out := make(Shape, max(len(a), len(b)))
	for i := range out {
		da, db := a.dimFromRight(i), b.dimFromRight(i)
		if da != db && da != 1 && db != 1 {
			return nil, fmt.Errorf("broadcast %v with %v: axis -%d is %d vs %d: %w", a, b, i+1, da, db, ErrShape)
		}
		if da == 1 {
			da = db
		}
		out[len(out)-1-i] = da
	}
	return out, nil
}
