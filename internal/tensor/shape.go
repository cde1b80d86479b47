package tensor

import (
	"fmt"
	"slices"
	"strings"
)

// Shape lists the extent of each axis, slowest first.
//
// Matrices report (rows, cols), vectors report (1, n) to match the row-vector
// convention the layers use, and volumes report (depth, height, width).
type Shape []int

// NumElements is the product of the extents. The empty shape holds one value.
func (s Shape) NumElements() int {
	n := 1
	for _, extent := range s {
		n *= extent
	}
	return n
}

// Validate reports the first axis with a non-positive extent.
func (s Shape) Validate() error {
	if i := slices.IndexFunc(s, func(extent int) bool { return extent <= 0 }); i >= 0 {
		return fmt.Errorf("axis %d has extent %d in shape %v", i, s[i], s)
	}
	return nil
}

// Equal reports whether s and other have the same axes.
func (s Shape) Equal(other Shape) bool { return slices.Equal(s, other) }

// Clone returns an independent copy of s.
func (s Shape) Clone() Shape { return slices.Clone(s) }

// String formats the shape as "(d0, d1, ...)".
func (s Shape) String() string {
	parts := make([]string, len(s))
	for i, extent := range s {
		parts[i] = fmt.Sprint(extent)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// mustValidate panics with the operation name when a requested shape has a
// non-positive extent.
func mustValidate(op string, s Shape) {
	if err := s.Validate(); err != nil {
		panic(fmt.Sprintf("%s: %v", op, err))
	}
}
