package tensor

import (
	"fmt"

	"github.com/chewxy/math32"
)

// Vector is a dense 1-D array of float32 values.
//
// The layers treat a vector as a row: Row returns the (1, n) matrix view
// used in products such as x·W, and Column the (n, 1) form.
type Vector struct {
	data []float32
}

// NewVector creates a zero-filled vector of length n.
func NewVector(n int) *Vector {
	mustValidate("vector", Shape{1, n})
	return &Vector{data: make([]float32, n)}
}

// VectorOf creates a vector holding a copy of values.
func VectorOf(values ...float32) *Vector {
	v := NewVector(len(values))
	copy(v.data, values)
	return v
}

// Len returns the number of elements.
func (v *Vector) Len() int { return len(v.data) }

// Shape returns [1, n].
func (v *Vector) Shape() Shape { return Shape{1, len(v.data)} }

// At returns element i.
func (v *Vector) At(i int) float32 {
	v.checkIndex("at", i)
	return v.data[i]
}

// Set stores x at element i.
func (v *Vector) Set(i int, x float32) {
	v.checkIndex("set", i)
	v.data[i] = x
}

// Data returns the backing slice.
func (v *Vector) Data() []float32 { return v.data }

// Clone returns a deep copy.
func (v *Vector) Clone() *Vector { return VectorOf(v.data...) }

// Row returns a (1, n) matrix copy.
func (v *Vector) Row() *Matrix { return FromSlice(1, len(v.data), v.data) }

// Column returns an (n, 1) matrix copy.
func (v *Vector) Column() *Matrix { return FromSlice(len(v.data), 1, v.data) }

// Add returns the element-wise sum of two vectors of equal length.
func (v *Vector) Add(other *Vector) *Vector {
	if len(v.data) != len(other.data) {
		panic(fmt.Sprintf("add: shape mismatch %v vs %v", v.Shape(), other.Shape()))
	}
	result := NewVector(len(v.data))
	for i, x := range v.data {
		result.data[i] = x + other.data[i]
	}
	return result
}

// Scale returns a copy with every element multiplied by s.
func (v *Vector) Scale(s float32) *Vector {
	result := NewVector(len(v.data))
	for i, x := range v.data {
		result.data[i] = x * s
	}
	return result
}

// Shift returns a copy with s added to every element.
func (v *Vector) Shift(s float32) *Vector {
	result := NewVector(len(v.data))
	for i, x := range v.data {
		result.data[i] = x + s
	}
	return result
}

// Exp returns the element-wise natural exponent.
func (v *Vector) Exp() *Vector {
	result := NewVector(len(v.data))
	for i, x := range v.data {
		result.data[i] = math32.Exp(x)
	}
	return result
}

// Sum returns the sum of all elements.
func (v *Vector) Sum() float32 {
	sum := float32(0)
	for _, x := range v.data {
		sum += x
	}
	return sum
}

// Max returns the greatest element.
func (v *Vector) Max() float32 {
	return v.data[v.Argmax()]
}

// Argmax returns the index of the greatest element. Ties keep the earliest index.
func (v *Vector) Argmax() int {
	arg := 0
	for i, x := range v.data {
		if x > v.data[arg] {
			arg = i
		}
	}
	return arg
}

// IsFinite reports whether no element is NaN or ±Inf.
func (v *Vector) IsFinite() bool {
	for _, x := range v.data {
		if math32.IsNaN(x) || math32.IsInf(x, 0) {
			return false
		}
	}
	return true
}

func (v *Vector) checkIndex(op string, i int) {
	if i < 0 || i >= len(v.data) {
		panic(fmt.Sprintf("%s: index %d out of range for shape %v", op, i, v.Shape()))
	}
}
