package tensor

import "fmt"

// Volume is a dense 3-D array of float32 values with shape (depth, height, width).
//
// Elements are stored channel-slow, row-middle, column-fast; Flatten and
// Reshape rely on exactly that order.
type Volume struct {
	depth  int
	height int
	width  int
	data   []float32
}

// NewVolume creates a zero-filled depth x height x width volume.
func NewVolume(depth, height, width int) *Volume {
	mustValidate("volume", Shape{depth, height, width})
	return &Volume{
		depth:  depth,
		height: height,
		width:  width,
		data:   make([]float32, depth*height*width),
	}
}

// RandVolume creates a volume of uniform [0, 1) values drawn from src.
func RandVolume(depth, height, width int, src Source) *Volume {
	vol := NewVolume(depth, height, width)
	fillUniform(vol.data, src)
	return vol
}

// Reshape is the inverse of Volume.Flatten: it lays the d*h*w elements of v
// out as a (d, h, w) volume in the same channel, row, column order.
func Reshape(v *Vector, depth, height, width int) *Volume {
	vol := NewVolume(depth, height, width)
	if v.Len() != len(vol.data) {
		panic(fmt.Sprintf("reshape: cannot reshape %v into %v", v.Shape(), vol.Shape()))
	}
	copy(vol.data, v.data)
	return vol
}

// Depth returns the number of channels.
func (vol *Volume) Depth() int { return vol.depth }

// Height returns the number of rows per channel.
func (vol *Volume) Height() int { return vol.height }

// Width returns the number of columns per channel.
func (vol *Volume) Width() int { return vol.width }

// Shape returns [depth, height, width].
func (vol *Volume) Shape() Shape { return Shape{vol.depth, vol.height, vol.width} }

// At returns the element at channel k, row i, column j.
func (vol *Volume) At(k, i, j int) float32 {
	return vol.data[vol.index("at", k, i, j)]
}

// Set stores v at channel k, row i, column j.
func (vol *Volume) Set(k, i, j int, v float32) {
	vol.data[vol.index("set", k, i, j)] = v
}

// Data returns the backing slice.
func (vol *Volume) Data() []float32 { return vol.data }

// Clone returns a deep copy.
func (vol *Volume) Clone() *Volume {
	clone := NewVolume(vol.depth, vol.height, vol.width)
	copy(clone.data, vol.data)
	return clone
}

// Channel returns a copy of channel k as a (height, width) matrix.
func (vol *Volume) Channel(k int) *Matrix {
	if k < 0 || k >= vol.depth {
		panic(fmt.Sprintf("channel: index %d out of range for shape %v", k, vol.Shape()))
	}
	plane := vol.height * vol.width
	return FromSlice(vol.height, vol.width, vol.data[k*plane:(k+1)*plane])
}

// SetChannel overwrites channel k with the contents of m.
func (vol *Volume) SetChannel(k int, m *Matrix) {
	if k < 0 || k >= vol.depth {
		panic(fmt.Sprintf("set channel: index %d out of range for shape %v", k, vol.Shape()))
	}
	if m.rows != vol.height || m.cols != vol.width {
		panic(fmt.Sprintf("set channel: shape mismatch %v into %v", m.Shape(), vol.Shape()))
	}
	plane := vol.height * vol.width
	copy(vol.data[k*plane:(k+1)*plane], m.data)
}

// Flatten reads the volume channel-slow, row-middle, column-fast into a
// vector of length depth*height*width.
func (vol *Volume) Flatten() *Vector {
	return VectorOf(vol.data...)
}

func (vol *Volume) index(op string, k, i, j int) int {
	if k < 0 || k >= vol.depth || i < 0 || i >= vol.height || j < 0 || j >= vol.width {
		panic(fmt.Sprintf("%s: index (%d, %d, %d) out of range for shape %v", op, k, i, j, vol.Shape()))
	}
	return (k*vol.height+i)*vol.width + j
}
