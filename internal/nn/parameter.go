package nn

import (
	"fmt"

	"github.com/born-ml/digits/internal/tensor"
)

// Parameter represents a trainable parameter in a neural network.
//
// A Parameter is a named view over the backing slice of a layer-owned
// tensor (the filter bank, the softmax weights or its bias). Updaters write
// through Data, so the owning tensor sees every update immediately.
//
// Example:
//
//	weights := tensor.RandMatrix(1352, 10, src)
//	p := nn.NewParameter("softmax.weight", weights.Shape(), weights.Data())
//	p.Data()[0] -= 0.005 * grad[0] // visible through weights.At(0, 0)
type Parameter struct {
	name  string       // Parameter name (e.g., "conv.filters", "softmax.bias")
	shape tensor.Shape // Shape of the owning tensor
	data  []float32    // Backing slice shared with the owning tensor
}

// NewParameter creates a new trainable parameter over data.
//
// Panics if the number of values does not match the shape.
func NewParameter(name string, shape tensor.Shape, data []float32) *Parameter {
	if shape.NumElements() != len(data) {
		panic(fmt.Sprintf("parameter %s: %d values for shape %v", name, len(data), shape))
	}
	return &Parameter{
		name:  name,
		shape: shape.Clone(),
		data:  data,
	}
}

// Name returns the parameter name.
func (p *Parameter) Name() string {
	return p.name
}

// Shape returns the shape of the owning tensor.
func (p *Parameter) Shape() tensor.Shape {
	return p.shape.Clone()
}

// Data returns the live backing slice.
func (p *Parameter) Data() []float32 {
	return p.data
}

// NumElements returns the number of trainable values.
func (p *Parameter) NumElements() int {
	return len(p.data)
}
