package nn

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/born-ml/digits/internal/tensor"
)

// PoolSize is the side length of the pooling window (and its stride).
const PoolSize = 2

// tieTolerance is the absolute distance under which an input element is
// considered equal to the pooled maximum during backward routing.
const tieTolerance = 1e-8

// MaxPool2x2 is a non-overlapping 2x2 max pooling layer.
//
// Max pooling halves each spatial dimension by keeping the largest value of
// every 2x2 tile. It has no learnable parameters.
//
// Input shape:  [channels, height, width]
// Output shape: [channels, height/2, width/2]
//
// Example (one channel):
//
//	Input: [[1,2,3,4],    Output: [[6,8],
//	        [5,6,7,8],             [14,16]]
//	        [9,10,11,12],
//	        [13,14,15,16]]
type MaxPool2x2 struct{}

// PoolRecord is what MaxPool2x2.Backward needs from the matching forward pass.
type PoolRecord struct {
	Input  *tensor.Volume // Pre-pooling feature maps
	Output *tensor.Volume // Pooled maxima
}

// NewMaxPool2x2 creates a new 2x2 max pooling layer.
func NewMaxPool2x2() *MaxPool2x2 {
	return &MaxPool2x2{}
}

// Forward performs the forward pass.
//
// Input: [C, H, W] with H, W >= 2
// Output: [C, H/2, W/2].
func (m *MaxPool2x2) Forward(input *tensor.Volume) (*tensor.Volume, *PoolRecord) {
	outH, outW := m.outputSize(input)
	output := tensor.NewVolume(input.Depth(), outH, outW)

	for c := 0; c < input.Depth(); c++ {
		channel := input.Channel(c)
		for i := 0; i < outH; i++ {
			for j := 0; j < outW; j++ {
				window := channel.Region(i*PoolSize, i*PoolSize+PoolSize-1, j*PoolSize, j*PoolSize+PoolSize-1)
				output.Set(c, i, j, window.Max())
			}
		}
	}

	return output, &PoolRecord{Input: input, Output: output}
}

// Backward routes gradients to the max positions of each window.
//
// Algorithm:
//   - Gradients flow only to input positions equal to the pooled maximum
//   - When several positions tie, each receives the full gradient (no
//     division by the tie count)
//   - All other positions receive zero
//
// Example (2x2 window):
//
//	Input:  [[1, 2],  Output: [4]  Input Grad: [[0, 0],
//	         [3, 4]]                             [0, grad]]
func (m *MaxPool2x2) Backward(rec *PoolRecord, grad *tensor.Volume, _ Updater) *tensor.Volume {
	if rec == nil {
		panic("maxpool2x2: backward called without a forward record")
	}
	if !grad.Shape().Equal(rec.Output.Shape()) {
		panic(fmt.Sprintf("maxpool2x2: gradient shape %v, want %v", grad.Shape(), rec.Output.Shape()))
	}

	input := rec.Input
	inputGrad := tensor.NewVolume(input.Depth(), input.Height(), input.Width())
	outH, outW := rec.Output.Height(), rec.Output.Width()

	for c := 0; c < input.Depth(); c++ {
		for i := 0; i < outH; i++ {
			for j := 0; j < outW; j++ {
				maxVal := rec.Output.At(c, i, j)
				g := grad.At(c, i, j)
				for mi := 0; mi < PoolSize; mi++ {
					for nj := 0; nj < PoolSize; nj++ {
						h, w := i*PoolSize+mi, j*PoolSize+nj
						if math32.Abs(maxVal-input.At(c, h, w)) < tieTolerance {
							inputGrad.Set(c, h, w, g)
						}
					}
				}
			}
		}
	}

	return inputGrad
}

// Parameters returns all trainable parameters (empty for MaxPool2x2).
func (m *MaxPool2x2) Parameters() []*Parameter {
	return []*Parameter{}
}

// String returns a string representation of the layer.
func (m *MaxPool2x2) String() string {
	return fmt.Sprintf("MaxPool2x2(kernel_size=%d, stride=%d)", PoolSize, PoolSize)
}

// ComputeOutputSize computes output spatial dimensions for given input size.
//
// Returns: [out_height, out_width].
func (m *MaxPool2x2) ComputeOutputSize(inputH, inputW int) [2]int {
	return [2]int{inputH / PoolSize, inputW / PoolSize}
}

func (m *MaxPool2x2) outputSize(input *tensor.Volume) (int, int) {
	if input.Height() < PoolSize || input.Width() < PoolSize {
		panic(fmt.Sprintf("maxpool2x2: input %v smaller than window", input.Shape()))
	}
	size := m.ComputeOutputSize(input.Height(), input.Width())
	return size[0], size[1]
}

var _ Layer[*tensor.Volume, *tensor.Volume, *PoolRecord] = (*MaxPool2x2)(nil)
