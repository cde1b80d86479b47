package nn

import (
	"fmt"

	"github.com/born-ml/digits/internal/tensor"
)

// Conv3x3 is a valid (unpadded, stride 1) 3x3 convolution over a bank of
// single-channel filters.
//
// Input shape:  [height, width]
// Filter shape: [num_filters, 3, 3]
// Output shape: [num_filters, height-2, width-2]
//
// Each output pixel is the product-sum of a filter with the 3x3 image patch
// whose top-left corner sits at the same coordinates. There is no kernel
// flip (cross-correlation) and no bias.
//
// Example:
//
//	conv := nn.NewConv3x3(nn.InitFilters(8, src))
//	out, rec := conv.Forward(img) // (28, 28) -> (8, 26, 26)
//	conv.Backward(rec, grad, sgd) // updates the filters
type Conv3x3 struct {
	filters *tensor.Volume // [num_filters, 3, 3]
	param   *Parameter
}

// ConvRecord is what Conv3x3.Backward needs from the matching forward pass.
type ConvRecord struct {
	Input *tensor.Matrix // The image that was convolved
}

// NewConv3x3 creates a convolution layer that owns filters.
//
// The layer updates the filters in place during Backward; callers should
// not write to the volume afterwards.
func NewConv3x3(filters *tensor.Volume) *Conv3x3 {
	if filters.Height() != FilterSize || filters.Width() != FilterSize {
		panic(fmt.Sprintf("conv3x3: filters must be (n, 3, 3), got %v", filters.Shape()))
	}
	return &Conv3x3{
		filters: filters,
		param:   NewParameter("conv.filters", filters.Shape(), filters.Data()),
	}
}

// Forward convolves img with every filter.
//
// Input: [H, W] with H, W >= 3
// Output: [num_filters, H-2, W-2].
func (c *Conv3x3) Forward(img *tensor.Matrix) (*tensor.Volume, *ConvRecord) {
	outH, outW := c.outputSize(img)
	numFilters := c.filters.Depth()
	output := tensor.NewVolume(numFilters, outH, outW)

	// Filters are loop-invariant; extract them once
	filters := make([]*tensor.Matrix, numFilters)
	for k := range filters {
		filters[k] = c.filters.Channel(k)
	}

	for i := 0; i < outH; i++ {
		for j := 0; j < outW; j++ {
			patch := img.Region(i, i+FilterSize-1, j, j+FilterSize-1)
			for k, filter := range filters {
				output.Set(k, i, j, patch.Dot(filter))
			}
		}
	}

	return output, &ConvRecord{Input: img}
}

// Backward accumulates the gradient of every filter and applies it through opt.
//
// grad must have the shape of the forward output. Conv3x3 is the first stage
// of the pipeline, so no input gradient is computed and nil is returned.
func (c *Conv3x3) Backward(rec *ConvRecord, grad *tensor.Volume, opt Updater) *tensor.Matrix {
	dFilters := c.filterGradient(rec, grad)
	opt.Update(c.param, dFilters.Data())
	return nil
}

// filterGradient computes dL/dfilter_k = Σ_(i,j) grad[k][i][j] * patch(i, j).
func (c *Conv3x3) filterGradient(rec *ConvRecord, grad *tensor.Volume) *tensor.Volume {
	if rec == nil {
		panic("conv3x3: backward called without a forward record")
	}
	outH, outW := c.outputSize(rec.Input)
	numFilters := c.filters.Depth()
	want := tensor.Shape{numFilters, outH, outW}
	if !grad.Shape().Equal(want) {
		panic(fmt.Sprintf("conv3x3: gradient shape %v, want %v", grad.Shape(), want))
	}

	acc := make([]*tensor.Matrix, numFilters)
	for k := range acc {
		acc[k] = tensor.NewMatrix(FilterSize, FilterSize)
	}

	for i := 0; i < outH; i++ {
		for j := 0; j < outW; j++ {
			patch := rec.Input.Region(i, i+FilterSize-1, j, j+FilterSize-1)
			for k := range acc {
				g := grad.At(k, i, j)
				if g == 0 {
					continue
				}
				acc[k] = acc[k].Add(patch.Scale(g))
			}
		}
	}

	dFilters := tensor.NewVolume(numFilters, FilterSize, FilterSize)
	for k, m := range acc {
		dFilters.SetChannel(k, m)
	}
	return dFilters
}

// Parameters returns the filter bank.
func (c *Conv3x3) Parameters() []*Parameter {
	return []*Parameter{c.param}
}

// Filters returns the live filter bank.
func (c *Conv3x3) Filters() *tensor.Volume {
	return c.filters
}

// NumFilters returns the number of filters (output channels).
func (c *Conv3x3) NumFilters() int {
	return c.filters.Depth()
}

// String returns a string representation of the layer.
func (c *Conv3x3) String() string {
	return fmt.Sprintf("Conv3x3(filters=%d)", c.filters.Depth())
}

// ComputeOutputSize computes output spatial dimensions for given input size.
//
// Returns: [out_height, out_width].
func (c *Conv3x3) ComputeOutputSize(inputH, inputW int) [2]int {
	return [2]int{inputH - FilterSize + 1, inputW - FilterSize + 1}
}

func (c *Conv3x3) outputSize(img *tensor.Matrix) (int, int) {
	if img.Rows() < FilterSize || img.Cols() < FilterSize {
		panic(fmt.Sprintf("conv3x3: input %v smaller than filter", img.Shape()))
	}
	size := c.ComputeOutputSize(img.Rows(), img.Cols())
	return size[0], size[1]
}

var _ Layer[*tensor.Matrix, *tensor.Volume, *ConvRecord] = (*Conv3x3)(nil)
