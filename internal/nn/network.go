package nn

import (
	"fmt"

	"github.com/born-ml/digits/internal/tensor"
)

// ImageSize is the side length of the input images.
const ImageSize = 28

// Network chains Conv3x3, MaxPool2x2 and SoftMax into a digit classifier.
//
// Data flow for a 28x28 image with 8 filters:
//
//	(28, 28) -> Conv3x3 -> (8, 26, 26) -> MaxPool2x2 -> (8, 13, 13) -> SoftMax -> (10)
//
// Example:
//
//	net := nn.NewNetwork(8, src, 10)
//	trace := net.Forward(img)
//	grad := nn.CrossEntropyGrad(trace.Probs, label)
//	net.Backward(trace, grad, sgd)
type Network struct {
	conv    *Conv3x3
	pool    *MaxPool2x2
	softmax *SoftMax
}

// Trace holds the records of one forward pass through the network.
type Trace struct {
	Conv    *ConvRecord
	Pool    *PoolRecord
	SoftMax *SoftMaxRecord
	Probs   *tensor.Vector // Class probabilities
}

// NewNetwork creates a network with filters random 3x3 filters and a
// numClasses-way softmax sized for ImageSize x ImageSize input.
func NewNetwork(filters int, src tensor.Source, numClasses int) *Network {
	conv := NewConv3x3(InitFilters(filters, src))
	pool := NewMaxPool2x2()

	convOut := conv.ComputeOutputSize(ImageSize, ImageSize)
	poolOut := pool.ComputeOutputSize(convOut[0], convOut[1])

	return NewNetworkFrom(conv, pool, NewSoftMax(filters*poolOut[0]*poolOut[1], numClasses, src))
}

// NewNetworkFrom composes already constructed layers.
func NewNetworkFrom(conv *Conv3x3, pool *MaxPool2x2, softmax *SoftMax) *Network {
	return &Network{conv: conv, pool: pool, softmax: softmax}
}

// Forward runs img through all three stages.
func (n *Network) Forward(img *tensor.Matrix) *Trace {
	convOut, convRec := n.conv.Forward(img)
	poolOut, poolRec := n.pool.Forward(convOut)
	probs, smRec := n.softmax.Forward(poolOut)

	return &Trace{
		Conv:    convRec,
		Pool:    poolRec,
		SoftMax: smRec,
		Probs:   probs,
	}
}

// Backward propagates grad (dLoss/dprobs) through SoftMax, MaxPool2x2 and
// Conv3x3 in that order. Every stage applies its updates through opt.
func (n *Network) Backward(trace *Trace, grad *tensor.Vector, opt Updater) {
	if trace == nil {
		panic("network: backward called without a forward trace")
	}
	dPool := n.softmax.Backward(trace.SoftMax, grad, opt)
	dConv := n.pool.Backward(trace.Pool, dPool, opt)
	n.conv.Backward(trace.Conv, dConv, opt)
}

// Predict returns the most probable label for img and the full distribution.
func (n *Network) Predict(img *tensor.Matrix) (int, *tensor.Vector) {
	probs := n.Forward(img).Probs
	return probs.Argmax(), probs
}

// Parameters returns the filter bank, the softmax weights and the softmax bias.
func (n *Network) Parameters() []*Parameter {
	params := n.conv.Parameters()
	params = append(params, n.pool.Parameters()...)
	return append(params, n.softmax.Parameters()...)
}

// Conv returns the convolution stage.
func (n *Network) Conv() *Conv3x3 { return n.conv }

// Pool returns the pooling stage.
func (n *Network) Pool() *MaxPool2x2 { return n.pool }

// SoftMax returns the classification stage.
func (n *Network) SoftMax() *SoftMax { return n.softmax }

// String returns a summary of the stages.
func (n *Network) String() string {
	return fmt.Sprintf("Network(%v -> %v -> %v)", n.conv, n.pool, n.softmax)
}
