// Package nn implements the layers of the digit classifier.
//
// This package provides the building blocks of the training pipeline:
//   - Layer interface: Forward/Backward contract shared by every stage
//   - Parameter: Named view over a layer's trainable values
//   - Conv3x3: Valid 3x3 convolution over a bank of filters
//   - MaxPool2x2: Non-overlapping 2x2 max pooling
//   - SoftMax: Fully connected layer with exponential normalization
//   - CrossEntropy: Loss and its gradient for one-hot targets
//   - Network: The three stages composed end to end
//
// Layers do not cache activations. Forward returns a record that the caller
// hands back to Backward, so a backward pass without a matching forward pass
// does not type-check.
package nn

// Layer is the contract every pipeline stage implements.
//
// Type parameters:
//   - In: the stage's input (and the type of the gradient it returns)
//   - Out: the stage's output (and the type of the gradient it receives)
//   - R: the activation record produced by Forward and consumed by Backward
//
// The composition used for training is:
//
//	Conv3x3    Layer[*tensor.Matrix, *tensor.Volume, *ConvRecord]
//	MaxPool2x2 Layer[*tensor.Volume, *tensor.Volume, *PoolRecord]
//	SoftMax    Layer[*tensor.Volume, *tensor.Vector, *SoftMaxRecord]
type Layer[In, Out, R any] interface {
	// Forward computes the stage output and the record Backward needs.
	Forward(input In) (Out, R)

	// Backward takes the gradient of the loss w.r.t. the output recorded in
	// rec, applies parameter updates through opt and returns the gradient
	// w.r.t. the input.
	Backward(rec R, grad Out, opt Updater) In

	// Parameters returns the trainable parameters of this stage.
	// Returns an empty slice for stages without weights (e.g. pooling).
	Parameters() []*Parameter
}

// Updater applies one gradient step to a parameter.
//
// Implemented by optim.SGD. Layers call it from Backward once per
// parameter gradient they compute.
type Updater interface {
	Update(p *Parameter, grad []float32)
}
