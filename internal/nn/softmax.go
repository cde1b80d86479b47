package nn

import (
	"fmt"

	"github.com/born-ml/digits/internal/tensor"
)

// SoftMax is a fully connected layer followed by exponential normalization.
//
// It flattens its input volume in channel, row, column order, computes the
// totals t = x·W + b and returns p = exp(t) / Σ exp(t). The weight layout
// depends on that flatten order, so the same order is used to reshape the
// input gradient in Backward.
//
// Input shape:  [channels, height, width] with channels*height*width = in
// Output shape: [out]
type SoftMax struct {
	inLen   int
	outLen  int
	weights *tensor.Matrix // [in, out]
	bias    *tensor.Vector // [out]
	wParam  *Parameter
	bParam  *Parameter
}

// SoftMaxRecord is what SoftMax.Backward needs from the matching forward pass.
type SoftMaxRecord struct {
	Input  *tensor.Vector // Flattened input x
	Totals *tensor.Vector // Pre-activation totals t
	Shape  tensor.Shape   // Shape of the input volume, for the reshape in Backward
}

// NewSoftMax creates a layer mapping in inputs to out probabilities.
//
// Weights are uniform [0, 1) scaled by 1/in and the bias starts at zero.
func NewSoftMax(in, out int, src tensor.Source) *SoftMax {
	return NewSoftMaxFrom(ScaledUniform(in, out, src), tensor.NewVector(out))
}

// NewSoftMaxFrom creates a layer that owns the given weights and bias.
//
// weights must be (in, out) and bias must have length out.
func NewSoftMaxFrom(weights *tensor.Matrix, bias *tensor.Vector) *SoftMax {
	if bias.Len() != weights.Cols() {
		panic(fmt.Sprintf("softmax: bias %v does not match weights %v", bias.Shape(), weights.Shape()))
	}
	return &SoftMax{
		inLen:   weights.Rows(),
		outLen:  weights.Cols(),
		weights: weights,
		bias:    bias,
		wParam:  NewParameter("softmax.weight", weights.Shape(), weights.Data()),
		bParam:  NewParameter("softmax.bias", bias.Shape(), bias.Data()),
	}
}

// Forward computes class probabilities for input.
func (s *SoftMax) Forward(input *tensor.Volume) (*tensor.Vector, *SoftMaxRecord) {
	x := input.Flatten()
	if x.Len() != s.inLen {
		panic(fmt.Sprintf("softmax: input %v has %d values, want %d", input.Shape(), x.Len(), s.inLen))
	}

	totals := x.Row().MatMul(s.weights).Vector().Add(s.bias)

	expo := shiftedExp(totals)
	probs := expo.Scale(1 / expo.Sum())

	return probs, &SoftMaxRecord{Input: x, Totals: totals, Shape: input.Shape()}
}

// Backward applies the weight and bias updates for every non-zero entry of
// grad and returns the gradient w.r.t. the input volume.
//
// For each non-zero grad[i] with e = exp(t - max t) and S = Σe:
//
//	dout/dt[j] = -e[i]*e[j] / S²       (j != i)
//	dout/dt[i] =  e[i]*(S - e[i]) / S²
//	dL/dt      = dout/dt * grad[i]
//	dL/dW      = xᵀ · dL/dt
//	dL/dx      = W · dL/dtᵀ
//	dL/db      = dL/dt
//
// dL/dx is taken before the update for that index. When several entries are
// non-zero the returned gradient belongs to the last one. When grad is all
// zero a zero volume is returned.
func (s *SoftMax) Backward(rec *SoftMaxRecord, grad *tensor.Vector, opt Updater) *tensor.Volume {
	if rec == nil {
		panic("softmax: backward called without a forward record")
	}
	if grad.Len() != s.outLen {
		panic(fmt.Sprintf("softmax: gradient shape %v, want %v", grad.Shape(), tensor.Shape{1, s.outLen}))
	}

	dX := tensor.NewVector(s.inLen)
	for i, g := range grad.Data() {
		if g == 0 {
			continue
		}

		expo := shiftedExp(rec.Totals)
		sum := expo.Sum()
		ei := expo.At(i)

		dOutdT := expo.Scale(-ei / (sum * sum))
		dOutdT.Set(i, ei*(sum-ei)/(sum*sum))

		dLdT := dOutdT.Scale(g)
		dW := rec.Input.Column().MatMul(dLdT.Row())
		dX = s.weights.MatMul(dLdT.Column()).Vector()

		opt.Update(s.wParam, dW.Data())
		opt.Update(s.bParam, dLdT.Data())
	}

	return tensor.Reshape(dX, rec.Shape[0], rec.Shape[1], rec.Shape[2])
}

// Parameters returns the weights and the bias.
func (s *SoftMax) Parameters() []*Parameter {
	return []*Parameter{s.wParam, s.bParam}
}

// Weights returns the live weight matrix.
func (s *SoftMax) Weights() *tensor.Matrix {
	return s.weights
}

// Bias returns the live bias vector.
func (s *SoftMax) Bias() *tensor.Vector {
	return s.bias
}

// InFeatures returns the flattened input length.
func (s *SoftMax) InFeatures() int {
	return s.inLen
}

// OutFeatures returns the number of classes.
func (s *SoftMax) OutFeatures() int {
	return s.outLen
}

// String returns a string representation of the layer.
func (s *SoftMax) String() string {
	return fmt.Sprintf("SoftMax(in=%d, out=%d)", s.inLen, s.outLen)
}

// shiftedExp returns exp(t - max t). Ratios of its elements equal those of
// exp(t), without overflow for large totals.
func shiftedExp(t *tensor.Vector) *tensor.Vector {
	return t.Shift(-t.Max()).Exp()
}

var _ Layer[*tensor.Volume, *tensor.Vector, *SoftMaxRecord] = (*SoftMax)(nil)
