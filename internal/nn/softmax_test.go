package nn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"

	"github.com/born-ml/digits/internal/tensor"
)

// referenceLoss computes the cross-entropy of softmax(x·W + b) at label in
// float64, for use as a finite-difference oracle.
func referenceLoss(x, w, b []float64, label int) float64 {
	out := len(b)
	totals := make([]float64, out)
	maxT := math.Inf(-1)
	for j := range totals {
		t := b[j]
		for i, xi := range x {
			t += xi * w[i*out+j]
		}
		totals[j] = t
		maxT = math.Max(maxT, t)
	}
	sum := 0.0
	for _, t := range totals {
		sum += math.Exp(t - maxT)
	}
	return maxT + math.Log(sum) - totals[label]
}

func toFloat64(data []float32) []float64 {
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = float64(v)
	}
	return out
}

// TestSoftMax_Creation tests initialization of weights and bias.
func TestSoftMax_Creation(t *testing.T) {
	sm := NewSoftMax(1352, 10, tensor.NewSource(5))

	assert.Equal(t, 1352, sm.InFeatures())
	assert.Equal(t, 10, sm.OutFeatures())
	assert.True(t, sm.Weights().Shape().Equal(tensor.Shape{1352, 10}))
	assert.Equal(t, make([]float32, 10), sm.Bias().Data())

	for _, v := range sm.Weights().Data() {
		require.GreaterOrEqual(t, v, float32(0))
		require.LessOrEqual(t, v, float32(1)/1352)
	}

	params := sm.Parameters()
	require.Len(t, params, 2)
	assert.Equal(t, "softmax.weight", params[0].Name())
	assert.Equal(t, "softmax.bias", params[1].Name())
	assert.True(t, params[1].Shape().Equal(tensor.Shape{1, 10}))
}

// TestSoftMax_BiasFollowsOutputSize tests that the bias length is the
// configured number of outputs.
func TestSoftMax_BiasFollowsOutputSize(t *testing.T) {
	sm := NewSoftMax(18, 4, tensor.NewSource(5))

	assert.Equal(t, 4, sm.Bias().Len())
	assert.Panics(t, func() { NewSoftMaxFrom(tensor.NewMatrix(18, 4), tensor.NewVector(10)) })
}

// TestSoftMax_ZeroWeightsUniform tests that zero weights and bias give a
// uniform distribution.
func TestSoftMax_ZeroWeightsUniform(t *testing.T) {
	sm := NewSoftMaxFrom(tensor.NewMatrix(1352, 10), tensor.NewVector(10))

	probs, rec := sm.Forward(tensor.NewVolume(8, 13, 13))

	require.Equal(t, 10, probs.Len())
	for _, p := range probs.Data() {
		assert.InDelta(t, 0.1, p, 1e-6)
	}
	assert.True(t, rec.Shape.Equal(tensor.Shape{8, 13, 13}))
	assert.Equal(t, 1352, rec.Input.Len())
	assert.Equal(t, make([]float32, 10), rec.Totals.Data())
}

// TestSoftMax_ConcentratedLogit tests a single large logit at index 3.
func TestSoftMax_ConcentratedLogit(t *testing.T) {
	weights := tensor.NewMatrix(1, 10)
	weights.Set(0, 3, 10)
	sm := NewSoftMaxFrom(weights, tensor.NewVector(10))

	probs, rec := sm.Forward(volumeOf(1, 1, 1, 1))

	assert.Equal(t, float32(10), rec.Totals.At(3))
	// e^10 / (e^10 + 9)
	assert.InDelta(t, 0.999592, probs.At(3), 1e-5)
	assert.Equal(t, 3, probs.Argmax())
	assert.Less(t, CrossEntropy(probs, 3), float32(1e-3))
	assert.Greater(t, CrossEntropy(probs, 0), float32(9.9))
}

// TestSoftMax_ProbabilitiesSumToOne tests the output distribution on random
// inputs and weights.
func TestSoftMax_ProbabilitiesSumToOne(t *testing.T) {
	src := tensor.NewSource(17)

	for trial := 0; trial < 20; trial++ {
		sm := NewSoftMax(1352, 10, src)
		for i := range sm.Bias().Data() {
			sm.Bias().Data()[i] = 4*src.Float32() - 2
		}
		input := tensor.RandVolume(8, 13, 13, src)
		for i := range input.Data() {
			input.Data()[i] *= float32(trial)
		}

		probs, _ := sm.Forward(input)

		require.True(t, probs.IsFinite())
		sum := float64(0)
		for _, p := range probs.Data() {
			assert.GreaterOrEqual(t, p, float32(0))
			sum += float64(p)
		}
		assert.InDelta(t, 1.0, sum, 1e-5)
	}
}

// TestSoftMax_LargeTotals tests that totals far beyond the float32 exp range
// still yield finite probabilities.
func TestSoftMax_LargeTotals(t *testing.T) {
	weights := tensor.FromRows([][]float32{
		{500, 0},
		{500, 0},
	})
	sm := NewSoftMaxFrom(weights, tensor.NewVector(2))

	probs, _ := sm.Forward(volumeOf(1, 1, 2, 1, 1))

	require.True(t, probs.IsFinite())
	assert.InDelta(t, 1, probs.At(0), 1e-6)
	assert.InDelta(t, 0, probs.At(1), 1e-6)
}

// TestSoftMax_BackwardMatchesFiniteDifferences checks every analytic
// gradient against central differences of a float64 reference loss.
func TestSoftMax_BackwardMatchesFiniteDifferences(t *testing.T) {
	src := tensor.NewSource(23)
	sm := NewSoftMax(18, 4, src)
	for i := range sm.Bias().Data() {
		sm.Bias().Data()[i] = src.Float32() - 0.5
	}
	input := tensor.RandVolume(2, 3, 3, src)
	const label = 2

	x := toFloat64(input.Data())
	w := toFloat64(sm.Weights().Data())
	b := toFloat64(sm.Bias().Data())
	settings := &fd.Settings{Formula: fd.Central}

	probs, rec := sm.Forward(input)
	opt := &recorder{} // lr 0 keeps the parameters fixed
	dX := sm.Backward(rec, CrossEntropyGrad(probs, label), opt)

	wantB := fd.Gradient(nil, func(b []float64) float64 { return referenceLoss(x, w, b, label) }, b, settings)
	wantW := fd.Gradient(nil, func(w []float64) float64 { return referenceLoss(x, w, b, label) }, w, settings)
	wantX := fd.Gradient(nil, func(x []float64) float64 { return referenceLoss(x, w, b, label) }, x, settings)

	assert.InDeltaSlice(t, wantB, toFloat64(opt.last("softmax.bias")), 1e-3)
	assert.InDeltaSlice(t, wantW, toFloat64(opt.last("softmax.weight")), 1e-3)
	require.True(t, dX.Shape().Equal(tensor.Shape{2, 3, 3}))
	assert.InDeltaSlice(t, wantX, toFloat64(dX.Data()), 1e-3)
}

// TestSoftMax_BackwardBiasGradient tests that the bias gradient for the
// cross-entropy upstream gradient is probs - onehot(label), and that SGD is
// applied to both parameters.
func TestSoftMax_BackwardBiasGradient(t *testing.T) {
	src := tensor.NewSource(29)
	sm := NewSoftMax(1352, 10, src)
	input := tensor.RandVolume(8, 13, 13, src)
	weightsBefore := sm.Weights().Clone()

	probs, rec := sm.Forward(input)
	opt := &recorder{lr: 0.005}
	sm.Backward(rec, CrossEntropyGrad(probs, 7), opt)

	require.Len(t, opt.calls, 2)
	db := opt.last("softmax.bias")
	for j, p := range probs.Data() {
		want := p
		if j == 7 {
			want = p - 1
		}
		assert.InDelta(t, want, db[j], 1e-5)
		assert.InDelta(t, -0.005*want, sm.Bias().At(j), 1e-6)
	}

	dW := opt.last("softmax.weight")
	for i := 0; i < 1352; i += 97 {
		for j := 0; j < 10; j++ {
			idx := i*10 + j
			assert.InDelta(t, rec.Input.At(i)*db[j], dW[idx], 1e-5)
			assert.InDelta(t, weightsBefore.At(i, j)-0.005*dW[idx], sm.Weights().At(i, j), 1e-6)
		}
	}
}

// TestSoftMax_BackwardZeroGradient tests that an all-zero upstream gradient
// leaves the parameters alone and returns zeros.
func TestSoftMax_BackwardZeroGradient(t *testing.T) {
	sm := NewSoftMax(18, 4, tensor.NewSource(31))
	_, rec := sm.Forward(tensor.RandVolume(2, 3, 3, tensor.NewSource(32)))
	opt := &recorder{lr: 1}

	dX := sm.Backward(rec, tensor.NewVector(4), opt)

	assert.Empty(t, opt.calls)
	assert.True(t, dX.Shape().Equal(tensor.Shape{2, 3, 3}))
	assert.Equal(t, make([]float32, 18), dX.Data())
}

// TestSoftMax_BackwardLastNonZeroWins tests that with several non-zero
// upstream entries the returned gradient belongs to the last one, while
// every entry applies its own updates.
func TestSoftMax_BackwardLastNonZeroWins(t *testing.T) {
	src := tensor.NewSource(37)
	sm := NewSoftMax(18, 4, src)
	input := tensor.RandVolume(2, 3, 3, src)
	_, rec := sm.Forward(input)

	both := &recorder{}
	dBoth := sm.Backward(rec, tensor.VectorOf(-2, 0, 0, -3), both)

	onlyLast := &recorder{}
	dLast := sm.Backward(rec, tensor.VectorOf(0, 0, 0, -3), onlyLast)

	assert.Len(t, both.calls, 4)
	assert.Len(t, onlyLast.calls, 2)
	assert.Equal(t, dLast.Data(), dBoth.Data())
}

// TestSoftMax_BackwardPanics tests argument validation.
func TestSoftMax_BackwardPanics(t *testing.T) {
	sm := NewSoftMax(18, 4, tensor.NewSource(41))
	_, rec := sm.Forward(tensor.NewVolume(2, 3, 3))

	assert.Panics(t, func() { sm.Backward(nil, tensor.NewVector(4), &recorder{}) })
	assert.Panics(t, func() { sm.Backward(rec, tensor.NewVector(10), &recorder{}) })
	assert.Panics(t, func() { sm.Forward(tensor.NewVolume(8, 13, 13)) })
}
