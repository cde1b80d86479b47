package nn

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/born-ml/digits/internal/tensor"
)

// MinProb is the floor applied to the true-class probability before taking
// its logarithm or reciprocal.
const MinProb = 1e-9

// CrossEntropy returns the cross-entropy loss of probs against a one-hot
// target at label.
//
// Mathematical Formulation:
//
//	Loss = -ln(max(probs[label], MinProb))
//
// probs is the output of SoftMax.Forward, not raw logits.
func CrossEntropy(probs *tensor.Vector, label int) float32 {
	return -math32.Log(trueProb(probs, label))
}

// CrossEntropyGrad returns dLoss/dprobs for CrossEntropy.
//
// The gradient is zero everywhere except at label, where it is
// -1/max(probs[label], MinProb).
func CrossEntropyGrad(probs *tensor.Vector, label int) *tensor.Vector {
	grad := tensor.NewVector(probs.Len())
	grad.Set(label, -1/trueProb(probs, label))
	return grad
}

// Correct reports whether the most probable class is label.
func Correct(probs *tensor.Vector, label int) bool {
	return probs.Argmax() == label
}

func trueProb(probs *tensor.Vector, label int) float32 {
	if label < 0 || label >= probs.Len() {
		panic(fmt.Sprintf("cross entropy: label %d out of range for %d classes", label, probs.Len()))
	}
	return math32.Max(probs.At(label), MinProb)
}
