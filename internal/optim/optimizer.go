// Package optim implements optimization algorithms for training the digit
// classifier.
//
// This package provides:
//   - Optimizer interface: nn.Updater plus learning-rate access
//   - SGD: Stochastic Gradient Descent with optional momentum
//   - Adam: Adaptive Moment Estimation
//
// Layers call Update from their Backward pass, once per parameter gradient,
// so the parameter update happens inside backward, before the next forward.
//
// Example usage:
//
//	sgd := optim.NewSGD(optim.SGDConfig{LR: 0.005})
//
//	trace := net.Forward(img)
//	net.Backward(trace, nn.CrossEntropyGrad(trace.Probs, label), sgd)
package optim

import (
	"fmt"

	"github.com/born-ml/digits/internal/nn"
)

// Optimizer is the base interface for all optimization algorithms.
//
// All optimizers must implement:
//   - Update: Apply one gradient step to a parameter (nn.Updater)
//   - GetLR: Get current learning rate (for monitoring)
type Optimizer interface {
	nn.Updater

	// GetLR returns the current learning rate.
	GetLR() float32
}

// New creates the optimizer registered under name ("sgd" or "adam").
//
// momentum is only used by SGD.
func New(name string, lr, momentum float32) (Optimizer, error) {
	switch name {
	case "", "sgd":
		return NewSGD(SGDConfig{LR: lr, Momentum: momentum}), nil
	case "adam":
		return NewAdam(AdamConfig{LR: lr}), nil
	default:
		return nil, fmt.Errorf("unknown optimizer %q", name)
	}
}

// checkGradient panics if grad does not cover p.
func checkGradient(p *nn.Parameter, grad []float32) {
	if len(grad) != p.NumElements() {
		panic(fmt.Sprintf("update %s: gradient has %d values, parameter has %d", p.Name(), len(grad), p.NumElements()))
	}
}
