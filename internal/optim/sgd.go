package optim

import (
	"github.com/born-ml/digits/internal/nn"
)

// SGD implements Stochastic Gradient Descent optimizer with optional momentum.
//
// Update rule without momentum:
//
//	param = param - lr * gradient
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + gradient
//	param = param - lr * velocity
//
// Example:
//
//	optimizer := optim.NewSGD(optim.SGDConfig{
//	    LR:       0.005,
//	    Momentum: 0.9,
//	})
//
//	conv.Backward(rec, grad, optimizer)
type SGD struct {
	lr         float32
	momentum   float32
	velocities map[*nn.Parameter][]float32
	order      []*nn.Parameter // First-update order, for StateDict keys
}

// SGDConfig holds configuration for SGD optimizer.
type SGDConfig struct {
	LR       float32 // Learning rate (default: 0.005)
	Momentum float32 // Momentum factor (default: 0.0, range: [0, 1))
}

// DefaultLR is the learning rate used when SGDConfig.LR is zero.
const DefaultLR = 0.005

// NewSGD creates a new SGD optimizer.
func NewSGD(config SGDConfig) *SGD {
	if config.LR == 0 {
		config.LR = DefaultLR
	}

	return &SGD{
		lr:         config.LR,
		momentum:   config.Momentum,
		velocities: make(map[*nn.Parameter][]float32),
	}
}

// Update applies one gradient step to p in place.
//
//   - Without momentum: param -= lr * grad
//   - With momentum: velocity = momentum * velocity + grad, param -= lr * velocity
//
// Panics if grad and p differ in length.
func (s *SGD) Update(p *nn.Parameter, grad []float32) {
	checkGradient(p, grad)

	if s.momentum == 0 {
		// Simple SGD: param -= lr * grad
		data := p.Data()
		for i, g := range grad {
			data[i] -= s.lr * g
		}
		return
	}

	s.updateWithMomentum(p, grad)
}

func (s *SGD) updateWithMomentum(p *nn.Parameter, grad []float32) {
	velocity, exists := s.velocities[p]
	if !exists {
		velocity = make([]float32, p.NumElements())
		s.velocities[p] = velocity
		s.order = append(s.order, p)
	}

	data := p.Data()
	for i, g := range grad {
		velocity[i] = s.momentum*velocity[i] + g
		data[i] -= s.lr * velocity[i]
	}
}

// GetLR returns the current learning rate.
func (s *SGD) GetLR() float32 {
	return s.lr
}

// SetLR updates the learning rate.
func (s *SGD) SetLR(lr float32) {
	s.lr = lr
}

// ZeroState drops all velocity buffers.
func (s *SGD) ZeroState() {
	s.velocities = make(map[*nn.Parameter][]float32)
	s.order = nil
}

// StateDict returns a copy of the velocity buffers keyed by parameter name.
//
// Without momentum, returns an empty map.
func (s *SGD) StateDict() map[string][]float32 {
	state := make(map[string][]float32, len(s.order))
	for _, p := range s.order {
		state["velocity."+p.Name()] = append([]float32(nil), s.velocities[p]...)
	}
	return state
}

var _ Optimizer = (*SGD)(nil)
