package optim

import (
	"github.com/chewxy/math32"

	"github.com/born-ml/digits/internal/nn"
)

// Adam implements the Adam (Adaptive Moment Estimation) optimizer.
//
// Update rule, per parameter, with t counting that parameter's updates:
//
//	m_t = beta1 * m_{t-1} + (1-beta1) * gradient       // First moment
//	v_t = beta2 * v_{t-1} + (1-beta2) * gradient²      // Second moment
//	m_hat = m_t / (1 - beta1^t)                        // Bias correction
//	v_hat = v_t / (1 - beta2^t)                        // Bias correction
//	param = param - lr * m_hat / (sqrt(v_hat) + eps)
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014)
type Adam struct {
	lr     float32
	beta1  float32
	beta2  float32
	eps    float32
	states map[*nn.Parameter]*adamState
}

type adamState struct {
	t int       // Timestep for bias correction
	m []float32 // First moment estimates
	v []float32 // Second moment estimates
}

// AdamConfig holds configuration for Adam optimizer.
type AdamConfig struct {
	LR    float32    // Learning rate (default: 0.001)
	Betas [2]float32 // Coefficients for computing running averages (default: [0.9, 0.999])
	Eps   float32    // Term for numerical stability (default: 1e-8)
}

// NewAdam creates a new Adam optimizer.
//
// Default hyperparameters:
//   - LR: 0.001
//   - Beta1: 0.9
//   - Beta2: 0.999
//   - Eps: 1e-8
func NewAdam(config AdamConfig) *Adam {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}

	return &Adam{
		lr:     config.LR,
		beta1:  config.Betas[0],
		beta2:  config.Betas[1],
		eps:    config.Eps,
		states: make(map[*nn.Parameter]*adamState),
	}
}

// Update applies one Adam step to p in place.
func (a *Adam) Update(p *nn.Parameter, grad []float32) {
	checkGradient(p, grad)

	st, ok := a.states[p]
	if !ok {
		st = &adamState{
			m: make([]float32, p.NumElements()),
			v: make([]float32, p.NumElements()),
		}
		a.states[p] = st
	}
	st.t++

	biasCorrection1 := 1 - math32.Pow(a.beta1, float32(st.t))
	biasCorrection2 := 1 - math32.Pow(a.beta2, float32(st.t))

	data := p.Data()
	for i, g := range grad {
		st.m[i] = a.beta1*st.m[i] + (1-a.beta1)*g
		st.v[i] = a.beta2*st.v[i] + (1-a.beta2)*g*g

		mHat := st.m[i] / biasCorrection1
		vHat := st.v[i] / biasCorrection2

		data[i] -= a.lr * mHat / (math32.Sqrt(vHat) + a.eps)
	}
}

// GetLR returns the current learning rate.
func (a *Adam) GetLR() float32 {
	return a.lr
}

// SetLR updates the learning rate.
func (a *Adam) SetLR(lr float32) {
	a.lr = lr
}

// GetTimestep returns how many updates p has received.
func (a *Adam) GetTimestep(p *nn.Parameter) int {
	if st, ok := a.states[p]; ok {
		return st.t
	}
	return 0
}

var _ Optimizer = (*Adam)(nil)
