package nn

import "github.com/born-ml/digits/internal/tensor"

// update is one recorded Updater call.
type update struct {
	name string
	grad []float32
}

// recorder captures gradients and optionally applies plain SGD.
type recorder struct {
	lr    float32
	calls []update
}

func (r *recorder) Update(p *Parameter, grad []float32) {
	r.calls = append(r.calls, update{name: p.Name(), grad: append([]float32(nil), grad...)})
	for i, g := range grad {
		p.Data()[i] -= r.lr * g
	}
}

// last returns the most recent gradient recorded for the named parameter.
func (r *recorder) last(name string) []float32 {
	for i := len(r.calls) - 1; i >= 0; i-- {
		if r.calls[i].name == name {
			return r.calls[i].grad
		}
	}
	return nil
}

// volumeOf builds a (d, h, w) volume from values in channel, row, column order.
func volumeOf(d, h, w int, values ...float32) *tensor.Volume {
	return tensor.Reshape(tensor.VectorOf(values...), d, h, w)
}
