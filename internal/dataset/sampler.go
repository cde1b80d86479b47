package dataset

import (
	"fmt"

	"github.com/born-ml/digits/internal/tensor"
)

// NumLabels is the number of digit classes.
const NumLabels = 10

// Sampler returns a uniformly random image whose ground truth is label.
type Sampler interface {
	Sample(label int) (*tensor.Matrix, error)
}

// RoundRobin yields labels 0, 1, ..., n-1, 0, 1, ... starting at 0.
type RoundRobin struct {
	n    int
	next int
}

// NewRoundRobin creates a counter over n labels.
func NewRoundRobin(n int) *RoundRobin {
	if n <= 0 {
		panic(fmt.Sprintf("round robin: invalid label count %d", n))
	}
	return &RoundRobin{n: n}
}

// Next returns the current label and advances, wrapping from n-1 to 0.
func (r *RoundRobin) Next() int {
	label := r.next
	r.next++
	if r.next == r.n {
		r.next = 0
	}
	return label
}

func checkLabel(label int) error {
	if label < 0 || label >= NumLabels {
		return fmt.Errorf("label %d out of range [0, %d)", label, NumLabels)
	}
	return nil
}
