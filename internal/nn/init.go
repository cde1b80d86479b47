package nn

import (
	"fmt"

	"github.com/born-ml/digits/internal/tensor"
)

// FilterSize is the side length of every convolution filter.
const FilterSize = 3

// InitFilters creates a bank of n uniform [0, 1) 3x3 filters.
//
// The bank is stored as an (n, 3, 3) volume: channel k is filter k.
func InitFilters(n int, src tensor.Source) *tensor.Volume {
	if n <= 0 {
		panic(fmt.Sprintf("init filters: invalid filter count %d", n))
	}
	return tensor.RandVolume(n, FilterSize, FilterSize, src)
}

// ScaledUniform creates a rows x cols matrix of uniform [0, 1) values
// scaled by 1/rows.
//
// Used for the softmax weights, where rows is the input length, to keep the
// initial logits close to each other.
func ScaledUniform(rows, cols int, src tensor.Source) *tensor.Matrix {
	return tensor.RandMatrix(rows, cols, src).Scale(1 / float32(rows))
}
