package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/digits/internal/tensor"
)

// TestMaxPool2x2_Creation tests layer creation.
func TestMaxPool2x2_Creation(t *testing.T) {
	pool := NewMaxPool2x2()

	assert.Empty(t, pool.Parameters(), "MaxPool2x2 has no learnable params")
	assert.Equal(t, [2]int{13, 13}, pool.ComputeOutputSize(26, 26))
	assert.Equal(t, "MaxPool2x2(kernel_size=2, stride=2)", pool.String())
}

// TestMaxPool2x2_Forward tests the 4x4 example.
func TestMaxPool2x2_Forward(t *testing.T) {
	input := volumeOf(1, 4, 4,
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16,
	)

	out, rec := NewMaxPool2x2().Forward(input)

	require.True(t, out.Shape().Equal(tensor.Shape{1, 2, 2}))
	assert.Equal(t, []float32{6, 8, 14, 16}, out.Data())
	assert.Same(t, input, rec.Input)
	assert.Same(t, out, rec.Output)
}

// TestMaxPool2x2_ForwardFillsLastRowAndColumn tests that the last pooled row
// and column are computed.
func TestMaxPool2x2_ForwardFillsLastRowAndColumn(t *testing.T) {
	input := tensor.NewVolume(8, 26, 26)
	input.Set(5, 25, 25, 3)
	input.Set(5, 24, 0, 4)

	out, _ := NewMaxPool2x2().Forward(input)

	require.True(t, out.Shape().Equal(tensor.Shape{8, 13, 13}))
	assert.Equal(t, float32(3), out.At(5, 12, 12))
	assert.Equal(t, float32(4), out.At(5, 12, 0))
}

// TestMaxPool2x2_BackwardRouting tests that a single max is the only
// position receiving gradient.
func TestMaxPool2x2_BackwardRouting(t *testing.T) {
	pool := NewMaxPool2x2()
	input := tensor.NewVolume(8, 26, 26)
	input.Set(2, 5, 7, 1)

	_, rec := pool.Forward(input)

	grad := tensor.NewVolume(8, 13, 13)
	grad.Set(2, 2, 3, 1)

	dInput := pool.Backward(rec, grad, nil)

	require.True(t, dInput.Shape().Equal(tensor.Shape{8, 26, 26}))
	for k := 0; k < 8; k++ {
		for i := 0; i < 26; i++ {
			for j := 0; j < 26; j++ {
				want := float32(0)
				if k == 2 && i == 5 && j == 7 {
					want = 1
				}
				require.Equal(t, want, dInput.At(k, i, j), "(%d, %d, %d)", k, i, j)
			}
		}
	}
}

// TestMaxPool2x2_GradientSupport tests that, for distinct window values, the
// non-zero positions of the input gradient are exactly the window argmaxes.
func TestMaxPool2x2_GradientSupport(t *testing.T) {
	src := tensor.NewSource(3)
	pool := NewMaxPool2x2()

	for trial := 0; trial < 5; trial++ {
		input := tensor.RandVolume(8, 26, 26, src)
		_, rec := pool.Forward(input)

		grad := tensor.NewVolume(8, 13, 13)
		for i := range grad.Data() {
			grad.Data()[i] = 1 + src.Float32()
		}

		dInput := pool.Backward(rec, grad, nil)

		for c := 0; c < 8; c++ {
			for i := 0; i < 13; i++ {
				for j := 0; j < 13; j++ {
					bestH, bestW := 2*i, 2*j
					for m := 0; m < 2; m++ {
						for n := 0; n < 2; n++ {
							if input.At(c, 2*i+m, 2*j+n) > input.At(c, bestH, bestW) {
								bestH, bestW = 2*i+m, 2*j+n
							}
						}
					}
					for m := 0; m < 2; m++ {
						for n := 0; n < 2; n++ {
							h, w := 2*i+m, 2*j+n
							if h == bestH && w == bestW {
								assert.Equal(t, grad.At(c, i, j), dInput.At(c, h, w))
							} else {
								assert.Zero(t, dInput.At(c, h, w))
							}
						}
					}
				}
			}
		}
	}
}

// TestMaxPool2x2_BackwardTies tests that tied maxima all receive the full
// gradient without normalization.
func TestMaxPool2x2_BackwardTies(t *testing.T) {
	pool := NewMaxPool2x2()
	input := volumeOf(1, 2, 2,
		1, 1,
		0, 1,
	)
	_, rec := pool.Forward(input)

	dInput := pool.Backward(rec, volumeOf(1, 1, 1, 0.5), nil)

	assert.Equal(t, []float32{0.5, 0.5, 0, 0.5}, dInput.Data())
}

// TestMaxPool2x2_BackwardShapeMismatch tests argument validation.
func TestMaxPool2x2_BackwardShapeMismatch(t *testing.T) {
	pool := NewMaxPool2x2()
	_, rec := pool.Forward(tensor.NewVolume(8, 26, 26))

	assert.Panics(t, func() { pool.Backward(rec, tensor.NewVolume(8, 26, 26), nil) })
	assert.Panics(t, func() { pool.Backward(nil, tensor.NewVolume(8, 13, 13), nil) })
	assert.Panics(t, func() { pool.Forward(tensor.NewVolume(1, 1, 4)) })
}
