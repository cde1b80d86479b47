package tensor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestArgmax_TieKeepsEarliest tests that the first maximum wins.
func TestArgmax_TieKeepsEarliest(t *testing.T) {
	assert.Equal(t, 0, VectorOf(3, 3, 1).Argmax())
	assert.Equal(t, 1, VectorOf(1, 5, 5, 5).Argmax())
	assert.Equal(t, 3, VectorOf(-4, -3, -2, -1).Argmax())
	assert.Equal(t, 0, VectorOf(7).Argmax())
}

// TestVectorReductions tests Sum, Max and Exp.
func TestVectorReductions(t *testing.T) {
	v := VectorOf(0, 1, -1, 2)

	assert.Equal(t, float32(2), v.Sum())
	assert.Equal(t, float32(2), v.Max())

	e := v.Exp()
	require.Equal(t, 4, e.Len())
	for i, x := range v.Data() {
		assert.InDelta(t, math.Exp(float64(x)), float64(e.At(i)), 1e-5)
	}

	// Exp leaves its input alone
	assert.Equal(t, []float32{0, 1, -1, 2}, v.Data())
}

// TestVectorArithmetic tests Add, Scale and Shift.
func TestVectorArithmetic(t *testing.T) {
	a := VectorOf(1, 2, 3)
	b := VectorOf(0.5, 0.5, 0.5)

	assert.Equal(t, []float32{1.5, 2.5, 3.5}, a.Add(b).Data())
	assert.Equal(t, []float32{2, 4, 6}, a.Scale(2).Data())
	assert.Equal(t, []float32{-2, -1, 0}, a.Shift(-3).Data())
	assert.Panics(t, func() { a.Add(VectorOf(1)) })
}

// TestVectorRowColumn tests conversion to and from (1,n)/(n,1) matrices.
func TestVectorRowColumn(t *testing.T) {
	v := VectorOf(1, 2, 3)

	row := v.Row()
	col := v.Column()

	assert.True(t, row.Shape().Equal(Shape{1, 3}))
	assert.True(t, col.Shape().Equal(Shape{3, 1}))
	assert.Equal(t, v.Data(), row.Vector().Data())
	assert.Equal(t, v.Data(), col.Vector().Data())
	assert.Panics(t, func() { NewMatrix(2, 2).Vector() })
}

// TestVectorIsFinite tests NaN/Inf detection.
func TestVectorIsFinite(t *testing.T) {
	assert.True(t, VectorOf(0, 1, -1e30).IsFinite())
	assert.False(t, VectorOf(0, float32(math.Inf(1))).IsFinite())
	assert.False(t, VectorOf(float32(math.NaN()), 0).IsFinite())
}
