package tensor

import "fmt"

// Matrix is a dense row-major 2-D array of float32 values.
//
// All operations allocate their result; receivers and arguments are never
// modified. Shape mismatches are programmer errors and panic with the
// operation name and both shapes.
type Matrix struct {
	rows int
	cols int
	data []float32
}

// NewMatrix creates a zero-filled rows x cols matrix.
func NewMatrix(rows, cols int) *Matrix {
	mustValidate("matrix", Shape{rows, cols})
	return &Matrix{
		rows: rows,
		cols: cols,
		data: make([]float32, rows*cols),
	}
}

// FromSlice creates a rows x cols matrix holding a copy of data.
func FromSlice(rows, cols int, data []float32) *Matrix {
	m := NewMatrix(rows, cols)
	if len(data) != len(m.data) {
		panic(fmt.Sprintf("matrix: %d values do not fill shape %v", len(data), m.Shape()))
	}
	copy(m.data, data)
	return m
}

// FromRows creates a matrix from a slice of equally long rows.
//
// Example:
//
//	m := tensor.FromRows([][]float32{
//	    {1, 2, 3},
//	    {4, 5, 6},
//	}) // (2, 3)
func FromRows(rows [][]float32) *Matrix {
	if len(rows) == 0 {
		panic("matrix: at least one row required")
	}
	m := NewMatrix(len(rows), len(rows[0]))
	for i, row := range rows {
		if len(row) != m.cols {
			panic(fmt.Sprintf("matrix: row %d has %d values, want %d", i, len(row), m.cols))
		}
		copy(m.data[i*m.cols:], row)
	}
	return m
}

// RandMatrix creates a rows x cols matrix of uniform [0, 1) values drawn from src.
func RandMatrix(rows, cols int, src Source) *Matrix {
	m := NewMatrix(rows, cols)
	fillUniform(m.data, src)
	return m
}

// Rows returns the number of rows.
func (m *Matrix) Rows() int { return m.rows }

// Cols returns the number of columns.
func (m *Matrix) Cols() int { return m.cols }

// Shape returns [rows, cols].
func (m *Matrix) Shape() Shape { return Shape{m.rows, m.cols} }

// At returns the element at row i, column j.
func (m *Matrix) At(i, j int) float32 {
	m.checkIndex("at", i, j)
	return m.data[i*m.cols+j]
}

// Set stores v at row i, column j.
func (m *Matrix) Set(i, j int, v float32) {
	m.checkIndex("set", i, j)
	m.data[i*m.cols+j] = v
}

// Data returns the row-major backing slice. Writes through it are visible
// to the matrix; it is how parameters are updated in place.
func (m *Matrix) Data() []float32 { return m.data }

// Clone returns a deep copy.
func (m *Matrix) Clone() *Matrix {
	return FromSlice(m.rows, m.cols, m.data)
}

// MatMul performs matrix multiplication: (k, l) @ (l, m) -> (k, m).
// Uses the naive O(n³) loop.
func (m *Matrix) MatMul(other *Matrix) *Matrix {
	if m.cols != other.rows {
		panic(fmt.Sprintf("matmul: shape mismatch %v @ %v", m.Shape(), other.Shape()))
	}

	result := NewMatrix(m.rows, other.cols)
	n := other.cols
	for i := 0; i < m.rows; i++ {
		row := m.data[i*m.cols : (i+1)*m.cols]
		for j := 0; j < n; j++ {
			sum := float32(0)
			for k, a := range row {
				sum += a * other.data[k*n+j]
			}
			result.data[i*n+j] = sum
		}
	}
	return result
}

// Add returns the element-wise sum of two matrices of identical shape.
func (m *Matrix) Add(other *Matrix) *Matrix {
	m.checkSameShape("add", other)
	result := NewMatrix(m.rows, m.cols)
	for i, v := range m.data {
		result.data[i] = v + other.data[i]
	}
	return result
}

// Scale returns a copy with every element multiplied by s.
func (m *Matrix) Scale(s float32) *Matrix {
	result := NewMatrix(m.rows, m.cols)
	for i, v := range m.data {
		result.data[i] = v * s
	}
	return result
}

// Transpose returns the (cols, rows) transpose.
func (m *Matrix) Transpose() *Matrix {
	result := NewMatrix(m.cols, m.rows)
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			result.data[j*m.rows+i] = m.data[i*m.cols+j]
		}
	}
	return result
}

// Region copies the sub-matrix bounded by the inclusive row range [rs, re]
// and column range [cs, ce]. The result has shape (re-rs+1, ce-cs+1).
func (m *Matrix) Region(rs, re, cs, ce int) *Matrix {
	if rs < 0 || cs < 0 || re < rs || ce < cs || re >= m.rows || ce >= m.cols {
		panic(fmt.Sprintf("region: bounds rows [%d, %d] cols [%d, %d] outside shape %v",
			rs, re, cs, ce, m.Shape()))
	}

	result := NewMatrix(re-rs+1, ce-cs+1)
	for i := 0; i < result.rows; i++ {
		src := m.data[(rs+i)*m.cols+cs : (rs+i)*m.cols+ce+1]
		copy(result.data[i*result.cols:], src)
	}
	return result
}

// Dot returns the element-wise product-sum of two matrices of identical shape.
func (m *Matrix) Dot(other *Matrix) float32 {
	m.checkSameShape("dot", other)
	sum := float32(0)
	for i, v := range m.data {
		sum += v * other.data[i]
	}
	return sum
}

// Max returns the greatest element.
func (m *Matrix) Max() float32 {
	best := m.data[0]
	for _, v := range m.data[1:] {
		if v > best {
			best = v
		}
	}
	return best
}

// Flatten reads the matrix in row-major order into a vector of length rows*cols.
func (m *Matrix) Flatten() *Vector {
	return VectorOf(m.data...)
}

// Vector converts a (1, n) or (n, 1) matrix into a vector of length n.
func (m *Matrix) Vector() *Vector {
	if m.rows != 1 && m.cols != 1 {
		panic(fmt.Sprintf("vector: shape %v is not a row or column", m.Shape()))
	}
	return VectorOf(m.data...)
}

func (m *Matrix) checkIndex(op string, i, j int) {
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		panic(fmt.Sprintf("%s: index (%d, %d) out of range for shape %v", op, i, j, m.Shape()))
	}
}

func (m *Matrix) checkSameShape(op string, other *Matrix) {
	if m.rows != other.rows || m.cols != other.cols {
		panic(fmt.Sprintf("%s: shape mismatch %v vs %v", op, m.Shape(), other.Shape()))
	}
}
