// Package tensor provides the row-major numeric array type shared by every
// pipeline step. A Matrix has rank >= 2: the first axis indexes samples and
// all trailing axes are opaque payload that individual transforms may reshape
// or reduce. Row order is sample identity and is preserved by every
// operation in this package.
//
// Structural misuse (negative dimensions, out-of-range indices, ragged input)
// panics, following gonum/mat conventions. Data-dependent failures surface as
// errors from the callers that own them.
package tensor

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Matrix is a dense row-major array of rank >= 2.
type Matrix struct {
	shape []int
	data  []float64
}

// Zeros allocates a zero-filled matrix with the given shape.
func Zeros(shape ...int) *Matrix {
	size := checkShape(shape)
	return &Matrix{shape: cloneInts(shape), data: make([]float64, size)}
}

// FromRows builds a rank-2 matrix from a non-ragged slice of rows.
func FromRows(rows [][]float64) *Matrix {
	if len(rows) == 0 {
		panic("tensor: FromRows requires at least one row")
	}
	cols := len(rows[0])
	m := Zeros(len(rows), cols)
	for i, row := range rows {
		if len(row) != cols {
			panic(fmt.Sprintf("tensor: ragged input, row %d has %d values, want %d", i, len(row), cols))
		}
		copy(m.Row(i), row)
	}
	return m
}

// FromFlat wraps a flat backing slice with the given shape. The slice is
// copied; the caller keeps ownership of data.
func FromFlat(data []float64, shape ...int) *Matrix {
	size := checkShape(shape)
	if len(data) != size {
		panic(fmt.Sprintf("tensor: %d values do not fill shape %v", len(data), shape))
	}
	m := &Matrix{shape: cloneInts(shape), data: make([]float64, size)}
	copy(m.data, data)
	return m
}

// FromDense converts a gonum dense matrix into a rank-2 Matrix.
func FromDense(d *mat.Dense) *Matrix {
	r, c := d.Dims()
	m := Zeros(r, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			m.data[i*c+j] = d.At(i, j)
		}
	}
	return m
}

// Rows returns the number of samples (the leading dimension).
func (m *Matrix) Rows() int { return m.shape[0] }

// Rank returns the number of axes.
func (m *Matrix) Rank() int { return len(m.shape) }

// RowSize returns the number of values in a single sample, the product of
// all trailing dimensions.
func (m *Matrix) RowSize() int {
	size := 1
	for _, d := range m.shape[1:] {
		size *= d
	}
	return size
}

// Shape returns a copy of the full shape.
func (m *Matrix) Shape() []int { return cloneInts(m.shape) }

// Row returns the flattened payload of sample i as a mutable view.
func (m *Matrix) Row(i int) []float64 {
	rs := m.RowSize()
	return m.data[i*rs : (i+1)*rs : (i+1)*rs]
}

// SetRow overwrites the payload of sample i.
func (m *Matrix) SetRow(i int, row []float64) {
	dst := m.Row(i)
	if len(row) != len(dst) {
		panic(fmt.Sprintf("tensor: SetRow got %d values, want %d", len(row), len(dst)))
	}
	copy(dst, row)
}

// At returns element (i, j) of a rank-2 matrix.
func (m *Matrix) At(i, j int) float64 {
	m.mustRank2("At")
	return m.data[i*m.shape[1]+j]
}

// Set assigns element (i, j) of a rank-2 matrix.
func (m *Matrix) Set(i, j int, v float64) {
	m.mustRank2("Set")
	m.data[i*m.shape[1]+j] = v
}

// Cols returns the number of features of a rank-2 matrix.
func (m *Matrix) Cols() int {
	m.mustRank2("Cols")
	return m.shape[1]
}

// Take gathers the given sample indices, in the order given, into a new
// matrix with the same trailing shape.
func (m *Matrix) Take(idx []int) *Matrix {
	out := m.ZerosLike(len(idx))
	for dst, src := range idx {
		copy(out.Row(dst), m.Row(src))
	}
	return out
}

// ZerosLike allocates a zero matrix holding rows samples with the same
// trailing shape as m.
func (m *Matrix) ZerosLike(rows int) *Matrix {
	shape := cloneInts(m.shape)
	shape[0] = rows
	return &Matrix{shape: shape, data: make([]float64, rows*m.RowSize())}
}

// Clone returns a deep copy.
func (m *Matrix) Clone() *Matrix {
	n := &Matrix{shape: cloneInts(m.shape), data: make([]float64, len(m.data))}
	copy(n.data, m.data)
	return n
}

// Reshape returns a copy of m with a new shape covering the same number of
// values. The leading dimension must stay the sample count.
func (m *Matrix) Reshape(shape ...int) *Matrix {
	size := checkShape(shape)
	if size != len(m.data) {
		panic(fmt.Sprintf("tensor: cannot reshape %v into %v", m.shape, shape))
	}
	if shape[0] != m.shape[0] {
		panic("tensor: Reshape must preserve the sample axis")
	}
	out := m.Clone()
	out.shape = cloneInts(shape)
	return out
}

// Dense converts a rank-2 matrix into a gonum dense matrix. The returned
// value owns its own backing array.
func (m *Matrix) Dense() *mat.Dense {
	m.mustRank2("Dense")
	data := make([]float64, len(m.data))
	copy(data, m.data)
	return mat.NewDense(m.shape[0], m.shape[1], data)
}

func (m *Matrix) mustRank2(op string) {
	if len(m.shape) != 2 {
		panic(fmt.Sprintf("tensor: %s requires rank 2, have rank %d", op, len(m.shape)))
	}
}

func checkShape(shape []int) int {
	if len(shape) < 2 {
		panic(fmt.Sprintf("tensor: rank must be >= 2, got shape %v", shape))
	}
	size := 1
	for _, d := range shape {
		if d < 0 {
			panic(fmt.Sprintf("tensor: negative dimension in shape %v", shape))
		}
		size *= d
	}
	return size
}

func cloneInts(s []int) []int {
	out := make([]int, len(s))
	copy(out, s)
	return out
}
