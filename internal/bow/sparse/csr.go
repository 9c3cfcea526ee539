// Package sparse holds a compressed sparse row matrix of float64 values.
package sparse

import (
	"fmt"
	"math"
	"sort"
)

// Matrix is a CSR matrix. Row i stores its column indices in
// Indices[Indptr[i]:Indptr[i+1]], sorted ascending, with values in the same
// span of Data.
type Matrix struct {
	Rows    int
	Cols    int
	Indptr  []int
	Indices []int
	Data    []float64
}

// Builder appends rows to a Matrix in order.
type Builder struct {
	m *Matrix
}

// NewBuilder starts an empty matrix with cols columns.
func NewBuilder(cols int) *Builder {
	return &Builder{m: &Matrix{Cols: cols, Indptr: []int{0}}}
}

// AddRow appends a row given as column to value entries. Zero values are
// dropped.
func (b *Builder) AddRow(entries map[int]float64) error {
	cols := make([]int, 0, len(entries))

	for c, v := range entries {
		if c < 0 || c >= b.m.Cols {
			return fmt.Errorf("sparse: column %d outside [0, %d)", c, b.m.Cols)
		}

		if v != 0 {
			cols = append(cols, c)
		}
	}

	sort.Ints(cols)

	for _, c := range cols {
		b.m.Indices = append(b.m.Indices, c)
		b.m.Data = append(b.m.Data, entries[c])
	}

	b.m.Rows++
	b.m.Indptr = append(b.m.Indptr, len(b.m.Indices))

	return nil
}

// Matrix returns the built matrix. The builder must not be used afterwards.
func (b *Builder) Matrix() *Matrix {
	return b.m
}

// NNZ returns the number of stored entries.
func (m *Matrix) NNZ() int {
	return len(m.Data)
}

// Row returns the column indices and values of row i. The slices alias the
// matrix storage.
func (m *Matrix) Row(i int) ([]int, []float64) {
	lo, hi := m.Indptr[i], m.Indptr[i+1]
	return m.Indices[lo:hi], m.Data[lo:hi]
}

// At returns the value at (i, j).
func (m *Matrix) At(i, j int) float64 {
	cols, vals := m.Row(i)

	k := sort.SearchInts(cols, j)
	if k < len(cols) && cols[k] == j {
		return vals[k]
	}

	return 0
}

// RowNorm returns the Euclidean norm of row i.
func (m *Matrix) RowNorm(i int) float64 {
	_, vals := m.Row(i)

	var sum float64
	for _, v := range vals {
		sum += v * v
	}

	return math.Sqrt(sum)
}

// Clone returns a deep copy.
func (m *Matrix) Clone() *Matrix {
	return &Matrix{
		Rows:    m.Rows,
		Cols:    m.Cols,
		Indptr:  append([]int(nil), m.Indptr...),
		Indices: append([]int(nil), m.Indices...),
		Data:    append([]float64(nil), m.Data...),
	}
}

// Validate checks the CSR invariants.
func (m *Matrix) Validate() error {
	if m.Rows < 0 || m.Cols < 0 || len(m.Indptr) != m.Rows+1 || m.Indptr[0] != 0 {
		return fmt.Errorf("sparse: indptr length %d for %d rows", len(m.Indptr), m.Rows)
	}

	if len(m.Indices) != len(m.Data) || m.Indptr[m.Rows] != len(m.Data) {
		return fmt.Errorf("sparse: %d indices, %d values, indptr ends at %d",
			len(m.Indices), len(m.Data), m.Indptr[m.Rows])
	}

	for i := 0; i < m.Rows; i++ {
		lo, hi := m.Indptr[i], m.Indptr[i+1]
		if hi < lo || hi > len(m.Indices) {
			return fmt.Errorf("sparse: row %d spans [%d, %d) over %d entries", i, lo, hi, len(m.Indices))
		}

		for k := lo; k < hi; k++ {
			c := m.Indices[k]
			if c < 0 || c >= m.Cols || (k > lo && c <= m.Indices[k-1]) {
				return fmt.Errorf("sparse: row %d has invalid column %d", i, c)
			}
		}
	}

	return nil
}
