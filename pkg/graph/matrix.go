package graph

import (
	"encoding/json"
	"fmt"
)

// IntMatrix is a dense, row-major integer matrix with optional row and
// column labels. It is treated as read-only once built.
type IntMatrix struct {
	rows, cols int
	data       []int

	rowLabels []string
	colLabels []string
}

// NewIntMatrix returns a zero-filled rows×cols matrix.
func NewIntMatrix(rows, cols int) *IntMatrix {
	return &IntMatrix{
		rows: rows,
		cols: cols,
		data: make([]int, rows*cols),
	}
}

// IntMatrixFromRows builds a matrix from a slice of equally sized rows.
func IntMatrixFromRows(values [][]int) (*IntMatrix, error) {
	if len(values) == 0 {
		return NewIntMatrix(0, 0), nil
	}
	cols := len(values[0])
	m := NewIntMatrix(len(values), cols)
	for i, row := range values {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrDimensionMismatch, i, len(row), cols)
		}
		copy(m.data[i*cols:(i+1)*cols], row)
	}
	return m, nil
}

func (m *IntMatrix) Rows() int { return m.rows }
func (m *IntMatrix) Cols() int { return m.cols }

// At returns the element at row i, column j.
func (m *IntMatrix) At(i, j int) int {
	return m.data[i*m.cols+j]
}

func (m *IntMatrix) set(i, j, v int) {
	m.data[i*m.cols+j] = v
}

// Row returns a copy of row i.
func (m *IntMatrix) Row(i int) []int {
	out := make([]int, m.cols)
	copy(out, m.data[i*m.cols:(i+1)*m.cols])
	return out
}

// RowSum returns the sum of row i.
func (m *IntMatrix) RowSum(i int) int {
	sum := 0
	for _, v := range m.data[i*m.cols : (i+1)*m.cols] {
		sum += v
	}
	return sum
}

// RowLabels returns a copy of the row labels.
func (m *IntMatrix) RowLabels() []string { return append([]string(nil), m.rowLabels...) }

// ColLabels returns a copy of the column labels.
func (m *IntMatrix) ColLabels() []string { return append([]string(nil), m.colLabels...) }

// IsSymmetric reports whether the matrix is square and equal to its transpose.
func (m *IntMatrix) IsSymmetric() bool {
	if m.rows != m.cols {
		return false
	}
	for i := 0; i < m.rows; i++ {
		for j := i + 1; j < m.cols; j++ {
			if m.At(i, j) != m.At(j, i) {
				return false
			}
		}
	}
	return true
}

// Gram returns MᵀM. Only non-zero entries of each row are visited, so the
// cost is proportional to the sum of squared row densities.
func (m *IntMatrix) Gram() *IntMatrix {
	out := NewIntMatrix(m.cols, m.cols)
	nz := make([]int, 0, m.cols)
	for r := 0; r < m.rows; r++ {
		nz = nz[:0]
		for c := 0; c < m.cols; c++ {
			if m.At(r, c) != 0 {
				nz = append(nz, c)
			}
		}
		for _, a := range nz {
			va := m.At(r, a)
			for _, b := range nz {
				out.data[a*out.cols+b] += va * m.At(r, b)
			}
		}
	}
	out.rowLabels = m.ColLabels()
	out.colLabels = m.ColLabels()
	return out
}

func (m *IntMatrix) withLabels(rows, cols []string) *IntMatrix {
	m.rowLabels = rows
	m.colLabels = cols
	return m
}

type intMatrixJSON struct {
	Rows    []string `json:"rows,omitempty"`
	Columns []string `json:"columns,omitempty"`
	Values  [][]int  `json:"values"`
}

// MarshalJSON encodes the matrix as labelled nested rows.
func (m *IntMatrix) MarshalJSON() ([]byte, error) {
	values := make([][]int, m.rows)
	for i := range values {
		values[i] = m.Row(i)
	}
	return json.Marshal(intMatrixJSON{
		Rows:    m.rowLabels,
		Columns: m.colLabels,
		Values:  values,
	})
}
