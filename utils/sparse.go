package utils

import (
	"fmt"
	"sort"

	"github.com/james-bowman/sparse"
	"github.com/james-bowman/sparse/blas"
	"gonum.org/v1/gonum/mat"
)

type CSR struct {
	M    *sparse.CSR
	name string
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m CSR) Dims() (r, c int)              { return m.M.Dims() }
func (m CSR) At(i, j int) float64           { return m.M.At(i, j) }
func (m CSR) T() mat.Matrix                 { return m.M.T() }
func (m CSR) RawMatrix() *blas.SparseMatrix { return m.M.RawMatrix() }
func (m CSR) NNZ() int                      { return m.M.NNZ() }
func (m CSR) Name() string                  { return m.name }

// Row returns the column indices and values stored for row i, without copying
func (m CSR) Row(i int) (cols []int, vals []float64) {
	raw := m.RawMatrix()
	b, e := raw.Indptr[i], raw.Indptr[i+1]
	return raw.Ind[b:e], raw.Data[b:e]
}

// MulVecTo computes dst = M*x, overwriting dst
func (m CSR) MulVecTo(dst, x []float64) {
	for i := range dst {
		dst[i] = 0
	}
	m.M.MulVecTo(dst, false, x)
}

func (m CSR) ToDense() *mat.Dense {
	return m.M.ToDense()
}

// CSRBuilder accumulates a matrix one row at a time, in row order, into a
// DOK that is converted on Build
type CSRBuilder struct {
	dok  *sparse.DOK
	row  int
	name string
}

func NewCSRBuilder(nr, nc int, name string) (cb *CSRBuilder) {
	cb = &CSRBuilder{
		dok:  sparse.NewDOK(nr, nc),
		name: name,
	}
	return
}

// AddRow appends the next row. Columns need not be sorted and repeated
// columns are summed.
func (cb *CSRBuilder) AddRow(cols []int, vals []float64) (err error) {
	nr, nc := cb.dok.Dims()
	if len(cols) != len(vals) {
		err = fmt.Errorf("row %d of %s: %d columns and %d values",
			cb.row, cb.name, len(cols), len(vals))
		return
	}
	if cb.row >= nr {
		err = fmt.Errorf("matrix %s already has %d rows", cb.name, nr)
		return
	}
	for _, j := range cols {
		if j < 0 || j >= nc {
			err = fmt.Errorf("row %d of %s: column %d out of range [0,%d)", cb.row, cb.name, j, nc)
			return
		}
	}
	for k, j := range cols {
		cb.dok.Set(cb.row, j, cb.dok.At(cb.row, j)+vals[k])
	}
	cb.row++
	return
}

// Build converts the rows to CSR, with the columns of each row sorted
func (cb *CSRBuilder) Build() (m CSR, err error) {
	if nr, _ := cb.dok.Dims(); cb.row != nr {
		err = fmt.Errorf("matrix %s has %d of %d rows", cb.name, cb.row, nr)
		return
	}
	m = CSR{M: cb.dok.ToCSR(), name: cb.name}
	raw := m.RawMatrix()
	for i := 0; i < raw.I; i++ {
		sort.Sort(rowEntries{raw.Ind[raw.Indptr[i]:raw.Indptr[i+1]], raw.Data[raw.Indptr[i]:raw.Indptr[i+1]]})
	}
	return
}

type rowEntries struct {
	ind  []int
	data []float64
}

func (r rowEntries) Len() int           { return len(r.ind) }
func (r rowEntries) Less(a, b int) bool { return r.ind[a] < r.ind[b] }
func (r rowEntries) Swap(a, b int) {
	r.ind[a], r.ind[b] = r.ind[b], r.ind[a]
	r.data[a], r.data[b] = r.data[b], r.data[a]
}
