package linsolve

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/notargets/gomeshless/utils"
)

// DirectSolver factors the matrix once with dense LU. The dense copy takes
// N^2 values per matrix, so a sweep holding one per ordinate and group grows
// as O*G*N^2. SparseLUSolver keeps only the fill of the sparsity pattern.
type DirectSolver struct {
	n  int
	lu mat.LU
}

func (ds *DirectSolver) Method() Method { return Direct }

func (ds *DirectSolver) Assemble(A utils.CSR) (err error) {
	if ds.n, err = checkSquare(A); err != nil {
		return
	}
	ds.lu.Factorize(A.ToDense())
	if cond := ds.lu.Cond(); cond > 1/1.e-15 {
		err = fmt.Errorf("matrix %s is singular to working precision, condition %g", A.Name(), cond)
	}
	return
}

func (ds *DirectSolver) Solve(b, x []float64) (r Result, err error) {
	defer func() { record(Direct, r, err) }()
	if len(b) != ds.n || len(x) != ds.n {
		err = fmt.Errorf("direct solve of size %d with b %d and x %d", ds.n, len(b), len(x))
		return
	}
	xv := mat.NewVecDense(ds.n, x)
	if err = ds.lu.SolveVecTo(xv, false, mat.NewVecDense(ds.n, b)); err != nil {
		return
	}
	r = Result{Converged: true}
	return
}

// SparseLUSolver factors the matrix in its own sparsity pattern, keeping
// every fill entry, without row exchanges
type SparseLUSolver struct {
	f *iluFactors
}

func (ss *SparseLUSolver) Method() Method { return SparseLU }

func (ss *SparseLUSolver) Assemble(A utils.CSR) (err error) {
	n, err := checkSquare(A)
	if err != nil {
		return
	}
	ss.f, err = factorILU(A, dropRule{level: n})
	return
}

// Stored is the number of values held by the factors
func (ss *SparseLUSolver) Stored() (nnz int) {
	for i := 0; i < ss.f.n; i++ {
		nnz += len(ss.f.lVals[i]) + len(ss.f.uVals[i])
	}
	return
}

func (ss *SparseLUSolver) Solve(b, x []float64) (r Result, err error) {
	defer func() { record(SparseLU, r, err) }()
	if ss.f == nil {
		err = fmt.Errorf("sparse LU solve before assembly")
		return
	}
	if len(b) != ss.f.n || len(x) != ss.f.n {
		err = fmt.Errorf("sparse LU solve of size %d with b %d and x %d", ss.f.n, len(b), len(x))
		return
	}
	ss.f.apply(x, b)
	if k := utils.FirstNonFinite(x); k >= 0 {
		err = fmt.Errorf("sparse LU solution is not finite at entry %d", k)
		return
	}
	r = Result{Converged: true}
	return
}
