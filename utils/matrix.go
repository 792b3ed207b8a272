package utils

import (
	"gonum.org/v1/gonum/mat"
)

// NewSymTriDiagonal composes a symmetric tridiagonal matrix from its main
// diagonal d0 and first off diagonal d1
func NewSymTriDiagonal(d0, d1 []float64) (Tri *mat.SymDense) {
	var (
		N = len(d0)
	)
	if len(d1) != N-1 {
		panic("off diagonal must have one less element than the diagonal")
	}
	Tri = mat.NewSymDense(N, nil)
	for i := 0; i < N; i++ {
		Tri.SetSym(i, i, d0[i])
		if i < N-1 {
			Tri.SetSym(i, i+1, d1[i])
		}
	}
	return
}
