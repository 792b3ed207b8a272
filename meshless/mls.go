package meshless

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// LinearMLSFunction is a moving least squares shape function with a linear
// polynomial basis. neighbors[0] is the weight function of this shape
// function; the rest are every weight function whose support overlaps it.
// Where the moment matrix is singular the value is NaN.
type LinearMLSFunction struct {
	dimension int
	position  []float64
	scale     float64
	neighbors []Function
	centers   [][]float64 // polynomial evaluated at each neighbor center
}

func NewLinearMLSFunction(neighbors []Function) (f *LinearMLSFunction, err error) {
	if len(neighbors) == 0 {
		err = fmt.Errorf("MLS function needs at least its own weight function")
		return
	}
	own := neighbors[0]
	f = &LinearMLSFunction{
		dimension: own.Dimension(),
		position:  own.Position(),
		scale:     own.Radius(),
		neighbors: neighbors,
	}
	if math.IsInf(f.scale, 0) || f.scale <= 0 {
		err = fmt.Errorf("MLS weight function needs a finite positive radius, got %g", f.scale)
		return
	}
	for _, nb := range neighbors {
		if nb.Dimension() != f.dimension {
			err = fmt.Errorf("MLS neighbor dimension %d differs from %d", nb.Dimension(), f.dimension)
			return
		}
		f.centers = append(f.centers, f.polynomial(nb.Position()))
	}
	return
}

func (f *LinearMLSFunction) Dimension() int      { return f.dimension }
func (f *LinearMLSFunction) Position() []float64 { return f.position }
func (f *LinearMLSFunction) Radius() float64     { return f.neighbors[0].Radius() }

func (f *LinearMLSFunction) polynomial(x []float64) (p []float64) {
	p = make([]float64, f.dimension+1)
	p[0] = 1
	for d := 0; d < f.dimension; d++ {
		p[d+1] = (x[d] - f.position[d]) / f.scale
	}
	return
}

func (f *LinearMLSFunction) Value(x []float64) float64 {
	val, _ := f.evaluate(x, false)
	return val
}

func (f *LinearMLSFunction) Gradient(x []float64, grad []float64) {
	_, g := f.evaluate(x, true)
	copy(grad, g)
}

func (f *LinearMLSFunction) evaluate(x []float64, withGradient bool) (val float64, grad []float64) {
	var (
		D    = f.dimension
		P    = D + 1
		wk   = make([]float64, len(f.neighbors))
		gk   = make([][]float64, len(f.neighbors))
		ownG = make([]float64, D)
	)
	grad = make([]float64, D)
	own := f.neighbors[0]
	wOwn := own.Value(x)
	own.Gradient(x, ownG)
	if wOwn == 0 && isZero(ownG) {
		return
	}

	A := mat.NewSymDense(P, nil)
	dA := make([]*mat.Dense, D)
	for d := range dA {
		dA[d] = mat.NewDense(P, P, nil)
	}
	for k, nb := range f.neighbors {
		if k == 0 {
			wk[k], gk[k] = wOwn, ownG
		} else {
			wk[k] = nb.Value(x)
			gk[k] = make([]float64, D)
			if withGradient {
				nb.Gradient(x, gk[k])
			}
		}
		if wk[k] == 0 && isZero(gk[k]) {
			continue
		}
		pk := f.centers[k]
		for a := 0; a < P; a++ {
			for b := a; b < P; b++ {
				A.SetSym(a, b, A.At(a, b)+wk[k]*pk[a]*pk[b])
			}
			if withGradient {
				for d := 0; d < D; d++ {
					for b := 0; b < P; b++ {
						dA[d].Set(a, b, dA[d].At(a, b)+gk[k][d]*pk[a]*pk[b])
					}
				}
			}
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(A); !ok {
		val = math.NaN()
		for d := range grad {
			grad[d] = math.NaN()
		}
		return
	}
	var (
		p     = mat.NewVecDense(P, f.polynomial(x))
		gamma = mat.NewVecDense(P, nil)
		pj    = mat.NewVecDense(P, f.centers[0])
	)
	if err := chol.SolveVecTo(gamma, p); err != nil {
		val = math.NaN()
		return
	}
	val = wOwn * mat.Dot(gamma, pj)
	if !withGradient {
		return
	}
	var (
		rhs    = mat.NewVecDense(P, nil)
		dgamma = mat.NewVecDense(P, nil)
	)
	for d := 0; d < D; d++ {
		// A dgamma = dp - dA gamma
		rhs.MulVec(dA[d], gamma)
		rhs.ScaleVec(-1, rhs)
		rhs.SetVec(d+1, rhs.AtVec(d+1)+1/f.scale)
		if err := chol.SolveVecTo(dgamma, rhs); err != nil {
			grad[d] = math.NaN()
			continue
		}
		grad[d] = wOwn*mat.Dot(dgamma, pj) + ownG[d]*mat.Dot(gamma, pj)
	}
	return
}

func isZero(v []float64) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
