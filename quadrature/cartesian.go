package quadrature

import (
	"fmt"
)

// Rule is a set of quadrature ordinates in some number of dimensions, each
// with a quadrature weight
type Rule struct {
	Dimension int
	Ordinates [][]float64
	Weights   []float64
}

func (r Rule) Size() int { return len(r.Weights) }

// Cartesian builds the tensor product Gauss-Legendre rule over an axis
// aligned box, with n points per dimension. The first dimension varies fastest.
func Cartesian(n int, limits [][2]float64) (r Rule, err error) {
	var (
		dim = len(limits)
	)
	if dim < 1 || dim > 3 {
		err = fmt.Errorf("cartesian quadrature supports 1 to 3 dimensions, got %d", dim)
		return
	}
	xs := make([][]float64, dim)
	ws := make([][]float64, dim)
	for d := 0; d < dim; d++ {
		if limits[d][1] <= limits[d][0] {
			err = fmt.Errorf("empty interval [%g, %g] in dimension %d", limits[d][0], limits[d][1], d)
			return
		}
		if xs[d], ws[d], err = GaussLegendreInterval(n, limits[d][0], limits[d][1]); err != nil {
			return
		}
	}
	total := 1
	for d := 0; d < dim; d++ {
		total *= n
	}
	r = Rule{
		Dimension: dim,
		Ordinates: make([][]float64, total),
		Weights:   make([]float64, total),
	}
	idx := make([]int, dim)
	for q := 0; q < total; q++ {
		pos := make([]float64, dim)
		wt := 1.
		for d := 0; d < dim; d++ {
			pos[d] = xs[d][idx[d]]
			wt *= ws[d][idx[d]]
		}
		r.Ordinates[q] = pos
		r.Weights[q] = wt
		// Advance the multi-index
		for d := 0; d < dim; d++ {
			idx[d]++
			if idx[d] < n {
				break
			}
			idx[d] = 0
		}
	}
	return
}

// Embed maps a rule over the free dimensions of a plane into the full space,
// holding dimension fixedDim at position. A rule with zero free dimensions is
// a single point with unit weight.
func Embed(r Rule, dimension, fixedDim int, position float64) (e Rule) {
	e = Rule{Dimension: dimension}
	if dimension == 1 {
		e.Ordinates = [][]float64{{position}}
		e.Weights = []float64{1}
		return
	}
	e.Ordinates = make([][]float64, r.Size())
	e.Weights = make([]float64, r.Size())
	for q, ord := range r.Ordinates {
		pos := make([]float64, dimension)
		k := 0
		for d := 0; d < dimension; d++ {
			if d == fixedDim {
				pos[d] = position
				continue
			}
			pos[d] = ord[k]
			k++
		}
		e.Ordinates[q] = pos
		e.Weights[q] = r.Weights[q]
	}
	return
}
