package operator

import (
	"github.com/notargets/gomeshless/material"
	"github.com/notargets/gomeshless/spatial"
	"github.com/notargets/gomeshless/transport"
)

// InternalSource is affine: it ignores its input and yields the weighted
// isotropic internal source in moment 0
type InternalSource struct {
	td          *transport.Discretization
	basis       bool
	supg        bool
	collocation bool
	data        *pointData
}

func NewInternalSource(td *transport.Discretization) *InternalSource {
	sd := td.Spatial
	basis := sd.Dependency() != material.WeightDependency
	return &InternalSource{
		td:          td,
		basis:       basis,
		supg:        sd.Options.IncludeSUPG,
		collocation: sd.Options.Form == spatial.StrongForm,
		data:        newPointData(td, basis),
	}
}

func (q *InternalSource) RowSize() int {
	if q.supg {
		return q.td.SUPGPhiSize()
	}
	return q.td.PhiSize()
}
func (q *InternalSource) ColumnSize() int { return q.td.PhiSize() }

func (q *InternalSource) Apply(x []float64) (y []float64, err error) {
	var (
		td = q.td
		sd = td.Spatial
		D  = sd.Dimension
		G  = td.NumberOfGroups()
		M  = td.NumberOfMoments()
		DM = 1
	)
	if err = checkSize("internal source", x, q.ColumnSize()); err != nil {
		return
	}
	if q.supg {
		DM = sd.NumberOfDimensionalMoments()
	}
	y = make([]float64, q.RowSize())
	for i, w := range sd.Weights {
		in := w.Integrals()
		for d := 0; d < DM; d++ {
			for g := 0; g < G; g++ {
				var val float64
				switch {
				case q.basis:
					for j, k := range w.BasisIndices() {
						mult := in.IvBW[j]
						switch {
						case q.collocation:
							mult = w.Values().VB[j]
						case d > 0:
							mult = in.IvBDw[d-1+D*j]
						}
						val += mult * q.data.source[k][g]
					}
				case q.supg:
					val = w.WeightedMaterial().Average(q.data.source[i][d+DM*g], g) * in.IvW[0]
				case q.collocation:
					val = q.data.source[i][g]
				case !w.WeightedMaterial().Normalized:
					val = w.WeightedMaterial().Average(q.data.source[i][g], g) * in.IvW[0]
				default:
					val = q.data.source[i][g] * in.IvW[0]
				}
				y[g+G*(0+M*(d+DM*i))] = val
			}
		}
	}
	return
}
