package operator

import (
	"github.com/notargets/gomeshless/material"
	"github.com/notargets/gomeshless/spatial"
	"github.com/notargets/gomeshless/transport"
)

// MomentWeighting maps basis coefficients of phi to weighted moments at each
// weight function: sum_j IvBW[j]/norm x_j. norm is the group's zeroth norm
// moment when the weight carries an unnormalized weight material, so the
// result is then an average against the flux shape.
// With collocation the basis values at the weight center replace IvBW.
type MomentWeighting struct {
	td          *transport.Discretization
	collocation bool
}

func NewMomentWeighting(td *transport.Discretization) *MomentWeighting {
	return &MomentWeighting{td: td, collocation: td.Spatial.Options.Form == spatial.StrongForm}
}

func (mw *MomentWeighting) RowSize() int    { return mw.td.PhiSize() }
func (mw *MomentWeighting) ColumnSize() int { return mw.td.PhiSize() }

func (mw *MomentWeighting) Apply(x []float64) (y []float64, err error) {
	var (
		td = mw.td
		sd = td.Spatial
		G  = td.NumberOfGroups()
		M  = td.NumberOfMoments()
	)
	if err = checkSize("moment weighting", x, mw.ColumnSize()); err != nil {
		return
	}
	y = make([]float64, mw.RowSize())
	for i, w := range sd.Weights {
		var (
			coef    = w.Integrals().IvBW
			mat     = w.WeightedMaterial()
			average = !mw.collocation && mat.Dependency == material.WeightDependency
		)
		if mw.collocation {
			coef = w.Values().VB
		}
		for j, k := range w.BasisIndices() {
			for g := 0; g < G; g++ {
				mult := coef[j]
				if average {
					mult = mat.Average(mult, g)
				}
				for m := 0; m < M; m++ {
					y[td.PhiIndex(i, m, g)] += mult * x[td.PhiIndex(k, m, g)]
				}
			}
		}
	}
	return
}

// SUPGMomentWeighting weights basis coefficients with the streamline test
// functions, yielding dimensional moments: IvBW for d = 0 and IvBDw for
// the gradient moments
type SUPGMomentWeighting struct {
	td *transport.Discretization
}

func NewSUPGMomentWeighting(td *transport.Discretization) *SUPGMomentWeighting {
	return &SUPGMomentWeighting{td: td}
}

func (mw *SUPGMomentWeighting) RowSize() int    { return mw.td.SUPGPhiSize() }
func (mw *SUPGMomentWeighting) ColumnSize() int { return mw.td.PhiSize() }

func (mw *SUPGMomentWeighting) Apply(x []float64) (y []float64, err error) {
	var (
		td = mw.td
		sd = td.Spatial
		D  = sd.Dimension
		G  = td.NumberOfGroups()
		M  = td.NumberOfMoments()
		DM = sd.NumberOfDimensionalMoments()
	)
	if err = checkSize("SUPG moment weighting", x, mw.ColumnSize()); err != nil {
		return
	}
	y = make([]float64, mw.RowSize())
	for i, w := range sd.Weights {
		in := w.Integrals()
		for j, k := range w.BasisIndices() {
			for d := 0; d < DM; d++ {
				mult := in.IvBW[j]
				if d > 0 {
					mult = in.IvBDw[d-1+D*j]
				}
				for m := 0; m < M; m++ {
					for g := 0; g < G; g++ {
						y[g+G*(m+M*(d+DM*i))] += mult * x[td.PhiIndex(k, m, g)]
					}
				}
			}
		}
	}
	return
}
