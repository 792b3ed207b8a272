package operator

import (
	"github.com/notargets/gomeshless/transport"
)

// DiscreteToMoment integrates psi over the ordinates into phi moments
type DiscreteToMoment struct {
	td *transport.Discretization
}

func NewDiscreteToMoment(td *transport.Discretization) *DiscreteToMoment {
	return &DiscreteToMoment{td: td}
}

func (dm *DiscreteToMoment) RowSize() int    { return dm.td.PhiSize() }
func (dm *DiscreteToMoment) ColumnSize() int { return dm.td.PsiSize() }

func (dm *DiscreteToMoment) Apply(x []float64) (y []float64, err error) {
	var (
		td = dm.td
		N  = td.NumberOfPoints()
		O  = td.NumberOfOrdinates()
		G  = td.NumberOfGroups()
		M  = td.NumberOfMoments()
		a  = td.Angular
	)
	if err = checkSize("discrete to moment", x, dm.ColumnSize()); err != nil {
		return
	}
	y = make([]float64, dm.RowSize())
	for i := 0; i < N; i++ {
		for m := 0; m < M; m++ {
			for o := 0; o < O; o++ {
				c := a.DiscreteToMoment(m, o)
				for g := 0; g < G; g++ {
					y[td.PhiIndex(i, m, g)] += c * x[td.PsiIndex(i, o, g)]
				}
			}
		}
	}
	return
}

// MomentToDiscrete expands phi moments into psi on every ordinate
type MomentToDiscrete struct {
	td *transport.Discretization
}

func NewMomentToDiscrete(td *transport.Discretization) *MomentToDiscrete {
	return &MomentToDiscrete{td: td}
}

func (md *MomentToDiscrete) RowSize() int    { return md.td.PsiSize() }
func (md *MomentToDiscrete) ColumnSize() int { return md.td.PhiSize() }

func (md *MomentToDiscrete) Apply(x []float64) (y []float64, err error) {
	var (
		td = md.td
		N  = td.NumberOfPoints()
		O  = td.NumberOfOrdinates()
		G  = td.NumberOfGroups()
		M  = td.NumberOfMoments()
		a  = td.Angular
	)
	if err = checkSize("moment to discrete", x, md.ColumnSize()); err != nil {
		return
	}
	y = make([]float64, md.RowSize())
	for i := 0; i < N; i++ {
		for o := 0; o < O; o++ {
			for m := 0; m < M; m++ {
				c := a.MomentToDiscrete(m, o)
				for g := 0; g < G; g++ {
					y[td.PsiIndex(i, o, g)] += c * x[td.PhiIndex(i, m, g)]
				}
			}
		}
	}
	return
}

// SUPGMomentToDiscrete expands moments that carry dimensional moments. The
// dimensional moments are combined with the streamline test function
// coefficients 1 and tau*Omega_d of each weight.
type SUPGMomentToDiscrete struct {
	td *transport.Discretization
}

func NewSUPGMomentToDiscrete(td *transport.Discretization) *SUPGMomentToDiscrete {
	return &SUPGMomentToDiscrete{td: td}
}

func (md *SUPGMomentToDiscrete) RowSize() int    { return md.td.PsiSize() }
func (md *SUPGMomentToDiscrete) ColumnSize() int { return md.td.SUPGPhiSize() }

func (md *SUPGMomentToDiscrete) Apply(x []float64) (y []float64, err error) {
	var (
		td = md.td
		N  = td.NumberOfPoints()
		O  = td.NumberOfOrdinates()
		G  = td.NumberOfGroups()
		M  = td.NumberOfMoments()
		DM = td.Spatial.NumberOfDimensionalMoments()
		a  = td.Angular
		c  = make([]float64, DM)
	)
	if err = checkSize("SUPG moment to discrete", x, md.ColumnSize()); err != nil {
		return
	}
	y = make([]float64, md.RowSize())
	for i := 0; i < N; i++ {
		tau := td.Spatial.Weights[i].Options().Tau
		for o := 0; o < O; o++ {
			dir := a.Direction(o)
			c[0] = 1
			for d := 1; d < DM; d++ {
				c[d] = tau * dir[d-1]
			}
			for m := 0; m < M; m++ {
				coef := a.MomentToDiscrete(m, o)
				for g := 0; g < G; g++ {
					var sum float64
					for d := 0; d < DM; d++ {
						sum += c[d] * x[g+G*(m+M*(d+DM*i))]
					}
					y[td.PsiIndex(i, o, g)] += coef * sum
				}
			}
		}
	}
	return
}
