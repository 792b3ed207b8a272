package operator

import (
	"github.com/notargets/gomeshless/transport"
)

// Fission produces the isotropic fission source chi * sum nu sigma_f phi_0.
// Higher moments of the result are zero.
type Fission struct {
	td   *transport.Discretization
	kind Kind
	data *pointData
	supg bool
}

func NewFission(td *transport.Discretization, kind Kind) *Fission {
	return &Fission{
		td:   td,
		kind: kind,
		data: newPointData(td, false),
		supg: td.Spatial.Options.IncludeSUPG,
	}
}

func NewBasisFission(td *transport.Discretization, kind Kind) *Fission {
	return &Fission{td: td, kind: kind, data: newPointData(td, true)}
}

func (f *Fission) RowSize() int {
	if f.supg {
		return f.td.SUPGPhiSize()
	}
	return f.td.PhiSize()
}
func (f *Fission) ColumnSize() int { return f.td.PhiSize() }

func (f *Fission) Apply(x []float64) (y []float64, err error) {
	var (
		td = f.td
		N  = td.NumberOfPoints()
		G  = td.NumberOfGroups()
		M  = td.NumberOfMoments()
		DM = 1
		pd = f.data
	)
	if err = checkSize("fission", x, f.ColumnSize()); err != nil {
		return
	}
	if f.supg {
		DM = pd.moments
	}
	y = make([]float64, f.RowSize())
	for i := 0; i < N; i++ {
		for d := 0; d < DM; d++ {
			for gt := 0; gt < G; gt++ {
				var sum float64
				for gf := 0; gf < G; gf++ {
					if f.kind.includes(gf, gt) {
						sum += pd.nu[i][gf] * pd.sigmaF[i][d+pd.moments*gf] * x[td.PhiIndex(i, 0, gf)]
					}
				}
				y[gt+G*(0+M*(d+DM*i))] = pd.chi[i][gt] * sum
			}
		}
	}
	return
}
