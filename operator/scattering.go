package operator

import (
	"fmt"
	"strings"

	"github.com/notargets/gomeshless/transport"
)

// Kind selects which group transfers an operator includes
type Kind uint8

const (
	Full       Kind = iota
	Coherent        // within group only
	Incoherent      // between groups only, Full minus Coherent
)

func (k Kind) String() string { return [...]string{"FULL", "COHERENT", "INCOHERENT"}[k] }

func ParseKind(s string) (k Kind, err error) {
	switch strings.ToUpper(s) {
	case "FULL", "":
		k = Full
	case "COHERENT":
		k = Coherent
	case "INCOHERENT":
		k = Incoherent
	default:
		err = fmt.Errorf("unknown operator kind %q", s)
	}
	return
}

func (k Kind) includes(gf, gt int) bool {
	switch k {
	case Coherent:
		return gf == gt
	case Incoherent:
		return gf != gt
	}
	return true
}

// Scattering multiplies each phi moment by the scattering cross section of
// its Legendre degree. Degrees beyond the material's expansion give zero.
type Scattering struct {
	td   *transport.Discretization
	kind Kind
	data *pointData
	supg bool
}

// NewScattering uses the weight function materials. With SUPG the result
// carries one value per dimensional moment.
func NewScattering(td *transport.Discretization, kind Kind) *Scattering {
	return &Scattering{
		td:   td,
		kind: kind,
		data: newPointData(td, false),
		supg: td.Spatial.Options.IncludeSUPG,
	}
}

// NewBasisScattering uses the point material of each basis function
func NewBasisScattering(td *transport.Discretization, kind Kind) *Scattering {
	return &Scattering{td: td, kind: kind, data: newPointData(td, true)}
}

func (s *Scattering) RowSize() int {
	if s.supg {
		return s.td.SUPGPhiSize()
	}
	return s.td.PhiSize()
}
func (s *Scattering) ColumnSize() int { return s.td.PhiSize() }

func (s *Scattering) Apply(x []float64) (y []float64, err error) {
	var (
		td = s.td
		N  = td.NumberOfPoints()
		G  = td.NumberOfGroups()
		M  = td.NumberOfMoments()
		L  = s.data.legendre
		DM = 1
	)
	if err = checkSize("scattering", x, s.ColumnSize()); err != nil {
		return
	}
	if s.supg {
		DM = s.data.moments
	}
	y = make([]float64, s.RowSize())
	for i := 0; i < N; i++ {
		for m := 0; m < M; m++ {
			l := td.Angular.MomentDegree(m)
			if l >= L {
				continue
			}
			for gt := 0; gt < G; gt++ {
				for d := 0; d < DM; d++ {
					var sum float64
					for gf := 0; gf < G; gf++ {
						if s.kind.includes(gf, gt) {
							sum += s.data.scattering(i, d, gf, gt, l) * x[td.PhiIndex(i, m, gf)]
						}
					}
					y[gt+G*(m+M*(d+DM*i))] = sum
				}
			}
		}
	}
	return
}
