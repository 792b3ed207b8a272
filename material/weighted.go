package material

import "fmt"

// SpatialDependency selects where cross sections are evaluated when a weak
// form row is built
type SpatialDependency uint8

const (
	// Cross sections are averaged against the weight function
	WeightDependency SpatialDependency = iota
	// Each basis function uses the material at its own center
	BasisDependency
	// Collision uses the integral of basis times weight times sigma_t
	BasisWeightDependency
)

func (sd SpatialDependency) String() string {
	switch sd {
	case WeightDependency:
		return "WEIGHT"
	case BasisDependency:
		return "BASIS"
	case BasisWeightDependency:
		return "BASIS_WEIGHT"
	}
	return "UNKNOWN"
}

// Weighted is the material attached to a weight function after integration,
// expressed in dimensional moments d = 0..DM-1.
//
//	SigmaT, Nu, SigmaF, Chi, InternalSource: d + DM*g
//	SigmaS: d + DM*(gf + G*(gt + G*l))
//	BasisSigmaT (BasisWeightDependency only): j + J*g over the local stencil
//
// Norm holds the moments of the weight times the flux shape, d + DM*g.
// Unnormalized tables divide by Norm to recover averages.
type Weighted struct {
	Dependency         SpatialDependency
	DimensionalMoments int
	Groups             int
	ScatteringMoments  int
	Normalized         bool
	SigmaT             []float64
	SigmaS             []float64
	Nu                 []float64
	SigmaF             []float64
	Chi                []float64
	InternalSource     []float64
	BasisSigmaT        []float64
	Norm               []float64
}

func NewWeighted(dependency SpatialDependency, DM, G, L int, normalized bool) (w *Weighted) {
	w = &Weighted{
		Dependency:         dependency,
		DimensionalMoments: DM,
		Groups:             G,
		ScatteringMoments:  L,
		Normalized:         normalized,
		SigmaT:             make([]float64, DM*G),
		SigmaS:             make([]float64, DM*G*G*L),
		Nu:                 make([]float64, DM*G),
		SigmaF:             make([]float64, DM*G),
		Chi:                make([]float64, DM*G),
		InternalSource:     make([]float64, DM*G),
		Norm:               make([]float64, DM*G),
	}
	return
}

func (w *Weighted) GroupIndex(d, g int) int {
	return d + w.DimensionalMoments*g
}

func (w *Weighted) ScatteringIndex(d, gf, gt, l int) int {
	return d + w.DimensionalMoments*(gf+w.Groups*(gt+w.Groups*l))
}

// Average divides an unnormalized group g value by the zeroth norm moment
func (w *Weighted) Average(val float64, g int) float64 {
	if w.Normalized {
		return val
	}
	if n := w.Norm[w.GroupIndex(0, g)]; n != 0 {
		return val / n
	}
	return val
}

// Streamline divides the SUPG combination sum_d c_d moments[d+DM*g] by the
// same combination of norm moments
func (w *Weighted) Streamline(moments, c []float64, g int) float64 {
	var num, den float64
	for d := 0; d < w.DimensionalMoments; d++ {
		k := w.GroupIndex(d, g)
		num += c[d] * moments[k]
		den += c[d] * w.Norm[k]
	}
	if w.Normalized || den == 0 {
		return num
	}
	return num / den
}

func (w *Weighted) Validate(basisFunctions int) error {
	var (
		DM, G, L = w.DimensionalMoments, w.Groups, w.ScatteringMoments
	)
	if len(w.SigmaT) != DM*G || len(w.SigmaS) != DM*G*G*L || len(w.Nu) != DM*G ||
		len(w.SigmaF) != DM*G || len(w.Chi) != DM*G || len(w.InternalSource) != DM*G ||
		len(w.Norm) != DM*G {
		return fmt.Errorf("weighted material tables inconsistent with %d moments, %d groups, %d scattering moments",
			DM, G, L)
	}
	if w.Dependency == BasisWeightDependency && len(w.BasisSigmaT) != basisFunctions*G {
		return fmt.Errorf("basis weighted sigma_t has %d values, expected %d", len(w.BasisSigmaT), basisFunctions*G)
	}
	return nil
}
