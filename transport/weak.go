package transport

import (
	"fmt"

	"github.com/notargets/gomeshless/material"
	"github.com/notargets/gomeshless/spatial"
)

// WeakRows assembles the weak form of the streaming and collision operator,
// one row per weight function
type WeakRows struct {
	td *Discretization
}

func NewWeakRows(td *Discretization) *WeakRows { return &WeakRows{td: td} }

// sigmaT is the weight averaged total cross section used by WEIGHT dependency.
// With SUPG the streamline moments are divided by the matching norm moments.
func (wr *WeakRows) sigmaT(w *spatial.WeightFunction, dir []float64, g int) float64 {
	var (
		m    = w.WeightedMaterial()
		DM   = m.DimensionalMoments
		opts = w.Options()
	)
	if opts.IncludeSUPG {
		c := make([]float64, DM)
		c[0] = 1
		for d := 1; d < DM; d++ {
			c[d] = opts.Tau * dir[d-1]
		}
		return m.Streamline(m.SigmaT, c, g)
	}
	return m.Average(m.SigmaT[DM*g], g)
}

// GetMatrixRow returns the global basis columns and coefficients of row i
// of the (o,g) system
func (wr *WeakRows) GetMatrixRow(i, o, g int) (cols []int, vals []float64, err error) {
	var (
		sd   = wr.td.Spatial
		w    = sd.Weights[i]
		in   = w.Integrals()
		D    = sd.Dimension
		J    = w.NumberOfBasisFunctions()
		S    = w.NumberOfBoundarySurfaces()
		dir  = wr.td.Angular.Direction(o)
		opts = w.Options()
		dep  = w.WeightedMaterial().Dependency
		N    = sd.NumberOfPoints()
	)
	cols = make([]int, J)
	vals = make([]float64, J)
	var sigma float64
	if dep == material.WeightDependency {
		sigma = wr.sigmaT(w, dir, g)
	}
	for j, k := range w.BasisIndices() {
		if k < 0 || k >= N {
			err = fmt.Errorf("weight %d references basis %d of %d: %w", i, k, N, spatial.ErrIndexOutOfBounds)
			return
		}
		cols[j] = k
		var value float64

		// Outgoing surfaces
		for s, p := range w.BoundarySurfaces() {
			plane := sd.Solid.Planes[p]
			sdim := plane.SurfaceDimension
			if plane.Outgoing(dir) {
				value += plane.Normal * dir[sdim] * in.IsBW[s+S*j]
			}
		}

		// Streaming volume term
		for d := 0; d < D; d++ {
			value -= dir[d] * in.IvBDw[d+D*j]
		}

		// Streamline upwinding
		if opts.IncludeSUPG {
			for d1 := 0; d1 < D; d1++ {
				var sum float64
				for d2 := 0; d2 < D; d2++ {
					sum += in.IvDbDw[d2+D*(d1+D*j)] * dir[d2]
				}
				value += opts.Tau * sum * dir[d1]
			}
		}

		// Collision
		collision := in.IvBW[j]
		if opts.IncludeSUPG {
			for d := 0; d < D; d++ {
				collision += opts.Tau * dir[d] * in.IvBDw[d+D*j]
			}
		}
		switch dep {
		case material.WeightDependency:
			value += collision * sigma
		case material.BasisDependency:
			value += collision * sd.PointMaterial(k).SigmaT[g]
		case material.BasisWeightDependency:
			bst := w.WeightedMaterial().BasisSigmaT[j+J*g]
			if w.WeightedMaterial().Normalized {
				bst *= in.IvBW[j]
			}
			value += bst
		}
		vals[j] = value
	}
	return
}

// GetRHS is the right hand side of row i of the (o,g) system: the weighted
// source already in x, minus the flux entering through incoming surfaces
func (wr *WeakRows) GetRHS(i, o, g int, x []float64, includeBoundarySource bool) (value float64, err error) {
	var (
		td  = wr.td
		sd  = td.Spatial
		w   = sd.Weights[i]
		in  = w.Integrals()
		D   = sd.Dimension
		S   = w.NumberOfBoundarySurfaces()
		G   = td.NumberOfGroups()
		dir = td.Angular.Direction(o)
		sum = make([]float64, D)
	)
	for s, p := range w.BoundarySurfaces() {
		plane := sd.Solid.Planes[p]
		if !plane.Incoming(dir) {
			continue
		}
		source := sd.Solid.Source(p)
		var local float64
		if td.HasReflection {
			var (
				alpha = source.Alpha[g]
				oRef  = td.ReflectedOrdinate(p, o)
			)
			if alpha != 0 {
				for j, k := range w.BasisIndices() {
					b := sd.Bases[k]
					if b.BoundaryIndex() < 0 {
						continue
					}
					local += in.IsBW[s+S*j] * x[td.AugmentIndex(b.BoundaryIndex(), oRef, g)] * alpha
				}
			}
		}
		// The prescribed incoming flux is integrated against the weight on
		// the surface, like the reflected flux above
		if includeBoundarySource {
			local += in.IsW[s] * source.Data[g+G*o]
		}
		sum[plane.SurfaceDimension] += plane.Normal * local
	}
	for d := 0; d < D; d++ {
		value -= sum[d] * dir[d]
	}
	value += x[td.PsiIndex(i, o, g)]
	return
}
