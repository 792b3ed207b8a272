package transport

import (
	"fmt"

	"github.com/notargets/gomeshless/material"
	"github.com/notargets/gomeshless/spatial"
)

// StrongRows collocates the transport equation at the weight centers. Points
// on a boundary plane that a direction enters through carry the incoming
// flux as a Dirichlet row instead.
type StrongRows struct {
	td      *Discretization
	onPlane [][]int // boundary planes each point lies on
}

func NewStrongRows(td *Discretization) *StrongRows {
	sr := &StrongRows{td: td}
	for _, w := range td.Spatial.Weights {
		sr.onPlane = append(sr.onPlane, td.Spatial.Solid.OnBoundary(w.Position()))
	}
	return sr
}

// incoming is the first plane point i lies on that direction o enters through
func (sr *StrongRows) incoming(i, o int) (plane int, ok bool) {
	dir := sr.td.Angular.Direction(o)
	for _, p := range sr.onPlane[i] {
		if sr.td.Spatial.Solid.Planes[p].Incoming(dir) {
			return p, true
		}
	}
	return -1, false
}

func (sr *StrongRows) GetMatrixRow(i, o, g int) (cols []int, vals []float64, err error) {
	var (
		sd     = sr.td.Spatial
		w      = sd.Weights[i]
		v      = w.Values()
		D      = sd.Dimension
		J      = w.NumberOfBasisFunctions()
		N      = sd.NumberOfPoints()
		dir    = sr.td.Angular.Direction(o)
		_, bnd = sr.incoming(i, o)
		m      = w.WeightedMaterial()
	)
	cols = make([]int, J)
	vals = make([]float64, J)
	for j, k := range w.BasisIndices() {
		if k < 0 || k >= N {
			err = fmt.Errorf("weight %d references basis %d of %d: %w", i, k, N, spatial.ErrIndexOutOfBounds)
			return
		}
		cols[j] = k
		if bnd {
			vals[j] = v.VB[j]
			continue
		}
		var value float64
		for d := 0; d < D; d++ {
			value += dir[d] * v.VDb[d+D*j]
		}
		switch m.Dependency {
		case material.BasisDependency:
			value += sd.PointMaterial(k).SigmaT[g] * v.VB[j]
		default:
			value += m.SigmaT[m.DimensionalMoments*g] * v.VB[j]
		}
		vals[j] = value
	}
	return
}

func (sr *StrongRows) GetRHS(i, o, g int, x []float64, includeBoundarySource bool) (value float64, err error) {
	var (
		td = sr.td
		sd = td.Spatial
		G  = td.NumberOfGroups()
	)
	p, bnd := sr.incoming(i, o)
	if !bnd {
		return x[td.PsiIndex(i, o, g)], nil
	}
	source := sd.Solid.Source(p)
	if td.HasReflection && source.Alpha[g] != 0 {
		var (
			w    = sd.Weights[i]
			v    = w.Values()
			oRef = td.ReflectedOrdinate(p, o)
		)
		for j, k := range w.BasisIndices() {
			b := sd.Bases[k]
			if b.BoundaryIndex() < 0 {
				continue
			}
			value += source.Alpha[g] * v.VB[j] * x[td.AugmentIndex(b.BoundaryIndex(), oRef, g)]
		}
	}
	if includeBoundarySource {
		value += source.Data[g+G*o]
	}
	return
}
