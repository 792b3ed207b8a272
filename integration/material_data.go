package integration

import (
	"github.com/ctessum/sparse"
	"github.com/notargets/gomeshless/material"
)

// MaterialData accumulates the cross section moments of one weight
// function. Tables are indexed (group..., dimensional moment).
type MaterialData struct {
	SigmaT         *sparse.DenseArray // g, d
	SigmaS         *sparse.DenseArray // l, gt, gf, d
	Nu             *sparse.DenseArray // g, d
	SigmaF         *sparse.DenseArray // g, d
	Chi            *sparse.DenseArray // g, d
	InternalSource *sparse.DenseArray // g, d
	Norm           *sparse.DenseArray // g, d
	BasisSigmaT    *sparse.DenseArray // j, g
}

func newMaterialData(DM, G, L, J int, dependency material.SpatialDependency) (md *MaterialData) {
	md = &MaterialData{
		SigmaT:         sparse.ZerosDense(G, DM),
		SigmaS:         sparse.ZerosDense(L, G, G, DM),
		Nu:             sparse.ZerosDense(G, DM),
		SigmaF:         sparse.ZerosDense(G, DM),
		Chi:            sparse.ZerosDense(G, DM),
		InternalSource: sparse.ZerosDense(G, DM),
		Norm:           sparse.ZerosDense(G, DM),
	}
	if dependency == material.BasisWeightDependency {
		md.BasisSigmaT = sparse.ZerosDense(J, G)
	}
	return
}

// crossSections holds the interpolated cross sections at one quadrature point
type crossSections struct {
	sigmaT, nu, sigmaF, chi, source []float64
	sigmaS                          []float64 // gf + G*(gt + G*l)
}

func newCrossSections(G, L int) *crossSections {
	return &crossSections{
		sigmaT: make([]float64, G),
		nu:     make([]float64, G),
		sigmaF: make([]float64, G),
		chi:    make([]float64, G),
		source: make([]float64, G),
		sigmaS: make([]float64, G*G*L),
	}
}

func (xs *crossSections) zero() {
	for _, v := range [][]float64{xs.sigmaT, xs.nu, xs.sigmaF, xs.chi, xs.source, xs.sigmaS} {
		for i := range v {
			v[i] = 0
		}
	}
}

// add accumulates fac times the point material m
func (xs *crossSections) add(fac float64, m *material.Material) {
	var (
		G = len(xs.sigmaT)
	)
	for g := 0; g < G; g++ {
		xs.sigmaT[g] += fac * m.SigmaT[g]
		xs.nu[g] += fac * m.Nu[g]
		xs.sigmaF[g] += fac * m.SigmaF[g]
		xs.chi[g] += fac * m.Chi[g]
		xs.source[g] += fac * m.InternalSource[g]
	}
	// Materials may carry fewer scattering moments than the problem
	n := len(m.SigmaS)
	if n > len(xs.sigmaS) {
		n = len(xs.sigmaS)
	}
	for k := 0; k < n; k++ {
		xs.sigmaS[k] += fac * m.SigmaS[k]
	}
}

// accumulate adds the integrand c_d * flux_g * sigma(x) for every moment
func (md *MaterialData) accumulate(qw float64, c, flux []float64, xs *crossSections) {
	var (
		DM = len(c)
		G  = len(flux)
		L  = len(xs.sigmaS) / (G * G)
	)
	for g := 0; g < G; g++ {
		for d := 0; d < DM; d++ {
			f := qw * c[d] * flux[g]
			md.SigmaT.AddVal(f*xs.sigmaT[g], g, d)
			md.Nu.AddVal(f*xs.nu[g], g, d)
			md.SigmaF.AddVal(f*xs.sigmaF[g], g, d)
			md.Chi.AddVal(f*xs.chi[g], g, d)
			md.InternalSource.AddVal(f*xs.source[g], g, d)
			md.Norm.AddVal(f, g, d)
		}
	}
	for l := 0; l < L; l++ {
		for gt := 0; gt < G; gt++ {
			for gf := 0; gf < G; gf++ {
				val := xs.sigmaS[gf+G*(gt+G*l)]
				for d := 0; d < DM; d++ {
					md.SigmaS.AddVal(qw*c[d]*flux[gf]*val, l, gt, gf, d)
				}
			}
		}
	}
}

// weighted converts the accumulators into the weight function's material,
// dividing by the norm when normalized. ivBW normalizes BasisSigmaT.
func (md *MaterialData) weighted(dependency material.SpatialDependency, DM, G, L int,
	normalized bool, ivBW []float64) (w *material.Weighted) {
	w = material.NewWeighted(dependency, DM, G, L, normalized)
	div := func(val, norm float64) float64 {
		if !normalized || norm == 0 {
			return val
		}
		return val / norm
	}
	for g := 0; g < G; g++ {
		for d := 0; d < DM; d++ {
			norm := md.Norm.Get(g, d)
			k := w.GroupIndex(d, g)
			w.SigmaT[k] = div(md.SigmaT.Get(g, d), norm)
			w.Nu[k] = div(md.Nu.Get(g, d), norm)
			w.SigmaF[k] = div(md.SigmaF.Get(g, d), norm)
			w.Chi[k] = div(md.Chi.Get(g, d), norm)
			w.InternalSource[k] = div(md.InternalSource.Get(g, d), norm)
			w.Norm[k] = norm
		}
	}
	for l := 0; l < L; l++ {
		for gt := 0; gt < G; gt++ {
			for gf := 0; gf < G; gf++ {
				for d := 0; d < DM; d++ {
					w.SigmaS[w.ScatteringIndex(d, gf, gt, l)] = div(md.SigmaS.Get(l, gt, gf, d), md.Norm.Get(gf, d))
				}
			}
		}
	}
	if md.BasisSigmaT != nil {
		J := len(ivBW)
		w.BasisSigmaT = make([]float64, J*G)
		for j := 0; j < J; j++ {
			for g := 0; g < G; g++ {
				w.BasisSigmaT[j+J*g] = div(md.BasisSigmaT.Get(j, g), ivBW[j])
			}
		}
	}
	return
}

// pointWeighted is the material of POINT weighting: the cross sections at the
// weight center, scaled by the moment norms when unnormalized
func pointWeighted(m *material.Material, dependency material.SpatialDependency, DM, G, L int,
	normalized bool, integrals *volumeNorms) (w *material.Weighted) {
	w = material.NewWeighted(dependency, DM, G, L, normalized)
	norm := func(d int) float64 {
		if d == 0 {
			return integrals.ivW
		}
		return integrals.ivDw[d-1]
	}
	scale := func(d int) float64 {
		if normalized {
			return 1
		}
		return norm(d)
	}
	for g := 0; g < G; g++ {
		for d := 0; d < DM; d++ {
			k := w.GroupIndex(d, g)
			s := scale(d)
			w.Norm[k] = norm(d)
			w.SigmaT[k] = s * m.SigmaT[g]
			w.Nu[k] = s * m.Nu[g]
			w.SigmaF[k] = s * m.SigmaF[g]
			w.Chi[k] = s * m.Chi[g]
			w.InternalSource[k] = s * m.InternalSource[g]
		}
	}
	for l := 0; l < L && l < m.ScatteringMoments; l++ {
		for gt := 0; gt < G; gt++ {
			for gf := 0; gf < G; gf++ {
				for d := 0; d < DM; d++ {
					w.SigmaS[w.ScatteringIndex(d, gf, gt, l)] = scale(d) * m.SigmaS[material.SigmaSIndex(gf, gt, l, G)]
				}
			}
		}
	}
	return
}

type volumeNorms struct {
	ivW  float64
	ivDw []float64
}

func (xs *crossSections) scale(f float64) {
	for _, v := range [][]float64{xs.sigmaT, xs.nu, xs.sigmaF, xs.chi, xs.source, xs.sigmaS} {
		for i := range v {
			v[i] *= f
		}
	}
}
