package operator

import (
	"github.com/notargets/gomeshless/material"
	"github.com/notargets/gomeshless/transport"
)

// pointData holds, for every point, the cross sections multiplying the
// weighted flux. With BASIS materials these are the point values at the
// basis centers. With weight materials sigma_s, sigma_f and q keep the
// integrated dimensional moments while nu and chi are averages.
type pointData struct {
	moments  int // dimensional moments carried
	groups   int
	legendre int
	sigmaS   [][]float64 // [i] d + DM*(gf + G*(gt + G*l))
	nu       [][]float64 // [i] g
	sigmaF   [][]float64 // [i] d + DM*g
	chi      [][]float64 // [i] g
	source   [][]float64 // [i] d + DM*g
}

func newPointData(td *transport.Discretization, basis bool) (pd *pointData) {
	var (
		sd = td.Spatial
		N  = sd.NumberOfPoints()
		G  = td.NumberOfGroups()
		L  = sd.ScatteringMoments
	)
	pd = &pointData{groups: G, legendre: L, moments: 1}
	if !basis {
		pd.moments = sd.NumberOfDimensionalMoments()
	}
	DM := pd.moments
	for i := 0; i < N; i++ {
		var (
			sigS   = make([]float64, DM*G*G*L)
			nu     = make([]float64, G)
			sigF   = make([]float64, DM*G)
			chi    = make([]float64, G)
			source = make([]float64, DM*G)
		)
		if basis {
			m := sd.PointMaterial(i)
			for l := 0; l < L && l < m.ScatteringMoments; l++ {
				for gt := 0; gt < G; gt++ {
					for gf := 0; gf < G; gf++ {
						sigS[gf+G*(gt+G*l)] = m.SigmaS[material.SigmaSIndex(gf, gt, l, G)]
					}
				}
			}
			copy(nu, m.Nu)
			copy(sigF, m.SigmaF)
			copy(chi, m.Chi)
			copy(source, m.InternalSource)
		} else {
			w := sd.Weights[i]
			m := w.WeightedMaterial()
			copy(sigS, m.SigmaS)
			copy(sigF, m.SigmaF)
			copy(source, m.InternalSource)
			for g := 0; g < G; g++ {
				nu[g] = m.Average(m.Nu[m.GroupIndex(0, g)], g)
				chi[g] = m.Average(m.Chi[m.GroupIndex(0, g)], g)
			}
		}
		pd.sigmaS = append(pd.sigmaS, sigS)
		pd.nu = append(pd.nu, nu)
		pd.sigmaF = append(pd.sigmaF, sigF)
		pd.chi = append(pd.chi, chi)
		pd.source = append(pd.source, source)
	}
	return
}

func (pd *pointData) scattering(i, d, gf, gt, l int) float64 {
	G, DM := pd.groups, pd.moments
	return pd.sigmaS[i][d+DM*(gf+G*(gt+G*l))]
}
