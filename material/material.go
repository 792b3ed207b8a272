package material

import (
	"fmt"
)

// Material holds spatially constant multigroup cross sections for a point.
//
//	SigmaT, Nu, SigmaF, Chi, InternalSource: g
//	SigmaS: gf + G*(gt + G*l), scattering from gf into gt for Legendre order l
type Material struct {
	Index             int
	Name              string
	Groups            int
	ScatteringMoments int
	SigmaT            []float64
	SigmaS            []float64
	Nu                []float64
	SigmaF            []float64
	Chi               []float64
	InternalSource    []float64
}

func SigmaSIndex(gf, gt, l, groups int) int {
	return gf + groups*(gt+groups*l)
}

func (m *Material) Validate() error {
	var (
		G = m.Groups
	)
	if G < 1 {
		return fmt.Errorf("material %q: %d groups", m.Name, G)
	}
	if m.ScatteringMoments < 1 {
		return fmt.Errorf("material %q: %d scattering moments", m.Name, m.ScatteringMoments)
	}
	for _, c := range []struct {
		name string
		data []float64
		size int
	}{
		{"sigma_t", m.SigmaT, G},
		{"sigma_s", m.SigmaS, G * G * m.ScatteringMoments},
		{"nu", m.Nu, G},
		{"sigma_f", m.SigmaF, G},
		{"chi", m.Chi, G},
		{"internal_source", m.InternalSource, G},
	} {
		if len(c.data) != c.size {
			return fmt.Errorf("material %q: %s has %d values, expected %d", m.Name, c.name, len(c.data), c.size)
		}
	}
	for g, st := range m.SigmaT {
		if st < 0 {
			return fmt.Errorf("material %q: negative sigma_t[%d] = %g", m.Name, g, st)
		}
	}
	return nil
}

// NewPureAbsorber is a material with only a total cross section and source
func NewPureAbsorber(index int, name string, sigmaT, source []float64) (m *Material) {
	G := len(sigmaT)
	m = &Material{
		Index:             index,
		Name:              name,
		Groups:            G,
		ScatteringMoments: 1,
		SigmaT:            sigmaT,
		SigmaS:            make([]float64, G*G),
		Nu:                make([]float64, G),
		SigmaF:            make([]float64, G),
		Chi:               make([]float64, G),
		InternalSource:    source,
	}
	return
}
