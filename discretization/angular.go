package discretization

import (
	"fmt"
	"math"

	"github.com/notargets/gomeshless/quadrature"
)

const reflectionTol = 1.e-10

// Angular is a discrete ordinates set together with the angular moments it
// carries. Directions are unit vectors truncated to the spatial dimension.
type Angular struct {
	Dimension                 int
	NumberOfScatteringMoments int
	Normalization             float64
	directions                [][]float64 // always 3 components
	weights                   []float64
	degrees                   []int       // Legendre degree of each moment
	moments                   [][]float64 // moments[m][o]
}

// NewAngular1D is the slab set: Gauss-Legendre ordinates in mu, with
// Legendre moments 0..scatteringMoments-1
func NewAngular1D(ordinates, scatteringMoments int) (a *Angular, err error) {
	var (
		mu, w []float64
	)
	if ordinates%2 != 0 {
		err = fmt.Errorf("1D ordinate count must be even, got %d", ordinates)
		return
	}
	if scatteringMoments < 1 {
		err = fmt.Errorf("need at least one scattering moment, got %d", scatteringMoments)
		return
	}
	if mu, w, err = quadrature.GaussLegendre(ordinates); err != nil {
		return
	}
	a = &Angular{
		Dimension:                 1,
		NumberOfScatteringMoments: scatteringMoments,
		Normalization:             2,
		weights:                   w,
	}
	for _, m := range mu {
		a.directions = append(a.directions, []float64{m, 0, 0})
	}
	for l := 0; l < scatteringMoments; l++ {
		a.degrees = append(a.degrees, l)
		a.moments = append(a.moments, legendre(l, mu))
	}
	return
}

// NewAngularProduct is a Gauss-Legendre polar by uniform azimuthal product set
// over the unit sphere, for 2 or 3 dimensions. Only isotropic and linearly
// anisotropic moments are represented.
func NewAngularProduct(dimension, polar, azimuthal, scatteringMoments int) (a *Angular, err error) {
	var (
		mu, wmu []float64
	)
	switch {
	case dimension != 2 && dimension != 3:
		err = fmt.Errorf("product set needs dimension 2 or 3, got %d", dimension)
		return
	case azimuthal < 2 || azimuthal%2 != 0:
		err = fmt.Errorf("azimuthal count must be even and at least 2, got %d", azimuthal)
		return
	case polar%2 != 0:
		err = fmt.Errorf("polar count must be even, got %d", polar)
		return
	case scatteringMoments < 1 || scatteringMoments > 2:
		err = fmt.Errorf("product set supports 1 or 2 scattering moments, got %d", scatteringMoments)
		return
	}
	if mu, wmu, err = quadrature.GaussLegendre(polar); err != nil {
		return
	}
	a = &Angular{
		Dimension:                 dimension,
		NumberOfScatteringMoments: scatteringMoments,
		Normalization:             4 * math.Pi,
	}
	dphi := 2 * math.Pi / float64(azimuthal)
	for i, m := range mu {
		s := math.Sqrt(1 - m*m)
		for k := 0; k < azimuthal; k++ {
			phi := dphi * (float64(k) + 0.5)
			a.directions = append(a.directions, []float64{s * math.Cos(phi), s * math.Sin(phi), m})
			a.weights = append(a.weights, wmu[i]*dphi)
		}
	}
	iso := make([]float64, len(a.weights))
	for o := range iso {
		iso[o] = 1
	}
	a.degrees = append(a.degrees, 0)
	a.moments = append(a.moments, iso)
	if scatteringMoments == 2 {
		for d := 0; d < dimension; d++ {
			comp := make([]float64, len(a.weights))
			for o := range comp {
				comp[o] = a.directions[o][d]
			}
			a.degrees = append(a.degrees, 1)
			a.moments = append(a.moments, comp)
		}
	}
	return
}

func legendre(l int, x []float64) (p []float64) {
	p = make([]float64, len(x))
	for i, xi := range x {
		p0, p1 := 1., xi
		switch l {
		case 0:
			p[i] = p0
			continue
		case 1:
			p[i] = p1
			continue
		}
		for n := 2; n <= l; n++ {
			nf := float64(n)
			p0, p1 = p1, ((2*nf-1)*xi*p1-(nf-1)*p0)/nf
		}
		p[i] = p1
	}
	return
}

func (a *Angular) NumberOfOrdinates() int { return len(a.weights) }
func (a *Angular) NumberOfMoments() int   { return len(a.moments) }
func (a *Angular) Weight(o int) float64   { return a.weights[o] }
func (a *Angular) MomentDegree(m int) int { return a.degrees[m] }

// Moment is the value of angular moment function m at ordinate o
func (a *Angular) Moment(m, o int) float64 { return a.moments[m][o] }

func (a *Angular) Direction(o int) []float64 {
	return a.directions[o][:a.Dimension]
}

// DiscreteToMoment is the coefficient of psi_o in phi_m
func (a *Angular) DiscreteToMoment(m, o int) float64 {
	return a.weights[o] * a.moments[m][o]
}

// MomentToDiscrete is the coefficient of phi_m in psi_o
func (a *Angular) MomentToDiscrete(m, o int) float64 {
	return float64(2*a.degrees[m]+1) / a.Normalization * a.moments[m][o]
}

// ReflectOrdinate finds the ordinate that is the specular reflection of o
// about the plane with the given outward normal
func (a *Angular) ReflectOrdinate(o int, normal []float64) (ref int, err error) {
	var (
		dir = a.directions[o]
		dot float64
	)
	for d, n := range normal {
		dot += dir[d] * n
	}
	target := make([]float64, 3)
	copy(target, dir)
	for d, n := range normal {
		target[d] -= 2 * dot * n
	}
	for ref = range a.directions {
		var diff float64
		for d := 0; d < 3; d++ {
			diff += math.Abs(a.directions[ref][d] - target[d])
		}
		if diff < reflectionTol {
			return
		}
	}
	err = fmt.Errorf("no reflected ordinate for ordinate %d about normal %v", o, normal)
	return -1, err
}
