package Slab1D

import (
	"context"
	"fmt"
	"math"

	"github.com/notargets/gomeshless/discretization"
	"github.com/notargets/gomeshless/geometry"
	"github.com/notargets/gomeshless/material"
	"github.com/notargets/gomeshless/solver"
	"github.com/notargets/gomeshless/spatial"
	"github.com/notargets/gomeshless/transport"
	"github.com/notargets/gomeshless/weakform"
)

// Slab1D is a two material, one group slab without scattering. Material 0
// fills [XMin, Interface), material 1 fills [Interface, XMax], and both
// emit an isotropic source. The discrete ordinates solution is known in
// closed form along every ordinate.
type Slab1D struct {
	XMin, Interface, XMax float64
	SigmaT                [2]float64
	Source                [2]float64
	Incoming              [2]float64 // isotropic angular flux entering at XMin and XMax
	Points, Ordinates     int
	Spatial               spatial.Options
	Sweep                 transport.Options
	Solver                solver.Options
	Angular               *discretization.Angular
	TD                    *transport.Discretization
}

// NewSlab1D is the benchmark on [-1,1] with sigma_t 1 and 2, a unit source
// and vacuum boundaries
func NewSlab1D(points int) *Slab1D {
	return &Slab1D{
		XMin:      -1,
		Interface: 0,
		XMax:      1,
		SigmaT:    [2]float64{1, 2},
		Source:    [2]float64{1, 1},
		Points:    points,
		Ordinates: 4,
		Spatial:   spatial.DefaultOptions(),
		Sweep:     transport.DefaultOptions(),
		Solver:    solver.DefaultOptions(),
	}
}

func (s *Slab1D) Materials() []*material.Material {
	return []*material.Material{
		material.NewPureAbsorber(0, "left", []float64{s.SigmaT[0]}, []float64{s.Source[0]}),
		material.NewPureAbsorber(1, "right", []float64{s.SigmaT[1]}, []float64{s.Source[1]}),
	}
}

func (s *Slab1D) boundary(index int, angular *discretization.Angular) geometry.BoundarySource {
	src := geometry.NewVacuumSource(index, 1, s.Ordinates)
	sign := 1.
	if index == 1 {
		sign = -1
	}
	for o := 0; o < s.Ordinates; o++ {
		if sign*angular.Direction(o)[0] > 0 {
			src.Data[o] = s.Incoming[index]
		}
	}
	return src
}

// Discretize builds and integrates the transport discretization
func (s *Slab1D) Discretize(ctx context.Context) (td *transport.Discretization, err error) {
	if !(s.XMin < s.Interface && s.Interface < s.XMax) {
		err = fmt.Errorf("interface %g must lie inside (%g, %g)", s.Interface, s.XMin, s.XMax)
		return
	}
	if s.Angular, err = discretization.NewAngular1D(s.Ordinates, 1); err != nil {
		return
	}
	solid, err := geometry.NewBox([][2]float64{{s.XMin, s.XMax}},
		[]geometry.BoundarySource{s.boundary(0, s.Angular), s.boundary(1, s.Angular)}, 0,
		geometry.Region{Limits: [][2]float64{{s.Interface, s.XMax}}, Material: 1})
	if err != nil {
		return
	}
	points, err := weakform.UniformPoints(solid, []int{s.Points})
	if err != nil {
		return
	}
	sd, err := weakform.Build(ctx, solid, points, s.Materials(), 1, s.Spatial)
	if err != nil {
		return
	}
	energy, err := discretization.NewEnergy(1)
	if err != nil {
		return
	}
	if td, err = transport.NewDiscretization(sd, s.Angular, energy); err != nil {
		return
	}
	s.TD = td
	return
}

// Run solves the slab and returns the scalar flux at every point
func (s *Slab1D) Run(ctx context.Context) (x, phi []float64, r solver.Result, err error) {
	td, err := s.Discretize(ctx)
	if err != nil {
		return
	}
	sw, err := transport.NewSweep(ctx, td, s.Sweep)
	if err != nil {
		return
	}
	ch, err := solver.NewChains(sw)
	if err != nil {
		return
	}
	if r, err = solver.Solve(ctx, ch, s.Solver); err != nil {
		return
	}
	x, phi = PointValues(td, r.Phi, 0, 0)
	return
}

// PointValues interpolates a moment of the basis coefficients to the points
func PointValues(td *transport.Discretization, coefficients []float64, m, g int) (x, values []float64) {
	for _, w := range td.Spatial.Weights {
		var v float64
		for j, k := range w.BasisIndices() {
			v += w.Values().VB[j] * coefficients[td.PhiIndex(k, m, g)]
		}
		x = append(x, w.Position()[0])
		values = append(values, v)
	}
	return
}

// attenuate carries psi0 a distance dist through a uniform material
func attenuate(psi0, sigma, q, dist, mu float64) float64 {
	mu = math.Abs(mu)
	if sigma == 0 {
		return psi0 + 0.5*q*dist/mu
	}
	e := math.Exp(-sigma * dist / mu)
	return psi0*e + 0.5*q/sigma*(1-e)
}

// AngularFlux is the exact angular flux along direction cosine mu
func (s *Slab1D) AngularFlux(x, mu float64) float64 {
	if mu > 0 {
		if x < s.Interface {
			return attenuate(s.Incoming[0], s.SigmaT[0], s.Source[0], x-s.XMin, mu)
		}
		psi := attenuate(s.Incoming[0], s.SigmaT[0], s.Source[0], s.Interface-s.XMin, mu)
		return attenuate(psi, s.SigmaT[1], s.Source[1], x-s.Interface, mu)
	}
	if x >= s.Interface {
		return attenuate(s.Incoming[1], s.SigmaT[1], s.Source[1], s.XMax-x, mu)
	}
	psi := attenuate(s.Incoming[1], s.SigmaT[1], s.Source[1], s.XMax-s.Interface, mu)
	return attenuate(psi, s.SigmaT[0], s.Source[0], s.Interface-x, mu)
}

// ScalarFlux is the exact discrete ordinates scalar flux
func (s *Slab1D) ScalarFlux(x float64) (phi float64) {
	for o := 0; o < s.Angular.NumberOfOrdinates(); o++ {
		phi += s.Angular.Weight(o) * s.AngularFlux(x, s.Angular.Direction(o)[0])
	}
	return
}

// MaxRelativeError compares computed scalar fluxes with the exact solution,
// relative to the largest exact value
func (s *Slab1D) MaxRelativeError(x, phi []float64) (maxErr float64) {
	var scale float64
	for i := range x {
		exact := s.ScalarFlux(x[i])
		scale = math.Max(scale, math.Abs(exact))
		maxErr = math.Max(maxErr, math.Abs(phi[i]-exact))
	}
	if scale > 0 {
		maxErr /= scale
	}
	return
}
