package solver

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/gomeshless/discretization"
	"github.com/notargets/gomeshless/geometry"
	"github.com/notargets/gomeshless/material"
	"github.com/notargets/gomeshless/spatial"
	"github.com/notargets/gomeshless/transport"
	"github.com/notargets/gomeshless/weakform"
)

func near(a, b float64, tolI ...float64) bool {
	var tol float64
	if len(tolI) == 0 {
		tol = 1.e-10
	} else {
		tol = tolI[0]
	}
	return math.Abs(a-b) <= tol
}

// infiniteMedium is a reflected slab, in which a uniform flux is exact
func infiniteMedium(t *testing.T, opts spatial.Options, m *material.Material) *Chains {
	const ordinates = 4
	sources := []geometry.BoundarySource{
		geometry.NewReflectiveSource(0, 1, ordinates),
		geometry.NewReflectiveSource(1, 1, ordinates),
	}
	solid, err := geometry.NewBox([][2]float64{{0, 1}}, sources, 0)
	require.NoError(t, err)
	points, err := weakform.UniformPoints(solid, []int{11})
	require.NoError(t, err)
	sd, err := weakform.Build(context.Background(), solid, points, []*material.Material{m}, 1, opts)
	require.NoError(t, err)
	angular, err := discretization.NewAngular1D(ordinates, 2)
	require.NoError(t, err)
	energy, err := discretization.NewEnergy(1)
	require.NoError(t, err)
	td, err := transport.NewDiscretization(sd, angular, energy)
	require.NoError(t, err)
	sw, err := transport.NewSweep(context.Background(), td, transport.DefaultOptions())
	require.NoError(t, err)
	ch, err := NewChains(sw)
	require.NoError(t, err)
	return ch
}

func scatterer() *material.Material {
	m := material.NewPureAbsorber(0, "scatterer", []float64{1}, []float64{1})
	m.SigmaS[0] = 0.5
	return m
}

func checkUniform(t *testing.T, ch *Chains, phi []float64, want float64, tol float64) {
	td := ch.Discretization()
	require.Equal(t, ch.Size(), len(phi))
	for i := 0; i < td.NumberOfPoints(); i++ {
		assert.True(t, near(phi[td.PhiIndex(i, 0, 0)], want, tol), "point %d: %g", i, phi[td.PhiIndex(i, 0, 0)])
		assert.True(t, near(phi[td.PhiIndex(i, 1, 0)], 0, tol))
	}
}

func TestSourceIteration(t *testing.T) {
	ctx := context.Background()
	strong := spatial.DefaultOptions()
	strong.Form = spatial.StrongForm
	strong.Weighting = spatial.PointWeighting
	strongBasis := strong
	strongBasis.Weighting = spatial.BasisWeighting
	supg := spatial.DefaultOptions()
	supg.IncludeSUPG = true
	supgBasis := supg
	supgBasis.Weighting = spatial.BasisWeighting
	unnormalized := spatial.DefaultOptions()
	unnormalized.Normalized = false
	// A flux shape that is not 1 must cancel out of the cross sections
	flux := unnormalized
	flux.Weighting = spatial.FluxWeighting
	flux.Flux = func(m, g int, x []float64) float64 { return 2 }
	fluxNormalized := flux
	fluxNormalized.Normalized = true
	fluxSUPG := flux
	fluxSUPG.IncludeSUPG = true
	for name, opts := range map[string]spatial.Options{
		"weight":       spatial.DefaultOptions(),
		"unnormalized": unnormalized,
		"point":        {Form: spatial.WeakForm, Weighting: spatial.PointWeighting, RBF: "wendland", RadiusIntervals: 3, TauConst: 1, Normalized: true, IntegrationOrdinates: 4},
		"basis":        {Form: spatial.WeakForm, Weighting: spatial.BasisWeighting, RBF: "wendland", RadiusIntervals: 3, TauConst: 1, Normalized: true, IntegrationOrdinates: 4},
		"full":         {Form: spatial.WeakForm, Weighting: spatial.FullWeighting, RBF: "wendland", RadiusIntervals: 3, TauConst: 1, Normalized: true, IntegrationOrdinates: 4},
		"supg":         supg,
		"flux":         flux,
		"flux norm":    fluxNormalized,
		"flux supg":    fluxSUPG,
		"supg basis":   supgBasis,
		"strong":       strong,
		"strong basis": strongBasis,
	} {
		ch := infiniteMedium(t, opts, scatterer())
		// phi = q / sigma_a
		r, err := SourceIteration(ctx, ch, DefaultOptions())
		require.NoError(t, err, name)
		if !assert.True(t, near(r.Phi[0], 2, 1.e-6), name) {
			continue
		}
		checkUniform(t, ch, r.Phi, 2, 1.e-6)
		assert.Equal(t, 1., r.K)
		assert.True(t, r.Iterations > 1, name)
	}
}

func TestKrylovSteadyState(t *testing.T) {
	ch := infiniteMedium(t, spatial.DefaultOptions(), scatterer())
	opts := DefaultOptions()
	opts.Method = KrylovMethod
	r, err := Solve(context.Background(), ch, opts)
	require.NoError(t, err)
	checkUniform(t, ch, r.Phi, 2, 1.e-6)
	si, err := SourceIteration(context.Background(), ch, DefaultOptions())
	require.NoError(t, err)
	// GMRES needs far fewer sweeps than source iteration
	assert.True(t, r.Iterations < si.Iterations, "%d vs %d", r.Iterations, si.Iterations)
}

func TestNotConverged(t *testing.T) {
	ch := infiniteMedium(t, spatial.DefaultOptions(), scatterer())
	opts := DefaultOptions()
	opts.MaxIterations = 2
	r, err := SourceIteration(context.Background(), ch, opts)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotConverged))
	assert.Equal(t, 2, r.Iterations)
	assert.Equal(t, ch.Size(), len(r.Phi))
	{
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err = SourceIteration(ctx, ch, DefaultOptions())
		assert.True(t, errors.Is(err, context.Canceled))
	}
}

func TestPureAbsorber(t *testing.T) {
	ch := infiniteMedium(t, spatial.DefaultOptions(),
		material.NewPureAbsorber(0, "absorber", []float64{2}, []float64{3}))
	r, err := SourceIteration(context.Background(), ch, DefaultOptions())
	require.NoError(t, err)
	checkUniform(t, ch, r.Phi, 1.5, 1.e-6)
	// Nothing scatters, but the reflected boundary fluxes still lag a sweep
	assert.True(t, r.Iterations > 1, "%d iterations", r.Iterations)
	{
		_, err = PowerIteration(context.Background(), ch, DefaultOptions())
		assert.Error(t, err)
	}
}

func TestPowerIteration(t *testing.T) {
	m := material.NewPureAbsorber(0, "fuel", []float64{1}, []float64{0})
	m.SigmaS[0] = 0.5
	m.Nu[0], m.SigmaF[0], m.Chi[0] = 2, 0.3, 1
	for _, weighting := range []spatial.Weighting{spatial.WeightWeighting, spatial.BasisWeighting} {
		opts := spatial.DefaultOptions()
		opts.Weighting = weighting
		ch := infiniteMedium(t, opts, m)
		so := DefaultOptions()
		so.Tolerance = 1e-9
		r, err := PowerIteration(context.Background(), ch, so)
		require.NoError(t, err)
		// k_inf = nu sigma_f / (sigma_t - sigma_s)
		assert.True(t, near(r.K, 1.2, 1.e-7), "k = %g", r.K)
		td := ch.Discretization()
		for i := 1; i < td.NumberOfPoints(); i++ {
			assert.True(t, near(r.Phi[td.PhiIndex(i, 0, 0)], r.Phi[0], 1.e-6*math.Abs(r.Phi[0])))
		}
	}
}

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod("krylov")
	require.NoError(t, err)
	assert.Equal(t, KrylovMethod, m)
	m, err = ParseMethod("source-iteration")
	require.NoError(t, err)
	assert.Equal(t, SourceIterationMethod, m)
	_, err = ParseMethod("jacobi")
	assert.Error(t, err)
}
