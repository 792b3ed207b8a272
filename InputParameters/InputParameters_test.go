package InputParameters

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/gomeshless/linsolve"
	"github.com/notargets/gomeshless/material"
	"github.com/notargets/gomeshless/solver"
	"github.com/notargets/gomeshless/spatial"
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

const library = `
groups = 1

[[material]]
name = "scatterer"
sigma_t = [1.0]
sigma_s = [0.5]
internal_source = [1.0]

[[material]]
name = "fuel"
sigma_t = [1.0]
sigma_s = [0.5]
nu = [2.0]
sigma_f = [0.3]
chi = [1.0]
`

const reflected = `
Title: "reflected scatterer"
Limits: [[0, 1]]
Points: [11]
DefaultMaterial: scatterer
Ordinates: 4
Boundaries:
  xmin:
    Alpha: 1
  xmax:
    Alpha: 1
Spatial:
  Weighting: weight
Solver:
  Iteration: krylov
  Tolerance: 1.e-10
Reference: "2"
`

func loadLibrary(t *testing.T) *material.Library {
	lib, err := material.DecodeLibrary(strings.NewReader(library))
	require.NoError(t, err)
	return lib
}

func TestParse(t *testing.T) {
	var ip InputParameters
	require.NoError(t, ip.Parse([]byte(reflected)))
	assert.Equal(t, "reflected scatterer", ip.Title)
	assert.Equal(t, 1, ip.Dimension())
	assert.Equal(t, []int{11}, ip.Points)
	assert.Equal(t, 1., ip.Boundaries["xmax"].Alpha)
	{
		opts, err := ip.SpatialOptions()
		require.NoError(t, err)
		assert.Equal(t, spatial.WeightWeighting, opts.Weighting)
		assert.Equal(t, spatial.WeakForm, opts.Form)
		assert.True(t, opts.Normalized)
	}
	{
		opts, err := ip.SolverOptions()
		require.NoError(t, err)
		assert.Equal(t, solver.KrylovMethod, opts.Method)
		sw, err := ip.SweepOptions("run")
		require.NoError(t, err)
		assert.Equal(t, linsolve.Direct, sw.Solver.Method)
		assert.Equal(t, "run", sw.RunID)
	}
	{
		var bad InputParameters
		assert.Error(t, bad.Parse([]byte("Limits: [[0, 1]]\nPoints: [3, 3]\nOrdinates: 2\n")))
		assert.Error(t, bad.Parse([]byte("Limits: [[0, 1]]\nPoints: [3]\nOrdinates: 2\nBoundaries: {ymin: {Alpha: 1}}\n")))
		assert.Error(t, bad.Parse([]byte("Limits: [[0, 1]\n")))
	}
	{
		ip.Spatial.Normalized = new(bool)
		ip.Spatial.IdenticalBasis = "true"
		opts, err := ip.SpatialOptions()
		require.NoError(t, err)
		assert.False(t, opts.Normalized)
		assert.Equal(t, spatial.IdenticalTrue, opts.IdenticalBasis)
		ip.Spatial.IdenticalBasis = "sometimes"
		_, err = ip.SpatialOptions()
		assert.Error(t, err)
	}
}

func TestExpression(t *testing.T) {
	e, err := NewExpression("exp(-x) * (g + 1) + y")
	require.NoError(t, err)
	v, err := e.Evaluate([]float64{1, 2}, 0, 1)
	require.NoError(t, err)
	assert.True(t, near(v, 2*math.Exp(-1)+2))
	{
		_, err = NewExpression("(x")
		assert.Error(t, err)
		e, err = NewExpression("w + 1")
		require.NoError(t, err)
		_, err = e.Evaluate([]float64{0}, 0, 0)
		assert.Error(t, err)
	}
}

func TestSetup(t *testing.T) {
	var (
		ctx = context.Background()
		lib = loadLibrary(t)
		ip  InputParameters
	)
	require.NoError(t, ip.Parse([]byte(reflected)))
	p, err := ip.Setup(ctx, lib, "test")
	require.NoError(t, err)
	assert.Equal(t, 11, p.TD.NumberOfPoints())
	// three boundary bases at each end, four ordinates
	assert.Equal(t, []int{0, 1, 2, 8, 9, 10}, p.TD.Spatial.BoundaryBases)
	assert.Equal(t, 6*4, p.TD.NumberOfAugments())
	r, err := p.Solve(ctx)
	require.NoError(t, err)
	for _, v := range p.ScalarFlux(r.Phi, 0) {
		// q / sigma_a
		assert.True(t, near(v, 2, 1.e-6), "%g", v)
	}
	maxErr, err := p.ReferenceError(r.Phi)
	require.NoError(t, err)
	assert.True(t, maxErr < 1.e-6)
	{
		ip.DefaultMaterial = "fuel"
		ip.Solver.Eigenvalue = true
		ip.Solver.Iteration = ""
		p, err = ip.Setup(ctx, lib, "test")
		require.NoError(t, err)
		r, err = p.Solve(ctx)
		require.NoError(t, err)
		assert.True(t, near(r.K, 1.2, 1.e-7), "k = %g", r.K)
	}
	{
		ip.DefaultMaterial = "steel"
		_, err = ip.Setup(ctx, lib, "test")
		assert.Error(t, err)
	}
}

func TestIncomingBoundary(t *testing.T) {
	var (
		lib = loadLibrary(t)
		ip  InputParameters
	)
	require.NoError(t, ip.Parse([]byte(`
Limits: [[0, 1]]
Points: [5]
Ordinates: 2
Boundaries:
  xmin:
    Incoming: [0.5]
`)))
	angular, err := ip.Angular(lib)
	require.NoError(t, err)
	solid, err := ip.Solid(lib, angular)
	require.NoError(t, err)
	left, right := solid.Source(0), solid.Source(1)
	for o := 0; o < angular.NumberOfOrdinates(); o++ {
		if angular.Direction(o)[0] > 0 {
			assert.Equal(t, 0.5, left.Data[o])
		} else {
			assert.Equal(t, 0., left.Data[o])
		}
		assert.Equal(t, 0., right.Data[o])
	}
	{
		ip.Boundaries["xmin"] = BoundaryInput{Incoming: []float64{1, 2}}
		_, err = ip.Solid(lib, angular)
		assert.Error(t, err)
	}
}
