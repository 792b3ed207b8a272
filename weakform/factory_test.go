package weakform

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/gomeshless/geometry"
	"github.com/notargets/gomeshless/material"
	"github.com/notargets/gomeshless/spatial"
	"github.com/notargets/gomeshless/utils"
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

func vacuumBox(t *testing.T, limits [][2]float64) *geometry.Box {
	sources := make([]geometry.BoundarySource, 2*len(limits))
	for s := range sources {
		sources[s] = geometry.NewVacuumSource(s, 1, 2)
	}
	solid, err := geometry.NewBox(limits, sources, 0)
	require.NoError(t, err)
	return solid
}

func absorber() []*material.Material {
	return []*material.Material{material.NewPureAbsorber(0, "absorber", []float64{1}, []float64{0})}
}

func TestSpacingAndPoints(t *testing.T) {
	solid := vacuumBox(t, [][2]float64{{0, 1}, {0, 2}})
	points, err := UniformPoints(solid, []int{3, 5})
	require.NoError(t, err)
	assert.Equal(t, 15, len(points))
	assert.Equal(t, []float64{0, 0}, points[0])
	assert.Equal(t, []float64{0.5, 0}, points[1])
	assert.Equal(t, []float64{1, 2}, points[14])
	spacing, err := Spacing(points)
	require.NoError(t, err)
	assert.True(t, near(spacing, 0.5))
	assert.Equal(t, []int{4, 8}, DefaultCells(solid, spacing))
	{
		_, err = Spacing(points[:1])
		assert.Error(t, err)
		_, err = Spacing([][]float64{{0, 0}, {0, 0}})
		assert.Error(t, err)
		_, err = UniformPoints(solid, []int{3})
		assert.Error(t, err)
	}
}

func TestNewDiscretization(t *testing.T) {
	solid := vacuumBox(t, [][2]float64{{0, 1}})
	points, err := UniformPoints(solid, []int{11})
	require.NoError(t, err)
	opts := spatial.DefaultOptions()
	opts.RadiusIntervals = 2.3
	sd, err := NewDiscretization(solid, points, absorber(), 1, opts)
	require.NoError(t, err)
	assert.Equal(t, 11, sd.NumberOfPoints())
	assert.False(t, sd.Identical)
	{ // Boundary bases are those whose support reaches a plane
		assert.Equal(t, []int{0, 1, 2, 8, 9, 10}, sd.BoundaryBases)
		for a, k := range sd.BoundaryBases {
			assert.Equal(t, utils.Boundary, sd.Bases[k].PointType())
			assert.Equal(t, a, sd.Bases[k].BoundaryIndex())
		}
		assert.Equal(t, utils.Interior, sd.Bases[5].PointType())
		assert.Equal(t, -1, sd.Bases[5].BoundaryIndex())
	}
	{ // Stencils hold every basis with overlapping support, in order
		w := sd.Weights[5]
		assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9}, w.BasisIndices())
		assert.True(t, near(w.Radius(), 0.23))
		assert.Equal(t, []int{0, 1, 2, 3, 4}, sd.Weights[0].BasisIndices())
		assert.Equal(t, []int{0}, sd.Weights[0].BoundarySurfaces())
	}
	{ // A support ending exactly on a plane does not reach it, on either side
		sym, err := NewDiscretization(solid, points, absorber(), 1, spatial.DefaultOptions())
		require.NoError(t, err)
		assert.Equal(t, []int{0, 1, 2, 8, 9, 10}, sym.BoundaryBases)
		assert.Empty(t, sym.Weights[3].BoundarySurfaces())
		assert.Empty(t, sym.Weights[7].BoundarySurfaces())
	}
	{ // Points outside the solid and group mismatches are rejected
		_, err = NewDiscretization(solid, [][]float64{{0}, {2}}, absorber(), 1, opts)
		assert.Error(t, err)
		_, err = NewDiscretization(solid, points, absorber(), 2, opts)
		assert.Error(t, err)
	}
}

func TestConfigurationErrors(t *testing.T) {
	solid := vacuumBox(t, [][2]float64{{0, 1}})
	points, err := UniformPoints(solid, []int{6})
	require.NoError(t, err)
	for _, mod := range []func(o *spatial.Options){
		func(o *spatial.Options) { o.Total = spatial.TotalMoment },
		func(o *spatial.Options) { o.Form = spatial.StrongForm },
		func(o *spatial.Options) { o.IncludeSUPG, o.Weighting = true, spatial.FullWeighting },
		func(o *spatial.Options) {
			o.IncludeSUPG, o.Form, o.Weighting = true, spatial.StrongForm, spatial.PointWeighting
		},
		func(o *spatial.Options) { o.IdenticalBasis = spatial.IdenticalTrue },
	} {
		opts := spatial.DefaultOptions()
		mod(&opts)
		_, err = NewDiscretization(solid, points, absorber(), 1, opts)
		assert.True(t, errors.Is(err, spatial.ErrUnsupported), "%v", err)
	}
	{
		opts := spatial.DefaultOptions()
		opts.Weighting = spatial.FluxWeighting
		_, err = NewDiscretization(solid, points, absorber(), 1, opts)
		assert.Error(t, err)
		opts.RBF = "multiquadric"
		opts.Flux = func(_, _ int, _ []float64) float64 { return 1 }
		_, err = NewDiscretization(solid, points, absorber(), 1, opts)
		assert.Error(t, err)
	}
}

func TestTauScaling(t *testing.T) {
	solid := vacuumBox(t, [][2]float64{{0, 1}})
	points, err := UniformPoints(solid, []int{11})
	require.NoError(t, err)
	tau := func(scaling spatial.TauScaling) []float64 {
		opts := spatial.DefaultOptions()
		opts.IncludeSUPG = true
		opts.TauScaling = scaling
		opts.TauConst = 2
		opts.RadiusIntervals = 2.3
		sd, err := NewDiscretization(solid, points, absorber(), 1, opts)
		require.NoError(t, err)
		assert.False(t, sd.Options.Normalized)
		var v []float64
		for _, w := range sd.Weights {
			v = append(v, w.Options().Tau)
		}
		return v
	}
	// Wendland support is one, so the unscaled tau is TauConst times the radius
	{
		v := tau(spatial.TauNone)
		for _, x := range v {
			assert.True(t, near(x, 0.46))
		}
	}
	{
		v := tau(spatial.TauLinear)
		assert.True(t, near(v[0], 0))
		assert.True(t, near(v[1], 0.2, 1.e-9))
		assert.True(t, near(v[5], 0.46))
	}
	{
		v := tau(spatial.TauAbsolute)
		assert.True(t, near(v[2], 0))
		assert.True(t, near(v[3], 0.46))
	}
	{
		v := tau(spatial.TauFunctional)
		assert.True(t, near(v[0], 0))
		assert.True(t, v[1] > 0 && v[1] < 0.46)
		assert.True(t, near(v[5], 0.46))
	}
}

func TestBuild(t *testing.T) {
	solid := vacuumBox(t, [][2]float64{{0, 1}, {0, 1}})
	points, err := UniformPoints(solid, []int{5, 5})
	require.NoError(t, err)
	opts := spatial.DefaultOptions()
	opts.ParallelDegree = 3
	sd, err := Build(context.Background(), solid, points, absorber(), 1, opts)
	require.NoError(t, err)
	assert.True(t, sd.Integrated())
	assert.NoError(t, sd.Check())
	for _, w := range sd.Weights {
		assert.True(t, w.Integrals().IvW[0] > 0)
		for s := range w.BoundarySurfaces() {
			assert.True(t, w.Integrals().IsW[s] > 0, "weight %d surface %d", w.Index(), s)
		}
	}
	{ // A second pass keeps the stored tables
		ivw := sd.Weights[0].Integrals().IvW[0]
		require.NoError(t, Integrate(context.Background(), sd))
		assert.Equal(t, ivw, sd.Weights[0].Integrals().IvW[0])
	}
}
