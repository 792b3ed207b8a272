package operator_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/gomeshless/discretization"
	"github.com/notargets/gomeshless/geometry"
	"github.com/notargets/gomeshless/material"
	"github.com/notargets/gomeshless/operator"
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

func slab(t *testing.T, n, ordinates, moments int, opts spatial.Options, mats ...*material.Material) *transport.Discretization {
	G := mats[0].Groups
	sources := []geometry.BoundarySource{
		geometry.NewVacuumSource(0, G, ordinates),
		geometry.NewVacuumSource(1, G, ordinates),
	}
	solid, err := geometry.NewBox([][2]float64{{0, 1}}, sources, 0)
	require.NoError(t, err)
	points, err := weakform.UniformPoints(solid, []int{n})
	require.NoError(t, err)
	sd, err := weakform.Build(context.Background(), solid, points, mats, G, opts)
	require.NoError(t, err)
	angular, err := discretization.NewAngular1D(ordinates, moments)
	require.NoError(t, err)
	energy, err := discretization.NewEnergy(G)
	require.NoError(t, err)
	td, err := transport.NewDiscretization(sd, angular, energy)
	require.NoError(t, err)
	return td
}

func fissile() *material.Material {
	m := material.NewPureAbsorber(0, "fuel", []float64{1}, []float64{0})
	m.Nu[0], m.SigmaF[0], m.Chi[0] = 2, 0.5, 1
	return m
}

func TestCompositions(t *testing.T) {
	{ // Operators apply right to left
		c, err := operator.Compose(operator.Scale(2, operator.Identity{Size: 2}),
			operator.Scale(3, operator.Identity{Size: 2}))
		require.NoError(t, err)
		y, err := c.Apply([]float64{1, -1})
		require.NoError(t, err)
		assert.Equal(t, []float64{6, -6}, y)
	}
	{
		s, err := operator.Sum(operator.Identity{Size: 2}, operator.Scale(2, operator.Identity{Size: 2}))
		require.NoError(t, err)
		x := []float64{1, 2}
		y, err := s.Apply(x)
		require.NoError(t, err)
		assert.Equal(t, []float64{3, 6}, y)
		_, err = s.Apply([]float64{1})
		assert.Error(t, err)
	}
	{ // Mismatched sizes are rejected at construction
		_, err := operator.Compose(operator.Identity{Size: 2}, operator.Identity{Size: 3})
		assert.Error(t, err)
		_, err = operator.Sum(operator.Identity{Size: 2}, operator.Identity{Size: 3})
		assert.Error(t, err)
		_, err = operator.Compose()
		assert.Error(t, err)
	}
	{ // Augments pass through or are zeroed
		op := operator.Scale(2, operator.Identity{Size: 3})
		assert.Equal(t, operator.VectorOperator(op), operator.Augment(0, op, false))
		a := operator.Augment(2, op, false)
		assert.Equal(t, 5, a.RowSize())
		assert.Equal(t, 5, a.ColumnSize())
		y, err := a.Apply([]float64{1, 2, 3, 4, 5})
		require.NoError(t, err)
		assert.Equal(t, []float64{2, 4, 6, 4, 5}, y)
		z := operator.Augment(2, op, true)
		y, err = z.Apply([]float64{1, 2, 3, 4, 5})
		require.NoError(t, err)
		assert.Equal(t, []float64{2, 4, 6, 0, 0}, y)
		// The sum of a carrying and a zeroing operator carries augments once
		s, err := operator.Sum(a, z)
		require.NoError(t, err)
		y, err = s.Apply([]float64{1, 1, 1, 7, 8})
		require.NoError(t, err)
		assert.Equal(t, []float64{4, 4, 4, 7, 8}, y)
	}
}

func TestAngularRoundTrip(t *testing.T) {
	td := slab(t, 5, 4, 2, spatial.DefaultOptions(),
		material.NewPureAbsorber(0, "absorber", []float64{1}, []float64{0}))
	var (
		M = operator.NewMomentToDiscrete(td)
		D = operator.NewDiscreteToMoment(td)
	)
	assert.Equal(t, td.PsiSize(), M.RowSize())
	assert.Equal(t, td.PhiSize(), D.RowSize())
	phi := make([]float64, td.PhiSize())
	for i := 0; i < td.NumberOfPoints(); i++ {
		phi[td.PhiIndex(i, 0, 0)] = 1 + float64(i)
		phi[td.PhiIndex(i, 1, 0)] = 0.25 * float64(i)
	}
	DM, err := operator.Compose(D, M)
	require.NoError(t, err)
	y, err := DM.Apply(append([]float64(nil), phi...))
	require.NoError(t, err)
	for k := range phi {
		assert.True(t, near(phi[k], y[k], 1.e-12))
	}
	{ // Isotropic moments give the same psi on every ordinate
		iso := make([]float64, td.PhiSize())
		for i := 0; i < td.NumberOfPoints(); i++ {
			iso[td.PhiIndex(i, 0, 0)] = 2
		}
		psi, err := M.Apply(iso)
		require.NoError(t, err)
		for _, v := range psi {
			assert.True(t, near(v, 1))
		}
	}
}

func TestFission(t *testing.T) {
	td := slab(t, 3, 2, 2, spatial.DefaultOptions(), fissile())
	phi := make([]float64, td.PhiSize())
	for i := 0; i < td.NumberOfPoints(); i++ {
		phi[td.PhiIndex(i, 0, 0)] = 1
		phi[td.PhiIndex(i, 1, 0)] = 0.3
	}
	for _, F := range []*operator.Fission{
		operator.NewFission(td, operator.Full),
		operator.NewBasisFission(td, operator.Full),
	} {
		y, err := F.Apply(append([]float64(nil), phi...))
		require.NoError(t, err)
		for i := 0; i < td.NumberOfPoints(); i++ {
			assert.True(t, near(y[td.PhiIndex(i, 0, 0)], 1, 1.e-10))
			assert.Equal(t, 0., y[td.PhiIndex(i, 1, 0)])
		}
	}
	{ // A single group has no incoherent fission
		y, err := operator.NewFission(td, operator.Incoherent).Apply(phi)
		require.NoError(t, err)
		for _, v := range y {
			assert.Equal(t, 0., v)
		}
	}
}

func TestScatteringKinds(t *testing.T) {
	m := material.NewPureAbsorber(0, "scatterer", []float64{1, 1}, []float64{0, 0})
	m.SigmaS[material.SigmaSIndex(0, 0, 0, 2)] = 0.3
	m.SigmaS[material.SigmaSIndex(0, 1, 0, 2)] = 0.2
	m.SigmaS[material.SigmaSIndex(1, 1, 0, 2)] = 0.4
	m.SigmaS[material.SigmaSIndex(1, 0, 0, 2)] = 0.1
	td := slab(t, 5, 4, 2, spatial.DefaultOptions(), m)
	phi := make([]float64, td.PhiSize())
	for i := 0; i < td.NumberOfPoints(); i++ {
		phi[td.PhiIndex(i, 0, 0)] = 1
		phi[td.PhiIndex(i, 0, 1)] = 2
		phi[td.PhiIndex(i, 1, 0)] = 5
		phi[td.PhiIndex(i, 1, 1)] = 5
	}
	apply := func(k operator.Kind) []float64 {
		y, err := operator.NewScattering(td, k).Apply(append([]float64(nil), phi...))
		require.NoError(t, err)
		return y
	}
	full, coherent, incoherent := apply(operator.Full), apply(operator.Coherent), apply(operator.Incoherent)
	for k := range full {
		assert.True(t, near(full[k], coherent[k]+incoherent[k], 1.e-12))
	}
	for i := 0; i < td.NumberOfPoints(); i++ {
		assert.True(t, near(full[td.PhiIndex(i, 0, 0)], 0.3*1+0.1*2))
		assert.True(t, near(full[td.PhiIndex(i, 0, 1)], 0.2*1+0.4*2))
		assert.True(t, near(coherent[td.PhiIndex(i, 0, 1)], 0.8))
		// Only isotropic scattering is given
		assert.Equal(t, 0., full[td.PhiIndex(i, 1, 0)])
		assert.Equal(t, 0., full[td.PhiIndex(i, 1, 1)])
	}
	{
		k, err := operator.ParseKind("incoherent")
		require.NoError(t, err)
		assert.Equal(t, operator.Incoherent, k)
		_, err = operator.ParseKind("sideways")
		assert.Error(t, err)
	}
}

func TestMomentWeighting(t *testing.T) {
	td := slab(t, 7, 2, 1, spatial.DefaultOptions(),
		material.NewPureAbsorber(0, "absorber", []float64{1}, []float64{1.5}))
	var (
		sd  = td.Spatial
		one = make([]float64, td.PhiSize())
	)
	for i := range one {
		one[i] = 1
	}
	// Linear MLS reproduces constants, so weighting a constant is IvW
	y, err := operator.NewMomentWeighting(td).Apply(one)
	require.NoError(t, err)
	q, err := operator.NewInternalSource(td).Apply(make([]float64, td.PhiSize()))
	require.NoError(t, err)
	for i, w := range sd.Weights {
		ivW := w.Integrals().IvW[0]
		assert.True(t, near(y[td.PhiIndex(i, 0, 0)], ivW, 1.e-10))
		assert.True(t, near(q[td.PhiIndex(i, 0, 0)], 1.5*ivW, 1.e-10))
	}
}

func TestSUPGWeighting(t *testing.T) {
	opts := spatial.DefaultOptions()
	opts.IncludeSUPG = true
	opts.TauScaling = spatial.TauNone
	td := slab(t, 7, 2, 1, opts,
		material.NewPureAbsorber(0, "absorber", []float64{1}, []float64{1}))
	var (
		sd = td.Spatial
		DM = sd.NumberOfDimensionalMoments()
	)
	require.Equal(t, 2, DM)
	one := make([]float64, td.PhiSize())
	for i := range one {
		one[i] = 1
	}
	y, err := operator.NewSUPGMomentWeighting(td).Apply(append([]float64(nil), one...))
	require.NoError(t, err)
	assert.Equal(t, td.SUPGPhiSize(), len(y))
	q, err := operator.NewInternalSource(td).Apply(one)
	require.NoError(t, err)
	for i, w := range sd.Weights {
		in := w.Integrals()
		for d := 0; d < DM; d++ {
			want := in.IvW[0]
			if d > 0 {
				want = in.IvDw[d-1]
			}
			assert.True(t, near(y[d+DM*i], want, 1.e-10))
			assert.True(t, near(q[d+DM*i], want, 1.e-10))
		}
	}
	{ // Streamline expansion weights the gradient moment by tau times mu
		M := operator.NewSUPGMomentToDiscrete(td)
		x := make([]float64, td.SUPGPhiSize())
		for i := 0; i < td.NumberOfPoints(); i++ {
			x[0+DM*i], x[1+DM*i] = 2, 4
		}
		psi, err := M.Apply(x)
		require.NoError(t, err)
		for i, w := range sd.Weights {
			tau := w.Options().Tau
			for o := 0; o < td.NumberOfOrdinates(); o++ {
				mu := td.Angular.Direction(o)[0]
				assert.True(t, near(psi[td.PsiIndex(i, o, 0)], 1+2*tau*mu, 1.e-12))
			}
		}
	}
}
