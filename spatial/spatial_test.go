package spatial

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/gomeshless/material"
	"github.com/notargets/gomeshless/meshless"
	"github.com/notargets/gomeshless/utils"
)

func TestOptionsCheck(t *testing.T) {
	{
		o := DefaultOptions()
		require.NoError(t, o.Check(1))
		assert.True(t, o.Normalized)
	}
	{ // SUPG keeps dimensional moments unnormalized
		o := DefaultOptions()
		o.IncludeSUPG = true
		require.NoError(t, o.Check(2))
		assert.False(t, o.Normalized)
	}
	{ // Collocation always works with normalized values
		o := DefaultOptions()
		o.Form, o.Weighting, o.Normalized = StrongForm, PointWeighting, false
		require.NoError(t, o.Check(1))
		assert.True(t, o.Normalized)
	}
	for name, modify := range map[string]func(o *Options){
		"moment total":  func(o *Options) { o.Total = TotalMoment },
		"strong weight": func(o *Options) { o.Form = StrongForm },
		"supg full":     func(o *Options) { o.IncludeSUPG, o.Weighting = true, FullWeighting },
		"supg strong":   func(o *Options) { o.IncludeSUPG, o.Form, o.Weighting = true, StrongForm, PointWeighting },
	} {
		o := DefaultOptions()
		modify(&o)
		err := o.Check(1)
		assert.True(t, errors.Is(err, ErrUnsupported), name)
	}
	{
		o := DefaultOptions()
		o.Weighting = FluxWeighting
		assert.Error(t, o.Check(1))
		o.Flux = func(m, g int, x []float64) float64 { return 1 }
		assert.NoError(t, o.Check(1))
		o.IntegrationCells = []int{4, 4}
		assert.Error(t, o.Check(1))
		o.IntegrationCells, o.RadiusIntervals = nil, 0
		assert.Error(t, o.Check(1))
	}
}

func TestParse(t *testing.T) {
	w, err := ParseWeighting("basis")
	require.NoError(t, err)
	assert.Equal(t, BasisWeighting, w)
	assert.Equal(t, material.BasisDependency, w.Dependency())
	assert.Equal(t, material.BasisWeightDependency, FullWeighting.Dependency())
	assert.Equal(t, material.WeightDependency, PointWeighting.Dependency())
	f, err := ParseForm("strong")
	require.NoError(t, err)
	assert.Equal(t, "STRONG", f.String())
	ts, err := ParseTauScaling("absolute")
	require.NoError(t, err)
	assert.Equal(t, TauAbsolute, ts)
	bt, err := ParseBasisType("rbf")
	require.NoError(t, err)
	assert.Equal(t, RBFBasis, bt)
	tot, err := ParseTotal("")
	require.NoError(t, err)
	assert.Equal(t, TotalIsotropic, tot)
	{
		_, err = ParseWeighting("gaussian")
		assert.Error(t, err)
		_, err = ParseForm("mixed")
		assert.Error(t, err)
		_, err = ParseTauScaling("quadratic")
		assert.Error(t, err)
		_, err = ParseBasisType("spline")
		assert.Error(t, err)
		_, err = ParseTotal("anisotropic")
		assert.Error(t, err)
	}
}

func TestSetIntegrals(t *testing.T) {
	var (
		D, S, J = 2, 1, 3
		fn      = meshless.NewRBFFunction(meshless.Wendland{}, 1, []float64{0, 0.5})
		opts    = WeightOptions{Weighting: WeightWeighting, Normalized: true}
	)
	w := NewWeightFunction(0, 0, opts, fn, []int{4, 7, 9}, []int{0})
	assert.Equal(t, utils.Boundary, w.PointType())
	j, ok := w.LocalBasisIndex(7)
	assert.True(t, ok)
	assert.Equal(t, 1, j)
	_, ok = w.LocalBasisIndex(5)
	assert.False(t, ok)
	s, ok := w.LocalSurfaceIndex(0)
	assert.True(t, ok)
	assert.Equal(t, 0, s)
	assert.Equal(t, 1, w.NumberOfDimensionalMoments())

	values := Values{VB: make([]float64, J), VDb: make([]float64, D*J)}
	weighted := material.NewWeighted(material.WeightDependency, 1, 1, 1, true)
	{ // wrong table sizes
		err := w.SetIntegrals(NewIntegrals(D, S, J+1), values, weighted)
		assert.Error(t, err)
		assert.False(t, w.Integrated())
	}
	{
		err := w.SetIntegrals(NewIntegrals(D, S, J), Values{VB: make([]float64, J)}, weighted)
		assert.Error(t, err)
	}
	{
		err := w.SetIntegrals(NewIntegrals(D, S, J), values,
			material.NewWeighted(material.WeightDependency, 3, 1, 1, true))
		assert.Error(t, err)
	}
	require.NoError(t, w.SetIntegrals(NewIntegrals(D, S, J), values, weighted))
	assert.True(t, w.Integrated())
	assert.Equal(t, J, len(w.Integrals().IvBW))
	err := w.SetIntegrals(NewIntegrals(D, S, J), values, weighted)
	assert.True(t, errors.Is(err, ErrAlreadyIntegrated))
}
