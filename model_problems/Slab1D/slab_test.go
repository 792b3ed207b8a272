package Slab1D

import (
	"bytes"
	"context"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/gomeshless/discretization"
	"github.com/notargets/gomeshless/solver"
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

func TestExactSolution(t *testing.T) {
	s := NewSlab1D(11)
	var err error
	s.Angular, err = discretization.NewAngular1D(s.Ordinates, 1)
	require.NoError(t, err)
	for o := 0; o < s.Ordinates; o++ {
		mu := s.Angular.Direction(o)[0]
		// Vacuum on entry
		if mu > 0 {
			assert.Equal(t, 0., s.AngularFlux(s.XMin, mu))
		} else {
			assert.Equal(t, 0., s.AngularFlux(s.XMax, mu))
		}
		// Continuous across the interface
		assert.True(t, near(s.AngularFlux(s.Interface-1e-12, mu), s.AngularFlux(s.Interface, mu), 1.e-10))
	}
	{ // The equilibrium flux entering a uniform slab stays put
		s.SigmaT = [2]float64{2, 2}
		s.Incoming = [2]float64{0.25, 0.25}
		for _, x := range []float64{-1, -0.3, 0, 0.7, 1} {
			assert.True(t, near(s.ScalarFlux(x), 0.5))
		}
	}
}

func TestSlab(t *testing.T) {
	ctx := context.Background()
	var errs []float64
	for _, n := range []int{21, 41} {
		s := NewSlab1D(n)
		x, phi, r, err := s.Run(ctx)
		require.NoError(t, err)
		// Without scattering the first sweep is the answer
		assert.Equal(t, 1, r.Iterations)
		assert.Equal(t, n, len(phi))
		e := s.MaxRelativeError(x, phi)
		t.Logf("%d points: max relative error %g", n, e)
		errs = append(errs, e)
	}
	assert.Less(t, errs[1], 5.e-2)
	assert.Less(t, errs[1], errs[0])
}

func TestUniformSlab(t *testing.T) {
	// Without the material interface the error is set by the quadrature
	var errs []float64
	for _, n := range []int{21, 41} {
		s := NewSlab1D(n)
		s.SigmaT = [2]float64{1, 1}
		x, phi, _, err := s.Run(context.Background())
		require.NoError(t, err)
		errs = append(errs, s.MaxRelativeError(x, phi))
	}
	assert.Less(t, errs[0], 5.e-3)
	assert.Less(t, errs[1], 1.e-3)
	assert.Less(t, errs[1], errs[0])
}

func TestSlabIncomingFlux(t *testing.T) {
	for _, method := range []solver.Method{solver.SourceIterationMethod, solver.KrylovMethod} {
		s := NewSlab1D(41)
		s.Incoming = [2]float64{1, 0.5}
		s.Solver.Method = method
		x, phi, _, err := s.Run(context.Background())
		require.NoError(t, err)
		assert.Less(t, s.MaxRelativeError(x, phi), 5.e-2)
	}
	{
		s := NewSlab1D(41)
		s.Interface = 2
		_, _, _, err := s.Run(context.Background())
		assert.Error(t, err)
	}
}

func TestConvergenceStudy(t *testing.T) {
	{
		cs := NewConvergenceStudy("synthetic", "WEIGHT")
		cs.Add(11, 1.e-2)
		cs.Add(21, 2.5e-3)
		orders := cs.Orders()
		require.Equal(t, 1, len(orders))
		assert.True(t, near(orders[0], 2, 1.e-12))
	}
	cs := NewConvergenceStudy("slab", "WEIGHT")
	require.NoError(t, cs.Run(context.Background(), NewSlab1D(0), []int{21, 41}))
	assert.Equal(t, []int{21, 41}, cs.NumPTS)
	assert.Greater(t, cs.Orders()[0], 0.)
	var buf bytes.Buffer
	require.NoError(t, cs.WriteCSV(&buf))
	studies, err := ReadCSV(&buf)
	require.NoError(t, err)
	read := studies["slabWEIGHT"]
	require.NotNil(t, read)
	assert.Equal(t, cs.NumPTS, read.NumPTS)
	assert.Equal(t, cs.MaxErr, read.MaxErr)
	{
		_, err = ReadCSV(strings.NewReader("title,weighting,points,max_error\nslab,WEIGHT,many,1\n"))
		assert.Error(t, err)
	}
}
