package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBox(t *testing.T) {
	{ // Planes, normals and materials in 2D
		sources := make([]BoundarySource, 4)
		for i := range sources {
			sources[i] = NewVacuumSource(i, 1, 4)
		}
		sources[1] = NewReflectiveSource(1, 1, 4)
		b, err := NewBox([][2]float64{{0, 1}, {0, 2}}, sources, 0,
			Region{Limits: [][2]float64{{0.5, 1}, {0, 2}}, Material: 1})
		require.NoError(t, err)
		require.Equal(t, 4, len(b.Planes))
		assert.Equal(t, -1., b.Planes[0].Normal)
		assert.Equal(t, 1., b.Planes[3].Normal)
		assert.Equal(t, 2., b.Planes[3].Position)
		assert.Equal(t, []float64{0, 1}, b.Planes[3].NormalVector())
		assert.True(t, b.HasReflection())
		assert.True(t, b.Source(1).HasReflection())
		assert.False(t, b.Source(0).HasReflection())

		assert.Equal(t, 0, b.MaterialAt([]float64{0.25, 1}))
		assert.Equal(t, 1, b.MaterialAt([]float64{0.75, 1}))
		assert.True(t, b.Inside([]float64{1, 2}))
		assert.False(t, b.Inside([]float64{1.1, 2}))
		assert.Equal(t, []int{0, 2}, b.NearestSurfaces([]float64{0.1, 0.1}, 0.2))
		assert.Equal(t, []int{1}, b.OnBoundary([]float64{1, 1}))
		// 1 - 0.7 rounds above 0.3, both sides tie the same way
		assert.Empty(t, b.NearestSurfaces([]float64{0.3, 1}, 0.3))
		assert.Empty(t, b.NearestSurfaces([]float64{0.7, 1}, 0.3))
		assert.Equal(t, []int{1}, b.NearestSurfaces([]float64{0.7, 1}, 0.31))
	}
	{ // Plane direction tests, tangent is neither
		p := CartesianPlane{Dimension: 2, SurfaceDimension: 0, Position: 1, Normal: 1}
		assert.True(t, p.Outgoing([]float64{0.5, 0.5}))
		assert.True(t, p.Incoming([]float64{-0.5, 0.5}))
		assert.False(t, p.Outgoing([]float64{0, 1}))
		assert.False(t, p.Incoming([]float64{0, 1}))
		assert.Equal(t, 0.25, p.Distance([]float64{0.75, 3}))
	}
	{ // Setup errors
		_, err := NewBox([][2]float64{{0, 1}}, nil, 0)
		assert.Error(t, err)
		_, err = NewBox([][2]float64{{1, 0}}, make([]BoundarySource, 2), 0)
		assert.Error(t, err)
		assert.Error(t, BoundarySource{Alpha: []float64{2}, Data: []float64{0}}.Validate(1, 1))
		assert.NoError(t, NewReflectiveSource(0, 2, 3).Validate(2, 3))
	}
}
