package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSRBuilder(t *testing.T) {
	{ // Unsorted and repeated columns
		cb := NewCSRBuilder(3, 3, "A")
		require.NoError(t, cb.AddRow([]int{2, 0, 0}, []float64{3, 1, 1}))
		require.NoError(t, cb.AddRow([]int{1}, []float64{4}))
		require.NoError(t, cb.AddRow([]int{2, 1}, []float64{6, 5}))
		A, err := cb.Build()
		require.NoError(t, err)
		assert.Equal(t, 2., A.At(0, 0))
		assert.Equal(t, 3., A.At(0, 2))
		assert.Equal(t, 0., A.At(1, 0))
		assert.Equal(t, 5, A.NNZ())
		cols, vals := A.Row(2)
		assert.Equal(t, []int{1, 2}, cols)
		assert.Equal(t, []float64{5, 6}, vals)

		// dst is overwritten, not accumulated
		y := []float64{7, 7, 7}
		A.MulVecTo(y, []float64{1, 1, 1})
		assert.Equal(t, []float64{5, 4, 11}, y)

		D := A.ToDense()
		assert.Equal(t, 6., D.At(2, 2))
	}
	{ // Structural errors
		cb := NewCSRBuilder(1, 2, "B")
		assert.Error(t, cb.AddRow([]int{2}, []float64{1}))
		assert.Error(t, cb.AddRow([]int{0, 1}, []float64{1}))
		_, err := cb.Build()
		assert.Error(t, err)
	}
}

func TestMathHelpers(t *testing.T) {
	assert.InDelta(t, 5., Distance([]float64{0, 0}, []float64{3, 4}), 1.e-14)
	assert.InDelta(t, 0., BoxDistance([]float64{0.5, 0.5}, [][2]float64{{0, 1}, {0, 1}}), 1.e-14)
	assert.InDelta(t, 1., BoxDistance([]float64{2, 0.5}, [][2]float64{{0, 1}, {0, 1}}), 1.e-14)
	assert.Equal(t, []float64{0, 0.5, 1}, Linspace(0, 1, 3))
	assert.Equal(t, 32., POW(2, 5))
	assert.Equal(t, 1, FirstNonFinite([]float64{1, math.NaN()}))
	assert.Equal(t, 2, FirstNonFinite([]float64{1, 2, math.Inf(-1)}))
	assert.Equal(t, -1, FirstNonFinite([]float64{1, 2}))
}
