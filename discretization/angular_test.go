package discretization

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func near(a, b float64, tolI ...float64) bool {
	tol := 1.e-10
	if len(tolI) != 0 {
		tol = tolI[0]
	}
	return math.Abs(a-b) <= tol
}

// Applying moment-to-discrete then discrete-to-moment must recover the moments
func checkMomentRoundTrip(t *testing.T, a *Angular) {
	var (
		M = a.NumberOfMoments()
		O = a.NumberOfOrdinates()
	)
	for m1 := 0; m1 < M; m1++ {
		for m2 := 0; m2 < M; m2++ {
			var sum float64
			for o := 0; o < O; o++ {
				sum += a.DiscreteToMoment(m1, o) * a.MomentToDiscrete(m2, o)
			}
			expected := 0.
			if m1 == m2 {
				expected = 1
			}
			assert.True(t, near(sum, expected, 1.e-12), "m1=%d m2=%d sum=%v", m1, m2, sum)
		}
	}
}

func TestAngular1D(t *testing.T) {
	a, err := NewAngular1D(4, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, a.NumberOfOrdinates())
	assert.Equal(t, 3, a.NumberOfMoments())
	var wsum float64
	for o := 0; o < 4; o++ {
		wsum += a.Weight(o)
		assert.Equal(t, 1, len(a.Direction(o)))
	}
	assert.True(t, near(wsum, a.Normalization))
	checkMomentRoundTrip(t, a)
	// P2 at mu
	mu := a.Direction(3)[0]
	assert.True(t, near(a.Moment(2, 3), 0.5*(3*mu*mu-1)))
	for o := 0; o < 4; o++ {
		ref, err := a.ReflectOrdinate(o, []float64{1})
		require.NoError(t, err)
		assert.Equal(t, 3-o, ref)
	}
	_, err = NewAngular1D(3, 1)
	assert.Error(t, err)
}

func TestAngularProduct(t *testing.T) {
	for _, dim := range []int{2, 3} {
		a, err := NewAngularProduct(dim, 4, 8, 2)
		require.NoError(t, err)
		assert.Equal(t, 32, a.NumberOfOrdinates())
		assert.Equal(t, 1+dim, a.NumberOfMoments())
		var wsum float64
		for o := 0; o < a.NumberOfOrdinates(); o++ {
			wsum += a.Weight(o)
			dir := a.Direction(o)
			assert.Equal(t, dim, len(dir))
		}
		assert.True(t, near(wsum, 4*math.Pi))
		checkMomentRoundTrip(t, a)
		for d := 0; d < dim; d++ {
			normal := make([]float64, dim)
			normal[d] = -1
			for o := 0; o < a.NumberOfOrdinates(); o++ {
				ref, err := a.ReflectOrdinate(o, normal)
				require.NoError(t, err)
				assert.True(t, near(a.Direction(ref)[d], -a.Direction(o)[d]))
				back, err := a.ReflectOrdinate(ref, normal)
				require.NoError(t, err)
				assert.Equal(t, o, back)
			}
		}
	}
	_, err := NewAngularProduct(2, 4, 3, 1)
	assert.Error(t, err)
	_, err = NewAngularProduct(2, 4, 4, 3)
	assert.Error(t, err)
	_, err = NewEnergy(0)
	assert.Error(t, err)
}
