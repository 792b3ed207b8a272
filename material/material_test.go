package material

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoGroupLibrary = `
groups = 2

[[material]]
name = "fuel"
scattering_moments = 1
sigma_t = [1.0, 2.0]
sigma_s = [0.5, 0.0, 0.1, 1.2]
nu = [2.4, 2.4]
sigma_f = [0.05, 0.3]
chi = [1.0, 0.0]

[[material]]
name = "source"
sigma_t = [0.5, 0.5]
internal_source = [1.0, 0.0]
`

func TestLibrary(t *testing.T) {
	{
		lib, err := DecodeLibrary(strings.NewReader(twoGroupLibrary))
		require.NoError(t, err)
		assert.Equal(t, 2, len(lib.Materials))
		idx, err := lib.Index("source")
		require.NoError(t, err)
		assert.Equal(t, 1, idx)
		src := lib.Material(idx)
		assert.Equal(t, []float64{0, 0, 0, 0}, src.SigmaS)
		assert.Equal(t, []float64{1, 0}, src.InternalSource)
		fuel := lib.Material(0)
		// scattering from group 0 into group 1
		assert.Equal(t, 0.1, fuel.SigmaS[SigmaSIndex(0, 1, 0, 2)])
		assert.Equal(t, 0., fuel.SigmaS[SigmaSIndex(1, 0, 0, 2)])
		assert.Equal(t, 1, lib.ScatteringMoments())
		_, err = lib.Index("moderator")
		assert.Error(t, err)
	}
	{ // Inconsistent sizes are rejected
		_, err := DecodeLibrary(strings.NewReader(`
groups = 2
[[material]]
name = "bad"
sigma_t = [1.0]
`))
		assert.Error(t, err)
		_, err = DecodeLibrary(strings.NewReader(`groups = 1`))
		assert.Error(t, err)
	}
}

func TestWeighted(t *testing.T) {
	w := NewWeighted(WeightDependency, 3, 2, 1, false)
	assert.Equal(t, 5, w.GroupIndex(2, 1))
	assert.Equal(t, 1+3*(1+2*(0+2*0)), w.ScatteringIndex(1, 1, 0, 0))
	assert.NoError(t, w.Validate(4))
	w.Dependency = BasisWeightDependency
	assert.Error(t, w.Validate(4))
	w.BasisSigmaT = make([]float64, 8)
	assert.NoError(t, w.Validate(4))
	assert.Equal(t, "BASIS_WEIGHT", w.Dependency.String())
	{ // Unnormalized values are divided by the flux weighted norm
		w.Norm[w.GroupIndex(0, 1)], w.Norm[w.GroupIndex(1, 1)] = 4, 1
		assert.Equal(t, 0.5, w.Average(2, 1))
		// no norm, nothing to divide by
		assert.Equal(t, 2., w.Average(2, 0))
		w.SigmaT[w.GroupIndex(0, 1)], w.SigmaT[w.GroupIndex(1, 1)] = 8, 3
		assert.Equal(t, 11./5, w.Streamline(w.SigmaT, []float64{1, 1, 0}, 1))
		w.Normalized = true
		assert.Equal(t, 2., w.Average(2, 1))
		assert.Equal(t, 11., w.Streamline(w.SigmaT, []float64{1, 1, 0}, 1))
		w.Norm = nil
		assert.Error(t, w.Validate(4))
	}
	assert.NoError(t, NewPureAbsorber(0, "a", []float64{1}, []float64{1}).Validate())
}
