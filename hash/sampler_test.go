package hash

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pairOf inverts the off-diagonal slot formula.
func pairOf(dim, sid int) (int, int) {
	for idx := range dim {
		for idy := idx + 1; idy < dim; idy++ {
			if dim+idx*dim-idx*(idx+1)/2+(idy-idx-1) == sid {
				return idx, idy
			}
		}
	}
	return -1, -1
}

func TestSamplerShape(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	const dim, s = 6, 3
	sampler, err := NewSampler(dim, s, rng)
	require.NoError(t, err)
	assert.Equal(t, 22, sampler.ExpandedDim())

	for trial := range 50 {
		x := make([]float64, dim)
		for i := range x {
			x[i] = rng.NormFloat64()
		}
		sample, err := sampler.Sample(x)
		require.NoError(t, err)

		require.NotEmpty(t, sample)
		assert.LessOrEqual(t, len(sample), dim*s)
		assert.Equal(t, dim-1, sample[0].Idx, "trial %d", trial)
		assert.InDelta(t, x[dim-1]*x[dim-1], sample[0].Value, 1e-12)

		seen := map[int]bool{}
		for _, iv := range sample {
			assert.False(t, seen[iv.Idx], "duplicate slot %d", iv.Idx)
			seen[iv.Idx] = true
			require.Less(t, iv.Idx, sampler.ExpandedDim()-1)

			if iv.Idx < dim {
				assert.InDelta(t, x[iv.Idx]*x[iv.Idx], iv.Value, 1e-12)
				continue
			}
			a, b := pairOf(dim, iv.Idx)
			require.GreaterOrEqual(t, a, 0)
			assert.InDelta(t, x[a]*x[b], iv.Value, 1e-12)
		}
	}
}

func TestSamplerDeterministic(t *testing.T) {
	a, err := NewSampler(4, 2, rand.New(rand.NewPCG(9, 9)))
	require.NoError(t, err)
	b, err := NewSampler(4, 2, rand.New(rand.NewPCG(9, 9)))
	require.NoError(t, err)

	x := []float64{0.3, -1.2, 2.5, 0.7}
	s1, err := a.Sample(x)
	require.NoError(t, err)
	s2, err := a.Sample(x)
	require.NoError(t, err)
	s3, err := b.Sample(x)
	require.NoError(t, err)

	assert.Equal(t, s1, s2)
	assert.Equal(t, s1, s3)
}

func TestSamplerZeroPrefix(t *testing.T) {
	sampler, err := NewSampler(3, 4, rand.New(rand.NewPCG(3, 4)))
	require.NoError(t, err)

	sample, err := sampler.Sample([]float64{0, 0, 1})
	require.NoError(t, err)
	assert.Equal(t, 2, sample[0].Idx)

	sample, err = sampler.Sample([]float64{0, 0, 0})
	require.NoError(t, err)
	assert.Len(t, sample, 2)
}

func TestSamplerDimensionMismatch(t *testing.T) {
	sampler, err := NewSampler(3, 1, rand.New(rand.NewPCG(1, 1)))
	require.NoError(t, err)
	_, err = sampler.Sample([]float64{1, 2})
	assert.Error(t, err)
}

func TestLocate(t *testing.T) {
	prob := []float64{1, 3, 6}
	tests := []struct {
		rnd  float64
		want int
	}{
		{-5, 0},
		{0.5, 0},
		{1, 0},
		{2, 0},
		{3, 1},
		{4, 1},
		{6, 2},
		{math.Inf(1), 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, locate(prob, tt.rnd), "rnd=%v", tt.rnd)
	}
}
