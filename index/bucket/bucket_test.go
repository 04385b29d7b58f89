package bucket

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMask(t *testing.T) {
	tests := []struct {
		n    int
		want uint64
	}{
		{1, 0},
		{2, 1},
		{3, 3},
		{4, 3},
		{5, 7},
		{1000, 1023},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Mask(tt.n), "n=%d", tt.n)
	}
}

func TestFoundIffSharedCode(t *testing.T) {
	const n, l = 64, 4
	rng := rand.New(rand.NewPCG(1, 2))
	b, err := New(n, l, rng)
	require.NoError(t, err)

	codes := make([][]uint64, n)
	for key := range n {
		codes[key] = make([]uint64, l)
		for j := range l {
			codes[key][j] = rng.Uint64()
		}
		require.NoError(t, b.Insert(key, codes[key]))
	}

	for trial := range 20 {
		q := make([]uint64, l)
		for j := range l {
			q[j] = rng.Uint64()
		}
		if trial%2 == 0 {
			// force a collision with one key in one table
			q[trial%l] = codes[trial][trial%l]
		}

		var firstSight []int
		found, err := b.Search(q, n+1, func(key int) { firstSight = append(firstSight, key) })
		require.NoError(t, err)
		assert.Len(t, firstSight, len(found))

		for key := range n {
			shared := 0
			for j := range l {
				if codes[key][j]&b.Mask() == q[j]&b.Mask() {
					shared++
				}
			}
			cnt, ok := found[key]
			assert.Equal(t, shared > 0, ok, "key %d", key)
			if ok {
				assert.Equal(t, shared, cnt, "key %d", key)
			}
		}
	}
}

func TestSearchStopsAtLimit(t *testing.T) {
	b, err := New(16, 2, rand.New(rand.NewPCG(3, 3)))
	require.NoError(t, err)
	for key := range 10 {
		require.NoError(t, b.Insert(key, []uint64{0, 0}))
	}

	calls := 0
	found, err := b.Search([]uint64{0, 0}, 3, func(int) { calls++ })
	require.NoError(t, err)
	assert.Len(t, found, 3)
	assert.Equal(t, 3, calls)

	found, err = b.Search([]uint64{0, 0}, 0, nil)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestInsertShuffleUniform(t *testing.T) {
	const size, trials = 4, 4000
	counts := make([][]int, size)
	for i := range counts {
		counts[i] = make([]int, size)
	}

	for trial := range trials {
		b, err := New(size, 1, rand.New(rand.NewPCG(uint64(trial), 17)))
		require.NoError(t, err)
		for key := range size {
			require.NoError(t, b.Insert(key, []uint64{0}))
		}
		for pos, key := range b.tables[0][0] {
			counts[key][pos]++
		}
	}

	expected := trials / size
	for key := range size {
		for pos := range size {
			assert.InDelta(t, expected, counts[key][pos], 150, "key %d pos %d", key, pos)
		}
	}
}

func TestCodeLengthValidated(t *testing.T) {
	b, err := New(4, 3, rand.New(rand.NewPCG(1, 1)))
	require.NoError(t, err)
	assert.Error(t, b.Insert(0, []uint64{1, 2}))
	_, err = b.Search([]uint64{1}, 1, nil)
	assert.Error(t, err)

	_, err = New(0, 3, rand.New(rand.NewPCG(1, 1)))
	assert.Error(t, err)
}
