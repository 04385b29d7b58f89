package search

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/hyperlsh/distance"
	"github.com/hupe1980/hyperlsh/hash"
	"github.com/hupe1980/hyperlsh/model"
	"github.com/hupe1980/hyperlsh/testutil"
)

// checkResults verifies the shape every searcher guarantees.
func checkResults(t *testing.T, q Query, data [][]float64, res []model.IdxVal) {
	t.Helper()

	assert.LessOrEqual(t, len(res), q.Top)
	seen := make(map[int]bool, len(res))
	for i, iv := range res {
		assert.False(t, seen[iv.Idx], "duplicate index %d", iv.Idx)
		seen[iv.Idx] = true
		assert.Equal(t, q.Metric.Distance(q.Vector, data[iv.Idx]), iv.Value)
		if i > 0 {
			assert.LessOrEqual(t, res[i-1].Value, iv.Value)
		}
	}
}

func TestHashSearch(t *testing.T) {
	rng := testutil.NewRNG(42)
	data := rng.GaussianVectors(50, 8)
	queries := rng.GaussianVectors(5, 8)

	for _, kind := range []hash.Kind{hash.BH, hash.EH, hash.MH} {
		t.Run(kind.String(), func(t *testing.T) {
			var (
				h   *hash.Bits
				err error
			)
			switch kind {
			case hash.BH:
				h, err = hash.NewBH(8, 1, 64, rng.Rand())
			case hash.EH:
				h, err = hash.NewEH(8, 1, 64, rng.Rand())
			case hash.MH:
				h, err = hash.NewMH(8, 1, 64, 2, rng.Rand())
			}
			require.NoError(t, err)

			s, err := NewHashSearch(h, data, rng.Rand())
			require.NoError(t, err)

			for _, v := range queries {
				q := Query{Vector: v, Top: 5, Limit: len(data), Metric: distance.AbsDot}
				res, err := s.Search(q)
				require.NoError(t, err)
				checkResults(t, q, data, res)

				truth := testutil.BruteForce(q.Metric, v, data, q.Top)
				require.NotEmpty(t, res)
				assert.GreaterOrEqual(t, res[0].Value, truth[0].Value)
			}
		})
	}
}

func TestHashSearchNearestPlanePointsFound(t *testing.T) {
	rng := testutil.NewRNG(7)
	data := rng.GaussianVectors(50, 8)
	h, err := hash.NewBH(8, 1, 64, rng.Rand())
	require.NoError(t, err)
	s, err := NewHashSearch(h, data, rng.Rand())
	require.NoError(t, err)

	v := rng.GaussianVectors(1, 8)[0]
	q := Query{Vector: v, Top: 5, Limit: len(data), Metric: distance.AbsDot}
	res, err := s.Search(q)
	require.NoError(t, err)

	truth := testutil.BruteForce(q.Metric, v, data, q.Top)
	assert.GreaterOrEqual(t, testutil.ComputeRecall(truth, res), 0.8)
}

func TestHashSearchSmallLimit(t *testing.T) {
	rng := testutil.NewRNG(42)
	data := rng.GaussianVectors(4, 3)

	h, err := hash.NewBH(3, 1, 64, rng.Rand())
	require.NoError(t, err)
	s, err := NewHashSearch(h, data, rng.Rand())
	require.NoError(t, err)

	q := Query{Vector: []float64{1, -1, 0.5}, Top: 1, Limit: 4, Metric: distance.AbsDot}
	res, err := s.Search(q)
	require.NoError(t, err)
	require.Len(t, res, 1)
	checkResults(t, q, data, res)

	q.Limit = 0
	res, err = s.Search(q)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestNHSearch(t *testing.T) {
	rng := testutil.NewRNG(3)
	data := rng.UnitVectors(100, 6)
	for j := range data[0] {
		data[0][j] *= 10
	}

	h, err := hash.NewNH(6, 8, 2, 0.5, rng.Rand())
	require.NoError(t, err)
	s, err := NewNHSearch(h, data)
	require.NoError(t, err)

	q := Query{Vector: data[0], Top: 12, Metric: distance.Cos}
	res, err := s.Search(q)
	require.NoError(t, err)
	checkResults(t, q, data, res)

	require.NotEmpty(t, res)
	assert.Equal(t, 0, res[0].Idx)
	assert.InDelta(t, 0, res[0].Value, 1e-12)

	again, err := s.Search(q)
	require.NoError(t, err)
	assert.Equal(t, res, again)
}

func TestNHSearchTopTwo(t *testing.T) {
	for seed := range uint64(5) {
		rng := testutil.NewRNG(seed)
		data := distance.Concat(rng.GaussianVectors(60, 4), distance.Fill(60, 1))
		h, err := hash.NewNH(5, 4, 2, 1, rng.Rand())
		require.NoError(t, err)
		s, err := NewNHSearch(h, data)
		require.NoError(t, err)

		q := Query{Vector: rng.Hyperplanes(1, 4)[0], Top: 2, Metric: distance.DP2H}
		res, err := s.Search(q)
		require.NoError(t, err)
		checkResults(t, q, data, res)
		assert.NotEmpty(t, res)
	}
}

func TestPartition(t *testing.T) {
	rng := rand.New(rand.NewPCG(9, 9))
	order := make([]model.IdxVal, 500)
	for i := range order {
		order[i] = model.IdxVal{Idx: i, Value: rng.Float64() * 10}
	}
	model.Sort(order)

	tests := []struct {
		name     string
		b        float64
		maxBlock int
	}{
		{"ratio", 0.9, 25000},
		{"capped", 0.1, 40},
		{"singletons", 0.9, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocks := Partition(order, tt.b, tt.maxBlock)

			total := 0
			for i, blk := range blocks {
				assert.Equal(t, total, blk.Start)
				assert.GreaterOrEqual(t, blk.Size, 1)
				assert.LessOrEqual(t, blk.Size, tt.maxBlock)
				total += blk.Size

				start := order[blk.Start].Value
				for k := blk.Start + 1; k < blk.Start+blk.Size; k++ {
					assert.LessOrEqual(t, tt.b*order[k].Value, start)
				}
				if i < len(blocks)-1 && blk.Size < tt.maxBlock {
					assert.Greater(t, tt.b*order[blk.Start+blk.Size].Value, start)
				}
			}
			assert.Equal(t, len(order), total)
		})
	}

	assert.Empty(t, Partition(nil, 0.9, 10))
}

func TestFHSearchExhaustive(t *testing.T) {
	rng := testutil.NewRNG(11)
	data := distance.Concat(rng.GaussianVectors(80, 4), distance.Fill(80, 1))

	h, err := hash.NewFH(5, 2, rng.Rand())
	require.NoError(t, err)
	s, err := NewFHSearch(h, 0.5, 8, data, rng.Rand())
	require.NoError(t, err)

	for _, v := range rng.Hyperplanes(3, 4) {
		q := Query{Vector: v, Top: 5, Limit: len(data), Metric: distance.DP2H, Separation: 2}
		res, err := s.Search(q)
		require.NoError(t, err)
		assert.Equal(t, testutil.BruteForce(q.Metric, v, data, q.Top), res)
	}
}

func TestFHSearchBlocks(t *testing.T) {
	rng := testutil.NewRNG(12)
	data := distance.Concat(rng.GaussianVectors(300, 4), distance.Fill(300, 1))

	h, err := hash.NewFH(5, 2, rng.Rand())
	require.NoError(t, err)
	s, err := NewFHSearch(h, 0.9, 8, data, rng.Rand(), func(o *FHOptions) {
		o.MaxBlockSize = 50
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, s.Blocks(), 6)

	for _, v := range rng.Hyperplanes(5, 4) {
		q := Query{Vector: v, Top: 10, Limit: 60, Metric: distance.DP2H, Separation: 3}
		res, err := s.Search(q)
		require.NoError(t, err)
		checkResults(t, q, data, res)
		assert.NotEmpty(t, res)
	}
}

func TestFHSearchErrors(t *testing.T) {
	rng := testutil.NewRNG(13)
	data := rng.GaussianVectors(20, 3)
	h, err := hash.NewFH(3, 2, rng.Rand())
	require.NoError(t, err)

	_, err = NewFHSearch(h, 1.5, 4, data, rng.Rand())
	var invalid *model.ErrInvalidParameter
	assert.ErrorAs(t, err, &invalid)

	s, err := NewFHSearch(h, 0.5, 4, data, rng.Rand())
	require.NoError(t, err)

	_, err = s.Search(Query{Vector: []float64{0, 0, 0}, Top: 1, Limit: 5, Separation: 1})
	assert.ErrorIs(t, err, model.ErrZeroVector)

	_, err = s.Search(Query{Vector: []float64{1, 0, 0}, Top: 0, Limit: 5, Separation: 1})
	assert.ErrorIs(t, err, model.ErrInvalidTop)

	_, err = s.Search(Query{Vector: []float64{1, 0}, Top: 1, Limit: 5, Separation: 1})
	var mismatch *model.ErrDimensionMismatch
	assert.ErrorAs(t, err, &mismatch)

	_, err = s.Search(Query{Vector: []float64{1, 0, 0}, Top: 1, Limit: 5, Separation: 5})
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "separation", invalid.Name)

	_, err = s.Search(Query{Vector: []float64{1, 1, 1}, Top: 1, Limit: 5, Separation: 4, Metric: distance.AbsDot})
	assert.NoError(t, err)
}

func TestSearchUnboundedTop(t *testing.T) {
	rng := testutil.NewRNG(14)
	data := distance.Concat(rng.GaussianVectors(40, 4), distance.Fill(40, 1))
	v := rng.Hyperplanes(1, 4)[0]

	bh, err := hash.NewBH(5, 2, 8, rng.Rand())
	require.NoError(t, err)
	hs, err := NewHashSearch(bh, data, rng.Rand())
	require.NoError(t, err)

	nh, err := hash.NewNH(5, 4, 2, 1, rng.Rand())
	require.NoError(t, err)
	ns, err := NewNHSearch(nh, data)
	require.NoError(t, err)

	fh, err := hash.NewFH(5, 2, rng.Rand())
	require.NoError(t, err)
	fs, err := NewFHSearch(fh, 0.5, 4, data, rng.Rand())
	require.NoError(t, err)

	tests := []struct {
		name     string
		searcher Searcher
		complete bool
	}{
		{"hash", hs, false},
		{"nh", ns, true},
		{"fh", fs, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Query{Vector: v, Top: math.MaxInt, Limit: len(data), Metric: distance.DP2H, Separation: 2}
			res, err := tt.searcher.Search(q)
			require.NoError(t, err)
			checkResults(t, q, data, res)
			assert.LessOrEqual(t, len(res), len(data))
			if tt.complete {
				assert.Equal(t, testutil.BruteForce(q.Metric, v, data, len(data)), res)
			}
		})
	}
}

func TestBatch(t *testing.T) {
	rng := testutil.NewRNG(21)
	data := rng.GaussianVectors(64, 6)
	h, err := hash.NewBH(6, 2, 16, rng.Rand())
	require.NoError(t, err)
	s, err := NewHashSearch(h, data, rng.Rand())
	require.NoError(t, err)

	var queries []Query
	for _, v := range rng.GaussianVectors(20, 6) {
		queries = append(queries, Query{Vector: v, Top: 3, Limit: 32, Metric: distance.AbsDot})
	}

	got, err := Batch(context.Background(), s, queries, 4)
	require.NoError(t, err)
	require.Len(t, got, len(queries))
	for i, q := range queries {
		want, err := s.Search(q)
		require.NoError(t, err)
		assert.Equal(t, want, got[i])
	}

	queries[7].Top = 0
	_, err = Batch(context.Background(), s, queries, 4)
	assert.ErrorIs(t, err, model.ErrInvalidTop)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Batch(ctx, s, queries[:1], 1)
	assert.ErrorIs(t, err, context.Canceled)
}
