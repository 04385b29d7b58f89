package testutil

import (
	"math"
	"math/rand/v2"
	"sync"

	"github.com/hupe1980/hyperlsh/distance"
	"github.com/hupe1980/hyperlsh/internal/queue"
	"github.com/hupe1980/hyperlsh/model"
)

// RNG wraps a seeded generator. It is safe for concurrent use.
type RNG struct {
	rand *rand.Rand
	seed uint64
	mu   sync.Mutex
}

// NewRNG creates a new RNG with the given seed.
func NewRNG(seed uint64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewPCG(seed, seed)),
		seed: seed,
	}
}

// Reset restarts the sequence from the initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand = rand.New(rand.NewPCG(r.seed, r.seed))
}

// Seed returns the initial seed.
func (r *RNG) Seed() uint64 {
	return r.seed
}

// IntN returns a pseudo-random number in [0,n).
func (r *RNG) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.IntN(n)
}

// Rand returns an independent generator seeded from this one, for
// constructors that take a *rand.Rand.
func (r *RNG) Rand() *rand.Rand {
	r.mu.Lock()
	defer r.mu.Unlock()
	return rand.New(rand.NewPCG(r.rand.Uint64(), r.rand.Uint64()))
}

// UniformVectors generates vectors with values in [-1, 1).
func (r *RNG) UniformVectors(num, dim int) [][]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	backing := make([]float64, num*dim)
	vectors := make([][]float64, num)
	for i := range num {
		vec := backing[i*dim : (i+1)*dim : (i+1)*dim]
		for j := range vec {
			vec[j] = r.rand.Float64()*2 - 1
		}
		vectors[i] = vec
	}
	return vectors
}

// GaussianVectors generates vectors from a standard normal distribution.
func (r *RNG) GaussianVectors(num, dim int) [][]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	backing := make([]float64, num*dim)
	vectors := make([][]float64, num)
	for i := range num {
		vec := backing[i*dim : (i+1)*dim : (i+1)*dim]
		for j := range vec {
			vec[j] = r.rand.NormFloat64()
		}
		vectors[i] = vec
	}
	return vectors
}

// UnitVectors generates L2-normalized vectors, uniform on the sphere.
func (r *RNG) UnitVectors(num, dim int) [][]float64 {
	vectors := r.GaussianVectors(num, dim)
	for _, vec := range vectors {
		norm := distance.Norm(vec)
		if norm == 0 {
			continue
		}
		for j := range vec {
			vec[j] /= norm
		}
	}
	return vectors
}

// Hyperplanes generates DP2H queries for points of dimension dim: a unit
// normal of length dim followed by an offset in [-0.5, 0.5).
func (r *RNG) Hyperplanes(num, dim int) [][]float64 {
	normals := r.UnitVectors(num, dim)

	r.mu.Lock()
	defer r.mu.Unlock()

	planes := make([][]float64, num)
	for i, n := range normals {
		planes[i] = append(n, r.rand.Float64()-0.5)
	}
	return planes
}

// BruteForce returns the k points nearest to q under metric by linear scan,
// ascending.
func BruteForce(metric distance.Metric, q []float64, data [][]float64, k int) []model.IdxVal {
	top := queue.NewTopK(k)
	for i, x := range data {
		top.Push(i, metric.Distance(q, x))
	}
	return top.Drain()
}

// KthDistance returns the largest distance in an ascending result list, or
// +Inf when it is empty.
func KthDistance(results []model.IdxVal) float64 {
	if len(results) == 0 {
		return math.Inf(1)
	}
	return results[len(results)-1].Value
}

// ComputeRecall returns the fraction of groundTruth indices present in
// approximate. Two empty lists have recall 1.
func ComputeRecall(groundTruth, approximate []model.IdxVal) float64 {
	if len(groundTruth) == 0 {
		if len(approximate) == 0 {
			return 1.0
		}
		return 0.0
	}

	truthSet := make(map[int]struct{}, len(groundTruth))
	for _, iv := range groundTruth {
		truthSet[iv.Idx] = struct{}{}
	}

	hits := 0
	for _, iv := range approximate {
		if _, ok := truthSet[iv.Idx]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(groundTruth))
}

// Matched counts results whose distance does not exceed the k-th true
// distance. Unlike recall it credits ties.
func Matched(groundTruth, approximate []model.IdxVal) int {
	kth := KthDistance(groundTruth)
	matched := 0
	for _, iv := range approximate {
		if iv.Value <= kth {
			matched++
		}
	}
	return matched
}
