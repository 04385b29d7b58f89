package hash

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/hupe1980/hyperlsh/model"
)

// Sampler draws O(s·d) coordinates of the d(d+1)/2 quadratic expansion of a
// vector, weighting coordinates by their energy.
//
// Sampling is deterministic per input: the generator for a vector is seeded
// from a value fixed at construction and from the vector's bytes, so the same
// vector always yields the same sample.
type Sampler struct {
	dim       int
	expandDim int
	sampleDim int
	seed      uint64
}

// NewSampler returns a sampler for vectors of length dim drawing dim*s
// coordinates per vector.
func NewSampler(dim, s int, rng *rand.Rand) (*Sampler, error) {
	if err := model.Positive("dim", dim); err != nil {
		return nil, err
	}
	if err := model.Positive("s", s); err != nil {
		return nil, err
	}
	return &Sampler{
		dim:       dim,
		expandDim: ExpandedDim(dim),
		sampleDim: dim * s,
		seed:      rng.Uint64(),
	}, nil
}

// ExpandedDim returns d(d+1)/2 + 1: every diagonal and off-diagonal slot of
// the quadratic expansion plus one trailing coordinate.
func ExpandedDim(dim int) int {
	return dim*(dim+1)/2 + 1
}

// Dim returns the input dimension.
func (s *Sampler) Dim() int { return s.dim }

// ExpandedDim returns the dimension of the expansion space.
func (s *Sampler) ExpandedDim() int { return s.expandDim }

// Sample returns the sparse expansion of x. The first entry is always the
// squared last coordinate; duplicate slots are dropped.
func (s *Sampler) Sample(x []float64) ([]model.IdxVal, error) {
	if err := model.CheckDimension(s.dim, len(x)); err != nil {
		return nil, err
	}

	rng := s.rngFor(x)
	prob := cumulative(x)
	checked := make([]bool, s.expandDim)
	sample := make([]model.IdxVal, 0, s.sampleDim)

	sid := s.dim - 1
	checked[sid] = true
	sample = append(sample, model.IdxVal{Idx: sid, Value: x[sid] * x[sid]})

	for i := 1; i < s.sampleDim; i++ {
		idx := searchIdx(s.dim-1, prob, rng)
		idy := searchIdx(s.dim, prob, rng)
		if idx > idy {
			idx, idy = idy, idx
		}

		var val float64
		if idx == idy {
			sid = idx
			val = x[idx] * x[idx]
		} else {
			sid = s.dim + idx*s.dim - idx*(idx+1)/2 + (idy - idx - 1)
			val = x[idx] * x[idy]
		}
		if !checked[sid] {
			checked[sid] = true
			sample = append(sample, model.IdxVal{Idx: sid, Value: val})
		}
	}
	return sample, nil
}

func (s *Sampler) rngFor(x []float64) *rand.Rand {
	h := fnv.New64a()
	var buf [8]byte
	for _, v := range x {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		_, _ = h.Write(buf[:])
	}
	return rand.New(rand.NewPCG(s.seed, h.Sum64()))
}

func cumulative(x []float64) []float64 {
	prob := make([]float64, len(x))
	prob[0] = x[0] * x[0]
	for i := 1; i < len(x); i++ {
		prob[i] = prob[i-1] + x[i]*x[i]
	}
	return prob
}

// searchIdx draws from N(0, prob[d-1]) and maps the draw back onto the
// cumulative prefix prob[:d]. A prefix with no energy always yields 0.
func searchIdx(d int, prob []float64, rng *rand.Rand) int {
	if d <= 0 {
		return 0
	}
	end := prob[d-1]
	if !(end > 0) {
		return 0
	}
	rnd := rng.NormFloat64() * end
	return locate(prob[:d], rnd)
}

// locate returns i when prob[i] == rnd, otherwise the index just before
// rnd's insertion point, floored at 0.
func locate(prob []float64, rnd float64) int {
	i := sort.SearchFloat64s(prob, rnd)
	if i < len(prob) && prob[i] == rnd {
		return i
	}
	return max(0, i-1)
}
