package hash

import (
	"math"
	"math/rand/v2"

	"github.com/hupe1980/hyperlsh/model"
)

// NH is the nearest hyperplane hash. A vector's sampled quadratic expansion
// is projected onto m Gaussian vectors in the expansion space and each
// projection is quantized into buckets of width w.
type NH struct {
	sampler *Sampler
	m       int
	w       float64
	nhdim   int
	proja   []float64
	projb   []float64
}

// NewNH returns an NH hash for vectors of length dim with m projections,
// sample scale s and bucket width w.
func NewNH(dim, m, s int, w float64, rng *rand.Rand) (*NH, error) {
	if err := model.Positive("m", m); err != nil {
		return nil, err
	}
	if !(w > 0) || math.IsInf(w, 0) {
		return nil, &model.ErrInvalidParameter{Name: "w", Value: w, Reason: "must be a positive finite number"}
	}
	sampler, err := NewSampler(dim, s, rng)
	if err != nil {
		return nil, err
	}

	nhdim := sampler.ExpandedDim()
	h := &NH{
		sampler: sampler,
		m:       m,
		w:       w,
		nhdim:   nhdim,
		proja:   make([]float64, m*nhdim),
		projb:   make([]float64, m),
	}
	for i := range h.proja {
		h.proja[i] = rng.NormFloat64()
	}
	for i := range h.projb {
		h.projb[i] = rng.NormFloat64()
	}
	return h, nil
}

// Dim returns the input dimension.
func (h *NH) Dim() int { return h.sampler.Dim() }

// Projections returns m, the signature length.
func (h *NH) Projections() int { return h.m }

// Data returns the n×m signature matrix of a dataset. Each point's projection
// is completed with the coordinate sqrt(M − ‖f(x)‖²), where M is the largest
// squared expansion norm in the dataset.
func (h *NH) Data(data [][]float64) ([][]int, error) {
	projs := make([][]float64, len(data))
	norms := make([]float64, len(data))
	var maxNorm float64
	for i, x := range data {
		sample, err := h.sampler.Sample(x)
		if err != nil {
			return nil, err
		}
		projs[i] = h.project(sample)
		norms[i] = model.SquaredNorm(sample)
		maxNorm = max(maxNorm, norms[i])
	}

	sigs := make([][]int, len(data))
	for i, proj := range projs {
		last := math.Sqrt(max(0, maxNorm-norms[i]))
		sig := make([]int, h.m)
		for j := range h.m {
			val := proj[j] + last*h.proja[(j+1)*h.nhdim-1]
			sig[j] = h.quantize(val, j)
		}
		sigs[i] = sig
	}
	return sigs, nil
}

// Query returns the signature of a query vector. The trailing coordinate of
// a query is zero.
func (h *NH) Query(q []float64) ([]int, error) {
	sample, err := h.sampler.Sample(q)
	if err != nil {
		return nil, err
	}
	proj := h.project(sample)
	sig := make([]int, h.m)
	for j := range h.m {
		sig[j] = h.quantize(proj[j], j)
	}
	return sig, nil
}

func (h *NH) project(sample []model.IdxVal) []float64 {
	projs := make([]float64, h.m)
	for j := range h.m {
		row := h.proja[j*h.nhdim:][:h.nhdim]
		var val float64
		for _, iv := range sample {
			val += row[iv.Idx] * iv.Value
		}
		projs[j] = val
	}
	return projs
}

func (h *NH) quantize(val float64, j int) int {
	return int(math.Floor((val + h.projb[j]) / h.w))
}
