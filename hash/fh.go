package hash

import (
	"math"
	"math/rand/v2"

	"github.com/hupe1980/hyperlsh/model"
)

// FH is the furthest hyperplane hash. It only expands vectors; projection
// happens per block inside the furthest-neighbour index.
type FH struct {
	sampler *Sampler
}

// Transform is the dataset-level FH transform.
type Transform struct {
	// Last holds sqrt(M − ‖f(x)‖²) per point, the appended coordinate.
	Last []float64
	// Centroid is the mean of the augmented expansions; its final slot is
	// the mean of Last.
	Centroid []float64
	// Samples holds the sparse expansion of every point.
	Samples [][]model.IdxVal
	// M is the largest squared expansion norm.
	M float64
	// Order lists every point with its distance to the centroid, ascending.
	Order []model.IdxVal
}

// NewFH returns an FH hash for vectors of length dim with sample scale s.
func NewFH(dim, s int, rng *rand.Rand) (*FH, error) {
	sampler, err := NewSampler(dim, s, rng)
	if err != nil {
		return nil, err
	}
	return &FH{sampler: sampler}, nil
}

// Dim returns the input dimension.
func (h *FH) Dim() int { return h.sampler.Dim() }

// ExpandedDim returns the dimension of the augmented expansion.
func (h *FH) ExpandedDim() int { return h.sampler.ExpandedDim() }

// Data computes the transform of a dataset.
func (h *FH) Data(data [][]float64) (*Transform, error) {
	n := len(data)
	if n == 0 {
		return nil, model.ErrEmptyDataset
	}
	fhdim := h.ExpandedDim()

	t := &Transform{
		Last:     make([]float64, n),
		Centroid: make([]float64, fhdim),
		Samples:  make([][]model.IdxVal, n),
	}
	norms := make([]float64, n)
	for i, x := range data {
		sample, err := h.sampler.Sample(x)
		if err != nil {
			return nil, err
		}
		for _, iv := range sample {
			t.Centroid[iv.Idx] += iv.Value
		}
		t.Samples[i] = sample
		norms[i] = model.SquaredNorm(sample)
		t.M = max(t.M, norms[i])
	}

	var l2centroid float64
	for i := range fhdim - 1 {
		t.Centroid[i] /= float64(n)
		l2centroid += t.Centroid[i] * t.Centroid[i]
	}
	var last float64
	for i := range n {
		t.Last[i] = math.Sqrt(max(0, t.M-norms[i]))
		last += t.Last[i]
	}
	last /= float64(n)
	t.Centroid[fhdim-1] = last
	l2centroid += last * last

	t.Order = make([]model.IdxVal, n)
	for i := range n {
		t.Order[i] = model.IdxVal{Idx: i, Value: t.centroidDist(l2centroid, i)}
	}
	model.Sort(t.Order)
	return t, nil
}

// centroidDist returns ‖(f(x_i), last_i) − centroid‖ using the sparsity of
// f(x_i): start from ‖centroid‖² and correct only the touched slots.
func (t *Transform) centroidDist(l2centroid float64, i int) float64 {
	dist := l2centroid
	for _, iv := range t.Samples[i] {
		c := t.Centroid[iv.Idx]
		diff := iv.Value - c
		dist += diff*diff - c*c
	}
	c := t.Centroid[len(t.Centroid)-1]
	diff := t.Last[i] - c
	dist += diff*diff - c*c
	return math.Sqrt(max(0, dist))
}

// Query returns the raw expansion of a query vector.
func (h *FH) Query(q []float64) ([]model.IdxVal, error) {
	return h.sampler.Sample(q)
}
