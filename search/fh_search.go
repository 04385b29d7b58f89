package search

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"

	"github.com/hupe1980/hyperlsh/hash"
	"github.com/hupe1980/hyperlsh/index/rqalsh"
	"github.com/hupe1980/hyperlsh/model"
)

// FHOptions contains configuration options for FHSearch.
type FHOptions struct {
	// MaxBlockSize caps the number of points in one block.
	MaxBlockSize int
	// ScanChunk and MaxScan are passed to every RQALSH block.
	ScanChunk int
	MaxScan   int
	// Logger receives build events and scan-cap warnings. Nil disables logging.
	Logger *slog.Logger
}

// DefaultFHOptions contains the default FHSearch options.
var DefaultFHOptions = FHOptions{
	MaxBlockSize: 25000,
	ScanChunk:    rqalsh.DefaultOptions.ScanChunk,
	MaxScan:      rqalsh.DefaultOptions.MaxScan,
}

// Block is a contiguous run of the centroid-distance order.
type Block struct {
	Start int
	Size  int
}

// Partition splits points sorted by ascending centroid distance into
// blocks. A block starting at s takes every following point p with
// b*dist[p] <= dist[s], up to maxBlock points.
func Partition(order []model.IdxVal, b float64, maxBlock int) []Block {
	var blocks []Block
	for start := 0; start < len(order); {
		size := 1
		for start+size < len(order) && size < maxBlock && b*order[start+size].Value <= order[start].Value {
			size++
		}
		blocks = append(blocks, Block{Start: start, Size: size})
		start += size
	}
	return blocks
}

// FHSearch answers queries with the FH transform and one RQALSH structure
// per block of comparable centroid distance.
type FHSearch struct {
	hash   *hash.FH
	m      float64
	proj   int
	blocks []*rqalsh.Index
	data   [][]float64
	logger *slog.Logger
}

// NewFHSearch transforms the dataset, partitions it with interval ratio b
// and builds an RQALSH structure with m projections for every block.
func NewFHSearch(h *hash.FH, b float64, m int, data [][]float64, rng *rand.Rand, optFns ...func(o *FHOptions)) (*FHSearch, error) {
	opts := DefaultFHOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if !(b > 0 && b <= 1) {
		return nil, &model.ErrInvalidParameter{Name: "b", Value: b, Reason: "must be in (0, 1]"}
	}
	if err := model.Positive("MaxBlockSize", opts.MaxBlockSize); err != nil {
		return nil, err
	}
	dim, err := model.CheckRows(data)
	if err != nil {
		return nil, err
	}
	if err := model.CheckDimension(h.Dim(), dim); err != nil {
		return nil, err
	}

	t, err := h.Data(data)
	if err != nil {
		return nil, err
	}

	parts := Partition(t.Order, b, opts.MaxBlockSize)
	s := &FHSearch{
		hash:   h,
		m:      t.M,
		proj:   m,
		blocks: make([]*rqalsh.Index, 0, len(parts)),
		data:   data,
		logger: opts.Logger,
	}
	for _, p := range parts {
		ids := model.Indices(t.Order[p.Start : p.Start+p.Size])
		block, err := rqalsh.New(h.ExpandedDim(), m, ids, t.Last, t.Samples, rng, func(o *rqalsh.Options) {
			o.ScanChunk = opts.ScanChunk
			o.MaxScan = opts.MaxScan
			o.Logger = opts.Logger
		})
		if err != nil {
			return nil, fmt.Errorf("block at %d: %w", p.Start, err)
		}
		s.blocks = append(s.blocks, block)
	}

	if s.logger != nil {
		s.logger.Info("fh search built", "points", len(data), "blocks", len(s.blocks), "max_norm", t.M)
	}
	return s, nil
}

// Blocks returns the number of RQALSH blocks.
func (s *FHSearch) Blocks() int { return len(s.blocks) }

// Search visits blocks in centroid-distance order until Limit+Top-1
// candidates have been produced, saturating at math.MaxInt. Once Top results
// are held, the current k-th distance bounds the range searched in the
// remaining blocks. Separation must lie in [1, m].
func (s *FHSearch) Search(q Query) ([]model.IdxVal, error) {
	if err := validate(q, s.hash.Dim()); err != nil {
		return nil, err
	}
	if err := model.Positive("separation", q.Separation); err != nil {
		return nil, err
	}
	if q.Separation > s.proj {
		return nil, &model.ErrInvalidParameter{Name: "separation", Value: q.Separation, Reason: fmt.Sprintf("exceeds the %d projections per block", s.proj)}
	}

	sample, err := s.hash.Query(q.Vector)
	if err != nil {
		return nil, err
	}
	norm := model.SquaredNorm(sample)
	if norm == 0 {
		return nil, model.ErrZeroVector
	}
	scale := math.Sqrt(s.m / norm)
	for i := range sample {
		sample[i].Value *= scale
	}

	r := newRanker(q, s.data)
	budget := math.MaxInt
	if q.Limit <= math.MaxInt-(q.Top-1) {
		budget = q.Limit + q.Top - 1
	}
	for _, block := range s.blocks {
		if budget <= 0 {
			break
		}
		radius := -1.0
		if r.top.Full() {
			kth, _ := r.top.Worst()
			radius = math.Sqrt(2*s.m - 2*kth.Value*kth.Value)
		}
		cands, err := block.Furthest(q.Separation, budget, radius, sample)
		if err != nil {
			return nil, err
		}
		for _, id := range cands {
			r.add(id)
		}
		budget -= len(cands)
	}
	return r.results(), nil
}
