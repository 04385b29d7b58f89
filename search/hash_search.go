package search

import (
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/hupe1980/hyperlsh/hash"
	"github.com/hupe1980/hyperlsh/index/bucket"
	"github.com/hupe1980/hyperlsh/model"
)

// Options contains configuration options shared by the searchers.
type Options struct {
	// Logger receives build events and is passed to the candidate index.
	// Nil disables logging.
	Logger *slog.Logger
}

// DefaultOptions contains the default searcher options.
var DefaultOptions = Options{}

// HashSearch answers queries with a bit hash family and a hash bucket index.
type HashSearch struct {
	hash    *hash.Bits
	buckets *bucket.Bucket
	data    [][]float64
	logger  *slog.Logger
}

// NewHashSearch hashes every data point with h and inserts it into a bucket
// index with one table per hash table. rng drives the bucket shuffle.
func NewHashSearch(h *hash.Bits, data [][]float64, rng *rand.Rand, optFns ...func(o *Options)) (*HashSearch, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	dim, err := model.CheckRows(data)
	if err != nil {
		return nil, err
	}
	if err := model.CheckDimension(h.Dim(), dim); err != nil {
		return nil, err
	}

	buckets, err := bucket.New(len(data), h.Tables(), rng, func(o *bucket.Options) {
		o.Logger = opts.Logger
	})
	if err != nil {
		return nil, err
	}
	for i, x := range data {
		codes, err := h.Data(x)
		if err != nil {
			return nil, fmt.Errorf("hash point %d: %w", i, err)
		}
		if err := buckets.Insert(i, codes); err != nil {
			return nil, err
		}
	}

	if opts.Logger != nil {
		opts.Logger.Info("hash search built", "family", h.Kind().String(), "points", len(data), "tables", h.Tables(), "probes", h.Probes())
	}
	return &HashSearch{hash: h, buckets: buckets, data: data, logger: opts.Logger}, nil
}

// Search returns up to q.Top nearest points among the first q.Limit distinct
// bucket collisions.
func (s *HashSearch) Search(q Query) ([]model.IdxVal, error) {
	if err := validate(q, s.hash.Dim()); err != nil {
		return nil, err
	}
	codes, err := s.hash.Query(q.Vector)
	if err != nil {
		return nil, err
	}

	r := newRanker(q, s.data)
	if _, err := s.buckets.Search(codes, q.Limit, r.add); err != nil {
		return nil, err
	}
	return r.results(), nil
}
