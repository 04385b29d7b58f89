package search

import (
	"log/slog"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/hyperlsh/hash"
	"github.com/hupe1980/hyperlsh/index/lccs"
	"github.com/hupe1980/hyperlsh/model"
)

// NHOptions contains configuration options for NHSearch.
type NHOptions struct {
	// ScanWindow is passed to the LCCS index.
	ScanWindow int
	// Logger receives build events. Nil disables logging.
	Logger *slog.Logger
}

// DefaultNHOptions contains the default NHSearch options.
var DefaultNHOptions = NHOptions{
	ScanWindow: lccs.DefaultOptions.ScanWindow,
}

// NHSearch answers queries with NH signatures in a sorted LCCS index.
type NHSearch struct {
	hash  *hash.NH
	index *lccs.Index
	data  [][]float64
}

// NewNHSearch hashes the dataset into an n×m signature matrix and builds an
// LCCS index over it with probe step 1.
func NewNHSearch(h *hash.NH, data [][]float64, optFns ...func(o *NHOptions)) (*NHSearch, error) {
	opts := DefaultNHOptions
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

	sigs, err := h.Data(data)
	if err != nil {
		return nil, err
	}
	index, err := lccs.New(1, sigs, func(o *lccs.Options) {
		o.ScanWindow = opts.ScanWindow
		o.Logger = opts.Logger
	})
	if err != nil {
		return nil, err
	}

	if opts.Logger != nil {
		opts.Logger.Info("nh search built", "points", len(data), "projections", h.Projections())
	}
	return &NHSearch{hash: h, index: index, data: data}, nil
}

// Search scans ceil(Top/m) positions on each side of the query's location
// in every dimension order and re-ranks the distinct rows found. Limit is
// not consulted.
func (s *NHSearch) Search(q Query) ([]model.IdxVal, error) {
	if err := validate(q, s.hash.Dim()); err != nil {
		return nil, err
	}
	sig, err := s.hash.Query(q.Vector)
	if err != nil {
		return nil, err
	}

	m := s.hash.Projections()
	step := q.Top / m
	if q.Top%m != 0 {
		step++
	}

	r := newRanker(q, s.data)
	seen := roaring.New()
	err = s.index.Search(step, sig, func(row int) {
		if seen.CheckedAdd(uint32(row)) {
			r.add(row)
		}
	})
	if err != nil {
		return nil, err
	}
	return r.results(), nil
}
