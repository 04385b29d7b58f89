package hyperlsh

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/hupe1980/hyperlsh/hash"
	"github.com/hupe1980/hyperlsh/model"
	"github.com/hupe1980/hyperlsh/search"
)

// Family selects the hash family and index an Index is built with.
type Family int

const (
	BH Family = iota
	EH
	MH
	NH
	FH
)

var familyNames = [...]string{"BH", "EH", "MH", "NH", "FH"}

func (f Family) String() string {
	if f < 0 || int(f) >= len(familyNames) {
		return fmt.Sprintf("Family(%d)", int(f))
	}
	return familyNames[f]
}

// ParseFamily parses a family name, case-insensitively.
func ParseFamily(name string) (Family, error) {
	for i, n := range familyNames {
		if strings.EqualFold(name, n) {
			return Family(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFamily, name)
}

// MarshalText implements encoding.TextMarshaler.
func (f Family) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Family) UnmarshalText(text []byte) error {
	v, err := ParseFamily(string(text))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// Result is one search hit: the data row and its distance to the query.
type Result = model.IdxVal

// Query describes one hyperplane query.
type Query = search.Query

// Index is a built hyperplane index over an immutable dataset.
// It is safe for concurrent queries.
type Index struct {
	family   Family
	dim      int
	searcher search.Searcher
	logger   *Logger
}

// Build hashes data with the given family and builds its index.
// data must not be modified while the Index is in use.
func Build(ctx context.Context, data [][]float64, family Family, optFns ...Option) (*Index, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	start := time.Now()
	s, err := build(data, family, &opts)
	if opts.logger != nil {
		opts.logger.LogBuild(ctx, family, len(data), time.Since(start), err)
	}
	if err != nil {
		return nil, translateError(err)
	}
	return &Index{family: family, dim: len(data[0]), searcher: s, logger: opts.logger}, nil
}

func build(data [][]float64, family Family, opts *options) (search.Searcher, error) {
	dim, err := model.CheckRows(data)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewPCG(opts.seed, opts.seed^0x9e3779b97f4a7c15))
	logger := opts.slog()

	switch family {
	case BH, EH, MH:
		var h *hash.Bits
		switch family {
		case BH:
			h, err = hash.NewBH(dim, opts.probes, opts.tables, rng)
		case EH:
			h, err = hash.NewEH(dim, opts.probes, opts.tables, rng)
		default:
			h, err = hash.NewMH(dim, opts.probes, opts.tables, opts.projections, rng)
		}
		if err != nil {
			return nil, err
		}
		return search.NewHashSearch(h, data, rng, func(o *search.Options) {
			o.Logger = logger
		})
	case NH:
		h, err := hash.NewNH(dim, opts.probes, opts.scale, opts.bucketWidth, rng)
		if err != nil {
			return nil, err
		}
		return search.NewNHSearch(h, data, func(o *search.NHOptions) {
			o.ScanWindow = opts.scanWindow
			o.Logger = logger
		})
	case FH:
		h, err := hash.NewFH(dim, opts.scale, rng)
		if err != nil {
			return nil, err
		}
		return search.NewFHSearch(h, opts.intervalRatio, opts.tables, data, rng, func(o *search.FHOptions) {
			o.MaxBlockSize = opts.maxBlockSize
			o.ScanChunk = opts.scanChunk
			o.MaxScan = opts.maxScan
			o.Logger = logger
		})
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFamily, family)
	}
}

// Family returns the family the index was built with.
func (x *Index) Family() Family { return x.family }

// Dim returns the dimension of the indexed points.
func (x *Index) Dim() int { return x.dim }

// Search answers one query. Results are ascending by distance.
func (x *Index) Search(ctx context.Context, q Query) ([]Result, error) {
	res, err := x.searcher.Search(q)
	if x.logger != nil {
		x.logger.LogSearch(ctx, q.Top, len(res), err)
	}
	return res, translateError(err)
}

// SearchBatch answers queries concurrently on at most workers goroutines,
// returning results in query order.
func (x *Index) SearchBatch(ctx context.Context, queries []Query, workers int) ([][]Result, error) {
	start := time.Now()
	res, err := search.Batch(ctx, x.searcher, queries, workers)
	if x.logger != nil {
		x.logger.LogBatch(ctx, len(queries), time.Since(start), err)
	}
	return res, translateError(err)
}
