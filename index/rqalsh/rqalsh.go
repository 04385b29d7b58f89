// Package rqalsh implements reverse query-aware LSH, a furthest-neighbour
// candidate generator based on dynamic separation counting.
//
// Every point is projected onto m Gaussian directions and each projection
// table is kept sorted. A search walks every table from both ends inward,
// counting for each point how many tables place it further than the current
// bucket width from the query's projection. Points reaching the separation
// threshold become candidates; the width halves every round until enough
// candidates are found or all tables are exhausted.
package rqalsh

import (
	"log/slog"
	"math"
	"math/rand/v2"
	"slices"
	"sort"

	"github.com/hupe1980/hyperlsh/model"
)

// minRange is the smallest external range bound that is honoured.
const minRange = 1e-6

// Options contains configuration options for an RQALSH structure.
type Options struct {
	// ScanChunk is the number of entries scanned from each end of a table
	// per visit.
	ScanChunk int

	// MaxScan caps the number of table visits per round. Exceeding it ends
	// the search with the candidates found so far.
	MaxScan int

	// Logger receives a warning when MaxScan is hit. Nil disables logging.
	Logger *slog.Logger
}

// DefaultOptions contains the default configuration options.
var DefaultOptions = Options{
	ScanChunk: 64,
	MaxScan:   100000,
}

// Index is an immutable RQALSH structure over one block of points.
type Index struct {
	n         int
	dim       int
	m         int
	index     []int
	a         []float64
	tables    [][]model.IdxVal
	scanChunk int
	maxScan   int
	logger    *slog.Logger
}

// New builds m sorted projection tables over the points listed in index.
//
// Points are addressed by global id: samples[id] is the sparse expansion of
// point id and last[id] its trailing coordinate, which occupies slot dim−1
// of the projection vectors. Table entries store the position within index,
// and search results are mapped back through index. A nil index selects
// every point in samples.
func New(dim, m int, index []int, last []float64, samples [][]model.IdxVal, rng *rand.Rand, optFns ...func(o *Options)) (*Index, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if err := model.Positive("dim", dim); err != nil {
		return nil, err
	}
	if err := model.Positive("m", m); err != nil {
		return nil, err
	}
	if err := model.Positive("ScanChunk", opts.ScanChunk); err != nil {
		return nil, err
	}
	if err := model.Positive("MaxScan", opts.MaxScan); err != nil {
		return nil, err
	}
	if index == nil {
		index = make([]int, len(samples))
		for i := range index {
			index[i] = i
		}
	}
	if len(index) == 0 {
		return nil, model.ErrEmptyDataset
	}
	if err := model.CheckDimension(len(samples), len(last)); err != nil {
		return nil, err
	}

	x := &Index{
		n:         len(index),
		dim:       dim,
		m:         m,
		index:     index,
		a:         make([]float64, m*dim),
		tables:    make([][]model.IdxVal, m),
		scanChunk: opts.ScanChunk,
		maxScan:   opts.MaxScan,
		logger:    opts.Logger,
	}
	for i := range x.a {
		x.a[i] = rng.NormFloat64()
	}

	for j := range m {
		table := make([]model.IdxVal, x.n)
		for i, id := range index {
			if id < 0 || id >= len(samples) {
				return nil, &model.ErrInvalidParameter{Name: "index", Value: id, Reason: "out of range"}
			}
			val, err := x.project(j, samples[id])
			if err != nil {
				return nil, err
			}
			table[i] = model.IdxVal{Idx: i, Value: val + x.a[j*dim+dim-1]*last[id]}
		}
		model.Sort(table)
		x.tables[j] = table
	}
	return x, nil
}

// Len returns the number of points.
func (x *Index) Len() int { return x.n }

// Table returns projection table j. The slice must not be modified.
func (x *Index) Table(j int) []model.IdxVal { return x.tables[j] }

func (x *Index) project(j int, sample []model.IdxVal) (float64, error) {
	row := x.a[j*x.dim:][:x.dim]
	var val float64
	for _, iv := range sample {
		if iv.Idx < 0 || iv.Idx >= x.dim-1 {
			return 0, &model.ErrInvalidParameter{Name: "sample index", Value: iv.Idx, Reason: "outside projection space"}
		}
		val += row[iv.Idx] * iv.Value
	}
	return val, nil
}

// Furthest returns up to limit candidate ids for the points furthest from
// the sparse query. A point becomes a candidate once l tables separate it
// from the query by more than the current bucket width.
//
// r bounds the search from outside: tables whose remaining entries all lie
// within r/2 of the query are abandoned. Values below 1e-6, NaN and negative
// values mean no bound.
//
// When the structure holds at most limit points, all of them are returned.
// Candidates are returned in emission order.
func (x *Index) Furthest(l, limit int, r float64, query []model.IdxVal) ([]int, error) {
	if err := model.Positive("l", l); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}
	if x.n <= limit {
		return slices.Clone(x.index), nil
	}

	s, err := x.newState(query)
	if err != nil {
		return nil, err
	}
	return x.separationCounting(s, l, limit, r), nil
}

type state struct {
	queryVal []float64
	left     []int
	right    []int

	freq       []int
	rangeFlag  []bool
	bucketFlag []bool
	ranges     int
	buckets    int
	more       bool
	radius     float64
	width      float64
	cands      []int
}

func (x *Index) newState(query []model.IdxVal) (*state, error) {
	s := &state{
		queryVal:   make([]float64, x.m),
		left:       make([]int, x.m),
		right:      make([]int, x.m),
		freq:       make([]int, x.n),
		rangeFlag:  make([]bool, x.m),
		bucketFlag: make([]bool, x.m),
		more:       true,
	}
	for j := range x.m {
		val, err := x.project(j, query)
		if err != nil {
			return nil, err
		}
		s.queryVal[j] = val
		s.right[j] = x.n - 1
		s.rangeFlag[j] = true
	}
	return s, nil
}

func (x *Index) separationCounting(s *state, l, limit int, r float64) []int {
	s.radius = x.findRadius(s)
	s.width = s.radius / 2

	bound := 0.0
	if r >= minRange {
		bound = r / 2
	}

	for s.more {
		s.buckets = 0
		for j := range s.bucketFlag {
			s.bucketFlag[j] = true
		}

		x.fnSearch(s, l, limit, bound)

		if s.ranges >= x.m || len(s.cands) >= limit {
			break
		}
		s.radius /= 2
		s.width = s.radius / 2
	}
	return s.cands
}

func (x *Index) fnSearch(s *state, l, limit int, bound float64) {
	for num := 0; s.buckets < x.m && s.ranges < x.m && len(s.cands) < limit; num++ {
		if num > x.maxScan {
			if x.logger != nil {
				x.logger.Warn("rqalsh scan cap reached", "max_scan", x.maxScan, "candidates", len(s.cands), "limit", limit)
			}
			s.more = false
			return
		}

		j := num % x.m
		if !s.bucketFlag[j] {
			continue
		}

		table := x.tables[j]
		qv := s.queryVal[j]
		ldist, rdist := -1.0, -1.0
		lpos, rpos := s.left[j], s.right[j]

		for cnt := 0; cnt < x.scanChunk; cnt, lpos = cnt+1, lpos+1 {
			ldist = math.MaxFloat32
			if lpos >= rpos {
				break
			}
			ldist = math.Abs(qv - table[lpos].Value)
			if ldist < s.width || ldist < bound {
				break
			}
			if x.count(s, table[lpos].Idx, l) && len(s.cands) >= limit {
				return
			}
		}
		s.left[j] = lpos

		for cnt := 0; cnt < x.scanChunk; cnt, rpos = cnt+1, rpos-1 {
			rdist = math.MaxFloat32
			if lpos >= rpos {
				break
			}
			rdist = math.Abs(qv - table[rpos].Value)
			if rdist < s.width || rdist < bound {
				break
			}
			if x.count(s, table[rpos].Idx, l) && len(s.cands) >= limit {
				return
			}
		}
		s.right[j] = rpos

		if rpos <= lpos || (ldist < s.width && rdist < s.width) {
			x.finishBucket(s, j)
		}
		if rpos <= lpos || (ldist < bound && rdist < bound) {
			x.finishBucket(s, j)
			if s.rangeFlag[j] {
				s.rangeFlag[j] = false
				s.ranges++
			}
		}
	}
}

// count records one separation of point i and reports whether it just
// reached the threshold.
func (x *Index) count(s *state, i, l int) bool {
	s.freq[i]++
	if s.freq[i] != l {
		return false
	}
	s.cands = append(s.cands, x.index[i])
	return true
}

func (x *Index) finishBucket(s *state, j int) {
	if s.bucketFlag[j] {
		s.bucketFlag[j] = false
		s.buckets++
	}
}

// findRadius seeds the search radius from the median distance between the
// query and the current table ends, rounded up to a power of two. A zero or
// undefined spread yields radius 0.
func (x *Index) findRadius(s *state) float64 {
	arr := make([]float64, 0, 2*x.m)
	for j := range x.m {
		lpos, rpos := s.left[j], s.right[j]
		if lpos < rpos {
			qv := s.queryVal[j]
			arr = append(arr, math.Abs(x.tables[j][lpos].Value-qv), math.Abs(x.tables[j][rpos].Value-qv))
		}
	}
	if len(arr) == 0 {
		return 0
	}
	sort.Float64s(arr)

	num := len(arr)
	var dist float64
	if num%2 == 0 {
		dist = (arr[num/2-1] + arr[num/2]) / 2
	} else {
		dist = arr[num/2]
	}
	if !(dist > 0) || math.IsInf(dist, 0) {
		return 0
	}
	return math.Pow(2, math.Ceil(math.Log2(2*dist)))
}
