// Package lccs provides a sorted index over integer signatures that locates
// rows sharing the longest circular co-substring with a query.
//
// For every dimension d the rows are sorted under the circular lexicographic
// order that starts comparing at coordinate d and wraps around. A query is
// located by binary search in dimension 0 only; the located interval is then
// carried to the next probed dimension through a precomputed link table, so
// each further dimension needs only a short re-validation.
package lccs

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"

	"github.com/hupe1980/hyperlsh/model"
)

// Options contains configuration options for the LCCS index.
type Options struct {
	// ScanWindow is the interval width below which binary search gives way to
	// a linear scan.
	ScanWindow int

	// Logger receives debug events while narrowing intervals. Nil disables logging.
	Logger *slog.Logger
}

// DefaultOptions contains the default configuration options for the LCCS index.
var DefaultOptions = Options{
	ScanWindow: 4,
}

// Index is an immutable sorted LCCS index.
type Index struct {
	n          int
	dim        int
	step       int
	searchDim  int
	data       [][]int
	sortedIdx  [][]int
	nextIdx    [][]int
	scanWindow int
	logger     *slog.Logger
}

// New builds the index over an n×dim signature matrix. step is the distance
// between consecutive probed dimensions. The matrix is retained, not copied.
func New(step int, data [][]int, optFns ...func(o *Options)) (*Index, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if len(data) == 0 {
		return nil, model.ErrEmptyDataset
	}
	dim := len(data[0])
	if err := model.Positive("dim", dim); err != nil {
		return nil, err
	}
	for _, row := range data {
		if err := model.CheckDimension(dim, len(row)); err != nil {
			return nil, err
		}
	}
	if err := model.Positive("step", step); err != nil {
		return nil, err
	}
	if opts.ScanWindow < 1 {
		return nil, &model.ErrInvalidParameter{Name: "ScanWindow", Value: opts.ScanWindow, Reason: "must be positive"}
	}

	x := &Index{
		n:          len(data),
		dim:        dim,
		step:       step,
		searchDim:  (dim-1)/step + 1,
		data:       data,
		scanWindow: opts.ScanWindow,
		logger:     opts.Logger,
	}
	x.sortedIdx = x.sortAll()
	x.nextIdx = x.links()
	return x, nil
}

// Len returns the number of rows.
func (x *Index) Len() int { return x.n }

// Dim returns the signature length.
func (x *Index) Dim() int { return x.dim }

// Step returns the probe step.
func (x *Index) Step() int { return x.step }

// Sorted returns the row order of dimension d. The slice must not be modified.
func (x *Index) Sorted(d int) []int { return x.sortedIdx[d] }

func (x *Index) sortAll() [][]int {
	sorted := make([][]int, x.dim)
	for d := range x.dim {
		order := make([]int, x.n)
		for i := range order {
			order[i] = i
		}
		slices.SortStableFunc(order, func(a, b int) int {
			_, c := x.compare(x.data[a], x.data[b], d, 0)
			return c
		})
		sorted[d] = order
	}
	return sorted
}

// links computes nextIdx[d][i]: the position, in dimension (d+step)%dim, of
// the row at position i of dimension d.
func (x *Index) links() [][]int {
	next := make([][]int, x.dim)
	pos := make([]int, x.n)
	for d := range x.dim {
		nextDim := (d + x.step) % x.dim
		for i, row := range x.sortedIdx[nextDim] {
			pos[row] = i
		}
		link := make([]int, x.n)
		for i, row := range x.sortedIdx[d] {
			link[i] = pos[row]
		}
		next[d] = link
	}
	return next
}

// compare compares xs and ys circularly starting at coordinate start,
// skipping the first walked coordinates which are known to be equal. It
// returns the number of leading equal coordinates and the sign of the first
// difference.
func (x *Index) compare(xs, ys []int, start, walked int) (int, int) {
	for i := walked; i < x.dim; i++ {
		idx := (start + i) % x.dim
		if c := cmp.Compare(xs[idx], ys[idx]); c != 0 {
			return i, c
		}
	}
	return x.dim, 0
}

func (x *Index) row(d, pos int) []int {
	return x.data[x.sortedIdx[d][pos]]
}

type loc struct {
	idx     int
	lowLen  int
	highLen int
}

// Search locates query in every probed dimension and calls onMatch with the
// rows at up to scanStep positions on each side of the located position. A
// row is reported once per dimension it falls into, so duplicates are
// expected; callers that need distinct rows must deduplicate.
func (x *Index) Search(scanStep int, query []int, onMatch func(row int)) error {
	if err := model.CheckDimension(x.dim, len(query)); err != nil {
		return fmt.Errorf("lccs search: %w", err)
	}
	if err := model.Positive("scanStep", scanStep); err != nil {
		return err
	}

	if x.n < 2 {
		for range x.searchDim {
			onMatch(0)
		}
		return nil
	}

	for i, pos := range x.locate(query) {
		x.scan(i*x.step, pos, scanStep, onMatch)
	}
	return nil
}

// locate returns, for every probed dimension i*step, the position of the
// last row not greater than the query, clamped to [0, n-2].
func (x *Index) locate(query []int) []int {
	idxes := make([]int, x.searchDim)

	lowWalked, _ := x.compare(query, x.row(0, 0), 0, 0)
	highWalked, _ := x.compare(query, x.row(0, x.n-1), 0, 0)
	cur := x.clamp(x.binarySearch(query, 0, 0, lowWalked, x.n-1, highWalked))
	idxes[0] = cur.idx

	for i := 1; i < x.searchDim; i++ {
		d := i * x.step
		prev := d - x.step
		lowIdx := x.nextIdx[prev][cur.idx]
		highIdx := x.nextIdx[prev][cur.idx+1]
		if cur.lowLen < x.step {
			lowIdx = 0
		}
		if cur.highLen < x.step {
			highIdx = x.n - 1
		}

		// The carried rows need not bracket the query in dimension d, and a
		// clamped position leaves their prefix lengths stale. Re-compare both
		// in full and fall back to the full range on a side that fails.
		lowLen, c := x.compare(query, x.row(d, lowIdx), d, 0)
		if c < 0 {
			lowIdx, lowLen = 0, 0
		}
		highLen, c := x.compare(query, x.row(d, highIdx), d, 0)
		if c >= 0 {
			highIdx, highLen = x.n-1, 0
		}

		if x.logger != nil {
			x.logger.Debug("lccs interval", "dim", d, "low", lowIdx, "lowLen", lowLen, "high", highIdx, "highLen", highLen)
		}

		cur = x.clamp(x.binarySearch(query, d, lowIdx, lowLen, highIdx, highLen))
		idxes[i] = cur.idx
	}
	return idxes
}

func (x *Index) clamp(l loc) loc {
	l.idx = min(max(l.idx, 0), x.n-2)
	return l
}

func (x *Index) binarySearch(query []int, d, low, lowLen, high, highLen int) loc {
	known := min(lowLen, highLen)
	for low < high-x.scanWindow {
		mid := (low + high) / 2
		walked, c := x.compare(query, x.row(d, mid), d, known)
		if c < 0 {
			high, highLen = mid, walked
		} else {
			low, lowLen = mid, walked
		}
	}
	return x.linearScan(query, d, low, lowLen, high, highLen)
}

// linearScan compares every row strictly between low and high and stops at
// the first row greater than the query.
func (x *Index) linearScan(query []int, d, low, lowLen, high, highLen int) loc {
	last := lowLen
	known := min(lowLen, highLen)
	for i := low + 1; i < high; i++ {
		walked, c := x.compare(query, x.row(d, i), d, known)
		if c < 0 {
			return loc{idx: i - 1, lowLen: last, highLen: walked}
		}
		last = walked
	}
	return loc{idx: high - 1, lowLen: last, highLen: highLen}
}

func (x *Index) scan(d, pos, scanStep int, onMatch func(row int)) {
	order := x.sortedIdx[d]
	for i := pos; i >= 0 && pos-i < scanStep; i-- {
		onMatch(order[i])
	}
	for i := pos + 1; i < x.n && i-pos-1 < scanStep; i++ {
		onMatch(order[i])
	}
}
