// Package bucket provides a multi-table hash-bucket index over bit-packed
// table codes.
package bucket

import (
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/hupe1980/hyperlsh/model"
)

// Options contains configuration options for the bucket index.
type Options struct {
	// Logger receives debug events for inserts and lookups. Nil disables logging.
	Logger *slog.Logger
}

// DefaultOptions contains the default configuration options for the bucket index.
var DefaultOptions = Options{}

// Bucket holds l independent tables mapping a masked code to the keys that
// hashed there.
//
// Every insert shuffles the new key to a uniformly random position of its
// bucket, so a search that stops at its limit part way through a bucket sees
// a uniform sample of the members regardless of insertion order.
type Bucket struct {
	l      int
	mask   uint64
	tables []map[uint64][]int
	rng    *rand.Rand
	logger *slog.Logger
}

// New creates an index sized for n keys with l tables. The mask keeps the low
// bits of each code up to the next power of two ≥ n.
func New(n, l int, rng *rand.Rand, optFns ...func(o *Options)) (*Bucket, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if err := model.Positive("n", n); err != nil {
		return nil, err
	}
	if err := model.Positive("l", l); err != nil {
		return nil, err
	}

	tables := make([]map[uint64][]int, l)
	for i := range tables {
		tables[i] = make(map[uint64][]int)
	}

	return &Bucket{
		l:      l,
		mask:   Mask(n),
		tables: tables,
		rng:    rng,
		logger: opts.Logger,
	}, nil
}

// Mask returns (next power of two ≥ n) − 1.
func Mask(n int) uint64 {
	m := uint64(1)
	for m < uint64(n) {
		m <<= 1
	}
	return m - 1
}

// Mask returns the code mask of the index.
func (b *Bucket) Mask() uint64 { return b.mask }

// Tables returns l.
func (b *Bucket) Tables() int { return b.l }

// Insert adds key to the bucket selected by codes[j] in every table j.
func (b *Bucket) Insert(key int, codes []uint64) error {
	if len(codes) != b.l {
		return fmt.Errorf("bucket insert: %w", &model.ErrDimensionMismatch{Expected: b.l, Actual: len(codes)})
	}
	for j, code := range codes {
		code &= b.mask
		list := append(b.tables[j][code], key)
		if size := len(list); size > 1 {
			k := b.rng.IntN(size)
			list[k], list[size-1] = list[size-1], list[k]
		}
		b.tables[j][code] = list

		if b.logger != nil {
			b.logger.Debug("bucket insert", "table", j, "code", code, "size", len(list))
		}
	}
	return nil
}

// Search walks the buckets selected by the query codes table by table and
// counts collisions per key. onFirstSight, when non-nil, is called exactly
// once for every key the first time it is met. The walk stops as soon as
// limit distinct keys have been seen, possibly in the middle of a bucket.
//
// The returned map holds the collision count of every key seen.
func (b *Bucket) Search(codes []uint64, limit int, onFirstSight func(key int)) (map[int]int, error) {
	if len(codes) != b.l {
		return nil, fmt.Errorf("bucket search: %w", &model.ErrDimensionMismatch{Expected: b.l, Actual: len(codes)})
	}

	candidates := make(map[int]int)
	if limit <= 0 {
		return candidates, nil
	}
	for j, code := range codes {
		code &= b.mask
		list := b.tables[j][code]

		if b.logger != nil {
			b.logger.Debug("bucket lookup", "table", j, "code", code, "bucket", len(list), "candidates", len(candidates))
		}

		for _, key := range list {
			cnt, seen := candidates[key]
			if !seen && onFirstSight != nil {
				onFirstSight(key)
			}
			candidates[key] = cnt + 1
			if len(candidates) >= limit {
				return candidates, nil
			}
		}
	}
	return candidates, nil
}
