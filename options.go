package hyperlsh

import (
	"log/slog"
)

type options struct {
	seed          uint64
	logger        *Logger
	tables        int
	probes        int
	projections   int
	scale         int
	bucketWidth   float64
	intervalRatio float64
	maxBlockSize  int
	scanWindow    int
	scanChunk     int
	maxScan       int
}

func defaultOptions() options {
	return options{
		seed:          1,
		tables:        8,
		probes:        8,
		projections:   2,
		scale:         2,
		bucketWidth:   1,
		intervalRatio: 0.9,
		maxBlockSize:  25000,
		scanWindow:    4,
		scanChunk:     64,
		maxScan:       100000,
	}
}

// Option configures Build.
type Option func(*options)

// WithSeed sets the seed every random draw of the build derives from.
// Two builds with the same seed, data and options are identical.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// WithLogger configures structured logging. A nil logger disables it.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithTables sets the number of hash tables for BH, EH and MH, and the
// number of RQALSH projections per block for FH.
func WithTables(l int) Option {
	return func(o *options) {
		o.tables = l
	}
}

// WithProbes sets the bits per table for BH, EH and MH (at most 64), and
// the signature length for NH.
func WithProbes(m int) Option {
	return func(o *options) {
		o.probes = m
	}
}

// WithProjections sets the number of factors multiplied per MH bit.
func WithProjections(n int) Option {
	return func(o *options) {
		o.projections = n
	}
}

// WithScale sets the sampling scale factor s of NH and FH: each vector is
// expanded with s·dim samples.
func WithScale(s int) Option {
	return func(o *options) {
		o.scale = s
	}
}

// WithBucketWidth sets the NH quantization width.
func WithBucketWidth(w float64) Option {
	return func(o *options) {
		o.bucketWidth = w
	}
}

// WithIntervalRatio sets the FH block interval ratio b in (0, 1].
func WithIntervalRatio(b float64) Option {
	return func(o *options) {
		o.intervalRatio = b
	}
}

// WithMaxBlockSize caps the number of points per FH block.
func WithMaxBlockSize(n int) Option {
	return func(o *options) {
		o.maxBlockSize = n
	}
}

// WithScanWindow sets the interval width below which the NH index switches
// from binary search to a linear scan.
func WithScanWindow(n int) Option {
	return func(o *options) {
		o.scanWindow = n
	}
}

// WithScanChunk sets the number of entries an FH block scans per table visit.
func WithScanChunk(n int) Option {
	return func(o *options) {
		o.scanChunk = n
	}
}

// WithMaxScan caps the table visits of one FH block search.
func WithMaxScan(n int) Option {
	return func(o *options) {
		o.maxScan = n
	}
}

func (o *options) slog() *slog.Logger {
	if o.logger == nil {
		return nil
	}
	return o.logger.Logger
}
