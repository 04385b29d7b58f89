package bench

import (
	"context"
	"fmt"
	"io"
	"math"
	"runtime"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/cheggaaa/pb/v3"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"gonum.org/v1/gonum/stat"

	"github.com/hupe1980/hyperlsh"
	"github.com/hupe1980/hyperlsh/config"
	"github.com/hupe1980/hyperlsh/distance"
	"github.com/hupe1980/hyperlsh/internal/queue"
	"github.com/hupe1980/hyperlsh/model"
)

// Options configures Evaluate.
type Options struct {
	// Logger receives build and per-query records. Nil disables logging.
	Logger *hyperlsh.Logger
	// Progress, when set, receives a progress bar over the query set.
	Progress io.Writer
}

// Row holds the scores of one query.
type Row struct {
	No             int
	Query          []float64
	Matched        int
	Recall         float64
	Precision      float64
	Hits           int
	TrueDistMean   float64
	SearchDistMean float64
	SearchDuration time.Duration

	Found []model.IdxVal
	Truth []model.IdxVal
}

// Result is the outcome of one evaluation run.
type Result struct {
	RunID           string
	Family          hyperlsh.Family
	DataSize        int
	Started         time.Time
	IndexDuration   time.Duration
	IndexUsedMemory int64
	Rows            []Row

	MeanRecall         float64
	StdRecall          float64
	MeanPrecision      float64
	MeanSearchDuration time.Duration
}

// TrueSet returns the exact k nearest rows of data to q under metric,
// ascending by distance.
func TrueSet(metric distance.Metric, q []float64, data [][]float64, k int) []model.IdxVal {
	top := queue.NewTopK(k)
	for i, x := range data {
		top.Push(i, metric.Distance(q, x))
	}
	return top.Drain()
}

// Score compares found against truth for one query.
//
// A found row is matched when its evaluation distance does not exceed the
// k-th true distance. Recall divides by top and precision by limit. The
// distance means are NaN when nothing was found.
func Score(metric distance.Metric, q []float64, data [][]float64, top, limit int, found, truth []model.IdxVal) Row {
	kth := math.NaN()
	if last := min(len(truth), top) - 1; last >= 0 {
		kth = truth[last].Value
	}

	searchDists := make([]float64, len(found))
	trueDists := make([]float64, 0, len(found))
	matched := 0
	for order, pred := range found {
		d := metric.Distance(q, data[pred.Idx])
		searchDists[order] = d
		if order < len(truth) {
			trueDists = append(trueDists, truth[order].Value)
		}
		if d <= kth {
			matched++
		}
	}

	truthIDs := roaring.New()
	for _, iv := range truth {
		truthIDs.Add(uint32(iv.Idx))
	}
	hits := 0
	for _, iv := range found {
		if truthIDs.Contains(uint32(iv.Idx)) {
			hits++
		}
	}

	return Row{
		Query:          q,
		Matched:        matched,
		Recall:         float64(matched) / float64(top),
		Precision:      float64(matched) / float64(limit),
		Hits:           hits,
		TrueDistMean:   mean(trueDists),
		SearchDistMean: mean(searchDists),
		Found:          found,
		Truth:          truth,
	}
}

func mean(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	return stat.Mean(x, nil)
}

// Evaluate builds the index described by cfg over data and scores every
// query. data and queries must already be prepared (normalised, extended).
func Evaluate(ctx context.Context, cfg *config.Config, data, queries [][]float64, optFns ...func(o *Options)) (*Result, error) {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}

	family, err := cfg.Family()
	if err != nil {
		return nil, err
	}

	res := &Result{
		RunID:    uuid.NewString(),
		Family:   family,
		DataSize: len(data),
		Started:  time.Now(),
	}

	logger := opts.Logger
	if logger != nil {
		logger = logger.WithRun(res.RunID).WithFamily(family).WithK(cfg.TopK)
		if len(data) > 0 {
			logger = logger.WithDimension(len(data[0]))
		}
	}

	buildOpts := cfg.Options()
	if logger != nil {
		buildOpts = append(buildOpts, hyperlsh.WithLogger(logger))
	}

	before := heapInUse()
	start := time.Now()
	idx, err := hyperlsh.Build(ctx, data, family, buildOpts...)
	if err != nil {
		return nil, fmt.Errorf("build %s index: %w", family, err)
	}
	res.IndexDuration = time.Since(start)
	res.IndexUsedMemory = heapInUse() - before

	var limiter *rate.Limiter
	if cfg.Bench.MaxQPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Bench.MaxQPS), 1)
	}

	var bar *pb.ProgressBar
	if opts.Progress != nil {
		bar = pb.New(len(queries))
		bar.SetWriter(opts.Progress)
		bar.Start()
		defer bar.Finish()
	}

	res.Rows = make([]Row, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, cfg.Bench.Workers))
	for i, q := range queries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if limiter != nil {
				if err := limiter.Wait(gctx); err != nil {
					return err
				}
			}

			query := hyperlsh.Query{
				Vector:     q,
				Top:        cfg.TopK,
				Limit:      cfg.Limit,
				Metric:     distance.AbsDot,
				Separation: cfg.Hash.SeparationThreshold,
			}

			t := time.Now()
			found, err := idx.Search(gctx, query)
			elapsed := time.Since(t)
			if err != nil {
				return fmt.Errorf("query %d: %w", i, err)
			}

			truth := TrueSet(cfg.EvalDist, q, data, cfg.TopK)
			row := Score(cfg.EvalDist, q, data, cfg.TopK, cfg.Limit, found, truth)
			row.No = i
			row.SearchDuration = elapsed
			res.Rows[i] = row

			if logger != nil {
				logger.DebugContext(gctx, "query scored",
					"no", i,
					"matched", row.Matched,
					"recall", row.Recall,
					"search_duration", elapsed,
				)
			}
			if bar != nil {
				bar.Increment()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res.aggregate()
	if logger != nil {
		logger.InfoContext(ctx, "evaluation completed",
			"queries", len(queries),
			"recall", res.MeanRecall,
			"precision", res.MeanPrecision,
			"index_duration", res.IndexDuration,
		)
	}
	return res, nil
}

func (r *Result) aggregate() {
	if len(r.Rows) == 0 {
		return
	}
	recall := make([]float64, len(r.Rows))
	precision := make([]float64, len(r.Rows))
	var total time.Duration
	for i, row := range r.Rows {
		recall[i] = row.Recall
		precision[i] = row.Precision
		total += row.SearchDuration
	}
	r.MeanRecall, r.StdRecall = stat.MeanStdDev(recall, nil)
	if len(recall) < 2 {
		r.StdRecall = 0
	}
	r.MeanPrecision = stat.Mean(precision, nil)
	r.MeanSearchDuration = total / time.Duration(len(r.Rows))
}

func heapInUse() int64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return int64(m.HeapInuse)
}
