package search

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/hyperlsh/distance"
	"github.com/hupe1980/hyperlsh/internal/queue"
	"github.com/hupe1980/hyperlsh/model"
)

// Query describes one hyperplane query.
type Query struct {
	// Vector is the query. For DP2H its last coordinate is the hyperplane offset.
	Vector []float64
	// Top is the maximum number of results.
	Top int
	// Limit bounds the number of candidates examined.
	Limit int
	// Metric re-ranks candidates.
	Metric distance.Metric
	// Separation is the RQALSH separation threshold (FH only).
	Separation int
}

// Searcher answers hyperplane queries over a built index.
type Searcher interface {
	Search(q Query) ([]model.IdxVal, error)
}

var (
	_ Searcher = (*HashSearch)(nil)
	_ Searcher = (*NHSearch)(nil)
	_ Searcher = (*FHSearch)(nil)
)

func validate(q Query, dim int) error {
	if q.Top <= 0 {
		return model.ErrInvalidTop
	}
	return model.CheckDimension(dim, len(q.Vector))
}

// ranker evaluates exact distances into a bounded heap.
type ranker struct {
	q    Query
	data [][]float64
	top  *queue.TopK
}

func newRanker(q Query, data [][]float64) *ranker {
	return &ranker{q: q, data: data, top: queue.NewTopK(q.Top)}
}

func (r *ranker) add(idx int) {
	r.top.Push(idx, r.q.Metric.Distance(r.q.Vector, r.data[idx]))
}

func (r *ranker) results() []model.IdxVal {
	return r.top.Drain()
}

// Batch runs queries on s with at most workers concurrent searches and
// returns the results in query order. workers < 1 means one worker.
func Batch(ctx context.Context, s Searcher, queries []Query, workers int) ([][]model.IdxVal, error) {
	results := make([][]model.IdxVal, len(queries))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, workers))
	for i, q := range queries {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := s.Search(q)
			if err != nil {
				return fmt.Errorf("query %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
