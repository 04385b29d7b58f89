package report

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/hyperlsh"
	"github.com/hupe1980/hyperlsh/bench"
	"github.com/hupe1980/hyperlsh/blobstore"
	"github.com/hupe1980/hyperlsh/config"
	"github.com/hupe1980/hyperlsh/model"
)

func testResult() (*config.Config, *bench.Result, [][]float64) {
	cfg := config.Default()
	cfg.Run = "FH"
	cfg.Input.Path = "points.csv"
	cfg.TopK = 2
	cfg.Limit = 4

	data := [][]float64{{0, 1}, {1, 1}, {2, 1}}
	res := &bench.Result{
		RunID:         "run-1",
		Family:        hyperlsh.FH,
		DataSize:      len(data),
		Started:       time.UnixMilli(1700000000000),
		IndexDuration: 3 * time.Millisecond,
		Rows: []bench.Row{
			{
				No: 0, Query: []float64{1, -0.5}, Matched: 2, Recall: 1, Precision: 0.5, Hits: 2,
				Found: []model.IdxVal{{Idx: 0, Value: 0.5}, {Idx: 1, Value: 0.5}},
				Truth: []model.IdxVal{{Idx: 0, Value: 0.5}, {Idx: 1, Value: 0.5}},
			},
			{
				No: 1, Query: []float64{1, -2}, Matched: 1, Recall: 0.5, Precision: 0.25, Hits: 1,
				Found: []model.IdxVal{{Idx: 2, Value: 0}},
				Truth: []model.IdxVal{{Idx: 2, Value: 0}, {Idx: 1, Value: 1}},
			},
		},
		MeanRecall:    0.75,
		MeanPrecision: 0.375,
	}
	return cfg, res, data
}

func TestTableConcat(t *testing.T) {
	a := &Table{Header: []string{"x", "y"}, Rows: [][]string{{"1", "2"}}}
	b := &Table{Header: []string{"y", "z"}, Rows: [][]string{{"3", "4"}}}

	got := a.Concat(b)
	assert.Equal(t, []string{"x", "y", "z"}, got.Header)
	assert.Equal(t, [][]string{{"1", "2", ""}, {"", "3", "4"}}, got.Rows)
	assert.Equal(t, 2, got.Column("z"))
	assert.Equal(t, -1, got.Column("w"))
}

func TestAppendCSV(t *testing.T) {
	for _, name := range []string{"meta.csv", "meta.csv.gz", "meta.csv.zst"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out", name)

			require.NoError(t, AppendCSV(path, &Table{Header: []string{"a"}, Rows: [][]string{{"1"}}}))
			require.NoError(t, AppendCSV(path, &Table{Header: []string{"a", "b"}, Rows: [][]string{{"2", "x"}}}))

			got, err := LoadCSV(path)
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b"}, got.Header)
			assert.Equal(t, [][]string{{"1", ""}, {"2", "x"}}, got.Rows)
		})
	}
}

func TestMeta(t *testing.T) {
	cfg, res, _ := testResult()

	table := Meta(cfg, res)
	require.Len(t, table.Rows, 2)
	for _, row := range table.Rows {
		assert.Len(t, row, len(table.Header))
	}

	cell := func(row int, col string) string {
		i := table.Column(col)
		require.GreaterOrEqual(t, i, 0, col)
		return table.Rows[row][i]
	}
	assert.Equal(t, "FH", cell(0, "run"))
	assert.Equal(t, "run-1", cell(1, "run_id"))
	assert.Equal(t, "1", cell(1, "no"))
	assert.Equal(t, "0.5", cell(1, "recall"))
	assert.Equal(t, "0.25", cell(1, "precision"))
	assert.Equal(t, "3.000", cell(0, "index_duration"))
	assert.Equal(t, "[1 -0.5]", cell(0, "query"))
	assert.Equal(t, "8", cell(0, "(m)tables"))
	assert.Equal(t, "DP2H", cell(0, "eval_dist"))
	assert.Equal(t, "1700000000000", cell(0, "ms_time"))
	assert.Equal(t, "3", cell(0, "data_size"))
}

func TestWriteNeighbours(t *testing.T) {
	_, res, data := testResult()
	dir := t.TempDir()

	found := filepath.Join(dir, "found.csv")
	require.NoError(t, WriteNeighbours(found, res, data, false))
	got, err := LoadCSV(found)
	require.NoError(t, err)
	assert.Equal(t, []string{"no", "data_idx", "idx", "dim_0", "dim_1"}, got.Header)
	assert.Equal(t, [][]string{
		{"0", "0", "0", "0", "1"},
		{"0", "1", "1", "1", "1"},
		{"1", "2", "0", "2", "1"},
	}, got.Rows)

	truthPath := filepath.Join(dir, "real.csv.gz")
	require.NoError(t, WriteNeighbours(truthPath, res, data, true))
	got, err = LoadCSV(truthPath)
	require.NoError(t, err)
	assert.Len(t, got.Rows, 4)
}

func TestBoltStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history", "runs.db")

	store, err := OpenBoltStore(path)
	require.NoError(t, err)

	cfg, res, _ := testResult()
	first := Summarize(cfg, res)
	second := first
	second.RunID = "run-0"
	second.Started = first.Started.Add(-time.Hour)

	require.NoError(t, store.Save(ctx, first))
	require.NoError(t, store.Save(ctx, second))

	got, err := store.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, 0.75, got.MeanRecall)
	assert.Equal(t, "FH", got.Family)
	require.NotNil(t, got.Config)
	assert.Equal(t, cfg.EvalDist, got.Config.EvalDist)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)

	runs, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-0", runs[0].RunID)
	require.NoError(t, store.Close())

	// Reopen keeps the history.
	store, err = OpenBoltStore(path)
	require.NoError(t, err)
	defer store.Close()
	runs, err = store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestPublish(t *testing.T) {
	ctx := context.Background()
	_, res, data := testResult()

	path := filepath.Join(t.TempDir(), "found.csv")
	require.NoError(t, WriteNeighbours(path, res, data, false))

	store := blobstore.NewMemoryStore()
	require.NoError(t, Publish(ctx, store, "runs/run-1", path, ""))

	names, err := store.List(ctx, "runs/")
	require.NoError(t, err)
	assert.Equal(t, []string{"runs/run-1/found.csv"}, names)

	assert.Error(t, Publish(ctx, store, "x", filepath.Join(t.TempDir(), "missing.csv")))
}
