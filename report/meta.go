package report

import (
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/hupe1980/hyperlsh"
	"github.com/hupe1980/hyperlsh/bench"
	"github.com/hupe1980/hyperlsh/config"
	"github.com/hupe1980/hyperlsh/model"
)

var rowColumns = []string{
	"run", "run_id", "no", "matched", "recall", "precision", "hits",
	"true_dist_mean", "search_dist_mean", "search_duration", "index_duration",
	"index_used_memory", "query",
}

// Meta builds one row per query: the scores followed by the run
// parameters. Durations are in milliseconds.
func Meta(cfg *config.Config, res *bench.Result) *Table {
	params := runColumns(cfg, res)

	header := slices.Grow(slices.Clone(rowColumns), len(params))
	for _, p := range params {
		header = append(header, p.name)
	}

	t := &Table{Header: header, Rows: make([][]string, 0, len(res.Rows))}
	for _, row := range res.Rows {
		r := []string{
			res.Family.String(),
			res.RunID,
			strconv.Itoa(row.No),
			strconv.Itoa(row.Matched),
			formatFloat(row.Recall),
			formatFloat(row.Precision),
			strconv.Itoa(row.Hits),
			formatFloat(row.TrueDistMean),
			formatFloat(row.SearchDistMean),
			formatMillis(row.SearchDuration),
			formatMillis(res.IndexDuration),
			strconv.FormatInt(res.IndexUsedMemory, 10),
			formatVector(row.Query),
		}
		for _, p := range params {
			r = append(r, p.value)
		}
		t.Rows = append(t.Rows, r)
	}
	return t
}

type column struct {
	name  string
	value string
}

func runColumns(cfg *config.Config, res *bench.Result) []column {
	h := cfg.Hash
	tables := "(l)tables"
	if res.Family == hyperlsh.FH {
		tables = "(m)tables"
	}
	return []column{
		{"top_k", strconv.Itoa(cfg.TopK)},
		{"limit", strconv.Itoa(cfg.Limit)},
		{"(m)single_hasher", strconv.Itoa(h.SingleHasher)},
		{"(M)num_proj_hash", strconv.Itoa(h.NumProjHash)},
		{tables, strconv.Itoa(h.Tables)},
		{"(b)interval_ratio", formatFloat(h.IntervalRatio)},
		{"(s)scale_dim", strconv.Itoa(h.ScaleDim)},
		{"(w)bucket_width", formatFloat(h.BucketWidth)},
		{"(l)separation_threshold", strconv.Itoa(h.SeparationThreshold)},
		{"search_output", cfg.Output.SearchOutput},
		{"real_output", cfg.Output.RealOutput},
		{"input", cfg.Input.Path},
		{"extend", strconv.FormatBool(cfg.Input.Extend)},
		{"norm", strconv.FormatBool(cfg.Input.Normalize)},
		{"seed", strconv.FormatUint(cfg.Seed, 10)},
		{"name", cfg.Output.Name},
		{"eval_dist", cfg.EvalDist.String()},
		{"ms_time", strconv.FormatInt(res.Started.UnixMilli(), 10)},
		{"data_size", strconv.Itoa(res.DataSize)},
	}
}

// Neighbours lists the given rows of data for one query, one line per
// neighbour: query number, data row, rank and the row's coordinates.
func Neighbours(no int, rows []model.IdxVal, data [][]float64) *Table {
	dim := 0
	if len(data) > 0 {
		dim = len(data[0])
	}
	header := []string{"no", "data_idx", "idx"}
	for d := range dim {
		header = append(header, "dim_"+strconv.Itoa(d))
	}

	t := &Table{Header: header, Rows: make([][]string, 0, len(rows))}
	for rank, iv := range rows {
		r := make([]string, 0, len(header))
		r = append(r, strconv.Itoa(no), strconv.Itoa(iv.Idx), strconv.Itoa(rank))
		for _, v := range data[iv.Idx] {
			r = append(r, formatFloat(v))
		}
		t.Rows = append(t.Rows, r)
	}
	return t
}

// WriteNeighbours writes the found (truth false) or true neighbours of
// every query in res to path, replacing any previous file.
func WriteNeighbours(path string, res *bench.Result, data [][]float64, truth bool) error {
	var t *Table
	for _, row := range res.Rows {
		rows := row.Found
		if truth {
			rows = row.Truth
		}
		n := Neighbours(row.No, rows, data)
		if t == nil {
			t = n
			continue
		}
		t.Rows = append(t.Rows, n.Rows...)
	}
	if t == nil {
		t = Neighbours(0, nil, data)
	}
	return SaveCSV(path, t)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatMillis(d time.Duration) string {
	return strconv.FormatFloat(float64(d)/float64(time.Millisecond), 'f', 3, 64)
}

func formatVector(v []float64) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = formatFloat(x)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
