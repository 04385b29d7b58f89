package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hupe1980/hyperlsh/bench"
	"github.com/hupe1980/hyperlsh/config"
	"github.com/hupe1980/hyperlsh/dataset"
	"github.com/hupe1980/hyperlsh/distance"
	"github.com/hupe1980/hyperlsh/report"
)

// flagFields copies a flag's value from the flag-bound config into the
// loaded one. Only flags set on the command line are copied.
var flagFields = map[string]func(dst, src *config.Config){
	"input":                func(d, s *config.Config) { d.Input.Path = s.Input.Path },
	"store":                func(d, s *config.Config) { d.Input.Store = s.Input.Store },
	"bucket":               func(d, s *config.Config) { d.Input.Bucket = s.Input.Bucket },
	"prefix":               func(d, s *config.Config) { d.Input.Prefix = s.Input.Prefix },
	"endpoint":             func(d, s *config.Config) { d.Input.Endpoint = s.Input.Endpoint },
	"region":               func(d, s *config.Config) { d.Input.Region = s.Input.Region },
	"dim":                  func(d, s *config.Config) { d.Input.Dim = s.Input.Dim },
	"norm":                 func(d, s *config.Config) { d.Input.Normalize = s.Input.Normalize },
	"extend":               func(d, s *config.Config) { d.Input.Extend = s.Input.Extend },
	"query":                func(d, s *config.Config) { d.Query = s.Query },
	"run":                  func(d, s *config.Config) { d.Run = s.Run },
	"top-k":                func(d, s *config.Config) { d.TopK = s.TopK },
	"limit":                func(d, s *config.Config) { d.Limit = s.Limit },
	"seed":                 func(d, s *config.Config) { d.Seed = s.Seed },
	"single-hasher":        func(d, s *config.Config) { d.Hash.SingleHasher = s.Hash.SingleHasher },
	"tables":               func(d, s *config.Config) { d.Hash.Tables = s.Hash.Tables },
	"num-proj-hash":        func(d, s *config.Config) { d.Hash.NumProjHash = s.Hash.NumProjHash },
	"scale-dim":            func(d, s *config.Config) { d.Hash.ScaleDim = s.Hash.ScaleDim },
	"bucket-width":         func(d, s *config.Config) { d.Hash.BucketWidth = s.Hash.BucketWidth },
	"interval-ratio":       func(d, s *config.Config) { d.Hash.IntervalRatio = s.Hash.IntervalRatio },
	"separation-threshold": func(d, s *config.Config) { d.Hash.SeparationThreshold = s.Hash.SeparationThreshold },
	"name":                 func(d, s *config.Config) { d.Output.Name = s.Output.Name },
	"search-output":        func(d, s *config.Config) { d.Output.SearchOutput = s.Output.SearchOutput },
	"real-output":          func(d, s *config.Config) { d.Output.RealOutput = s.Output.RealOutput },
	"meta-output":          func(d, s *config.Config) { d.Output.MetaOutput = s.Output.MetaOutput },
	"history":              func(d, s *config.Config) { d.Output.History = s.Output.History },
	"publish":              func(d, s *config.Config) { d.Output.Publish = s.Output.Publish },
	"workers":              func(d, s *config.Config) { d.Bench.Workers = s.Bench.Workers },
	"max-qps":              func(d, s *config.Config) { d.Bench.MaxQPS = s.Bench.MaxQPS },
	"progress":             func(d, s *config.Config) { d.Bench.Progress = s.Bench.Progress },
	"log-level":            func(d, s *config.Config) { d.Logging.Level = s.Logging.Level },
	"log-format":           func(d, s *config.Config) { d.Logging.Format = s.Logging.Format },
}

func newRunCmd() *cobra.Command {
	fl := config.Default()
	var evalDist string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build an index and score it against exact search",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("config")
			cfg, err := config.Read(path)
			if err != nil {
				return err
			}
			for name, copyField := range flagFields {
				if cmd.Flags().Changed(name) {
					copyField(cfg, fl)
				}
			}
			if cmd.Flags().Changed("eval-dist") {
				cfg.EvalDist = distance.ParseMetric(evalDist)
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return run(cmd, cfg)
		},
	}

	f := cmd.Flags()
	f.StringVar(&fl.Input.Path, "input", "", "dataset path or object key (.csv, .bin, .fbin, optionally .gz/.zst/.lz4)")
	f.StringVar(&fl.Input.Store, "store", fl.Input.Store, "dataset store: local, s3 or minio")
	f.StringVar(&fl.Input.Bucket, "bucket", "", "bucket of a remote store")
	f.StringVar(&fl.Input.Prefix, "prefix", "", "key prefix of a remote store")
	f.StringVar(&fl.Input.Endpoint, "endpoint", "", "minio endpoint")
	f.StringVar(&fl.Input.Region, "region", "", "remote store region")
	f.IntVar(&fl.Input.Dim, "dim", 0, "dimension of headerless .bin inputs")
	f.BoolVar(&fl.Input.Normalize, "norm", fl.Input.Normalize, "normalise rows to unit length")
	f.BoolVar(&fl.Input.Extend, "extend", fl.Input.Extend, "append a constant 1 coordinate to every row")
	f.StringVar(&fl.Query, "query", fl.Query, "query file, JSON vectors or row indices, or a random row count")
	f.StringVar(&fl.Run, "run", fl.Run, "hash family: BH, EH, MH, NH or FH")
	f.IntVar(&fl.TopK, "top-k", fl.TopK, "results per query")
	f.IntVar(&fl.Limit, "limit", fl.Limit, "candidates examined per query")
	f.Uint64Var(&fl.Seed, "seed", fl.Seed, "random seed")
	f.IntVar(&fl.Hash.SingleHasher, "single-hasher", fl.Hash.SingleHasher, "bits per table (BH, EH, MH) or signature length (NH)")
	f.IntVar(&fl.Hash.Tables, "tables", fl.Hash.Tables, "hash tables (BH, EH, MH) or projections (FH)")
	f.IntVar(&fl.Hash.NumProjHash, "num-proj-hash", fl.Hash.NumProjHash, "projections per MH bit")
	f.IntVar(&fl.Hash.ScaleDim, "scale-dim", fl.Hash.ScaleDim, "sample scale factor (NH, FH)")
	f.Float64Var(&fl.Hash.BucketWidth, "bucket-width", fl.Hash.BucketWidth, "NH bucket width")
	f.Float64Var(&fl.Hash.IntervalRatio, "interval-ratio", fl.Hash.IntervalRatio, "FH block interval ratio in (0, 1]")
	f.IntVar(&fl.Hash.SeparationThreshold, "separation-threshold", fl.Hash.SeparationThreshold, "FH separation threshold")
	f.StringVar(&evalDist, "eval-dist", fl.EvalDist.String(), "evaluation metric: ABS_DOT, COS or DP2H")
	f.StringVar(&fl.Output.Name, "name", "", "run label stored with the results")
	f.StringVar(&fl.Output.SearchOutput, "search-output", "", "file for the found neighbours")
	f.StringVar(&fl.Output.RealOutput, "real-output", "", "file for the true neighbours")
	f.StringVar(&fl.Output.MetaOutput, "meta-output", fl.Output.MetaOutput, "per-query score CSV, appended to")
	f.StringVar(&fl.Output.History, "history", "", "bbolt file for run summaries")
	f.StringVar(&fl.Output.Publish, "publish", "", "upload outputs to the input store under this prefix")
	f.IntVar(&fl.Bench.Workers, "workers", fl.Bench.Workers, "concurrent queries")
	f.Float64Var(&fl.Bench.MaxQPS, "max-qps", 0, "query rate limit, 0 for none")
	f.BoolVar(&fl.Bench.Progress, "progress", false, "show a progress bar")
	f.StringVar(&fl.Logging.Level, "log-level", fl.Logging.Level, "log level")
	f.StringVar(&fl.Logging.Format, "log-format", fl.Logging.Format, "log format: text or json")

	return cmd
}

func run(cmd *cobra.Command, cfg *config.Config) error {
	ctx := cmd.Context()

	logger, err := cfg.Logging.Logger()
	if err != nil {
		return err
	}

	store, err := openStore(ctx, cfg.Input)
	if err != nil {
		return err
	}

	data, err := loadData(ctx, cfg.Input, store)
	if err != nil {
		return fmt.Errorf("load %s: %w", cfg.Input.Path, err)
	}
	data = dataset.Prepare(data, cfg.Input.Normalize, cfg.Input.Extend)

	queries, err := dataset.Queries(cfg.Query, data, cfg.Seed)
	if err != nil {
		return err
	}
	logger.InfoContext(ctx, "dataset loaded",
		"input", cfg.Input.Path,
		"points", len(data),
		"dimension", len(data[0]),
		"queries", len(queries),
	)

	res, err := bench.Evaluate(ctx, cfg, data, queries, func(o *bench.Options) {
		o.Logger = logger
		if cfg.Bench.Progress {
			o.Progress = os.Stderr
		}
	})
	if err != nil {
		return err
	}

	if err := writeOutputs(cfg, res, data); err != nil {
		return err
	}

	if cfg.Output.History != "" {
		history, err := report.OpenBoltStore(cfg.Output.History)
		if err != nil {
			return err
		}
		defer history.Close()
		if err := history.Save(ctx, report.Summarize(cfg, res)); err != nil {
			return err
		}
	}

	if cfg.Output.Publish != "" {
		prefix := filepath.ToSlash(filepath.Join(cfg.Output.Publish, res.RunID))
		err := report.Publish(ctx, store, prefix,
			cfg.Output.MetaOutput, cfg.Output.SearchOutput, cfg.Output.RealOutput)
		if err != nil {
			return err
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "run %s: %s recall=%.4f±%.4f precision=%.4f index=%s search=%s\n",
		res.RunID, res.Family, res.MeanRecall, res.StdRecall, res.MeanPrecision,
		res.IndexDuration, res.MeanSearchDuration)
	return nil
}

func writeOutputs(cfg *config.Config, res *bench.Result, data [][]float64) error {
	if p := cfg.Output.MetaOutput; p != "" {
		if err := report.AppendCSV(p, report.Meta(cfg, res)); err != nil {
			return fmt.Errorf("write meta output: %w", err)
		}
	}
	if p := cfg.Output.SearchOutput; p != "" {
		if err := report.WriteNeighbours(p, res, data, false); err != nil {
			return fmt.Errorf("write search output: %w", err)
		}
	}
	if p := cfg.Output.RealOutput; p != "" {
		if err := report.WriteNeighbours(p, res, data, true); err != nil {
			return fmt.Errorf("write real output: %w", err)
		}
	}
	return nil
}
