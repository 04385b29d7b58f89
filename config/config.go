// Package config holds the run configuration of the evaluation driver.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/hyperlsh"
	"github.com/hupe1980/hyperlsh/distance"
)

// Config describes one evaluation run.
type Config struct {
	// Run names the hash family: BH, EH, MH, NH or FH.
	Run string `yaml:"run" json:"run"`

	Input InputConfig `yaml:"input" json:"input"`

	// Query is a query file, a JSON array of vectors or row indices, or a
	// count of random data rows.
	Query string `yaml:"query" json:"query"`

	TopK  int `yaml:"top_k" json:"top_k"`
	Limit int `yaml:"limit" json:"limit"`

	// EvalDist is the metric used for re-ranking and ground truth.
	EvalDist distance.Metric `yaml:"eval_dist" json:"eval_dist"`

	Seed uint64 `yaml:"seed" json:"seed"`

	Hash HashConfig `yaml:"hash" json:"hash"`

	Output OutputConfig `yaml:"output" json:"output"`

	Bench BenchConfig `yaml:"bench" json:"bench"`

	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// InputConfig locates and prepares the dataset.
type InputConfig struct {
	Path string `yaml:"path" json:"path"`
	// Store is "local", "s3" or "minio". Remote stores read Path as a key.
	Store    string `yaml:"store" json:"store"`
	Bucket   string `yaml:"bucket" json:"bucket"`
	Prefix   string `yaml:"prefix" json:"prefix"`
	Endpoint string `yaml:"endpoint" json:"endpoint"`
	Region   string `yaml:"region" json:"region"`
	Secure   bool   `yaml:"secure" json:"secure"`
	// Dim is required for headerless ".bin" files.
	Dim       int  `yaml:"dim" json:"dim"`
	Normalize bool `yaml:"norm" json:"norm"`
	Extend    bool `yaml:"extend" json:"extend"`
}

// HashConfig holds the family parameters.
type HashConfig struct {
	// SingleHasher is the bits per table (BH, EH, MH) or signature length (NH).
	SingleHasher int `yaml:"single_hasher" json:"single_hasher"`
	// Tables is the table count (BH, EH, MH) or RQALSH projections (FH).
	Tables              int     `yaml:"tables" json:"tables"`
	NumProjHash         int     `yaml:"num_proj_hash" json:"num_proj_hash"`
	ScaleDim            int     `yaml:"scale_dim" json:"scale_dim"`
	BucketWidth         float64 `yaml:"bucket_width" json:"bucket_width"`
	IntervalRatio       float64 `yaml:"interval_ratio" json:"interval_ratio"`
	SeparationThreshold int     `yaml:"separation_threshold" json:"separation_threshold"`
	MaxBlockSize        int     `yaml:"max_block_size" json:"max_block_size"`
	ScanWindow          int     `yaml:"scan_window" json:"scan_window"`
	ScanChunk           int     `yaml:"scan_chunk" json:"scan_chunk"`
	MaxScan             int     `yaml:"max_scan" json:"max_scan"`
}

// OutputConfig names the result files. Empty paths disable an output.
type OutputConfig struct {
	Name         string `yaml:"name" json:"name"`
	SearchOutput string `yaml:"search_output" json:"search_output"`
	RealOutput   string `yaml:"real_output" json:"real_output"`
	MetaOutput   string `yaml:"meta_output" json:"meta_output"`
	// History is a bbolt file that keeps every run's summary.
	History string `yaml:"history" json:"history"`
	// Publish, when set, uploads the written outputs to the input store
	// under this prefix.
	Publish string `yaml:"publish" json:"publish"`
}

// BenchConfig controls query execution.
type BenchConfig struct {
	Workers  int     `yaml:"workers" json:"workers"`
	MaxQPS   float64 `yaml:"max_qps" json:"max_qps"`
	Progress bool    `yaml:"progress" json:"progress"`
}

// LoggingConfig selects the log handler.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Run: "NH",
		Input: InputConfig{
			Store:  "local",
			Extend: true,
		},
		Query:    "10",
		TopK:     10,
		Limit:    100,
		EvalDist: distance.DP2H,
		Seed:     1,
		Hash: HashConfig{
			SingleHasher:        8,
			Tables:              8,
			NumProjHash:         2,
			ScaleDim:            2,
			BucketWidth:         1,
			IntervalRatio:       0.9,
			SeparationThreshold: 3,
			MaxBlockSize:        25000,
			ScanWindow:          4,
			ScanChunk:           64,
			MaxScan:             100000,
		},
		Output: OutputConfig{
			MetaOutput: "meta.csv",
		},
		Bench: BenchConfig{
			Workers: 1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the configuration with Read and validates it.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Read decodes path over the defaults and applies HYPERLSH_* environment
// overrides without validating. An empty path skips the file.
func Read(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	loadFromEnv(cfg)
	return cfg, nil
}

func loadFromEnv(cfg *Config) {
	if v := os.Getenv("HYPERLSH_INPUT"); v != "" {
		cfg.Input.Path = v
	}
	if v := os.Getenv("HYPERLSH_BUCKET"); v != "" {
		cfg.Input.Bucket = v
	}
	if v := os.Getenv("HYPERLSH_ENDPOINT"); v != "" {
		cfg.Input.Endpoint = v
	}
	if v := os.Getenv("HYPERLSH_SEED"); v != "" {
		if seed, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.Seed = seed
		}
	}
	if v := os.Getenv("HYPERLSH_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	var errs []error

	family, err := hyperlsh.ParseFamily(c.Run)
	if err != nil {
		errs = append(errs, err)
	}
	if c.Input.Path == "" {
		errs = append(errs, errors.New("input.path is required"))
	}
	switch c.Input.Store {
	case "local", "":
	case "s3", "minio":
		if c.Input.Bucket == "" {
			errs = append(errs, fmt.Errorf("input.bucket is required for store %q", c.Input.Store))
		}
		if c.Input.Store == "minio" && c.Input.Endpoint == "" {
			errs = append(errs, errors.New("input.endpoint is required for store \"minio\""))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown input.store %q", c.Input.Store))
	}
	if c.TopK <= 0 {
		errs = append(errs, fmt.Errorf("top_k must be positive, got %d", c.TopK))
	}
	if c.Limit <= 0 {
		errs = append(errs, fmt.Errorf("limit must be positive, got %d", c.Limit))
	}

	h := c.Hash
	switch family {
	case hyperlsh.BH, hyperlsh.EH, hyperlsh.MH:
		if h.SingleHasher <= 0 || h.SingleHasher > 64 {
			errs = append(errs, fmt.Errorf("hash.single_hasher must be in [1, 64], got %d", h.SingleHasher))
		}
		if h.Tables <= 0 {
			errs = append(errs, fmt.Errorf("hash.tables must be positive, got %d", h.Tables))
		}
		if family == hyperlsh.MH && h.NumProjHash <= 0 {
			errs = append(errs, fmt.Errorf("hash.num_proj_hash must be positive, got %d", h.NumProjHash))
		}
	case hyperlsh.NH:
		if h.SingleHasher <= 0 {
			errs = append(errs, fmt.Errorf("hash.single_hasher must be positive, got %d", h.SingleHasher))
		}
		if h.ScaleDim <= 0 {
			errs = append(errs, fmt.Errorf("hash.scale_dim must be positive, got %d", h.ScaleDim))
		}
		if !(h.BucketWidth > 0) {
			errs = append(errs, fmt.Errorf("hash.bucket_width must be positive, got %g", h.BucketWidth))
		}
	case hyperlsh.FH:
		if h.Tables <= 0 {
			errs = append(errs, fmt.Errorf("hash.tables must be positive, got %d", h.Tables))
		}
		if h.ScaleDim <= 0 {
			errs = append(errs, fmt.Errorf("hash.scale_dim must be positive, got %d", h.ScaleDim))
		}
		if !(h.IntervalRatio > 0 && h.IntervalRatio <= 1) {
			errs = append(errs, fmt.Errorf("hash.interval_ratio must be in (0, 1], got %g", h.IntervalRatio))
		}
		if h.SeparationThreshold <= 0 || h.SeparationThreshold > h.Tables {
			errs = append(errs, fmt.Errorf("hash.separation_threshold must be in [1, tables], got %d", h.SeparationThreshold))
		}
	}

	if c.Bench.Workers <= 0 {
		errs = append(errs, fmt.Errorf("bench.workers must be positive, got %d", c.Bench.Workers))
	}
	if c.Bench.MaxQPS < 0 {
		errs = append(errs, fmt.Errorf("bench.max_qps must not be negative, got %g", c.Bench.MaxQPS))
	}
	if _, err := c.Logging.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown logging.format %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}

// Family returns the parsed hash family.
func (c *Config) Family() (hyperlsh.Family, error) {
	return hyperlsh.ParseFamily(c.Run)
}

// Options translates the hash parameters into build options.
func (c *Config) Options() []hyperlsh.Option {
	h := c.Hash
	return []hyperlsh.Option{
		hyperlsh.WithSeed(c.Seed),
		hyperlsh.WithProbes(h.SingleHasher),
		hyperlsh.WithTables(h.Tables),
		hyperlsh.WithProjections(h.NumProjHash),
		hyperlsh.WithScale(h.ScaleDim),
		hyperlsh.WithBucketWidth(h.BucketWidth),
		hyperlsh.WithIntervalRatio(h.IntervalRatio),
		hyperlsh.WithMaxBlockSize(h.MaxBlockSize),
		hyperlsh.WithScanWindow(h.ScanWindow),
		hyperlsh.WithScanChunk(h.ScanChunk),
		hyperlsh.WithMaxScan(h.MaxScan),
	}
}

// SlogLevel parses the configured log level.
func (l LoggingConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("logging.level: %w", err)
	}
	return level, nil
}

// Logger builds the configured logger, writing to stderr.
func (l LoggingConfig) Logger() (*hyperlsh.Logger, error) {
	level, err := l.SlogLevel()
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(l.Format, "json") {
		return hyperlsh.NewJSONLogger(level), nil
	}
	return hyperlsh.NewTextLogger(level), nil
}
