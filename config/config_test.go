package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/hyperlsh"
	"github.com/hupe1980/hyperlsh/distance"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "NH", cfg.Run)
	assert.True(t, cfg.Input.Extend)
	assert.Equal(t, "meta.csv", cfg.Output.MetaOutput)
	assert.Equal(t, distance.DP2H, cfg.EvalDist)

	// Default has no input path.
	require.Error(t, cfg.Validate())
	cfg.Input.Path = "data.csv"
	require.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
run: fh
input:
  path: points.fbin
  norm: true
query: "[0, 3]"
top_k: 5
limit: 50
eval_dist: cos
hash:
  tables: 6
  separation_threshold: 2
  interval_ratio: 0.5
bench:
  workers: 4
  max_qps: 100
logging:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "fh", cfg.Run)
	assert.Equal(t, "points.fbin", cfg.Input.Path)
	assert.True(t, cfg.Input.Normalize)
	assert.True(t, cfg.Input.Extend, "unset keys keep defaults")
	assert.Equal(t, 5, cfg.TopK)
	assert.Equal(t, distance.Cos, cfg.EvalDist)
	assert.Equal(t, 6, cfg.Hash.Tables)
	assert.Equal(t, 0.5, cfg.Hash.IntervalRatio)
	assert.Equal(t, 2, cfg.Hash.ScaleDim)
	assert.Equal(t, 4, cfg.Bench.Workers)

	family, err := cfg.Family()
	require.NoError(t, err)
	assert.Equal(t, hyperlsh.FH, family)

	level, err := cfg.Logging.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "input:\n  path: a.csv\n")
	t.Setenv("HYPERLSH_INPUT", "b.csv")
	t.Setenv("HYPERLSH_SEED", "42")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "b.csv", cfg.Input.Path)
	assert.Equal(t, uint64(42), cfg.Seed)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = Load(writeConfig(t, "run: [unterminated"))
	require.Error(t, err)

	_, err = Load(writeConfig(t, "run: XX\ninput:\n  path: a.csv\n"))
	require.ErrorIs(t, err, hyperlsh.ErrUnknownFamily)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"valid", func(*Config) {}, true},
		{"zero top", func(c *Config) { c.TopK = 0 }, false},
		{"zero limit", func(c *Config) { c.Limit = 0 }, false},
		{"bh too many bits", func(c *Config) { c.Run = "BH"; c.Hash.SingleHasher = 65 }, false},
		{"mh no projections", func(c *Config) { c.Run = "MH"; c.Hash.NumProjHash = 0 }, false},
		{"nh zero width", func(c *Config) { c.Hash.BucketWidth = 0 }, false},
		{"fh ratio", func(c *Config) { c.Run = "FH"; c.Hash.IntervalRatio = 1.5 }, false},
		{"fh separation above tables", func(c *Config) { c.Run = "FH"; c.Hash.SeparationThreshold = 9 }, false},
		{"s3 without bucket", func(c *Config) { c.Input.Store = "s3" }, false},
		{"minio without endpoint", func(c *Config) { c.Input.Store = "minio"; c.Input.Bucket = "b" }, false},
		{"unknown store", func(c *Config) { c.Input.Store = "ftp" }, false},
		{"zero workers", func(c *Config) { c.Bench.Workers = 0 }, false},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, false},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Input.Path = "data.csv"
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestOptions(t *testing.T) {
	cfg := Default()
	assert.Len(t, cfg.Options(), 11)

	logger, err := LoggingConfig{Level: "warn", Format: "json"}.Logger()
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestReadSkipsValidation(t *testing.T) {
	cfg, err := Read("")
	require.NoError(t, err)
	assert.Empty(t, cfg.Input.Path)

	_, err = Load("")
	require.Error(t, err)
}
