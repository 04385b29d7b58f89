package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"go.etcd.io/bbolt"

	"github.com/hupe1980/hyperlsh/bench"
	"github.com/hupe1980/hyperlsh/config"
)

const runsBucket = "runs"

// ErrRunNotFound is returned when a run ID is not in the history.
var ErrRunNotFound = errors.New("report: run not found")

// Summary is the stored record of one run.
type Summary struct {
	RunID              string         `json:"run_id"`
	Family             string         `json:"family"`
	Name               string         `json:"name,omitempty"`
	Input              string         `json:"input"`
	Started            time.Time      `json:"started"`
	DataSize           int            `json:"data_size"`
	Queries            int            `json:"queries"`
	TopK               int            `json:"top_k"`
	Limit              int            `json:"limit"`
	MeanRecall         float64        `json:"mean_recall"`
	StdRecall          float64        `json:"std_recall"`
	MeanPrecision      float64        `json:"mean_precision"`
	IndexDuration      time.Duration  `json:"index_duration"`
	MeanSearchDuration time.Duration  `json:"mean_search_duration"`
	Config             *config.Config `json:"config,omitempty"`
}

// Summarize condenses a result.
func Summarize(cfg *config.Config, res *bench.Result) Summary {
	return Summary{
		RunID:              res.RunID,
		Family:             res.Family.String(),
		Name:               cfg.Output.Name,
		Input:              cfg.Input.Path,
		Started:            res.Started,
		DataSize:           res.DataSize,
		Queries:            len(res.Rows),
		TopK:               cfg.TopK,
		Limit:              cfg.Limit,
		MeanRecall:         res.MeanRecall,
		StdRecall:          res.StdRecall,
		MeanPrecision:      res.MeanPrecision,
		IndexDuration:      res.IndexDuration,
		MeanSearchDuration: res.MeanSearchDuration,
		Config:             cfg,
	}
}

// BoltStore keeps run summaries in a bbolt file.
type BoltStore struct {
	db *bbolt.DB
}

// OpenBoltStore opens or creates the history file at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open history at %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(runsBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history: %w", err)
	}
	return &BoltStore{db: db}, nil
}

// Save stores s under its run ID, replacing an earlier record.
func (b *BoltStore) Save(ctx context.Context, s Summary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal run %s: %w", s.RunID, err)
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(runsBucket)).Put([]byte(s.RunID), data)
	})
}

// Get loads one run.
func (b *BoltStore) Get(ctx context.Context, runID string) (Summary, error) {
	var s Summary
	if err := ctx.Err(); err != nil {
		return s, err
	}
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(runsBucket)).Get([]byte(runID))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return json.Unmarshal(data, &s)
	})
	return s, err
}

// List returns every stored run, oldest first.
func (b *BoltStore) List(ctx context.Context) ([]Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var runs []Summary
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(runsBucket)).ForEach(func(_, v []byte) error {
			var s Summary
			if err := json.Unmarshal(v, &s); err != nil {
				return err
			}
			runs = append(runs, s)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(runs, func(x, y Summary) int {
		return x.Started.Compare(y.Started)
	})
	return runs, nil
}

// Close closes the history file.
func (b *BoltStore) Close() error {
	return b.db.Close()
}
