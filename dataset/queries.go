package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"

	"github.com/hupe1980/hyperlsh/model"
)

// ErrBadQuerySpec is returned when a query spec is neither a file, a JSON
// array nor a count.
var ErrBadQuerySpec = errors.New("dataset: query spec must be a file, a JSON array or a count")

// Queries resolves a query spec against data:
//
//   - the path of an existing dataset file, loaded with Open
//   - a JSON array whose elements are vectors or row indices into data
//   - a count n, drawing n rows of data uniformly with replacement
func Queries(spec string, data [][]float64, seed uint64) ([][]float64, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, ErrBadQuerySpec
	}

	if _, err := os.Stat(spec); err == nil {
		dim := 0
		if len(data) > 0 {
			dim = len(data[0])
		}
		return Open(spec, dim)
	}

	if strings.HasPrefix(spec, "[") {
		return parseJSON(spec, data)
	}

	n, err := strconv.Atoi(spec)
	if err != nil || n <= 0 {
		return nil, fmt.Errorf("%w: %q", ErrBadQuerySpec, spec)
	}
	if len(data) == 0 {
		return nil, model.ErrEmptyDataset
	}
	rng := rand.New(rand.NewPCG(seed, seed))
	out := make([][]float64, n)
	for i := range out {
		out[i] = data[rng.IntN(len(data))]
	}
	return out, nil
}

func parseJSON(spec string, data [][]float64) ([][]float64, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(spec), &elems); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadQuerySpec, err)
	}

	out := make([][]float64, 0, len(elems))
	for i, e := range elems {
		var vec []float64
		if err := json.Unmarshal(e, &vec); err == nil {
			out = append(out, vec)
			continue
		}
		var idx int
		if err := json.Unmarshal(e, &idx); err != nil {
			return nil, fmt.Errorf("%w: element %d: %s", ErrBadQuerySpec, i, e)
		}
		if idx < 0 || idx >= len(data) {
			return nil, &model.ErrInvalidParameter{Name: "query index", Value: idx, Reason: "out of range"}
		}
		out = append(out, data[idx])
	}
	return out, nil
}
