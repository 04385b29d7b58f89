package model

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyDataset is returned when an index is built over zero vectors.
	ErrEmptyDataset = errors.New("dataset is empty")

	// ErrInvalidTop is returned when the requested result size is not positive.
	ErrInvalidTop = errors.New("top must be positive")

	// ErrZeroVector is returned when a vector has no energy where a non-zero
	// norm is required (for example rescaling an FH query).
	ErrZeroVector = errors.New("vector has zero norm")
)

// ErrDimensionMismatch indicates a vector/query dimensionality mismatch.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// ErrInvalidParameter indicates a constructor argument outside its domain.
type ErrInvalidParameter struct {
	Name   string
	Value  any
	Reason string
}

func (e *ErrInvalidParameter) Error() string {
	return fmt.Sprintf("invalid parameter %s=%v: %s", e.Name, e.Value, e.Reason)
}

// CheckDimension returns an *ErrDimensionMismatch when actual != expected.
func CheckDimension(expected, actual int) error {
	if expected != actual {
		return &ErrDimensionMismatch{Expected: expected, Actual: actual}
	}
	return nil
}

// CheckRows validates that data is non-empty and rectangular and returns its
// dimension.
func CheckRows(data [][]float64) (int, error) {
	if len(data) == 0 {
		return 0, ErrEmptyDataset
	}
	dim := len(data[0])
	if dim == 0 {
		return 0, &ErrInvalidParameter{Name: "dim", Value: 0, Reason: "must be positive"}
	}
	for _, row := range data[1:] {
		if err := CheckDimension(dim, len(row)); err != nil {
			return 0, err
		}
	}
	return dim, nil
}

// Positive returns an *ErrInvalidParameter unless v > 0.
func Positive(name string, v int) error {
	if v <= 0 {
		return &ErrInvalidParameter{Name: name, Value: v, Reason: "must be positive"}
	}
	return nil
}
