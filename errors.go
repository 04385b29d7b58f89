package hyperlsh

import (
	"errors"
	"fmt"

	"github.com/hupe1980/hyperlsh/model"
)

var (
	// ErrEmptyDataset is returned when an index is built over no points.
	ErrEmptyDataset = model.ErrEmptyDataset

	// ErrInvalidTop is returned when a query asks for fewer than one result.
	ErrInvalidTop = model.ErrInvalidTop

	// ErrZeroVector is returned when an FH query has no energy to rescale.
	ErrZeroVector = model.ErrZeroVector

	// ErrUnknownFamily is returned for an unrecognized hash family name.
	ErrUnknownFamily = errors.New("unknown hash family")
)

// ErrDimensionMismatch indicates a vector/query dimensionality mismatch.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

// ErrInvalidParameter indicates a rejected construction or query parameter.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrInvalidParameter struct {
	Name   string
	Reason string
	cause  error
}

func (e *ErrInvalidParameter) Error() string {
	return fmt.Sprintf("invalid parameter %s: %s", e.Name, e.Reason)
}

func (e *ErrInvalidParameter) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var dm *model.ErrDimensionMismatch
	if errors.As(err, &dm) {
		return &ErrDimensionMismatch{Expected: dm.Expected, Actual: dm.Actual, cause: err}
	}
	var ip *model.ErrInvalidParameter
	if errors.As(err, &ip) {
		return &ErrInvalidParameter{Name: ip.Name, Reason: ip.Reason, cause: err}
	}
	return err
}
