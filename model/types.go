package model

import (
	"cmp"
	"fmt"
	"slices"
)

// IdxVal pairs an integer index with a float value.
type IdxVal struct {
	Idx   int
	Value float64
}

// String returns a string representation of the pair.
func (iv IdxVal) String() string {
	return fmt.Sprintf("IdxVal(%d:%g)", iv.Idx, iv.Value)
}

// Compare orders pairs by value, then by index.
func Compare(a, b IdxVal) int {
	if c := cmp.Compare(a.Value, b.Value); c != 0 {
		return c
	}
	return cmp.Compare(a.Idx, b.Idx)
}

// Sort sorts s in ascending (value, index) order.
func Sort(s []IdxVal) {
	slices.SortFunc(s, Compare)
}

// Indices returns the indices of s in order.
func Indices(s []IdxVal) []int {
	out := make([]int, len(s))
	for i, iv := range s {
		out[i] = iv.Idx
	}
	return out
}

// SquaredNorm returns the sum of squared values of a sparse vector.
func SquaredNorm(s []IdxVal) float64 {
	var sum float64
	for _, iv := range s {
		sum += iv.Value * iv.Value
	}
	return sum
}
