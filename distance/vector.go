package distance

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Dot returns the dot product of two vectors of equal length.
func Dot(a, b []float64) float64 {
	return floats.Dot(a, b)
}

// DotN returns the dot product of the first n coordinates of a and b.
func DotN(a, b []float64, n int) float64 {
	return floats.Dot(a[:n], b[:n])
}

// SquaredNorm returns v·v.
func SquaredNorm(v []float64) float64 {
	return floats.Dot(v, v)
}

// Norm returns the L2 norm of v.
func Norm(v []float64) float64 {
	return floats.Norm(v, 2)
}

// Fill returns a vector of length n with every element set to v.
func Fill(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// Concat appends col[i] as an extra trailing coordinate to every row of data.
// The input rows are not modified.
func Concat(data [][]float64, col []float64) [][]float64 {
	out := make([][]float64, len(data))
	for i, row := range data {
		r := make([]float64, len(row)+1)
		copy(r, row)
		r[len(row)] = col[i]
		out[i] = r
	}
	return out
}

// Normalize centers every dimension on the midpoint of its observed range and
// then scales each row to unit L2 norm. Rows that end up at the origin are
// left as zero vectors.
func Normalize(data [][]float64) [][]float64 {
	if len(data) == 0 {
		return nil
	}
	dim := len(data[0])
	mins := Fill(dim, math.Inf(1))
	maxs := Fill(dim, math.Inf(-1))
	for _, row := range data {
		for d, v := range row {
			mins[d] = math.Min(mins[d], v)
			maxs[d] = math.Max(maxs[d], v)
		}
	}

	center := make([]float64, dim)
	floats.AddTo(center, mins, maxs)
	floats.Scale(0.5, center)

	out := make([][]float64, len(data))
	for i, row := range data {
		r := make([]float64, dim)
		floats.SubTo(r, row, center)
		if n := floats.Norm(r, 2); n > 0 {
			floats.Scale(1/n, r)
		}
		out[i] = r
	}
	return out
}
