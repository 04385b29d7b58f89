// Package distance provides the vector kernels and query↔data distance
// functions used for exact re-ranking.
//
// Kernels delegate to gonum's floats package. The three metrics are:
//
//   - AbsDot: |q·x|, the point-to-hyperplane score for a hyperplane through the origin
//   - Cos: 1 − q·x / (|q||x|)
//   - DP2H: distance from data point x to the hyperplane whose normal is q[:d-1]
//     and whose offset is q[d-1]
package distance
