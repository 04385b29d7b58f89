// Package index groups the candidate-generation structures behind the
// hyperplane searchers.
//
// # Structures
//
//   - bucket: multi-table hash buckets for the binary families (BH, EH, MH)
//   - lccs: sorted circular-shift arrays matching the longest common
//     circular substring of NH signatures
//   - rqalsh: per-block query-aware projections that count separations to
//     find the points furthest from a query sample (FH)
//
// All structures are built once over an immutable dataset and are safe for
// concurrent searches. They return candidate row indices. Ranking by exact
// distance happens in package search.
package index
