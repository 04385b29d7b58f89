// Package hyperlsh provides locality-sensitive hashing indexes for
// hyperplane queries: given a hyperplane, find the indexed points that lie
// closest to it.
//
// # Quick Start
//
//	idx, _ := hyperlsh.Build(ctx, data, hyperlsh.NH,
//	    hyperlsh.WithProbes(8),
//	    hyperlsh.WithBucketWidth(0.5),
//	)
//	res, _ := idx.Search(ctx, hyperlsh.Query{
//	    Vector: plane, // normal followed by offset
//	    Top:    10,
//	    Limit:  100,
//	    Metric: distance.DP2H,
//	})
//
// # Families
//
// BH, EH and MH hash points into multi-table bit buckets. A query bit is the
// negation of the data bit, so points straddling the plane collide with it.
// NH expands vectors into sampled quadratic features, quantizes random
// projections and searches a sorted index by longest circular co-substring.
// FH reduces the problem to furthest-neighbour search and answers it with
// blocks of RQALSH projection tables.
//
// # Distances
//
// DP2H treats the last query coordinate as the plane offset, so data is
// usually extended with a constant 1 column (see dataset.Prepare). AbsDot
// and Cos compare the full vectors.
//
// # Concurrency
//
// Building consumes randomness derived from WithSeed. A built Index is
// immutable and queries are deterministic and safe for concurrent use;
// SearchBatch runs a query set on a bounded worker pool.
package hyperlsh
