// Package testutil provides testing utilities for hyperlsh.
//
// This package is intended for tests, benchmarks and the evaluation driver.
// It provides helpers for generating random datasets and hyperplane queries,
// computing exact answers by linear scan, and measuring recall.
//
// # Random Data
//
//	rng := testutil.NewRNG(seed)
//	data := rng.GaussianVectors(1000, 16)
//	planes := rng.Hyperplanes(10, 16) // unit normal plus offset
//
// # Ground Truth
//
//	truth := testutil.BruteForce(distance.DP2H, query, data, k)
//
// # Recall
//
//	recall := testutil.ComputeRecall(truth, results)
package testutil
