// Package hash implements the asymmetric hyperplane hash families.
//
// Bit families (BH, EH, MH) share one tagged type, Bits: every probe yields
// one bit on the data side and the negated bit on the query side, and the m
// probes of a table are packed MSB-first into a uint64 code.
//
// NH and FH first expand a vector into a sparse sample of its quadratic
// features with a Sampler. NH projects the expansion onto m Gaussian vectors
// and quantizes with bucket width w; FH returns the dataset transform
// consumed by furthest-neighbour search.
//
// All random coefficients are drawn from the *rand.Rand passed to the
// constructor and frozen afterwards. Data and Query never mutate the hasher
// and are safe for concurrent use.
package hash
