// Package search combines a hash family, a candidate index and exact
// re-ranking into bounded top-k hyperplane queries.
//
//   - HashSearch: BH, EH or MH codes in a multi-table hash bucket
//   - NHSearch: NH signatures in a sorted LCCS index
//   - FHSearch: FH expansions in blocks of RQALSH structures
//
// Every searcher re-ranks candidates with the query's distance metric in a
// max-heap bounded to Top entries and returns results in ascending distance
// order with no repeated index. Searchers are immutable once built and may
// serve concurrent queries; Batch runs a query set over a worker pool.
package search
