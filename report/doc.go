// Package report writes evaluation results.
//
// Per-query scores go to a meta CSV that accumulates across runs: new
// columns are merged into the existing header and earlier rows keep empty
// cells for them. Found and true neighbours can be dumped per query, and
// run summaries are kept in a bbolt history file.
//
// Output paths ending in .gz, .zst or .lz4 are compressed accordingly.
package report
