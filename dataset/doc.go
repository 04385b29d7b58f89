// Package dataset loads point sets and query sets.
//
// Text datasets hold one comma-separated vector per line, optionally
// compressed (".gz", ".zst", ".lz4"). Binary datasets hold little-endian
// float32 values: ".fbin" files start with uint32 row and column counts,
// ".bin" files are headerless and need the dimension from the caller.
// Local binary files are decoded straight from a read-only mapping.
package dataset
