// Package mmap maps binary dataset files read-only into memory.
//
//	m, err := mmap.Open("points.fbin")
//	if err != nil { ... }
//	defer m.Close()
//
//	m.Advise(mmap.AccessSequential)
//	rows, err := m.Float32Rows(0, dim)
//
// Unix platforms use mmap(2) with madvise(2) hints; Windows uses
// CreateFileMapping/MapViewOfFile and ignores hints.
//
// A Mapping is safe for concurrent reads. Close is idempotent; slices
// returned by Bytes must not be used after it.
package mmap
