// Package blobstore provides storage access for datasets and run outputs.
//
// BlobStore is the interface for reading and writing immutable blobs.
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem, read through mmap
//   - MemoryStore: in-memory, for tests
//   - minio.Store: MinIO and S3-compatible storage
//   - s3.Store: Amazon S3 with ranged reads and managed uploads
//
// # Usage
//
//	data, err := blobstore.ReadAll(ctx, store, "points.csv.zst")
//	r := blobstore.Reader(ctx, blob) // sequential io.Reader over a Blob
package blobstore
