// Package blobstore provides storage abstraction for colour catalogs.
//
// A catalog is an immutable blob. The matcher only needs random access to
// it, so every backend exposes the same read-only handle:
//
//	type Blob interface {
//	    io.ReaderAt
//	    io.Closer
//	    Size() int64
//	}
//
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: Local filesystem, atomic publish via rename
//   - MemoryStore: In-memory store for tests
//   - s3.Store: Amazon S3 with range reads and multipart uploads
//   - minio.Store: MinIO and other S3-compatible storage
package blobstore
