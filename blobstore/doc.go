// Package blobstore provides the storage abstraction for lexgo's immutable
// segment files and manifests.
//
// # Built-in Implementations
//
//   - MemoryStore: in-memory, for RAM indexes and tests
//   - LocalStore: local filesystem with mmap reads and a flock writer lock
//   - s3.Store / s3.DDBCommitStore: Amazon S3, optionally with DynamoDB commits
//   - minio.Store: MinIO and other S3-compatible services
//
// # Custom Implementations
//
// Implement the BlobStore interface to support custom storage backends:
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)
//	    Put(ctx, name, data) error
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
package blobstore
