// Package blobstore provides read/list/put access to the blobs a scan reads
// glyph files from and writes reports to.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem
//   - MemoryStore: in-memory, for tests
//   - s3.Store: Amazon S3 (aws-sdk-go-v2)
//   - minio.Store: MinIO and other S3-compatible services
//
// Remote stores can be wrapped with WithRetry so transient failures are
// retried with Fibonacci backoff.
//
// # Custom Implementations
//
//	type Store interface {
//	    Open(ctx, name) (io.ReadCloser, error)
//	    List(ctx, prefix) ([]string, error)
//	    Put(ctx, name, data) error
//	}
package blobstore
