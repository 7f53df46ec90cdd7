// Package blobstore abstracts where scan inputs and outputs live.
//
// BlobStore implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local files, read through memory mappings (Mappable)
//   - MemoryStore: in-process blobs for tests (Mappable)
//   - s3.Store: Amazon S3 with range reads and multipart uploads
//   - minio.Store: MinIO and other S3-compatible servers
//
// Mappable blobs are scanned as a single chunk, so every record is a
// zero-copy view. Remote blobs are streamed with ReadRange.
package blobstore
