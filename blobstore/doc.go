// Package blobstore abstracts where grid snapshots live: in memory (tests),
// on the local filesystem, or in object storage (S3, MinIO).
//
// Snapshots are immutable blobs: they are written once through a streaming
// WritableBlob and read back through range reads. Implementations must make
// a blob visible only after its writer is closed successfully.
package blobstore
