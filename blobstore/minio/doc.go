// Package minio provides a blobstore.BlobStore for MinIO and other
// S3-compatible object stores that are addressed directly by endpoint
// rather than through AWS credentials and region resolution.
package minio
