// Package s3 provides an S3-backed blobstore.BlobStore plus a DynamoDB
// snapshot catalog.
//
// Snapshot blobs stream to S3 through a multipart uploader. The catalog
// records which snapshot is current: S3 has no compare-and-swap, so the
// "latest snapshot" pointer lives in DynamoDB, where conditional writes
// give monotonically increasing versions and safe concurrent publishers.
package s3
