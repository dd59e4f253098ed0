// Package mmap provides read-only memory-mapped file access.
//
// Local snapshot blobs are mapped into memory so that range reads over
// region payloads avoid copying through kernel buffers. The package exposes
// a unified API across platforms:
//
//   - Unix (Linux, macOS, BSD): mmap(2) with madvise(2) for access hints
//   - Windows and others: the file is read into memory instead
//
// A Mapping is safe for concurrent reads. Close is idempotent, but callers
// must not touch Bytes() after Close returns.
package mmap
