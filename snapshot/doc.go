// Package snapshot serializes a grid to a compact binary blob and back.
//
// A snapshot is a single stream: a fixed header, the attribute descriptor,
// one compressed block per region, and a CRC32 trailer over everything that
// precedes it. Region blocks hold the cell offset table, the raw field
// columns, and the serialized group membership bitmaps.
//
// Snapshots are written through any io.Writer, so they stream to local files
// and object stores alike without buffering the whole grid in memory.
package snapshot
