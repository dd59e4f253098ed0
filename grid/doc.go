// Package grid implements the sparse point container: a set of fixed-size
// leaf regions addressed by spatial origin, each mapping its 8x8x8 cells to a
// contiguous run of point indices through a cumulative offset table.
//
// Regions own their attribute stores exclusively. Replacing a region's store
// and offset table is a single region-local swap; cross-region operations
// (group declaration and removal) are serialized by the Grid.
package grid
