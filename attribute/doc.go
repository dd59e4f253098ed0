// Package attribute implements the columnar per-point storage used by region
// leaves: a shared descriptor (field names, types and declared groups), typed
// dense columns indexed by region-local point index, and bitmap-backed group
// membership columns.
//
// A Store owns one column per declared field plus one group column per
// declared group. All columns of a store share the same length and index
// space. Stores are replaced wholesale during compaction; they are not safe
// for concurrent mutation.
package attribute
