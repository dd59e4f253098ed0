// Package pointgrid implements a sparse, hierarchically-indexed point store
// with columnar per-point attributes and named membership groups, plus the
// bulk operations over it, most importantly group-based point deletion: an
// order-preserving, per-region stream compaction of all attribute columns
// that runs in parallel across regions.
//
// The root package is the facade. The heavy lifting lives in subpackages:
// attribute (columns, groups, filters), grid (regions, offset tables),
// snapshot (binary persistence) and blobstore (snapshot storage backends).
//
// Basic usage:
//
//	pg, _ := pointgrid.FromPositions(positions)
//	_ = pg.DeclareGroup("dead")
//	// ... mark members ...
//	_ = pg.DeleteFromGroup(ctx, "dead", false)
package pointgrid
