package grid

import (
	"fmt"

	"github.com/hupe1980/pointgrid/attribute"
)

const (
	// RegionLog2Dim is the log2 edge length of a region in cells.
	RegionLog2Dim = 3
	// RegionDim is the edge length of a region in cells.
	RegionDim = 1 << RegionLog2Dim
	// NumCells is the number of cells per region.
	NumCells = RegionDim * RegionDim * RegionDim

	regionMask = RegionDim - 1
)

// Coord is an integer cell coordinate.
type Coord struct {
	X, Y, Z int32
}

// RegionOrigin returns the origin of the region containing c.
func (c Coord) RegionOrigin() Coord {
	return Coord{
		X: c.X &^ regionMask,
		Y: c.Y &^ regionMask,
		Z: c.Z &^ regionMask,
	}
}

// CellIndex returns the region-local cell index of c, in the fixed spatial
// iteration order (x major, z fastest).
func (c Coord) CellIndex() int {
	x := int(c.X & regionMask)
	y := int(c.Y & regionMask)
	z := int(c.Z & regionMask)
	return x<<(2*RegionLog2Dim) | y<<RegionLog2Dim | z
}

// Region is one fixed-capacity leaf: an attribute store plus the cumulative
// per-cell offset table mapping cells to point index ranges.
//
// The offset table has exactly NumCells entries in fixed spatial order;
// offsets[i] is the exclusive end index of the points in cell i, so
// offsets[NumCells-1] equals the region's point count.
type Region struct {
	origin  Coord
	offsets []uint32
	store   *attribute.Store
}

// NewRegion creates an empty region at the given origin.
func NewRegion(origin Coord, desc *attribute.Descriptor) (*Region, error) {
	store, err := attribute.NewStore(desc, 0)
	if err != nil {
		return nil, err
	}
	return &Region{
		origin:  origin,
		offsets: make([]uint32, NumCells),
		store:   store,
	}, nil
}

// Origin returns the region's spatial origin.
func (r *Region) Origin() Coord {
	return r.origin
}

// PointCount returns the number of points held by the region.
func (r *Region) PointCount() uint32 {
	return r.offsets[NumCells-1]
}

// CellRange returns the half-open point index range [start, end) of cell i.
func (r *Region) CellRange(i int) (start, end uint32) {
	if i > 0 {
		start = r.offsets[i-1]
	}
	return start, r.offsets[i]
}

// Attributes returns the region's current attribute store.
func (r *Region) Attributes() *attribute.Store {
	return r.store
}

// Offsets returns the offset table. The returned slice aliases region state;
// do not modify.
func (r *Region) Offsets() []uint32 {
	return r.offsets
}

// ReplaceAttributes installs a new store and offset table in a single swap.
// This is the last observable step of a compaction: until it runs, readers
// see the old store paired with the old offsets.
func (r *Region) ReplaceAttributes(store *attribute.Store, offsets []uint32) error {
	if len(offsets) != NumCells {
		return fmt.Errorf("grid: offset table has %d entries, want %d", len(offsets), NumCells)
	}
	if n := offsets[NumCells-1]; int(n) != store.Len() {
		return fmt.Errorf("grid: offset table ends at %d, store holds %d points", n, store.Len())
	}
	r.store = store
	r.offsets = offsets
	return nil
}

// Clear discards the region's attribute store: all columns are dropped and
// the region becomes empty.
func (r *Region) Clear() error {
	store, err := attribute.NewStore(r.store.Descriptor(), 0)
	if err != nil {
		return err
	}
	r.store = store
	r.offsets = make([]uint32, NumCells)
	return nil
}

// SetGroupMember marks point i as a member (or not) of the named group.
func (r *Region) SetGroupMember(name string, i uint32, on bool) error {
	g, ok := r.store.Group(name)
	if !ok {
		return fmt.Errorf("grid: %w: %q", ErrUnknownGroup, name)
	}
	g.SetMember(i, on)
	return nil
}
