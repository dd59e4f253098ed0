package grid

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/hupe1980/pointgrid/attribute"
)

// ErrUnknownGroup is returned when an operation names a group that is not
// declared on the structure.
var ErrUnknownGroup = errors.New("unknown group")

// Grid is the sparse container of regions. All regions share one attribute
// descriptor; declaring or dropping groups is a structure-wide operation
// serialized by the grid.
//
// Per-region mutation (compaction) is safe to run in parallel across distinct
// regions; structure-wide metadata mutation must not overlap with it.
type Grid struct {
	mu      sync.Mutex
	desc    *attribute.Descriptor
	regions map[Coord]*Region
	order   []Coord // sorted origins, maintained on insertion
}

// New creates an empty grid with the given descriptor.
func New(desc *attribute.Descriptor) *Grid {
	return &Grid{
		desc:    desc,
		regions: make(map[Coord]*Region),
	}
}

// FromPositions builds a grid from point positions, binning each point into
// the region and cell containing it (unit-sized cells). Within a cell, points
// keep their input order.
func FromPositions(desc *attribute.Descriptor, positions []attribute.Vec3f) (*Grid, error) {
	g := New(desc)

	// Bucket point indices per region origin.
	buckets := make(map[Coord][]int)
	coords := make([]Coord, len(positions))
	for i, p := range positions {
		c := Coord{
			X: int32(math.Floor(float64(p[0]))),
			Y: int32(math.Floor(float64(p[1]))),
			Z: int32(math.Floor(float64(p[2]))),
		}
		coords[i] = c
		origin := c.RegionOrigin()
		buckets[origin] = append(buckets[origin], i)
	}

	for origin, idxs := range buckets {
		r, err := NewRegion(origin, desc)
		if err != nil {
			return nil, err
		}

		// Counting sort by cell index, stable in input order.
		var counts [NumCells]uint32
		for _, i := range idxs {
			counts[coords[i].CellIndex()]++
		}
		offsets := make([]uint32, NumCells)
		var running uint32
		for cell := 0; cell < NumCells; cell++ {
			running += counts[cell]
			offsets[cell] = running
		}

		store, err := attribute.NewStore(desc, len(idxs))
		if err != nil {
			return nil, err
		}
		posCol, _ := store.Column(attribute.PositionField.Name)
		positionsCol := posCol.(attribute.Vec3fColumn)

		var cursors [NumCells]uint32
		for _, i := range idxs {
			cell := coords[i].CellIndex()
			start := uint32(0)
			if cell > 0 {
				start = offsets[cell-1]
			}
			dst := start + cursors[cell]
			cursors[cell]++
			positionsCol[dst] = positions[i]
		}

		if err := r.ReplaceAttributes(store, offsets); err != nil {
			return nil, err
		}
		g.insert(r)
	}

	return g, nil
}

func compareCoord(a, b Coord) int {
	if c := cmp.Compare(a.X, b.X); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Y, b.Y); c != 0 {
		return c
	}
	return cmp.Compare(a.Z, b.Z)
}

func (g *Grid) insert(r *Region) {
	g.regions[r.origin] = r
	i, _ := slices.BinarySearchFunc(g.order, r.origin, compareCoord)
	g.order = slices.Insert(g.order, i, r.origin)
}

// AddRegion creates (or returns) the region at the given origin.
func (g *Grid) AddRegion(origin Coord) (*Region, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	origin = origin.RegionOrigin()
	if r, ok := g.regions[origin]; ok {
		return r, nil
	}
	r, err := NewRegion(origin, g.desc)
	if err != nil {
		return nil, err
	}
	g.insert(r)
	return r, nil
}

// Descriptor returns the structure-wide attribute descriptor.
func (g *Grid) Descriptor() *attribute.Descriptor {
	return g.desc
}

// Regions returns the regions in deterministic origin order.
func (g *Grid) Regions() []*Region {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]*Region, len(g.order))
	for i, origin := range g.order {
		out[i] = g.regions[origin]
	}
	return out
}

// FirstRegion returns the first region in deterministic order, or nil for an
// empty grid. Group existence is structure-wide, so inspecting one region's
// descriptor suffices.
func (g *Grid) FirstRegion() *Region {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.order) == 0 {
		return nil
	}
	return g.regions[g.order[0]]
}

// NumRegions returns the number of regions.
func (g *Grid) NumRegions() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.regions)
}

// PointCount returns the total number of points across all regions.
func (g *Grid) PointCount() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	var n uint64
	for _, r := range g.regions {
		n += uint64(r.PointCount())
	}
	return n
}

// HasGroup reports whether the named group is declared on the structure.
func (g *Grid) HasGroup(name string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.desc.HasGroup(name)
}

// DeclareGroup declares a group structure-wide: on the descriptor and, as an
// empty membership column, on every region's store.
func (g *Grid) DeclareGroup(name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.desc.DeclareGroup(name); err != nil {
		return err
	}
	for _, r := range g.regions {
		r.store.AttachGroup(name)
	}
	return nil
}

// DropGroups removes the named groups structure-wide. Absent names are
// ignored, so removal is idempotent. It must not run concurrently with
// region compaction; callers join all region work first.
func (g *Grid) DropGroups(names ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, name := range names {
		if !g.desc.DropGroup(name) {
			continue
		}
		for _, r := range g.regions {
			r.store.DetachGroup(name)
		}
	}
}

// SetGroupMembership recomputes the named group's membership structure-wide:
// point i of a region belongs to the group iff pred(origin, i) is true.
func (g *Grid) SetGroupMembership(name string, pred func(origin Coord, i uint32) bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.desc.HasGroup(name) {
		return fmt.Errorf("grid: %w: %q", ErrUnknownGroup, name)
	}
	for _, r := range g.regions {
		gc, ok := r.store.Group(name)
		if !ok {
			continue
		}
		for i := uint32(0); i < r.PointCount(); i++ {
			gc.SetMember(i, pred(r.origin, i))
		}
	}
	return nil
}

// GroupMemberCount returns the total membership of the named group across
// all regions.
func (g *Grid) GroupMemberCount(name string) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	var n uint64
	for _, r := range g.regions {
		if gc, ok := r.store.Group(name); ok {
			n += gc.Cardinality()
		}
	}
	return n
}
