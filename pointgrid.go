package pointgrid

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/hupe1980/pointgrid/attribute"
	"github.com/hupe1980/pointgrid/blobstore"
	"github.com/hupe1980/pointgrid/grid"
	"github.com/hupe1980/pointgrid/resource"
	"github.com/hupe1980/pointgrid/snapshot"
)

// PointGrid is the facade over a sparse point grid: construction, group
// management, bulk deletion and snapshot persistence.
//
// Concurrent reads are safe. Bulk deletion parallelizes internally across
// regions; distinct bulk operations must be externally serialized.
type PointGrid struct {
	grid *grid.Grid
	opts options
}

// New creates an empty point grid. A nil descriptor gets the default layout
// (position only).
func New(desc *attribute.Descriptor, optFns ...Option) (*PointGrid, error) {
	if desc == nil {
		var err error
		desc, err = attribute.NewDescriptor()
		if err != nil {
			return nil, err
		}
	}
	return &PointGrid{
		grid: grid.New(desc),
		opts: applyOptions(optFns),
	}, nil
}

// FromPositions builds a point grid from point positions with the default
// descriptor, binning points into regions by coordinate.
func FromPositions(positions []attribute.Vec3f, optFns ...Option) (*PointGrid, error) {
	desc, err := attribute.NewDescriptor()
	if err != nil {
		return nil, err
	}
	return FromPositionsWithDescriptor(desc, positions, optFns...)
}

// FromPositionsWithDescriptor builds a point grid from point positions using
// the given attribute layout.
func FromPositionsWithDescriptor(desc *attribute.Descriptor, positions []attribute.Vec3f, optFns ...Option) (*PointGrid, error) {
	g, err := grid.FromPositions(desc, positions)
	if err != nil {
		return nil, err
	}
	return &PointGrid{
		grid: g,
		opts: applyOptions(optFns),
	}, nil
}

// Grid exposes the underlying container for direct region access.
func (p *PointGrid) Grid() *grid.Grid {
	return p.grid
}

// PointCount returns the total number of points across all regions.
func (p *PointGrid) PointCount() uint64 {
	return p.grid.PointCount()
}

// NumRegions returns the number of regions.
func (p *PointGrid) NumRegions() int {
	return p.grid.NumRegions()
}

// HasGroup reports whether the named group is declared.
func (p *PointGrid) HasGroup(name string) bool {
	return p.grid.HasGroup(name)
}

// DeclareGroup declares a membership group structure-wide.
func (p *PointGrid) DeclareGroup(name string) error {
	return p.grid.DeclareGroup(name)
}

// DropGroups removes membership groups structure-wide. Absent names are
// ignored.
func (p *PointGrid) DropGroups(names ...string) {
	p.grid.DropGroups(names...)
}

// SetGroupMembership recomputes the named group's membership structure-wide
// from a per-point predicate.
func (p *PointGrid) SetGroupMembership(name string, pred func(origin grid.Coord, i uint32) bool) error {
	return p.grid.SetGroupMembership(name, pred)
}

// GroupMemberCount returns the total membership of the named group.
func (p *PointGrid) GroupMemberCount(name string) uint64 {
	return p.grid.GroupMemberCount(name)
}

// SaveSnapshot serializes the grid and stores it in the configured blob
// store under the given name.
func (p *PointGrid) SaveSnapshot(ctx context.Context, name string) error {
	start := time.Now()

	written, err := p.saveSnapshot(ctx, name)

	p.opts.metrics.RecordSnapshotSave(written, time.Since(start), err)
	p.opts.logger.LogSnapshotSave(ctx, name, written, err)
	return err
}

func (p *PointGrid) saveSnapshot(ctx context.Context, name string) (int64, error) {
	bs := p.opts.blobStore
	if bs == nil {
		return 0, ErrNoBlobStore
	}

	if rc := p.opts.resources; rc != nil {
		if err := rc.AcquireBackground(ctx); err != nil {
			return 0, err
		}
		defer rc.ReleaseBackground()
	}

	wb, err := bs.Create(ctx, name)
	if err != nil {
		return 0, err
	}

	var w io.Writer = wb
	if p.opts.resources != nil {
		w = resource.NewRateLimitedWriter(ctx, wb, p.opts.resources)
	}

	written, err := snapshot.Write(w, p.grid, snapshot.WriteOptions{
		Compression: p.opts.compression,
	})
	if err != nil {
		// A partial blob must never replace a previously saved snapshot.
		_ = wb.Abort()
		return written, err
	}
	return written, wb.Close()
}

// LoadSnapshot reads a snapshot from the configured blob store and replaces
// the grid contents with it.
func (p *PointGrid) LoadSnapshot(ctx context.Context, name string) error {
	start := time.Now()

	g, err := p.loadSnapshot(ctx, name)
	if err == nil {
		p.grid = g
	}

	regions := 0
	if g != nil {
		regions = g.NumRegions()
	}
	p.opts.metrics.RecordSnapshotLoad(regions, time.Since(start), err)
	p.opts.logger.LogSnapshotLoad(ctx, name, regions, err)
	return err
}

func (p *PointGrid) loadSnapshot(ctx context.Context, name string) (*grid.Grid, error) {
	bs := p.opts.blobStore
	if bs == nil {
		return nil, ErrNoBlobStore
	}

	blob, err := bs.Open(ctx, name)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, ErrSnapshotNotFound
		}
		return nil, err
	}
	defer func() { _ = blob.Close() }()

	rd, err := blob.ReadRange(ctx, 0, blob.Size())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rd.Close() }()

	var r io.Reader = rd
	if p.opts.resources != nil {
		r = resource.NewRateLimitedReader(ctx, rd, p.opts.resources)
	}

	return snapshot.Read(r)
}
