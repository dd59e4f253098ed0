package pointgrid

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/pointgrid/attribute"
	"github.com/hupe1980/pointgrid/grid"
)

// DeleteFromGroups deletes every point that is a member of any of the named
// groups and drops those groups from the structure. With invert set, points
// belonging to none of the groups are deleted instead, and the groups are
// kept (possibly now covering every remaining point).
//
// Names that are not declared on the structure are silently ignored; if none
// of the names exist the grid is left untouched. Regions are compacted in
// parallel; a failure in any region aborts the whole operation before any
// group metadata is removed.
func (p *PointGrid) DeleteFromGroups(ctx context.Context, groups []string, invert bool) error {
	start := time.Now()

	regions, deleted, err := p.deleteFromGroups(ctx, groups, invert)

	p.opts.metrics.RecordDelete(regions, deleted, time.Since(start), err)
	p.opts.logger.LogDelete(ctx, groups, invert, regions, err)
	return err
}

// DeleteFromGroup is the single-group convenience form of DeleteFromGroups.
func (p *PointGrid) DeleteFromGroup(ctx context.Context, group string, invert bool) error {
	return p.DeleteFromGroups(ctx, []string{group}, invert)
}

func (p *PointGrid) deleteFromGroups(ctx context.Context, groups []string, invert bool) (int, uint64, error) {
	first := p.grid.FirstRegion()
	if first == nil {
		return 0, 0, nil
	}

	// Group existence is structure-wide, so the first region's descriptor
	// is authoritative. Duplicate request names are collapsed here.
	desc := first.Attributes().Descriptor()
	available := make([]string, 0, len(groups))
	seen := make(map[string]struct{}, len(groups))
	for _, name := range groups {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		if desc.HasGroup(name) {
			available = append(available, name)
		}
	}
	if len(available) == 0 {
		return 0, 0, nil
	}

	regions := p.grid.Regions()
	var deleted atomic.Uint64

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(p.opts.parallelism)
	for _, r := range regions {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			n, err := compactRegion(r, available, invert)
			if err != nil {
				return &ErrRegionCompaction{
					Origin: fmt.Sprintf("%+v", r.Origin()),
					cause:  err,
				}
			}
			deleted.Add(uint64(n))
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return len(regions), deleted.Load(), err
	}

	// Drop the now-empty groups, unless invert left them populated. This is
	// the structure-wide metadata step: it runs strictly after the join.
	if !invert {
		p.grid.DropGroups(available...)
	}

	return len(regions), deleted.Load(), nil
}

// compactRegion removes non-surviving points from one region: it counts
// survivors, builds a right-sized replacement store, copies surviving values
// column by column in cell order, rebuilds the offset table and installs
// both in a single final swap. It returns the number of points removed.
func compactRegion(r *grid.Region, groups []string, invert bool) (uint32, error) {
	store := r.Attributes()

	total := r.PointCount()
	if total == 0 {
		return 0, nil
	}

	filter := attribute.FilterSurviving(store, groups, invert)

	survivors := filter.Count(0, total)
	if survivors == int(total) {
		// Nothing to delete; skip the rebuild.
		return 0, nil
	}
	if survivors == 0 {
		return total, r.Clear()
	}

	newStore, err := attribute.NewStoreLike(store, survivors)
	if err != nil {
		return 0, err
	}

	// Single destination cursor shared across all cells; per-cell survivor
	// enumeration is ascending, which fixes the compacted layout.
	offsets := make([]uint32, grid.NumCells)
	var cursor uint32
	for cell := 0; cell < grid.NumCells; cell++ {
		cellStart, cellEnd := r.CellRange(cell)
		for i := range filter.Indices(cellStart, cellEnd) {
			if err := newStore.CopyPoint(int(cursor), store, int(i)); err != nil {
				return 0, err
			}
			cursor++
		}
		offsets[cell] = cursor
	}

	if err := r.ReplaceAttributes(newStore, offsets); err != nil {
		return 0, err
	}
	return total - cursor, nil
}
