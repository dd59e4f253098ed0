package attribute

import "iter"

// MultiGroupFilter is a membership predicate over region-local point indices,
// combining an include set and an exclude set of group columns.
//
// A point matches iff it belongs to at least one include group (an empty
// include set means all points) and belongs to none of the exclude groups.
// The filter is stateless and safe to share across readers.
type MultiGroupFilter struct {
	include []*GroupColumn
	exclude []*GroupColumn
	none    bool
}

// NewMultiGroupFilter builds a filter from resolved group columns.
func NewMultiGroupFilter(include, exclude []*GroupColumn) *MultiGroupFilter {
	return &MultiGroupFilter{include: include, exclude: exclude}
}

func matchNone() *MultiGroupFilter {
	return &MultiGroupFilter{none: true}
}

// FilterDeleting builds the filter matching the points a deletion with the
// given group names and invert flag would remove: members of any named group,
// or, inverted, points belonging to none of them.
//
// Names without a group column in the store are ignored. If no name resolves,
// a plain deletion removes nothing and an inverted one removes everything.
func FilterDeleting(s *Store, names []string, invert bool) *MultiGroupFilter {
	cols := resolveGroups(s, names)
	if invert {
		return NewMultiGroupFilter(nil, cols)
	}
	if len(cols) == 0 {
		return matchNone()
	}
	return NewMultiGroupFilter(cols, nil)
}

// FilterSurviving builds the exact complement of FilterDeleting for the same
// arguments: the filter matching the points a deletion would keep. The
// compactor consumes this form.
func FilterSurviving(s *Store, names []string, invert bool) *MultiGroupFilter {
	cols := resolveGroups(s, names)
	if invert {
		if len(cols) == 0 {
			return matchNone()
		}
		return NewMultiGroupFilter(cols, nil)
	}
	return NewMultiGroupFilter(nil, cols)
}

func resolveGroups(s *Store, names []string) []*GroupColumn {
	cols := make([]*GroupColumn, 0, len(names))
	for _, name := range names {
		if g, ok := s.Group(name); ok {
			cols = append(cols, g)
		}
	}
	return cols
}

// Match reports whether point index i satisfies the filter.
func (f *MultiGroupFilter) Match(i uint32) bool {
	if f.none {
		return false
	}
	for _, g := range f.exclude {
		if g.Member(i) {
			return false
		}
	}
	if len(f.include) == 0 {
		return true
	}
	for _, g := range f.include {
		if g.Member(i) {
			return true
		}
	}
	return false
}

// Indices enumerates the matching point indices in [start, end) in ascending
// order. The ascending order is a structural contract: it defines the
// compacted layout.
func (f *MultiGroupFilter) Indices(start, end uint32) iter.Seq[uint32] {
	return func(yield func(uint32) bool) {
		for i := start; i < end; i++ {
			if !f.Match(i) {
				continue
			}
			if !yield(i) {
				return
			}
		}
	}
}

// Count returns the number of matching indices in [start, end).
func (f *MultiGroupFilter) Count(start, end uint32) int {
	n := 0
	for i := start; i < end; i++ {
		if f.Match(i) {
			n++
		}
	}
	return n
}
