package attribute

import (
	"fmt"
)

// Store holds all attribute columns of one region: one typed column per
// descriptor field plus one group column per declared group.
//
// All columns share the same length and region-local index space. A store is
// private to its region during compaction and is replaced wholesale; partial
// mutation is never observed from outside the region.
type Store struct {
	desc   *Descriptor
	cols   []Column
	groups map[string]*GroupColumn
	n      int
}

// NewStore allocates a store for n points with the descriptor's column
// layout, including an empty group column for every declared group.
func NewStore(desc *Descriptor, n int) (*Store, error) {
	if n < 0 {
		return nil, fmt.Errorf("attribute: negative store size %d", n)
	}

	s := &Store{
		desc:   desc,
		cols:   make([]Column, len(desc.fields)),
		groups: make(map[string]*GroupColumn, len(desc.groups)),
		n:      n,
	}
	for i, f := range desc.fields {
		col, err := newColumn(f.Kind, n)
		if err != nil {
			return nil, err
		}
		s.cols[i] = col
	}
	for _, g := range desc.groups {
		s.groups[g] = NewGroupColumn(n)
	}
	return s, nil
}

// NewStoreLike allocates a store for n points cloning the column layout of
// src: same descriptor, same fields, same declared groups, empty values.
func NewStoreLike(src *Store, n int) (*Store, error) {
	return NewStore(src.desc, n)
}

// Len returns the point count covered by every column of the store.
func (s *Store) Len() int {
	return s.n
}

// Descriptor returns the shared descriptor.
func (s *Store) Descriptor() *Descriptor {
	return s.desc
}

// ColumnAt returns the field column at descriptor index i.
func (s *Store) ColumnAt(i int) Column {
	return s.cols[i]
}

// Column returns the named field column.
func (s *Store) Column(name string) (Column, bool) {
	i, ok := s.desc.FieldIndex(name)
	if !ok {
		return nil, false
	}
	return s.cols[i], true
}

// Group returns the named group column.
func (s *Store) Group(name string) (*GroupColumn, bool) {
	g, ok := s.groups[name]
	return g, ok
}

// CopyPoint copies the values of every field column and every group column
// for a single point from src at srcIdx into this store at dst.
func (s *Store) CopyPoint(dst int, src *Store, srcIdx int) error {
	for i, col := range s.cols {
		if err := col.Copy(dst, src.cols[i], srcIdx); err != nil {
			return fmt.Errorf("attribute: field %q: %w", s.desc.fields[i].Name, err)
		}
	}
	for name, g := range s.groups {
		sg, ok := src.groups[name]
		if !ok {
			continue
		}
		if err := g.Copy(dst, sg, srcIdx); err != nil {
			return fmt.Errorf("attribute: group %q: %w", name, err)
		}
	}
	return nil
}

// AttachGroup adds an empty group column for a newly declared group.
// Attaching an already-present group is a no-op.
func (s *Store) AttachGroup(name string) {
	if _, ok := s.groups[name]; ok {
		return
	}
	s.groups[name] = NewGroupColumn(s.n)
}

// DetachGroup removes the named group column from the store. Detaching an
// absent group is a no-op.
func (s *Store) DetachGroup(name string) {
	delete(s.groups, name)
}
