package attribute

import (
	"errors"
	"iter"

	"github.com/RoaringBitmap/roaring/v2"
)

// ErrGroupExists is returned when declaring a group that is already declared.
var ErrGroupExists = errors.New("group already declared")

// KindGroup is the kind reported by group membership columns. Groups are not
// part of the field set; they live in their own namespace on the descriptor.
const KindGroup Kind = 0xFF

// GroupColumn is a boolean-valued membership column backed by a roaring
// bitmap. The bitmap stores the region-local indices of member points.
type GroupColumn struct {
	bits *roaring.Bitmap
	n    int
}

// NewGroupColumn creates an empty group column covering n points.
func NewGroupColumn(n int) *GroupColumn {
	return &GroupColumn{
		bits: roaring.New(),
		n:    n,
	}
}

// Kind implements Column.
func (c *GroupColumn) Kind() Kind { return KindGroup }

// Len implements Column.
func (c *GroupColumn) Len() int { return c.n }

// Member reports whether point i belongs to the group.
func (c *GroupColumn) Member(i uint32) bool {
	return c.bits.Contains(i)
}

// SetMember adds or removes point i from the group.
func (c *GroupColumn) SetMember(i uint32, on bool) {
	if on {
		c.bits.Add(i)
	} else {
		c.bits.Remove(i)
	}
}

// Cardinality returns the number of member points.
func (c *GroupColumn) Cardinality() uint64 {
	return c.bits.GetCardinality()
}

// Members returns an iterator over member indices in ascending order.
func (c *GroupColumn) Members() iter.Seq[uint32] {
	return func(yield func(uint32) bool) {
		it := c.bits.Iterator()
		for it.HasNext() {
			if !yield(it.Next()) {
				return
			}
		}
	}
}

// Copy implements Column: membership of src at srcIdx is transferred to dst.
func (c *GroupColumn) Copy(dst int, src Column, srcIdx int) error {
	s, ok := src.(*GroupColumn)
	if !ok {
		return ErrKindMismatch
	}
	c.SetMember(uint32(dst), s.Member(uint32(srcIdx))) //nolint:gosec // region-local indices fit uint32
	return nil
}

// Bitmap exposes the underlying bitmap for serialization.
func (c *GroupColumn) Bitmap() *roaring.Bitmap {
	return c.bits
}
