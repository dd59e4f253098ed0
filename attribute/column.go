package attribute

import (
	"errors"
	"fmt"
)

// ErrKindMismatch is returned when a value is copied between columns of
// different kinds.
var ErrKindMismatch = errors.New("column kind mismatch")

// Column is one typed, densely-packed array of per-point values.
//
// Copy transfers a single value from a source column into this column using
// the column's own value semantics; callers stay type-agnostic. Both columns
// must have the same kind.
type Column interface {
	Kind() Kind
	Len() int
	Copy(dst int, src Column, srcIdx int) error
}

func newColumn(kind Kind, n int) (Column, error) {
	switch kind {
	case KindVec3f:
		return make(Vec3fColumn, n), nil
	case KindFloat32:
		return make(Float32Column, n), nil
	case KindInt32:
		return make(Int32Column, n), nil
	case KindInt64:
		return make(Int64Column, n), nil
	case KindUint8:
		return make(Uint8Column, n), nil
	default:
		return nil, fmt.Errorf("attribute: unknown column kind %d", kind)
	}
}

// Vec3fColumn stores Vec3f values.
type Vec3fColumn []Vec3f

func (c Vec3fColumn) Kind() Kind { return KindVec3f }
func (c Vec3fColumn) Len() int   { return len(c) }

func (c Vec3fColumn) Copy(dst int, src Column, srcIdx int) error {
	s, ok := src.(Vec3fColumn)
	if !ok {
		return ErrKindMismatch
	}
	c[dst] = s[srcIdx]
	return nil
}

// Float32Column stores float32 values.
type Float32Column []float32

func (c Float32Column) Kind() Kind { return KindFloat32 }
func (c Float32Column) Len() int   { return len(c) }

func (c Float32Column) Copy(dst int, src Column, srcIdx int) error {
	s, ok := src.(Float32Column)
	if !ok {
		return ErrKindMismatch
	}
	c[dst] = s[srcIdx]
	return nil
}

// Int32Column stores int32 values.
type Int32Column []int32

func (c Int32Column) Kind() Kind { return KindInt32 }
func (c Int32Column) Len() int   { return len(c) }

func (c Int32Column) Copy(dst int, src Column, srcIdx int) error {
	s, ok := src.(Int32Column)
	if !ok {
		return ErrKindMismatch
	}
	c[dst] = s[srcIdx]
	return nil
}

// Int64Column stores int64 values.
type Int64Column []int64

func (c Int64Column) Kind() Kind { return KindInt64 }
func (c Int64Column) Len() int   { return len(c) }

func (c Int64Column) Copy(dst int, src Column, srcIdx int) error {
	s, ok := src.(Int64Column)
	if !ok {
		return ErrKindMismatch
	}
	c[dst] = s[srcIdx]
	return nil
}

// Uint8Column stores uint8 values.
type Uint8Column []uint8

func (c Uint8Column) Kind() Kind { return KindUint8 }
func (c Uint8Column) Len() int   { return len(c) }

func (c Uint8Column) Copy(dst int, src Column, srcIdx int) error {
	s, ok := src.(Uint8Column)
	if !ok {
		return ErrKindMismatch
	}
	c[dst] = s[srcIdx]
	return nil
}
