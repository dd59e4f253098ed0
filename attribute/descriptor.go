package attribute

import (
	"fmt"
	"slices"
)

// Kind defines the value type of an attribute column.
type Kind uint8

const (
	KindVec3f Kind = iota
	KindFloat32
	KindInt32
	KindInt64
	KindUint8
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindVec3f:
		return "Vec3f"
	case KindFloat32:
		return "Float32"
	case KindInt32:
		return "Int32"
	case KindInt64:
		return "Int64"
	case KindUint8:
		return "Uint8"
	default:
		return "Unknown"
	}
}

// Vec3f is a packed three-component position or direction value.
type Vec3f [3]float32

// Field declares one attribute column: a name and a value kind.
type Field struct {
	Name string
	Kind Kind
}

// PositionField is the field every descriptor must carry: the point position
// column.
var PositionField = Field{Name: "position", Kind: KindVec3f}

// Descriptor is the structure-wide attribute layout shared by every region of
// a grid: the ordered set of fields plus the declared membership groups.
//
// The descriptor is logically one object per grid. Mutating it (declaring or
// dropping a group) is a structure-wide operation and must not race with
// in-flight region work; the grid serializes those mutations.
type Descriptor struct {
	fields []Field
	index  map[string]int
	groups []string
}

// NewDescriptor creates a descriptor from the given fields. The position
// field is mandatory and is prepended if absent. Field names must be unique.
func NewDescriptor(fields ...Field) (*Descriptor, error) {
	if !slices.ContainsFunc(fields, func(f Field) bool { return f.Name == PositionField.Name }) {
		fields = append([]Field{PositionField}, fields...)
	}

	d := &Descriptor{
		fields: slices.Clone(fields),
		index:  make(map[string]int, len(fields)),
	}
	for i, f := range d.fields {
		if f.Name == "" {
			return nil, fmt.Errorf("attribute: empty field name at index %d", i)
		}
		if _, ok := d.index[f.Name]; ok {
			return nil, fmt.Errorf("attribute: duplicate field %q", f.Name)
		}
		d.index[f.Name] = i
	}
	return d, nil
}

// Fields returns the ordered field declarations.
func (d *Descriptor) Fields() []Field {
	return slices.Clone(d.fields)
}

// NumFields returns the number of declared fields.
func (d *Descriptor) NumFields() int {
	return len(d.fields)
}

// FieldIndex returns the column index of the named field.
func (d *Descriptor) FieldIndex(name string) (int, bool) {
	i, ok := d.index[name]
	return i, ok
}

// Groups returns the declared group names in declaration order.
func (d *Descriptor) Groups() []string {
	return slices.Clone(d.groups)
}

// HasGroup reports whether the named group is declared.
func (d *Descriptor) HasGroup(name string) bool {
	return slices.Contains(d.groups, name)
}

// DeclareGroup adds a group to the descriptor.
func (d *Descriptor) DeclareGroup(name string) error {
	if name == "" {
		return fmt.Errorf("attribute: empty group name")
	}
	if d.HasGroup(name) {
		return fmt.Errorf("attribute: %w: %q", ErrGroupExists, name)
	}
	d.groups = append(d.groups, name)
	return nil
}

// DropGroup removes a group from the descriptor. Dropping an absent group is
// a no-op; it reports whether the group was present.
func (d *Descriptor) DropGroup(name string) bool {
	i := slices.Index(d.groups, name)
	if i < 0 {
		return false
	}
	d.groups = slices.Delete(d.groups, i, i+1)
	return true
}
