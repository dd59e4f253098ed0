package attribute

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDescriptor(t *testing.T) {
	t.Run("prepends position field", func(t *testing.T) {
		desc, err := NewDescriptor(Field{Name: "intensity", Kind: KindFloat32})
		require.NoError(t, err)

		fields := desc.Fields()
		require.Len(t, fields, 2)
		assert.Equal(t, PositionField, fields[0])
		assert.Equal(t, "intensity", fields[1].Name)
	})

	t.Run("keeps explicit position in place", func(t *testing.T) {
		desc, err := NewDescriptor(
			Field{Name: "intensity", Kind: KindFloat32},
			PositionField,
		)
		require.NoError(t, err)

		fields := desc.Fields()
		require.Len(t, fields, 2)
		assert.Equal(t, "intensity", fields[0].Name)
		assert.Equal(t, PositionField, fields[1])
	})

	t.Run("rejects duplicate field names", func(t *testing.T) {
		_, err := NewDescriptor(
			Field{Name: "id", Kind: KindInt64},
			Field{Name: "id", Kind: KindInt32},
		)
		assert.Error(t, err)
	})

	t.Run("rejects empty field names", func(t *testing.T) {
		_, err := NewDescriptor(Field{Name: "", Kind: KindInt64})
		assert.Error(t, err)
	})
}

func TestDescriptorFieldIndex(t *testing.T) {
	desc, err := NewDescriptor(Field{Name: "intensity", Kind: KindFloat32})
	require.NoError(t, err)

	i, ok := desc.FieldIndex("position")
	require.True(t, ok)
	assert.Equal(t, 0, i)

	i, ok = desc.FieldIndex("intensity")
	require.True(t, ok)
	assert.Equal(t, 1, i)

	_, ok = desc.FieldIndex("missing")
	assert.False(t, ok)
}

func TestDescriptorGroups(t *testing.T) {
	desc, err := NewDescriptor()
	require.NoError(t, err)

	require.NoError(t, desc.DeclareGroup("a"))
	require.NoError(t, desc.DeclareGroup("b"))

	assert.Equal(t, []string{"a", "b"}, desc.Groups())
	assert.True(t, desc.HasGroup("a"))
	assert.False(t, desc.HasGroup("c"))

	t.Run("declare twice fails", func(t *testing.T) {
		err := desc.DeclareGroup("a")
		assert.ErrorIs(t, err, ErrGroupExists)
	})

	t.Run("declare empty name fails", func(t *testing.T) {
		assert.Error(t, desc.DeclareGroup(""))
	})

	t.Run("drop is idempotent", func(t *testing.T) {
		assert.True(t, desc.DropGroup("a"))
		assert.False(t, desc.DropGroup("a"))
		assert.Equal(t, []string{"b"}, desc.Groups())
	})
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "Vec3f", KindVec3f.String())
	assert.Equal(t, "Float32", KindFloat32.String())
	assert.Equal(t, "Int32", KindInt32.String())
	assert.Equal(t, "Int64", KindInt64.String())
	assert.Equal(t, "Uint8", KindUint8.String())
	assert.Equal(t, "Unknown", Kind(42).String())
}
