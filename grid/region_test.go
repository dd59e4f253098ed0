package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/pointgrid/attribute"
)

func TestNewRegion(t *testing.T) {
	r, err := NewRegion(Coord{8, 0, -8}, testDescriptor(t))
	require.NoError(t, err)

	assert.Equal(t, Coord{8, 0, -8}, r.Origin())
	assert.Equal(t, uint32(0), r.PointCount())
	assert.Equal(t, 0, r.Attributes().Len())
	assert.Len(t, r.Offsets(), NumCells)
}

func TestReplaceAttributes(t *testing.T) {
	desc := testDescriptor(t)
	r, err := NewRegion(Coord{}, desc)
	require.NoError(t, err)

	t.Run("valid swap", func(t *testing.T) {
		store, err := attribute.NewStore(desc, 2)
		require.NoError(t, err)

		offsets := make([]uint32, NumCells)
		for i := range offsets {
			offsets[i] = 2
		}

		require.NoError(t, r.ReplaceAttributes(store, offsets))
		assert.Equal(t, uint32(2), r.PointCount())
		assert.Same(t, store, r.Attributes())
	})

	t.Run("rejects wrong table length", func(t *testing.T) {
		store, err := attribute.NewStore(desc, 0)
		require.NoError(t, err)

		assert.Error(t, r.ReplaceAttributes(store, make([]uint32, NumCells-1)))
	})

	t.Run("rejects count mismatch", func(t *testing.T) {
		store, err := attribute.NewStore(desc, 3)
		require.NoError(t, err)

		offsets := make([]uint32, NumCells)
		offsets[NumCells-1] = 5
		assert.Error(t, r.ReplaceAttributes(store, offsets))
	})
}

func TestRegionClear(t *testing.T) {
	desc := testDescriptor(t)
	require.NoError(t, desc.DeclareGroup("g"))

	g, err := FromPositions(desc, []attribute.Vec3f{{0.5, 0.5, 0.5}, {1.5, 0.5, 0.5}})
	require.NoError(t, err)

	r := g.Regions()[0]
	require.Equal(t, uint32(2), r.PointCount())

	require.NoError(t, r.Clear())

	assert.Equal(t, uint32(0), r.PointCount())
	assert.Equal(t, 0, r.Attributes().Len())

	// The descriptor's groups survive a clear.
	_, ok := r.Attributes().Group("g")
	assert.True(t, ok)
}

func TestSetGroupMember(t *testing.T) {
	desc := testDescriptor(t)
	require.NoError(t, desc.DeclareGroup("g"))

	g, err := FromPositions(desc, []attribute.Vec3f{{0.5, 0.5, 0.5}})
	require.NoError(t, err)
	r := g.Regions()[0]

	require.NoError(t, r.SetGroupMember("g", 0, true))

	gc, _ := r.Attributes().Group("g")
	assert.True(t, gc.Member(0))

	assert.ErrorIs(t, r.SetGroupMember("missing", 0, true), ErrUnknownGroup)
}
