package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniformPositions(t *testing.T) {
	rng := NewRNG(4711)

	pts := rng.UniformPositions(100, 32)
	require.Len(t, pts, 100)

	for _, p := range pts {
		for _, v := range p {
			assert.GreaterOrEqual(t, v, float32(0))
			assert.Less(t, v, float32(32))
		}
	}
}

func TestClusteredPositions(t *testing.T) {
	rng := NewRNG(4711)

	pts := rng.ClusteredPositions(90, 3, 64, 2)
	require.Len(t, pts, 90)
}

func TestRNGIsReproducible(t *testing.T) {
	a := NewRNG(42).UniformPositions(10, 8)
	b := NewRNG(42).UniformPositions(10, 8)
	assert.Equal(t, a, b)

	rng := NewRNG(42)
	first := rng.UniformPositions(10, 8)
	rng.Reset()
	assert.Equal(t, first, rng.UniformPositions(10, 8))
	assert.Equal(t, int64(42), rng.Seed())
}
