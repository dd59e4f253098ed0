package snapshot

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/pointgrid/attribute"
	"github.com/hupe1980/pointgrid/grid"
)

func buildTestGrid(t *testing.T) *grid.Grid {
	t.Helper()

	desc, err := attribute.NewDescriptor(
		attribute.Field{Name: "intensity", Kind: attribute.KindFloat32},
		attribute.Field{Name: "id", Kind: attribute.KindInt64},
		attribute.Field{Name: "class", Kind: attribute.KindUint8},
	)
	require.NoError(t, err)

	positions := []attribute.Vec3f{
		{0.5, 0.5, 0.5},
		{0.25, 0.5, 0.75},
		{1.5, 2.5, 3.5},
		{7.9, 7.9, 7.9},
		{-3.5, -1.5, -2.5}, // second region
		{100.5, 0.5, 0.5},  // third region
	}

	g, err := grid.FromPositions(desc, positions)
	require.NoError(t, err)

	require.NoError(t, g.DeclareGroup("selected"))
	require.NoError(t, g.DeclareGroup("noise"))

	// Mark a few members across regions.
	for _, r := range g.Regions() {
		if r.PointCount() == 0 {
			continue
		}
		require.NoError(t, r.SetGroupMember("selected", 0, true))
		if r.PointCount() > 2 {
			require.NoError(t, r.SetGroupMember("noise", 2, true))
		}
	}

	// Fill the scalar columns with recognizable values.
	for _, r := range g.Regions() {
		store := r.Attributes()
		intensity, _ := store.Column("intensity")
		ids, _ := store.Column("id")
		class, _ := store.Column("class")
		for i := 0; i < store.Len(); i++ {
			intensity.(attribute.Float32Column)[i] = float32(i) * 0.25
			ids.(attribute.Int64Column)[i] = int64(i) + 1000
			class.(attribute.Uint8Column)[i] = uint8(i % 3)
		}
	}

	return g
}

func assertGridsEqual(t *testing.T, want, got *grid.Grid) {
	t.Helper()

	require.Equal(t, want.NumRegions(), got.NumRegions())
	require.Equal(t, want.PointCount(), got.PointCount())
	assert.Equal(t, want.Descriptor().Fields(), got.Descriptor().Fields())
	assert.Equal(t, want.Descriptor().Groups(), got.Descriptor().Groups())

	wantRegions := want.Regions()
	gotRegions := got.Regions()
	for i := range wantRegions {
		wr, gr := wantRegions[i], gotRegions[i]
		assert.Equal(t, wr.Origin(), gr.Origin())
		assert.Equal(t, wr.Offsets(), gr.Offsets())

		ws, gs := wr.Attributes(), gr.Attributes()
		require.Equal(t, ws.Len(), gs.Len())
		for f := 0; f < want.Descriptor().NumFields(); f++ {
			assert.Equal(t, ws.ColumnAt(f), gs.ColumnAt(f))
		}
		for _, name := range want.Descriptor().Groups() {
			wg, ok := ws.Group(name)
			require.True(t, ok)
			gg, ok := gs.Group(name)
			require.True(t, ok)
			assert.True(t, wg.Bitmap().Equals(gg.Bitmap()), "group %q differs in region %v", name, wr.Origin())
		}
	}
}

func TestRoundtrip(t *testing.T) {
	for _, compression := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		t.Run(compression.String(), func(t *testing.T) {
			g := buildTestGrid(t)

			var buf bytes.Buffer
			n, err := Write(&buf, g, WriteOptions{Compression: compression})
			require.NoError(t, err)
			assert.Equal(t, int64(buf.Len()), n)

			got, err := Read(&buf)
			require.NoError(t, err)

			assertGridsEqual(t, g, got)
		})
	}
}

func TestRoundtripEmptyGrid(t *testing.T) {
	desc, err := attribute.NewDescriptor()
	require.NoError(t, err)

	g := grid.New(desc)

	var buf bytes.Buffer
	_, err = Write(&buf, g, WriteOptions{Compression: CompressionLZ4})
	require.NoError(t, err)

	got, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, 0, got.NumRegions())
	assert.Equal(t, uint64(0), got.PointCount())
}

func TestReadRejectsCorruption(t *testing.T) {
	g := buildTestGrid(t)

	var buf bytes.Buffer
	_, err := Write(&buf, g, WriteOptions{Compression: CompressionLZ4})
	require.NoError(t, err)

	t.Run("flipped payload byte", func(t *testing.T) {
		data := bytes.Clone(buf.Bytes())
		data[len(data)/2] ^= 0xFF

		_, err := Read(bytes.NewReader(data))
		assert.Error(t, err)
	})

	t.Run("flipped trailer byte", func(t *testing.T) {
		data := bytes.Clone(buf.Bytes())
		data[len(data)-1] ^= 0xFF

		_, err := Read(bytes.NewReader(data))
		assert.ErrorIs(t, err, ErrChecksumMismatch)
	})

	t.Run("truncated stream", func(t *testing.T) {
		data := buf.Bytes()[:buf.Len()/2]

		_, err := Read(bytes.NewReader(data))
		assert.Error(t, err)
	})
}

func TestReadRejectsBadHeader(t *testing.T) {
	t.Run("invalid magic", func(t *testing.T) {
		data := make([]byte, 64)
		_, err := Read(bytes.NewReader(data))
		assert.ErrorIs(t, err, ErrInvalidMagic)
	})

	t.Run("future version", func(t *testing.T) {
		g := buildTestGrid(t)

		var buf bytes.Buffer
		_, err := Write(&buf, g, WriteOptions{})
		require.NoError(t, err)

		data := bytes.Clone(buf.Bytes())
		data[7] = 0x99 // version high byte

		_, err = Read(bytes.NewReader(data))
		assert.ErrorIs(t, err, ErrInvalidVersion)
	})
}

func TestCompressBlockRoundtrip(t *testing.T) {
	compressible := bytes.Repeat([]byte("pointgrid"), 1000)

	for _, compression := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		t.Run(compression.String(), func(t *testing.T) {
			block, err := compressBlock(compressible, compression)
			require.NoError(t, err)

			if compression != CompressionNone {
				assert.Less(t, len(block), len(compressible), "repetitive data should shrink")
			}

			got, err := decompressBlock(block, compression)
			require.NoError(t, err)
			assert.Equal(t, compressible, got)
		})
	}
}

func TestCompressBlockIncompressible(t *testing.T) {
	// Pseudo-random bytes defeat LZ4, forcing the uncompressed fallback.
	data := make([]byte, 4096)
	state := uint32(0x9E3779B9)
	for i := range data {
		state = state*1664525 + 1013904223
		data[i] = byte(state >> 24)
	}

	block, err := compressBlock(data, CompressionLZ4)
	require.NoError(t, err)

	got, err := decompressBlock(block, CompressionLZ4)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestWriteIsDeterministic(t *testing.T) {
	g := buildTestGrid(t)

	var a, b bytes.Buffer
	_, err := Write(&a, g, WriteOptions{Compression: CompressionZSTD})
	require.NoError(t, err)
	_, err = Write(&b, g, WriteOptions{Compression: CompressionZSTD})
	require.NoError(t, err)

	assert.Equal(t, a.Bytes(), b.Bytes())
}

func BenchmarkWrite(b *testing.B) {
	desc, err := attribute.NewDescriptor(
		attribute.Field{Name: "intensity", Kind: attribute.KindFloat32},
	)
	if err != nil {
		b.Fatal(err)
	}

	positions := make([]attribute.Vec3f, 10000)
	for i := range positions {
		positions[i] = attribute.Vec3f{float32(i % 64), float32((i / 64) % 64), float32(i / 4096)}
	}
	g, err := grid.FromPositions(desc, positions)
	if err != nil {
		b.Fatal(err)
	}

	for _, compression := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		b.Run(compression.String(), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				var buf bytes.Buffer
				if _, err := Write(&buf, g, WriteOptions{Compression: compression}); err != nil {
					b.Fatal(err)
				}
				b.SetBytes(int64(buf.Len()))
			}
		})
	}
}

func ExampleWrite() {
	desc, _ := attribute.NewDescriptor()
	g, _ := grid.FromPositions(desc, []attribute.Vec3f{{0.5, 0.5, 0.5}})

	var buf bytes.Buffer
	if _, err := Write(&buf, g, WriteOptions{Compression: CompressionLZ4}); err != nil {
		panic(err)
	}

	got, _ := Read(&buf)
	fmt.Println(got.PointCount())
	// Output: 1
}
