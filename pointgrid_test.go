package pointgrid

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/pointgrid/attribute"
	"github.com/hupe1980/pointgrid/blobstore"
	"github.com/hupe1980/pointgrid/resource"
	"github.com/hupe1980/pointgrid/snapshot"
)

func TestNew(t *testing.T) {
	t.Run("nil descriptor gets default layout", func(t *testing.T) {
		p, err := New(nil)
		require.NoError(t, err)

		fields := p.Grid().Descriptor().Fields()
		require.Len(t, fields, 1)
		assert.Equal(t, attribute.PositionField, fields[0])
	})

	t.Run("custom descriptor", func(t *testing.T) {
		desc, err := attribute.NewDescriptor(
			attribute.Field{Name: "id", Kind: attribute.KindInt64},
		)
		require.NoError(t, err)

		p, err := New(desc)
		require.NoError(t, err)
		assert.Equal(t, 2, p.Grid().Descriptor().NumFields())
	})
}

func TestFromPositions(t *testing.T) {
	p, err := FromPositions([]attribute.Vec3f{
		{0.5, 0.5, 0.5},
		{100.5, 0.5, 0.5},
	})
	require.NoError(t, err)

	assert.Equal(t, uint64(2), p.PointCount())
	assert.Equal(t, 2, p.NumRegions())
}

func TestGroupManagement(t *testing.T) {
	p, err := FromPositions([]attribute.Vec3f{{0.5, 0.5, 0.5}})
	require.NoError(t, err)

	require.NoError(t, p.DeclareGroup("selected"))
	assert.True(t, p.HasGroup("selected"))

	assert.Error(t, p.DeclareGroup("selected"), "double declare fails")

	require.NoError(t, p.Grid().Regions()[0].SetGroupMember("selected", 0, true))
	assert.Equal(t, uint64(1), p.GroupMemberCount("selected"))

	p.DropGroups("selected")
	assert.False(t, p.HasGroup("selected"))
	assert.Equal(t, uint64(0), p.GroupMemberCount("selected"))
}

func TestSnapshotRoundtrip(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	p := newDeletionGrid(t,
		WithBlobStore(store),
		WithCompression(snapshot.CompressionZSTD),
	)
	require.NoError(t, p.SaveSnapshot(ctx, "snapshots/000001.pgs"))

	restored, err := New(nil, WithBlobStore(store))
	require.NoError(t, err)
	require.NoError(t, restored.LoadSnapshot(ctx, "snapshots/000001.pgs"))

	assert.Equal(t, p.PointCount(), restored.PointCount())
	assert.Equal(t, p.NumRegions(), restored.NumRegions())
	assert.True(t, restored.HasGroup("a"))
	assert.True(t, restored.HasGroup("b"))
	assert.Equal(t, p.GroupMemberCount("a"), restored.GroupMemberCount("a"))

	t.Run("deletion works on a restored grid", func(t *testing.T) {
		require.NoError(t, restored.DeleteFromGroups(ctx, []string{"a"}, false))
		assert.Equal(t, uint64(3), restored.PointCount())
		assert.False(t, restored.HasGroup("a"))
	})
}

func TestSnapshotWithoutBlobStore(t *testing.T) {
	ctx := context.Background()

	p, err := New(nil)
	require.NoError(t, err)

	assert.ErrorIs(t, p.SaveSnapshot(ctx, "x"), ErrNoBlobStore)
	assert.ErrorIs(t, p.LoadSnapshot(ctx, "x"), ErrNoBlobStore)
}

func TestLoadSnapshotNotFound(t *testing.T) {
	ctx := context.Background()

	p, err := New(nil, WithBlobStore(blobstore.NewMemoryStore()))
	require.NoError(t, err)

	assert.ErrorIs(t, p.LoadSnapshot(ctx, "missing"), ErrSnapshotNotFound)
}

func TestLoadSnapshotKeepsGridOnFailure(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	require.NoError(t, store.Put(ctx, "garbage", []byte("not a snapshot at all")))

	p := newDeletionGrid(t, WithBlobStore(store))
	before := p.PointCount()

	assert.Error(t, p.LoadSnapshot(ctx, "garbage"))
	assert.Equal(t, before, p.PointCount(), "failed load must not clobber the grid")
}

// shortBlobStore hands out writable blobs that run out of space after a
// fixed number of bytes.
type shortBlobStore struct {
	blobstore.BlobStore
	capacity int
}

func (s *shortBlobStore) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	wb, err := s.BlobStore.Create(ctx, name)
	if err != nil {
		return nil, err
	}
	return &shortWritableBlob{WritableBlob: wb, remaining: s.capacity}, nil
}

type shortWritableBlob struct {
	blobstore.WritableBlob
	remaining int
}

func (b *shortWritableBlob) Write(p []byte) (int, error) {
	if len(p) > b.remaining {
		return 0, errors.New("no space left")
	}
	b.remaining -= len(p)
	return b.WritableBlob.Write(p)
}

func TestSaveSnapshotFailureKeepsPriorSnapshot(t *testing.T) {
	ctx := context.Background()
	mem := blobstore.NewMemoryStore()

	good := newDeletionGrid(t, WithBlobStore(mem))
	require.NoError(t, good.SaveSnapshot(ctx, "latest.pgs"))

	// Rewriting the same name fails partway through the stream.
	p := newDeletionGrid(t, WithBlobStore(&shortBlobStore{BlobStore: mem, capacity: 20}))
	require.Error(t, p.SaveSnapshot(ctx, "latest.pgs"))

	// The failed save must not have replaced the stored snapshot.
	restored, err := New(nil, WithBlobStore(mem))
	require.NoError(t, err)
	require.NoError(t, restored.LoadSnapshot(ctx, "latest.pgs"))
	assert.Equal(t, good.PointCount(), restored.PointCount())
	assert.True(t, restored.HasGroup("a"))
}

func TestSnapshotWithResourceController(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	rc := resource.NewController(resource.Config{
		MaxBackgroundWorkers: 1,
		IOLimitBytesPerSec:   1 << 20,
	})

	p := newDeletionGrid(t,
		WithBlobStore(store),
		WithResourceController(rc),
	)

	require.NoError(t, p.SaveSnapshot(ctx, "throttled.pgs"))

	restored, err := New(nil, WithBlobStore(store), WithResourceController(rc))
	require.NoError(t, err)
	require.NoError(t, restored.LoadSnapshot(ctx, "throttled.pgs"))
	assert.Equal(t, p.PointCount(), restored.PointCount())
}

func TestSnapshotRecordsMetrics(t *testing.T) {
	ctx := context.Background()
	metrics := &BasicMetricsCollector{}

	p := newDeletionGrid(t,
		WithBlobStore(blobstore.NewMemoryStore()),
		WithMetricsCollector(metrics),
	)

	require.NoError(t, p.SaveSnapshot(ctx, "s.pgs"))
	require.NoError(t, p.LoadSnapshot(ctx, "s.pgs"))

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.SnapshotSaveCount)
	assert.Positive(t, stats.SnapshotSaveBytes)
	assert.Equal(t, int64(1), stats.SnapshotLoadCount)
}

func TestOptionDefaults(t *testing.T) {
	o := applyOptions(nil)

	assert.NotNil(t, o.logger)
	assert.NotNil(t, o.metrics)
	assert.Positive(t, o.parallelism)
	assert.Equal(t, snapshot.CompressionLZ4, o.compression)
	assert.Nil(t, o.blobStore)
	assert.Nil(t, o.resources)
}

func TestOptionNilHandling(t *testing.T) {
	o := applyOptions([]Option{
		WithLogger(nil),
		WithMetricsCollector(nil),
		WithParallelism(-3),
		nil,
	})

	assert.NotNil(t, o.logger)
	assert.NotNil(t, o.metrics)
	assert.Positive(t, o.parallelism)
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger.LogDelete(context.Background(), []string{"a"}, false, 2, nil)
	assert.Contains(t, buf.String(), "group deletion completed")

	buf.Reset()
	logger.LogSnapshotSave(context.Background(), "s.pgs", 0, assert.AnError)
	assert.Contains(t, buf.String(), "snapshot save failed")

	t.Run("with group names", func(t *testing.T) {
		buf.Reset()
		logger.WithGroupNames([]string{"a", "b"}).Info("hello")
		assert.Contains(t, buf.String(), `"groups"`)
	})
}

func TestBasicMetricsCollectorStats(t *testing.T) {
	m := &BasicMetricsCollector{}

	m.RecordDelete(4, 100, 10, nil)
	m.RecordDelete(4, 0, 30, assert.AnError)
	m.RecordSnapshotSave(2048, 5, nil)
	m.RecordSnapshotLoad(4, 5, nil)

	stats := m.GetStats()
	assert.Equal(t, int64(2), stats.DeleteCount)
	assert.Equal(t, int64(1), stats.DeleteErrors)
	assert.Equal(t, int64(100), stats.DeletedPoints)
	assert.Equal(t, int64(20), stats.DeleteAvgNanos)
	assert.Equal(t, int64(2048), stats.SnapshotSaveBytes)
	assert.Equal(t, int64(1), stats.SnapshotLoadCount)
}
