package pointgrid

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus.
type MetricsCollector interface {
	// RecordDelete is called after each bulk deletion.
	// regions is the number of regions visited, deleted the number of points
	// removed, duration the total time taken; err is nil on success.
	RecordDelete(regions int, deleted uint64, duration time.Duration, err error)

	// RecordSnapshotSave is called after each snapshot save.
	RecordSnapshotSave(bytes int64, duration time.Duration, err error)

	// RecordSnapshotLoad is called after each snapshot load.
	RecordSnapshotLoad(regions int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordDelete(int, uint64, time.Duration, error) {}
func (NoopMetricsCollector) RecordSnapshotSave(int64, time.Duration, error) {}
func (NoopMetricsCollector) RecordSnapshotLoad(int, time.Duration, error)   {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	DeleteCount        atomic.Int64
	DeleteErrors       atomic.Int64
	DeletedPoints      atomic.Int64
	DeleteTotalNanos   atomic.Int64
	SnapshotSaveCount  atomic.Int64
	SnapshotSaveErrors atomic.Int64
	SnapshotSaveBytes  atomic.Int64
	SnapshotLoadCount  atomic.Int64
	SnapshotLoadErrors atomic.Int64
}

// RecordDelete implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDelete(regions int, deleted uint64, duration time.Duration, err error) {
	b.DeleteCount.Add(1)
	b.DeleteTotalNanos.Add(duration.Nanoseconds())
	b.DeletedPoints.Add(int64(deleted)) //nolint:gosec
	if err != nil {
		b.DeleteErrors.Add(1)
	}
}

// RecordSnapshotSave implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSnapshotSave(bytes int64, duration time.Duration, err error) {
	b.SnapshotSaveCount.Add(1)
	b.SnapshotSaveBytes.Add(bytes)
	if err != nil {
		b.SnapshotSaveErrors.Add(1)
	}
}

// RecordSnapshotLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSnapshotLoad(regions int, duration time.Duration, err error) {
	b.SnapshotLoadCount.Add(1)
	if err != nil {
		b.SnapshotLoadErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		DeleteCount:       b.DeleteCount.Load(),
		DeleteErrors:      b.DeleteErrors.Load(),
		DeletedPoints:     b.DeletedPoints.Load(),
		DeleteAvgNanos:    b.getAvgDeleteNanos(),
		SnapshotSaveCount: b.SnapshotSaveCount.Load(),
		SnapshotSaveBytes: b.SnapshotSaveBytes.Load(),
		SnapshotLoadCount: b.SnapshotLoadCount.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgDeleteNanos() int64 {
	count := b.DeleteCount.Load()
	if count == 0 {
		return 0
	}
	return b.DeleteTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	DeleteCount       int64
	DeleteErrors      int64
	DeletedPoints     int64
	DeleteAvgNanos    int64
	SnapshotSaveCount int64
	SnapshotSaveBytes int64
	SnapshotLoadCount int64
}
