package pointgrid

import (
	"log/slog"
	"runtime"

	"github.com/hupe1980/pointgrid/blobstore"
	"github.com/hupe1980/pointgrid/resource"
	"github.com/hupe1980/pointgrid/snapshot"
)

type options struct {
	logger      *Logger
	metrics     MetricsCollector
	parallelism int
	compression snapshot.Compression
	blobStore   blobstore.BlobStore
	resources   *resource.Controller
}

// Option configures PointGrid behavior.
type Option func(*options)

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metrics = mc
	}
}

// WithParallelism limits the number of regions compacted concurrently during
// bulk deletion. Values <= 0 use GOMAXPROCS.
func WithParallelism(n int) Option {
	return func(o *options) {
		o.parallelism = n
	}
}

// WithCompression selects the block compression used for snapshots.
func WithCompression(c snapshot.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithBlobStore configures the blob store used by SaveSnapshot and
// LoadSnapshot.
func WithBlobStore(bs blobstore.BlobStore) Option {
	return func(o *options) {
		o.blobStore = bs
	}
}

// WithResourceController configures IO and background-work budgeting for
// snapshot operations. Pass nil to run unthrottled.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.resources = rc
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger:      NoopLogger(),
		metrics:     NoopMetricsCollector{},
		parallelism: runtime.GOMAXPROCS(0),
		compression: snapshot.CompressionLZ4,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.parallelism <= 0 {
		o.parallelism = runtime.GOMAXPROCS(0)
	}
	return o
}
