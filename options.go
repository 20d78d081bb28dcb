package lexgo

import (
	"log/slog"

	"github.com/hupe1980/lexgo/codec"
	"github.com/hupe1980/lexgo/internal/segment"
)

// Compression selects the block codec of the document store.
type Compression = segment.Compression

const (
	// CompressionNone stores document blocks uncompressed.
	CompressionNone = segment.CompressionNone
	// CompressionLZ4 compresses document blocks with LZ4.
	CompressionLZ4 = segment.CompressionLZ4
	// CompressionZSTD compresses document blocks with ZSTD.
	CompressionZSTD = segment.CompressionZSTD
)

const (
	// DefaultOpenConcurrency is the number of segments a searcher opens in parallel.
	DefaultOpenConcurrency = 4
	// DefaultDocStoreCacheSize is the byte capacity of the shared cache of
	// decompressed document store blocks.
	DefaultDocStoreCacheSize = 16 << 20
)

type options struct {
	codec           codec.Codec
	compression     Compression
	storeBlockSize  int
	openConcurrency int

	docStoreCacheSize int64
	memoryLimit       int64
	readRateLimit     int64

	metricsCollector MetricsCollector
	logger           *Logger
}

func defaultOptions() options {
	return options{
		codec:             codec.Default,
		compression:       CompressionLZ4,
		storeBlockSize:    segment.DefaultStoreBlockSize,
		openConcurrency:   DefaultOpenConcurrency,
		docStoreCacheSize: DefaultDocStoreCacheSize,
		metricsCollector:  NoopMetricsCollector{},
		logger:            NoopLogger(),
	}
}

// Option configures Open.
type Option func(*options)

// WithCodec configures the codec used for the index meta.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithCompression selects the document store codec for new segments.
// Existing segments keep the codec they were written with.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithStoreBlockSize sets the uncompressed size at which document store
// blocks are cut. Values <= 0 keep the default.
func WithStoreBlockSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.storeBlockSize = n
		}
	}
}

// WithOpenConcurrency bounds how many segments a searcher opens at once.
// Values <= 0 keep the default.
func WithOpenConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.openConcurrency = n
		}
	}
}

// WithDocStoreCacheSize sets the byte capacity of the cache of decompressed
// document store blocks shared by all searchers. Values <= 0 disable it.
func WithDocStoreCacheSize(n int64) Option {
	return func(o *options) {
		o.docStoreCacheSize = max(n, 0)
	}
}

// WithMemoryLimit caps the memory held by caches across the index.
// Values <= 0 mean unlimited.
func WithMemoryLimit(n int64) Option {
	return func(o *options) {
		o.memoryLimit = max(n, 0)
	}
}

// WithReadRateLimit caps the bytes per second read from the backend when
// opening segments, e.g. to keep a remote backend from being saturated.
// Values <= 0 mean unlimited.
func WithReadRateLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.readRateLimit = max(bytesPerSec, 0)
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &lexgo.BasicMetricsCollector{}
//	idx, _ := lexgo.Open(ctx, lexgo.Memory(), s, lexgo.WithMetricsCollector(metrics))
//	// ... use idx ...
//	stats := metrics.GetStats()
//	fmt.Printf("Commits: %d, Avg latency: %dns\n", stats.CommitCount, stats.CommitAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := lexgo.NewJSONLogger(slog.LevelInfo)
//	idx, _ := lexgo.Open(ctx, lexgo.Local("./data"), s, lexgo.WithLogger(logger))
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
