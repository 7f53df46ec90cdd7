package linescan

import (
	"log/slog"

	"github.com/hupe1980/linescan/buffer"
	"github.com/hupe1980/linescan/internal/simd"
	"github.com/hupe1980/linescan/resource"
)

// DefaultChunkSize is the read size of a Reader.
const DefaultChunkSize = 64 << 10

type options struct {
	allocator        any // buffer.Allocator[T] for the scanner's T
	terminator       rune
	metricsCollector MetricsCollector
	logger           *Logger
	chunkSize        int
	controller       *resource.Controller
	initialCapacity  int
	baseOffset       int64
}

// Option configures scanners and readers.
type Option func(*options)

// WithAllocator sets where the staging buffer draws storage from. The
// allocator's element type must match the scanner's; the default is
// buffer.Heap.
//
//	sc, err := linescan.NewScanner[byte](linescan.WithAllocator(buffer.NewMmap[byte]()))
func WithAllocator[T simd.Char](a buffer.Allocator[T]) Option {
	return func(o *options) {
		o.allocator = a
	}
}

// WithTerminator sets the record terminator. The default is '\n'.
// It must be representable in the scanner's element type.
func WithTerminator(term rune) Option {
	return func(o *options) {
		o.terminator = term
	}
}

// WithMetricsCollector configures a metrics collector.
// Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging.
// Pass nil to disable logging.
//
//	sc, _ := linescan.NewScanner[byte](linescan.WithLogger(linescan.NewJSONLogger(slog.LevelDebug)))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
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

// WithChunkSize sets how many bytes a Reader requests per read.
func WithChunkSize(n int) Option {
	return func(o *options) {
		o.chunkSize = n
	}
}

// WithResourceController charges staging memory to rc's memory limit.
// ScanBlob also throttles remote reads to rc's read rate.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.controller = rc
	}
}

// WithInitialCapacity preallocates the staging buffer for n elements.
func WithInitialCapacity(n int) Option {
	return func(o *options) {
		o.initialCapacity = n
	}
}

// WithBaseOffset declares that the input starts at byte offset off of a
// larger stream. Reader offsets are reported relative to that stream, and
// ScanBlob starts reading there.
func WithBaseOffset(off int64) Option {
	return func(o *options) {
		o.baseOffset = off
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		terminator:       '\n',
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		chunkSize:        DefaultChunkSize,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	return o
}
