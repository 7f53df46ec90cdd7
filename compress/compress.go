package compress

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Type identifies a stream compression format.
type Type uint8

const (
	// None passes data through unchanged.
	None Type = iota
	// Gzip is RFC 1952 gzip.
	Gzip
	// Zstd is a Zstandard frame stream.
	Zstd
	// LZ4 is an LZ4 frame stream.
	LZ4
)

// ErrUnknownType is returned for an unrecognised compression name.
var ErrUnknownType = errors.New("compress: unknown type")

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
)

// headerSize is the number of leading bytes Detect inspects.
const headerSize = 4

func (t Type) String() string {
	switch t {
	case None:
		return "none"
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// Extension returns the conventional file extension, including the dot.
func (t Type) Extension() string {
	switch t {
	case Gzip:
		return ".gz"
	case Zstd:
		return ".zst"
	case LZ4:
		return ".lz4"
	default:
		return ""
	}
}

// ParseType parses a name as returned by Type.String. "gz" and "zst" are
// accepted too.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return None, nil
	case "gzip", "gz":
		return Gzip, nil
	case "zstd", "zst":
		return Zstd, nil
	case "lz4":
		return LZ4, nil
	default:
		return None, fmt.Errorf("%w: %q", ErrUnknownType, s)
	}
}

// Detect determines the format of a stream from its first bytes, falling
// back to the extension of name.
func Detect(name string, header []byte) Type {
	switch {
	case bytes.HasPrefix(header, zstdMagic):
		return Zstd
	case bytes.HasPrefix(header, lz4Magic):
		return LZ4
	case bytes.HasPrefix(header, gzipMagic):
		return Gzip
	}

	switch strings.ToLower(path.Ext(name)) {
	case ".gz", ".gzip":
		return Gzip
	case ".zst", ".zstd":
		return Zstd
	case ".lz4":
		return LZ4
	default:
		return None
	}
}

// Open detects the format of r and returns a decompressing reader.
func Open(r io.Reader, name string) (io.ReadCloser, Type, error) {
	br := bufio.NewReader(r)
	header, err := br.Peek(headerSize)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, None, err
	}

	t := Detect(name, header)
	if len(header) == 0 {
		// An empty input has no frames to decode.
		t = None
	}
	rc, err := NewReader(br, t)
	if err != nil {
		return nil, t, err
	}
	return rc, t, nil
}

// NewReader returns a reader that decompresses r. Closing it does not
// close r.
func NewReader(r io.Reader, t Type) (io.ReadCloser, error) {
	switch t {
	case None:
		return io.NopCloser(r), nil
	case Gzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("compress: gzip header: %w", err)
		}
		return zr, nil
	case Zstd:
		dec := getZstdDecoder()
		if err := dec.Reset(r); err != nil {
			putZstdDecoder(dec)
			return nil, fmt.Errorf("compress: zstd: %w", err)
		}
		return &zstdReader{dec: dec}, nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownType, t)
	}
}

// WriterOption configures NewWriter.
type WriterOption func(*writerOptions)

type writerOptions struct {
	level int
}

// WithLevel sets the compression level on a 1 (fastest) to 9 (smallest)
// scale. 0 selects each format's default.
func WithLevel(level int) WriterOption {
	return func(o *writerOptions) {
		o.level = max(0, min(level, 9))
	}
}

// NewWriter returns a writer that compresses into w. Close flushes the
// final frame but does not close w.
func NewWriter(w io.Writer, t Type, optFns ...WriterOption) (io.WriteCloser, error) {
	var o writerOptions
	for _, fn := range optFns {
		fn(&o)
	}

	switch t {
	case None:
		return nopWriteCloser{w}, nil
	case Gzip:
		level := gzip.DefaultCompression
		if o.level > 0 {
			level = o.level
		}
		zw, err := gzip.NewWriterLevel(w, level)
		if err != nil {
			return nil, fmt.Errorf("compress: gzip: %w", err)
		}
		return zw, nil
	case Zstd:
		level := zstd.SpeedDefault
		if o.level > 0 {
			level = zstd.EncoderLevelFromZstd(zstdLevels[o.level])
		}
		zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(level))
		if err != nil {
			return nil, fmt.Errorf("compress: zstd: %w", err)
		}
		return zw, nil
	case LZ4:
		zw := lz4.NewWriter(w)
		if err := zw.Apply(lz4.CompressionLevelOption(lz4Levels[o.level])); err != nil {
			return nil, fmt.Errorf("compress: lz4: %w", err)
		}
		return zw, nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownType, t)
	}
}

// zstdLevels maps the 1..9 scale onto zstd's 1..22.
var zstdLevels = [10]int{0, 1, 2, 3, 5, 7, 9, 12, 16, 19}

var lz4Levels = [10]lz4.CompressionLevel{
	lz4.Fast, lz4.Level1, lz4.Level2, lz4.Level3, lz4.Level4,
	lz4.Level5, lz4.Level6, lz4.Level7, lz4.Level8, lz4.Level9,
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

var zstdDecoderPool sync.Pool

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	// Streams are decoded synchronously on the caller's goroutine.
	dec, _ := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	return dec
}

func putZstdDecoder(dec *zstd.Decoder) {
	// Reset(nil) drops the reference to the previous input.
	_ = dec.Reset(nil)
	zstdDecoderPool.Put(dec)
}

// zstdReader returns its decoder to the pool on Close.
type zstdReader struct {
	dec *zstd.Decoder
}

func (z *zstdReader) Read(p []byte) (int, error) {
	if z.dec == nil {
		return 0, io.ErrClosedPipe
	}
	return z.dec.Read(p)
}

func (z *zstdReader) Close() error {
	if z.dec != nil {
		putZstdDecoder(z.dec)
		z.dec = nil
	}
	return nil
}
