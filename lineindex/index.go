package lineindex

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/hupe1980/linescan"
	"github.com/hupe1980/linescan/internal/conv"
	"github.com/hupe1980/linescan/internal/hash"
)

var (
	// ErrOutOfRange is returned for a line number or offset outside the
	// indexed stream.
	ErrOutOfRange = errors.New("lineindex: out of range")

	// ErrCorrupt is returned when a serialised index fails validation.
	ErrCorrupt = errors.New("lineindex: corrupt index")
)

const (
	magic      = "LSIX"
	version    = 1
	headerSize = 24 // magic(4) version(1) terminator(1) reserved(2) size(8) bitmapLen(8)
	trailerLen = 4  // crc32c over header and bitmap
)

// Index maps line numbers to byte offsets of one stream.
type Index struct {
	terms *roaring64.Bitmap
	size  int64
	term  byte
}

// New returns an empty index for records ending in term.
func New(term byte) *Index {
	return &Index{terms: roaring64.New(), term: term}
}

type options struct {
	term      byte
	chunkSize int
}

// Option configures Build.
type Option func(*options)

// WithTerminator sets the record terminator. The default is '\n'.
func WithTerminator(term byte) Option {
	return func(o *options) {
		o.term = term
	}
}

// WithChunkSize sets the read size.
func WithChunkSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.chunkSize = n
		}
	}
}

// Build indexes everything r produces.
func Build(ctx context.Context, r io.Reader, optFns ...Option) (*Index, error) {
	o := options{term: '\n', chunkSize: linescan.DefaultChunkSize}
	for _, fn := range optFns {
		fn(&o)
	}

	idx := New(o.term)
	chunk := make([]byte, o.chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := r.Read(chunk)
		idx.Append(chunk[:n])
		if errors.Is(err, io.EOF) {
			return idx, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// Append indexes the next bytes of the stream.
func (x *Index) Append(chunk []byte) {
	base := x.size
	for len(chunk) > 0 {
		i := linescan.FindTerminator(chunk, x.term)
		if i == len(chunk) {
			break
		}
		x.terms.Add(uint64(base) + uint64(i))
		base += int64(i) + 1
		chunk = chunk[i+1:]
	}
	x.size = base + int64(len(chunk))
}

// Add marks a terminator at off, extending the stream if needed.
func (x *Index) Add(off int64) error {
	u, err := conv.Int64ToUint64(off)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOutOfRange, err)
	}
	x.terms.Add(u)
	x.size = max(x.size, off+1)
	return nil
}

// Terminator returns the record terminator.
func (x *Index) Terminator() byte { return x.term }

// Size returns the number of bytes indexed.
func (x *Index) Size() int64 { return x.size }

// Terminators returns the number of terminators seen.
func (x *Index) Terminators() int64 {
	return int64(x.terms.GetCardinality())
}

// Lines returns the number of records, counting an unterminated tail.
func (x *Index) Lines() int64 {
	n := x.Terminators()
	if x.hasTail() {
		n++
	}
	return n
}

func (x *Index) hasTail() bool {
	if x.size == 0 {
		return false
	}
	if x.terms.IsEmpty() {
		return true
	}
	return int64(x.terms.Maximum())+1 < x.size
}

// Offset returns the byte offset at which line n starts.
func (x *Index) Offset(n int64) (int64, error) {
	if n < 0 || n >= x.Lines() {
		return 0, fmt.Errorf("%w: line %d of %d", ErrOutOfRange, n, x.Lines())
	}
	if n == 0 {
		return 0, nil
	}
	prev, err := x.terms.Select(uint64(n - 1))
	if err != nil {
		return 0, err
	}
	return int64(prev) + 1, nil
}

// Line returns the byte range of line n, excluding its terminator.
func (x *Index) Line(n int64) (start, end int64, err error) {
	start, err = x.Offset(n)
	if err != nil {
		return 0, 0, err
	}
	if n < x.Terminators() {
		t, err := x.terms.Select(uint64(n))
		if err != nil {
			return 0, 0, err
		}
		return start, int64(t), nil
	}
	return start, x.size, nil
}

// LineOf returns the line containing byte off. A terminator belongs to
// the line it ends.
func (x *Index) LineOf(off int64) (int64, error) {
	if off < 0 || off >= x.size {
		return 0, fmt.Errorf("%w: offset %d of %d", ErrOutOfRange, off, x.size)
	}
	if off == 0 {
		return 0, nil
	}
	return int64(x.terms.Rank(uint64(off - 1))), nil
}

// WriteTo serialises the index.
func (x *Index) WriteTo(w io.Writer) (int64, error) {
	x.terms.RunOptimize()

	var body bytes.Buffer
	if _, err := x.terms.WriteTo(&body); err != nil {
		return 0, err
	}

	header := make([]byte, headerSize)
	copy(header, magic)
	header[4] = version
	header[5] = x.term
	binary.LittleEndian.PutUint64(header[8:16], uint64(x.size))
	binary.LittleEndian.PutUint64(header[16:24], uint64(body.Len()))

	crc := hash.NewCRC32C()
	_, _ = crc.Write(header)
	_, _ = crc.Write(body.Bytes())
	trailer := binary.LittleEndian.AppendUint32(nil, crc.Sum32())

	var written int64
	for _, part := range [][]byte{header, body.Bytes(), trailer} {
		n, err := w.Write(part)
		written += int64(n)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// ReadFrom replaces x with an index serialised by WriteTo.
func (x *Index) ReadFrom(r io.Reader) (int64, error) {
	header := make([]byte, headerSize)
	read, err := io.ReadFull(r, header)
	if err != nil {
		return int64(read), fmt.Errorf("%w: header: %v", ErrCorrupt, err)
	}
	if string(header[:4]) != magic || header[4] != version {
		return int64(read), fmt.Errorf("%w: bad magic or version", ErrCorrupt)
	}

	size, err := conv.Uint64ToInt64(binary.LittleEndian.Uint64(header[8:16]))
	if err != nil {
		return int64(read), fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	bodyLen, err := conv.Uint64ToInt(binary.LittleEndian.Uint64(header[16:24]))
	if err != nil || bodyLen > 1<<40 {
		return int64(read), fmt.Errorf("%w: bitmap length", ErrCorrupt)
	}

	// The buffer grows with the bytes actually present, so a bogus length
	// fails as a short read instead of a huge allocation.
	want := int64(bodyLen) + trailerLen
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, want))
	read += int(n)
	if err != nil {
		return int64(read), fmt.Errorf("%w: body: %v", ErrCorrupt, err)
	}
	if n < want {
		return int64(read), fmt.Errorf("%w: body: %v", ErrCorrupt, io.ErrUnexpectedEOF)
	}
	rest := buf.Bytes()
	body, trailer := rest[:bodyLen], rest[bodyLen:]

	crc := hash.NewCRC32C()
	_, _ = crc.Write(header)
	_, _ = crc.Write(body)
	if crc.Sum32() != binary.LittleEndian.Uint32(trailer) {
		return int64(read), fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}

	terms := roaring64.New()
	if _, err := terms.ReadFrom(bytes.NewReader(body)); err != nil {
		return int64(read), fmt.Errorf("%w: bitmap: %v", ErrCorrupt, err)
	}
	if !terms.IsEmpty() && int64(terms.Maximum()) >= size {
		return int64(read), fmt.Errorf("%w: terminator beyond stream end", ErrCorrupt)
	}

	x.terms, x.size, x.term = terms, size, header[5]
	return int64(read), nil
}

// Read deserialises an index.
func Read(r io.Reader) (*Index, error) {
	x := New('\n')
	if _, err := x.ReadFrom(r); err != nil {
		return nil, err
	}
	return x, nil
}
