package linescan

import (
	"context"
	"errors"
	"io"
	"time"
)

// maxEmptyReads bounds consecutive (0, nil) reads before a Reader gives
// up with io.ErrNoProgress.
const maxEmptyReads = 100

// Reader returns the records of an io.Reader one at a time. It owns a
// reusable chunk buffer and a byte Scanner.
type Reader struct {
	src     io.Reader
	sc      *Scanner[byte]
	chunk   []byte
	pending []byte

	base     int64 // stream offset of the first input byte
	consumed int64 // stream offset of the next unscanned byte
	boundary int64 // offset just past the last returned record
	records  int64
	readErr  error // reported once pending is drained
	eof      bool
	done     bool
	closed   bool
	started  time.Time

	logger  *Logger
	metrics MetricsCollector
}

// NewReader creates a Reader. WithChunkSize sets the read size and
// WithBaseOffset shifts reported offsets; the remaining options configure
// the underlying Scanner.
func NewReader(src io.Reader, optFns ...Option) (*Reader, error) {
	o := applyOptions(optFns)
	if o.chunkSize <= 0 {
		return nil, ErrInvalidChunkSize
	}

	sc, err := NewScanner[byte](optFns...)
	if err != nil {
		return nil, err
	}

	return &Reader{
		src:      src,
		sc:       sc,
		chunk:    make([]byte, o.chunkSize),
		base:     o.baseOffset,
		consumed: o.baseOffset,
		boundary: o.baseOffset,
		logger:   o.logger,
		metrics:  o.metricsCollector,
	}, nil
}

// Next returns the next record without its terminator. A final record
// lacking a terminator is returned too. At the end of the input Next
// returns io.EOF.
//
// The record is valid until the next call.
func (r *Reader) Next(ctx context.Context) ([]byte, error) {
	if r.closed {
		return nil, ErrClosed
	}
	if r.done {
		return nil, io.EOF
	}
	if r.started.IsZero() {
		r.started = time.Now()
	}

	empty := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if len(r.pending) > 0 {
			res, err := r.sc.Next(r.pending)
			if err != nil {
				return nil, r.fail(ctx, err)
			}
			adv := res.Advance()
			r.pending = r.pending[adv:]
			r.consumed += int64(adv)
			if res.Status == StatusOK {
				return r.emit(res.View), nil
			}
			continue
		}

		if r.readErr != nil {
			return nil, r.fail(ctx, r.readErr)
		}

		if r.eof {
			r.done = true
			if res, ok := r.sc.Finish(); ok {
				r.finish(ctx, nil)
				return r.emit(res.View), nil
			}
			r.finish(ctx, nil)
			return nil, io.EOF
		}

		n, err := r.src.Read(r.chunk)
		r.pending = r.chunk[:n]
		switch {
		case errors.Is(err, io.EOF):
			r.eof = true
		case err != nil:
			r.readErr = err
		case n == 0:
			empty++
			if empty >= maxEmptyReads {
				return nil, r.fail(ctx, io.ErrNoProgress)
			}
		default:
			empty = 0
		}
	}
}

func (r *Reader) emit(rec []byte) []byte {
	r.records++
	r.boundary = r.consumed
	return rec
}

func (r *Reader) fail(ctx context.Context, err error) error {
	r.done = true
	r.finish(ctx, err)
	return err
}

func (r *Reader) finish(ctx context.Context, err error) {
	scanned := r.consumed - r.base
	r.logger.LogStreamDone(ctx, r.records, scanned, err)
	r.metrics.RecordStream(r.records, scanned, time.Since(r.started), err)
}

// Offset returns the stream offset just past the last returned record,
// a safe point to resume from.
func (r *Reader) Offset() int64 { return r.boundary }

// Records returns the number of records returned so far.
func (r *Reader) Records() int64 { return r.records }

// Close releases the scanner. It does not close the underlying reader.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.sc.Close()
}
