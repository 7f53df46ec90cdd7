package linescan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/hupe1980/linescan/blobstore"
	"github.com/hupe1980/linescan/resource"
)

// ctxCheckInterval is how many records ScanBlob emits between context
// checks on the in-memory path.
const ctxCheckInterval = 1024

// RecordFunc receives one record and the stream offset just past its
// terminator. The record is valid only during the call. Returning ErrStop
// ends the scan without error.
type RecordFunc func(rec []byte, end int64) error

// ScanStats summarises a ScanBlob call.
type ScanStats struct {
	Records int64
	// Offset is the stream offset just past the last delivered record.
	Offset int64
	// Mapped reports whether the blob was scanned in place.
	Mapped bool
}

// ScanBlob delivers every record of blob to fn, starting at
// WithBaseOffset.
//
// A blobstore.Mappable blob is handed to the scanner as one chunk, so
// every record is a view into the mapping. Other blobs are streamed with
// a single ReadRange through a Reader, throttled by the read rate of
// WithResourceController.
func ScanBlob(ctx context.Context, blob blobstore.Blob, fn RecordFunc, optFns ...Option) (ScanStats, error) {
	o := applyOptions(optFns)
	size := blob.Size()
	if o.baseOffset < 0 || o.baseOffset > size {
		return ScanStats{}, fmt.Errorf("linescan: base offset %d outside blob of %d bytes", o.baseOffset, size)
	}

	if m, ok := blob.(blobstore.Mappable); ok {
		data, err := m.Bytes()
		if err != nil {
			return ScanStats{}, err
		}
		return scanMapped(ctx, data[o.baseOffset:], fn, o)
	}

	stats := ScanStats{Offset: o.baseOffset}
	if o.baseOffset == size {
		return stats, nil
	}

	body, err := blob.ReadRange(ctx, o.baseOffset, size-o.baseOffset)
	if err != nil {
		return stats, err
	}
	defer body.Close()

	var src io.Reader = body
	if o.controller != nil {
		src = resource.NewRateLimitedReader(ctx, body, o.controller)
	}

	r, err := NewReader(src, optFns...)
	if err != nil {
		return stats, err
	}
	defer r.Close()

	for {
		rec, err := r.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, err
		}
		err = fn(rec, r.Offset())
		stats.Records, stats.Offset = r.Records(), r.Offset()
		if errors.Is(err, ErrStop) {
			break
		}
		if err != nil {
			return stats, err
		}
	}
	stats.Records, stats.Offset = r.Records(), r.Offset()
	return stats, nil
}

// scanMapped walks an in-memory blob. Every record, including an
// unterminated tail, is a view into data, so nothing is ever staged.
func scanMapped(ctx context.Context, data []byte, fn RecordFunc, o options) (ScanStats, error) {
	stats := ScanStats{Offset: o.baseOffset, Mapped: true}
	started := time.Now()

	term := byte(o.terminator)
	if rune(term) != o.terminator {
		return stats, &ErrInvalidTerminator{Terminator: o.terminator, ElemSize: 1}
	}

	done := func(err error) (ScanStats, error) {
		o.logger.LogStreamDone(ctx, stats.Records, stats.Offset-o.baseOffset, err)
		o.metricsCollector.RecordStream(stats.Records, stats.Offset-o.baseOffset, time.Since(started), err)
		return stats, err
	}

	for len(data) > 0 {
		if stats.Records%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return done(err)
			}
		}

		i := FindTerminator(data, term)
		rec, adv := data[:i:i], i+1
		if i == len(data) {
			adv = i
		}
		data = data[adv:]
		o.metricsCollector.RecordRecord(len(rec), true)

		stats.Records++
		stats.Offset += int64(adv)
		if err := fn(rec, stats.Offset); err != nil {
			if errors.Is(err, ErrStop) {
				return done(nil)
			}
			return done(err)
		}
	}
	return done(nil)
}
