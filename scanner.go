package linescan

import (
	"fmt"
	"unsafe"

	"github.com/hupe1980/linescan/buffer"
	"github.com/hupe1980/linescan/internal/simd"
)

// Char is the set of element types a Scanner accepts: bytes, UTF-16 code
// units and UTF-32 code points.
type Char = simd.Char

// Status tells the caller what a Next call produced.
type Status int

const (
	// StatusPartial means no record was completed; supply the next chunk.
	StatusPartial Status = iota
	// StatusOK means Result.View holds one complete record.
	StatusOK
)

func (s Status) String() string {
	switch s {
	case StatusPartial:
		return "partial"
	case StatusOK:
		return "ok"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Result is the outcome of one Next call.
type Result[T Char] struct {
	Status Status

	// View is the record without its terminator. It points either into the
	// chunk or into the scanner's buffer and is valid until the next call
	// on the scanner. Nil for StatusPartial.
	View []T

	// Consumed is the index in the chunk up to which input was used: the
	// terminator position for StatusOK, len(chunk) for StatusPartial.
	Consumed int
}

// Advance returns how many elements of the chunk the caller should skip
// before the next call: the consumed input plus the terminator, if any.
func (r Result[T]) Advance() int {
	if r.Status == StatusOK {
		return r.Consumed + 1
	}
	return r.Consumed
}

// Scanner extracts records from one stream. The zero value is not usable;
// create scanners with NewScanner.
type Scanner[T Char] struct {
	buf        buffer.Buffer[T]
	term       T
	continuing bool
	closed     bool

	logger  *Logger
	metrics MetricsCollector
}

// NewScanner creates a scanner for element type T.
func NewScanner[T Char](optFns ...Option) (*Scanner[T], error) {
	o := applyOptions(optFns)

	term := T(o.terminator)
	if rune(term) != o.terminator {
		var zero T
		return nil, &ErrInvalidTerminator{Terminator: o.terminator, ElemSize: int(unsafe.Sizeof(zero))}
	}

	var alloc buffer.Allocator[T] = buffer.Heap[T]{}
	if o.allocator != nil {
		a, ok := o.allocator.(buffer.Allocator[T])
		if !ok {
			return nil, fmt.Errorf("%w: got %T", ErrAllocatorMismatch, o.allocator)
		}
		alloc = a
	}
	if o.controller != nil {
		alloc = buffer.NewBudgeted(alloc, o.controller)
	}

	s := &Scanner[T]{
		term:    term,
		logger:  o.logger,
		metrics: o.metricsCollector,
	}
	s.buf.SetAllocator(alloc)

	if o.initialCapacity > 0 {
		if err := s.buf.Reserve(o.initialCapacity); err != nil {
			return nil, fmt.Errorf("linescan: initial capacity: %w", err)
		}
	}
	return s, nil
}

// Init starts a new stream: any pending partial record is dropped. The
// staging buffer keeps its capacity.
func (s *Scanner[T]) Init() {
	s.continuing = false
}

// Next scans chunk for the end of the current record.
//
// If the chunk holds a terminator, Next returns StatusOK with the record.
// A record that began in earlier chunks is assembled in the staging buffer;
// otherwise the view points into chunk. If the chunk holds no terminator,
// it is staged in full and Next returns StatusPartial; an empty chunk only
// marks the record as continued.
//
// Next never looks at chunk[Consumed+1:]. Call it again with that
// remainder (see Result.Advance) before supplying new input.
//
// A non-nil error is always an *ErrAllocation or ErrClosed. After an
// allocation failure the partial record is abandoned and the scanner is
// ready for a fresh record.
func (s *Scanner[T]) Next(chunk []T) (Result[T], error) {
	if s.closed {
		return Result[T]{}, ErrClosed
	}

	if len(chunk) == 0 {
		s.beginContinuation()
		s.metrics.RecordPartial(0)
		return Result[T]{Status: StatusPartial}, nil
	}

	it := simd.IndexTerminator(chunk, s.term)
	if it == len(chunk) {
		s.beginContinuation()
		if err := s.stage(chunk); err != nil {
			return Result[T]{}, err
		}
		s.metrics.RecordPartial(len(chunk))
		return Result[T]{Status: StatusPartial, Consumed: len(chunk)}, nil
	}

	if !s.continuing {
		s.metrics.RecordRecord(it, true)
		return Result[T]{Status: StatusOK, View: chunk[:it:it], Consumed: it}, nil
	}

	// A record that only followed empty chunks has nothing staged.
	if s.buf.Len() == 0 {
		s.continuing = false
		s.metrics.RecordRecord(it, true)
		return Result[T]{Status: StatusOK, View: chunk[:it:it], Consumed: it}, nil
	}

	if err := s.stage(chunk[:it]); err != nil {
		return Result[T]{}, err
	}
	s.continuing = false
	view := s.buf.Slice()
	s.metrics.RecordRecord(len(view), false)
	return Result[T]{Status: StatusOK, View: view, Consumed: it}, nil
}

// Finish returns the staged record of a stream that ended without a
// final terminator. It reports false if there is none. Either way the
// scanner is ready for a fresh record afterwards.
func (s *Scanner[T]) Finish() (Result[T], bool) {
	if s.closed || !s.continuing {
		return Result[T]{}, false
	}
	s.continuing = false
	if s.buf.Len() == 0 {
		return Result[T]{}, false
	}
	view := s.buf.Slice()
	s.metrics.RecordRecord(len(view), false)
	return Result[T]{Status: StatusOK, View: view}, true
}

// Close releases the staging buffer. It is idempotent; a closed scanner
// returns ErrClosed from Next.
func (s *Scanner[T]) Close() error {
	s.closed = true
	s.continuing = false
	s.buf.Release()
	return nil
}

// Continuing reports whether a record is pending across chunks.
func (s *Scanner[T]) Continuing() bool { return s.continuing }

// Staged returns the number of elements staged for the pending record.
func (s *Scanner[T]) Staged() int {
	if !s.continuing {
		return 0
	}
	return s.buf.Len()
}

// Capacity returns the staging buffer's capacity in elements.
func (s *Scanner[T]) Capacity() int { return s.buf.Cap() }

// beginContinuation enters the continuing state. Staging restarts from
// the beginning of the buffer only for the first chunk of a record.
func (s *Scanner[T]) beginContinuation() {
	if !s.continuing {
		s.buf.Reset()
		s.continuing = true
	}
}

func (s *Scanner[T]) stage(data []T) error {
	oldCap := s.buf.Cap()
	staged := s.buf.Len()
	if err := s.buf.Append(data); err != nil {
		s.buf.Reset()
		s.continuing = false
		s.metrics.RecordAllocFailure(err)
		s.logger.LogAllocFailure(len(data), staged, err)
		return &ErrAllocation{Requested: len(data), Staged: staged, cause: err}
	}
	if newCap := s.buf.Cap(); newCap != oldCap {
		s.metrics.RecordGrow(oldCap, newCap)
		s.logger.LogGrow(oldCap, newCap, s.buf.Len())
	}
	return nil
}
