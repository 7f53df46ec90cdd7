package linescan

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned when using a closed Scanner or Reader.
	ErrClosed = errors.New("linescan: closed")

	// ErrAllocatorMismatch is returned when WithAllocator supplies an
	// allocator for a different element type than the scanner's.
	ErrAllocatorMismatch = errors.New("linescan: allocator element type does not match scanner")

	// ErrStop may be returned from a ScanBlob callback to end the scan
	// early without error.
	ErrStop = errors.New("linescan: stop")

	// ErrInvalidChunkSize is returned for a non-positive WithChunkSize.
	ErrInvalidChunkSize = errors.New("linescan: chunk size must be positive")
)

// ErrAllocation reports that staging a record failed because the buffer
// could not grow. The record being staged is abandoned.
//
// The allocator error can be accessed via errors.Unwrap.
type ErrAllocation struct {
	Requested int // elements that were being appended
	Staged    int // elements already staged for the record
	cause     error
}

func (e *ErrAllocation) Error() string {
	return fmt.Sprintf("linescan: staging %d elements onto %d: %v", e.Requested, e.Staged, e.cause)
}

func (e *ErrAllocation) Unwrap() error { return e.cause }

// ErrInvalidTerminator reports a terminator that does not fit the element
// type of the scanner.
type ErrInvalidTerminator struct {
	Terminator rune
	ElemSize   int
}

func (e *ErrInvalidTerminator) Error() string {
	return fmt.Sprintf("linescan: terminator %U does not fit a %d byte element", e.Terminator, e.ElemSize)
}
