package buffer

import (
	"errors"
	"fmt"
	"math"
)

// ErrTooLarge is returned when a buffer would exceed MaxCapacity.
var ErrTooLarge = errors.New("buffer: too large")

// MaxCapacity returns the largest element count of T a buffer can hold.
func MaxCapacity[T any]() int {
	size := sizeOf[T]()
	if size == 0 {
		return math.MaxInt
	}
	return math.MaxInt / size
}

// nextCapacity applies the growth policy: double the old capacity, or
// jump to maxCap once old reaches half of it, and never return less than
// need. The half threshold is derived from maxCap alone.
func nextCapacity(old, need, maxCap int) int {
	half := maxCap / 2

	var c int
	if old >= half {
		c = maxCap
	} else {
		c = 2 * old
	}
	if c < need {
		c = need
	}
	return c
}

// noCopy makes go vet's copylocks check reject copies of a Buffer.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Buffer is growable storage with a single owner.
//
// The zero value is an empty buffer backed by Heap. Buffers must not be
// copied; use MoveFrom to transfer storage.
type Buffer[T any] struct {
	_ noCopy

	alloc Allocator[T]
	store []T // len(store) is the capacity
	n     int
}

// New returns an empty buffer that draws storage from alloc. A nil alloc
// means Heap.
func New[T any](alloc Allocator[T]) *Buffer[T] {
	b := &Buffer[T]{}
	b.SetAllocator(alloc)
	return b
}

// SetAllocator selects where future storage comes from. It panics if the
// buffer already owns storage.
func (b *Buffer[T]) SetAllocator(alloc Allocator[T]) {
	if b.store != nil {
		panic("buffer: allocator changed while storage is owned")
	}
	b.alloc = alloc
}

func (b *Buffer[T]) allocator() Allocator[T] {
	if b.alloc == nil {
		return Heap[T]{}
	}
	return b.alloc
}

// Len returns the number of staged elements.
func (b *Buffer[T]) Len() int { return b.n }

// Cap returns the allocated capacity in elements.
func (b *Buffer[T]) Cap() int { return len(b.store) }

// Slice returns the staged elements. The slice aliases the buffer and is
// valid until the next call that grows, resets, moves or releases it.
func (b *Buffer[T]) Slice() []T { return b.store[:b.n:b.n] }

// Append stages data after the existing elements, growing the storage if
// needed. On error the buffer is unchanged.
func (b *Buffer[T]) Append(data []T) error {
	count := len(data)
	if count == 0 {
		return nil
	}
	if err := b.Reserve(count); err != nil {
		return err
	}
	b.n += copy(b.store[b.n:], data)
	return nil
}

// Reserve ensures room for count more elements without changing Len.
// On error the buffer is unchanged.
func (b *Buffer[T]) Reserve(count int) error {
	if count <= len(b.store)-b.n {
		return nil
	}

	maxCap := MaxCapacity[T]()
	if count > maxCap-b.n {
		return fmt.Errorf("%w: %d staged + %d requested exceeds %d", ErrTooLarge, b.n, count, maxCap)
	}
	need := b.n + count
	newCap := nextCapacity(len(b.store), need, maxCap)

	alloc := b.allocator()
	ns, err := alloc.Allocate(newCap)
	if err != nil {
		return fmt.Errorf("buffer: allocate %d elements: %w", newCap, err)
	}
	if len(ns) != newCap {
		alloc.Deallocate(ns)
		return fmt.Errorf("buffer: allocator returned %d elements, want %d", len(ns), newCap)
	}

	copy(ns, b.store[:b.n])
	old := b.store
	b.store = ns
	alloc.Deallocate(old)
	return nil
}

// Reset discards the staged elements and keeps the capacity.
func (b *Buffer[T]) Reset() { b.n = 0 }

// MoveFrom releases b's storage and takes over src's storage, allocator
// and staged elements. src is left empty with its allocator unchanged.
func (b *Buffer[T]) MoveFrom(src *Buffer[T]) {
	if b == src {
		return
	}
	b.Release()
	b.alloc, b.store, b.n = src.alloc, src.store, src.n
	src.store, src.n = nil, 0
}

// Release returns the storage to the allocator. Releasing an empty buffer
// is a no-op, so Release may be called any number of times.
func (b *Buffer[T]) Release() {
	if b.store == nil {
		b.n = 0
		return
	}
	store := b.store
	b.store, b.n = nil, 0
	b.allocator().Deallocate(store)
}
