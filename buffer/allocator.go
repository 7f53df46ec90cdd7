package buffer

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/hupe1980/linescan/internal/mem"
	"github.com/hupe1980/linescan/internal/mmap"
	"github.com/hupe1980/linescan/resource"
)

// Allocator hands out and takes back element storage.
//
// Allocate returns exactly n elements. Deallocate receives slices exactly
// as Allocate returned them; a zero length slice is a no-op.
type Allocator[T any] interface {
	Allocate(n int) ([]T, error)
	Deallocate(s []T)
}

func sizeOf[T any]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

func checkCount[T any](n int) error {
	if n < 0 || n > MaxCapacity[T]() {
		return fmt.Errorf("%w: %d elements", ErrTooLarge, n)
	}
	return nil
}

// Heap allocates garbage collected slices.
type Heap[T any] struct{}

// Allocate implements Allocator.
func (Heap[T]) Allocate(n int) ([]T, error) {
	if err := checkCount[T](n); err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	return make([]T, n), nil
}

// Deallocate implements Allocator. The collector reclaims the slice.
func (Heap[T]) Deallocate([]T) {}

// Aligned allocates garbage collected slices aligned to mem.Alignment.
type Aligned[T any] struct{}

// Allocate implements Allocator.
func (Aligned[T]) Allocate(n int) ([]T, error) {
	if err := checkCount[T](n); err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	s := mem.AllocAlignedOf[T](n)
	if s == nil {
		return nil, fmt.Errorf("%w: %d elements", ErrTooLarge, n)
	}
	return s, nil
}

// Deallocate implements Allocator.
func (Aligned[T]) Deallocate([]T) {}

// Mmap allocates from anonymous memory mappings. Every allocation is its
// own mapping and is unmapped on Deallocate. It is safe for concurrent use.
type Mmap[T any] struct {
	mu   sync.Mutex
	live map[*T]*mmap.Mapping
}

// NewMmap creates an Mmap allocator.
func NewMmap[T any]() *Mmap[T] {
	return &Mmap[T]{live: make(map[*T]*mmap.Mapping)}
}

// Allocate implements Allocator.
func (a *Mmap[T]) Allocate(n int) ([]T, error) {
	if err := checkCount[T](n); err != nil {
		return nil, err
	}
	size := sizeOf[T]()
	if n == 0 || size == 0 {
		return nil, nil
	}

	m, err := mmap.MapAnon(n * size)
	if err != nil {
		return nil, fmt.Errorf("buffer: map %d bytes: %w", n*size, err)
	}
	s := unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(m.Bytes()))), n) //nolint:gosec // page aligned mapping

	a.mu.Lock()
	a.live[unsafe.SliceData(s)] = m
	a.mu.Unlock()

	return s, nil
}

// Deallocate implements Allocator. It panics on a slice it did not hand
// out.
func (a *Mmap[T]) Deallocate(s []T) {
	if len(s) == 0 {
		return
	}
	key := unsafe.SliceData(s)

	a.mu.Lock()
	m, ok := a.live[key]
	delete(a.live, key)
	a.mu.Unlock()

	if !ok {
		panic("buffer: deallocating storage not owned by this allocator")
	}
	_ = m.Close()
}

// Live returns the number of mappings currently handed out.
func (a *Mmap[T]) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.live)
}

// Budgeted charges every allocation of an inner allocator against a
// controller's memory limit. Allocations that do not fit fail with an
// error wrapping resource.ErrMemoryLimitExceeded.
type Budgeted[T any] struct {
	inner Allocator[T]
	rc    *resource.Controller
}

// NewBudgeted wraps inner. A nil inner allocates from the heap.
func NewBudgeted[T any](inner Allocator[T], rc *resource.Controller) *Budgeted[T] {
	if inner == nil {
		inner = Heap[T]{}
	}
	return &Budgeted[T]{inner: inner, rc: rc}
}

// Allocate implements Allocator.
func (a *Budgeted[T]) Allocate(n int) ([]T, error) {
	if err := checkCount[T](n); err != nil {
		return nil, err
	}
	bytes := int64(n) * int64(sizeOf[T]())
	if err := a.rc.ReserveMemory(bytes); err != nil {
		return nil, err
	}
	s, err := a.inner.Allocate(n)
	if err != nil {
		a.rc.ReleaseMemory(bytes)
		return nil, err
	}
	return s, nil
}

// Deallocate implements Allocator.
func (a *Budgeted[T]) Deallocate(s []T) {
	if len(s) == 0 {
		return
	}
	a.inner.Deallocate(s)
	a.rc.ReleaseMemory(int64(len(s)) * int64(sizeOf[T]()))
}

// Counting wraps an allocator and counts its traffic.
type Counting[T any] struct {
	inner Allocator[T]

	allocs   atomic.Int64
	frees    atomic.Int64
	liveElem atomic.Int64
}

// NewCounting wraps inner. A nil inner allocates from the heap.
func NewCounting[T any](inner Allocator[T]) *Counting[T] {
	if inner == nil {
		inner = Heap[T]{}
	}
	return &Counting[T]{inner: inner}
}

// Allocate implements Allocator.
func (a *Counting[T]) Allocate(n int) ([]T, error) {
	s, err := a.inner.Allocate(n)
	if err != nil {
		return nil, err
	}
	if len(s) > 0 {
		a.allocs.Add(1)
		a.liveElem.Add(int64(len(s)))
	}
	return s, nil
}

// Deallocate implements Allocator.
func (a *Counting[T]) Deallocate(s []T) {
	if len(s) == 0 {
		return
	}
	a.inner.Deallocate(s)
	a.frees.Add(1)
	a.liveElem.Add(-int64(len(s)))
}

// Allocations returns the number of non-empty allocations.
func (a *Counting[T]) Allocations() int64 { return a.allocs.Load() }

// Deallocations returns the number of non-empty deallocations.
func (a *Counting[T]) Deallocations() int64 { return a.frees.Load() }

// Live returns allocations not yet deallocated.
func (a *Counting[T]) Live() int64 { return a.allocs.Load() - a.frees.Load() }

// LiveElements returns the number of elements currently allocated.
func (a *Counting[T]) LiveElements() int64 { return a.liveElem.Load() }
