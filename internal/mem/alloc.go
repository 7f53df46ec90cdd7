package mem

import (
	"math"
	"unsafe"
)

// Alignment is the byte alignment of every allocation (one AVX2 vector).
const Alignment = 32

// AllocAligned allocates a zeroed byte slice of the given size whose first
// byte sits at an address divisible by Alignment. It returns nil for size 0.
//
// The backing array is slightly larger than requested and is kept alive by
// the returned slice.
func AllocAligned(size int) []byte {
	if size <= 0 {
		return nil
	}

	buf := make([]byte, size+Alignment)
	addr := uintptr(unsafe.Pointer(&buf[0])) //nolint:gosec // address arithmetic for alignment
	offset := (Alignment - (addr & (Alignment - 1))) & (Alignment - 1)

	return buf[offset : offset+uintptr(size) : offset+uintptr(size)]
}

// AllocAlignedOf allocates n zeroed elements of T with the same alignment
// guarantee. It returns nil when n is 0 or n elements do not fit in an int
// byte count.
func AllocAlignedOf[T any](n int) []T {
	var zero T
	size := int(unsafe.Sizeof(zero))
	if n <= 0 || size == 0 || n > (math.MaxInt-Alignment)/size {
		return nil
	}
	raw := AllocAligned(n * size)
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(raw))), n) //nolint:gosec // aligned for any T
}
