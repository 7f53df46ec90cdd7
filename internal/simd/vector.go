package simd

import (
	"fmt"
	"math"
	"unsafe"
)

// Integer is the set of scalar types the bitwise, shift and endianness
// operations are defined for.
type Integer interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~int |
		~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uint | ~uintptr
}

// Float is the set of floating point scalar types.
type Float interface {
	~float32 | ~float64
}

// Scalar is the set of element types a Vector can hold.
type Scalar interface {
	Integer | Float
}

// Array is the set of backing arrays for a Vector of T.
// The array length is the lane count N.
type Array[T Scalar] interface {
	[0]T | [1]T | [2]T | [4]T | [8]T | [16]T | [32]T | [64]T
}

// Vector is a fixed-width group of N scalars with value semantics.
//
// The lane count is carried by the array type, e.g. Vector[uint32, [4]uint32]
// is a 16 byte vector of four uint32 lanes. Vectors are plain values: copies
// are independent and there is nothing to release.
type Vector[T Scalar, A Array[T]] struct {
	v A
}

// Broadcast returns a vector with every lane set to x.
func Broadcast[T Scalar, A Array[T]](x T) Vector[T, A] {
	var out Vector[T, A]
	lanes := out.lanes()
	for i := range lanes {
		lanes[i] = x
	}
	return out
}

// FromElements returns a vector loaded from the first N elements of s.
func FromElements[T Scalar, A Array[T]](s []T) Vector[T, A] {
	var out Vector[T, A]
	out.LoadElements(s)
	return out
}

// lanes returns the vector storage as a slice aliasing v.
func (v *Vector[T, A]) lanes() []T {
	return unsafe.Slice((*T)(unsafe.Pointer(&v.v)), len(v.v)) //nolint:gosec // lanes alias the backing array
}

// bytes returns the raw bytes of the vector aliasing v.
func (v *Vector[T, A]) bytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(&v.v)), unsafe.Sizeof(v.v)) //nolint:gosec // raw view of the backing array
}

// Load copies exactly Width() bytes from src into the vector.
//
// src needs no particular alignment. A src shorter than Width() is a caller
// bug and panics.
func (v *Vector[T, A]) Load(src []byte) {
	dst := v.bytes()
	if len(src) < len(dst) {
		panic(fmt.Sprintf("simd: load needs %d bytes, got %d", len(dst), len(src)))
	}
	copy(dst, src)
}

// Store copies exactly Width() bytes from the vector into dst.
func (v Vector[T, A]) Store(dst []byte) {
	src := v.bytes()
	if len(dst) < len(src) {
		panic(fmt.Sprintf("simd: store needs %d bytes, got %d", len(src), len(dst)))
	}
	copy(dst, src)
}

// LoadElements copies the first N elements of s into the vector.
func (v *Vector[T, A]) LoadElements(s []T) {
	dst := v.lanes()
	if len(s) < len(dst) {
		panic(fmt.Sprintf("simd: load needs %d elements, got %d", len(dst), len(s)))
	}
	copy(dst, s)
}

// StoreElements copies the N lanes into the first N elements of dst.
func (v Vector[T, A]) StoreElements(dst []T) {
	src := v.lanes()
	if len(dst) < len(src) {
		panic(fmt.Sprintf("simd: store needs %d elements, got %d", len(src), len(dst)))
	}
	copy(dst, src)
}

// Len returns the lane count N.
func (v Vector[T, A]) Len() int {
	return len(v.v)
}

// Width returns the total size of the vector in bytes.
func (v Vector[T, A]) Width() int {
	return int(unsafe.Sizeof(v.v))
}

// Empty reports whether N is zero.
func (v Vector[T, A]) Empty() bool {
	return len(v.v) == 0
}

// MaxSize returns the largest element count addressable for T.
func (v Vector[T, A]) MaxSize() int {
	var zero T
	return math.MaxInt / int(unsafe.Sizeof(zero))
}

// At returns lane i.
func (v Vector[T, A]) At(i int) T {
	return v.lanes()[i]
}

// Set assigns lane i.
func (v *Vector[T, A]) Set(i int, x T) {
	v.lanes()[i] = x
}

// Front returns the first lane. N must be at least one.
func (v Vector[T, A]) Front() T {
	return v.lanes()[0]
}

// Back returns the last lane. N must be at least one.
func (v Vector[T, A]) Back() T {
	lanes := v.lanes()
	return lanes[len(lanes)-1]
}

// Elements returns a copy of the lanes as a slice.
func (v Vector[T, A]) Elements() []T {
	out := make([]T, len(v.v))
	copy(out, v.lanes())
	return out
}

// Equal reports whether all lanes of v and o are equal.
func (v Vector[T, A]) Equal(o Vector[T, A]) bool {
	a, b := v.lanes(), o.lanes()
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (v Vector[T, A]) zip(o Vector[T, A], f func(a, b T) T) Vector[T, A] {
	var out Vector[T, A]
	dst, a, b := out.lanes(), v.lanes(), o.lanes()
	for i := range dst {
		dst[i] = f(a[i], b[i])
	}
	return out
}

func (v Vector[T, A]) mapLanes(f func(a T) T) Vector[T, A] {
	var out Vector[T, A]
	dst, a := out.lanes(), v.lanes()
	for i := range dst {
		dst[i] = f(a[i])
	}
	return out
}

// Add returns v + o lane by lane. Integer lanes wrap around.
func (v Vector[T, A]) Add(o Vector[T, A]) Vector[T, A] {
	return v.zip(o, func(a, b T) T { return a + b })
}

// Sub returns v - o lane by lane. Integer lanes wrap around.
func (v Vector[T, A]) Sub(o Vector[T, A]) Vector[T, A] {
	return v.zip(o, func(a, b T) T { return a - b })
}

// Mul returns v * o lane by lane.
func (v Vector[T, A]) Mul(o Vector[T, A]) Vector[T, A] {
	return v.zip(o, func(a, b T) T { return a * b })
}

// Div returns v / o lane by lane. Integer division by a zero lane panics.
func (v Vector[T, A]) Div(o Vector[T, A]) Vector[T, A] {
	return v.zip(o, func(a, b T) T { return a / b })
}

// Neg returns 0 - v with wraparound semantics for integer lanes.
func (v Vector[T, A]) Neg() Vector[T, A] {
	var zero Vector[T, A]
	return zero.Sub(v)
}

// AddAssign sets v to v.Add(o).
func (v *Vector[T, A]) AddAssign(o Vector[T, A]) {
	*v = v.Add(o)
}

// SubAssign sets v to v.Sub(o).
func (v *Vector[T, A]) SubAssign(o Vector[T, A]) {
	*v = v.Sub(o)
}

// MulAssign sets v to v.Mul(o).
func (v *Vector[T, A]) MulAssign(o Vector[T, A]) {
	*v = v.Mul(o)
}

// DivAssign sets v to v.Div(o).
func (v *Vector[T, A]) DivAssign(o Vector[T, A]) {
	*v = v.Div(o)
}

// Reinterpret returns the bits of v viewed as a vector of U lanes.
//
// Both vectors must have the same total byte size; a mismatch is a
// programming error and panics. No lane values are converted.
func Reinterpret[U Scalar, B Array[U], T Scalar, A Array[T]](v Vector[T, A]) Vector[U, B] {
	var out Vector[U, B]
	dst, src := out.bytes(), v.bytes()
	if len(dst) != len(src) {
		panic(fmt.Sprintf("simd: reinterpret %d byte vector as %d bytes", len(src), len(dst)))
	}
	copy(dst, src)
	return out
}
