package simd

import (
	"encoding/binary"
	"math/bits"
	"unsafe"
)

// Char is the set of element types a record terminator can be searched in:
// bytes, UTF-16 code units and UTF-32 code points.
type Char interface {
	~uint8 | ~uint16 | ~uint32 | ~int32
}

// blockBytes is the stride of the vector search.
const blockBytes = 16

type block = Vector[uint64, [2]uint64]

// nativeLittleEndian reports the byte order lanes are loaded in.
var nativeLittleEndian = binary.NativeEndian.Uint16([]byte{1, 0}) == 1

// IndexTerminator returns the index of the first element of s equal to
// term, or len(s) when s holds no terminator.
func IndexTerminator[T Char](s []T, term T) int {
	var zero T
	if unsafe.Sizeof(zero) == 1 {
		raw := unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(s))), len(s)) //nolint:gosec // same memory, byte view
		return kernelIndexByte(raw, byte(term))
	}
	return indexTerminatorGeneric(s, term)
}

// indexTerminatorGeneric scans s in 16 byte blocks. Each block is XORed with
// the broadcast terminator so matching elements become zero fields, then an
// exact per-field zero test (no carries cross field boundaries) flags them.
// The tail shorter than one block is scanned element by element.
func indexTerminatorGeneric[T Char](s []T, term T) int {
	var zero T
	w := int(unsafe.Sizeof(zero))
	per := blockBytes / w

	fieldBits := uint(8 * w)
	fieldMask := uint64(1)<<fieldBits - 1
	repeat := ^uint64(0) / fieldMask // 0x0101.., 0x00010001.., 0x0000000100000001
	low := Broadcast[uint64, [2]uint64]((fieldMask >> 1) * repeat)
	pattern := Broadcast[uint64, [2]uint64]((uint64(term) & fieldMask) * repeat)

	i := 0
	if len(s) >= per {
		raw := unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(s))), len(s)*w) //nolint:gosec // same memory, byte view
		for ; i+per <= len(s); i += per {
			var x block
			x.Load(raw[i*w:])
			x = Xor(x, pattern)
			hit := Not(Or(Or(And(x, low).Add(low), x), low))
			for lane := 0; lane < hit.Len(); lane++ {
				if m := hit.At(lane); m != 0 {
					return i + lane*(8/w) + firstField(m, fieldBits)
				}
			}
		}
	}
	for ; i < len(s); i++ {
		if s[i] == term {
			return i
		}
	}
	return len(s)
}

// firstField maps a word of per-field high-bit flags to the memory index of
// the first flagged field.
func firstField(m uint64, fieldBits uint) int {
	if nativeLittleEndian {
		return bits.TrailingZeros64(m) / int(fieldBits)
	}
	return bits.LeadingZeros64(m) / int(fieldBits)
}
