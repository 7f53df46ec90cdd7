package simd

import (
	"fmt"
	"math/bits"
	"unsafe"
)

// byteSwapMasks holds the byte-reversal shuffle masks indexed by
// log2(element width) for 2, 4 and 8 byte elements. Indices are relative
// to each 16 byte lane, matching PSHUFB/VPSHUFB semantics.
var byteSwapMasks = func() (m [4][32]byte) {
	for shift := 1; shift < 4; shift++ {
		w := 1 << shift
		for i := range m[shift] {
			m[shift][i] = byte(((i/w)*w + (w - 1 - i%w)) & 15)
		}
	}
	return m
}()

// byteSwapMask returns the shuffle mask reversing the bytes of every
// w byte element of a vector.
func byteSwapMask(w int) *[32]byte {
	return &byteSwapMasks[bits.TrailingZeros(uint(w))]
}

// SwapEndian reverses the byte order of every lane of v in place.
//
// It is defined for integer lanes on 16 and 32 byte vectors; any other
// width panics. Single byte lanes are left untouched. When the CPU offers a
// wide byte shuffle the whole vector is permuted in one instruction with a
// precomputed mask, otherwise each lane is swapped on its own. Both paths
// produce identical bits.
func SwapEndian[T Integer, A Array[T]](v *Vector[T, A]) {
	w := checkSwapEndian(v)
	if w == 1 {
		return
	}
	if !swapEndianShuffle(v, w, kernelShuffle16, kernelShuffle32) {
		swapEndianLanes(v)
	}
}

func checkSwapEndian[T Integer, A Array[T]](v *Vector[T, A]) int {
	var zero T
	if width := v.Width(); width != 16 && width != 32 {
		panic(fmt.Sprintf("simd: swap endian needs a 16 or 32 byte vector, got %d bytes", width))
	}
	return int(unsafe.Sizeof(zero))
}

// swapEndianShuffle permutes v with the given shuffle kernels. It reports
// false when no kernel covers the vector width.
func swapEndianShuffle[T Integer, A Array[T]](v *Vector[T, A], w int, k16 shuffle16Func, k32 shuffle32Func) bool {
	raw := v.bytes()
	mask := byteSwapMask(w)
	switch len(raw) {
	case 16:
		if k16 == nil {
			return false
		}
		k16((*[16]byte)(raw), (*[16]byte)(raw), (*[16]byte)(mask[:16]))
		return true
	case 32:
		if k32 == nil {
			return false
		}
		k32((*[32]byte)(raw), (*[32]byte)(raw), mask)
		return true
	}
	return false
}

// swapEndianLanes is the portable path: one byte swap per lane.
func swapEndianLanes[T Integer, A Array[T]](v *Vector[T, A]) {
	lanes := v.lanes()
	for i := range lanes {
		lanes[i] = byteSwap(lanes[i])
	}
}

func byteSwap[T Integer](x T) T {
	switch unsafe.Sizeof(x) {
	case 2:
		return T(bits.ReverseBytes16(uint16(x)))
	case 4:
		return T(bits.ReverseBytes32(uint32(x)))
	case 8:
		return T(bits.ReverseBytes64(uint64(x)))
	default:
		return x
	}
}

// shuffleGeneric emulates PSHUFB on every 16 byte lane of src: a mask byte
// with the high bit set clears the destination byte, otherwise its low four
// bits select a byte of the same lane. dst may alias src.
func shuffleGeneric(dst, src, mask []byte) {
	var tmp [32]byte
	n := copy(tmp[:], src)
	for i := 0; i < n; i++ {
		m := mask[i]
		if m&0x80 != 0 {
			dst[i] = 0
			continue
		}
		dst[i] = tmp[i&^15+int(m&15)]
	}
}

func shuffle16Generic(dst, src, mask *[16]byte) {
	shuffleGeneric(dst[:], src[:], mask[:])
}

func shuffle32Generic(dst, src, mask *[32]byte) {
	shuffleGeneric(dst[:], src[:], mask[:])
}
