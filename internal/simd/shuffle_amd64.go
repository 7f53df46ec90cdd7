//go:build amd64 && !noasm

package simd

//go:noescape
func pshufb16(dst, src, mask *[16]byte)

//go:noescape
func vpshufb32(dst, src, mask *[32]byte)

func selectShuffleKernels() {
	switch activeISA {
	case AVX2:
		kernelShuffle16 = pshufb16
		kernelShuffle32 = vpshufb32
	case SSSE3:
		kernelShuffle16 = pshufb16
	}
}
