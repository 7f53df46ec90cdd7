package simd

import "bytes"

type (
	shuffle16Func func(dst, src, mask *[16]byte)
	shuffle32Func func(dst, src, mask *[32]byte)
)

// Kernel function pointers - set once at init, zero runtime overhead.
// Generic implementations are the default; selectKernels overrides them
// once CPU features are known. A nil shuffle kernel means SwapEndian takes
// the per-lane path.
var (
	kernelIndexByte = indexTerminatorGeneric[byte]
	kernelShuffle16 shuffle16Func
	kernelShuffle32 shuffle32Func
)

// selectKernels wires the kernels for the active ISA.
func selectKernels() {
	kernelIndexByte = indexTerminatorGeneric[byte]
	kernelShuffle16, kernelShuffle32 = nil, nil

	if activeISA == Generic {
		return
	}

	// The runtime already ships vectorised IndexByte for amd64 and arm64.
	kernelIndexByte = indexByteRuntime
	selectShuffleKernels()
}

func indexByteRuntime(s []byte, c byte) int {
	if i := bytes.IndexByte(s, c); i >= 0 {
		return i
	}
	return len(s)
}
