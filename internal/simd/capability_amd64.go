//go:build amd64

package simd

import "golang.org/x/sys/cpu"

func init() {
	hasSSSE3 = cpu.X86.HasSSSE3
	hasAVX2 = cpu.X86.HasAVX2
	initCapabilities()
}
