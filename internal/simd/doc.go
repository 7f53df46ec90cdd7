// Package simd provides the fixed-width vector primitive and the kernels built on it.
//
// # Supported Platforms
//
//   - x86-64: AVX2, SSSE3 (byte shuffles)
//   - ARM64: NEON (detected, generic kernels)
//
// Runtime CPU feature detection selects the optimal implementation.
// Build with -tags noasm to force the generic Go fallback, or set
// LINESCAN_SIMD=generic to select it at runtime.
//
// # Operations
//
//   - Vector: load/store, element-wise arithmetic, bitwise and shift operators,
//     bit reinterpretation, endianness swap
//   - Search: IndexTerminator over 1, 2 and 4 byte elements
//
// Every accelerated kernel has a generic twin and both must produce identical
// results; the tests compare them on the same inputs.
package simd
