package simd

import (
	"os"
	"runtime"
	"strings"
)

// ISA represents a SIMD instruction set architecture.
type ISA uint8

const (
	// Generic represents pure Go implementation (no SIMD).
	Generic ISA = iota
	// SSSE3 represents x86-64 SSSE3 (128-bit PSHUFB byte shuffle).
	SSSE3
	// AVX2 represents x86-64 AVX2 (256-bit VPSHUFB byte shuffle).
	AVX2
	// NEON represents ARM64 NEON (128-bit SIMD, ASIMD).
	NEON
)

// String returns the string representation of an ISA.
func (i ISA) String() string {
	switch i {
	case Generic:
		return "generic"
	case SSSE3:
		return "ssse3"
	case AVX2:
		return "avx2"
	case NEON:
		return "neon"
	default:
		return "unknown"
	}
}

// ParseISA parses a string into an ISA value.
func ParseISA(s string) (ISA, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "generic":
		return Generic, true
	case "ssse3":
		return SSSE3, true
	case "avx2":
		return AVX2, true
	case "neon":
		return NEON, true
	default:
		return Generic, false
	}
}

// Package-level state - initialized once at package init.
// No mutex needed: Go guarantees init() runs before any other code.
var (
	// activeISA is the selected SIMD implementation.
	activeISA ISA

	// hasOverride is true if LINESCAN_SIMD was set.
	hasOverride bool

	// CPU feature flags (set by platform-specific init)
	hasSSSE3 bool // x86-64 SSSE3
	hasAVX2  bool // x86-64 AVX2
	hasASIMD bool // ARM64 NEON
)

// initCapabilities is called from platform-specific init functions
// after CPU features are detected.
func initCapabilities() {
	activeISA = resolveISA()
	selectKernels()
}

// resolveISA honours a valid LINESCAN_SIMD override and otherwise picks the
// best available ISA.
func resolveISA() ISA {
	if override := os.Getenv("LINESCAN_SIMD"); override != "" {
		if isa, ok := ParseISA(override); ok {
			hasOverride = true
			if isISAAvailable(isa) {
				return isa
			}
			// Unavailable override - fall through to auto-detection
		}
	}
	return selectBestISA()
}

// isISAAvailable checks if an ISA is supported on this CPU.
func isISAAvailable(isa ISA) bool {
	switch isa {
	case Generic:
		return true
	case SSSE3:
		return hasSSSE3
	case AVX2:
		return hasAVX2
	case NEON:
		return hasASIMD
	default:
		return false
	}
}

// selectBestISA chooses the optimal ISA for the current platform.
func selectBestISA() ISA {
	switch runtime.GOARCH {
	case "amd64":
		if hasAVX2 {
			return AVX2
		}
		if hasSSSE3 {
			return SSSE3
		}
		return Generic
	case "arm64":
		if hasASIMD {
			return NEON
		}
		return Generic
	default:
		return Generic
	}
}

// ActiveISA returns the currently active ISA.
func ActiveISA() ISA {
	return activeISA
}

// IsOverridden returns true if LINESCAN_SIMD was set.
func IsOverridden() bool {
	return hasOverride
}

// HasSSSE3 returns true if x86-64 SSSE3 is available.
func HasSSSE3() bool {
	return hasSSSE3
}

// HasAVX2 returns true if x86-64 AVX2 is available.
func HasAVX2() bool {
	return hasAVX2
}

// HasASIMD returns true if ARM64 NEON is available.
func HasASIMD() bool {
	return hasASIMD
}
