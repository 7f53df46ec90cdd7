package linescan

import "github.com/hupe1980/linescan/internal/simd"

// FindTerminator returns the index of the first element of s equal to
// term, or len(s) if there is none.
func FindTerminator[T simd.Char](s []T, term T) int {
	return simd.IndexTerminator(s, term)
}

// IndexLF returns the index of the first '\n' in s, or len(s).
func IndexLF(s []byte) int {
	return simd.IndexTerminator(s, '\n')
}
