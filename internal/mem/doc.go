// Package mem provides aligned heap allocation.
//
// Staging buffers allocated here start on a 32 byte boundary, so the first
// block of a staged record never splits an AVX2 load across cache lines.
package mem
