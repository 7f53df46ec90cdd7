// Package conv provides safe integer type conversion utilities.
//
// Stream offsets are int64 in the public API and uint64 inside roaring
// bitmaps and on-disk headers. These helpers check the bounds when
// crossing between the two, typically when validating data read back from
// storage.
//
// For conversions that are provably safe by domain constraints (e.g., loop
// indices, bounded counters), use direct type casts instead to avoid overhead.
package conv
