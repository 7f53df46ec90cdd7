// Package buffer provides Buffer, a growable, exclusively owned staging
// area, and the Allocator capability it draws storage from.
//
// A Buffer holds a begin/current/end range: Len is the staged element
// count and Cap the allocated one. Storage is never shared. MoveFrom
// transfers it between buffers and Release returns it to the allocator
// exactly once.
//
// Allocators:
//
//   - Heap: plain Go slices.
//   - Aligned: Go slices starting on a vector boundary.
//   - Mmap: anonymous mappings outside the Go heap.
//   - Budgeted: charges another allocator's storage to a resource.Controller.
//   - Counting: tracks allocations, for tests and metrics.
package buffer
