// Package mmap maps files and anonymous memory for the scanner.
//
// Read-only file mappings let a whole input be handed to the scanner as a
// single chunk with no copy; anonymous read-write mappings back the
// off-heap staging buffers.
//
//	m, err := mmap.Open("access.log")
//	if err != nil { ... }
//	defer m.Close()
//	m.Advise(mmap.AccessSequential)
//	data := m.Bytes()
//
// On Unix the package uses mmap(2) and madvise(2). On Windows it uses
// CreateFileMapping/MapViewOfFile for files and VirtualAlloc for anonymous
// memory; advice is a no-op there.
//
// Close is idempotent. Callers must stop using Bytes once Close returns.
package mmap
