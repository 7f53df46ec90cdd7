// Package hash provides CRC32-Castagnoli checksums.
//
// CRC32C is hardware accelerated on x86 (SSE4.2) and ARM (CRC extension).
// It protects persisted line indexes and is the checksum S3 uploads carry.
//
//	sum := hash.CRC32C(data)
//
//	h := hash.NewCRC32C()
//	h.Write(chunk1)
//	h.Write(chunk2)
//	sum = h.Sum32()
package hash
