// Package lineindex records where the terminators of a record stream are,
// so that line n can be located without rescanning the stream.
//
// Terminator offsets are kept in a compressed 64-bit roaring bitmap. An
// index serialises to a small self-checking file that can be stored next
// to the stream it describes.
package lineindex
