package simd

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func naiveIndex[T Char](s []T, term T) int {
	for i, c := range s {
		if c == term {
			return i
		}
	}
	return len(s)
}

func TestIndexTerminator_Bytes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{"Empty", "", 0},
		{"Absent short", "abc", 3},
		{"First", "\nabc", 0},
		{"Last of block", "0123456789abcde\n", 15},
		{"Second block", "0123456789abcdef0\n", 17},
		{"Absent long", "0123456789abcdef0123456789abcdef012", 35},
		{"Tail", "0123456789abcdef012\n", 19},
		{"Byte 0x8a is not LF", "\x8a\x8a\x8a\x8a\x8a\x8a\x8a\x8a\x8a\x8a\x8a\x8a\x8a\x8a\x8a\x8a\x0a", 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := []byte(tt.in)
			assert.Equal(t, tt.want, IndexTerminator(s, '\n'))
			assert.Equal(t, tt.want, indexTerminatorGeneric(s, '\n'))
			assert.Equal(t, tt.want, indexByteRuntime(s, '\n'))
		})
	}
}

func TestIndexTerminator_NoFalsePositiveAfterBorrow(t *testing.T) {
	// A 0x01 directly after the terminator is the classic SWAR false
	// positive; the first match must still be the real one.
	s := make([]byte, 32)
	for i := range s {
		s[i] = 'x'
	}
	s[20] = '\n'
	s[21] = '\n' ^ 0x01
	assert.Equal(t, 20, indexTerminatorGeneric(s, '\n'))
}

func TestIndexTerminator_Wide(t *testing.T) {
	u16 := []uint16{'a', 'b', 'c', 'd', 'e', 'f', 'g', 'h', 'i', '\n', 'k'}
	assert.Equal(t, 9, IndexTerminator(u16, '\n'))
	assert.Equal(t, 9, IndexTerminator(u16[:9], '\n'))

	runes := []rune("héllo wörld, this is long enough\n")
	assert.Equal(t, len(runes)-1, IndexTerminator(runes, '\n'))

	neg := []int32{1, 2, 3, 4, -1, 5}
	assert.Equal(t, 4, IndexTerminator(neg, -1))

	u32 := []uint32{0xFFFF000A, 0x000A0000, 10}
	assert.Equal(t, 2, IndexTerminator(u32, 10))
}

func TestIndexTerminator_RandomAgreement(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for iter := 0; iter < 500; iter++ {
		n := rng.Intn(100)
		b := make([]byte, n)
		u := make([]uint16, n)
		r := make([]int32, n)
		for i := 0; i < n; i++ {
			// Small alphabet so terminators show up often.
			c := byte(rng.Intn(12))
			b[i] = c
			u[i] = uint16(c) | uint16(rng.Intn(2))<<8
			r[i] = int32(c) - int32(rng.Intn(2))<<20
		}
		assert.Equal(t, naiveIndex(b, 10), IndexTerminator(b, 10))
		assert.Equal(t, naiveIndex(b, 10), indexTerminatorGeneric(b, 10))
		assert.Equal(t, naiveIndex(u, 10), IndexTerminator(u, 10))
		assert.Equal(t, naiveIndex(r, 10), IndexTerminator(r, 10))
	}
}

func BenchmarkIndexTerminator(b *testing.B) {
	data := bytes.Repeat([]byte("a"), 4096)
	data[len(data)-1] = '\n'

	b.Run("dispatch", func(b *testing.B) {
		b.SetBytes(int64(len(data)))
		for b.Loop() {
			_ = IndexTerminator(data, '\n')
		}
	})
	b.Run("generic", func(b *testing.B) {
		b.SetBytes(int64(len(data)))
		for b.Loop() {
			_ = indexTerminatorGeneric(data, '\n')
		}
	})
}
