package linescan

import (
	"bytes"
	"errors"
	"log/slog"
	"slices"
	"testing"
	"unicode/utf16"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/linescan/buffer"
	"github.com/hupe1980/linescan/resource"
)

// feed runs every chunk through sc and returns the completed records,
// followed by the Finish record if there is one.
func feed[T Char](t *testing.T, sc *Scanner[T], chunks ...[]T) [][]T {
	t.Helper()

	var out [][]T
	for _, chunk := range chunks {
		for len(chunk) > 0 {
			res, err := sc.Next(chunk)
			require.NoError(t, err)
			if res.Status == StatusPartial {
				require.Equal(t, len(chunk), res.Consumed)
				break
			}
			out = append(out, slices.Clone(res.View))
			chunk = chunk[res.Advance():]
		}
	}
	if res, ok := sc.Finish(); ok {
		out = append(out, slices.Clone(res.View))
	}
	return out
}

func strs(recs [][]byte) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = string(r)
	}
	return out
}

func aliases[T any](a, b []T) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	start := uintptr(unsafe.Pointer(unsafe.SliceData(b)))
	end := start + uintptr(len(b))*unsafe.Sizeof(b[0])
	p := uintptr(unsafe.Pointer(unsafe.SliceData(a)))
	return p >= start && p < end
}

func TestScanner_SplitRecord(t *testing.T) {
	sc, err := NewScanner[byte]()
	require.NoError(t, err)
	defer sc.Close()

	first := []byte("abc\n")
	res, err := sc.Next(first)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, res.Status)
	assert.Equal(t, "abc", string(res.View))
	assert.Equal(t, 3, res.Consumed)
	assert.Equal(t, 4, res.Advance())
	assert.True(t, aliases(res.View, first), "record within one chunk is a view into it")

	res, err = sc.Next([]byte("de"))
	require.NoError(t, err)
	assert.Equal(t, StatusPartial, res.Status)
	assert.Nil(t, res.View)
	assert.Equal(t, 2, res.Consumed)
	assert.Equal(t, 2, res.Advance())
	assert.True(t, sc.Continuing())
	assert.Equal(t, 2, sc.Staged())

	last := []byte("f\n")
	res, err = sc.Next(last)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, res.Status)
	assert.Equal(t, "def", string(res.View))
	assert.Equal(t, 1, res.Consumed)
	assert.False(t, aliases(res.View, last), "assembled record lives in the staging buffer")
	assert.False(t, sc.Continuing())
	assert.Zero(t, sc.Staged())
}

func TestScanner_NeverLooksPastTerminator(t *testing.T) {
	sc, err := NewScanner[byte]()
	require.NoError(t, err)

	chunk := []byte("a\nb\nc")
	res, err := sc.Next(chunk)
	require.NoError(t, err)
	assert.Equal(t, "a", string(res.View))
	assert.False(t, sc.Continuing())

	// The remainder is the caller's to resubmit.
	res, err = sc.Next(chunk[res.Advance():])
	require.NoError(t, err)
	assert.Equal(t, "b", string(res.View))
	assert.Equal(t, 1, res.Consumed)
}

func TestScanner_EverySplitPoint(t *testing.T) {
	input := []byte("ab\ncd\n\nefg\nh")
	want := []string{"ab", "cd", "", "efg", "h"}

	for i := 0; i <= len(input); i++ {
		for j := i; j <= len(input); j++ {
			sc, err := NewScanner[byte]()
			require.NoError(t, err)

			got := strs(feed(t, sc, input[:i], input[i:j], input[j:]))
			assert.Equal(t, want, got, "split at %d,%d", i, j)
			require.NoError(t, sc.Close())
		}
	}
}

func TestScanner_ByteAtATime(t *testing.T) {
	input := []byte("one\ntwo\nthree\n")
	sc, err := NewScanner[byte]()
	require.NoError(t, err)

	var chunks [][]byte
	for i := range input {
		chunks = append(chunks, input[i:i+1])
	}
	assert.Equal(t, []string{"one", "two", "three"}, strs(feed(t, sc, chunks...)))
}

func TestScanner_EmptyChunk(t *testing.T) {
	mc := &BasicMetricsCollector{}
	sc, err := NewScanner[byte](WithMetricsCollector(mc))
	require.NoError(t, err)

	for range 3 {
		res, err := sc.Next(nil)
		require.NoError(t, err)
		assert.Equal(t, StatusPartial, res.Status)
		assert.Zero(t, res.Consumed)
		assert.True(t, sc.Continuing())
		assert.Zero(t, sc.Staged())
	}

	// A record that only followed empty chunks is still zero-copy.
	chunk := []byte("x\n")
	res, err := sc.Next(chunk)
	require.NoError(t, err)
	assert.Equal(t, "x", string(res.View))
	assert.True(t, aliases(res.View, chunk))
	assert.EqualValues(t, 1, mc.GetStats().ZeroCopy)
}

func TestScanner_EmptyChunkKeepsStagedData(t *testing.T) {
	sc, err := NewScanner[byte]()
	require.NoError(t, err)

	assert.Equal(t, []string{"abcd"}, strs(feed(t, sc,
		[]byte("ab"), nil, []byte("c"), nil, nil, []byte("d\n"),
	)))

	_, err = sc.Next([]byte("ab"))
	require.NoError(t, err)
	_, err = sc.Next(nil)
	require.NoError(t, err)
	assert.Equal(t, 2, sc.Staged())
}

func TestScanner_Finish(t *testing.T) {
	sc, err := NewScanner[byte]()
	require.NoError(t, err)

	_, ok := sc.Finish()
	assert.False(t, ok, "nothing pending")

	_, err = sc.Next([]byte("tail"))
	require.NoError(t, err)

	res, ok := sc.Finish()
	require.True(t, ok)
	assert.Equal(t, StatusOK, res.Status)
	assert.Equal(t, "tail", string(res.View))
	assert.False(t, sc.Continuing())

	_, ok = sc.Finish()
	assert.False(t, ok)

	// Empty chunks alone leave nothing to finish.
	_, err = sc.Next(nil)
	require.NoError(t, err)
	_, ok = sc.Finish()
	assert.False(t, ok)
}

func TestScanner_Init(t *testing.T) {
	sc, err := NewScanner[byte]()
	require.NoError(t, err)

	_, err = sc.Next([]byte("stale"))
	require.NoError(t, err)
	capBefore := sc.Capacity()

	sc.Init()
	assert.False(t, sc.Continuing())
	assert.Equal(t, capBefore, sc.Capacity())

	assert.Equal(t, []string{"fresh"}, strs(feed(t, sc, []byte("fresh\n"))))
}

func TestScanner_Close(t *testing.T) {
	alloc := buffer.NewCounting[byte](nil)
	sc, err := NewScanner[byte](WithAllocator[byte](alloc))
	require.NoError(t, err)

	_, err = sc.Next([]byte("pending"))
	require.NoError(t, err)
	assert.EqualValues(t, 1, alloc.Live())

	require.NoError(t, sc.Close())
	require.NoError(t, sc.Close())
	assert.Zero(t, alloc.Live())
	assert.Zero(t, alloc.LiveElements())

	_, err = sc.Next([]byte("x\n"))
	assert.ErrorIs(t, err, ErrClosed)
	_, ok := sc.Finish()
	assert.False(t, ok)
}

func TestScanner_GrowthReusesCapacity(t *testing.T) {
	alloc := buffer.NewCounting[byte](nil)
	sc, err := NewScanner[byte](WithAllocator[byte](alloc))
	require.NoError(t, err)

	big := bytes.Repeat([]byte("x"), 100)
	feed(t, sc, big, []byte("\n"))
	allocs := alloc.Allocations()
	capacity := sc.Capacity()
	assert.GreaterOrEqual(t, capacity, 100)

	// A smaller split record fits the existing storage.
	assert.Equal(t, []string{"abc"}, strs(feed(t, sc, []byte("ab"), []byte("c\n"))))
	assert.Equal(t, allocs, alloc.Allocations())
	assert.Equal(t, capacity, sc.Capacity())
}

func TestScanner_InitialCapacity(t *testing.T) {
	sc, err := NewScanner[byte](WithInitialCapacity(64))
	require.NoError(t, err)
	assert.Equal(t, 64, sc.Capacity())

	rc := resource.NewController(resource.Config{MemoryLimitBytes: 16})
	_, err = NewScanner[byte](WithResourceController(rc), WithInitialCapacity(64))
	assert.ErrorIs(t, err, resource.ErrMemoryLimitExceeded)
}

func TestScanner_AllocationFailure(t *testing.T) {
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 8})
	mc := &BasicMetricsCollector{}
	sc, err := NewScanner[byte](WithResourceController(rc), WithMetricsCollector(mc))
	require.NoError(t, err)

	_, err = sc.Next([]byte("abc"))
	require.NoError(t, err)
	assert.EqualValues(t, 3, rc.MemoryUsage())

	_, err = sc.Next([]byte("0123456789"))
	require.Error(t, err)

	var allocErr *ErrAllocation
	require.True(t, errors.As(err, &allocErr))
	assert.Equal(t, 10, allocErr.Requested)
	assert.Equal(t, 3, allocErr.Staged)
	assert.ErrorIs(t, err, resource.ErrMemoryLimitExceeded)

	// The record is abandoned and the scanner starts fresh.
	assert.False(t, sc.Continuing())
	assert.Zero(t, sc.Staged())
	assert.EqualValues(t, 1, mc.GetStats().AllocFailures)

	assert.Equal(t, []string{"ok"}, strs(feed(t, sc, []byte("ok\n"))))

	require.NoError(t, sc.Close())
	assert.Zero(t, rc.MemoryUsage())
}

func TestScanner_UTF16(t *testing.T) {
	sc, err := NewScanner[uint16]()
	require.NoError(t, err)

	input := utf16.Encode([]rune("héllo\nwörld 😀\nend"))
	recs := feed(t, sc, input[:3], input[3:9], input[9:])

	got := make([]string, len(recs))
	for i, r := range recs {
		got[i] = string(utf16.Decode(r))
	}
	assert.Equal(t, []string{"héllo", "wörld 😀", "end"}, got)
}

func TestScanner_Runes(t *testing.T) {
	sc, err := NewScanner[rune](WithTerminator('€'))
	require.NoError(t, err)

	input := []rune("10€20€3\n0€")
	recs := feed(t, sc, input[:4], input[4:])

	got := make([]string, len(recs))
	for i, r := range recs {
		got[i] = string(r)
	}
	assert.Equal(t, []string{"10", "20", "3\n0"}, got)
}

func TestScanner_CustomTerminator(t *testing.T) {
	sc, err := NewScanner[byte](WithTerminator(0))
	require.NoError(t, err)

	assert.Equal(t, []string{"a\nb", "c"}, strs(feed(t, sc, []byte("a\nb\x00c\x00"))))
}

func TestNewScanner_InvalidTerminator(t *testing.T) {
	_, err := NewScanner[byte](WithTerminator('€'))
	var termErr *ErrInvalidTerminator
	require.True(t, errors.As(err, &termErr))
	assert.Equal(t, '€', termErr.Terminator)
	assert.Equal(t, 1, termErr.ElemSize)

	_, err = NewScanner[uint16](WithTerminator('😀'))
	require.True(t, errors.As(err, &termErr))
	assert.Equal(t, 2, termErr.ElemSize)

	_, err = NewScanner[uint16](WithTerminator('€'))
	assert.NoError(t, err)
}

func TestNewScanner_AllocatorMismatch(t *testing.T) {
	_, err := NewScanner[uint16](WithAllocator[byte](buffer.Heap[byte]{}))
	assert.ErrorIs(t, err, ErrAllocatorMismatch)

	_, err = NewScanner[uint16](WithAllocator[uint16](buffer.Aligned[uint16]{}))
	assert.NoError(t, err)
}

func TestScanner_MmapAllocator(t *testing.T) {
	alloc := buffer.NewMmap[byte]()
	sc, err := NewScanner[byte](WithAllocator[byte](alloc))
	require.NoError(t, err)

	assert.Equal(t, []string{"mapped", "staging"}, strs(feed(t, sc, []byte("map"), []byte("ped\nstag"), []byte("ing"))))
	require.NoError(t, sc.Close())
	assert.Zero(t, alloc.Live())
}

func TestScanner_Logging(t *testing.T) {
	var logs bytes.Buffer
	logger := NewLogger(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	sc, err := NewScanner[byte](WithLogger(logger))
	require.NoError(t, err)

	feed(t, sc, []byte("abc"), []byte("def\n"))
	assert.Contains(t, logs.String(), `"msg":"staging buffer grown"`)
	assert.Contains(t, logs.String(), `"new_cap":`)
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "partial", StatusPartial.String())
	assert.Equal(t, "ok", StatusOK.String())
	assert.Equal(t, "Status(7)", Status(7).String())
}

func BenchmarkScanner_Next(b *testing.B) {
	line := append(bytes.Repeat([]byte("x"), 79), '\n')
	chunk := bytes.Repeat(line, 800)

	sc, err := NewScanner[byte]()
	require.NoError(b, err)

	b.SetBytes(int64(len(chunk)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rest := chunk
		for len(rest) > 0 {
			res, err := sc.Next(rest)
			if err != nil {
				b.Fatal(err)
			}
			rest = rest[res.Advance():]
		}
	}
}
