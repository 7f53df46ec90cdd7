package compress

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compressed(t *testing.T, typ Type, data string, opts ...WriterOption) []byte {
	t.Helper()

	var buf bytes.Buffer
	w, err := NewWriter(&buf, typ, opts...)
	require.NoError(t, err)
	_, err = io.WriteString(w, data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestRoundTrip(t *testing.T) {
	data := strings.Repeat("2026-01-02T03:04:05Z level=info msg=\"request served\" status=200\n", 500)

	for _, typ := range []Type{None, Gzip, Zstd, LZ4} {
		for _, level := range []int{0, 1, 9} {
			t.Run(typ.String(), func(t *testing.T) {
				enc := compressed(t, typ, data, WithLevel(level))
				if typ != None {
					assert.Less(t, len(enc), len(data))
				}

				r, err := NewReader(bytes.NewReader(enc), typ)
				require.NoError(t, err)
				got, err := io.ReadAll(r)
				require.NoError(t, err)
				require.NoError(t, r.Close())
				assert.Equal(t, data, string(got))
			})
		}
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name   string
		file   string
		header []byte
		want   Type
	}{
		{"Gzip magic", "app.log", []byte{0x1f, 0x8b, 0x08, 0x00}, Gzip},
		{"Zstd magic", "app.log", []byte{0x28, 0xb5, 0x2f, 0xfd}, Zstd},
		{"LZ4 magic", "app.log", []byte{0x04, 0x22, 0x4d, 0x18}, LZ4},
		{"Magic wins over extension", "app.log.gz", []byte{0x28, 0xb5, 0x2f, 0xfd}, Zstd},
		{"Gz extension", "app.log.gz", nil, Gzip},
		{"Zst extension", "s3://logs/app.ZST", []byte("plain"), Zstd},
		{"Lz4 extension", "app.lz4", nil, LZ4},
		{"Plain", "app.log", []byte("2026"), None},
		{"Short header", "app.log", []byte{0x28}, None},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.file, tt.header))
		})
	}
}

func TestOpen(t *testing.T) {
	const data = "a\nb\nc\n"

	for _, typ := range []Type{None, Gzip, Zstd, LZ4} {
		t.Run(typ.String(), func(t *testing.T) {
			// The name carries no hint; detection relies on magic bytes.
			r, got, err := Open(bytes.NewReader(compressed(t, typ, data)), "input")
			require.NoError(t, err)
			defer r.Close()

			assert.Equal(t, typ, got)
			out, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, data, string(out))
		})
	}

	t.Run("Empty", func(t *testing.T) {
		r, typ, err := Open(strings.NewReader(""), "empty.gz")
		require.NoError(t, err)
		assert.Equal(t, None, typ)
		out, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Empty(t, out)
	})
}

func TestZstdDecoderReuse(t *testing.T) {
	for i := range 5 {
		data := strings.Repeat("x", i*100) + "\n"
		r, err := NewReader(bytes.NewReader(compressed(t, Zstd, data)), Zstd)
		require.NoError(t, err)

		got, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, data, string(got))
		require.NoError(t, r.Close())
		require.NoError(t, r.Close())

		_, err = r.Read(make([]byte, 1))
		assert.Error(t, err)
	}
}

func TestCorruptInput(t *testing.T) {
	_, err := NewReader(strings.NewReader("not gzip"), Gzip)
	assert.Error(t, err)

	bad := compressed(t, Zstd, strings.Repeat("payload ", 100))
	bad[len(bad)/2] ^= 0xff
	r, err := NewReader(bytes.NewReader(bad), Zstd)
	if err == nil {
		_, err = io.ReadAll(r)
		r.Close()
	}
	assert.Error(t, err)
}

func TestParseType(t *testing.T) {
	for _, typ := range []Type{None, Gzip, Zstd, LZ4} {
		got, err := ParseType(typ.String())
		require.NoError(t, err)
		assert.Equal(t, typ, got)
	}

	got, err := ParseType("GZ")
	require.NoError(t, err)
	assert.Equal(t, Gzip, got)

	_, err = ParseType("brotli")
	assert.ErrorIs(t, err, ErrUnknownType)

	_, err = NewReader(nil, Type(42))
	assert.ErrorIs(t, err, ErrUnknownType)
	assert.Equal(t, "Type(42)", Type(42).String())
	assert.Equal(t, ".zst", Zstd.Extension())
}
