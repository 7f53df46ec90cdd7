package blobstore

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalBlobStore_Lifecycle(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewLocalStore(tmpDir)
	ctx := context.Background()

	blobName := "logs/app-001.log"
	data := []byte("hello world\nthis is a test blob\n")

	w, err := store.Create(ctx, blobName)
	require.NoError(t, err)

	n, err := w.Write(data)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.NoError(t, w.Sync())

	// Not visible before Close.
	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, w.Close())

	_, err = os.Stat(filepath.Join(tmpDir, "logs", "app-001.log"))
	require.NoError(t, err)

	blob, err := store.Open(ctx, blobName)
	require.NoError(t, err)
	defer blob.Close()

	require.Equal(t, int64(len(data)), blob.Size())

	buf := make([]byte, 5)
	n, err = blob.ReadAt(ctx, buf, 6)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, "world", string(buf))

	rangeReader, err := blob.ReadRange(ctx, 12, 4)
	require.NoError(t, err)
	rangeContent, err := io.ReadAll(rangeReader)
	require.NoError(t, err)
	require.NoError(t, rangeReader.Close())
	require.Equal(t, "this", string(rangeContent))

	m, ok := blob.(Mappable)
	require.True(t, ok)
	mapped, err := m.Bytes()
	require.NoError(t, err)
	require.Equal(t, data, mapped)

	require.NoError(t, store.Put(ctx, "logs/app-002.log", []byte("x\n")))
	require.NoError(t, store.Put(ctx, "other.txt", nil))

	names, err = store.List(ctx, "logs/")
	require.NoError(t, err)
	require.Equal(t, []string{"logs/app-001.log", "logs/app-002.log"}, names)

	require.NoError(t, store.Delete(ctx, "logs/app-002.log"))
	require.NoError(t, store.Delete(ctx, "logs/app-002.log"))

	names, err = store.List(ctx, "")
	require.NoError(t, err)
	require.Equal(t, []string{"logs/app-001.log", "other.txt"}, names)

	_, err = store.Open(ctx, "logs/app-002.log")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLocalBlobStore_ReadRange_Boundaries(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx := context.Background()

	data := []byte("0123456789")
	require.NoError(t, store.Put(ctx, "boundary.bin", data))

	blob, err := store.Open(ctx, "boundary.bin")
	require.NoError(t, err)
	defer blob.Close()

	r, err := blob.ReadRange(ctx, 0, 10)
	require.NoError(t, err)
	content, _ := io.ReadAll(r)
	r.Close()
	require.True(t, bytes.Equal(data, content))

	r, err = blob.ReadRange(ctx, 8, 5)
	require.NoError(t, err)
	content, err = io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, "89", string(content))
	r.Close()

	_, err = blob.ReadRange(ctx, 20, 5)
	require.ErrorIs(t, err, io.EOF)
}

func TestLocalBlobStore_EmptyAndMissingRoot(t *testing.T) {
	ctx := context.Background()

	missing := NewLocalStore(filepath.Join(t.TempDir(), "absent"))
	names, err := missing.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, names)

	store := NewLocalStore(t.TempDir())
	require.NoError(t, store.Put(ctx, "empty", nil))
	blob, err := store.Open(ctx, "empty")
	require.NoError(t, err)
	assert.Zero(t, blob.Size())
	data, err := blob.(Mappable).Bytes()
	require.NoError(t, err)
	assert.Empty(t, data)
	require.NoError(t, blob.Close())
}

func TestSectionReader(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "b", []byte("abcdefgh")))

	blob, err := store.Open(ctx, "b")
	require.NoError(t, err)

	got, err := io.ReadAll(SectionReader(ctx, blob, 2, 4))
	require.NoError(t, err)
	assert.Equal(t, "cdef", string(got))
}
