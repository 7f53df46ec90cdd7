package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/hupe1980/linescan/blobstore"
	"github.com/hupe1980/linescan/codec"
)

const blobSuffix = ".json"

// BlobStore keeps one JSON object per stream in a blobstore.BlobStore.
//
// Save serialises writers within one process. Writers in different
// processes sharing the backend can race between the stale check and the
// write; use the DynamoDB store for that.
type BlobStore struct {
	store  blobstore.BlobStore
	prefix string
	codec  codec.Codec

	mu sync.Mutex
}

// NewBlobStore stores checkpoints under prefix. A nil codec selects
// codec.Default.
func NewBlobStore(store blobstore.BlobStore, prefix string, c codec.Codec) *BlobStore {
	if c == nil {
		c = codec.Default
	}
	return &BlobStore{store: store, prefix: prefix, codec: c}
}

func (s *BlobStore) key(stream string) string {
	return s.prefix + url.PathEscape(stream) + blobSuffix
}

// Load implements Store.
func (s *BlobStore) Load(ctx context.Context, stream string) (Checkpoint, error) {
	b, err := s.store.Open(ctx, s.key(stream))
	if errors.Is(err, blobstore.ErrNotFound) {
		return Checkpoint{}, ErrNotFound
	}
	if err != nil {
		return Checkpoint{}, err
	}
	defer b.Close()

	data := make([]byte, b.Size())
	if n, err := b.ReadAt(ctx, data, 0); err != nil && !(errors.Is(err, io.EOF) && n == len(data)) {
		return Checkpoint{}, fmt.Errorf("checkpoint: read %s: %w", stream, err)
	}

	var cp Checkpoint
	if err := s.codec.Unmarshal(data, &cp); err != nil {
		return Checkpoint{}, fmt.Errorf("checkpoint: decode %s: %w", stream, err)
	}
	return cp, nil
}

// Save implements Store.
func (s *BlobStore) Save(ctx context.Context, cp Checkpoint) error {
	if err := cp.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.Load(ctx, cp.Stream)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return err
	case stored.Offset > cp.Offset:
		return stale(stored, cp)
	}

	data, err := s.codec.Marshal(stamp(cp))
	if err != nil {
		return fmt.Errorf("checkpoint: encode %s: %w", cp.Stream, err)
	}
	return s.store.Put(ctx, s.key(cp.Stream), data)
}

// Delete implements Store.
func (s *BlobStore) Delete(ctx context.Context, stream string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Delete(ctx, s.key(stream))
}

// Streams returns the names of all streams with a checkpoint.
func (s *BlobStore) Streams(ctx context.Context) ([]string, error) {
	keys, err := s.store.List(ctx, s.prefix)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, k := range keys {
		name, ok := strings.CutSuffix(strings.TrimPrefix(k, s.prefix), blobSuffix)
		if !ok {
			continue
		}
		if stream, err := url.PathUnescape(name); err == nil {
			out = append(out, stream)
		}
	}
	sort.Strings(out)
	return out, nil
}
