package checkpoint

import (
	"context"
	"strings"
	"sync"

	"github.com/google/btree"
)

// MemoryStore keeps checkpoints in an ordered in-memory tree.
type MemoryStore struct {
	mu   sync.RWMutex
	tree *btree.BTreeG[Checkpoint]
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tree: btree.NewG(32, func(a, b Checkpoint) bool { return a.Stream < b.Stream }),
	}
}

// Load implements Store.
func (m *MemoryStore) Load(_ context.Context, stream string) (Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cp, ok := m.tree.Get(Checkpoint{Stream: stream})
	if !ok {
		return Checkpoint{}, ErrNotFound
	}
	return cp, nil
}

// Save implements Store.
func (m *MemoryStore) Save(_ context.Context, cp Checkpoint) error {
	if err := cp.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if stored, ok := m.tree.Get(cp); ok && stored.Offset > cp.Offset {
		return stale(stored, cp)
	}
	m.tree.ReplaceOrInsert(stamp(cp))
	return nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, stream string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tree.Delete(Checkpoint{Stream: stream})
	return nil
}

// List returns the checkpoints whose stream starts with prefix, ordered
// by stream name.
func (m *MemoryStore) List(_ context.Context, prefix string) ([]Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Checkpoint
	m.tree.AscendGreaterOrEqual(Checkpoint{Stream: prefix}, func(cp Checkpoint) bool {
		if !strings.HasPrefix(cp.Stream, prefix) {
			return false
		}
		out = append(out, cp)
		return true
	})
	return out, nil
}

// Len returns the number of stored checkpoints.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tree.Len()
}
