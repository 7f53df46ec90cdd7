package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned by Load when a stream has no checkpoint.
	ErrNotFound = errors.New("checkpoint: not found")

	// ErrStale is returned by Save when the stored offset is already
	// beyond the one being saved.
	ErrStale = errors.New("checkpoint: stale offset")

	// ErrInvalid is returned for a checkpoint without a stream name or
	// with a negative offset.
	ErrInvalid = errors.New("checkpoint: invalid")
)

// Checkpoint is the resume point of one stream.
type Checkpoint struct {
	Stream    string    `json:"stream"`
	Offset    int64     `json:"offset"`
	Records   int64     `json:"records"`
	RunID     string    `json:"run_id,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate reports whether cp can be stored.
func (cp Checkpoint) Validate() error {
	if cp.Stream == "" {
		return fmt.Errorf("%w: empty stream name", ErrInvalid)
	}
	if cp.Offset < 0 || cp.Records < 0 {
		return fmt.Errorf("%w: negative offset or record count", ErrInvalid)
	}
	return nil
}

// Store loads and saves checkpoints. Implementations must be safe for
// concurrent use.
type Store interface {
	// Load returns the checkpoint of stream or ErrNotFound.
	Load(ctx context.Context, stream string) (Checkpoint, error)

	// Save stores cp unless the stored offset is greater, in which case
	// it returns ErrStale. Saving an equal offset succeeds.
	Save(ctx context.Context, cp Checkpoint) error

	// Delete removes the checkpoint of stream so the next Save may start
	// from any offset. Deleting a missing checkpoint is not an error.
	Delete(ctx context.Context, stream string) error
}

func stale(stored, cp Checkpoint) error {
	return fmt.Errorf("%w: %s at %d, saving %d", ErrStale, cp.Stream, stored.Offset, cp.Offset)
}

// stamp fills UpdatedAt if the caller left it zero.
func stamp(cp Checkpoint) Checkpoint {
	if cp.UpdatedAt.IsZero() {
		cp.UpdatedAt = time.Now().UTC()
	}
	return cp
}
