package main

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/hupe1980/linescan/blobstore"
	"github.com/hupe1980/linescan/checkpoint"
	"github.com/hupe1980/linescan/checkpoint/dynamodb"
	"github.com/hupe1980/linescan/codec"
)

const (
	ddbScheme = "ddb://"
	// memLocation keeps checkpoints for the lifetime of the process only.
	memLocation = "mem://"
)

// openCheckpoints returns the store configured by loc: a directory,
// s3://bucket/prefix, minio://bucket/prefix, ddb://table or mem:// for a
// dry run. It returns nil when checkpoints are disabled.
func openCheckpoints(ctx context.Context, loc string, r *resolver, c codec.Codec) (checkpoint.Store, error) {
	switch {
	case loc == "":
		return nil, nil
	case loc == memLocation:
		return checkpoint.NewMemoryStore(), nil
	case strings.HasPrefix(loc, ddbScheme):
		table := strings.TrimPrefix(loc, ddbScheme)
		if table == "" {
			return nil, errors.New("checkpoints: want ddb://table")
		}
		client, err := r.dynamoDB(ctx)
		if err != nil {
			return nil, err
		}
		return dynamodb.NewStore(client, table), nil
	}

	store, prefix, ok, err := r.remote(ctx, loc)
	if err != nil {
		return nil, err
	}
	if ok {
		return checkpoint.NewBlobStore(store, prefix, c), nil
	}

	dir := localPath(loc)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return checkpoint.NewBlobStore(blobstore.NewLocalStore(dir), "", c), nil
}

// resumePoint returns where stream should continue. Streams read from
// stdin are never resumed.
func (a *app) resumePoint(ctx context.Context, stream string) (checkpoint.Checkpoint, error) {
	cp := checkpoint.Checkpoint{Stream: stream}
	if a.checkpoints == nil || stream == stdinInput {
		return cp, nil
	}

	stored, err := a.checkpoints.Load(ctx, stream)
	if errors.Is(err, checkpoint.ErrNotFound) {
		return cp, nil
	}
	if err != nil {
		return cp, err
	}
	return stored, nil
}

// rewindCheckpoint drops the checkpoint of a stream that is rescanned
// from its start, so the lower offsets of the new scan are accepted.
func (a *app) rewindCheckpoint(ctx context.Context, stream string) error {
	if a.checkpoints == nil || stream == stdinInput {
		return nil
	}
	return a.checkpoints.Delete(ctx, stream)
}

// saveCheckpoint stores progress. A stale save means another run is
// further along and is not an error.
func (a *app) saveCheckpoint(ctx context.Context, cp checkpoint.Checkpoint) error {
	if a.checkpoints == nil || cp.Stream == stdinInput {
		return nil
	}
	cp.RunID = a.runID
	cp.UpdatedAt = a.now()

	err := a.checkpoints.Save(ctx, cp)
	if errors.Is(err, checkpoint.ErrStale) {
		a.logger.Debug("checkpoint behind another run", "stream", cp.Stream, "offset", cp.Offset)
		return nil
	}
	return err
}
