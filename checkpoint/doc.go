// Package checkpoint persists how far each stream has been scanned so a
// later run can resume at a record boundary.
//
// A checkpoint's offset is the byte just past the last fully processed
// record (linescan.Reader.Offset). Stores refuse to move an offset
// backwards, so a slow worker cannot undo the progress of a faster one.
//
//	cp, err := store.Load(ctx, "s3://logs/app.log")
//	if errors.Is(err, checkpoint.ErrNotFound) {
//		cp = checkpoint.Checkpoint{Stream: "s3://logs/app.log"}
//	}
package checkpoint
