package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hupe1980/linescan/blobstore"
	"github.com/hupe1980/linescan/compress"
	"github.com/hupe1980/linescan/resource"
)

// input is an opened stream positioned at its resume offset.
type input struct {
	// blob is set for uncompressed blobs, which are scanned in place.
	blob blobstore.Blob
	// r is the decompressed stream otherwise.
	r   io.Reader
	typ compress.Type
	// restarted reports that the resume offset lay beyond the stream
	// and the stream was reopened at its start.
	restarted bool

	closers []io.Closer
}

func (in *input) close() {
	for i := len(in.closers) - 1; i >= 0; i-- {
		_ = in.closers[i].Close()
	}
}

func (a *app) openInput(ctx context.Context, name string, base int64) (*input, error) {
	if name == stdinInput {
		rc, typ, err := a.decompress(resource.NewRateLimitedReader(ctx, a.stdin, a.rc), name, a.set.compression)
		if err != nil {
			return nil, err
		}
		return &input{r: rc, typ: typ, closers: []io.Closer{rc}}, nil
	}

	blob, err := a.stores.open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	in := &input{closers: []io.Closer{blob}}

	in.typ = a.set.compression
	if blob.Size() == 0 {
		in.typ = compress.None
	} else if a.set.autoDetect {
		header := make([]byte, 4)
		n, err := blob.ReadAt(ctx, header, 0)
		if err != nil && !errors.Is(err, io.EOF) {
			in.close()
			return nil, fmt.Errorf("read header of %s: %w", name, err)
		}
		in.typ = compress.Detect(name, header[:n])
	}

	if in.typ == compress.None {
		if base > blob.Size() {
			in.restarted = true
		}
		in.blob = blob
		return in, nil
	}

	body, err := a.readAll(ctx, blob)
	if err != nil {
		in.close()
		return nil, err
	}
	in.closers = append(in.closers, body)

	zr, err := compress.NewReader(body, in.typ)
	if err != nil {
		in.close()
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	in.closers = append(in.closers, zr)
	in.r = zr

	if base > 0 {
		// Offsets of compressed streams count decompressed bytes.
		n, err := io.CopyN(io.Discard, zr, base)
		if err != nil && !errors.Is(err, io.EOF) {
			in.close()
			return nil, err
		}
		if n < base {
			in.close()
			in, err := a.openInput(ctx, name, 0)
			if err != nil {
				return nil, err
			}
			in.restarted = true
			return in, nil
		}
	}
	return in, nil
}

func (a *app) decompress(r io.Reader, name string, typ compress.Type) (io.ReadCloser, compress.Type, error) {
	if a.set.autoDetect {
		return compress.Open(r, name)
	}
	rc, err := compress.NewReader(r, typ)
	return rc, typ, err
}

type readCloser struct {
	io.Reader
	io.Closer
}

// readAll returns the whole blob as a throttled stream.
func (a *app) readAll(ctx context.Context, blob blobstore.Blob) (io.ReadCloser, error) {
	if blob.Size() == 0 {
		return io.NopCloser(strings.NewReader("")), nil
	}
	body, err := blob.ReadRange(ctx, 0, -1)
	if err != nil {
		return nil, err
	}
	return readCloser{resource.NewRateLimitedReader(ctx, body, a.rc), body}, nil
}
