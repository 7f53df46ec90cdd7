package resource

import (
	"context"
	"io"
)

// RateLimitedReader wraps an io.Reader with the controller's read limit.
type RateLimitedReader struct {
	ctx context.Context
	r   io.Reader
	rc  *Controller
}

// NewRateLimitedReader creates a new RateLimitedReader.
func NewRateLimitedReader(ctx context.Context, r io.Reader, rc *Controller) *RateLimitedReader {
	return &RateLimitedReader{ctx: ctx, r: r, rc: rc}
}

func (r *RateLimitedReader) Read(p []byte) (int, error) {
	// Wait for the most this call can return; reads above the burst are
	// shortened rather than rejected.
	if burst := r.rc.ReadBurst(); burst > 0 && len(p) > burst {
		p = p[:burst]
	}
	if err := r.rc.WaitRead(r.ctx, len(p)); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}
