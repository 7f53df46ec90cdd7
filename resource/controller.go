package resource

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrMemoryLimitExceeded is returned when a reservation would exceed the
// configured memory limit.
var ErrMemoryLimitExceeded = errors.New("resource: memory limit exceeded")

// Config holds resource limits.
type Config struct {
	// MemoryLimitBytes is the hard limit for staging memory.
	// If 0, usage is only tracked.
	MemoryLimitBytes int64

	// MaxStreams is the maximum number of streams scanned at once.
	// If 0, defaults to 1.
	MaxStreams int64

	// ReadBytesPerSec caps input throughput. If 0, unlimited.
	ReadBytesPerSec int64
}

// Controller enforces a Config.
type Controller struct {
	cfg Config

	// Memory
	memSem  *semaphore.Weighted // nil if unlimited
	memUsed atomic.Int64

	// Streams
	streamSem *semaphore.Weighted

	// IO
	readLimiter *rate.Limiter
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxStreams <= 0 {
		cfg.MaxStreams = 1
	}

	c := &Controller{
		cfg:       cfg,
		streamSem: semaphore.NewWeighted(cfg.MaxStreams),
	}

	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}

	if cfg.ReadBytesPerSec > 0 {
		c.readLimiter = rate.NewLimiter(rate.Limit(cfg.ReadBytesPerSec), int(cfg.ReadBytesPerSec))
	}

	return c
}

// Config returns the limits the controller was built with.
func (c *Controller) Config() Config {
	if c == nil {
		return Config{}
	}
	return c.cfg
}

// AcquireMemory reserves bytes, blocking until enough memory has been
// released or ctx is canceled.
func (c *Controller) AcquireMemory(ctx context.Context, bytes int64) error {
	if c == nil || bytes <= 0 {
		return nil
	}

	if c.memSem != nil {
		if bytes > c.cfg.MemoryLimitBytes {
			return c.exceeded(bytes)
		}
		if err := c.memSem.Acquire(ctx, bytes); err != nil {
			return err
		}
	}

	c.memUsed.Add(bytes)
	return nil
}

// ReserveMemory reserves bytes without blocking. It returns an error
// wrapping ErrMemoryLimitExceeded if the reservation does not fit.
func (c *Controller) ReserveMemory(bytes int64) error {
	if c == nil || bytes <= 0 {
		return nil
	}

	if c.memSem != nil && !c.memSem.TryAcquire(bytes) {
		return c.exceeded(bytes)
	}

	c.memUsed.Add(bytes)
	return nil
}

func (c *Controller) exceeded(bytes int64) error {
	return fmt.Errorf("%w: requested %d, in use %d, limit %d",
		ErrMemoryLimitExceeded, bytes, c.memUsed.Load(), c.cfg.MemoryLimitBytes)
}

// ReleaseMemory returns reserved bytes.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}

	if c.memSem != nil {
		c.memSem.Release(bytes)
	}
	c.memUsed.Add(-bytes)
}

// MemoryUsage returns the bytes currently reserved.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// AcquireStream reserves a stream slot, blocking while all are busy.
func (c *Controller) AcquireStream(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.streamSem.Acquire(ctx, 1)
}

// TryAcquireStream reserves a stream slot without blocking.
func (c *Controller) TryAcquireStream() bool {
	if c == nil {
		return true
	}
	return c.streamSem.TryAcquire(1)
}

// ReleaseStream frees a stream slot.
func (c *Controller) ReleaseStream() {
	if c == nil {
		return
	}
	c.streamSem.Release(1)
}

// WaitRead blocks until the read limit admits n bytes. n must not exceed
// ReadBurst.
func (c *Controller) WaitRead(ctx context.Context, n int) error {
	if c == nil || c.readLimiter == nil {
		return nil
	}
	return c.readLimiter.WaitN(ctx, n)
}

// ReadBurst returns the largest single read WaitRead admits, or 0 when
// reads are unlimited.
func (c *Controller) ReadBurst() int {
	if c == nil || c.readLimiter == nil {
		return 0
	}
	return c.readLimiter.Burst()
}
