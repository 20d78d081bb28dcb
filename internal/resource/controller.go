package resource

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrMemoryLimitExceeded is returned when memory limit would be exceeded.
var ErrMemoryLimitExceeded = errors.New("memory limit exceeded")

// Config holds resource limits.
type Config struct {
	// MemoryLimitBytes is the hard limit for managed memory.
	// If 0, no hard limit is enforced (only tracking).
	MemoryLimitBytes int64

	// ReadBytesPerSec caps the throughput of segment blob reads.
	// If 0, unlimited.
	ReadBytesPerSec int64
}

// Controller manages memory held by caches and the read bandwidth used
// when opening segments. A nil *Controller imposes no limits.
type Controller struct {
	cfg Config

	memSem  *semaphore.Weighted // nil if unlimited
	memUsed atomic.Int64

	readLimiter *rate.Limiter
	readBytes   atomic.Int64
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	c := &Controller{cfg: cfg}
	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}
	if cfg.ReadBytesPerSec > 0 {
		c.readLimiter = rate.NewLimiter(rate.Limit(cfg.ReadBytesPerSec), int(cfg.ReadBytesPerSec))
	}
	return c
}

// AcquireMemory reserves bytes without blocking.
// Returns ErrMemoryLimitExceeded if the limit would be exceeded.
func (c *Controller) AcquireMemory(bytes int64) error {
	if !c.TryAcquireMemory(bytes) {
		return ErrMemoryLimitExceeded
	}
	return nil
}

// TryAcquireMemory reports whether bytes could be reserved.
func (c *Controller) TryAcquireMemory(bytes int64) bool {
	if c == nil || bytes <= 0 {
		return true
	}
	if c.memSem != nil && !c.memSem.TryAcquire(bytes) {
		return false
	}
	c.memUsed.Add(bytes)
	return true
}

// ReleaseMemory releases reserved memory.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}
	if c.memSem != nil {
		c.memSem.Release(bytes)
	}
	c.memUsed.Add(-bytes)
}

// MemoryUsage returns the current memory usage in bytes.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// MemoryLimit returns the configured memory limit in bytes (0 if unlimited).
func (c *Controller) MemoryLimit() int64 {
	if c == nil {
		return 0
	}
	return c.cfg.MemoryLimitBytes
}

// AcquireRead waits until the read limit allows bytes. Requests larger than
// one second of budget are split into burst-sized waits.
func (c *Controller) AcquireRead(ctx context.Context, bytes int64) error {
	if c == nil {
		return ctx.Err()
	}
	if c.readLimiter == nil {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.readBytes.Add(max(bytes, 0))
		return nil
	}
	burst := int64(c.readLimiter.Burst())
	for bytes > 0 {
		n := min(bytes, burst)
		if err := c.readLimiter.WaitN(ctx, int(n)); err != nil {
			return err
		}
		c.readBytes.Add(n)
		bytes -= n
	}
	return nil
}

// ReadBytes returns the number of bytes granted by AcquireRead.
func (c *Controller) ReadBytes() int64 {
	if c == nil {
		return 0
	}
	return c.readBytes.Load()
}
