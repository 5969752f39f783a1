// internal/kernel/tickclock.go

package kernel

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// TickClock paces timer interrupts and counts them atomically.
type TickClock struct {
	Ch    chan struct{}
	count atomic.Int64
	stop  chan struct{}
	once  sync.Once
}

// NewTickClock creates a clock but does not start it.
func NewTickClock(buffer int) *TickClock {
	return &TickClock{
		Ch:   make(chan struct{}, buffer),
		stop: make(chan struct{}),
	}
}

// Start begins emitting ticks at the given interval. A non-positive interval
// emits as fast as the consumer drains Ch.
func (c *TickClock) Start(interval time.Duration) {
	go func() {
		defer close(c.Ch)
		var pace <-chan time.Time
		if interval > 0 {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			pace = ticker.C
		}
		for {
			if pace != nil {
				select {
				case <-pace:
				case <-c.stop:
					return
				}
			}
			select {
			case c.Ch <- struct{}{}:
				c.count.Add(1)
			case <-c.stop:
				return
			}
		}
	}()
}

// Wait blocks until the next tick. It returns false once the clock is stopped
// or ctx is done.
func (c *TickClock) Wait(ctx context.Context) bool {
	select {
	case _, ok := <-c.Ch:
		return ok
	case <-ctx.Done():
		return false
	}
}

// Stop signals the clock to stop emitting ticks. It is safe to call more than
// once.
func (c *TickClock) Stop() {
	c.once.Do(func() { close(c.stop) })
}

// Count returns the number of ticks delivered so far.
func (c *TickClock) Count() int64 {
	return c.count.Load()
}
