//go:build !tinygo

package hal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// clockCounter is a 32-bit tick counter derived from a clock.
type clockCounter struct {
	clk clock.Clock
	t0  time.Time
	hz  uint32
	irq *sync.Mutex
}

func newClockCounter(clk clock.Clock, hz uint32, irq *sync.Mutex) *clockCounter {
	return &clockCounter{clk: clk, t0: clk.Now(), hz: hz, irq: irq}
}

func (c *clockCounter) Ticks() uint32 { return ticksAt(c.clk.Since(c.t0), c.hz) }
func (c *clockCounter) Hz() uint32    { return c.hz }

func (c *clockCounter) Snapshot() uint32 {
	c.irq.Lock()
	defer c.irq.Unlock()
	return c.Ticks()
}

// clockDelay sleeps on the clock instead of spinning on the counter.
type clockDelay struct {
	ctx context.Context
	clk clock.Clock
	hz  uint32
}

func (d *clockDelay) Delay(ticks uint32) error {
	dur := ticksDuration(ticks, d.hz)
	if dur <= 0 {
		return nil
	}
	t := d.clk.Timer(dur)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-d.ctx.Done():
		return fmt.Errorf("hal: delay %d ticks: %w", ticks, d.ctx.Err())
	}
}
