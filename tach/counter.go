package tach

import (
	"errors"
	"fmt"
)

// DefaultHz is the low-frequency counter rate of the reference board (LFXO RTC).
const DefaultHz = 32768

// Counter is a free-running, read-only tick counter.
//
// Ticks wraps at the counter width. Hz is fixed for the lifetime of the counter.
type Counter interface {
	Ticks() uint32
	Hz() uint32
}

// Delayer blocks the caller for a number of counter ticks.
type Delayer interface {
	Delay(ticks uint32) error
}

var ErrCounterStalled = errors.New("tach: counter stalled")

// DefaultStallPolls bounds BusyWait when the counter stops advancing.
const DefaultStallPolls = 1 << 22

// BusyWait is a polling delay on a Counter.
//
// It does not sleep: the calling context is fully blocked until the counter
// has advanced by the requested number of ticks.
type BusyWait struct {
	Counter Counter

	// StallPolls is the number of consecutive polls without the counter moving
	// after which Delay gives up. Zero means DefaultStallPolls.
	StallPolls int
}

func (w BusyWait) Delay(ticks uint32) error {
	if w.Counter == nil {
		return fmt.Errorf("tach: busy wait: %w", ErrCounterStalled)
	}
	limit := w.StallPolls
	if limit <= 0 {
		limit = DefaultStallPolls
	}

	start := w.Counter.Ticks()
	last := start
	still := 0
	for {
		now := w.Counter.Ticks()
		if now-start >= ticks {
			return nil
		}
		if now != last {
			last = now
			still = 0
			continue
		}
		still++
		if still >= limit {
			return fmt.Errorf("tach: busy wait %d ticks at %d: %w", ticks, now, ErrCounterStalled)
		}
	}
}
