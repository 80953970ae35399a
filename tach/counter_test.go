package tach

import (
	"errors"
	"testing"
)

type stuckCounter uint32

func (c stuckCounter) Ticks() uint32 { return uint32(c) }
func (c stuckCounter) Hz() uint32    { return DefaultHz }

func TestBusyWaitWaitsForTicks(t *testing.T) {
	cnt := &fakeCounter{now: 10, step: 1, hz: DefaultHz}
	if err := (BusyWait{Counter: cnt}).Delay(500); err != nil {
		t.Fatalf("Delay() error = %v", err)
	}
	// One sample for start plus 500 polls to reach it.
	if cnt.now < 10+500 {
		t.Fatalf("counter at %d, want >= %d", cnt.now, 510)
	}
}

func TestBusyWaitAcrossWrap(t *testing.T) {
	cnt := &fakeCounter{now: ^uint32(0) - 5, step: 2}
	if err := (BusyWait{Counter: cnt}).Delay(20); err != nil {
		t.Fatalf("Delay() error = %v", err)
	}
}

func TestBusyWaitZero(t *testing.T) {
	if err := (BusyWait{Counter: stuckCounter(7), StallPolls: 1}).Delay(0); err != nil {
		t.Fatalf("Delay(0) error = %v", err)
	}
}

func TestBusyWaitStalled(t *testing.T) {
	err := BusyWait{Counter: stuckCounter(42), StallPolls: 16}.Delay(10)
	if !errors.Is(err, ErrCounterStalled) {
		t.Fatalf("Delay() error = %v, want ErrCounterStalled", err)
	}

	err = BusyWait{}.Delay(1)
	if !errors.Is(err, ErrCounterStalled) {
		t.Fatalf("Delay() with nil counter error = %v, want ErrCounterStalled", err)
	}
}

func TestLatchRaiseClear(t *testing.T) {
	var l Latch
	l.Raise(FlagStop)
	l.Raise(FlagStart)
	l.Raise(FlagStop)
	if got := l.Pending(); got != FlagStart|FlagStop {
		t.Fatalf("Pending() = %b", got)
	}
	l.Clear(FlagStart)
	if got := l.Pending(); got != FlagStop {
		t.Fatalf("Pending() after clear = %b, want stop", got)
	}
}
