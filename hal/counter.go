package hal

import (
	"time"

	"tachomatrix/tach"
)

// ticksAt converts elapsed time to counter ticks at hz, wrapping at 32 bits.
func ticksAt(d time.Duration, hz uint32) uint32 {
	if d < 0 {
		d = 0
	}
	sec := uint64(d / time.Second)
	rem := uint64(d % time.Second)
	return uint32(sec*uint64(hz) + rem*uint64(hz)/uint64(time.Second))
}

// ticksDuration is the time the counter takes to advance by ticks.
func ticksDuration(ticks, hz uint32) time.Duration {
	if hz == 0 {
		return 0
	}
	return time.Duration(uint64(ticks) * uint64(time.Second) / uint64(hz))
}

// snapshotCounter reads a Counter through Snapshot so that busy waits never
// race the edge interrupt for the counter register.
type snapshotCounter struct {
	c Counter
}

func (s snapshotCounter) Ticks() uint32 { return s.c.Snapshot() }
func (s snapshotCounter) Hz() uint32    { return s.c.Hz() }

// maskedDelay busy-waits on c with edge interrupts masked around each read.
func maskedDelay(c Counter) tach.BusyWait {
	return tach.BusyWait{Counter: snapshotCounter{c: c}}
}
