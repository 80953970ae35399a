package tach

import "sync/atomic"

// Flags is a set of pending edge interrupt bits.
type Flags uint32

const (
	// FlagStart is raised by the falling edge on the start pin.
	FlagStart Flags = 1 << iota
	// FlagStop is raised by the rising edge on the stop pin.
	FlagStop
)

// Latch models a GPIO interrupt flag register: edge sources raise bits,
// the handler clears the bits it serviced.
type Latch struct {
	bits atomic.Uint32
}

// Raise sets f in the pending set.
func (l *Latch) Raise(f Flags) {
	for {
		old := l.bits.Load()
		if l.bits.CompareAndSwap(old, old|uint32(f)) {
			return
		}
	}
}

// Pending returns the currently raised bits.
func (l *Latch) Pending() Flags {
	return Flags(l.bits.Load())
}

// Clear drops exactly the bits in f.
func (l *Latch) Clear(f Flags) {
	for {
		old := l.bits.Load()
		if l.bits.CompareAndSwap(old, old&^uint32(f)) {
			return
		}
	}
}
