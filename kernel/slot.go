package kernel

import "sync/atomic"

// Slot is a single-value handoff with overwrite-latest semantics.
//
// One producer (typically an interrupt handler) publishes; one consumer
// takes the newest value and learns from the sequence number how many it
// missed. Publish never blocks and never allocates.
type Slot struct {
	// seq in the high word, value in the low word.
	word atomic.Uint64
}

// Publish stores v and returns its sequence number. Sequence numbers start
// at 1 and wrap.
func (s *Slot) Publish(v uint32) uint32 {
	for {
		old := s.word.Load()
		seq := uint32(old>>32) + 1
		if s.word.CompareAndSwap(old, uint64(seq)<<32|uint64(v)) {
			return seq
		}
	}
}

// Load returns the latest value and its sequence number. seq is 0 if nothing
// has been published.
func (s *Slot) Load() (v uint32, seq uint32) {
	w := s.word.Load()
	return uint32(w), uint32(w >> 32)
}

// Since returns the latest value if it is newer than seen. missed is the
// number of values overwritten before the consumer got to them.
func (s *Slot) Since(seen uint32) (v uint32, seq uint32, missed uint32, ok bool) {
	v, seq = s.Load()
	if seq == seen {
		return 0, seen, 0, false
	}
	return v, seq, seq - seen - 1, true
}
