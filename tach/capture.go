package tach

import "sync/atomic"

// State is the edge capture state.
type State uint32

const (
	AwaitingStart State = iota
	Measuring
)

func (s State) String() string {
	switch s {
	case AwaitingStart:
		return "awaiting-start"
	case Measuring:
		return "measuring"
	default:
		return "unknown"
	}
}

// Sink receives completed intervals. It is called from interrupt context and
// must not block or allocate.
type Sink interface {
	Publish(intervalTicks uint32) uint32
}

// CaptureConfig configures a Capture.
type CaptureConfig struct {
	// Bits is the counter width. Zero means 32.
	Bits uint8

	// Strict drops stop edges that arrive without a preceding start edge
	// and returns to AwaitingStart after every measurement.
	Strict bool
}

// Stats are running edge counters.
type Stats struct {
	Starts    uint32
	Stops     uint32
	Orphans   uint32
	Published uint32
}

// Capture timestamps start/stop edges against a Counter and publishes the
// elapsed tick interval.
//
// Service, Start and Stop must not be called concurrently with each other:
// they run in the (non-nesting) edge interrupt context. State, LastInterval
// and Stats may be read from anywhere.
type Capture struct {
	counter Counter
	sink    Sink
	mask    uint32
	strict  bool

	state     atomic.Uint32
	startTick atomic.Uint32
	interval  atomic.Uint32

	starts    atomic.Uint32
	stops     atomic.Uint32
	orphans   atomic.Uint32
	published atomic.Uint32
}

// NewCapture returns a capture in AwaitingStart with a start tick of zero.
func NewCapture(counter Counter, sink Sink, cfg CaptureConfig) *Capture {
	return &Capture{
		counter: counter,
		sink:    sink,
		mask:    Mask(cfg.Bits),
		strict:  cfg.Strict,
	}
}

// Mask returns the interval mask for a counter of the given width.
func Mask(bits uint8) uint32 {
	if bits == 0 || bits >= 32 {
		return ^uint32(0)
	}
	return uint32(1)<<bits - 1
}

// Interval is the elapsed ticks from start to stop on a counter with the given
// mask. A counter rollover between the two samples wraps naturally.
func Interval(start, stop, mask uint32) uint32 {
	return (stop - start) & mask
}

// Service handles the pending edge flags in l, start before stop, and clears
// exactly the flags it handled. It is the edge interrupt handler body.
func (c *Capture) Service(l *Latch) Flags {
	pending := l.Pending()

	var done Flags
	if pending&FlagStart != 0 {
		c.Start(c.counter.Ticks())
		done |= FlagStart
	}
	if pending&FlagStop != 0 {
		c.Stop(c.counter.Ticks())
		done |= FlagStop
	}
	l.Clear(done)
	return done
}

// Start records tick as the start of a measurement.
func (c *Capture) Start(tick uint32) {
	c.startTick.Store(tick & c.mask)
	c.state.Store(uint32(Measuring))
	c.starts.Add(1)
}

// Stop completes a measurement at tick and publishes the interval.
//
// Outside strict mode a stop without a start measures from the last start
// tick (zero after reset), which is what the hardware protocol does.
func (c *Capture) Stop(tick uint32) (uint32, bool) {
	c.stops.Add(1)
	if c.strict && State(c.state.Load()) != Measuring {
		c.orphans.Add(1)
		return 0, false
	}

	iv := Interval(c.startTick.Load(), tick&c.mask, c.mask)
	c.interval.Store(iv)
	if c.strict {
		c.state.Store(uint32(AwaitingStart))
	}
	if c.sink != nil {
		c.sink.Publish(iv)
		c.published.Add(1)
	}
	return iv, true
}

// Reset returns to AwaitingStart with a zero start tick.
func (c *Capture) Reset() {
	c.startTick.Store(0)
	c.state.Store(uint32(AwaitingStart))
}

func (c *Capture) State() State         { return State(c.state.Load()) }
func (c *Capture) LastInterval() uint32 { return c.interval.Load() }
func (c *Capture) StartTick() uint32    { return c.startTick.Load() }

func (c *Capture) Stats() Stats {
	return Stats{
		Starts:    c.starts.Load(),
		Stops:     c.stops.Load(),
		Orphans:   c.orphans.Load(),
		Published: c.published.Load(),
	}
}
