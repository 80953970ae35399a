//go:build !tinygo

package hal

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"

	"tachomatrix/tach"
)

// SimConfig shapes the simulated sensor and display bus.
type SimConfig struct {
	// Period is the time from one start edge to the next.
	Period time.Duration
	// MinPulse and MaxPulse bound the start-to-stop interval, which sweeps
	// up and back down over Steps cycles each way.
	MinPulse time.Duration
	MaxPulse time.Duration
	Steps    int

	// NotReadyEvery clears the buffer-ready bit on every n-th bus status
	// read; a column that lands on it is dropped.
	NotReadyEvery int
	// StuckTXC makes every blocking register write time out.
	StuckTXC bool
}

// DefaultSimConfig sweeps the reading between 0.05 and 1.5 seconds.
var DefaultSimConfig = SimConfig{
	Period:   2 * time.Second,
	MinPulse: 50 * time.Millisecond,
	MaxPulse: 1500 * time.Millisecond,
	Steps:    16,
}

// simWaveform is the two sensor lines as a function of time. The start line
// falls at the beginning of each cycle and rises at half period; the stop
// line rises one pulse after the start edge and drops when the next cycle
// begins.
type simWaveform struct {
	t0     time.Time
	period time.Duration
	min    time.Duration
	max    time.Duration
	steps  int
}

func newSimWaveform(cfg SimConfig, t0 time.Time) *simWaveform {
	def := DefaultSimConfig
	if cfg.Period <= 0 {
		cfg.Period = def.Period
	}
	if cfg.MinPulse <= 0 {
		cfg.MinPulse = def.MinPulse
	}
	if cfg.MaxPulse <= 0 {
		cfg.MaxPulse = def.MaxPulse
	}
	if cfg.MaxPulse < cfg.MinPulse {
		cfg.MaxPulse = cfg.MinPulse
	}
	if cfg.MaxPulse >= cfg.Period {
		cfg.MaxPulse = cfg.Period - 1
	}
	if cfg.MinPulse > cfg.MaxPulse {
		cfg.MinPulse = cfg.MaxPulse
	}
	if cfg.Steps <= 0 {
		cfg.Steps = def.Steps
	}
	return &simWaveform{
		t0:     t0,
		period: cfg.Period,
		min:    cfg.MinPulse,
		max:    cfg.MaxPulse,
		steps:  cfg.Steps,
	}
}

// pulse returns the start-to-stop interval of cycle n.
func (w *simWaveform) pulse(n int64) time.Duration {
	span := int64(2 * w.steps)
	pos := n % span
	if pos < 0 {
		pos += span
	}
	if pos > int64(w.steps) {
		pos = span - pos
	}
	return w.min + (w.max-w.min)*time.Duration(pos)/time.Duration(w.steps)
}

// cycleStart returns the time cycle n begins.
func (w *simWaveform) cycleStart(n int64) time.Time {
	return w.t0.Add(time.Duration(n) * w.period)
}

// levels returns the line levels at now.
func (w *simWaveform) levels(now time.Time) (start, stop bool) {
	elapsed := now.Sub(w.t0)
	if elapsed < 0 {
		return true, false
	}
	n := int64(elapsed / w.period)
	phase := elapsed % w.period
	return phase >= w.period/2, phase >= w.pulse(n)
}

// simEdges plays the waveform into the edge handler.
type simEdges struct {
	clk  clock.Clock
	wave *simWaveform
	irq  *sync.Mutex

	mu    sync.Mutex
	latch *tach.Latch
	isr   func()
	stop  chan struct{}
	wg    sync.WaitGroup

	fired atomic.Uint32
}

func newSimEdges(clk clock.Clock, wave *simWaveform, irq *sync.Mutex) *simEdges {
	return &simEdges{clk: clk, wave: wave, irq: irq}
}

func (e *simEdges) Enable(l *tach.Latch, isr func()) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stop != nil {
		return ErrEdgesEnabled
	}
	e.latch = l
	e.isr = isr
	e.stop = make(chan struct{})

	first := int64(e.clk.Since(e.wave.t0)/e.wave.period) + 1
	e.wg.Add(1)
	go e.run(first, e.stop)
	return nil
}

func (e *simEdges) Disable() error {
	e.mu.Lock()
	stop := e.stop
	e.stop = nil
	e.mu.Unlock()

	if stop != nil {
		close(stop)
		e.wg.Wait()
	}
	return nil
}

func (e *simEdges) run(n int64, stop <-chan struct{}) {
	defer e.wg.Done()
	for ; ; n++ {
		at := e.wave.cycleStart(n)
		if !e.sleepUntil(at, stop) {
			return
		}
		e.fire(tach.FlagStart)
		if !e.sleepUntil(at.Add(e.wave.pulse(n)), stop) {
			return
		}
		e.fire(tach.FlagStop)
	}
}

func (e *simEdges) sleepUntil(at time.Time, stop <-chan struct{}) bool {
	d := at.Sub(e.clk.Now())
	if d <= 0 {
		return true
	}
	t := e.clk.Timer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-stop:
		return false
	}
}

// fire is one edge interrupt.
func (e *simEdges) fire(f tach.Flags) {
	e.irq.Lock()
	defer e.irq.Unlock()
	e.latch.Raise(f)
	if e.isr != nil {
		e.isr()
	}
	e.fired.Add(1)
}
