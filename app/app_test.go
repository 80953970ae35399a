package app

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"tachomatrix/glyph"
	"tachomatrix/hal"
	"tachomatrix/kernel"
	"tachomatrix/max7219"
	"tachomatrix/tach"
)

type testCounter struct {
	now uint32
}

func (c *testCounter) Ticks() uint32    { return c.now }
func (c *testCounter) Hz() uint32       { return tach.DefaultHz }
func (c *testCounter) Snapshot() uint32 { return c.now }

// testDelay advances the counter instead of sleeping.
type testDelay struct {
	c     *testCounter
	total uint64
}

func (d *testDelay) Delay(ticks uint32) error {
	d.c.now += ticks
	d.total += uint64(ticks)
	return nil
}

type testEdges struct {
	l   *tach.Latch
	isr func()
	off bool
}

func (e *testEdges) Enable(l *tach.Latch, isr func()) error {
	if e.l != nil {
		return hal.ErrEdgesEnabled
	}
	e.l, e.isr = l, isr
	return nil
}

func (e *testEdges) Disable() error {
	e.off = true
	return nil
}

func (e *testEdges) fire(f tach.Flags) {
	e.l.Raise(f)
	e.isr()
}

type testLog struct {
	mu     sync.Mutex
	lines  []string
	errors []string
}

func (l *testLog) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, s)
}

func (l *testLog) WriteLineBytes(b []byte) { l.WriteLineString(string(b)) }

func (l *testLog) WriteErrorString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, s)
}

func (l *testLog) has(sub string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, s := range l.lines {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

type testLED struct{ on bool }

func (l *testLED) High() { l.on = true }
func (l *testLED) Low()  { l.on = false }

type testFB struct {
	w, h     int
	buf      []byte
	presents int
}

func newTestFB(w, h int) *testFB {
	return &testFB{w: w, h: h, buf: make([]byte, w*h*2)}
}

func (f *testFB) Width() int              { return f.w }
func (f *testFB) Height() int             { return f.h }
func (f *testFB) Format() hal.PixelFormat { return hal.PixelFormatRGB565 }
func (f *testFB) StrideBytes() int        { return f.w * 2 }
func (f *testFB) Buffer() []byte          { return f.buf }

func (f *testFB) Present() error {
	f.presents++
	return nil
}

func (f *testFB) ClearRGB(r, g, b uint8) {
	for i := range f.buf {
		f.buf[i] = 0
	}
}

func (f *testFB) Framebuffer() hal.Framebuffer {
	if f == nil {
		return nil
	}
	return f
}

type testHAL struct {
	log     *testLog
	led     *testLED
	counter *testCounter
	delay   *testDelay
	edges   *testEdges
	chip    *max7219.Chip
	bus     *max7219.ChipBus
	fb      *testFB
}

func newTestHAL() *testHAL {
	c := &testCounter{now: 1}
	chip := max7219.NewChip()
	return &testHAL{
		log:     &testLog{},
		led:     &testLED{},
		counter: c,
		delay:   &testDelay{c: c},
		edges:   &testEdges{},
		chip:    chip,
		bus:     &max7219.ChipBus{Chip: chip},
	}
}

func (h *testHAL) Logger() hal.Logger    { return h.log }
func (h *testHAL) LED() hal.LED          { return h.led }
func (h *testHAL) Counter() hal.Counter  { return h.counter }
func (h *testHAL) Delay() tach.Delayer   { return h.delay }
func (h *testHAL) Edges() hal.EdgeSource { return h.edges }
func (h *testHAL) Bus() max7219.Bus      { return h.bus }
func (h *testHAL) Display() hal.Display  { return h.fb }

func mustSystem(t *testing.T, h *testHAL, cfg Config) *system {
	t.Helper()
	s, err := newSystem(h, cfg)
	if err != nil {
		t.Fatalf("newSystem() error = %v", err)
	}
	return s
}

func mustStep(t *testing.T, s *system) {
	t.Helper()
	if err := s.step(); err != nil {
		t.Fatalf("step() error = %v", err)
	}
}

func TestStartupShowsInitialValue(t *testing.T) {
	h := newTestHAL()
	s := mustSystem(t, h, DefaultConfig())

	if !h.led.on {
		t.Fatal("LED off after startup")
	}
	if h.edges.l == nil {
		t.Fatal("edges not enabled")
	}
	if h.chip.State().Words != 0 {
		t.Fatal("matrix written before the first main-loop step")
	}

	mustStep(t, s)

	want := glyph.Frame{0x09, 0x09, 0x00, 0xF0, 0x09, 0x09, 0x90, 0x90}
	if diff := cmp.Diff(want, h.chip.Visible()); diff != "" {
		t.Fatalf("visible frame mismatch (-want +got):\n%s", diff)
	}
	st := h.chip.State()
	if st.Shutdown || st.ScanLimit != 7 {
		t.Fatalf("chip state = %+v, want running with 8 columns", st)
	}

	// Startup, two config writes, eight columns and the rest gap.
	tm := max7219.DefaultTiming
	if want := uint64(tm.Startup + 2*tm.Config + 8*tm.Column + tm.Refresh); h.delay.total != want {
		t.Fatalf("delayed %d ticks, want %d", h.delay.total, want)
	}
	if !h.log.has("display: matrix ready") {
		t.Fatalf("log = %q, want matrix ready line", h.log.lines)
	}
}

func TestMeasurementReachesMatrix(t *testing.T) {
	h := newTestHAL()
	s := mustSystem(t, h, DefaultConfig())
	mustStep(t, s)

	h.edges.fire(tach.FlagStart)
	h.counter.now += 40
	h.edges.fire(tach.FlagStop)
	mustStep(t, s)

	want := glyph.Frame{0x09, 0x09, 0x90, 0x90, 0x09, 0x09, 0x00, 0xF0}
	if diff := cmp.Diff(want, h.chip.Visible()); diff != "" {
		t.Fatalf("visible frame mismatch (-want +got):\n%s", diff)
	}
	if s.reading.Ticks != 40 || s.reading.Seq != 1 {
		t.Fatalf("reading = %+v, want 40 ticks seq 1", s.reading)
	}
	if !h.log.has("measure: 40 ticks = 0.001 s") {
		t.Fatalf("log = %q, want measure line", h.log.lines)
	}
}

func TestLatestReadingWins(t *testing.T) {
	h := newTestHAL()
	s := mustSystem(t, h, DefaultConfig())
	mustStep(t, s)

	for _, iv := range []uint32{100, 200, 3 * tach.DefaultHz} {
		h.edges.fire(tach.FlagStart)
		h.counter.now += iv
		h.edges.fire(tach.FlagStop)
	}
	mustStep(t, s)

	if got := s.reading.Digits; got != (glyph.Digits{First: 3}) {
		t.Fatalf("digits = %v, want 3.000", got)
	}
	if !h.log.has("measure: 2 readings overwritten") {
		t.Fatalf("log = %q, want overwritten line", h.log.lines)
	}
}

func TestRateOverride(t *testing.T) {
	h := newTestHAL()
	cfg := DefaultConfig()
	cfg.RateHz = 32000
	s := mustSystem(t, h, cfg)

	h.edges.fire(tach.FlagStart)
	h.counter.now += 32000
	h.edges.fire(tach.FlagStop)
	mustStep(t, s)

	if got := s.reading.Seconds; got != 1 {
		t.Fatalf("seconds = %v, want 1", got)
	}
}

func TestStrictLogsOrphans(t *testing.T) {
	h := newTestHAL()
	cfg := DefaultConfig()
	cfg.Strict = true
	s := mustSystem(t, h, cfg)

	h.edges.fire(tach.FlagStop)
	mustStep(t, s)

	if s.reading.Seq != 0 {
		t.Fatalf("orphan stop produced reading %+v", s.reading)
	}
	if !h.log.has("measure: dropped 1 stop edges without a start") {
		t.Fatalf("log = %q, want orphan line", h.log.lines)
	}
}

func TestOverRangeIsLoggedAsError(t *testing.T) {
	h := newTestHAL()
	s := mustSystem(t, h, DefaultConfig())

	h.edges.fire(tach.FlagStart)
	h.counter.now += 12 * tach.DefaultHz
	h.edges.fire(tach.FlagStop)
	mustStep(t, s)

	if !errors.Is(s.reading.Err, glyph.ErrDigitRange) {
		t.Fatalf("reading error = %v, want ErrDigitRange", s.reading.Err)
	}
	if len(h.log.errors) != 1 || !strings.HasPrefix(h.log.errors[0], "measure: ") {
		t.Fatalf("error lines = %q", h.log.errors)
	}
}

func TestSkippedColumnsAreLogged(t *testing.T) {
	h := newTestHAL()
	s := mustSystem(t, h, DefaultConfig())
	mustStep(t, s)

	h.bus.NotReadyEvery = 3
	mustStep(t, s)

	if !h.log.has("display: loop 1: skipped columns [2 4 6 8], 1 of 2 passes partial") {
		t.Fatalf("log = %q, want skipped columns line", h.log.lines)
	}
}

func TestStuckTransmitterFails(t *testing.T) {
	h := newTestHAL()
	h.bus.StuckTXC = true
	cfg := DefaultConfig()
	cfg.MaxPolls = 8
	s := mustSystem(t, h, cfg)

	err := s.step()
	if !errors.Is(err, max7219.ErrPeripheralTimeout) {
		t.Fatalf("step() error = %v, want ErrPeripheralTimeout", err)
	}
	if s.k.Err() == nil {
		t.Fatal("kernel error cleared after failure")
	}
}

func TestIntensityWrittenAfterInit(t *testing.T) {
	h := newTestHAL()
	cfg := DefaultConfig()
	cfg.Intensity = 9
	s := mustSystem(t, h, cfg)
	mustStep(t, s)

	if got := h.chip.State().Intensity; got != 9 {
		t.Fatalf("intensity = %d, want 9", got)
	}
}

func TestConsoleDrawsWhenFramebufferPresent(t *testing.T) {
	h := newTestHAL()
	h.fb = newTestFB(256, 72)
	s := mustSystem(t, h, DefaultConfig())
	mustStep(t, s)

	if h.fb.presents == 0 {
		t.Fatal("console never presented")
	}
	bg := hal.RGB565(consoleBG)
	var header, term int
	for i := 0; i+1 < len(h.fb.buf); i += 2 {
		if uint16(h.fb.buf[i])|uint16(h.fb.buf[i+1])<<8 == bg {
			continue
		}
		if i/2/256 < consoleLineHeight {
			header++
		} else {
			term++
		}
	}
	if header == 0 {
		t.Fatal("reading line has no text pixels")
	}
	if term == 0 {
		t.Fatal("log terminal has no text pixels")
	}

	// Nothing changed: no redraw.
	n := h.fb.presents
	s.dirty = false
	if err := s.k.RunOnce(); err != nil {
		t.Fatal(err)
	}
	if h.fb.presents != n {
		t.Fatalf("presents = %d, want %d", h.fb.presents, n)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Config)
	}{
		{"zero counter bits", func(c *Config) { c.CounterBits = 0 }},
		{"wide counter", func(c *Config) { c.CounterBits = 33 }},
		{"unknown mode", func(c *Config) { c.Mode = glyph.Mode(7) }},
		{"negative initial", func(c *Config) { c.InitialValue = -1 }},
		{"intensity", func(c *Config) { c.Intensity = 16 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mod(&cfg)
			h := newTestHAL()
			if _, err := New(h, cfg); !errors.Is(err, ErrBadConfig) {
				t.Fatalf("New() error = %v, want ErrBadConfig", err)
			}
			if h.edges.l != nil {
				t.Fatal("edges enabled despite bad config")
			}
		})
	}
}

func TestNewRejectsUndisplayableInitialValue(t *testing.T) {
	cfg := DefaultConfig()
	for _, v := range []float64{10, 42.5, 9.9999999} {
		cfg.InitialValue = v
		if _, err := New(newTestHAL(), cfg); !errors.Is(err, ErrBadConfig) {
			t.Errorf("New(initial %v) error = %v, want ErrBadConfig", v, err)
		}
	}
}

func TestHaltMessageNamesLoopAndSteps(t *testing.T) {
	h := newTestHAL()
	h.bus.StuckTXC = true
	cfg := DefaultConfig()
	cfg.MaxPolls = 8
	s := mustSystem(t, h, cfg)

	err := s.step()
	if err == nil {
		t.Fatal("step() succeeded with a stuck transmitter")
	}
	msg := haltMessage(s, err)
	if !strings.HasPrefix(msg, "halt: ") {
		t.Errorf("haltMessage() = %q, want halt: prefix", msg)
	}
	if !strings.HasSuffix(msg, "(loop 1, 1 display steps)") {
		t.Errorf("haltMessage() = %q, want loop and step counts", msg)
	}
	if got := haltMessage(nil, err); got != "halt: "+err.Error() {
		t.Errorf("haltMessage(nil) = %q", got)
	}
}

func TestPanicIsLoggedAndDrawn(t *testing.T) {
	h := newTestHAL()
	h.fb = newTestFB(64, 24)
	s := mustSystem(t, h, DefaultConfig())
	if _, err := s.k.AddTask("boom", kernel.TaskFunc(func(*kernel.Context) { panic("bad sample") })); err != nil {
		t.Fatal(err)
	}

	if err := s.step(); !errors.Is(err, kernel.ErrTaskPanicked) {
		t.Fatalf("step() error = %v, want ErrTaskPanicked", err)
	}
	if !h.log.has("panic: task=boom") {
		t.Fatalf("log = %q, want panic line", h.log.lines)
	}
	// Once by the console task, once by the panic screen.
	if h.fb.presents != 2 {
		t.Fatalf("presents = %d, want 2", h.fb.presents)
	}
}
