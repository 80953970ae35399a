// Package app is the stopwatch firmware: it measures the time between a start
// and a stop edge and shows it in seconds on the LED matrix.
package app

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"tachomatrix/glyph"
	"tachomatrix/hal"
	"tachomatrix/internal/buildinfo"
	"tachomatrix/kernel"
	"tachomatrix/max7219"
	"tachomatrix/tach"

	"tinygo.org/x/tinyfont/proggy"
	"tinygo.org/x/tinyterm"
)

// reading is what the matrix currently shows.
type reading struct {
	Ticks   uint32
	Seconds float64
	Digits  glyph.Digits
	Seq     uint32
	Err     error
}

type system struct {
	h   hal.HAL
	cfg Config
	k   *kernel.Kernel

	// Shared with the edge interrupt.
	latch   tach.Latch
	slot    kernel.Slot
	capture *tach.Capture

	drv    *max7219.Driver
	rateHz uint32

	// Main loop only.
	frame     glyph.Frame
	reading   reading
	term      *tinyterm.Terminal
	dirty     bool
	logDrops  uint32
	displayID kernel.TaskID
}

// New brings the firmware up on h and returns one main-loop iteration.
func New(h hal.HAL, cfg Config) (func() error, error) {
	s, err := newSystem(h, cfg)
	if err != nil {
		return nil, err
	}
	return s.step, nil
}

// Run starts the firmware and runs the main loop forever (TinyGo entrypoint).
// On failure it logs the error, turns the LED off and halts.
func Run(h hal.HAL, cfg Config) {
	s, err := newSystem(h, cfg)
	for err == nil {
		err = s.step()
	}
	if l := h.Logger(); l != nil {
		l.WriteLineString(haltMessage(s, err))
	}
	if led := h.LED(); led != nil {
		led.Low()
	}
	select {}
}

// haltMessage describes why the main loop stopped. s is nil when start-up
// failed.
func haltMessage(s *system, err error) string {
	msg := "halt: " + err.Error()
	if kernel.InPanicMode() {
		msg = "halt after panic: " + err.Error()
	}
	if s == nil {
		return msg
	}
	return fmt.Sprintf("%s (loop %d, %d display steps)", msg, s.k.NowTick(), s.k.Steps(s.displayID))
}

func newSystem(h hal.HAL, cfg Config) (*system, error) {
	if h == nil {
		return nil, errors.New("app: nil HAL")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	counter, edges, bus := h.Counter(), h.Edges(), h.Bus()
	if counter == nil || edges == nil || bus == nil {
		return nil, errors.New("app: HAL is missing the counter, edge source or bus")
	}

	installPanicHandler(h)

	s := &system{
		h:      h,
		cfg:    cfg,
		k:      kernel.New(),
		rateHz: cfg.RateHz,
		dirty:  true,
	}
	if s.rateHz == 0 {
		s.rateHz = counter.Hz()
	}
	if l := h.Logger(); l != nil {
		l.WriteLineString(fmt.Sprintf("tachomatrix %s: %d Hz counter, %s digits", buildinfo.String(), s.rateHz, cfg.Mode))
	}
	if led := h.LED(); led != nil {
		led.High()
	}

	d, err := glyph.Encode(&s.frame, cfg.InitialValue, cfg.Mode)
	if err != nil {
		return nil, fmt.Errorf("app: initial value: %w", err)
	}
	s.reading = reading{Seconds: cfg.InitialValue, Digits: d}

	s.capture = tach.NewCapture(counter, &s.slot, tach.CaptureConfig{
		Bits:   cfg.CounterBits,
		Strict: cfg.Strict,
	})
	if err := edges.Enable(&s.latch, s.isr); err != nil {
		return nil, fmt.Errorf("app: enable edges: %w", err)
	}

	s.drv = max7219.New(bus, h.Delay(), max7219.Config{
		Timing:   cfg.Timing,
		MaxPolls: cfg.MaxPolls,
	})

	tasks := []namedTask{
		{"measure", &measureTask{s: s}},
		{"display", &displayTask{s: s}},
		{"logger", kernel.TaskFunc(func(*kernel.Context) { s.drainLog() })},
	}
	if cfg.Console {
		if disp := h.Display(); disp != nil && disp.Framebuffer() != nil {
			fb := disp.Framebuffer()
			s.term = tinyterm.NewTerminal(fbDisplay{fb: fb, top: consoleLineHeight})
			s.term.Configure(&tinyterm.Config{
				Font:              &proggy.TinySZ8pt7b,
				FontHeight:        consoleLineHeight,
				FontOffset:        consoleFontOffset,
				UseSoftwareScroll: true,
			})
			tasks = append(tasks, namedTask{"console", &consoleTask{s: s, header: fbDisplay{fb: fb, height: consoleLineHeight}}})
		}
	}
	for _, t := range tasks {
		id, err := s.k.AddTask(t.name, t.task)
		if err != nil {
			return nil, multierr.Append(err, edges.Disable())
		}
		if t.name == "display" {
			s.displayID = id
		}
	}
	return s, nil
}

type namedTask struct {
	name string
	task kernel.Task
}

// isr is the body of the edge interrupt handler.
func (s *system) isr() {
	s.capture.Service(&s.latch)
}

func (s *system) step() error {
	err := s.k.RunOnce()
	s.k.Tick()
	if err != nil {
		// The failing task stopped the pass before the logger ran.
		s.drainLog()
	}
	return err
}

// show converts an interval to seconds and encodes it into the frame.
func (s *system) show(ctx *kernel.Context, ticks, seq uint32) {
	secs := tach.Seconds(ticks, s.rateHz)
	d, err := glyph.Encode(&s.frame, secs, s.cfg.Mode)
	s.reading = reading{Ticks: ticks, Seconds: secs, Digits: d, Seq: seq, Err: err}
	s.dirty = true
	if err != nil {
		ctx.Errorf("%d ticks (%.4f s): %v", ticks, secs, err)
		return
	}
	ctx.Logf("%d ticks = %s s", ticks, d)
}

// drainLog writes queued task log lines to the HAL logger.
func (s *system) drainLog() {
	log := s.h.Logger()
	mb := s.k.Log()
	for {
		msg, ok := mb.TryRecv()
		if !ok {
			break
		}
		line := s.k.TaskName(msg.From) + ": " + string(msg.Payload())
		s.echo(line)
		if log == nil {
			continue
		}
		if msg.Kind == kernel.MsgError {
			if el, ok := log.(hal.ErrorLogger); ok {
				el.WriteErrorString(line)
				continue
			}
		}
		log.WriteLineString(line)
	}

	if d := mb.Drops(); d != s.logDrops {
		line := fmt.Sprintf("logger: %d lines dropped", d-s.logDrops)
		s.logDrops = d
		s.echo(line)
		if log != nil {
			log.WriteLineString(line)
		}
	}
}

// echo copies a log line to the console terminal, if there is one.
func (s *system) echo(line string) {
	if s.term == nil {
		return
	}
	_, _ = s.term.Write([]byte(line + "\r\n"))
	s.dirty = true
}
