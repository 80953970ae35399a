//go:build !tinygo

package hal

import (
	"context"
	"fmt"
	"sync"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"tachomatrix/max7219"
	"tachomatrix/tach"
)

// Backend names accepted by HostConfig.Backend.
const (
	BackendSim   = "sim"
	BackendLinux = "linux"
)

// HostConfig selects and configures the host backend.
type HostConfig struct {
	Backend string

	// CounterHz is the simulated counter rate. Zero means tach.DefaultHz.
	CounterHz uint32

	// Clock drives the counter, delays and the simulated sensor. Nil means
	// the wall clock.
	Clock clock.Clock

	// Logger receives log lines. Nil builds a console logger.
	Logger *zap.Logger
	Debug  bool

	Sim   SimConfig
	Linux LinuxConfig
}

// Host is the host HAL: a clock-driven counter plus either the simulator or
// Linux GPIO/spidev peripherals.
type Host struct {
	ctx context.Context

	logger  *zapLogger
	led     *hostLED
	counter *clockCounter
	delay   *clockDelay
	edges   EdgeSource
	bus     max7219.Bus
	fb      *hostFramebuffer

	// irq serializes edge handlers against Snapshot.
	irq sync.Mutex

	// Simulator only.
	chip *max7219.Chip
	wave *simWaveform

	closers []func() error
}

var _ HAL = (*Host)(nil)

// New builds the host HAL. ctx bounds every delay the firmware takes.
func New(ctx context.Context, cfg HostConfig) (*Host, error) {
	if cfg.CounterHz == 0 {
		cfg.CounterHz = tach.DefaultHz
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	zl := cfg.Logger
	if zl == nil {
		var err error
		zl, err = NewZapLogger(cfg.Debug)
		if err != nil {
			return nil, fmt.Errorf("hal: logger: %w", err)
		}
	}

	logger := &zapLogger{l: zl}
	h := &Host{
		ctx:    ctx,
		logger: logger,
		led:    &hostLED{logger: logger},
		fb:     newHostFramebuffer(consoleWidth, consoleHeight),
	}
	h.counter = newClockCounter(cfg.Clock, cfg.CounterHz, &h.irq)
	h.delay = &clockDelay{ctx: ctx, clk: cfg.Clock, hz: cfg.CounterHz}

	switch cfg.Backend {
	case "", BackendSim:
		h.chip = max7219.NewChip()
		h.bus = &max7219.ChipBus{
			Chip:          h.chip,
			NotReadyEvery: cfg.Sim.NotReadyEvery,
			StuckTXC:      cfg.Sim.StuckTXC,
		}
		h.wave = newSimWaveform(cfg.Sim, cfg.Clock.Now())
		h.edges = newSimEdges(cfg.Clock, h.wave, &h.irq)
	case BackendLinux:
		if err := h.openLinux(cfg.Linux); err != nil {
			return nil, multierr.Append(err, h.Close())
		}
	default:
		return nil, fmt.Errorf("hal: unknown backend %q", cfg.Backend)
	}
	return h, nil
}

func (h *Host) Logger() Logger      { return h.logger }
func (h *Host) LED() LED            { return h.led }
func (h *Host) Counter() Counter    { return h.counter }
func (h *Host) Delay() tach.Delayer { return h.delay }
func (h *Host) Edges() EdgeSource   { return h.edges }
func (h *Host) Bus() max7219.Bus    { return h.bus }
func (h *Host) Display() Display    { return hostDisplay{fb: h.fb} }

// Chip returns the simulated MAX7219, or nil on real hardware.
func (h *Host) Chip() *max7219.Chip { return h.chip }

// Close stops edge delivery and releases the backend.
func (h *Host) Close() error {
	var err error
	if h.edges != nil {
		err = multierr.Append(err, h.edges.Disable())
	}
	for i := len(h.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, h.closers[i]())
	}
	h.closers = nil
	return err
}

type hostDisplay struct {
	fb *hostFramebuffer
}

func (d hostDisplay) Framebuffer() Framebuffer { return d.fb }

// NewZapLogger builds the console logger used on the host.
func NewZapLogger(debug bool) (*zap.Logger, error) {
	level := zap.InfoLevel
	if debug {
		level = zap.DebugLevel
	}
	cfg := zap.Config{
		Level:    zap.NewAtomicLevelAt(level),
		Encoding: "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			MessageKey:     "msg",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalColorLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
		},
		DisableStacktrace: true,
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
	}
	return cfg.Build()
}

type zapLogger struct {
	l *zap.Logger
}

func (l *zapLogger) WriteLineString(s string)  { l.l.Info(s) }
func (l *zapLogger) WriteLineBytes(b []byte)   { l.l.Info(string(b)) }
func (l *zapLogger) WriteErrorString(s string) { l.l.Error(s) }

type hostLED struct {
	mu     sync.Mutex
	on     bool
	logger *zapLogger
}

func (l *hostLED) High() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.on = true
	l.logger.l.Debug("led: HIGH")
}

func (l *hostLED) Low() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.on = false
	l.logger.l.Debug("led: LOW")
}

func (l *hostLED) On() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.on
}
