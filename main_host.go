//go:build !tinygo

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"periph.io/x/conn/v3/physic"

	"tachomatrix/app"
	"tachomatrix/glyph"
	"tachomatrix/hal"
	"tachomatrix/internal/buildinfo"
)

func main() {
	cfg := app.DefaultConfig()
	hcfg := hal.HostConfig{Sim: hal.DefaultSimConfig}
	hcfg.Linux.SPIHz = physic.MegaHertz
	var headless hal.HeadlessConfig

	var (
		windowless bool
		mode       string
		version    bool
		bits       uint
		intensity  int
	)
	flag.BoolVar(&windowless, "headless", false, "Run without a window.")
	flag.Uint64Var(&headless.Loops, "loops", 0, "Stop after N main-loop iterations in headless mode (0 = run forever).")
	flag.BoolVar(&headless.DumpFrames, "dump", false, "Log the matrix whenever it changes (headless, sim backend).")
	flag.DurationVar(&headless.DumpEvery, "dump-every", 0, "How often -dump checks the matrix.")
	flag.BoolVar(&version, "version", false, "Print the build and exit.")

	flag.StringVar(&mode, "mode", cfg.Mode.String(), "Digit decomposition: literal or direct.")
	flag.BoolVar(&cfg.Strict, "strict", false, "Ignore stop edges without a start edge.")
	flag.UintVar(&bits, "counter-bits", uint(cfg.CounterBits), "Counter width in bits.")
	flag.Func("rate-hz", "Divisor for ticks to seconds (default: counter rate).", func(s string) error {
		var hz uint32
		if _, err := fmt.Sscan(s, &hz); err != nil {
			return err
		}
		cfg.RateHz = hz
		return nil
	})
	flag.IntVar(&intensity, "intensity", cfg.Intensity, "Matrix intensity 0-15 (-1 = power-on level).")
	flag.BoolVar(&cfg.Console, "console", cfg.Console, "Draw the reading and log on the console framebuffer.")

	flag.StringVar(&hcfg.Backend, "backend", hal.BackendSim, "Host backend: sim or linux.")
	flag.BoolVar(&hcfg.Debug, "debug", false, "Debug logging.")
	flag.DurationVar(&hcfg.Sim.Period, "sim-period", hcfg.Sim.Period, "Simulated time between start edges.")
	flag.DurationVar(&hcfg.Sim.MinPulse, "sim-min", hcfg.Sim.MinPulse, "Shortest simulated interval.")
	flag.DurationVar(&hcfg.Sim.MaxPulse, "sim-max", hcfg.Sim.MaxPulse, "Longest simulated interval.")
	flag.IntVar(&hcfg.Sim.NotReadyEvery, "sim-not-ready", 0, "Drop every n-th matrix column (0 = never).")
	flag.BoolVar(&hcfg.Sim.StuckTXC, "sim-stuck-txc", false, "Never complete register writes.")
	flag.StringVar(&hcfg.Linux.Chip, "gpiochip", "/dev/gpiochip0", "GPIO chip (linux backend).")
	flag.Func("start-line", "Start sensor line offset (linux backend).", lineFlag(&hcfg.Linux.StartLine))
	flag.Func("stop-line", "Stop sensor line offset (linux backend).", lineFlag(&hcfg.Linux.StopLine))
	flag.StringVar(&hcfg.Linux.SPI, "spi", "", "SPI port name (linux backend, default first).")
	flag.Var(&hcfg.Linux.SPIHz, "spi-hz", "SPI clock (linux backend).")
	flag.Parse()

	if version {
		fmt.Println("tachomatrix", buildinfo.String())
		return
	}

	m, err := glyph.ParseMode(mode)
	if err != nil {
		fail(err)
	}
	cfg.Mode = m
	cfg.CounterBits = uint8(min(bits, 255))
	cfg.Intensity = intensity
	if err := cfg.Validate(); err != nil {
		fail(err)
	}

	newApp := func(h hal.HAL) (func() error, error) {
		return app.New(h, cfg)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if windowless {
		err = hal.RunHeadless(ctx, hcfg, headless, newApp)
	} else {
		err = hal.RunWindow(ctx, hcfg, newApp)
	}
	if err != nil {
		fail(err)
	}
}

func lineFlag(dst *uint32) func(string) error {
	return func(s string) error {
		_, err := fmt.Sscan(s, dst)
		return err
	}
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
