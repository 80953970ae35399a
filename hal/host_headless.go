//go:build !tinygo

package hal

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"tachomatrix/glyph"
)

// NewApp builds the firmware on a HAL and returns one main-loop iteration.
type NewApp func(HAL) (step func() error, err error)

// HeadlessConfig controls the no-window host runner.
type HeadlessConfig struct {
	// Loops stops after this many main-loop iterations. Zero runs until the
	// context is cancelled.
	Loops uint64

	// DumpFrames logs the simulated matrix whenever it changes.
	DumpFrames bool
	// DumpEvery is how often the matrix is checked for changes.
	DumpEvery time.Duration
}

// RunHeadless runs the firmware without opening a window.
func RunHeadless(ctx context.Context, cfg HostConfig, hcfg HeadlessConfig, newApp NewApp) (err error) {
	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	h, err := New(runCtx, cfg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, h.Close()) }()

	step, err := newApp(h)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		defer stop()
		return runLoop(gctx, step, hcfg.Loops)
	})
	if hcfg.DumpFrames && h.chip != nil {
		g.Go(func() error {
			watchFrames(gctx, h, hcfg.DumpEvery)
			return nil
		})
	}
	return g.Wait()
}

// runLoop calls step until it fails, loops iterations have run, or ctx is
// done. Errors caused by cancellation are not reported.
func runLoop(ctx context.Context, step func() error, loops uint64) error {
	for n := uint64(0); loops == 0 || n < loops; n++ {
		if ctx.Err() != nil {
			return nil
		}
		if err := step(); err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				return nil
			}
			return err
		}
	}
	return nil
}

func watchFrames(ctx context.Context, h *Host, every time.Duration) {
	if every <= 0 {
		every = 100 * time.Millisecond
	}
	t := h.counter.clk.Ticker(every)
	defer t.Stop()

	var last glyph.Frame
	first := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		f := h.chip.Visible()
		if !first && f == last {
			continue
		}
		first = false
		last = f
		h.logger.WriteLineString("matrix " + f.Hex() + "\n" + indent(f.String()))
	}
}

func indent(s string) string {
	return "  " + strings.ReplaceAll(s, "\n", "\n  ")
}
