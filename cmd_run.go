package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/olivierh59500/particlelife/internal/analysis"
	"github.com/olivierh59500/particlelife/internal/recorder"
	"github.com/olivierh59500/particlelife/internal/termview"
	"github.com/olivierh59500/particlelife/internal/viewer"
)

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runWindow(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	if err := a.background(gctx, g); err != nil {
		cancel()
		return errors.Join(err, g.Wait())
	}

	game := viewer.New(gctx, a.engine, a.hist, a.store, a.cfg.Viewer, a.engine.Physics().Boundary,
		a.logger.With("component", "viewer"))
	a.engine.Play()
	// ebiten needs the main goroutine
	runErr := viewer.Run(game)
	cancel()
	return errors.Join(runErr, g.Wait())
}

func runTerminal(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("open terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init terminal: %w", err)
	}
	defer screen.Fini()

	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	if err := a.background(gctx, g); err != nil {
		cancel()
		return errors.Join(err, g.Wait())
	}

	view := termview.New(screen, a.engine, a.hist, a.logger.With("component", "termview"))
	a.engine.Play()
	runErr := view.Run(gctx)
	cancel()
	a.saveHistory(context.Background())
	return errors.Join(runErr, g.Wait())
}

func runHeadless(cmd *cobra.Command, args []string) error {
	if headlessTicks < 0 {
		return fmt.Errorf("--ticks must be non-negative, got %d", headlessTicks)
	}
	ctx, stop := signalContext()
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	params := a.engine.Physics()
	if headlessWorkers > 0 {
		params.Workers = headlessWorkers
		if err := a.engine.SetPhysics(params); err != nil {
			return err
		}
	}

	var rec *recorder.Recorder
	if headlessRecord {
		store, err := a.recordingStore()
		if err != nil {
			return err
		}
		rec = recorder.New(a.engine, store, a.cfg.Recorder.Interval, params.Boundary,
			a.logger.With("component", "recorder"), a.metrics)
		if err := rec.Begin(ctx); err != nil {
			return err
		}
	}

	start := time.Now()
	if err := a.engine.Advance(ctx, headlessTicks); err != nil {
		return err
	}
	elapsed := time.Since(start)

	snap := a.engine.Latest()
	if snap == nil {
		return errors.New("engine published no snapshot")
	}
	defer snap.Release()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "seed:      %s\n", snap.Seed)
	fmt.Fprintf(out, "export:    %s\n", a.engine.CurrentSeed())
	fmt.Fprintf(out, "ticks:     %d\n", snap.Tick)
	fmt.Fprintf(out, "particles: %d\n", len(snap.Particles))
	fmt.Fprintf(out, "world:     %.1f x %.1f (%s)\n", snap.Bounds.Width, snap.Bounds.Height, params.Boundary)
	if headlessTicks > 0 {
		fmt.Fprintf(out, "elapsed:   %s (%s/tick)\n", elapsed.Round(time.Millisecond), (elapsed / time.Duration(headlessTicks)).Round(time.Microsecond))
	}

	f := analysis.Extract(snap, params.Boundary)
	fmt.Fprintln(out)
	fmt.Fprintf(out, "%-6s %6s %10s %10s %10s %10s\n", "class", "count", "x", "y", "spread", "speed")
	for c, n := range f.Count {
		if n == 0 {
			continue
		}
		fmt.Fprintf(out, "%-6d %6d %10.2f %10.2f %10.2f %10.2f\n",
			c, n, f.Centroid[c].X, f.Centroid[c].Y, f.Spread[c], f.Speed[c])
	}

	if rec != nil {
		if err := rec.Sample(ctx); err != nil {
			return fmt.Errorf("record features: %w", err)
		}
		fmt.Fprintf(out, "\nrecorded as %s\n", rec.RunID())
	}
	return nil
}
