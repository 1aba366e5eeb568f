// Package termview renders the simulation in a terminal. Each character
// cell shows how crowded its patch of the world is, coloured by the class
// that dominates it.
package termview

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/olivierh59500/particlelife/internal/engine"
	"github.com/olivierh59500/particlelife/internal/history"
	"github.com/olivierh59500/particlelife/internal/scene"
	"github.com/olivierh59500/particlelife/internal/seed"
)

// Controller is what the terminal view drives; *engine.Engine satisfies it
type Controller interface {
	engine.Consumer
	Reset() error
	State() engine.State
}

// ramp goes from sparse to crowded
var ramp = []rune(" .:-=+*#%@")

const (
	frameInterval = 33 * time.Millisecond
	statusLines   = 2
)

// View draws onto a tcell screen. The caller owns the screen's Init and
// Fini.
type View struct {
	screen  tcell.Screen
	eng     Controller
	hist    *history.Ring
	logger  *slog.Logger
	rng     *rand.Rand
	density scene.Density
	message string
}

// New returns a view over an initialised screen
func New(screen tcell.Screen, eng Controller, hist *history.Ring, logger *slog.Logger) *View {
	return &View{
		screen: screen,
		eng:    eng,
		hist:   hist,
		logger: logger,
		rng:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// Run redraws at a fixed rate and handles input until q, Ctrl-C or ctx
// cancellation
func (v *View) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()
	v.Render()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if v.HandleEvent(ev) {
				return nil
			}
		case <-ticker.C:
			v.Render()
		}
	}
}

// HandleEvent applies one input event and reports whether the user asked to
// quit
func (v *View) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		v.screen.Sync()
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return true
		case tcell.KeyLeft:
			if s, ok := v.hist.Previous(); ok {
				v.load(s, false)
			}
		case tcell.KeyRight:
			if s, ok := v.hist.Next(); ok {
				v.load(s, false)
			}
		case tcell.KeyBackspace, tcell.KeyBackspace2:
			if err := v.eng.Reset(); err != nil {
				v.message = err.Error()
			}
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q':
				return true
			case ' ':
				if v.eng.State() == engine.Running {
					v.eng.Pause()
				} else {
					v.eng.Play()
				}
			case 'r':
				v.load(seed.Random(v.rng), true)
			}
		}
	}
	return false
}

func (v *View) load(s string, remember bool) {
	if err := v.eng.LoadSeed(s); err != nil {
		v.message = err.Error()
		return
	}
	v.message = ""
	if remember {
		v.hist.Push(s)
	}
}

// Render draws the latest snapshot
func (v *View) Render() {
	v.screen.Clear()
	w, h := v.screen.Size()
	rows := h - statusLines
	snap := v.eng.Latest()
	if snap == nil || w <= 0 || rows <= 0 {
		if snap != nil {
			snap.Release()
		}
		v.screen.Show()
		return
	}
	defer snap.Release()

	v.density.Sample(snap, w, rows)
	for y := range rows {
		for x := range w {
			level := v.density.Level(x, y)
			class, ok := v.density.Dominant(x, y)
			if !ok {
				continue
			}
			idx := 1 + int(level*float64(len(ramp)-2)+0.5)
			c := scene.ClassColor(class)
			style := tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B)))
			v.screen.SetContent(x, y, ramp[min(idx, len(ramp)-1)], nil, style)
		}
	}

	status := fmt.Sprintf("tick %d  %s  %d particles  seed %s", snap.Tick, v.eng.State(), len(snap.Particles), snap.Seed)
	help := "space play/pause  r random  <- -> history  backspace reset  q quit"
	if v.message != "" {
		help = "error: " + v.message
	}
	v.drawText(0, rows, status, tcell.StyleDefault.Bold(true))
	v.drawText(0, rows+1, help, tcell.StyleDefault.Dim(true))
	v.screen.Show()
}

func (v *View) drawText(x, y int, text string, style tcell.Style) {
	w, _ := v.screen.Size()
	for _, r := range text {
		if x >= w {
			return
		}
		v.screen.SetContent(x, y, r, nil, style)
		x++
	}
}
