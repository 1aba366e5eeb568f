package viewer

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/olivierh59500/particlelife/internal/engine"
	"github.com/olivierh59500/particlelife/internal/scene"
	"github.com/olivierh59500/particlelife/internal/seed"
)

const (
	clickSlop  = 3   // pixels a press may move and still count as a click
	pickRadius = 8.0 // screen pixels
	zoomStep   = 1.1
	seedFile   = "seed.txt"
)

// handleInput processes keyboard and mouse input
func (g *Game) handleInput() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		if g.eng.State() == engine.Running {
			g.eng.Pause()
		} else {
			g.eng.Play()
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.load(seed.Random(g.rng), true)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyLeft) {
		if s, ok := g.hist.Previous(); ok {
			g.load(s, false)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyRight) {
		if s, ok := g.hist.Next(); ok {
			g.load(s, false)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		if err := g.eng.Reset(); err != nil {
			g.message = err.Error()
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		g.mode = (g.mode + 1) % modeCount
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF) && g.selected >= 0 {
		g.follow = !g.follow
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		g.selected, g.follow = -1, false
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		g.fitted = false
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		g.hideHUD = !g.hideHUD
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		g.saveSeed(seedFile)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyL) {
		g.loadSeed(seedFile)
	}

	mx, my := ebiten.CursorPosition()
	cursor := r2.Vec{X: float64(mx), Y: float64(my)}

	if _, wheelY := ebiten.Wheel(); wheelY != 0 {
		factor := zoomStep
		if wheelY < 0 {
			factor = 1 / zoomStep
		}
		g.cam.ZoomAt(cursor, factor)
	}

	// left drag pans, a left click without movement picks a particle
	switch {
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft):
		g.pressX, g.pressY = mx, my
		g.dragged = false
	case ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft):
		if abs(mx-g.pressX) > clickSlop || abs(my-g.pressY) > clickSlop {
			g.dragged = true
		}
		if g.dragged {
			g.cam.Pan(float64(mx-g.prevX), float64(my-g.prevY))
			g.follow = false
		}
	case inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft):
		if !g.dragged {
			g.pick(cursor)
		}
	}
	g.prevX, g.prevY = mx, my
	return nil
}

func (g *Game) pick(cursor r2.Vec) {
	if g.snap == nil {
		return
	}
	at := g.cam.ScreenToWorld(cursor)
	if p, ok := scene.Pick(g.snap, at, pickRadius/g.cam.Zoom, g.policy); ok {
		g.selected = p.ID
		return
	}
	g.selected, g.follow = -1, false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
