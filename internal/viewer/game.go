// Package viewer is the windowed consumer: it draws the latest snapshot and
// turns keyboard and mouse input into engine commands
package viewer

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/olivierh59500/particlelife/internal/config"
	"github.com/olivierh59500/particlelife/internal/engine"
	"github.com/olivierh59500/particlelife/internal/history"
	"github.com/olivierh59500/particlelife/internal/scene"
	"github.com/olivierh59500/particlelife/internal/snapshot"
	"github.com/olivierh59500/particlelife/internal/space"
)

// Controller is what the viewer drives; *engine.Engine satisfies it
type Controller interface {
	engine.Consumer
	Reset() error
	State() engine.State
}

// Mode is the visualisation mode, cycled with H
type Mode int

const (
	ModeParticles Mode = iota
	ModeTrails
	ModeHeatmap
	modeCount
)

func (m Mode) String() string {
	switch m {
	case ModeParticles:
		return "particles"
	case ModeTrails:
		return "trails"
	case ModeHeatmap:
		return "heatmap"
	default:
		return "unknown"
	}
}

// heatCell is the side of a heatmap cell in world units
const heatCell = 10.0

// Game implements ebiten.Game
type Game struct {
	ctx     context.Context
	eng     Controller
	hist    *history.Ring
	store   history.Store
	logger  *slog.Logger
	opts    config.ViewerConfig
	policy  space.Policy
	rng     *rand.Rand
	cam     scene.Camera
	trails  *scene.Trails
	density scene.Density

	snap     *snapshot.Snapshot
	mode     Mode
	selected int
	follow   bool
	hideHUD  bool
	fitted   bool
	message  string

	screenW, screenH int
	pressX, pressY   int
	prevX, prevY     int
	dragged          bool
}

// New builds the viewer. store may be nil to keep history in memory only.
func New(ctx context.Context, eng Controller, hist *history.Ring, store history.Store, opts config.ViewerConfig, policy space.Policy, logger *slog.Logger) *Game {
	return &Game{
		ctx:      ctx,
		eng:      eng,
		hist:     hist,
		store:    store,
		logger:   logger,
		opts:     opts,
		policy:   policy,
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		cam:      scene.NewCamera(),
		trails:   scene.NewTrails(opts.TrailLength),
		selected: -1,
	}
}

// Run opens the window and blocks until it is closed or ctx is cancelled
func Run(g *Game) error {
	ebiten.SetWindowSize(g.opts.Width, g.opts.Height)
	ebiten.SetWindowTitle("Particle Life")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(g.opts.TPS)
	defer g.release()
	return ebiten.RunGame(g)
}

// Update is called each tick by Ebitengine
func (g *Game) Update() error {
	if g.ctx.Err() != nil {
		return ebiten.Termination
	}
	if err := g.handleInput(); err != nil {
		return err
	}

	if s := g.eng.Latest(); s != nil {
		g.release()
		g.snap = s
	}
	if g.snap == nil {
		return nil
	}
	sw, sh := g.screenSize()
	if !g.fitted {
		g.cam.Fit(g.snap.Bounds, sw, sh)
		g.fitted = true
	}
	switch g.mode {
	case ModeTrails:
		g.trails.Observe(g.snap)
	case ModeHeatmap:
		g.density.Sample(g.snap, int(g.snap.Bounds.Width/heatCell), int(g.snap.Bounds.Height/heatCell))
	}
	if g.follow && g.selected >= 0 {
		if p, ok := g.snap.Lookup(g.selected); ok {
			g.cam.CenterOn(p.Position, sw, sh)
		}
	}
	return nil
}

// Layout follows the window size
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.screenW, g.screenH = outsideWidth, outsideHeight
	return outsideWidth, outsideHeight
}

func (g *Game) screenSize() (float64, float64) {
	if g.screenW == 0 || g.screenH == 0 {
		return float64(g.opts.Width), float64(g.opts.Height)
	}
	return float64(g.screenW), float64(g.screenH)
}

func (g *Game) release() {
	if g.snap != nil {
		g.snap.Release()
		g.snap = nil
	}
}

// load switches to seed and, when remember is set, records it in the history
func (g *Game) load(seed string, remember bool) {
	if err := g.eng.LoadSeed(seed); err != nil {
		g.message = err.Error()
		return
	}
	g.message = ""
	g.selected, g.follow = -1, false
	g.fitted = false
	if remember && g.hist.Push(seed) {
		g.saveHistory()
	}
}

func (g *Game) saveHistory() {
	if g.store == nil {
		return
	}
	if err := g.store.Save(g.ctx, g.hist.Entries()); err != nil {
		g.logger.Warn("saving history failed", "error", err)
	}
}

// saveSeed writes the exported form of the running configuration to path
func (g *Game) saveSeed(path string) {
	text := g.eng.CurrentSeed()
	if err := os.WriteFile(path, []byte(text+"\n"), 0o644); err != nil {
		g.message = err.Error()
		g.logger.Warn("saving seed failed", "path", path, "error", err)
		return
	}
	g.message = "saved to " + path
	g.logger.Info("seed saved", "path", path, "seed", text)
}

// loadSeed reads a seed from path and switches to it
func (g *Game) loadSeed(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		g.message = err.Error()
		return
	}
	g.load(strings.TrimSpace(string(data)), true)
}
