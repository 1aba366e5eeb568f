package viewer

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/olivierh59500/particlelife/internal/scene"
)

var selectionColor = color.RGBA{255, 255, 255, 255}

// Draw is called each frame by Ebitengine
func (g *Game) Draw(screen *ebiten.Image) {
	if g.snap == nil {
		return
	}
	sw := float64(screen.Bounds().Dx())
	sh := float64(screen.Bounds().Dy())

	for off := range g.cam.Tiles(g.snap.Bounds, g.policy, sw, sh) {
		switch g.mode {
		case ModeParticles:
			g.drawParticles(screen, off, sw, sh)
		case ModeTrails:
			g.drawTrails(screen, off, sw, sh)
		case ModeHeatmap:
			g.drawHeatmap(screen, off, sw, sh)
		}
		g.drawSelection(screen, off)
	}
	if !g.hideHUD {
		g.drawHUD(screen)
	}
}

func visible(p r2.Vec, margin, sw, sh float64) bool {
	return p.X >= -margin && p.X <= sw+margin && p.Y >= -margin && p.Y <= sh+margin
}

func (g *Game) drawParticles(screen *ebiten.Image, off r2.Vec, sw, sh float64) {
	size := g.opts.ParticleSize * g.cam.Zoom
	for _, p := range g.snap.Particles {
		sp := g.cam.WorldToScreen(r2.Add(p.Position, off))
		if visible(sp, size, sw, sh) {
			vector.DrawFilledCircle(screen, float32(sp.X), float32(sp.Y), float32(size), scene.ClassColor(p.Class), true)
		}
	}
}

func (g *Game) drawTrails(screen *ebiten.Image, off r2.Vec, sw, sh float64) {
	for _, p := range g.snap.Particles {
		col := scene.ClassColor(p.Class)
		g.trails.Segments(p.ID, func(a, b r2.Vec) {
			sa := g.cam.WorldToScreen(r2.Add(a, off))
			sb := g.cam.WorldToScreen(r2.Add(b, off))
			if visible(sa, 1, sw, sh) || visible(sb, 1, sw, sh) {
				vector.StrokeLine(screen, float32(sa.X), float32(sa.Y), float32(sb.X), float32(sb.Y), 1, col, true)
			}
		})
	}
}

func (g *Game) drawHeatmap(screen *ebiten.Image, off r2.Vec, sw, sh float64) {
	d := &g.density
	cw := g.snap.Bounds.Width / float64(d.Cols)
	ch := g.snap.Bounds.Height / float64(d.Rows)
	w, h := float32(cw*g.cam.Zoom), float32(ch*g.cam.Zoom)
	margin := max(cw, ch) * g.cam.Zoom
	for y := range d.Rows {
		for x := range d.Cols {
			level := d.Level(x, y)
			if level == 0 {
				continue
			}
			sp := g.cam.WorldToScreen(r2.Vec{X: float64(x)*cw + off.X, Y: float64(y)*ch + off.Y})
			if visible(sp, margin, sw, sh) {
				vector.DrawFilledRect(screen, float32(sp.X), float32(sp.Y), w, h, scene.Heat(level), false)
			}
		}
	}
}

func (g *Game) drawSelection(screen *ebiten.Image, off r2.Vec) {
	if g.selected < 0 {
		return
	}
	p, ok := g.snap.Lookup(g.selected)
	if !ok {
		return
	}
	sp := g.cam.WorldToScreen(r2.Add(p.Position, off))
	r := float32(max(6, 3*g.opts.ParticleSize*g.cam.Zoom))
	vector.StrokeCircle(screen, float32(sp.X), float32(sp.Y), r, 1.5, selectionColor, true)
}

func (g *Game) drawHUD(screen *ebiten.Image) {
	var b strings.Builder
	fmt.Fprintf(&b, "seed: %s\n", g.snap.Seed)
	fmt.Fprintf(&b, "tick %d  %s  %d particles  view %s  zoom %.2f  %.0f TPS\n",
		g.snap.Tick, g.eng.State(), len(g.snap.Particles), g.mode, g.cam.Zoom, ebiten.ActualTPS())
	if p, ok := g.snap.Lookup(g.selected); ok {
		follow := ""
		if g.follow {
			follow = " (following)"
		}
		fmt.Fprintf(&b, "particle %d class %d  pos (%.1f, %.1f)  vel (%.1f, %.1f)%s\n",
			p.ID, p.Class, p.Position.X, p.Position.Y, p.Velocity.X, p.Velocity.Y, follow)
	}
	if g.message != "" {
		fmt.Fprintf(&b, "> %s\n", g.message)
	}
	b.WriteString("space play/pause  R random  <- -> history  backspace reset  H view  F follow  C fit  S/L save/load seed  tab HUD  Q quit")
	ebitenutil.DebugPrint(screen, b.String())
}
