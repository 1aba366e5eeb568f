// Package scene holds the display-independent parts of the renderers: the
// camera, particle trails, density sampling, picking and the class palette
package scene

import (
	"iter"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/olivierh59500/particlelife/internal/space"
)

const (
	MinZoom = 0.1 // further out the tiled copies get too many
	MaxZoom = 40.0
)

// Camera maps world coordinates to screen pixels. X and Y are the world
// point shown at the top-left corner.
type Camera struct {
	X, Y float64
	Zoom float64
}

// NewCamera returns a camera at the world origin with no zoom
func NewCamera() Camera {
	return Camera{Zoom: 1}
}

func (c Camera) WorldToScreen(w r2.Vec) r2.Vec {
	return r2.Vec{X: (w.X - c.X) * c.Zoom, Y: (w.Y - c.Y) * c.Zoom}
}

func (c Camera) ScreenToWorld(s r2.Vec) r2.Vec {
	return r2.Vec{X: s.X/c.Zoom + c.X, Y: s.Y/c.Zoom + c.Y}
}

// Pan moves the view by a screen-space drag
func (c *Camera) Pan(dx, dy float64) {
	c.X -= dx / c.Zoom
	c.Y -= dy / c.Zoom
}

// ZoomAt scales the view by factor while keeping the world point under the
// screen position at fixed
func (c *Camera) ZoomAt(at r2.Vec, factor float64) {
	anchor := c.ScreenToWorld(at)
	c.Zoom = math.Min(MaxZoom, math.Max(MinZoom, c.Zoom*factor))
	c.X = anchor.X - at.X/c.Zoom
	c.Y = anchor.Y - at.Y/c.Zoom
}

// CenterOn moves the view so w sits in the middle of a screen of the given
// size
func (c *Camera) CenterOn(w r2.Vec, screenW, screenH float64) {
	c.X = w.X - screenW/2/c.Zoom
	c.Y = w.Y - screenH/2/c.Zoom
}

// Fit zooms and centres so the whole world is visible
func (c *Camera) Fit(bounds space.Bounds, screenW, screenH float64) {
	c.Zoom = math.Min(MaxZoom, math.Max(MinZoom, math.Min(screenW/bounds.Width, screenH/bounds.Height)))
	c.CenterOn(bounds.Center(), screenW, screenH)
}

// Tiles yields the world offsets of every copy of the world that overlaps
// the screen. A toroidal world repeats in every direction; a clamped one is
// drawn once.
func (c Camera) Tiles(bounds space.Bounds, policy space.Policy, screenW, screenH float64) iter.Seq[r2.Vec] {
	return func(yield func(r2.Vec) bool) {
		if policy != space.Wrap {
			yield(r2.Vec{})
			return
		}
		x0 := math.Floor(c.X / bounds.Width)
		x1 := math.Ceil((c.X + screenW/c.Zoom) / bounds.Width)
		y0 := math.Floor(c.Y / bounds.Height)
		y1 := math.Ceil((c.Y + screenH/c.Zoom) / bounds.Height)
		for ty := y0; ty < y1; ty++ {
			for tx := x0; tx < x1; tx++ {
				if !yield(r2.Vec{X: tx * bounds.Width, Y: ty * bounds.Height}) {
					return
				}
			}
		}
	}
}
