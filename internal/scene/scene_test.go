package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/olivierh59500/particlelife/internal/snapshot"
	"github.com/olivierh59500/particlelife/internal/space"
)

var world = space.Bounds{Width: 100, Height: 100}

func snap(tick uint64, seed string, pos ...r2.Vec) *snapshot.Snapshot {
	s := &snapshot.Snapshot{Tick: tick, Seed: seed, Bounds: world}
	for i, p := range pos {
		s.Particles = append(s.Particles, snapshot.ParticleState{ID: i, Class: uint8(i % 8), Position: p})
	}
	return s
}

func TestCameraRoundTrip(t *testing.T) {
	c := NewCamera()
	c.Pan(-30, 10)
	c.ZoomAt(r2.Vec{X: 200, Y: 100}, 2.5)

	w := r2.Vec{X: 12.5, Y: -3}
	back := c.ScreenToWorld(c.WorldToScreen(w))
	assert.InDelta(t, w.X, back.X, 1e-9)
	assert.InDelta(t, w.Y, back.Y, 1e-9)
}

func TestZoomKeepsAnchorAndLimits(t *testing.T) {
	c := NewCamera()
	at := r2.Vec{X: 320, Y: 240}
	before := c.ScreenToWorld(at)
	c.ZoomAt(at, 3)
	after := c.ScreenToWorld(at)
	assert.InDelta(t, before.X, after.X, 1e-9)
	assert.InDelta(t, before.Y, after.Y, 1e-9)

	c.ZoomAt(at, 1e-6)
	assert.Equal(t, MinZoom, c.Zoom)
	c.ZoomAt(at, 1e9)
	assert.Equal(t, MaxZoom, c.Zoom)
}

func TestFitShowsWholeWorld(t *testing.T) {
	c := NewCamera()
	c.Fit(world, 800, 400)
	assert.Equal(t, 4.0, c.Zoom)
	center := c.WorldToScreen(world.Center())
	assert.InDelta(t, 400, center.X, 1e-9)
	assert.InDelta(t, 200, center.Y, 1e-9)
}

func TestTiles(t *testing.T) {
	c := NewCamera()
	c.X, c.Y = -50, 0
	var tiles []r2.Vec
	for off := range c.Tiles(world, space.Wrap, 200, 100) {
		tiles = append(tiles, off)
	}
	assert.Equal(t, []r2.Vec{{X: -100}, {X: 0}, {X: 100}}, tiles)

	tiles = tiles[:0]
	for off := range c.Tiles(world, space.Clamp, 200, 100) {
		tiles = append(tiles, off)
	}
	assert.Equal(t, []r2.Vec{{}}, tiles)
}

func TestClassColorsDiffer(t *testing.T) {
	seen := map[[3]uint8]bool{}
	for c := range uint8(8) {
		col := ClassColor(c)
		seen[[3]uint8{col.R, col.G, col.B}] = true
		assert.Equal(t, uint8(255), col.A)
	}
	assert.Len(t, seen, 8)
	assert.Equal(t, uint8(255), ClassColor(0).R)
}

func TestTrails(t *testing.T) {
	tr := NewTrails(3)
	tr.Observe(snap(0, "a", r2.Vec{X: 10, Y: 10}))
	tr.Observe(snap(0, "a", r2.Vec{X: 99, Y: 99}))
	assert.Equal(t, 1, tr.Len(), "same tick is ignored")

	for tick, x := range []float64{11, 12, 13} {
		tr.Observe(snap(uint64(tick+1), "a", r2.Vec{X: x, Y: 10}))
	}
	assert.Equal(t, 3, tr.Len())

	var segs [][2]float64
	tr.Segments(0, func(a, b r2.Vec) { segs = append(segs, [2]float64{a.X, b.X}) })
	assert.Equal(t, [][2]float64{{11, 12}, {12, 13}}, segs)

	tr.Observe(snap(4, "a", r2.Vec{X: 95, Y: 10}))
	segs = segs[:0]
	tr.Segments(0, func(a, b r2.Vec) { segs = append(segs, [2]float64{a.X, b.X}) })
	assert.Equal(t, [][2]float64{{12, 13}}, segs, "the wrap jump is not drawn")

	tr.Observe(snap(5, "b", r2.Vec{X: 1, Y: 1}))
	assert.Equal(t, 1, tr.Len(), "a new seed starts over")
	tr.Segments(7, func(a, b r2.Vec) { t.Fatal("unknown particle") })
}

func TestDensity(t *testing.T) {
	s := snap(0, "a", r2.Vec{X: 1, Y: 1}, r2.Vec{X: 2, Y: 2}, r2.Vec{X: 99, Y: 99}, r2.Vec{X: 100, Y: 100})
	s.Particles[1].Class = 0

	var d Density
	d.Sample(s, 4, 2)
	assert.Equal(t, 2, d.At(0, 0))
	assert.Equal(t, 2, d.At(3, 1), "edge positions land in the last cell")
	assert.Equal(t, 2, d.Max)
	assert.Equal(t, 1.0, d.Level(0, 0))
	assert.Zero(t, d.Level(1, 0))

	cls, ok := d.Dominant(0, 0)
	require.True(t, ok)
	assert.Equal(t, uint8(0), cls)
	_, ok = d.Dominant(1, 1)
	assert.False(t, ok)

	d.Sample(snap(0, "a"), 4, 2)
	assert.Zero(t, d.Max)
	assert.Zero(t, d.At(0, 0))
}

func TestPick(t *testing.T) {
	s := snap(0, "a", r2.Vec{X: 10, Y: 10}, r2.Vec{X: 98, Y: 50})

	p, ok := Pick(s, r2.Vec{X: 12, Y: 11}, 5, space.Wrap)
	require.True(t, ok)
	assert.Equal(t, 0, p.ID)

	p, ok = Pick(s, r2.Vec{X: 101, Y: 50}, 5, space.Wrap)
	require.True(t, ok, "picking across the seam")
	assert.Equal(t, 1, p.ID)

	_, ok = Pick(s, r2.Vec{X: 50, Y: 50}, 5, space.Wrap)
	assert.False(t, ok)
}
