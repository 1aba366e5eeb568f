package scene

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/olivierh59500/particlelife/internal/snapshot"
)

// Trails remembers the last few positions of every particle, one per
// observed tick
type Trails struct {
	length int
	seed   string
	tick   uint64
	n      int
	buf    []r2.Vec // particle i owns buf[i*length : (i+1)*length]
	head   int      // slot of the newest sample
	filled int
	half   r2.Vec // half the world size, to spot wrap jumps
}

// NewTrails keeps length positions per particle
func NewTrails(length int) *Trails {
	return &Trails{length: max(2, length)}
}

// Observe records the snapshot's positions. A new seed, a different
// population or a tick going backwards starts the trails over; a tick
// already seen is ignored.
func (t *Trails) Observe(s *snapshot.Snapshot) {
	n := len(s.Particles)
	if s.Seed != t.seed || n != t.n || s.Tick < t.tick {
		t.seed, t.n = s.Seed, n
		t.filled, t.head = 0, 0
		if cap(t.buf) < n*t.length {
			t.buf = make([]r2.Vec, n*t.length)
		}
		t.buf = t.buf[:n*t.length]
	} else if t.filled > 0 && s.Tick == t.tick {
		return
	}
	t.tick = s.Tick
	t.half = r2.Vec{X: s.Bounds.Width / 2, Y: s.Bounds.Height / 2}

	if t.filled > 0 {
		t.head = (t.head + 1) % t.length
	}
	for i, p := range s.Particles {
		t.buf[i*t.length+t.head] = p.Position
	}
	t.filled = min(t.filled+1, t.length)
}

// Len returns how many positions each trail holds right now
func (t *Trails) Len() int {
	return t.filled
}

// Segments calls fn for each consecutive pair of positions of particle id,
// oldest first. Steps that jumped across a wrapped edge are skipped.
func (t *Trails) Segments(id int, fn func(a, b r2.Vec)) {
	if id < 0 || id >= t.n || t.filled < 2 {
		return
	}
	base := id * t.length
	oldest := (t.head - t.filled + 1 + t.length) % t.length
	prev := t.buf[base+oldest]
	for k := 1; k < t.filled; k++ {
		cur := t.buf[base+(oldest+k)%t.length]
		if math.Abs(cur.X-prev.X) < t.half.X && math.Abs(cur.Y-prev.Y) < t.half.Y {
			fn(prev, cur)
		}
		prev = cur
	}
}
