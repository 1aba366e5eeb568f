package scene

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/olivierh59500/particlelife/internal/snapshot"
	"github.com/olivierh59500/particlelife/internal/space"
)

// Pick returns the particle nearest to at, if one lies within the given
// world distance
func Pick(s *snapshot.Snapshot, at r2.Vec, within float64, policy space.Policy) (snapshot.ParticleState, bool) {
	at = policy.Apply(s.Bounds, at)
	best := -1
	bestD2 := within * within
	for i, p := range s.Particles {
		d := policy.Delta(s.Bounds, at, p.Position)
		if d2 := d.X*d.X + d.Y*d.Y; d2 <= bestD2 {
			best, bestD2 = i, d2
		}
	}
	if best < 0 {
		return snapshot.ParticleState{}, false
	}
	return s.Particles[best], true
}
