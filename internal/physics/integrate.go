package physics

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/olivierh59500/particlelife/internal/particle"
	"github.com/olivierh59500/particlelife/internal/space"
)

// Scratch holds the per-tick buffers of the force and integration passes
type Scratch struct {
	Acc     []r2.Vec
	NextPos []r2.Vec
	NextVel []r2.Vec
}

// Resize grows the buffers to hold n particles
func (sc *Scratch) Resize(n int) {
	if cap(sc.Acc) < n {
		sc.Acc = make([]r2.Vec, n)
		sc.NextPos = make([]r2.Vec, n)
		sc.NextVel = make([]r2.Vec, n)
	}
	sc.Acc = sc.Acc[:n]
	sc.NextPos = sc.NextPos[:n]
	sc.NextVel = sc.NextVel[:n]
}

// Integrate advances every particle by one tick using the accelerations in
// sc.Acc. New state is computed into scratch first and committed only when
// the whole population is done, so a Strict failure leaves the store as it
// was. Returns how many non-finite positions were suppressed.
func Integrate(s *particle.Store, sc *Scratch, bounds space.Bounds, p Params) (int, error) {
	keep := 1 - p.Damping
	dt := p.DT
	dt2 := dt * dt
	bad := 0

	for i := range s.Pos {
		x := s.Pos[i]
		a := sc.Acc[i]
		var next, vel r2.Vec

		switch p.Integrator {
		case Euler:
			vel.X = float64(s.Vel[i].X*keep) + float64(a.X*dt)
			vel.Y = float64(s.Vel[i].Y*keep) + float64(a.Y*dt)
			next.X = x.X + float64(vel.X*dt)
			next.Y = x.Y + float64(vel.Y*dt)
		default:
			prev := s.Prev[i]
			next.X = x.X + float64((x.X-prev.X)*keep) + float64(a.X*dt2)
			next.Y = x.Y + float64((x.Y-prev.Y)*keep) + float64(a.Y*dt2)
			vel.X = (next.X - x.X) / dt
			vel.Y = (next.Y - x.Y) / dt
		}

		if !finite(next) || !finite(vel) {
			if p.Numeric == Strict {
				return bad, &NumericError{Stage: "integrate", Particle: i, Value: next}
			}
			next, vel = x, r2.Vec{}
			bad++
		}
		sc.NextPos[i] = next
		sc.NextVel[i] = vel
	}

	for i := range s.Pos {
		commit(s, i, sc.NextPos[i], sc.NextVel[i], bounds, p.Boundary)
	}
	return bad, nil
}

// commit stores the new state after applying the boundary policy. Wrapping
// shifts the position history by the same offset so the implied velocity
// survives; clamping kills the velocity along the clamped axis.
func commit(s *particle.Store, i int, raw, vel r2.Vec, bounds space.Bounds, policy space.Policy) {
	x := s.Pos[i]
	bounded := policy.Apply(bounds, raw)
	prev := r2.Vec{X: x.X + (bounded.X - raw.X), Y: x.Y + (bounded.Y - raw.Y)}

	if policy == space.Clamp {
		prev = x
		if bounded.X != raw.X {
			prev.X, vel.X = bounded.X, 0
		}
		if bounded.Y != raw.Y {
			prev.Y, vel.Y = bounded.Y, 0
		}
	}
	s.Prev[i] = prev
	s.Pos[i] = bounded
	s.Vel[i] = vel
}
