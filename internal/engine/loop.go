package engine

import (
	"context"
	"time"

	"github.com/olivierh59500/particlelife/internal/physics"
	"github.com/olivierh59500/particlelife/internal/snapshot"
)

// Run ticks every TickInterval while the engine is Running and sleeps on a
// wake signal otherwise. It returns nil once ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		if e.State() != Running {
			select {
			case <-ctx.Done():
				return nil
			case <-e.wake:
				continue
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		e.mu.Lock()
		var err error
		if e.state == Running {
			err = e.step(ctx)
		}
		e.mu.Unlock()
		if err != nil && ctx.Err() != nil {
			return nil
		}
	}
}

// Advance runs n ticks right away whatever the loop state, for headless runs
// and tests. A numeric fault stops it early and pauses the engine.
func (e *Engine) Advance(ctx context.Context, n int) error {
	for range n {
		e.mu.Lock()
		err := e.step(ctx)
		e.mu.Unlock()
		if err != nil {
			return err
		}
	}
	return nil
}

// step runs one tick. Caller holds mu. On error the store is left as it was
// before the tick and no snapshot is published.
func (e *Engine) step(ctx context.Context) error {
	start := time.Now()
	e.grid.Rebuild(e.store.Pos)

	bad, err := physics.Forces(ctx, e.scratch.Acc, e.store, e.grid, &e.cfg.Matrix, e.params)
	if err != nil {
		return e.fail(err)
	}
	e.suppressed("force", bad)

	bad, err = physics.Integrate(e.store, &e.scratch, e.cfg.Bounds, e.params)
	if err != nil {
		return e.fail(err)
	}
	e.suppressed("integrate", bad)

	e.tick++
	e.publish()
	e.metrics.Ticks.Inc()
	e.metrics.TickDuration.Observe(time.Since(start).Seconds())
	return nil
}

func (e *Engine) fail(err error) error {
	if !isNumeric(err) {
		return err
	}
	e.metrics.NumericFaults.Inc()
	e.setState(Paused)
	e.logger.Error("tick aborted, simulation paused", "tick", e.tick+1, "error", err)
	return err
}

func (e *Engine) suppressed(stage string, n int) {
	if n == 0 {
		return
	}
	e.metrics.NumericSuppressed.WithLabelValues(stage).Add(float64(n))
	e.faultLog.Do(func() {
		e.logger.Warn("non-finite values suppressed", "stage", stage, "particles", n, "tick", e.tick+1)
	})
}

// publish copies the store into the next snapshot buffer. Caller holds mu.
func (e *Engine) publish() {
	st := e.store
	e.out.Publish(func(s *snapshot.Snapshot) {
		s.Tick = e.tick
		s.Generation = e.gen
		s.Seed = e.seedText
		s.Bounds = e.cfg.Bounds
		n := st.Len()
		if cap(s.Particles) < n {
			s.Particles = make([]snapshot.ParticleState, n)
		}
		s.Particles = s.Particles[:n]
		for i := range s.Particles {
			s.Particles[i] = snapshot.ParticleState{
				ID:       i,
				Class:    st.Class[i],
				Position: st.Pos[i],
				Velocity: st.Vel[i],
			}
		}
	})
	e.metrics.Snapshots.Inc()
}
