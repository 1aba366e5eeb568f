// Package engine runs the simulation and is the only thing consumers talk to.
//
// One mutex guards the whole aggregate and is held for an entire tick.
// Commands take the same mutex, so they always land between two ticks and a
// consumer never observes a half-applied change. Consumers read state only
// through snapshots.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/olivierh59500/particlelife/internal/grid"
	"github.com/olivierh59500/particlelife/internal/matrix"
	"github.com/olivierh59500/particlelife/internal/particle"
	"github.com/olivierh59500/particlelife/internal/physics"
	"github.com/olivierh59500/particlelife/internal/seed"
	"github.com/olivierh59500/particlelife/internal/snapshot"
	"github.com/olivierh59500/particlelife/internal/telemetry"
)

// DefaultTickInterval is the loop cadence while running
const DefaultTickInterval = 30 * time.Millisecond

// State is the loop state
type State uint8

const (
	Idle State = iota
	Running
	Paused
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

// Consumer is everything a renderer, inspector or controller may do with a
// running simulation
type Consumer interface {
	Latest() *snapshot.Snapshot
	Lookup(id int) (snapshot.ParticleState, bool)
	Play()
	Pause()
	LoadSeed(s string) error
	CurrentSeed() string
}

var _ Consumer = (*Engine)(nil)

// Options configure an Engine. Zero values pick the defaults.
type Options struct {
	Physics      physics.Params
	Pattern      particle.Pattern
	TickInterval time.Duration
	Logger       *slog.Logger
	Metrics      *telemetry.Metrics
}

// Engine owns one simulation and its loop
type Engine struct {
	mu sync.Mutex

	logger   *slog.Logger
	metrics  *telemetry.Metrics
	interval time.Duration
	pattern  particle.Pattern
	params   physics.Params

	cfg      seed.SimulationConfig
	seedText string // what CurrentSeed reports
	store    *particle.Store
	grid     *grid.Grid
	scratch  physics.Scratch
	tick     uint64
	gen      uint64 // bumped on every respawn
	state    State

	out      *snapshot.Channel
	wake     chan struct{}
	faultLog rate.Sometimes
}

// New builds an engine with initial loaded and idle. The first snapshot
// (tick 0) is published before New returns.
func New(initial string, opts Options) (*Engine, error) {
	if opts.Physics == (physics.Params{}) {
		opts.Physics = physics.DefaultParams()
	}
	if err := opts.Physics.Validate(); err != nil {
		return nil, fmt.Errorf("physics: %w", err)
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.Logger == nil {
		opts.Logger = telemetry.Discard()
	}
	if opts.Metrics == nil {
		opts.Metrics = telemetry.NewMetrics(prometheus.NewRegistry())
	}

	e := &Engine{
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		interval: opts.TickInterval,
		pattern:  opts.Pattern,
		params:   opts.Physics,
		out:      snapshot.NewChannel(),
		wake:     make(chan struct{}, 1),
		faultLog: rate.Sometimes{Interval: time.Second},
	}
	if err := e.LoadSeed(initial); err != nil {
		return nil, err
	}
	return e, nil
}

// LoadSeed decodes s and, if it is valid, replaces the simulation with a
// fresh one in the Idle state. On error nothing changes.
func (e *Engine) LoadSeed(s string) error {
	cfg, err := seed.Decode(s)
	if err != nil {
		e.metrics.SeedLoads.WithLabelValues("rejected").Inc()
		e.logger.Warn("seed rejected", "seed", s, "error", err)
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.install(cfg); err != nil {
		return err
	}
	e.seedText = s
	e.setState(Idle)
	e.publish()

	e.metrics.SeedLoads.WithLabelValues("loaded").Inc()
	e.logger.Info("seed loaded", "seed", s, "particles", cfg.Total(),
		"width", cfg.Bounds.Width, "height", cfg.Bounds.Height)
	return nil
}

// install swaps in a freshly spawned simulation for cfg. Caller holds mu.
func (e *Engine) install(cfg seed.SimulationConfig) error {
	store, err := particle.NewStore(cfg.Population[:], cfg.Bounds, e.pattern, seed.RunSeed(cfg))
	if err != nil {
		return fmt.Errorf("spawn: %w", err)
	}
	e.cfg = cfg
	e.store = store
	e.tick = 0
	e.gen++
	e.scratch.Resize(store.Len())
	e.rebuildGrid()
	e.metrics.Particles.Set(float64(store.Len()))
	return nil
}

func (e *Engine) rebuildGrid() {
	cutoff := e.params.Cutoff(e.cfg.Matrix.MaxRadius())
	e.grid = grid.New(e.cfg.Bounds, cutoff, e.params.Boundary)
}

// CurrentSeed returns the seed that reproduces the current config: the
// loaded string until the matrix is edited, the custom encoding afterwards
func (e *Engine) CurrentSeed() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.seedText
}

// Config returns a copy of the active config
func (e *Engine) Config() seed.SimulationConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// Physics returns the active physics settings
func (e *Engine) Physics() physics.Params {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.params
}

// State returns the loop state
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Play starts or resumes ticking
func (e *Engine) Play() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Running {
		return
	}
	e.setState(Running)
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// Pause stops ticking after the current tick. The latest snapshot stays
// available and unchanged.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Running {
		e.setState(Paused)
	}
}

// Reset respawns the current config from tick 0 and goes Idle
func (e *Engine) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.install(e.cfg); err != nil {
		return err
	}
	e.setState(Idle)
	e.publish()
	return nil
}

// SetInteraction edits one matrix entry. The change applies from the next
// tick to the particles as they are; nothing is respawned.
func (e *Engine) SetInteraction(src, dst int, p matrix.Params) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	m := e.cfg.Matrix
	if err := m.Set(src, dst, p); err != nil {
		return err
	}
	if m == e.cfg.Matrix {
		return nil
	}
	oldCutoff := e.params.Cutoff(e.cfg.Matrix.MaxRadius())
	e.cfg.Matrix = m
	e.seedText = seed.Encode(e.cfg)
	if e.params.Cutoff(m.MaxRadius()) != oldCutoff {
		e.rebuildGrid()
	}
	e.publish()
	return nil
}

// SetPhysics replaces the physics settings from the next tick on
func (e *Engine) SetPhysics(p physics.Params) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("physics: %w", err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if p == e.params {
		return nil
	}
	e.params = p
	e.rebuildGrid()
	e.logger.Info("physics updated", "dt", p.DT, "damping", p.Damping,
		"boundary", p.Boundary, "falloff", p.Falloff, "integrator", p.Integrator,
		"numeric", p.Numeric)
	return nil
}

// Latest returns the newest snapshot with a reference held for the caller.
// Call Release on it when done.
func (e *Engine) Latest() *snapshot.Snapshot {
	return e.out.Latest()
}

// Lookup copies one particle out of the latest snapshot
func (e *Engine) Lookup(id int) (p snapshot.ParticleState, ok bool) {
	e.out.View(func(s *snapshot.Snapshot) {
		p, ok = s.Lookup(id)
	})
	return p, ok
}

func (e *Engine) setState(s State) {
	e.state = s
	e.metrics.State.Set(float64(s))
}

// isNumeric reports whether err aborted a tick on a non-finite value
func isNumeric(err error) bool {
	var ne *physics.NumericError
	return errors.As(err, &ne)
}
