// Package recorder samples a running simulation at a fixed wall-clock
// interval and stores the feature vector of each sampled tick
package recorder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/olivierh59500/particlelife/internal/analysis"
	"github.com/olivierh59500/particlelife/internal/snapshot"
	"github.com/olivierh59500/particlelife/internal/space"
	"github.com/olivierh59500/particlelife/internal/storage"
	"github.com/olivierh59500/particlelife/internal/telemetry"
)

// Source provides snapshots; *engine.Engine satisfies it
type Source interface {
	Latest() *snapshot.Snapshot
}

// Sink stores runs and samples; *storage.RecordingStore satisfies it
type Sink interface {
	BeginRun(ctx context.Context, run storage.Run) error
	Append(ctx context.Context, runID string, sample storage.Sample) error
}

// Recorder writes one sample per interval, skipping ticks already written.
// Loading another seed or respawning starts a new run, so samples of
// different simulations never share a run.
type Recorder struct {
	src      Source
	sink     Sink
	interval time.Duration
	policy   space.Policy
	logger   *slog.Logger
	metrics  *telemetry.Metrics
	now      func() time.Time

	runID    string
	seed     string
	gen      uint64
	lastTick uint64
	written  bool
}

// New returns a recorder with a fresh run id
func New(src Source, sink Sink, interval time.Duration, policy space.Policy, logger *slog.Logger, metrics *telemetry.Metrics) *Recorder {
	return &Recorder{
		src:      src,
		sink:     sink,
		interval: interval,
		policy:   policy,
		logger:   logger,
		metrics:  metrics,
		now:      time.Now,
		runID:    uuid.NewString(),
	}
}

// RunID identifies this recording in storage
func (r *Recorder) RunID() string {
	return r.runID
}

// Run samples until ctx is cancelled
func (r *Recorder) Run(ctx context.Context) error {
	if r.interval <= 0 {
		return fmt.Errorf("recorder interval must be positive, got %v", r.interval)
	}
	if err := r.Begin(ctx); err != nil {
		return err
	}
	r.logger.Info("recording started", "run", r.runID, "interval", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("recording stopped", "run", r.runID)
			return nil
		case <-ticker.C:
			if err := r.Sample(ctx); err != nil {
				r.logger.Warn("sample failed", "run", r.runID, "error", err)
			}
		}
	}
}

// Begin stores the run record. Run calls it; callers driving Sample by hand
// call it once first.
func (r *Recorder) Begin(ctx context.Context) error {
	s := r.src.Latest()
	if s == nil {
		return r.begin(ctx, "", 0)
	}
	defer s.Release()
	return r.begin(ctx, s.Seed, s.Generation)
}

func (r *Recorder) begin(ctx context.Context, seed string, gen uint64) error {
	if err := r.sink.BeginRun(ctx, storage.Run{ID: r.runID, Seed: seed, Started: r.now()}); err != nil {
		return fmt.Errorf("begin recording: %w", err)
	}
	r.seed, r.gen = seed, gen
	r.lastTick, r.written = 0, false
	return nil
}

// rotate starts a new run for a simulation that replaced the recorded one
func (r *Recorder) rotate(ctx context.Context, s *snapshot.Snapshot) error {
	prev := r.runID
	r.runID = uuid.NewString()
	if err := r.begin(ctx, s.Seed, s.Generation); err != nil {
		return err
	}
	r.logger.Info("recording continues in a new run", "previous", prev, "run", r.runID, "seed", s.Seed)
	return nil
}

// Sample writes the latest snapshot's features unless that tick was the
// last one written
func (r *Recorder) Sample(ctx context.Context) error {
	s := r.src.Latest()
	if s == nil {
		return nil
	}
	defer s.Release()
	if s.Seed != r.seed || s.Generation != r.gen {
		if err := r.rotate(ctx, s); err != nil {
			return err
		}
	}
	if r.written && s.Tick == r.lastTick {
		return nil
	}

	f := analysis.Extract(s, r.policy)
	sample := storage.Sample{Seed: s.Seed, Features: f, Vector: f.Vector()}
	if err := r.sink.Append(ctx, r.runID, sample); err != nil {
		return err
	}
	r.lastTick, r.written = s.Tick, true
	if r.metrics != nil {
		r.metrics.Recorded.Inc()
	}
	return nil
}
