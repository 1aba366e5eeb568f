package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/olivierh59500/particlelife/internal/config"
	"github.com/olivierh59500/particlelife/internal/engine"
	"github.com/olivierh59500/particlelife/internal/history"
	"github.com/olivierh59500/particlelife/internal/recorder"
	"github.com/olivierh59500/particlelife/internal/seed"
	"github.com/olivierh59500/particlelife/internal/storage"
	"github.com/olivierh59500/particlelife/internal/telemetry"
)

// app is everything a command needs once config is loaded
type app struct {
	cfg     config.Config
	logger  *slog.Logger
	reg     *prometheus.Registry
	metrics *telemetry.Metrics
	engine  *engine.Engine
	hist    *history.Ring
	store   history.Store // nil without a history database
	dbs     []*storage.DB
}

// loadConfig reads the config and builds the logger
func loadConfig() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	logger, err := telemetry.NewLogger(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

func newApp(ctx context.Context) (*app, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger, reg: prometheus.NewRegistry()}
	a.reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.metrics = telemetry.NewMetrics(a.reg)

	if err := a.openHistory(ctx); err != nil {
		a.Close()
		return nil, err
	}

	params, err := cfg.Physics()
	if err != nil {
		a.Close()
		return nil, err
	}
	pattern, err := cfg.Pattern()
	if err != nil {
		a.Close()
		return nil, err
	}
	initial := a.initialSeed()
	a.engine, err = engine.New(initial, engine.Options{
		Physics:      params,
		Pattern:      pattern,
		TickInterval: cfg.Engine.TickInterval,
		Logger:       logger.With("component", "engine"),
		Metrics:      a.metrics,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("start engine with seed %q: %w", initial, err)
	}
	if a.hist.Push(initial) {
		a.saveHistory(ctx)
	}
	return a, nil
}

func (a *app) openHistory(ctx context.Context) error {
	if a.cfg.History.DBPath == "" {
		a.hist = history.New(a.cfg.History.Capacity)
		return nil
	}
	dbCfg := storage.DefaultConfig(a.cfg.History.DBPath)
	dbCfg.Logger = a.logger.With("component", "storage")
	db, err := storage.Open(dbCfg)
	if err != nil {
		return fmt.Errorf("history database: %w", err)
	}
	a.dbs = append(a.dbs, db)
	store := storage.NewHistoryStore(db)
	entries, err := store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	a.hist = history.Restore(a.cfg.History.Capacity, entries)
	a.store = store
	return nil
}

func (a *app) saveHistory(ctx context.Context) {
	if a.store == nil {
		return
	}
	if err := a.store.Save(ctx, a.hist.Entries()); err != nil {
		a.logger.Warn("saving history failed", "error", err)
	}
}

// initialSeed picks --seed, then the last remembered seed, then a random one
func (a *app) initialSeed() string {
	if seedFlag != "" {
		return seedFlag
	}
	if s, ok := a.hist.Current(); ok {
		return s
	}
	return seed.Random(rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))
}

// recordingStore opens the recorder database, reusing the history one when
// both point at the same path
func (a *app) recordingStore() (*storage.RecordingStore, error) {
	path := a.cfg.Recorder.DBPath
	if path == "" {
		return nil, errors.New("recorder.db_path is not set")
	}
	if path == a.cfg.History.DBPath && len(a.dbs) > 0 {
		return storage.NewRecordingStore(a.dbs[0]), nil
	}
	dbCfg := storage.DefaultConfig(path)
	dbCfg.Logger = a.logger.With("component", "storage")
	db, err := storage.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("recorder database: %w", err)
	}
	a.dbs = append(a.dbs, db)
	return storage.NewRecordingStore(db), nil
}

// background starts the engine loop and the optional services: metrics
// endpoint, config watcher and recorder
func (a *app) background(ctx context.Context, g *errgroup.Group) error {
	g.Go(func() error { return a.engine.Run(ctx) })

	if addr := a.cfg.Metrics.Listen; addr != "" {
		srv := &http.Server{
			Addr:              addr,
			Handler:           metricsMux(a.reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			a.logger.Info("serving metrics", "addr", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if configPath != "" {
		g.Go(func() error {
			return config.Watch(ctx, configPath, a.logger.With("component", "config"), a.applyConfig)
		})
	}

	if a.cfg.Recorder.Enabled {
		store, err := a.recordingStore()
		if err != nil {
			return err
		}
		params := a.engine.Physics()
		rec := recorder.New(a.engine, store, a.cfg.Recorder.Interval, params.Boundary,
			a.logger.With("component", "recorder"), a.metrics)
		g.Go(func() error { return rec.Run(ctx) })
	}
	return nil
}

func metricsMux(reg *prometheus.Registry) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	return mux
}

// applyConfig hands reloaded physics to the engine. Other sections only take
// effect on restart.
func (a *app) applyConfig(cfg config.Config) {
	params, err := cfg.Physics()
	if err != nil {
		a.logger.Warn("reloaded physics rejected", "error", err)
		return
	}
	if err := a.engine.SetPhysics(params); err != nil {
		a.logger.Warn("reloaded physics rejected", "error", err)
	}
}

// Close releases the databases
func (a *app) Close() {
	for _, db := range a.dbs {
		if err := db.Close(); err != nil {
			a.logger.Warn("closing database failed", "error", err)
		}
	}
	a.dbs = nil
}
