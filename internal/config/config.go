// Package config loads runtime settings: embedded defaults, then an optional
// YAML file, then PARTICLELIFE_* environment variables, then validation
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/olivierh59500/particlelife/internal/particle"
	"github.com/olivierh59500/particlelife/internal/physics"
	"github.com/olivierh59500/particlelife/internal/space"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config is the whole settings tree
type Config struct {
	Engine   EngineConfig   `yaml:"engine"`
	Log      LogConfig      `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	History  HistoryConfig  `yaml:"history"`
	Recorder RecorderConfig `yaml:"recorder"`
	Viewer   ViewerConfig   `yaml:"viewer"`
}

// EngineConfig holds the physics and loop settings. None of them are part of
// a seed.
type EngineConfig struct {
	DT                float64       `yaml:"dt" validate:"gt=0"`
	Damping           float64       `yaml:"damping" validate:"gte=0,lt=1"`
	ForceScale        float64       `yaml:"force_scale" validate:"gte=0"`
	CollisionRadius   float64       `yaml:"collision_radius" validate:"gte=0"`
	CollisionStrength float64       `yaml:"collision_strength" validate:"gte=0"`
	Falloff           string        `yaml:"falloff" validate:"oneof=triangle linear"`
	Integrator        string        `yaml:"integrator" validate:"oneof=verlet euler"`
	Boundary          string        `yaml:"boundary" validate:"oneof=wrap clamp"`
	NumericPolicy     string        `yaml:"numeric_policy" validate:"omitempty,oneof=strict suppress clamp"`
	SpawnPattern      string        `yaml:"spawn_pattern" validate:"oneof=uniform disc noise"`
	TickInterval      time.Duration `yaml:"tick_interval" validate:"gt=0"`
	Workers           int           `yaml:"workers" validate:"gte=0,lte=1024"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json logfmt"`
}

type MetricsConfig struct {
	// Listen is the /metrics address; empty disables the endpoint
	Listen string `yaml:"listen" validate:"omitempty,hostname_port"`
}

type HistoryConfig struct {
	Capacity int `yaml:"capacity" validate:"gte=1,lte=1000"`
	// DBPath persists the history; empty keeps it in memory
	DBPath string `yaml:"db_path"`
}

type RecorderConfig struct {
	Enabled  bool          `yaml:"enabled"`
	DBPath   string        `yaml:"db_path" validate:"required_if=Enabled true"`
	Interval time.Duration `yaml:"interval" validate:"gt=0"`
}

type ViewerConfig struct {
	Width        int     `yaml:"width" validate:"gte=320"`
	Height       int     `yaml:"height" validate:"gte=240"`
	TPS          int     `yaml:"tps" validate:"gte=1,lte=240"`
	ParticleSize float64 `yaml:"particle_size" validate:"gt=0"`
	TrailLength  int     `yaml:"trail_length" validate:"gte=1,lte=256"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Default returns the embedded defaults
func Default() (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		return Config{}, fmt.Errorf("embedded defaults: %w", err)
	}
	return cfg, nil
}

// Load builds the config from defaults, the file at path (skipped when path
// is empty) and the environment, then validates it
func Load(path string) (Config, error) {
	cfg, err := Default()
	if err != nil {
		return Config{}, err
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every field against its constraints
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			v := verrs[0]
			return fmt.Errorf("invalid config: %s fails %q (value %v)", v.Namespace(), v.Tag(), v.Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Physics converts the engine section into physics parameters
func (c Config) Physics() (physics.Params, error) {
	e := c.Engine
	falloff, err := physics.ParseFalloff(e.Falloff)
	if err != nil {
		return physics.Params{}, err
	}
	integrator, err := physics.ParseIntegrator(e.Integrator)
	if err != nil {
		return physics.Params{}, err
	}
	boundary, err := space.ParsePolicy(e.Boundary)
	if err != nil {
		return physics.Params{}, err
	}
	numeric, err := physics.ParseNumericPolicy(e.NumericPolicy)
	if err != nil {
		return physics.Params{}, err
	}
	p := physics.Params{
		DT:                e.DT,
		Damping:           e.Damping,
		ForceScale:        e.ForceScale,
		CollisionRadius:   e.CollisionRadius,
		CollisionStrength: e.CollisionStrength,
		Falloff:           falloff,
		Integrator:        integrator,
		Boundary:          boundary,
		Numeric:           numeric,
		Workers:           e.Workers,
	}
	return p, p.Validate()
}

// Pattern returns the spawn pattern
func (c Config) Pattern() (particle.Pattern, error) {
	return particle.ParsePattern(c.Engine.SpawnPattern)
}

// envResolver maps one environment variable onto the tree
type envResolver struct {
	name   string
	setter func(*Config, string) error
}

func floatSetter(dst func(*Config) *float64) func(*Config, string) error {
	return func(c *Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		*dst(c) = f
		return nil
	}
}

func intSetter(dst func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*dst(c) = n
		return nil
	}
}

func stringSetter(dst func(*Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*dst(c) = v
		return nil
	}
}

func durationSetter(dst func(*Config) *time.Duration) func(*Config, string) error {
	return func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*dst(c) = d
		return nil
	}
}

var envResolvers = []envResolver{
	{"PARTICLELIFE_DT", floatSetter(func(c *Config) *float64 { return &c.Engine.DT })},
	{"PARTICLELIFE_DAMPING", floatSetter(func(c *Config) *float64 { return &c.Engine.Damping })},
	{"PARTICLELIFE_FORCE_SCALE", floatSetter(func(c *Config) *float64 { return &c.Engine.ForceScale })},
	{"PARTICLELIFE_FALLOFF", stringSetter(func(c *Config) *string { return &c.Engine.Falloff })},
	{"PARTICLELIFE_INTEGRATOR", stringSetter(func(c *Config) *string { return &c.Engine.Integrator })},
	{"PARTICLELIFE_BOUNDARY", stringSetter(func(c *Config) *string { return &c.Engine.Boundary })},
	{"PARTICLELIFE_NUMERIC_POLICY", stringSetter(func(c *Config) *string { return &c.Engine.NumericPolicy })},
	{"PARTICLELIFE_SPAWN_PATTERN", stringSetter(func(c *Config) *string { return &c.Engine.SpawnPattern })},
	{"PARTICLELIFE_TICK_INTERVAL", durationSetter(func(c *Config) *time.Duration { return &c.Engine.TickInterval })},
	{"PARTICLELIFE_WORKERS", intSetter(func(c *Config) *int { return &c.Engine.Workers })},
	{"PARTICLELIFE_LOG_LEVEL", stringSetter(func(c *Config) *string { return &c.Log.Level })},
	{"PARTICLELIFE_LOG_FORMAT", stringSetter(func(c *Config) *string { return &c.Log.Format })},
	{"PARTICLELIFE_METRICS_LISTEN", stringSetter(func(c *Config) *string { return &c.Metrics.Listen })},
	{"PARTICLELIFE_HISTORY_DB", stringSetter(func(c *Config) *string { return &c.History.DBPath })},
	{"PARTICLELIFE_RECORDER_DB", stringSetter(func(c *Config) *string { return &c.Recorder.DBPath })},
}

func applyEnv(c *Config, lookup func(string) (string, bool)) error {
	for _, r := range envResolvers {
		v, ok := lookup(r.name)
		if !ok || v == "" {
			continue
		}
		if err := r.setter(c, v); err != nil {
			return fmt.Errorf("%s=%q: %w", r.name, v, err)
		}
	}
	return nil
}
