// Package physics evaluates pair forces and advances particles.
//
// Force on p from q acts along the p->q direction:
//
//	F = unit(q - p) * (collision(d) + power * falloff(d, radius)) * ForceScale
//
// collision(d) is -CollisionStrength * (1 - d/CollisionRadius) below
// CollisionRadius and 0 beyond, for every class pair. falloff is 0 at and past
// the pair radius so the force is continuous where a neighbour drops out.
package physics

import (
	"fmt"
	"math"

	"github.com/olivierh59500/particlelife/internal/space"
)

// Falloff shapes the interaction force against distance
type Falloff uint8

const (
	// Triangle rises from 0 at the collision radius to 1 halfway to the pair
	// radius, then back to 0 at the pair radius
	Triangle Falloff = iota
	// Linear ramps from 1 at distance 0 to 0 at the pair radius
	Linear
)

func (f Falloff) String() string {
	switch f {
	case Triangle:
		return "triangle"
	case Linear:
		return "linear"
	default:
		return "unknown"
	}
}

// ParseFalloff converts a config string into a Falloff
func ParseFalloff(s string) (Falloff, error) {
	switch s {
	case "triangle", "":
		return Triangle, nil
	case "linear":
		return Linear, nil
	}
	return Triangle, fmt.Errorf("unknown falloff %q", s)
}

// Weight returns the falloff in [0, 1] at distance d for a pair whose
// interaction ends at radius. inner is the collision radius.
func (f Falloff) Weight(d, inner, radius float64) float64 {
	if d >= radius {
		return 0
	}
	switch f {
	case Linear:
		return 1 - d/radius
	default:
		if d <= inner || radius <= inner {
			return 0
		}
		mid := (inner + radius) / 2
		return 1 - math.Abs(d-mid)/(mid-inner)
	}
}

// Integrator selects the time stepping scheme
type Integrator uint8

const (
	// Verlet derives velocity from the position history
	Verlet Integrator = iota
	// Euler is semi-implicit Euler: velocity first, then position
	Euler
)

func (i Integrator) String() string {
	switch i {
	case Verlet:
		return "verlet"
	case Euler:
		return "euler"
	default:
		return "unknown"
	}
}

// ParseIntegrator converts a config string into an Integrator
func ParseIntegrator(s string) (Integrator, error) {
	switch s {
	case "verlet", "":
		return Verlet, nil
	case "euler":
		return Euler, nil
	}
	return Verlet, fmt.Errorf("unknown integrator %q", s)
}

// Params are the engine-wide physics settings. They are not part of a seed;
// a run is reproducible for a given seed and a given Params.
type Params struct {
	DT                float64
	Damping           float64 // fraction of velocity lost per tick, [0, 1)
	ForceScale        float64
	CollisionRadius   float64
	CollisionStrength float64
	Falloff           Falloff
	Integrator        Integrator
	Boundary          space.Policy
	Numeric           NumericPolicy
	Workers           int // 0 means GOMAXPROCS
}

// DefaultParams returns the settings the engine ships with
func DefaultParams() Params {
	return Params{
		DT:                0.02,
		Damping:           0.3,
		ForceScale:        300,
		CollisionRadius:   6,
		CollisionStrength: 2,
		Falloff:           Triangle,
		Integrator:        Verlet,
		Boundary:          space.Wrap,
		Numeric:           DefaultNumericPolicy,
	}
}

// Validate rejects settings the integrator cannot work with
func (p Params) Validate() error {
	switch {
	case !(p.DT > 0) || math.IsInf(p.DT, 0):
		return fmt.Errorf("dt must be positive, got %v", p.DT)
	case !(p.Damping >= 0 && p.Damping < 1):
		return fmt.Errorf("damping must be in [0, 1), got %v", p.Damping)
	case !(p.ForceScale >= 0) || math.IsInf(p.ForceScale, 0):
		return fmt.Errorf("force scale must be non-negative, got %v", p.ForceScale)
	case !(p.CollisionRadius >= 0) || math.IsInf(p.CollisionRadius, 0):
		return fmt.Errorf("collision radius must be non-negative, got %v", p.CollisionRadius)
	case !(p.CollisionStrength >= 0) || math.IsInf(p.CollisionStrength, 0):
		return fmt.Errorf("collision strength must be non-negative, got %v", p.CollisionStrength)
	case p.Workers < 0:
		return fmt.Errorf("workers must be non-negative, got %d", p.Workers)
	}
	return nil
}

// Cutoff is the largest distance at which a pair with the given maximum
// matrix radius can interact. The spatial grid is sized with it.
func (p Params) Cutoff(maxRadius float64) float64 {
	return math.Max(maxRadius, p.CollisionRadius)
}

// PairForce is the scalar force multiplier toward the neighbour at distance
// d, before ForceScale. Negative values push away.
func (p Params) PairForce(power, radius, d float64) float64 {
	f := 0.0
	if d < p.CollisionRadius {
		f -= float64(p.CollisionStrength * (1 - d/p.CollisionRadius))
	}
	return f + float64(power*p.Falloff.Weight(d, p.CollisionRadius, radius))
}
