// Package space describes the simulation plane: its bounds and the policy
// applied to particles that cross them.
package space

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Bounds is the axis-aligned world rectangle [0,Width) x [0,Height)
type Bounds struct {
	Width, Height float64
}

// Contains reports whether p lies inside the bounds (right and bottom edges
// included, since clamping may land exactly on them)
func (b Bounds) Contains(p r2.Vec) bool {
	return p.X >= 0 && p.X <= b.Width && p.Y >= 0 && p.Y <= b.Height
}

// Center returns the middle of the world
func (b Bounds) Center() r2.Vec {
	return r2.Vec{X: b.Width / 2, Y: b.Height / 2}
}

// Policy selects what happens at the world edge
type Policy uint8

const (
	// Wrap treats the world as a torus
	Wrap Policy = iota
	// Clamp pins particles to the edge
	Clamp
)

func (p Policy) String() string {
	switch p {
	case Wrap:
		return "wrap"
	case Clamp:
		return "clamp"
	default:
		return "unknown"
	}
}

// ParsePolicy converts a config string into a Policy
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "wrap", "":
		return Wrap, nil
	case "clamp":
		return Clamp, nil
	}
	return Wrap, fmt.Errorf("unknown boundary policy %q", s)
}

// Delta returns b - a. Under Wrap it is the shortest toroidal delta.
func (p Policy) Delta(bounds Bounds, a, b r2.Vec) r2.Vec {
	d := r2.Sub(b, a)
	if p != Wrap {
		return d
	}
	if d.X > bounds.Width/2 {
		d.X -= bounds.Width
	} else if d.X < -bounds.Width/2 {
		d.X += bounds.Width
	}
	if d.Y > bounds.Height/2 {
		d.Y -= bounds.Height
	} else if d.Y < -bounds.Height/2 {
		d.Y += bounds.Height
	}
	return d
}

// Apply brings p back inside the bounds
func (p Policy) Apply(bounds Bounds, v r2.Vec) r2.Vec {
	if p == Wrap {
		return r2.Vec{X: wrap(v.X, bounds.Width), Y: wrap(v.Y, bounds.Height)}
	}
	return r2.Vec{X: clamp(v.X, bounds.Width), Y: clamp(v.Y, bounds.Height)}
}

func wrap(x, size float64) float64 {
	x = math.Mod(x, size)
	if x < 0 {
		x += size
	}
	// Mod of a tiny negative value plus size can round up to size
	if x >= size {
		x = 0
	}
	return x
}

func clamp(x, size float64) float64 {
	if x < 0 {
		return 0
	}
	if x > size {
		return size
	}
	return x
}
