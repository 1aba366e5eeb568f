// Package matrix holds the per-class-pair interaction parameters.
//
// The table is dense: every ordered pair (src, dst), self pairs included, has
// an entry, and the relation need not be symmetric. Values live on a fixed
// grid of steps so that any matrix reachable through Set can be written into
// a seed and read back bit for bit.
package matrix

import (
	"errors"
	"fmt"
	"math"
)

// ClassCount is the number of particle classes compiled into this build.
// Seeds carrying a different count are rejected by the codec.
const ClassCount = 8

const (
	// PowerSteps is the resolution of power: Power = step / PowerSteps,
	// step in [-PowerSteps, PowerSteps]
	PowerSteps = 100
	// RadiusSteps is the resolution of radius: Radius = step * MaxRadius / RadiusSteps,
	// step in [1, RadiusSteps]
	RadiusSteps = 255
	// MaxRadius is the largest interaction radius in world units
	MaxRadius = 60.0
)

var (
	ErrClassOutOfRange = errors.New("class out of range")
	ErrInvalidParams   = errors.New("invalid interaction parameters")
)

// Params is how strongly and how far a source class reacts to a target class.
// Positive power attracts, negative repels.
type Params struct {
	Power  float64
	Radius float64
}

// Matrix is a flat row-major table indexed [src*ClassCount+dst].
// Arrays compare with ==, which the codec round-trip relies on.
type Matrix [ClassCount * ClassCount]Params

// New returns a matrix with zero power and the smallest radius everywhere
func New() Matrix {
	var m Matrix
	for i := range m {
		m[i] = Params{Power: 0, Radius: RadiusFromStep(1)}
	}
	return m
}

func index(src, dst int) (int, error) {
	if src < 0 || src >= ClassCount || dst < 0 || dst >= ClassCount {
		return 0, fmt.Errorf("%w: (%d, %d)", ErrClassOutOfRange, src, dst)
	}
	return src*ClassCount + dst, nil
}

// At returns the parameters src applies toward dst. Out of range classes panic
// like any out of range array index.
func (m *Matrix) At(src, dst int) Params {
	return m[src*ClassCount+dst]
}

// Row returns the parameters of src toward every class
func (m *Matrix) Row(src int) []Params {
	return m[src*ClassCount : (src+1)*ClassCount]
}

// Set validates p, snaps it to the step grid and stores it
func (m *Matrix) Set(src, dst int, p Params) error {
	i, err := index(src, dst)
	if err != nil {
		return err
	}
	q, err := Quantize(p)
	if err != nil {
		return err
	}
	m[i] = q
	return nil
}

// MaxRadius returns the largest radius in the table. The spatial grid uses
// it as its cell size.
func (m *Matrix) MaxRadius() float64 {
	maxR := 0.0
	for _, p := range m {
		if p.Radius > maxR {
			maxR = p.Radius
		}
	}
	return maxR
}

// Validate checks every entry against the allowed ranges
func (m *Matrix) Validate() error {
	for i, p := range m {
		if err := validate(p); err != nil {
			return fmt.Errorf("entry (%d, %d): %w", i/ClassCount, i%ClassCount, err)
		}
	}
	return nil
}

func validate(p Params) error {
	if math.IsNaN(p.Power) || p.Power < -1 || p.Power > 1 {
		return fmt.Errorf("%w: power %v outside [-1, 1]", ErrInvalidParams, p.Power)
	}
	if math.IsNaN(p.Radius) || p.Radius <= 0 || p.Radius > MaxRadius {
		return fmt.Errorf("%w: radius %v outside (0, %v]", ErrInvalidParams, p.Radius, MaxRadius)
	}
	return nil
}

// Quantize validates p and snaps it to the nearest representable value.
// Radii below the first step snap up to it so they stay positive.
func Quantize(p Params) (Params, error) {
	if err := validate(p); err != nil {
		return Params{}, err
	}
	rs := RadiusStep(p.Radius)
	if rs < 1 {
		rs = 1
	}
	return Params{Power: PowerFromStep(PowerStep(p.Power)), Radius: RadiusFromStep(rs)}, nil
}

// PowerFromStep converts a power step into a power
func PowerFromStep(step int) float64 {
	return float64(step) / PowerSteps
}

// PowerStep converts a power into its nearest step
func PowerStep(power float64) int {
	return int(math.Round(power * PowerSteps))
}

// RadiusFromStep converts a radius step into a radius
func RadiusFromStep(step int) float64 {
	return float64(step) * MaxRadius / RadiusSteps
}

// RadiusStep converts a radius into its nearest step
func RadiusStep(radius float64) int {
	return int(math.Round(radius * RadiusSteps / MaxRadius))
}
