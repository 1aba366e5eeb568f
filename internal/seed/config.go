package seed

import (
	"math"

	"github.com/olivierh59500/particlelife/internal/matrix"
	"github.com/olivierh59500/particlelife/internal/space"
)

// ClassCount is the class count this build understands
const ClassCount = matrix.ClassCount

const (
	// MaxPopulation is the largest population a single class may have
	MaxPopulation = 15000

	// RandomMinPopulation and RandomMaxPopulation bound the per-class
	// population drawn for plain seeds
	RandomMinPopulation = 50
	RandomMaxPopulation = 400

	// SpawnDensity is the target number of particles per square world unit.
	// The world is sized from the total population with it.
	SpawnDensity = 0.005

	// MinWorldSide keeps tiny populations from living in a world smaller
	// than a couple of interaction radii
	MinWorldSide = 128.0
)

// SimulationConfig fully determines a run, given fixed engine physics.
// It is a plain value: copies are independent and == compares everything.
type SimulationConfig struct {
	Population [ClassCount]int
	Matrix     matrix.Matrix
	Bounds     space.Bounds
}

// Total returns the number of particles across all classes
func (c SimulationConfig) Total() int {
	n := 0
	for _, p := range c.Population {
		n += p
	}
	return n
}

// BoundsFor sizes a square world for the given total population
func BoundsFor(total int) space.Bounds {
	side := math.Sqrt(float64(total) / SpawnDensity)
	if side < MinWorldSide {
		side = MinWorldSide
	}
	return space.Bounds{Width: side, Height: side}
}

// NewConfig builds a config from populations and a matrix, deriving bounds
func NewConfig(population [ClassCount]int, m matrix.Matrix) SimulationConfig {
	c := SimulationConfig{Population: population, Matrix: m}
	c.Bounds = BoundsFor(c.Total())
	return c
}
