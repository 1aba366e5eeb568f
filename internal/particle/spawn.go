package particle

import (
	"fmt"
	"math"
	"math/rand/v2"

	perlin "github.com/aquilax/go-perlin"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/olivierh59500/particlelife/internal/space"
)

// Pattern is the initial particle layout
type Pattern uint8

const (
	// Uniform scatters particles over the whole world
	Uniform Pattern = iota
	// Disc packs particles into a disc at the world centre
	Disc
	// Noise scatters particles with a density that follows a Perlin field,
	// which seeds visible clumps from the first tick
	Noise
)

func (p Pattern) String() string {
	switch p {
	case Uniform:
		return "uniform"
	case Disc:
		return "disc"
	case Noise:
		return "noise"
	default:
		return "unknown"
	}
}

// ParsePattern converts a config string into a Pattern
func ParsePattern(s string) (Pattern, error) {
	switch s {
	case "uniform", "":
		return Uniform, nil
	case "disc":
		return Disc, nil
	case "noise":
		return Noise, nil
	}
	return Uniform, fmt.Errorf("unknown spawn pattern %q", s)
}

const (
	discFraction = 0.35 // disc radius relative to the shorter world side

	noiseAlpha    = 2.0
	noiseBeta     = 2.0
	noiseOctaves  = 3
	noiseFeatures = 4.0 // rough number of blobs across the world
	noiseTries    = 32
)

// unitSource yields floats in [0, 1) from the top 53 bits of PCG output
type unitSource struct {
	pcg *rand.PCG
}

func (u unitSource) next() float64 {
	return float64(u.pcg.Uint64()>>11) * 0x1p-53
}

func newPlacer(pattern Pattern, bounds space.Bounds, runSeed uint64) (func() r2.Vec, error) {
	src := unitSource{pcg: rand.NewPCG(runSeed, ^runSeed)}

	uniform := func() r2.Vec {
		return r2.Vec{X: src.next() * bounds.Width, Y: src.next() * bounds.Height}
	}

	switch pattern {
	case Uniform:
		return uniform, nil

	case Disc:
		center := bounds.Center()
		radius := discFraction * math.Min(bounds.Width, bounds.Height)
		return func() r2.Vec {
			angle := 2 * math.Pi * src.next()
			dist := math.Sqrt(src.next()) * radius
			// rounded products keep the sum from fusing into an FMA
			return r2.Vec{
				X: center.X + float64(dist*math.Cos(angle)),
				Y: center.Y + float64(dist*math.Sin(angle)),
			}
		}, nil

	case Noise:
		field := perlin.NewPerlin(noiseAlpha, noiseBeta, noiseOctaves, int64(runSeed))
		scale := noiseFeatures / math.Max(bounds.Width, bounds.Height)
		return func() r2.Vec {
			var p r2.Vec
			for range noiseTries {
				p = uniform()
				n := field.Noise2D(p.X*scale, p.Y*scale)
				accept := math.Min(1, math.Max(0, 0.5+n))
				if src.next() < accept*accept {
					break
				}
			}
			return p
		}, nil
	}
	return nil, fmt.Errorf("unknown spawn pattern %d", pattern)
}
