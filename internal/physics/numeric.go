package physics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// NumericPolicy decides what a non-finite force or position does
type NumericPolicy uint8

const (
	// Strict aborts the tick with a *NumericError before any state changes
	Strict NumericPolicy = iota
	// Suppress zeroes bad forces and keeps the previous position for bad
	// positions, then carries on
	Suppress
)

func (n NumericPolicy) String() string {
	switch n {
	case Strict:
		return "strict"
	case Suppress:
		return "suppress"
	default:
		return "unknown"
	}
}

// ParseNumericPolicy converts a config string into a NumericPolicy. The
// empty string selects the build default.
func ParseNumericPolicy(s string) (NumericPolicy, error) {
	switch s {
	case "":
		return DefaultNumericPolicy, nil
	case "strict":
		return Strict, nil
	case "suppress", "clamp":
		return Suppress, nil
	}
	return DefaultNumericPolicy, fmt.Errorf("unknown numeric policy %q", s)
}

// NumericError reports the first non-finite value found in a tick
type NumericError struct {
	Stage    string // "force" or "integrate"
	Particle int
	Value    r2.Vec
}

func (e *NumericError) Error() string {
	return fmt.Sprintf("non-finite %s for particle %d: (%v, %v)", e.Stage, e.Particle, e.Value.X, e.Value.Y)
}

func finite(v r2.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) && !math.IsNaN(v.Y) && !math.IsInf(v.Y, 0)
}
