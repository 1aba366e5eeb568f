//go:build pldebug

package physics

// DefaultNumericPolicy in debug builds treats numerical blow-ups as bugs
const DefaultNumericPolicy = Strict
