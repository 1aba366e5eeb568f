//go:build !pldebug

package physics

// DefaultNumericPolicy keeps long-running simulations alive
const DefaultNumericPolicy = Suppress
