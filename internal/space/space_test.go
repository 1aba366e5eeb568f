package space

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestWrapDeltaTakesShortestPath(t *testing.T) {
	b := Bounds{Width: 100, Height: 50}

	d := Wrap.Delta(b, r2.Vec{X: 95, Y: 2}, r2.Vec{X: 5, Y: 48})
	assert.InDelta(t, 10, d.X, 1e-12)
	assert.InDelta(t, -4, d.Y, 1e-12)

	d = Clamp.Delta(b, r2.Vec{X: 95, Y: 2}, r2.Vec{X: 5, Y: 48})
	assert.InDelta(t, -90, d.X, 1e-12)
	assert.InDelta(t, 46, d.Y, 1e-12)
}

func TestApply(t *testing.T) {
	b := Bounds{Width: 10, Height: 10}

	tests := []struct {
		name   string
		policy Policy
		in     r2.Vec
		want   r2.Vec
	}{
		{"wrap negative", Wrap, r2.Vec{X: -1, Y: 3}, r2.Vec{X: 9, Y: 3}},
		{"wrap overflow", Wrap, r2.Vec{X: 12, Y: 25}, r2.Vec{X: 2, Y: 5}},
		{"wrap edge", Wrap, r2.Vec{X: 10, Y: 0}, r2.Vec{X: 0, Y: 0}},
		{"wrap tiny negative", Wrap, r2.Vec{X: -1e-18, Y: 1}, r2.Vec{X: 0, Y: 1}},
		{"clamp low", Clamp, r2.Vec{X: -3, Y: 4}, r2.Vec{X: 0, Y: 4}},
		{"clamp high", Clamp, r2.Vec{X: 3, Y: 40}, r2.Vec{X: 3, Y: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.policy.Apply(b, tt.in)
			assert.InDelta(t, tt.want.X, got.X, 1e-9)
			assert.InDelta(t, tt.want.Y, got.Y, 1e-9)
			assert.True(t, b.Contains(got))
		})
	}
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("clamp")
	assert.NoError(t, err)
	assert.Equal(t, Clamp, p)

	p, err = ParsePolicy("")
	assert.NoError(t, err)
	assert.Equal(t, Wrap, p)

	_, err = ParsePolicy("bounce")
	assert.Error(t, err)
}
