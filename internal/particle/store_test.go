package particle

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olivierh59500/particlelife/internal/space"
)

var testBounds = space.Bounds{Width: 300, Height: 200}

func TestNewStoreAssignsClassMajorIDs(t *testing.T) {
	s, err := NewStore([]int{2, 0, 3}, testBounds, Uniform, 1)
	require.NoError(t, err)

	assert.Equal(t, 5, s.Len())
	assert.Equal(t, []uint8{0, 0, 2, 2, 2}, s.Class)
	assert.Equal(t, []int{2, 0, 3}, s.CountByClass(3))
}

func TestNewStoreRejectsNegativePopulation(t *testing.T) {
	_, err := NewStore([]int{1, -1}, testBounds, Uniform, 1)
	assert.Error(t, err)
}

func TestSpawnPatternsStayInBoundsAndAtRest(t *testing.T) {
	for _, pattern := range []Pattern{Uniform, Disc, Noise} {
		t.Run(pattern.String(), func(t *testing.T) {
			s, err := NewStore([]int{400, 400}, testBounds, pattern, 42)
			require.NoError(t, err)
			for i := range s.Len() {
				assert.True(t, testBounds.Contains(s.Pos[i]), "particle %d at %v", i, s.Pos[i])
				assert.Equal(t, s.Pos[i], s.Prev[i])
				assert.Zero(t, s.Vel[i])
			}
		})
	}
}

func TestSpawnIsDeterministic(t *testing.T) {
	for _, pattern := range []Pattern{Uniform, Disc, Noise} {
		a, err := NewStore([]int{50, 50}, testBounds, pattern, 7)
		require.NoError(t, err)
		b, err := NewStore([]int{50, 50}, testBounds, pattern, 7)
		require.NoError(t, err)
		assert.Equal(t, a.Pos, b.Pos, pattern.String())

		c, err := NewStore([]int{50, 50}, testBounds, pattern, 8)
		require.NoError(t, err)
		assert.NotEqual(t, a.Pos, c.Pos, pattern.String())
	}
}

func TestDiscStaysNearCenter(t *testing.T) {
	s, err := NewStore([]int{500}, testBounds, Disc, 3)
	require.NoError(t, err)
	c := testBounds.Center()
	limit := discFraction * 200
	for _, p := range s.Pos {
		dx, dy := p.X-c.X, p.Y-c.Y
		assert.LessOrEqual(t, dx*dx+dy*dy, limit*limit+1e-9)
	}
}

func TestDiscPlacementIsRoundedPerStep(t *testing.T) {
	const runSeed = 17
	s, err := NewStore([]int{4}, testBounds, Disc, runSeed)
	require.NoError(t, err)

	src := unitSource{pcg: rand.NewPCG(runSeed, ^uint64(runSeed))}
	c := testBounds.Center()
	radius := discFraction * 200
	for i := range s.Pos {
		angle := 2 * math.Pi * src.next()
		dist := math.Sqrt(src.next()) * radius
		x, y := float64(dist*math.Cos(angle)), float64(dist*math.Sin(angle))
		assert.Equal(t, c.X+x, s.Pos[i].X, "particle %d", i)
		assert.Equal(t, c.Y+y, s.Pos[i].Y, "particle %d", i)
	}
}

func TestParsePattern(t *testing.T) {
	for _, p := range []Pattern{Uniform, Disc, Noise} {
		got, err := ParsePattern(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
	_, err := ParsePattern("spiral")
	assert.Error(t, err)
}
