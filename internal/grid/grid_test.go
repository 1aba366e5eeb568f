package grid

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/olivierh59500/particlelife/internal/space"
)

func randomPositions(n int, b space.Bounds, seed uint64) []r2.Vec {
	rng := rand.New(rand.NewPCG(seed, seed))
	pos := make([]r2.Vec, n)
	for i := range pos {
		pos[i] = r2.Vec{X: rng.Float64() * b.Width, Y: rng.Float64() * b.Height}
	}
	return pos
}

func TestNeighborsAreSound(t *testing.T) {
	tests := []struct {
		name   string
		bounds space.Bounds
		cutoff float64
		policy space.Policy
	}{
		{"wrap many cells", space.Bounds{Width: 400, Height: 300}, 37, space.Wrap},
		{"clamp many cells", space.Bounds{Width: 400, Height: 300}, 37, space.Clamp},
		{"wrap two columns", space.Bounds{Width: 128, Height: 128}, 60, space.Wrap},
		{"wrap single cell", space.Bounds{Width: 50, Height: 50}, 60, space.Wrap},
		{"clamp uneven", space.Bounds{Width: 250, Height: 90}, 44, space.Clamp},
		{"wrap capped cells", space.Bounds{Width: 400, Height: 300}, 0.5, space.Wrap},
		{"clamp capped cells", space.Bounds{Width: 400, Height: 300}, 0.5, space.Clamp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos := randomPositions(600, tt.bounds, 11)
			g := New(tt.bounds, tt.cutoff, tt.policy)
			g.Rebuild(pos)

			for i := range pos {
				got := make(map[int]bool)
				for j := range g.Neighbors(i) {
					got[j] = true
				}
				assert.False(t, got[i])
				for j := range pos {
					if i == j {
						continue
					}
					d := r2.Norm(tt.policy.Delta(tt.bounds, pos[i], pos[j]))
					if d <= tt.cutoff {
						require.True(t, got[j], "particle %d misses %d at distance %.2f", i, j, d)
					}
				}
			}
		})
	}
}

func TestNeighborsHaveNoDuplicates(t *testing.T) {
	b := space.Bounds{Width: 100, Height: 100}
	pos := randomPositions(200, b, 3)
	g := New(b, 45, space.Wrap) // 2x2 grid: every offset folds onto the same cells
	g.Rebuild(pos)
	require.Equal(t, 2, g.Cols())

	for i := range pos {
		got := slices.Collect(g.Neighbors(i))
		assert.Len(t, got, len(pos)-1)
		sorted := slices.Clone(got)
		slices.Sort(sorted)
		assert.Len(t, slices.Compact(sorted), len(pos)-1)
	}
}

func TestMembersAscendingAndComplete(t *testing.T) {
	b := space.Bounds{Width: 500, Height: 500}
	pos := randomPositions(1000, b, 5)
	g := New(b, 50, space.Wrap)
	g.Rebuild(pos)

	seen := 0
	for c := range g.CellCount() {
		m := g.Members(c)
		assert.True(t, slices.IsSorted(m))
		for _, id := range m {
			assert.Equal(t, c, g.CellOf(pos[id]))
			assert.Equal(t, c, g.CellOfParticle(int(id)))
		}
		seen += len(m)
	}
	assert.Equal(t, len(pos), seen)
}

func TestCellsAreAtLeastCutoffWide(t *testing.T) {
	g := New(space.Bounds{Width: 130, Height: 59}, 60, space.Wrap)
	assert.Equal(t, 2, g.Cols())
	assert.Equal(t, 1, g.Rows())

	g = New(space.Bounds{Width: 100, Height: 100}, 0, space.Wrap)
	assert.Equal(t, 1, g.CellCount())
}

func TestCellCountIsCapped(t *testing.T) {
	b := space.Bounds{Width: 4899, Height: 4899}
	for _, cutoff := range []float64{0.235, 6, 19.5} {
		g := New(b, cutoff, space.Wrap)
		assert.LessOrEqual(t, g.CellCount(), MaxCells, "cutoff %v", cutoff)
		assert.GreaterOrEqual(t, g.CellSize(), cutoff)
		assert.GreaterOrEqual(t, b.Width/float64(g.Cols()), cutoff)
		assert.GreaterOrEqual(t, b.Height/float64(g.Rows()), cutoff)
	}

	g := New(space.Bounds{Width: 500, Height: 500}, 50, space.Wrap)
	assert.Equal(t, 50.0, g.CellSize(), "small grids keep the cutoff as cell size")
	assert.Equal(t, 100, g.CellCount())
}

func TestEdgePositionsAreKept(t *testing.T) {
	b := space.Bounds{Width: 100, Height: 100}
	g := New(b, 10, space.Clamp)
	pos := []r2.Vec{{X: 100, Y: 100}, {X: 0, Y: 0}, {X: -5, Y: 105}, {X: 99.9, Y: 99.9}}
	g.Rebuild(pos)

	assert.Equal(t, g.CellCount()-1, g.CellOf(pos[0]))
	assert.Equal(t, 0, g.CellOf(pos[1]))
	assert.Contains(t, slices.Collect(g.Neighbors(0)), 3)

	total := 0
	for c := range g.CellCount() {
		total += len(g.Members(c))
	}
	assert.Equal(t, len(pos), total)
}

func TestRebuildReusesBuffers(t *testing.T) {
	b := space.Bounds{Width: 300, Height: 300}
	g := New(b, 30, space.Wrap)
	pos := randomPositions(500, b, 9)
	g.Rebuild(pos)

	allocs := testing.AllocsPerRun(10, func() { g.Rebuild(pos) })
	assert.Zero(t, allocs)
}
