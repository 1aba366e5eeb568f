package physics

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/olivierh59500/particlelife/internal/grid"
	"github.com/olivierh59500/particlelife/internal/matrix"
	"github.com/olivierh59500/particlelife/internal/particle"
	"github.com/olivierh59500/particlelife/internal/space"
)

func TestFalloffIsContinuousAtRadius(t *testing.T) {
	p := DefaultParams()
	for _, falloff := range []Falloff{Triangle, Linear} {
		p.Falloff = falloff
		for _, radius := range []float64{10, 33.3, matrix.MaxRadius} {
			prevGap := math.Inf(1)
			for _, eps := range []float64{1, 0.1, 1e-3, 1e-6, 1e-9} {
				inside := math.Abs(p.PairForce(1, radius, radius-eps))
				outside := math.Abs(p.PairForce(1, radius, radius+eps))
				assert.Zero(t, outside, "%s radius %v", falloff, radius)
				assert.LessOrEqual(t, inside, prevGap, "%s radius %v eps %v", falloff, radius, eps)
				prevGap = inside
			}
			assert.Less(t, prevGap, 1e-6)
			assert.Zero(t, p.PairForce(1, radius, radius))
		}
	}
}

func TestTriangleShape(t *testing.T) {
	f := Triangle
	assert.Zero(t, f.Weight(6, 6, 60))
	assert.InDelta(t, 1, f.Weight(33, 6, 60), 1e-12)
	assert.InDelta(t, 0.5, f.Weight(19.5, 6, 60), 1e-12)
	assert.Zero(t, f.Weight(3, 6, 60))
	assert.Zero(t, f.Weight(5, 6, 4), "radius inside the collision zone")
}

func TestPairForceSigns(t *testing.T) {
	p := DefaultParams()
	assert.Greater(t, p.PairForce(1, 40, 20), 0.0, "positive power attracts")
	assert.Less(t, p.PairForce(-1, 40, 20), 0.0, "negative power repels")
	assert.Less(t, p.PairForce(1, 40, 1), 0.0, "collision repels whatever the power")
	assert.Less(t, p.PairForce(1, 2, 1), 0.0, "collision applies even past a tiny pair radius")
}

func TestParamsValidate(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())

	for name, mutate := range map[string]func(*Params){
		"dt":        func(p *Params) { p.DT = 0 },
		"nan dt":    func(p *Params) { p.DT = math.NaN() },
		"damping":   func(p *Params) { p.Damping = 1 },
		"scale":     func(p *Params) { p.ForceScale = -1 },
		"collision": func(p *Params) { p.CollisionRadius = math.Inf(1) },
		"strength":  func(p *Params) { p.CollisionStrength = -2 },
		"workers":   func(p *Params) { p.Workers = -1 },
	} {
		p := DefaultParams()
		mutate(&p)
		assert.Error(t, p.Validate(), name)
	}
}

type world struct {
	store  *particle.Store
	grid   *grid.Grid
	matrix matrix.Matrix
	bounds space.Bounds
}

func newWorld(t *testing.T, pop []int, policy space.Policy, runSeed uint64) *world {
	t.Helper()
	bounds := space.Bounds{Width: 400, Height: 400}
	s, err := particle.NewStore(pop, bounds, particle.Uniform, runSeed)
	require.NoError(t, err)

	m := matrix.New()
	for src := 0; src < matrix.ClassCount; src++ {
		for dst := 0; dst < matrix.ClassCount; dst++ {
			power := float64((src*7+dst*3)%21-10) / 10
			radius := float64(10 + (src*5+dst*11)%50)
			require.NoError(t, m.Set(src, dst, matrix.Params{Power: power, Radius: radius}))
		}
	}
	p := DefaultParams()
	g := grid.New(bounds, p.Cutoff(m.MaxRadius()), policy)
	g.Rebuild(s.Pos)
	return &world{store: s, grid: g, matrix: m, bounds: bounds}
}

func bruteForce(w *world, p Params) []r2.Vec {
	s := w.store
	acc := make([]r2.Vec, s.Len())
	for i := range acc {
		var sum r2.Vec
		for j := range acc {
			if i == j {
				continue
			}
			ip := w.matrix.At(int(s.Class[i]), int(s.Class[j]))
			delta := p.Boundary.Delta(w.bounds, s.Pos[i], s.Pos[j])
			d := r2.Norm(delta)
			if d == 0 {
				continue
			}
			sum = r2.Add(sum, r2.Scale(p.PairForce(ip.Power, ip.Radius, d)/d, delta))
		}
		acc[i] = r2.Scale(p.ForceScale, sum)
	}
	return acc
}

func TestForcesMatchBruteForce(t *testing.T) {
	for _, policy := range []space.Policy{space.Wrap, space.Clamp} {
		t.Run(policy.String(), func(t *testing.T) {
			w := newWorld(t, []int{60, 60, 60, 60, 60, 60, 60, 60}, policy, 5)
			p := DefaultParams()
			p.Boundary = policy

			acc := make([]r2.Vec, w.store.Len())
			bad, err := Forces(context.Background(), acc, w.store, w.grid, &w.matrix, p)
			require.NoError(t, err)
			assert.Zero(t, bad)

			want := bruteForce(w, p)
			for i := range acc {
				assert.InDelta(t, want[i].X, acc[i].X, 1e-6, "particle %d", i)
				assert.InDelta(t, want[i].Y, acc[i].Y, 1e-6, "particle %d", i)
			}
		})
	}
}

func TestForcesIdenticalForAnyWorkerCount(t *testing.T) {
	w := newWorld(t, []int{300, 300, 300, 300, 0, 0, 0, 0}, space.Wrap, 9)
	var first []r2.Vec
	for _, workers := range []int{1, 2, 3, 8} {
		p := DefaultParams()
		p.Workers = workers
		acc := make([]r2.Vec, w.store.Len())
		_, err := Forces(context.Background(), acc, w.store, w.grid, &w.matrix, p)
		require.NoError(t, err)
		if first == nil {
			first = acc
			continue
		}
		assert.Equal(t, first, acc, "workers=%d", workers)
	}
}

func TestForcesNumericPolicy(t *testing.T) {
	w := newWorld(t, []int{20, 20}, space.Wrap, 2)
	// a NaN coordinate lands in the border cell, next to particle 0
	w.store.Pos[0] = r2.Vec{X: 10, Y: 10}
	w.store.Pos[1] = r2.Vec{X: 11, Y: math.NaN()}
	w.grid.Rebuild(w.store.Pos)

	p := DefaultParams()
	p.Numeric = Strict
	acc := make([]r2.Vec, w.store.Len())
	_, err := Forces(context.Background(), acc, w.store, w.grid, &w.matrix, p)
	var ne *NumericError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, "force", ne.Stage)

	p.Numeric = Suppress
	bad, err := Forces(context.Background(), acc, w.store, w.grid, &w.matrix, p)
	require.NoError(t, err)
	assert.Positive(t, bad)
	for _, a := range acc {
		assert.True(t, finite(a))
	}
}

func TestIntegrateWrapKeepsVelocity(t *testing.T) {
	bounds := space.Bounds{Width: 100, Height: 100}
	s, err := particle.NewStore([]int{1}, bounds, particle.Uniform, 1)
	require.NoError(t, err)
	s.Pos[0] = r2.Vec{X: 99.5, Y: 50}
	s.Prev[0] = r2.Vec{X: 99, Y: 50}

	p := DefaultParams()
	p.Damping = 0
	sc := &Scratch{}
	sc.Resize(1)

	_, err = Integrate(s, sc, bounds, p)
	require.NoError(t, err)
	assert.InDelta(t, 0, s.Pos[0].X, 1e-9)
	assert.InDelta(t, 0.5/p.DT, s.Vel[0].X, 1e-6)

	_, err = Integrate(s, sc, bounds, p)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, s.Pos[0].X, 1e-9, "keeps moving at the same speed after wrapping")
}

func TestIntegrateClampStopsAtWall(t *testing.T) {
	bounds := space.Bounds{Width: 100, Height: 100}
	s, err := particle.NewStore([]int{1}, bounds, particle.Uniform, 1)
	require.NoError(t, err)
	s.Pos[0] = r2.Vec{X: 99.5, Y: 50}
	s.Prev[0] = r2.Vec{X: 98.5, Y: 49}

	p := DefaultParams()
	p.Damping = 0
	p.Boundary = space.Clamp
	sc := &Scratch{}
	sc.Resize(1)

	_, err = Integrate(s, sc, bounds, p)
	require.NoError(t, err)
	assert.Equal(t, 100.0, s.Pos[0].X)
	assert.Zero(t, s.Vel[0].X)
	assert.InDelta(t, 1/p.DT, s.Vel[0].Y, 1e-6)

	_, err = Integrate(s, sc, bounds, p)
	require.NoError(t, err)
	assert.Equal(t, 100.0, s.Pos[0].X)
	assert.InDelta(t, 52, s.Pos[0].Y, 1e-9)
}

func TestIntegrateEulerAccelerates(t *testing.T) {
	bounds := space.Bounds{Width: 100, Height: 100}
	s, err := particle.NewStore([]int{1}, bounds, particle.Uniform, 1)
	require.NoError(t, err)
	s.Pos[0] = r2.Vec{X: 50, Y: 50}

	p := DefaultParams()
	p.Integrator = Euler
	p.Damping = 0
	sc := &Scratch{}
	sc.Resize(1)
	sc.Acc[0] = r2.Vec{X: 10}

	_, err = Integrate(s, sc, bounds, p)
	require.NoError(t, err)
	assert.InDelta(t, 10*p.DT, s.Vel[0].X, 1e-12)
	assert.InDelta(t, 50+10*p.DT*p.DT, s.Pos[0].X, 1e-12)
}

func TestIntegrateStrictLeavesStoreUntouched(t *testing.T) {
	bounds := space.Bounds{Width: 100, Height: 100}
	s, err := particle.NewStore([]int{3}, bounds, particle.Uniform, 4)
	require.NoError(t, err)
	before := append([]r2.Vec(nil), s.Pos...)

	p := DefaultParams()
	p.Numeric = Strict
	sc := &Scratch{}
	sc.Resize(3)
	sc.Acc[2] = r2.Vec{X: math.Inf(1)}

	_, err = Integrate(s, sc, bounds, p)
	var ne *NumericError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, 2, ne.Particle)
	assert.Equal(t, before, s.Pos)

	p.Numeric = Suppress
	bad, err := Integrate(s, sc, bounds, p)
	require.NoError(t, err)
	assert.Equal(t, 1, bad)
	assert.Equal(t, before[2], s.Pos[2])
}

func TestParseHelpers(t *testing.T) {
	f, err := ParseFalloff("linear")
	require.NoError(t, err)
	assert.Equal(t, Linear, f)
	_, err = ParseFalloff("cubic")
	assert.Error(t, err)

	i, err := ParseIntegrator("euler")
	require.NoError(t, err)
	assert.Equal(t, Euler, i)
	_, err = ParseIntegrator("rk4")
	assert.Error(t, err)

	n, err := ParseNumericPolicy("clamp")
	require.NoError(t, err)
	assert.Equal(t, Suppress, n)
	n, err = ParseNumericPolicy("")
	require.NoError(t, err)
	assert.Equal(t, DefaultNumericPolicy, n)
}
