package physics

import (
	"context"
	"math"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/olivierh59500/particlelife/internal/grid"
	"github.com/olivierh59500/particlelife/internal/matrix"
	"github.com/olivierh59500/particlelife/internal/particle"
)

// minChunk keeps tiny populations on one goroutine
const minChunk = 256

// Forces writes the acceleration of every particle into acc (len >= store
// size). The grid must have been rebuilt from the store's current positions.
//
// Each particle's sum is produced by exactly one worker and visits
// neighbours in the grid's fixed order, so the result is bit-identical for
// any worker count. Returns how many non-finite values were suppressed.
func Forces(ctx context.Context, acc []r2.Vec, s *particle.Store, g *grid.Grid, m *matrix.Matrix, p Params) (int, error) {
	n := s.Len()
	workers := p.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	chunk := max(minChunk, (n+workers-1)/workers)

	var suppressed atomic.Int64
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			bad, err := forceRange(acc, s, g, m, p, lo, hi)
			suppressed.Add(int64(bad))
			return err
		})
	}
	err := eg.Wait()
	return int(suppressed.Load()), err
}

func forceRange(acc []r2.Vec, s *particle.Store, g *grid.Grid, m *matrix.Matrix, p Params, lo, hi int) (int, error) {
	bounds := g.Bounds()
	policy := g.Policy()
	collision2 := p.CollisionRadius * p.CollisionRadius
	bad := 0

	for i := lo; i < hi; i++ {
		pos := s.Pos[i]
		row := m.Row(int(s.Class[i]))
		var sx, sy float64

		for _, c := range g.NeighborCells(g.CellOfParticle(i)) {
			for _, j32 := range g.Members(int(c)) {
				j := int(j32)
				if j == i {
					continue
				}
				ip := row[s.Class[j]]
				delta := policy.Delta(bounds, pos, s.Pos[j])
				// explicit float64 conversions keep the compiler from fusing
				// into FMA, which would change rounding between architectures
				d2 := float64(delta.X*delta.X) + float64(delta.Y*delta.Y)
				if d2 == 0 || (d2 >= ip.Radius*ip.Radius && d2 >= collision2) {
					continue
				}
				d := math.Sqrt(d2)
				f := p.PairForce(ip.Power, ip.Radius, d)
				if f == 0 {
					continue
				}
				k := f / d
				sx += float64(k * delta.X)
				sy += float64(k * delta.Y)
			}
		}

		sum := r2.Vec{X: p.ForceScale * sx, Y: p.ForceScale * sy}
		if !finite(sum) {
			if p.Numeric == Strict {
				return bad, &NumericError{Stage: "force", Particle: i, Value: sum}
			}
			sum = r2.Vec{}
			bad++
		}
		acc[i] = sum
	}
	return bad, nil
}
