// Package analysis reduces snapshots to small feature vectors that a
// controller or recorder can consume without touching particles directly
package analysis

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/olivierh59500/particlelife/internal/matrix"
	"github.com/olivierh59500/particlelife/internal/snapshot"
	"github.com/olivierh59500/particlelife/internal/space"
)

const classCount = matrix.ClassCount

// Features summarise one snapshot per class. Centroids are circular means
// under the wrap policy, so a cluster straddling an edge stays in one piece.
type Features struct {
	Tick     uint64
	Count    [classCount]int
	Centroid [classCount]r2.Vec
	// Spread is the mean distance of a class's particles to its centroid
	Spread [classCount]float64
	// Separation is the distance between the centroids of two classes
	Separation [classCount][classCount]float64
	// Speed is the mean particle speed of a class
	Speed [classCount]float64
}

// Extract computes the features of s. Empty classes are left at zero.
func Extract(s *snapshot.Snapshot, policy space.Policy) Features {
	f := Features{Tick: s.Tick}
	var cosX, sinX, cosY, sinY, sumX, sumY [classCount]float64
	kx := 2 * math.Pi / s.Bounds.Width
	ky := 2 * math.Pi / s.Bounds.Height

	for _, p := range s.Particles {
		c := p.Class
		f.Count[c]++
		f.Speed[c] += r2.Norm(p.Velocity)
		if policy == space.Wrap {
			sx, cx := math.Sincos(p.Position.X * kx)
			sy, cy := math.Sincos(p.Position.Y * ky)
			cosX[c] += cx
			sinX[c] += sx
			cosY[c] += cy
			sinY[c] += sy
		} else {
			sumX[c] += p.Position.X
			sumY[c] += p.Position.Y
		}
	}

	for c := range classCount {
		n := float64(f.Count[c])
		if n == 0 {
			continue
		}
		f.Speed[c] /= n
		if policy == space.Wrap {
			f.Centroid[c] = r2.Vec{
				X: angleToCoord(math.Atan2(sinX[c], cosX[c]), s.Bounds.Width),
				Y: angleToCoord(math.Atan2(sinY[c], cosY[c]), s.Bounds.Height),
			}
		} else {
			f.Centroid[c] = r2.Vec{X: sumX[c] / n, Y: sumY[c] / n}
		}
	}

	for _, p := range s.Particles {
		c := p.Class
		f.Spread[c] += r2.Norm(policy.Delta(s.Bounds, f.Centroid[c], p.Position))
	}
	for a := range classCount {
		if f.Count[a] == 0 {
			continue
		}
		f.Spread[a] /= float64(f.Count[a])
		for b := range classCount {
			if f.Count[b] == 0 {
				continue
			}
			f.Separation[a][b] = r2.Norm(policy.Delta(s.Bounds, f.Centroid[a], f.Centroid[b]))
		}
	}
	return f
}

func angleToCoord(theta, size float64) float64 {
	if theta < 0 {
		theta += 2 * math.Pi
	}
	x := theta / (2 * math.Pi) * size
	if x >= size {
		x = 0
	}
	return x
}

// MeanPairDistance is the mean distance over every (class a, class b) pair
// of distinct particles. It is quadratic in the class sizes; meant for tests
// and small runs. Returns NaN when no pair exists.
func MeanPairDistance(s *snapshot.Snapshot, a, b uint8, policy space.Policy) float64 {
	var sum float64
	n := 0
	for i, p := range s.Particles {
		if p.Class != a {
			continue
		}
		for j, q := range s.Particles {
			if i == j || q.Class != b {
				continue
			}
			sum += r2.Norm(policy.Delta(s.Bounds, p.Position, q.Position))
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// Vector flattens f into a fixed-length slice for consumers that want plain
// numbers: counts, centroids, spreads, speeds, then the upper triangle of the
// separation table
func (f Features) Vector() []float64 {
	v := make([]float64, 0, 5*classCount+classCount*(classCount+1)/2)
	for c := range classCount {
		v = append(v, float64(f.Count[c]), f.Centroid[c].X, f.Centroid[c].Y, f.Spread[c], f.Speed[c])
	}
	for a := range classCount {
		for b := a; b < classCount; b++ {
			v = append(v, f.Separation[a][b])
		}
	}
	return v
}
