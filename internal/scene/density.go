package scene

import (
	"github.com/olivierh59500/particlelife/internal/matrix"
	"github.com/olivierh59500/particlelife/internal/snapshot"
)

// Density counts particles per cell of a coarse cols x rows raster over the
// world. Buffers are reused across calls.
type Density struct {
	Cols, Rows int
	Counts     []int
	Max        int

	perClass []int // cell*ClassCount + class
}

// Sample rebuilds the raster from s
func (d *Density) Sample(s *snapshot.Snapshot, cols, rows int) {
	cols, rows = max(1, cols), max(1, rows)
	n := cols * rows
	d.Cols, d.Rows = cols, rows
	d.Counts = resize(d.Counts, n)
	d.perClass = resize(d.perClass, n*matrix.ClassCount)
	d.Max = 0

	cw := s.Bounds.Width / float64(cols)
	ch := s.Bounds.Height / float64(rows)
	for _, p := range s.Particles {
		cx := min(cols-1, max(0, int(p.Position.X/cw)))
		cy := min(rows-1, max(0, int(p.Position.Y/ch)))
		c := cy*cols + cx
		d.Counts[c]++
		d.perClass[c*matrix.ClassCount+int(p.Class)]++
		d.Max = max(d.Max, d.Counts[c])
	}
}

// At returns the count of cell (x, y)
func (d *Density) At(x, y int) int {
	return d.Counts[y*d.Cols+x]
}

// Level returns the count of cell (x, y) relative to the busiest cell
func (d *Density) Level(x, y int) float64 {
	if d.Max == 0 {
		return 0
	}
	return float64(d.At(x, y)) / float64(d.Max)
}

// Dominant returns the most common class in cell (x, y), lowest class on a
// tie, and false for an empty cell
func (d *Density) Dominant(x, y int) (uint8, bool) {
	c := y*d.Cols + x
	if d.Counts[c] == 0 {
		return 0, false
	}
	best := 0
	row := d.perClass[c*matrix.ClassCount : (c+1)*matrix.ClassCount]
	for k := 1; k < len(row); k++ {
		if row[k] > row[best] {
			best = k
		}
	}
	return uint8(best), true
}

func resize(s []int, n int) []int {
	if cap(s) < n {
		return make([]int, n)
	}
	s = s[:n]
	clear(s)
	return s
}
