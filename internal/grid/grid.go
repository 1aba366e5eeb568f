// Package grid partitions the world into uniform cells for neighbour search.
//
// The cell side is at least the global interaction cutoff, so any two
// particles that can interact sit in the same cell or in adjacent ones. A
// query therefore scans a 3x3 block of cells and may return ids that are too
// far away, but never misses one that is close enough.
package grid

import (
	"iter"
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/olivierh59500/particlelife/internal/space"
)

// MaxCells bounds the grid size. A cutoff that would need more cells gets
// wider cells instead, which stays sound and only costs extra candidates.
const MaxCells = 1 << 16

// blockSize is the number of slots per cell in the neighbour table
const blockSize = 9

// Grid is a dense cell grid rebuilt from scratch every tick.
// Cell index = row*cols + col.
type Grid struct {
	bounds   space.Bounds
	policy   space.Policy
	cellSize float64
	cols     int
	rows     int
	cellW    float64
	cellH    float64

	start   []int32 // members of cell c are ids[start[c]:start[c+1]]
	ids     []int32 // particle ids grouped by cell, ascending within a cell
	cellOf  []int32 // cell of each particle after the last rebuild
	cursor  []int32 // per-cell fill position during Rebuild
	blocks  []int32 // blockSize slots per cell: distinct neighbour cells, ascending
	blockN  []uint8 // used slots of each cell's block
}

// New sizes a grid for the world. cutoff is the largest distance at which
// two particles can still interact; non-positive means a single cell. The
// grid never has more than MaxCells cells.
func New(bounds space.Bounds, cutoff float64, policy space.Policy) *Grid {
	size := cellSide(bounds, cutoff)
	cols, rows := cellsAlong(bounds.Width, size), cellsAlong(bounds.Height, size)
	for cols*rows > MaxCells {
		// rounding in cellSide, or a world thinner than one cell
		size *= 1.01
		cols, rows = cellsAlong(bounds.Width, size), cellsAlong(bounds.Height, size)
	}
	g := &Grid{
		bounds:   bounds,
		policy:   policy,
		cellSize: size,
		cols:     cols,
		rows:     rows,
	}
	g.cellW = bounds.Width / float64(g.cols)
	g.cellH = bounds.Height / float64(g.rows)

	n := g.cols * g.rows
	g.start = make([]int32, n+1)
	g.cursor = make([]int32, n)
	g.blocks = make([]int32, n*blockSize)
	g.blockN = make([]uint8, n)
	for c := range n {
		g.blockN[c] = uint8(len(g.blockOf(c, g.blocks[c*blockSize:c*blockSize:(c+1)*blockSize])))
	}
	return g
}

// cellSide widens cutoff until floor-sized cells fit in MaxCells
func cellSide(bounds space.Bounds, cutoff float64) float64 {
	if cutoff <= 0 || bounds.Width <= 0 || bounds.Height <= 0 {
		return cutoff
	}
	return math.Max(cutoff, math.Sqrt(bounds.Width*bounds.Height/MaxCells))
}

// cellsAlong uses floor so each cell is at least cutoff wide
func cellsAlong(extent, cutoff float64) int {
	if cutoff <= 0 || extent <= 0 {
		return 1
	}
	return max(1, int(math.Floor(extent/cutoff)))
}

// blockOf appends the distinct cells of the 3x3 block around c to block.
// Small grids wrap onto themselves, hence the dedup.
func (g *Grid) blockOf(c int, block []int32) []int32 {
	cx, cy := c%g.cols, c/g.cols
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			nx, ny := cx+dx, cy+dy
			if g.policy == space.Wrap {
				nx = (nx + g.cols) % g.cols
				ny = (ny + g.rows) % g.rows
			} else if nx < 0 || nx >= g.cols || ny < 0 || ny >= g.rows {
				continue
			}
			block = append(block, int32(ny*g.cols+nx))
		}
	}
	slices.Sort(block)
	return slices.Compact(block)
}

// Rebuild assigns every particle to its cell. O(n), and allocation free once
// the buffers have grown to the population size.
func (g *Grid) Rebuild(pos []r2.Vec) {
	n := len(pos)
	if cap(g.ids) < n {
		g.ids = make([]int32, n)
		g.cellOf = make([]int32, n)
	}
	g.ids = g.ids[:n]
	g.cellOf = g.cellOf[:n]
	clear(g.start)

	for i, p := range pos {
		c := int32(g.CellOf(p))
		g.cellOf[i] = c
		g.start[c+1]++
	}
	for c := 1; c < len(g.start); c++ {
		g.start[c] += g.start[c-1]
	}
	// cursors walk forward from each cell's start, so ids land ascending
	copy(g.cursor, g.start[:len(g.start)-1])
	for i := range n {
		c := g.cellOf[i]
		g.ids[g.cursor[c]] = int32(i)
		g.cursor[c]++
	}
}

// CellOf maps a position to its cell. Positions on or past the edge land in
// the border cell, so clamped particles are never dropped.
func (g *Grid) CellOf(p r2.Vec) int {
	cx := clampIndex(int(p.X/g.cellW), g.cols)
	cy := clampIndex(int(p.Y/g.cellH), g.rows)
	return cy*g.cols + cx
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// Members returns the ids in cell c, ascending. The slice aliases the grid
// and is valid until the next Rebuild.
func (g *Grid) Members(c int) []int32 {
	return g.ids[g.start[c]:g.start[c+1]]
}

// NeighborCells returns the distinct cells of the 3x3 block around c,
// ascending. Includes c.
func (g *Grid) NeighborCells(c int) []int32 {
	off := c * blockSize
	return g.blocks[off : off+int(g.blockN[c])]
}

// CellOfParticle returns the cell particle id was put in by the last Rebuild
func (g *Grid) CellOfParticle(id int) int {
	return int(g.cellOf[id])
}

// Neighbors yields every candidate neighbour of particle id, excluding id
// itself: cells in ascending order, ids ascending within each cell.
func (g *Grid) Neighbors(id int) iter.Seq[int] {
	return func(yield func(int) bool) {
		for _, c := range g.NeighborCells(int(g.cellOf[id])) {
			for _, j := range g.Members(int(c)) {
				if int(j) == id {
					continue
				}
				if !yield(int(j)) {
					return
				}
			}
		}
	}
}

// Cols and Rows report the grid shape
func (g *Grid) Cols() int { return g.cols }
func (g *Grid) Rows() int { return g.rows }

// CellCount returns cols*rows
func (g *Grid) CellCount() int { return g.cols * g.rows }

// CellSize returns the cutoff the grid was built for
func (g *Grid) CellSize() float64 { return g.cellSize }

// Policy returns the boundary policy the grid was built for
func (g *Grid) Policy() space.Policy { return g.policy }

// Bounds returns the world the grid covers
func (g *Grid) Bounds() space.Bounds { return g.bounds }
