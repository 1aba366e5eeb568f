// Package particle owns the particle population as flat arrays
package particle

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/olivierh59500/particlelife/internal/space"
)

// Store holds particle state in structure-of-arrays form. A particle's id is
// its index; ids are handed out class by class (all of class 0 first) and
// never change during a run.
type Store struct {
	Class []uint8
	Pos   []r2.Vec
	Prev  []r2.Vec // position one tick ago, used by the Verlet integrator
	Vel   []r2.Vec
}

// NewStore allocates the population and places it with the given pattern.
// runSeed feeds the placement generator, so equal seeds give equal layouts.
func NewStore(population []int, bounds space.Bounds, pattern Pattern, runSeed uint64) (*Store, error) {
	total := 0
	for c, n := range population {
		if n < 0 {
			return nil, fmt.Errorf("class %d: negative population %d", c, n)
		}
		total += n
	}

	s := &Store{
		Class: make([]uint8, 0, total),
		Pos:   make([]r2.Vec, total),
		Prev:  make([]r2.Vec, total),
		Vel:   make([]r2.Vec, total),
	}
	for c, n := range population {
		for range n {
			s.Class = append(s.Class, uint8(c))
		}
	}
	if err := s.Spawn(bounds, pattern, runSeed); err != nil {
		return nil, err
	}
	return s, nil
}

// Len returns the number of particles
func (s *Store) Len() int {
	return len(s.Class)
}

// Spawn places every particle at rest according to pattern
func (s *Store) Spawn(bounds space.Bounds, pattern Pattern, runSeed uint64) error {
	place, err := newPlacer(pattern, bounds, runSeed)
	if err != nil {
		return err
	}
	for i := range s.Pos {
		p := place()
		s.Pos[i] = p
		s.Prev[i] = p
		s.Vel[i] = r2.Vec{}
	}
	return nil
}

// CountByClass returns how many particles each class has
func (s *Store) CountByClass(classCount int) []int {
	counts := make([]int, classCount)
	for _, c := range s.Class {
		counts[c]++
	}
	return counts
}
