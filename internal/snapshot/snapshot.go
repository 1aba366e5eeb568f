// Package snapshot hands finished ticks from the simulation loop to readers.
//
// The loop publishes into a single slot; readers always get the newest
// complete snapshot and may skip ticks. Buffers are recycled once no reader
// holds them, so steady-state publishing does not allocate.
package snapshot

import (
	"sync"
	"sync/atomic"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/olivierh59500/particlelife/internal/space"
)

// ParticleState is one particle as seen at a tick boundary
type ParticleState struct {
	ID       int
	Class    uint8
	Position r2.Vec
	Velocity r2.Vec
}

// Snapshot is an immutable copy of the whole population at a tick boundary.
// Readers must not modify it.
type Snapshot struct {
	Tick uint64
	// Generation changes whenever the population is respawned and Tick
	// starts over from 0
	Generation uint64
	Seed       string
	Bounds     space.Bounds
	Particles  []ParticleState // indexed by particle id

	refs  atomic.Int32
	owner *Channel
}

// Lookup returns the state of particle id
func (s *Snapshot) Lookup(id int) (ParticleState, bool) {
	if id < 0 || id >= len(s.Particles) {
		return ParticleState{}, false
	}
	return s.Particles[id], true
}

// Release tells the channel this reader is done. Calling it is optional:
// an unreleased snapshot is never recycled and is simply collected.
func (s *Snapshot) Release() {
	if s == nil || s.owner == nil {
		return
	}
	if s.refs.Add(-1) == 0 {
		s.owner.recycle(s)
	}
}

// retain takes a reference unless the snapshot is already on its way back to
// the pool
func (s *Snapshot) retain() bool {
	for {
		n := s.refs.Load()
		if n <= 0 {
			return false
		}
		if s.refs.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// Channel is the single-slot, overwrite-on-publish hand-off
type Channel struct {
	current atomic.Pointer[Snapshot]
	pool    sync.Pool
}

// NewChannel returns an empty channel; Latest returns nil until the first
// Publish
func NewChannel() *Channel {
	return &Channel{}
}

// Publish fills a free buffer and makes it the current snapshot. fill must
// set every field it cares about; the Particles slice may hold stale data
// from an earlier tick and should be resliced, not appended to. Never blocks
// on readers.
func (c *Channel) Publish(fill func(s *Snapshot)) {
	s, _ := c.pool.Get().(*Snapshot)
	if s == nil {
		s = &Snapshot{owner: c}
	}
	fill(s)
	// the channel's own reference; readers can only retain after this store,
	// which orders the fill before any read
	s.refs.Store(1)
	if old := c.current.Swap(s); old != nil {
		old.Release()
	}
}

// Latest returns the newest snapshot with a reference held for the caller,
// or nil before the first Publish. Call Release when done.
func (c *Channel) Latest() *Snapshot {
	for {
		s := c.current.Load()
		if s == nil {
			return nil
		}
		if s.retain() {
			return s
		}
		// lost a race with a publish that recycled s; the slot now holds a
		// newer one
	}
}

// View runs fn with the latest snapshot and releases it afterwards. fn must
// not keep the pointer.
func (c *Channel) View(fn func(s *Snapshot)) bool {
	s := c.Latest()
	if s == nil {
		return false
	}
	defer s.Release()
	fn(s)
	return true
}

func (c *Channel) recycle(s *Snapshot) {
	c.pool.Put(s)
}
