// Package history keeps the bounded, navigable list of seeds a user has
// loaded, like a browser's back/forward stack
package history

import (
	"context"
	"sync"
)

// DefaultCapacity is how many seeds are remembered
const DefaultCapacity = 10

// Entry is one remembered seed. Order increases with every push and is
// never reused, so entries can be stored and sorted.
type Entry struct {
	Seed  string `json:"seed"`
	Order uint64 `json:"order"`
}

// Store persists a history between runs
type Store interface {
	Load(ctx context.Context) ([]Entry, error)
	Save(ctx context.Context, entries []Entry) error
}

// Ring is the history itself. Safe for concurrent use.
type Ring struct {
	mu       sync.Mutex
	capacity int
	entries  []Entry
	cursor   int // index of the current entry, -1 when empty
	next     uint64
}

// New returns an empty history; capacity <= 0 selects DefaultCapacity
func New(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring{capacity: capacity, cursor: -1}
}

// Restore returns a history holding entries, oldest first, with the cursor on
// the newest. Extra entries beyond capacity drop from the old end.
func Restore(capacity int, entries []Entry) *Ring {
	r := New(capacity)
	if len(entries) > r.capacity {
		entries = entries[len(entries)-r.capacity:]
	}
	r.entries = append(r.entries, entries...)
	r.cursor = len(r.entries) - 1
	for _, e := range r.entries {
		r.next = max(r.next, e.Order+1)
	}
	return r
}

// Push records seed as the newest entry. Anything after the cursor is
// dropped first, as after navigating back. Pushing the current seed again
// does nothing. Returns whether the history changed.
func (r *Ring) Push(seed string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cursor >= 0 && r.entries[r.cursor].Seed == seed {
		return false
	}
	r.entries = r.entries[:r.cursor+1]
	r.entries = append(r.entries, Entry{Seed: seed, Order: r.next})
	r.next++
	if over := len(r.entries) - r.capacity; over > 0 {
		r.entries = append(r.entries[:0], r.entries[over:]...)
	}
	r.cursor = len(r.entries) - 1
	return true
}

// Previous moves the cursor one entry back and returns that seed
func (r *Ring) Previous() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cursor <= 0 {
		return "", false
	}
	r.cursor--
	return r.entries[r.cursor].Seed, true
}

// Next moves the cursor one entry forward and returns that seed
func (r *Ring) Next() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cursor < 0 || r.cursor >= len(r.entries)-1 {
		return "", false
	}
	r.cursor++
	return r.entries[r.cursor].Seed, true
}

// Current returns the seed under the cursor
func (r *Ring) Current() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cursor < 0 {
		return "", false
	}
	return r.entries[r.cursor].Seed, true
}

// Entries returns a copy of the history, oldest first
func (r *Ring) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// Len returns the number of entries
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Cap returns the capacity
func (r *Ring) Cap() int {
	return r.capacity
}
