package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/olivierh59500/particlelife/internal/analysis"
)

const (
	runPrefix    = "run/"
	samplePrefix = "sample/"
)

// ErrRunNotFound is returned for an unknown recording id
var ErrRunNotFound = errors.New("recording not found")

// Run describes one recording session
type Run struct {
	ID      string    `json:"id"`
	Seed    string    `json:"seed"`
	Started time.Time `json:"started"`
}

// Sample is the feature vector of one recorded tick
type Sample struct {
	Seed     string            `json:"seed"`
	Features analysis.Features `json:"features"`
	// Vector is Features flattened in a fixed order
	Vector []float64 `json:"vector"`
}

// RecordingStore keeps recording sessions and their samples. Samples of a
// run are keyed by tick so they iterate in tick order.
type RecordingStore struct {
	db *DB
}

// NewRecordingStore returns a recording store backed by db
func NewRecordingStore(db *DB) *RecordingStore {
	return &RecordingStore{db: db}
}

func runKey(id string) []byte {
	return []byte(runPrefix + id)
}

func sampleKey(id string, tick uint64) []byte {
	return fmt.Appendf(nil, "%s%s/%020d", samplePrefix, id, tick)
}

// BeginRun records the start of a session
func (s *RecordingStore) BeginRun(ctx context.Context, run Run) error {
	val, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}
	return s.db.update(ctx, func(txn *badger.Txn) error {
		return txn.Set(runKey(run.ID), val)
	})
}

// Append stores one sample under its tick. A repeated tick overwrites.
func (s *RecordingStore) Append(ctx context.Context, runID string, sample Sample) error {
	val, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("marshal sample: %w", err)
	}
	return s.db.update(ctx, func(txn *badger.Txn) error {
		return txn.Set(sampleKey(runID, sample.Features.Tick), val)
	})
}

// Runs lists every recorded session ordered by id
func (s *RecordingStore) Runs(ctx context.Context) ([]Run, error) {
	var runs []Run
	prefix := []byte(runPrefix)
	err := s.db.view(ctx, func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var r Run
			if err := it.Item().Value(func(val []byte) error { return json.Unmarshal(val, &r) }); err != nil {
				return fmt.Errorf("read run %s: %w", it.Item().Key(), err)
			}
			runs = append(runs, r)
		}
		return nil
	})
	return runs, err
}

// Samples returns the samples of a run in tick order
func (s *RecordingStore) Samples(ctx context.Context, runID string) ([]Sample, error) {
	var samples []Sample
	err := s.db.view(ctx, func(txn *badger.Txn) error {
		if _, err := txn.Get(runKey(runID)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
			}
			return err
		}
		prefix := fmt.Appendf(nil, "%s%s/", samplePrefix, runID)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var sm Sample
			if err := it.Item().Value(func(val []byte) error { return json.Unmarshal(val, &sm) }); err != nil {
				return fmt.Errorf("read sample %s: %w", it.Item().Key(), err)
			}
			samples = append(samples, sm)
		}
		return nil
	})
	return samples, err
}
