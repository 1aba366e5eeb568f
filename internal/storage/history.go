package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/olivierh59500/particlelife/internal/history"
)

const historyPrefix = "history/"

// HistoryStore keeps the seed history, one key per entry ordered by
// entry order
type HistoryStore struct {
	db *DB
}

var _ history.Store = (*HistoryStore)(nil)

// NewHistoryStore returns a history store backed by db
func NewHistoryStore(db *DB) *HistoryStore {
	return &HistoryStore{db: db}
}

func historyKey(order uint64) []byte {
	return fmt.Appendf(nil, "%s%016d", historyPrefix, order)
}

// Save replaces the stored history with entries
func (s *HistoryStore) Save(ctx context.Context, entries []history.Entry) error {
	return s.db.update(ctx, func(txn *badger.Txn) error {
		if err := deletePrefix(txn, []byte(historyPrefix)); err != nil {
			return fmt.Errorf("clear history: %w", err)
		}
		for _, e := range entries {
			val, err := json.Marshal(e)
			if err != nil {
				return fmt.Errorf("marshal history entry: %w", err)
			}
			if err := txn.Set(historyKey(e.Order), val); err != nil {
				return fmt.Errorf("write history entry: %w", err)
			}
		}
		return nil
	})
}

// Load returns the stored entries, oldest first
func (s *HistoryStore) Load(ctx context.Context) ([]history.Entry, error) {
	var entries []history.Entry
	prefix := []byte(historyPrefix)
	err := s.db.view(ctx, func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var e history.Entry
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			})
			if err != nil {
				return fmt.Errorf("read history entry %s: %w", it.Item().Key(), err)
			}
			entries = append(entries, e)
		}
		return nil
	})
	return entries, err
}
