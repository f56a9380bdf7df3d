package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"
)

const BucketRuns = "runs"

// Store persists run history in a bbolt file under the user's home directory.
type Store struct {
	db *bbolt.DB
}

func NewStore() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(home, ".faultline")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return OpenStore(filepath.Join(dir, "history.db"))
}

// OpenStore opens (or creates) a history database at an explicit path.
func OpenStore(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(BucketRuns))
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) Save(item HistoryItem) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(BucketRuns))

		data, err := json.Marshal(item)
		if err != nil {
			return err
		}
		// Key by timestamp so cursor order is chronological; the run ID keeps
		// keys unique for runs started in the same nanosecond.
		key := fmt.Sprintf("%d-%s", item.Timestamp.UnixNano(), item.ID)
		return b.Put([]byte(key), data)
	})
}

// List returns history items newest first.
func (s *Store) List() []HistoryItem {
	var items []HistoryItem

	s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(BucketRuns))
		c := b.Cursor()

		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var item HistoryItem
			if err := json.Unmarshal(v, &item); err == nil {
				items = append(items, item)
			}
		}
		return nil
	})

	return items
}

func (s *Store) Get(id string) (*HistoryItem, error) {
	var found *HistoryItem
	s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(BucketRuns))
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var item HistoryItem
			if err := json.Unmarshal(v, &item); err == nil && item.ID == id {
				found = &item
				return nil
			}
		}
		return nil
	})
	if found == nil {
		return nil, fmt.Errorf("run %s not found", id)
	}
	return found, nil
}
