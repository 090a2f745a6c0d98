package storage

import (
	"fmt"
	"path/filepath"

	bolt "go.etcd.io/bbolt"
)

// engineBucket is the single bucket all engine state keys live under:
// "tasks", "executing_tasks", "solved_tasks", plus whatever else a
// future caller decides to persist under this KV.
var engineBucket = []byte("engine")

// BoltStore implements KV using BoltDB, the way the teacher's
// pkg/storage/boltdb.go implements its cluster Store: one bucket per
// logical collection, JSON... here a single bucket keyed by the
// caller's own key names, since the engine's snapshot format (not
// storage's) defines what a key's bytes mean.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (creating if absent) a BoltDB file named
// "engine.db" under dataDir and ensures the engine bucket exists.
func NewBoltStore(dataDir string) (*BoltStore, error) {
	dbPath := filepath.Join(dataDir, "engine.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(engineBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create engine bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Get implements KV.
func (s *BoltStore) Get(key []byte) ([]byte, bool, error) {
	var value []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(engineBucket)
		data := b.Get(key)
		if data == nil {
			return nil
		}
		value = make([]byte, len(data))
		copy(value, data)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return value, value != nil, nil
}

// Put implements KV.
func (s *BoltStore) Put(key []byte, value []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(engineBucket)
		return b.Put(key, value)
	})
}

// Close implements KV.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
