package kv

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const boltBucket = "slots"

// BoltSlot stores values in a single bbolt bucket on disk.
type BoltSlot struct {
	db       *bolt.DB
	maxBytes int64
}

// OpenBolt opens (creating if needed) a bbolt file at path.
func OpenBolt(path string, maxBytes int64) (*BoltSlot, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create slot directory: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(boltBucket)); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", boltBucket, err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &BoltSlot{db: db, maxBytes: maxBytes}, nil
}

func (s *BoltSlot) Get(key string) ([]byte, error) {
	var value []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(boltBucket)).Get([]byte(key))
		if data == nil {
			return ErrKeyNotFound
		}
		// The slice is only valid during the transaction.
		value = make([]byte, len(data))
		copy(value, data)
		return nil
	})
	return value, err
}

func (s *BoltSlot) Set(key string, value []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(boltBucket))

		var used int64
		err := b.ForEach(func(k, v []byte) error {
			if string(k) != key {
				used += int64(len(k) + len(v))
			}
			return nil
		})
		if err != nil {
			return err
		}
		if err := checkQuota(used, key, value, s.maxBytes); err != nil {
			return err
		}

		return b.Put([]byte(key), value)
	})
}

func (s *BoltSlot) Delete(key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(boltBucket)).Delete([]byte(key))
	})
}

func (s *BoltSlot) Close() error {
	return s.db.Close()
}
