package seenstore

import (
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var seenBucket = []byte("seen_feed_ids")

// boltStore implements Store on a bbolt key-value file. Keys are content
// ids, values the first_seen_at timestamp string.
type boltStore struct {
	db *bolt.DB
}

// OpenBolt opens (creating if necessary) the bbolt seen-set file at path.
func OpenBolt(path string) (Store, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(seenBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create seen bucket: %w", err)
	}

	return &boltStore{db: db}, nil
}

func (s *boltStore) Exists(id string) (bool, error) {
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(seenBucket).Get([]byte(id)) != nil
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("query seen id: %w", err)
	}
	return found, nil
}

func (s *boltStore) InsertIfAbsent(id, firstSeenAt string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(seenBucket)
		if b.Get([]byte(id)) != nil {
			return nil
		}
		return b.Put([]byte(id), []byte(firstSeenAt))
	})
	if err != nil {
		return fmt.Errorf("insert seen id: %w", err)
	}
	return nil
}

func (s *boltStore) Close() error { return s.db.Close() }
