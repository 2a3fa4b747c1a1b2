package salt

import (
	"fmt"

	bolt "go.etcd.io/bbolt"
)

var saltBucket = []byte("salts")

// BoltStore is the device-local salt tier, a single bbolt file keyed by user
// id. It survives from the generation of the app that kept salts on the
// device; new deployments leave it unconfigured and it only ever acts as a
// migration source.
type BoltStore struct {
	db *bolt.DB
}

// OpenBoltStore opens (or creates) the local salt database at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open local salt store: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(saltBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init local salt store: %w", err)
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Get(userID string) (string, bool, error) {
	var salt string
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(saltBucket).Get([]byte(userID)); v != nil {
			salt = string(v)
			found = true
		}
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("read local salt store: %w", err)
	}
	return salt, found, nil
}

func (s *BoltStore) Put(userID, saltHex string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(saltBucket).Put([]byte(userID), []byte(saltHex))
	})
	if err != nil {
		return fmt.Errorf("write local salt store: %w", err)
	}
	return nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
