// Package bolt keeps the records in a single bbolt file. This is the default
// backend.
package bolt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/julianstephens/microhabit/internal/constants"
	"github.com/julianstephens/microhabit/internal/storage"
)

// Store opens the database for the duration of each call so that the CLI, the
// TUI and the daemon can share one file; bbolt holds an exclusive file lock
// while open.
type Store struct {
	path    string
	bucket  []byte
	timeout time.Duration
	now     func() time.Time
}

func NewStore(path string) *Store {
	return &Store{
		path:    path,
		bucket:  []byte(constants.AppName),
		timeout: 2 * time.Second,
		now:     time.Now,
	}
}

func (s *Store) Init(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return s.withDB(false, func(db *bolt.DB) error {
		return db.Update(func(tx *bolt.Tx) error {
			_, err := tx.CreateBucketIfNotExists(s.bucket)
			return err
		})
	})
}

func (s *Store) Open(ctx context.Context) error {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return storage.ErrNotInitialized
	}
	return s.withDB(true, func(db *bolt.DB) error {
		return db.View(func(tx *bolt.Tx) error {
			if tx.Bucket(s.bucket) == nil {
				return storage.ErrNotInitialized
			}
			return nil
		})
	})
}

func (s *Store) Close() error { return nil }

func (s *Store) Location() string { return s.path }

func (s *Store) Read(ctx context.Context, keys []string) (map[string]storage.Item, error) {
	out := make(map[string]storage.Item, len(keys))
	err := s.withDB(true, func(db *bolt.DB) error {
		return db.View(func(tx *bolt.Tx) error {
			b := tx.Bucket(s.bucket)
			if b == nil {
				return storage.ErrNotInitialized
			}
			for _, k := range keys {
				raw := b.Get([]byte(k))
				if raw == nil {
					continue
				}
				// raw is only valid inside the transaction; DecodeEnvelope copies.
				item, err := storage.DecodeEnvelope(raw)
				if err != nil {
					return fmt.Errorf("key %q: %w", k, err)
				}
				out[k] = item
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Write(ctx context.Context, mutations []storage.Mutation) (map[string]string, error) {
	revisions := make(map[string]string, len(mutations))
	now := s.now()

	err := s.withDB(false, func(db *bolt.DB) error {
		return db.Update(func(tx *bolt.Tx) error {
			b := tx.Bucket(s.bucket)
			if b == nil {
				return storage.ErrNotInitialized
			}
			for _, m := range mutations {
				var current storage.Item
				raw := b.Get([]byte(m.Key))
				if raw != nil {
					var err error
					if current, err = storage.DecodeEnvelope(raw); err != nil {
						return fmt.Errorf("key %q: %w", m.Key, err)
					}
				}
				if err := storage.CheckRevision(m, current.Revision, raw != nil); err != nil {
					return err
				}
			}
			for _, m := range mutations {
				rev := storage.NewRevision()
				data, err := storage.EncodeEnvelope(m.Value, rev, now)
				if err != nil {
					return err
				}
				if err := b.Put([]byte(m.Key), data); err != nil {
					return err
				}
				revisions[m.Key] = rev
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return revisions, nil
}

func (s *Store) withDB(readOnly bool, fn func(*bolt.DB) error) error {
	db, err := bolt.Open(s.path, 0600, &bolt.Options{Timeout: s.timeout, ReadOnly: readOnly})
	if err != nil {
		if errors.Is(err, bolt.ErrTimeout) {
			return fmt.Errorf("store %s is locked by another process: %w", s.path, err)
		}
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	return fn(db)
}
