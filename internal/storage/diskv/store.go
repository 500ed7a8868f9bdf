// Package diskv keeps one envelope file per key in a directory.
package diskv

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/peterbourgon/diskv/v3"

	"github.com/julianstephens/microhabit/internal/storage"
)

const (
	markerKey = ".microhabit"
	lockName  = ".lock"
)

type Store struct {
	mu       sync.Mutex
	basePath string
	d        *diskv.Diskv
	lock     *storage.FileLock
	now      func() time.Time
}

func NewStore(basePath string) *Store {
	return &Store{
		basePath: basePath,
		d: diskv.New(diskv.Options{
			BasePath: basePath,
			TempDir:  filepath.Join(basePath, ".tmp"),
			// Files may be rewritten by other processes; never serve from cache.
			CacheSizeMax: 0,
		}),
		lock: storage.NewFileLock(filepath.Join(basePath, lockName)),
		now:  time.Now,
	}
}

func (s *Store) Init(ctx context.Context) error {
	if err := os.MkdirAll(s.basePath, 0700); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	unlock, err := s.lock.Lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()
	return s.d.Write(markerKey, []byte(s.now().UTC().Format(time.RFC3339)))
}

func (s *Store) Open(ctx context.Context) error {
	if !s.d.Has(markerKey) {
		return storage.ErrNotInitialized
	}
	return nil
}

func (s *Store) Close() error { return nil }

func (s *Store) Location() string { return s.basePath }

func (s *Store) read(key string) (storage.Item, bool, error) {
	if !s.d.Has(key) {
		return storage.Item{}, false, nil
	}
	raw, err := s.d.Read(key)
	if err != nil {
		if os.IsNotExist(err) {
			return storage.Item{}, false, nil
		}
		return storage.Item{}, false, err
	}
	item, err := storage.DecodeEnvelope(raw)
	if err != nil {
		return storage.Item{}, false, fmt.Errorf("key %q: %w", key, err)
	}
	return item, true, nil
}

func (s *Store) Read(ctx context.Context, keys []string) (map[string]storage.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	unlock, err := s.lock.RLock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	out := make(map[string]storage.Item, len(keys))
	for _, k := range keys {
		item, ok, err := s.read(k)
		if err != nil {
			return nil, err
		}
		if ok {
			out[k] = item
		}
	}
	return out, nil
}

// Write holds the directory's exclusive lock from the revision checks until
// the last key is written, so a batch never interleaves with another handle.
func (s *Store) Write(ctx context.Context, mutations []storage.Mutation) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	unlock, err := s.lock.Lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	previous := make(map[string][]byte, len(mutations))
	for _, m := range mutations {
		current, exists, err := s.read(m.Key)
		if err != nil {
			return nil, err
		}
		if err := storage.CheckRevision(m, current.Revision, exists); err != nil {
			return nil, err
		}
		if exists {
			raw, err := s.d.Read(m.Key)
			if err != nil {
				return nil, err
			}
			previous[m.Key] = raw
		}
	}

	now := s.now()
	revisions := make(map[string]string, len(mutations))
	written := make([]string, 0, len(mutations))
	for _, m := range mutations {
		rev := storage.NewRevision()
		data, err := storage.EncodeEnvelope(m.Value, rev, now)
		if err == nil {
			err = s.d.Write(m.Key, data)
		}
		if err != nil {
			s.rollback(written, previous)
			return nil, fmt.Errorf("failed to write %q: %w", m.Key, err)
		}
		written = append(written, m.Key)
		revisions[m.Key] = rev
	}
	return revisions, nil
}

// rollback restores keys written by a failed batch.
func (s *Store) rollback(keys []string, previous map[string][]byte) {
	for _, k := range keys {
		if raw, ok := previous[k]; ok {
			_ = s.d.Write(k, raw)
		} else {
			_ = s.d.Erase(k)
		}
	}
}
