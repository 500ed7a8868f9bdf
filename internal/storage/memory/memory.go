// Package memory is an in-process Backend used as a test double and for
// dry runs.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/julianstephens/microhabit/internal/storage"
)

type Store struct {
	mu    sync.Mutex
	items map[string]storage.Item
	now   func() time.Time

	// Writes counts successful Write calls.
	Writes int
}

func NewStore() *Store {
	return &Store{
		items: make(map[string]storage.Item),
		now:   time.Now,
	}
}

func (s *Store) Init(ctx context.Context) error { return nil }

func (s *Store) Open(ctx context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) Location() string { return "memory" }

func (s *Store) Read(ctx context.Context, keys []string) (map[string]storage.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]storage.Item, len(keys))
	for _, k := range keys {
		if item, ok := s.items[k]; ok {
			out[k] = storage.Item{
				Value:    append([]byte(nil), item.Value...),
				Revision: item.Revision,
			}
		}
	}
	return out, nil
}

func (s *Store) Write(ctx context.Context, mutations []storage.Mutation) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range mutations {
		current, exists := s.items[m.Key]
		if err := storage.CheckRevision(m, current.Revision, exists); err != nil {
			return nil, err
		}
	}

	revisions := make(map[string]string, len(mutations))
	for _, m := range mutations {
		rev := storage.NewRevision()
		s.items[m.Key] = storage.Item{
			Value:    append([]byte(nil), m.Value...),
			Revision: rev,
		}
		revisions[m.Key] = rev
	}
	s.Writes++
	return revisions, nil
}

// Put stores a raw value without revision checks, for seeding tests.
func (s *Store) Put(key string, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = storage.Item{Value: append([]byte(nil), value...), Revision: storage.NewRevision()}
}
