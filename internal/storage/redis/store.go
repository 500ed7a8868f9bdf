// Package redis stores each key as an envelope string under the microhabit/
// prefix and uses WATCH/MULTI for guarded writes.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goRedis "github.com/redis/go-redis/v9"

	"github.com/julianstephens/microhabit/internal/constants"
	"github.com/julianstephens/microhabit/internal/storage"
)

const initKey = "initialized"

type Store struct {
	url      string
	password string
	prefix   string
	client   *goRedis.Client
	now      func() time.Time
}

func New(url, password string) *Store {
	return &Store{
		url:      url,
		password: password,
		prefix:   constants.StoreNamespace,
		now:      time.Now,
	}
}

func (s *Store) connect(ctx context.Context) error {
	if s.client != nil {
		return nil
	}
	opts, err := goRedis.ParseURL(s.url)
	if err != nil {
		return fmt.Errorf("invalid redis url: %w", err)
	}
	if s.password != "" {
		opts.Password = s.password
	}

	client := goRedis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	s.client = client
	return nil
}

func (s *Store) Init(ctx context.Context) error {
	if err := s.connect(ctx); err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(initKey), s.now().UTC().Format(time.RFC3339), 0).Err()
}

func (s *Store) Open(ctx context.Context) error {
	if err := s.connect(ctx); err != nil {
		return err
	}
	n, err := s.client.Exists(ctx, s.key(initKey)).Result()
	if err != nil {
		return fmt.Errorf("failed to inspect redis: %w", err)
	}
	if n == 0 {
		return storage.ErrNotInitialized
	}
	return nil
}

func (s *Store) Close() error {
	if s.client != nil {
		err := s.client.Close()
		s.client = nil
		return err
	}
	return nil
}

func (s *Store) Location() string {
	opts, err := goRedis.ParseURL(s.url)
	if err != nil {
		return "redis"
	}
	return fmt.Sprintf("redis://%s/%d", opts.Addr, opts.DB)
}

func (s *Store) key(k string) string {
	return storage.NamespacedKey(s.prefix, k)
}

func (s *Store) Read(ctx context.Context, keys []string) (map[string]storage.Item, error) {
	if s.client == nil {
		return nil, fmt.Errorf("storage not loaded")
	}
	out := make(map[string]storage.Item, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.key(k)
	}
	values, err := s.client.MGet(ctx, full...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read keys: %w", err)
	}
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		item, err := storage.DecodeEnvelope([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", keys[i], err)
		}
		out[keys[i]] = item
	}
	return out, nil
}

func (s *Store) Write(ctx context.Context, mutations []storage.Mutation) (map[string]string, error) {
	if s.client == nil {
		return nil, fmt.Errorf("storage not loaded")
	}

	full := make([]string, len(mutations))
	for i, m := range mutations {
		full[i] = s.key(m.Key)
	}

	now := s.now()
	revisions := make(map[string]string, len(mutations))
	err := s.client.Watch(ctx, func(tx *goRedis.Tx) error {
		for i, m := range mutations {
			raw, err := tx.Get(ctx, full[i]).Result()
			exists := true
			if errors.Is(err, goRedis.Nil) {
				exists = false
			} else if err != nil {
				return err
			}
			var current storage.Item
			if exists {
				if current, err = storage.DecodeEnvelope([]byte(raw)); err != nil {
					return fmt.Errorf("key %q: %w", m.Key, err)
				}
			}
			if err := storage.CheckRevision(m, current.Revision, exists); err != nil {
				return err
			}
		}

		payloads := make([][]byte, len(mutations))
		for i, m := range mutations {
			rev := storage.NewRevision()
			data, err := storage.EncodeEnvelope(m.Value, rev, now)
			if err != nil {
				return err
			}
			payloads[i] = data
			revisions[m.Key] = rev
		}

		_, err := tx.TxPipelined(ctx, func(pipe goRedis.Pipeliner) error {
			for i := range mutations {
				pipe.Set(ctx, full[i], payloads[i], 0)
			}
			return nil
		})
		return err
	}, full...)

	if errors.Is(err, goRedis.TxFailedErr) {
		return nil, storage.ErrConflict
	}
	if err != nil {
		return nil, err
	}
	return revisions, nil
}
