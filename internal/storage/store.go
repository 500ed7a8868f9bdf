package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/julianstephens/microhabit/internal/constants"
	"github.com/julianstephens/microhabit/internal/logger"
	"github.com/julianstephens/microhabit/internal/models"
)

// Store is the typed persistence layer over a Backend. It substitutes defaults
// for absent keys, validates stored records, and guards writes with the
// revision each key was loaded at.
type Store struct {
	backend Backend

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	maxAttempts int
	backoff     time.Duration
}

// New wraps backend. The store does not own the backend lifecycle until Init
// or Open is called through it.
func New(backend Backend) *Store {
	return &Store{
		backend:     backend,
		locks:       make(map[string]*sync.Mutex),
		maxAttempts: constants.UpdateMaxAttempts,
		backoff:     constants.UpdateRetryBackoff,
	}
}

// Backend exposes the underlying key/value area.
func (s *Store) Backend() Backend {
	return s.backend
}

func (s *Store) Init(ctx context.Context) error {
	return s.backend.Init(ctx)
}

func (s *Store) Open(ctx context.Context) error {
	return s.backend.Open(ctx)
}

func (s *Store) Close() error {
	return s.backend.Close()
}

// Location returns where the backend keeps its data.
func (s *Store) Location() string {
	return s.backend.Location()
}

// Load returns the current values for keys (all keys when none are given),
// substituting defaults for anything not stored yet.
func (s *Store) Load(ctx context.Context, keys ...string) (Snapshot, error) {
	if len(keys) == 0 {
		keys = AllKeys
	}
	for _, k := range keys {
		if !isKnownKey(k) {
			return Snapshot{}, fmt.Errorf("storage: unknown key %q", k)
		}
	}

	items, err := s.backend.Read(ctx, keys)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read store: %w", err)
	}

	snap := NewSnapshot()
	for _, key := range keys {
		item, ok := items[key]
		if !ok {
			snap.observe(key, "")
			continue
		}
		if err := decodeInto(&snap, key, item.Value); err != nil {
			return Snapshot{}, err
		}
		snap.observe(key, item.Revision)
	}
	return snap, nil
}

// Save writes full replacement values for keys from snap. Writes are guarded by
// the revisions snap was loaded with; ErrConflict means another writer got
// there first and nothing was written. On success snap records the new
// revisions so it can be saved again.
func (s *Store) Save(ctx context.Context, snap *Snapshot, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	mutations := make([]Mutation, 0, len(keys))
	for _, key := range keys {
		if !isKnownKey(key) {
			return fmt.Errorf("storage: unknown key %q", key)
		}
		value, err := encodeFrom(snap, key)
		if err != nil {
			return err
		}
		m := Mutation{Key: key, Value: value}
		if rev, ok := snap.Revision(key); ok {
			m.Expect = Expect(rev)
		}
		mutations = append(mutations, m)
	}

	revisions, err := s.backend.Write(ctx, mutations)
	if err != nil {
		if errors.Is(err, ErrConflict) {
			return err
		}
		return fmt.Errorf("failed to write store: %w", err)
	}
	for key, rev := range revisions {
		snap.observe(key, rev)
	}
	return nil
}

// Update runs a read-modify-write cycle over keys. Cycles touching the same
// key are serialized inside the process, and a cycle that loses a race with
// another process is retried from a fresh read. An error returned by fn aborts
// the cycle without writing.
func (s *Store) Update(ctx context.Context, keys []string, fn func(*Snapshot) error) error {
	unlock := s.lockKeys(keys)
	defer unlock()

	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		snap, err := s.Load(ctx, keys...)
		if err != nil {
			return err
		}
		if err := fn(&snap); err != nil {
			return err
		}

		err = s.Save(ctx, &snap, keys...)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrConflict) {
			return err
		}

		lastErr = err
		logger.Debug("store update conflict, retrying", "keys", keys, "attempt", attempt)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * s.backoff):
		}
	}
	return fmt.Errorf("store update gave up after %d attempts: %w", s.maxAttempts, lastErr)
}

func (s *Store) lockKeys(keys []string) func() {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	s.mu.Lock()
	held := make([]*sync.Mutex, 0, len(sorted))
	for i, k := range sorted {
		if i > 0 && sorted[i-1] == k {
			continue
		}
		l, ok := s.locks[k]
		if !ok {
			l = &sync.Mutex{}
			s.locks[k] = l
		}
		held = append(held, l)
	}
	s.mu.Unlock()

	for _, l := range held {
		l.Lock()
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}

func decodeInto(snap *Snapshot, key string, value []byte) error {
	var err error
	switch key {
	case constants.KeyHabits:
		var habits []models.Habit
		if err = json.Unmarshal(value, &habits); err == nil {
			// An explicitly stored empty list stays empty; only absence
			// falls back to the defaults.
			snap.Habits = models.NormalizeHabits(habits)
		}
	case constants.KeyCompletions:
		var log models.CompletionLog
		if err = json.Unmarshal(value, &log); err == nil {
			snap.Completions = log.Normalize()
		}
	case constants.KeyThoughts:
		var thoughts []models.Thought
		if err = json.Unmarshal(value, &thoughts); err == nil {
			if thoughts == nil {
				thoughts = []models.Thought{}
			}
			// Newest first, whatever order another writer stored.
			sort.SliceStable(thoughts, func(i, j int) bool {
				return thoughts[i].ID > thoughts[j].ID
			})
			snap.Thoughts = thoughts
		}
	case constants.KeyReminders:
		var reminders []models.Reminder
		if err = json.Unmarshal(value, &reminders); err == nil {
			if reminders == nil {
				reminders = []models.Reminder{}
			}
			snap.Reminders = reminders
		}
	case constants.KeyLastResetDate:
		err = json.Unmarshal(value, &snap.LastResetDate)
	}
	if err != nil {
		return fmt.Errorf("failed to decode %q: %w", key, err)
	}
	return nil
}

func encodeFrom(snap *Snapshot, key string) ([]byte, error) {
	var v interface{}
	switch key {
	case constants.KeyHabits:
		habits := snap.Habits
		if habits == nil {
			habits = []models.Habit{}
		}
		v = habits
	case constants.KeyCompletions:
		log := snap.Completions
		if log == nil {
			log = models.CompletionLog{}
		}
		v = log
	case constants.KeyThoughts:
		thoughts := snap.Thoughts
		if thoughts == nil {
			thoughts = []models.Thought{}
		}
		v = thoughts
	case constants.KeyReminders:
		reminders := snap.Reminders
		if reminders == nil {
			reminders = []models.Reminder{}
		}
		v = reminders
	case constants.KeyLastResetDate:
		v = snap.LastResetDate
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %q: %w", key, err)
	}
	return data, nil
}
