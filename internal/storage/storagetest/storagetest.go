// Package storagetest is a conformance suite every storage.Backend must pass.
package storagetest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/julianstephens/microhabit/internal/constants"
	"github.com/julianstephens/microhabit/internal/models"
	"github.com/julianstephens/microhabit/internal/storage"
)

// Factory returns a fresh, initialized backend for one subtest.
type Factory func(t *testing.T) storage.Backend

// SharedFactory returns independent backend handles over one initialized
// location, the way separate processes would open it.
type SharedFactory func(t *testing.T, handles int) []storage.Backend

// Run exercises the Backend contract against backends produced by newBackend.
func Run(t *testing.T, newBackend Factory) {
	t.Helper()
	ctx := context.Background()

	t.Run("read missing keys", func(t *testing.T) {
		b := newBackend(t)
		items, err := b.Read(ctx, []string{"habits", "thoughts"})
		if err != nil {
			t.Fatalf("Read() error: %v", err)
		}
		if len(items) != 0 {
			t.Errorf("expected no items, got %d", len(items))
		}
	})

	t.Run("write then read", func(t *testing.T) {
		b := newBackend(t)
		revs, err := b.Write(ctx, []storage.Mutation{
			{Key: "habits", Value: []byte(`["Floss"]`)},
			{Key: "lastResetDate", Value: []byte(`"2024-01-02"`)},
		})
		if err != nil {
			t.Fatalf("Write() error: %v", err)
		}
		if revs["habits"] == "" || revs["lastResetDate"] == "" {
			t.Fatalf("expected revisions for both keys, got %v", revs)
		}

		items, err := b.Read(ctx, []string{"habits", "lastResetDate", "reminders"})
		if err != nil {
			t.Fatalf("Read() error: %v", err)
		}
		if got := string(items["habits"].Value); got != `["Floss"]` {
			t.Errorf("habits = %s", got)
		}
		if items["habits"].Revision != revs["habits"] {
			t.Errorf("revision mismatch: read %q, wrote %q", items["habits"].Revision, revs["habits"])
		}
		if _, ok := items["reminders"]; ok {
			t.Error("unwritten key reported as present")
		}
	})

	t.Run("guarded write succeeds on matching revision", func(t *testing.T) {
		b := newBackend(t)
		revs, err := b.Write(ctx, []storage.Mutation{{Key: "habits", Value: []byte(`[]`), Expect: storage.Expect("")}})
		if err != nil {
			t.Fatalf("create with absent expectation failed: %v", err)
		}
		_, err = b.Write(ctx, []storage.Mutation{{Key: "habits", Value: []byte(`["Read"]`), Expect: storage.Expect(revs["habits"])}})
		if err != nil {
			t.Fatalf("guarded write failed: %v", err)
		}
	})

	t.Run("stale revision conflicts and writes nothing", func(t *testing.T) {
		b := newBackend(t)
		first, err := b.Write(ctx, []storage.Mutation{{Key: "habits", Value: []byte(`["A"]`)}})
		if err != nil {
			t.Fatalf("Write() error: %v", err)
		}
		if _, err := b.Write(ctx, []storage.Mutation{{Key: "habits", Value: []byte(`["B"]`)}}); err != nil {
			t.Fatalf("Write() error: %v", err)
		}

		_, err = b.Write(ctx, []storage.Mutation{
			{Key: "thoughts", Value: []byte(`[{"id":1,"text":"x"}]`)},
			{Key: "habits", Value: []byte(`["C"]`), Expect: storage.Expect(first["habits"])},
		})
		if !errors.Is(err, storage.ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}

		items, err := b.Read(ctx, []string{"habits", "thoughts"})
		if err != nil {
			t.Fatalf("Read() error: %v", err)
		}
		if got := string(items["habits"].Value); got != `["B"]` {
			t.Errorf("habits = %s, want [\"B\"]", got)
		}
		if _, ok := items["thoughts"]; ok {
			t.Error("conflicting batch partially applied")
		}
	})

	t.Run("absent expectation conflicts when key exists", func(t *testing.T) {
		b := newBackend(t)
		if _, err := b.Write(ctx, []storage.Mutation{{Key: "reminders", Value: []byte(`[]`)}}); err != nil {
			t.Fatalf("Write() error: %v", err)
		}
		_, err := b.Write(ctx, []storage.Mutation{{Key: "reminders", Value: []byte(`[]`), Expect: storage.Expect("")}})
		if !errors.Is(err, storage.ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
	})

	t.Run("location", func(t *testing.T) {
		if newBackend(t).Location() == "" {
			t.Error("Location() is empty")
		}
	})
}

// RunShared checks that guarded writes hold across handles on the same
// location: every update acknowledged through any handle must survive.
func RunShared(t *testing.T, open SharedFactory) {
	t.Helper()
	ctx := context.Background()

	tests := []struct {
		name    string
		handles int
		appends int
	}{
		{name: "single handle", handles: 1, appends: 20},
		{name: "two handles", handles: 2, appends: 40},
		{name: "three handles", handles: 3, appends: 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backends := open(t, tt.handles)
			if len(backends) != tt.handles {
				t.Fatalf("factory returned %d handles, want %d", len(backends), tt.handles)
			}

			var wg sync.WaitGroup
			for h, b := range backends {
				store := storage.New(b)
				wg.Add(1)
				go func(h int) {
					defer wg.Done()
					for i := 0; i < tt.appends; i++ {
						id := int64(h*1000 + i + 1)
						if err := appendThought(ctx, store, id); err != nil {
							t.Errorf("handle %d append %d: %v", h, i, err)
							return
						}
					}
				}(h)
			}
			wg.Wait()

			snap, err := storage.New(backends[0]).Load(ctx, constants.KeyThoughts)
			if err != nil {
				t.Fatalf("Load() error: %v", err)
			}
			want := tt.handles * tt.appends
			if len(snap.Thoughts) != want {
				t.Errorf("stored %d thoughts, want %d", len(snap.Thoughts), want)
			}
			seen := make(map[int64]bool, len(snap.Thoughts))
			for _, th := range snap.Thoughts {
				if seen[th.ID] {
					t.Errorf("thought %d stored twice", th.ID)
				}
				seen[th.ID] = true
			}
		})
	}
}

// appendThought keeps retrying an update that gave up on conflicts; any other
// error is returned.
func appendThought(ctx context.Context, store *storage.Store, id int64) error {
	for {
		err := store.Update(ctx, []string{constants.KeyThoughts}, func(snap *storage.Snapshot) error {
			snap.Thoughts = append([]models.Thought{{ID: id, Text: "entry"}}, snap.Thoughts...)
			return nil
		})
		if err == nil || !errors.Is(err, storage.ErrConflict) {
			return err
		}
	}
}
