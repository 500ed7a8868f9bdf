package diskv

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/julianstephens/microhabit/internal/storage"
	"github.com/julianstephens/microhabit/internal/storage/storagetest"
)

func TestConformance(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Backend {
		s := NewStore(filepath.Join(t.TempDir(), "data"))
		if err := s.Init(context.Background()); err != nil {
			t.Fatalf("Init() error: %v", err)
		}
		return s
	})
}

func TestSharedDirectory(t *testing.T) {
	storagetest.RunShared(t, func(t *testing.T, handles int) []storage.Backend {
		dir := filepath.Join(t.TempDir(), "data")
		if err := NewStore(dir).Init(context.Background()); err != nil {
			t.Fatalf("Init() error: %v", err)
		}
		backends := make([]storage.Backend, handles)
		for i := range backends {
			backends[i] = NewStore(dir)
		}
		return backends
	})
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "data")

	s := NewStore(dir)
	if err := s.Open(ctx); !errors.Is(err, storage.ErrNotInitialized) {
		t.Fatalf("Open() before Init = %v, want ErrNotInitialized", err)
	}
	if err := s.Init(ctx); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	if err := NewStore(dir).Open(ctx); err != nil {
		t.Errorf("Open() after Init error: %v", err)
	}
}

func TestOneFilePerKey(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "data")
	s := NewStore(dir)
	if err := s.Init(ctx); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	if _, err := s.Write(ctx, []storage.Mutation{{Key: "habits", Value: []byte(`["Read"]`)}}); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "habits")); err != nil {
		t.Errorf("expected file for key habits: %v", err)
	}
}

func TestSeesWritesFromOtherInstance(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "data")
	a, b := NewStore(dir), NewStore(dir)
	if err := a.Init(ctx); err != nil {
		t.Fatalf("Init() error: %v", err)
	}

	if _, err := a.Write(ctx, []storage.Mutation{{Key: "habits", Value: []byte(`["A"]`)}}); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if _, err := b.Read(ctx, []string{"habits"}); err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if _, err := a.Write(ctx, []storage.Mutation{{Key: "habits", Value: []byte(`["B"]`)}}); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	items, err := b.Read(ctx, []string{"habits"})
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if got := string(items["habits"].Value); got != `["B"]` {
		t.Errorf("habits = %s, want [\"B\"]", got)
	}
}
