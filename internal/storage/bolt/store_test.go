package bolt

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/julianstephens/microhabit/internal/storage"
	"github.com/julianstephens/microhabit/internal/storage/storagetest"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(filepath.Join(t.TempDir(), "nested", "microhabit.db"))
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	return s
}

func TestConformance(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Backend {
		return setupTestStore(t)
	})
}

func TestOpenBeforeInit(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "missing.db"))
	if err := s.Open(context.Background()); !errors.Is(err, storage.ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized, got %v", err)
	}
}

func TestOpenAfterInit(t *testing.T) {
	s := setupTestStore(t)
	reopened := NewStore(s.Location())
	if err := reopened.Open(context.Background()); err != nil {
		t.Errorf("Open() after Init error: %v", err)
	}
}
