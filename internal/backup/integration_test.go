package backup

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/microhabit/internal/models"
	"github.com/julianstephens/microhabit/internal/storage"
	"github.com/julianstephens/microhabit/internal/storage/bolt"
	"github.com/julianstephens/microhabit/internal/storage/jsonfile"
)

// TestIntegrationBackupRestoreAcrossBackends backs up a bolt store and
// restores the file into a freshly initialized jsonfile store.
func TestIntegrationBackupRestoreAcrossBackends(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	src := storage.New(bolt.NewStore(filepath.Join(dir, "microhabit.db")))
	if err := src.Init(ctx); err != nil {
		t.Fatalf("failed to init bolt store: %v", err)
	}
	defer src.Close()

	snap := storage.NewSnapshot()
	snap.Completions = models.CompletionLog{"2026-03-01": {"Exercise", "Read"}}
	snap.Thoughts = []models.Thought{{ID: 2, Text: "second"}, {ID: 1, Text: "first"}}
	if err := src.Save(ctx, &snap, storage.AllKeys...); err != nil {
		t.Fatal(err)
	}

	mgr := NewManager(src, dir)
	mgr.now = func() time.Time { return time.Date(2026, 3, 1, 8, 0, 0, 0, time.Local) }
	backupPath, err := mgr.CreateBackup(ctx)
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}

	dst := storage.New(jsonfile.NewStore(filepath.Join(dir, "restored.json")))
	if err := dst.Init(ctx); err != nil {
		t.Fatalf("failed to init jsonfile store: %v", err)
	}
	defer dst.Close()

	restorer := NewManager(dst, dir)
	restorer.now = func() time.Time { return time.Date(2026, 3, 1, 8, 5, 0, 0, time.Local) }
	if _, err := restorer.RestoreBackup(ctx, backupPath); err != nil {
		t.Fatalf("RestoreBackup failed: %v", err)
	}

	got, err := dst.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Completions.Has("2026-03-01", "Exercise") || got.Completions.Count("2026-03-01") != 2 {
		t.Errorf("completions = %v", got.Completions)
	}
	if len(got.Thoughts) != 2 || got.Thoughts[0].ID != 2 {
		t.Errorf("thoughts = %v, want newest first", got.Thoughts)
	}
	if len(got.Habits) != len(models.DefaultHabits()) {
		t.Errorf("habits = %v", got.Habits)
	}

	backups, err := restorer.ListBackups()
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 2 {
		t.Errorf("expected original and pre-restore backups, got %d", len(backups))
	}
}
