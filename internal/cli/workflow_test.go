package cli

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/microhabit/internal/config"
	"github.com/julianstephens/microhabit/internal/printers"
	"github.com/julianstephens/microhabit/internal/service"
	"github.com/julianstephens/microhabit/internal/storage"
)

// newFileContext resolves a context the way main does, against a bolt store
// in dir.
func newFileContext(t *testing.T, dir string) (*Context, *bytes.Buffer) {
	t.Helper()

	cfg, err := config.Load(dir, "")
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}
	cfg.Apply(config.Overrides{Backend: config.BackendBolt, Timezone: "UTC"})
	cfg.Notify.Backend = config.NotifyStdout
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	ctx, err := NewContext(context.Background(), cfg, printers.OutputTable)
	if err != nil {
		t.Fatalf("NewContext() error = %v", err)
	}
	var out bytes.Buffer
	ctx.Out = &out
	ctx.Printer = printers.New(&out, printers.OutputTable)
	ctx.Now = func() time.Time { return testNow }
	ctx.Service = service.New(ctx.Store, service.WithClock(ctx.Now))
	return ctx, &out
}

func TestEndToEndWorkflow(t *testing.T) {
	dir := t.TempDir()

	ctx, out := newFileContext(t, dir)
	if err := (&HabitListCmd{}).Run(ctx); !errors.Is(err, storage.ErrNotInitialized) {
		t.Fatalf("habit list before init: error = %v, want ErrNotInitialized", err)
	}

	if err := (&InitCmd{WriteConfig: true}).Run(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	assertContains(t, out.String(), "Initialized microhabit bolt storage at: "+filepath.Join(dir, "microhabit.db"))

	steps := []struct {
		name string
		cmd  interface{ Run(*Context) error }
	}{
		{"add habit", &HabitAddCmd{Name: "Stretch"}},
		{"mark done", &HabitDoneCmd{Name: "Stretch"}},
		{"add thought", &ThoughtAddCmd{Text: []string{"first", "day"}}},
		{"add reminder", &ReminderAddCmd{Time: "09:00", Text: "stand up"}},
		{"poll", &NotifyCmd{}},
		{"backup", &BackupCreateCmd{}},
	}
	for _, s := range steps {
		if err := s.cmd.Run(ctx); err != nil {
			t.Fatalf("%s: %v\n%s", s.name, err, out.String())
		}
	}
	assertContains(t, out.String(), "Stretch done (1 day streak)", "[Reminder] stand up")

	// A second process picks up the written config and the stored state.
	other, otherOut := newFileContext(t, dir)
	if other.Config.ConfigFile != filepath.Join(dir, "config.yaml") {
		t.Errorf("ConfigFile = %q, want config.yaml in %s", other.Config.ConfigFile, dir)
	}
	if err := (&TodayCmd{}).Run(other); err != nil {
		t.Fatalf("today: %v", err)
	}
	assertContains(t, otherOut.String(), "1/6", "[x]  Stretch")

	otherOut.Reset()
	if err := (&ThoughtListCmd{}).Run(other); err != nil {
		t.Fatalf("thought list: %v", err)
	}
	assertContains(t, otherOut.String(), "first day")

	otherOut.Reset()
	if err := (&DoctorCmd{}).Run(other); err != nil {
		t.Fatalf("doctor: %v\n%s", err, otherOut.String())
	}
	assertContains(t, otherOut.String(), "✓ Backups present: OK")
}
