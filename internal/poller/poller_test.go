package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/julianstephens/microhabit/internal/notifier"
	"github.com/julianstephens/microhabit/internal/storage"
	"github.com/julianstephens/microhabit/internal/storage/memory"
)

type recorder struct {
	mu  sync.Mutex
	got []notifier.Notification
	err error
}

func (r *recorder) Notify(ctx context.Context, n notifier.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
	return r.err
}

func (r *recorder) titles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, n := range r.got {
		out = append(out, n.Title)
	}
	return out
}

func at(day, h, m int) time.Time {
	return time.Date(2024, 1, day, h, m, 15, 0, time.UTC)
}

func newPoller(t *testing.T, cfg Config) (*Poller, *memory.Store, *recorder) {
	t.Helper()
	backend := memory.NewStore()
	rec := &recorder{}
	return New(storage.New(backend), rec, cfg, nil), backend, rec
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeStrict, false},
		{"strict", ModeStrict, false},
		{"catch-up", ModeCatchUp, false},
		{"eventually", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseMode(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestRolloverIsIdempotent(t *testing.T) {
	ctx := context.Background()
	p, backend, rec := newPoller(t, Config{NotifyNewDay: true})

	res := p.Tick(ctx, at(2, 8, 0))
	if !res.NewDay || res.Today != "2024-01-02" {
		t.Fatalf("first tick = %+v, want new day", res)
	}
	writes := backend.Writes

	res = p.Tick(ctx, at(2, 8, 1))
	if res.NewDay {
		t.Error("second tick on same day reported new day")
	}
	if backend.Writes != writes {
		t.Error("same-day tick wrote to the store")
	}

	res = p.Tick(ctx, at(3, 0, 0))
	if !res.NewDay {
		t.Error("next day not detected")
	}

	titles := rec.titles()
	if len(titles) != 2 || titles[0] != "Time to build habits!" {
		t.Errorf("notifications = %v, want two new day notifications", titles)
	}

	snap, err := p.store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if snap.LastResetDate != "2024-01-03" {
		t.Errorf("lastResetDate = %q", snap.LastResetDate)
	}
}

func TestRolloverWithoutNotification(t *testing.T) {
	p, _, rec := newPoller(t, Config{NotifyNewDay: false})
	if res := p.Tick(context.Background(), at(2, 8, 0)); !res.NewDay {
		t.Error("rollover not recorded")
	}
	if len(rec.titles()) != 0 {
		t.Errorf("unexpected notifications %v", rec.titles())
	}
}

func TestDryRunDoesNotPersist(t *testing.T) {
	ctx := context.Background()
	p, backend, _ := newPoller(t, Config{DryRun: true})
	for i := 0; i < 2; i++ {
		if res := p.Tick(ctx, at(2, 8, 0)); !res.NewDay {
			t.Errorf("tick %d: NewDay = false", i)
		}
	}
	if backend.Writes != 0 {
		t.Errorf("dry run wrote %d times", backend.Writes)
	}
}

func TestDueReminders(t *testing.T) {
	ctx := context.Background()
	reminders := []byte(`[
		{"id":1,"text":"Stretch","time":"14:30"},
		{"id":2,"text":"Water","time":"14:10"},
		{"id":3,"text":"Broken","time":"later"}
	]`)

	tests := []struct {
		name string
		cfg  Config
		now  time.Time
		want []string
	}{
		{"strict exact minute", Config{}, at(2, 14, 30), []string{"Stretch"}},
		{"strict misses skipped minute", Config{Interval: time.Hour}, at(2, 15, 0), nil},
		{"catch-up covers the interval", Config{Interval: time.Hour, Mode: ModeCatchUp}, at(2, 15, 0), []string{"Stretch", "Water"}},
		{"catch-up with short interval", Config{Interval: 15 * time.Minute, Mode: ModeCatchUp}, at(2, 14, 30), []string{"Stretch"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, backend, rec := newPoller(t, tt.cfg)
			backend.Put("reminders", reminders)
			backend.Put("lastResetDate", []byte(`"2024-01-02"`))

			res := p.Tick(ctx, tt.now)
			var got []string
			for _, r := range res.Due {
				got = append(got, r.Text)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("due = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("due = %v, want %v", got, tt.want)
				}
			}
			if len(rec.titles()) != len(tt.want) {
				t.Errorf("notifications = %v", rec.titles())
			}
		})
	}
}

func TestNotifyFailureIsCollected(t *testing.T) {
	p, backend, rec := newPoller(t, Config{NotifyNewDay: true})
	rec.err = errors.New("tray offline")
	backend.Put("reminders", []byte(`[{"id":1,"text":"Stretch","time":"14:30"}]`))

	res := p.Tick(context.Background(), at(2, 14, 30))
	if len(res.Errors) != 2 {
		t.Errorf("errors = %v, want both notifications to fail", res.Errors)
	}
	if !res.NewDay || len(res.Due) != 1 {
		t.Errorf("result = %+v", res)
	}
}

func TestStoreFailureIsCollected(t *testing.T) {
	backend := memory.NewStore()
	backend.Put("reminders", []byte(`{not json`))
	p := New(storage.New(backend), &recorder{}, Config{}, nil)

	res := p.Tick(context.Background(), at(2, 9, 0))
	if len(res.Errors) == 0 {
		t.Error("corrupt reminders not reported")
	}
	if !res.NewDay {
		t.Error("rollover should still run when reminders are unreadable")
	}
}

func TestStartStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p, _, _ := newPoller(t, Config{Interval: time.Hour})

	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if err := p.Start(ctx); err == nil {
		t.Error("second Start() should fail")
	}

	snap, err := p.store.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if snap.LastResetDate == "" {
		t.Error("Start() did not run an immediate tick")
	}

	cancel()
	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	p.Stop(stopCtx)
}
