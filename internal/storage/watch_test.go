package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestWatchFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "microhabit.db")
	if err := os.WriteFile(path, []byte("a"), 0600); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := Watch(ctx, path)
	if err != nil {
		t.Fatalf("Watch() error: %v", err)
	}

	// Unrelated files in the same directory are ignored.
	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	select {
	case <-changes:
		t.Fatal("unexpected change for unrelated file")
	case <-time.After(300 * time.Millisecond):
	}

	if err := os.WriteFile(path, []byte("b"), 0600); err != nil {
		t.Fatal(err)
	}
	select {
	case c := <-changes:
		if c.Path != path {
			t.Errorf("Change.Path = %q, want %q", c.Path, path)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change")
	}
}

func TestWatchClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	changes, err := Watch(ctx, t.TempDir())
	if err != nil {
		t.Fatalf("Watch() error: %v", err)
	}
	cancel()

	select {
	case _, ok := <-changes:
		if ok {
			// A pending change may be delivered first; the next receive must close.
			if _, ok := <-changes; ok {
				t.Error("channel not closed after cancel")
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestWatchEmptyPath(t *testing.T) {
	if _, err := Watch(context.Background(), ""); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestThrottleCoalesces(t *testing.T) {
	var fired atomic.Int32
	th := newThrottle(50*time.Millisecond, func() { fired.Add(1) })
	defer th.Stop()

	for i := 0; i < 10; i++ {
		th.Trigger()
	}
	time.Sleep(200 * time.Millisecond)
	if got := fired.Load(); got != 1 {
		t.Errorf("fired %d times, want 1", got)
	}
}

func TestThrottleStop(t *testing.T) {
	tests := []struct {
		name  string
		delay time.Duration
		wait  time.Duration
	}{
		{name: "stop before timer expires", delay: 50 * time.Millisecond, wait: 0},
		{name: "stop as timer expires", delay: time.Millisecond, wait: time.Millisecond},
		{name: "trigger after stop", delay: time.Millisecond, wait: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < 50; i++ {
				ch := make(chan struct{}, 1)
				th := newThrottle(tt.delay, func() {
					select {
					case ch <- struct{}{}:
					default:
					}
				})
				if tt.wait < 0 {
					th.Stop()
					th.Trigger()
				} else {
					th.Trigger()
					time.Sleep(tt.wait)
					th.Stop()
				}
				// Watch closes its channel right after Stop; a late fire
				// would panic on the send.
				close(ch)
				time.Sleep(2 * tt.delay)
			}
		})
	}
}
