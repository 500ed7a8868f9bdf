package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/julianstephens/microhabit/internal/logger"
)

// Change is emitted by Watch when the store's files changed on disk.
type Change struct {
	Path string
}

const watchThrottle = 100 * time.Millisecond

// Watch reports changes to the file or directory at path until ctx is
// cancelled. For a file, sibling files sharing its name as a prefix (journal,
// WAL) count as changes too. Bursts are coalesced into a single Change and
// changes are dropped while the consumer is not ready.
func Watch(ctx context.Context, path string) (<-chan Change, error) {
	if path == "" {
		return nil, errors.New("store: watch path unknown")
	}
	path = filepath.Clean(path)

	dir, prefix := path, ""
	if info, err := os.Stat(path); err != nil || !info.IsDir() {
		dir, prefix = filepath.Dir(path), filepath.Base(path)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("store: create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("store: watch %s: %w", dir, err)
	}

	changes := make(chan Change, 1)
	send := func() {
		select {
		case changes <- Change{Path: path}:
		default:
		}
	}

	go func() {
		defer close(changes)
		defer watcher.Close()

		throttle := newThrottle(watchThrottle, send)
		defer throttle.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Debug("store watcher error", "error", err)
				throttle.Trigger()
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if evt.Op == fsnotify.Chmod {
					continue
				}
				name := filepath.Base(evt.Name)
				if prefix != "" && !strings.HasPrefix(name, prefix) {
					continue
				}
				if strings.HasSuffix(name, ".lock") {
					continue
				}
				throttle.Trigger()
			}
		}
	}()

	return changes, nil
}

// throttle coalesces rapid triggers so the UI redraws once per burst of
// filesystem activity. fire never runs once Stop has returned.
type throttle struct {
	mu      sync.Mutex
	timer   *time.Timer
	delay   time.Duration
	fire    func()
	stopped bool
}

func newThrottle(delay time.Duration, fire func()) *throttle {
	return &throttle{delay: delay, fire: fire}
}

func (t *throttle) Trigger() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped || t.timer != nil {
		return
	}
	t.timer = time.AfterFunc(t.delay, func() {
		// fire must not block; it runs under mu so Stop can wait for it.
		t.mu.Lock()
		defer t.mu.Unlock()
		t.timer = nil
		if !t.stopped {
			t.fire()
		}
	})
}

func (t *throttle) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
