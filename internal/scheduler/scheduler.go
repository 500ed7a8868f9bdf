// Package scheduler arms one-shot reminder timers for the running session.
// Timers are not persisted; the poller covers reminders across restarts.
package scheduler

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/julianstephens/microhabit/internal/constants"
	"github.com/julianstephens/microhabit/internal/logger"
	"github.com/julianstephens/microhabit/internal/models"
	"github.com/julianstephens/microhabit/internal/notifier"
	"github.com/julianstephens/microhabit/internal/tracker"
)

const dispatchTimeout = 10 * time.Second

type Scheduler struct {
	mu       sync.Mutex
	notifier notifier.Notifier
	timers   map[int64]*time.Timer
	stopped  bool
}

func New(n notifier.Notifier) *Scheduler {
	return &Scheduler{
		notifier: n,
		timers:   make(map[int64]*time.Timer),
	}
}

// Schedule arms a timer for the next occurrence of r.Time after now and
// returns the delay. Scheduling an id again replaces its timer.
func (s *Scheduler) Schedule(r models.Reminder, now time.Time) (time.Duration, error) {
	_, delay, err := tracker.NextOccurrence(now, r.Time)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return delay, nil
	}
	if t, ok := s.timers[r.ID]; ok {
		t.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		if s.timers[r.ID] == timer {
			delete(s.timers, r.ID)
		}
		s.mu.Unlock()
		s.fire(r)
	})
	s.timers[r.ID] = timer

	logger.Debug("reminder scheduled", "id", r.ID, "time", r.Time, "delay", delay)
	return delay, nil
}

func (s *Scheduler) fire(r models.Reminder) {
	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()

	n := notifier.Notification{Title: constants.ReminderTitle, Message: r.Text}
	if err := s.notifier.Notify(ctx, n); err != nil {
		logger.Warn("failed to send reminder", "id", r.ID, "error", err)
	}
}

// Cancel stops the timer for id. It reports whether a pending timer existed.
func (s *Scheduler) Cancel(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.timers[id]
	if !ok {
		return false
	}
	t.Stop()
	delete(s.timers, id)
	return true
}

// Pending returns the ids of armed timers in ascending order.
func (s *Scheduler) Pending() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int64, 0, len(s.timers))
	for id := range s.timers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Stop cancels every pending timer. Later calls to Schedule are ignored.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	s.stopped = true
}
