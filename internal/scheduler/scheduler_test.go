package scheduler

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/julianstephens/microhabit/internal/models"
	"github.com/julianstephens/microhabit/internal/notifier"
)

type recorder struct {
	mu   sync.Mutex
	got  []notifier.Notification
	err  error
	done chan struct{}
}

func newRecorder() *recorder {
	return &recorder{done: make(chan struct{}, 16)}
}

func (r *recorder) Notify(ctx context.Context, n notifier.Notification) error {
	r.mu.Lock()
	r.got = append(r.got, n)
	r.mu.Unlock()
	r.done <- struct{}{}
	return r.err
}

func (r *recorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")
	}
}

func at(h, m int) time.Time {
	return time.Date(2024, 1, 2, h, m, 0, 0, time.Local)
}

func TestScheduleDelay(t *testing.T) {
	s := New(newRecorder())
	defer s.Stop()

	tests := []struct {
		name string
		time string
		want time.Duration
	}{
		{"later today", "14:30", 5*time.Hour + 30*time.Minute},
		{"earlier time rolls to tomorrow", "08:00", 23 * time.Hour},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delay, err := s.Schedule(models.Reminder{ID: int64(i + 1), Text: "x", Time: tt.time}, at(9, 0))
			if err != nil {
				t.Fatalf("Schedule() error: %v", err)
			}
			if delay != tt.want {
				t.Errorf("delay = %v, want %v", delay, tt.want)
			}
		})
	}

	if got := s.Pending(); !reflect.DeepEqual(got, []int64{1, 2}) {
		t.Errorf("Pending() = %v, want [1 2]", got)
	}
}

func TestScheduleFires(t *testing.T) {
	rec := newRecorder()
	s := New(rec)
	defer s.Stop()

	if _, err := s.Schedule(models.Reminder{ID: 7, Text: "Stretch", Time: "09:00"}, at(9, 0)); err != nil {
		t.Fatalf("Schedule() error: %v", err)
	}
	rec.wait(t)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	want := notifier.Notification{Title: "Reminder", Message: "Stretch"}
	if len(rec.got) != 1 || rec.got[0] != want {
		t.Errorf("notifications = %v, want [%v]", rec.got, want)
	}
}

func TestFiredTimerIsNoLongerPending(t *testing.T) {
	rec := newRecorder()
	rec.err = errors.New("tray offline")
	s := New(rec)
	defer s.Stop()

	s.Schedule(models.Reminder{ID: 1, Text: "x", Time: "09:00"}, at(9, 0))
	rec.wait(t)

	deadline := time.Now().Add(time.Second)
	for len(s.Pending()) > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := s.Pending(); len(got) != 0 {
		t.Errorf("Pending() = %v after fire", got)
	}
}

func TestCancel(t *testing.T) {
	s := New(newRecorder())
	defer s.Stop()

	s.Schedule(models.Reminder{ID: 3, Text: "x", Time: "10:00"}, at(9, 0))
	if !s.Cancel(3) {
		t.Error("Cancel() = false for pending timer")
	}
	if s.Cancel(3) {
		t.Error("Cancel() = true for already cancelled timer")
	}
	if len(s.Pending()) != 0 {
		t.Errorf("Pending() = %v", s.Pending())
	}
}

func TestRescheduleReplaces(t *testing.T) {
	s := New(newRecorder())
	defer s.Stop()

	s.Schedule(models.Reminder{ID: 3, Text: "x", Time: "10:00"}, at(9, 0))
	s.Schedule(models.Reminder{ID: 3, Text: "x", Time: "11:00"}, at(9, 0))
	if got := s.Pending(); !reflect.DeepEqual(got, []int64{3}) {
		t.Errorf("Pending() = %v, want [3]", got)
	}
}

func TestStop(t *testing.T) {
	rec := newRecorder()
	s := New(rec)
	s.Schedule(models.Reminder{ID: 1, Text: "x", Time: "10:00"}, at(9, 0))
	s.Stop()

	if len(s.Pending()) != 0 {
		t.Errorf("Pending() = %v after Stop", s.Pending())
	}
	s.Schedule(models.Reminder{ID: 2, Text: "x", Time: "09:00"}, at(9, 0))
	select {
	case <-rec.done:
		t.Error("timer fired after Stop")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestScheduleInvalidTime(t *testing.T) {
	s := New(newRecorder())
	defer s.Stop()
	if _, err := s.Schedule(models.Reminder{ID: 1, Text: "x", Time: "9am"}, at(9, 0)); err == nil {
		t.Error("expected error for invalid time")
	}
}
