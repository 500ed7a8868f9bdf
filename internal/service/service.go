// Package service implements the user actions. Every mutator validates its
// input first, so a validation error guarantees the store was not touched,
// and then performs a single Store.Update cycle.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/julianstephens/microhabit/internal/constants"
	"github.com/julianstephens/microhabit/internal/errors"
	"github.com/julianstephens/microhabit/internal/logger"
	"github.com/julianstephens/microhabit/internal/models"
	"github.com/julianstephens/microhabit/internal/storage"
	"github.com/julianstephens/microhabit/internal/tracker"
	"github.com/julianstephens/microhabit/internal/view"
)

// ReminderScheduler arms session-local reminder timers.
type ReminderScheduler interface {
	Schedule(r models.Reminder, now time.Time) (time.Duration, error)
	Cancel(id int64) bool
}

type Service struct {
	store     *storage.Store
	now       func() time.Time
	scheduler ReminderScheduler
}

type Option func(*Service)

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithScheduler arms a timer for every reminder added through the service.
func WithScheduler(sched ReminderScheduler) Option {
	return func(s *Service) { s.scheduler = sched }
}

func New(store *storage.Store, opts ...Option) *Service {
	s := &Service{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Store() *storage.Store {
	return s.store
}

func (s *Service) Now() time.Time {
	return s.now()
}

// AddHabit appends name to the habit list. A name already present yields
// ErrDuplicateHabit and leaves the list unchanged.
func (s *Service) AddHabit(ctx context.Context, name string) (models.Habit, error) {
	habit, err := models.NormalizeHabitName(name)
	if err != nil {
		return "", err
	}

	err = s.store.Update(ctx, []string{constants.KeyHabits}, func(snap *storage.Snapshot) error {
		if models.ContainsHabit(snap.Habits, habit) {
			return errors.Invalid("habit", habit, errors.ErrDuplicateHabit)
		}
		snap.Habits = append(snap.Habits, habit)
		return nil
	})
	if err != nil {
		return "", err
	}
	logger.Info("habit added", "habit", habit)
	return habit, nil
}

// DeleteHabit removes name from the habit list. Its completion history stays.
func (s *Service) DeleteHabit(ctx context.Context, name string) error {
	habit, err := models.NormalizeHabitName(name)
	if err != nil {
		return err
	}

	err = s.store.Update(ctx, []string{constants.KeyHabits}, func(snap *storage.Snapshot) error {
		kept := make([]models.Habit, 0, len(snap.Habits))
		for _, h := range snap.Habits {
			if h != habit {
				kept = append(kept, h)
			}
		}
		if len(kept) == len(snap.Habits) {
			return errors.Invalid("habit", habit, errors.ErrNotFound)
		}
		snap.Habits = kept
		return nil
	})
	if err != nil {
		return err
	}
	logger.Info("habit deleted", "habit", habit)
	return nil
}

// ToggleCompletion marks name done or not done today.
func (s *Service) ToggleCompletion(ctx context.Context, name string, done bool) error {
	habit, err := models.NormalizeHabitName(name)
	if err != nil {
		return err
	}
	today := tracker.TodayKey(s.now())

	keys := []string{constants.KeyHabits, constants.KeyCompletions}
	return s.store.Update(ctx, keys, func(snap *storage.Snapshot) error {
		if !models.ContainsHabit(snap.Habits, habit) {
			return errors.Invalid("habit", habit, errors.ErrNotFound)
		}
		snap.Completions = tracker.ToggleCompletion(habit, done, snap.Completions, today)
		return nil
	})
}

// AddThought records text as the newest thought.
func (s *Service) AddThought(ctx context.Context, text string) (models.Thought, error) {
	now := s.now()
	thought := models.Thought{
		Text:      text,
		Timestamp: now.Format(constants.DisplayTimestampFormat),
		Date:      tracker.DateKey(now),
	}
	if err := thought.Validate(); err != nil {
		return models.Thought{}, err
	}

	err := s.store.Update(ctx, []string{constants.KeyThoughts}, func(snap *storage.Snapshot) error {
		thought.ID = nextID(now, maxThoughtID(snap.Thoughts))
		snap.Thoughts = append([]models.Thought{thought}, snap.Thoughts...)
		return nil
	})
	if err != nil {
		return models.Thought{}, err
	}
	return thought, nil
}

// DeleteThought removes the thought with id, keeping the order of the rest.
func (s *Service) DeleteThought(ctx context.Context, id int64) error {
	return s.store.Update(ctx, []string{constants.KeyThoughts}, func(snap *storage.Snapshot) error {
		kept := make([]models.Thought, 0, len(snap.Thoughts))
		for _, t := range snap.Thoughts {
			if t.ID != id {
				kept = append(kept, t)
			}
		}
		if len(kept) == len(snap.Thoughts) {
			return errors.Invalid("thought", fmt.Sprint(id), errors.ErrNotFound)
		}
		snap.Thoughts = kept
		return nil
	})
}

// AddReminder stores a reminder and, when a scheduler is configured, arms a
// timer for its next occurrence. The returned delay is the time until then.
func (s *Service) AddReminder(ctx context.Context, text, hhmm string) (models.Reminder, time.Duration, error) {
	now := s.now()
	reminder := models.Reminder{
		Text:      text,
		Time:      hhmm,
		CreatedAt: now.Format(constants.DisplayTimestampFormat),
	}
	if err := reminder.Validate(); err != nil {
		return models.Reminder{}, 0, err
	}

	err := s.store.Update(ctx, []string{constants.KeyReminders}, func(snap *storage.Snapshot) error {
		reminder.ID = nextID(now, maxReminderID(snap.Reminders))
		snap.Reminders = append(snap.Reminders, reminder)
		return nil
	})
	if err != nil {
		return models.Reminder{}, 0, err
	}

	var delay time.Duration
	if s.scheduler != nil {
		delay, err = s.scheduler.Schedule(reminder, now)
	} else {
		_, delay, err = tracker.NextOccurrence(now, reminder.Time)
	}
	if err != nil {
		return reminder, 0, err
	}
	logger.Info("reminder added", "id", reminder.ID, "time", reminder.Time, "delay", delay)
	return reminder, delay, nil
}

// DeleteReminder removes the reminder with id and cancels its timer.
func (s *Service) DeleteReminder(ctx context.Context, id int64) error {
	err := s.store.Update(ctx, []string{constants.KeyReminders}, func(snap *storage.Snapshot) error {
		kept := make([]models.Reminder, 0, len(snap.Reminders))
		for _, r := range snap.Reminders {
			if r.ID != id {
				kept = append(kept, r)
			}
		}
		if len(kept) == len(snap.Reminders) {
			return errors.Invalid("reminder", fmt.Sprint(id), errors.ErrNotFound)
		}
		snap.Reminders = kept
		return nil
	})
	if err != nil {
		return err
	}
	if s.scheduler != nil {
		s.scheduler.Cancel(id)
	}
	return nil
}

// ScheduleAll arms timers for every stored reminder. Sessions call it at
// startup since timers do not survive a restart.
func (s *Service) ScheduleAll(ctx context.Context) (int, error) {
	if s.scheduler == nil {
		return 0, nil
	}
	snap, err := s.store.Load(ctx, constants.KeyReminders)
	if err != nil {
		return 0, err
	}
	now := s.now()
	armed := 0
	for _, r := range snap.Reminders {
		if _, err := s.scheduler.Schedule(r, now); err != nil {
			logger.Warn("skipping reminder with invalid time", "id", r.ID, "time", r.Time, "error", err)
			continue
		}
		armed++
	}
	return armed, nil
}

// Snapshot loads every record.
func (s *Service) Snapshot(ctx context.Context) (storage.Snapshot, error) {
	return s.store.Load(ctx)
}

// Dashboard loads every record and derives the view model for now.
func (s *Service) Dashboard(ctx context.Context) (view.Dashboard, error) {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return view.Dashboard{}, err
	}
	return view.Build(snap, s.now()), nil
}

// nextID is the creation time in milliseconds, bumped past last so ids stay
// unique and increasing even within one millisecond.
func nextID(now time.Time, last int64) int64 {
	id := now.UnixMilli()
	if id <= last {
		id = last + 1
	}
	return id
}

func maxThoughtID(thoughts []models.Thought) int64 {
	var highest int64
	for _, t := range thoughts {
		if t.ID > highest {
			highest = t.ID
		}
	}
	return highest
}

func maxReminderID(reminders []models.Reminder) int64 {
	var highest int64
	for _, r := range reminders {
		if r.ID > highest {
			highest = r.ID
		}
	}
	return highest
}
