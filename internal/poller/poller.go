// Package poller runs the periodic background checks: day rollover
// bookkeeping and due reminders.
package poller

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/julianstephens/microhabit/internal/constants"
	"github.com/julianstephens/microhabit/internal/logger"
	"github.com/julianstephens/microhabit/internal/models"
	"github.com/julianstephens/microhabit/internal/notifier"
	"github.com/julianstephens/microhabit/internal/storage"
	"github.com/julianstephens/microhabit/internal/tracker"
)

// Mode selects how reminder times are matched against the poll time.
type Mode string

const (
	// ModeStrict fires a reminder only on a poll during its exact minute.
	ModeStrict Mode = "strict"
	// ModeCatchUp fires a reminder on the first poll at or after its minute,
	// so a reminder between two polls is never skipped.
	ModeCatchUp Mode = "catch-up"
)

const DefaultInterval = time.Minute

// ParseMode validates a configured mode name; empty means strict.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeStrict:
		return ModeStrict, nil
	case ModeCatchUp:
		return ModeCatchUp, nil
	default:
		return "", fmt.Errorf("unknown poll mode %q (expected %s or %s)", s, ModeStrict, ModeCatchUp)
	}
}

type Config struct {
	Interval time.Duration
	Mode     Mode
	// NotifyNewDay sends the "new day" notification on rollover.
	NotifyNewDay bool
	// DryRun reports what would happen without persisting the rollover date.
	DryRun bool
}

// Result describes what one tick did.
type Result struct {
	Today  string
	NewDay bool
	Due    []models.Reminder
	Errors []error
}

type Poller struct {
	store    *storage.Store
	notifier notifier.Notifier
	cfg      Config
	now      func() time.Time
	cron     *cron.Cron
}

func New(store *storage.Store, n notifier.Notifier, cfg Config, now func() time.Time) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeStrict
	}
	if now == nil {
		now = time.Now
	}
	return &Poller{
		store:    store,
		notifier: n,
		cfg:      cfg,
		now:      now,
	}
}

// Window is the span of clock minutes a single tick is responsible for.
func (p *Poller) Window() time.Duration {
	if p.cfg.Mode == ModeCatchUp {
		return p.cfg.Interval
	}
	return time.Minute
}

var errSameDay = stderrors.New("same day")

// Tick runs both checks once for now. Failures are logged and collected in
// the result; the next tick retries from a fresh read.
func (p *Poller) Tick(ctx context.Context, now time.Time) Result {
	res := Result{Today: tracker.TodayKey(now)}

	newDay, err := p.checkRollover(ctx, res.Today)
	if err != nil {
		logger.Warn("day rollover check failed", "error", err)
		res.Errors = append(res.Errors, err)
	}
	res.NewDay = newDay
	if newDay && p.cfg.NotifyNewDay {
		n := notifier.Notification{Title: constants.NewDayTitle, Message: constants.NewDayMessage}
		if err := p.notifier.Notify(ctx, n); err != nil {
			logger.Warn("failed to send new day notification", "error", err)
			res.Errors = append(res.Errors, err)
		}
	}

	due, err := p.dueReminders(ctx, now)
	if err != nil {
		logger.Warn("reminder check failed", "error", err)
		res.Errors = append(res.Errors, err)
	}
	res.Due = due
	for _, r := range due {
		n := notifier.Notification{Title: constants.ReminderTitle, Message: r.Text}
		if err := p.notifier.Notify(ctx, n); err != nil {
			logger.Warn("failed to send reminder", "id", r.ID, "error", err)
			res.Errors = append(res.Errors, err)
		}
	}

	logger.Debug("poll tick", "today", res.Today, "new_day", res.NewDay, "due", len(res.Due))
	return res
}

// checkRollover records today as the last reset date and reports whether it
// changed. Running it again on the same day is a no-op.
func (p *Poller) checkRollover(ctx context.Context, today string) (bool, error) {
	if p.cfg.DryRun {
		snap, err := p.store.Load(ctx, constants.KeyLastResetDate)
		if err != nil {
			return false, err
		}
		return snap.LastResetDate != today, nil
	}

	err := p.store.Update(ctx, []string{constants.KeyLastResetDate}, func(snap *storage.Snapshot) error {
		if snap.LastResetDate == today {
			return errSameDay
		}
		snap.LastResetDate = today
		return nil
	})
	if stderrors.Is(err, errSameDay) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	logger.Info("new day", "date", today)
	return true, nil
}

func (p *Poller) dueReminders(ctx context.Context, now time.Time) ([]models.Reminder, error) {
	snap, err := p.store.Load(ctx, constants.KeyReminders)
	if err != nil {
		return nil, err
	}

	window := p.Window()
	var due []models.Reminder
	for _, r := range snap.Reminders {
		ok, err := tracker.DueWithin(r.Time, now, window)
		if err != nil {
			logger.Warn("skipping reminder with invalid time", "id", r.ID, "time", r.Time)
			continue
		}
		if ok {
			due = append(due, r)
		}
	}
	return due, nil
}

// Start runs a tick immediately and then on every interval until ctx is
// cancelled.
func (p *Poller) Start(ctx context.Context) error {
	if p.cron != nil {
		return fmt.Errorf("poller already started")
	}

	cl := cronLogger{}
	p.cron = cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	schedule := fmt.Sprintf("@every %s", p.cfg.Interval)
	if _, err := p.cron.AddFunc(schedule, func() { p.tickNow(ctx) }); err != nil {
		return fmt.Errorf("invalid poll interval %s: %w", p.cfg.Interval, err)
	}

	p.tickNow(ctx)
	p.cron.Start()
	logger.Info("poller started", "interval", p.cfg.Interval, "mode", p.cfg.Mode)

	go func() {
		<-ctx.Done()
		p.Stop(context.Background())
	}()
	return nil
}

func (p *Poller) tickNow(ctx context.Context) {
	tickCtx, cancel := context.WithTimeout(ctx, p.cfg.Interval)
	defer cancel()
	p.Tick(tickCtx, p.now())
}

// Stop halts the schedule and waits for a running tick or ctx.
func (p *Poller) Stop(ctx context.Context) {
	if p == nil || p.cron == nil {
		return
	}
	stopCtx := p.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	logger.Debug("poller stopped")
}

// cronLogger routes cron's internal logging through the application logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
