// Package tracker holds the pure date and streak arithmetic behind the habit
// views. Nothing here touches the store.
package tracker

import (
	"fmt"
	"time"

	"github.com/julianstephens/microhabit/internal/constants"
	"github.com/julianstephens/microhabit/internal/models"
	"github.com/julianstephens/microhabit/internal/utils"
)

// DateKey formats t as a zero-padded YYYY-MM-DD in t's own location.
func DateKey(t time.Time) string {
	return t.Format(constants.DateFormat)
}

// TodayKey is the date key of now.
func TodayKey(now time.Time) string {
	return DateKey(now)
}

// midnight returns the start of t's calendar day. Day arithmetic goes through
// time.Date so DST transitions never skip or repeat a day.
func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func addDays(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+n, 0, 0, 0, 0, t.Location())
}

// Streak counts consecutive days ending today on which habit was completed.
// A gap today yields 0 regardless of earlier history.
func Streak(habit models.Habit, log models.CompletionLog, today time.Time) int {
	day := midnight(today)
	streak := 0
	for streak < constants.StreakMaxDays {
		if !log.Has(DateKey(day), habit) {
			break
		}
		streak++
		day = addDays(day, -1)
	}
	return streak
}

// BestStreak is the longest current streak among habits.
func BestStreak(habits []models.Habit, log models.CompletionLog, today time.Time) int {
	best := 0
	for _, h := range habits {
		if s := Streak(h, log, today); s > best {
			best = s
		}
	}
	return best
}

// DayCompletionRatio returns the number of completions stored for day and the
// number of current habits. Completions of habits that were since deleted
// still count.
func DayCompletionRatio(day string, habits []models.Habit, log models.CompletionLog) (completed, total int) {
	return log.Count(day), len(habits)
}

// TodayCount is the number of completions recorded for today.
func TodayCount(log models.CompletionLog, today string) int {
	return log.Count(today)
}

// ToggleCompletion marks habit done or not done on today. It is idempotent and
// creates the day's entry on first write. The returned log is log itself, or
// a new one if log was nil.
func ToggleCompletion(habit models.Habit, done bool, log models.CompletionLog, today string) models.CompletionLog {
	if log == nil {
		log = models.CompletionLog{}
	}
	day, ok := log[today]
	if !ok {
		day = []models.Habit{}
	}

	if done {
		if !log.Has(today, habit) {
			day = append(day, habit)
		}
	} else {
		kept := day[:0:0]
		for _, h := range day {
			if h != habit {
				kept = append(kept, h)
			}
		}
		day = kept
	}
	log[today] = day
	return log
}

// NextOccurrence returns the next time the wall clock reads hhmm: today if
// that moment has not passed yet, otherwise tomorrow.
func NextOccurrence(now time.Time, hhmm string) (time.Time, time.Duration, error) {
	minutes, err := utils.ParseTimeToMinutes(hhmm)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("invalid time %q: %w", hhmm, err)
	}

	y, m, d := now.Date()
	next := time.Date(y, m, d, minutes/60, minutes%60, 0, 0, now.Location())
	if next.Before(now) {
		next = time.Date(y, m, d+1, minutes/60, minutes%60, 0, 0, now.Location())
	}
	return next, next.Sub(now), nil
}

// CalendarWindow returns the days shown in the calendar grid: five full weeks
// starting on the Sunday of the week that contains today minus 27 days.
func CalendarWindow(today time.Time) []time.Time {
	start := addDays(today, -constants.CalendarLookback)
	start = addDays(start, -int(start.Weekday()))

	days := make([]time.Time, constants.CalendarDays)
	for i := range days {
		days[i] = addDays(start, i)
	}
	return days
}

// DueWithin reports whether a reminder set for hhmm falls inside the window
// ending at now's minute. A one-minute window is an exact minute match.
// Windows are measured on the clock face so they wrap past midnight.
func DueWithin(hhmm string, now time.Time, window time.Duration) (bool, error) {
	target, err := utils.ParseTimeToMinutes(hhmm)
	if err != nil {
		return false, fmt.Errorf("invalid time %q: %w", hhmm, err)
	}

	windowMinutes := int(window / time.Minute)
	if windowMinutes < 1 {
		windowMinutes = 1
	}
	if windowMinutes > 24*60 {
		windowMinutes = 24 * 60
	}

	current := now.Hour()*60 + now.Minute()
	diff := (current - target + 24*60) % (24 * 60)
	return diff < windowMinutes, nil
}
