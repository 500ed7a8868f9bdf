// Package view derives everything the CLI and TUI display from a store
// snapshot. The functions are pure; callers re-derive after every change.
package view

import (
	"fmt"
	"time"

	"github.com/julianstephens/microhabit/internal/constants"
	"github.com/julianstephens/microhabit/internal/models"
	"github.com/julianstephens/microhabit/internal/storage"
	"github.com/julianstephens/microhabit/internal/tracker"
)

// Level is the shade of a calendar cell.
type Level string

const (
	LevelNone    Level = "none"
	LevelPartial Level = "partial"
	LevelActive  Level = "active"
)

type HabitRow struct {
	Name   string
	Done   bool
	Streak int
}

type CalendarDay struct {
	Date      string
	Day       int
	Weekday   time.Weekday
	Today     bool
	Completed int
	Total     int
	Level     Level
	Title     string
}

type Dashboard struct {
	Today       string
	TodayCount  int
	TotalHabits int
	BestStreak  int
	Habits      []HabitRow
	Thoughts    []models.Thought
	Reminders   []models.Reminder
	Calendar    []CalendarDay
}

// Build derives the dashboard for now from snap.
func Build(snap storage.Snapshot, now time.Time) Dashboard {
	today := tracker.TodayKey(now)

	d := Dashboard{
		Today:       today,
		TodayCount:  tracker.TodayCount(snap.Completions, today),
		TotalHabits: len(snap.Habits),
		BestStreak:  tracker.BestStreak(snap.Habits, snap.Completions, now),
		Habits:      HabitRows(snap.Habits, snap.Completions, now),
		Thoughts:    models.RecentThoughts(snap.Thoughts, constants.ThoughtDisplayMax),
		Reminders:   snap.Reminders,
		Calendar:    Calendar(snap.Habits, snap.Completions, now),
	}
	return d
}

// HabitRows pairs every habit with today's state and its streak.
func HabitRows(habits []models.Habit, log models.CompletionLog, now time.Time) []HabitRow {
	today := tracker.TodayKey(now)
	rows := make([]HabitRow, 0, len(habits))
	for _, h := range habits {
		rows = append(rows, HabitRow{
			Name:   h,
			Done:   log.Has(today, h),
			Streak: tracker.Streak(h, log, now),
		})
	}
	return rows
}

// Calendar shades the five week grid ending with the current week.
func Calendar(habits []models.Habit, log models.CompletionLog, now time.Time) []CalendarDay {
	today := tracker.TodayKey(now)
	window := tracker.CalendarWindow(now)

	days := make([]CalendarDay, 0, len(window))
	for _, t := range window {
		key := tracker.DateKey(t)
		completed, total := tracker.DayCompletionRatio(key, habits, log)
		days = append(days, CalendarDay{
			Date:      key,
			Day:       t.Day(),
			Weekday:   t.Weekday(),
			Today:     key == today,
			Completed: completed,
			Total:     total,
			Level:     levelFor(completed, total),
			Title:     fmt.Sprintf("%s: %d/%d habits", key, completed, total),
		})
	}
	return days
}

func levelFor(completed, total int) Level {
	switch {
	case total > 0 && completed == total:
		return LevelActive
	case completed > 0:
		return LevelPartial
	default:
		return LevelNone
	}
}
