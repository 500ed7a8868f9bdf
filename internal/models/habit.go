package models

import (
	"strings"

	"github.com/julianstephens/microhabit/internal/constants"
	"github.com/julianstephens/microhabit/internal/errors"
)

// Habit is identified by its display name; there is no separate id.
type Habit = string

// DefaultHabits returns a fresh copy of the built-in habit list.
func DefaultHabits() []Habit {
	return append([]Habit(nil), constants.DefaultHabits...)
}

// NormalizeHabitName trims the name and rejects empty input.
func NormalizeHabitName(name string) (Habit, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.Invalid("habit", "", errors.ErrEmptyInput)
	}
	return name, nil
}

// ContainsHabit reports whether name is already in habits.
func ContainsHabit(habits []Habit, name string) bool {
	for _, h := range habits {
		if h == name {
			return true
		}
	}
	return false
}

// NormalizeHabits drops blank and repeated names while keeping order.
func NormalizeHabits(habits []Habit) []Habit {
	out := make([]Habit, 0, len(habits))
	seen := make(map[string]struct{}, len(habits))
	for _, h := range habits {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	return out
}
