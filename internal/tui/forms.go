package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/microhabit/internal/models"
	"github.com/julianstephens/microhabit/internal/utils"
)

// NewHabitForm creates the add habit form. existing is checked so duplicates
// are rejected before anything is written.
func NewHabitForm(fm *HabitFormModel, existing []string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Habit Name").
				Value(&fm.Name).
				Validate(func(s string) error {
					name, err := models.NormalizeHabitName(s)
					if err != nil {
						return err
					}
					if models.ContainsHabit(existing, name) {
						return fmt.Errorf("habit %q already exists", name)
					}
					return nil
				}),
		),
	).WithTheme(huh.ThemeDracula())
}

// NewReminderForm creates the add reminder form.
func NewReminderForm(fm *ReminderFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Reminder").
				Value(&fm.Text).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("reminder text cannot be empty")
					}
					return nil
				}),
			huh.NewInput().
				Title("Time (HH:MM)").
				Placeholder("14:30").
				Value(&fm.Time).
				Validate(func(s string) error {
					if !utils.ValidateTimeFormat(strings.TrimSpace(s)) {
						return fmt.Errorf("time must be HH:MM")
					}
					return nil
				}),
		),
	).WithTheme(huh.ThemeDracula())
}
