package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/microhabit/internal/errors"
	"github.com/julianstephens/microhabit/internal/printers"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string

	switch m.state {
	case StateHabits:
		content = docStyle.Render(m.habitsModel.View())
	case StateThoughts:
		content = docStyle.Render(m.viewThoughts())
	case StateReminders:
		content = docStyle.Render(m.viewReminders())
	case StateCalendar:
		content = docStyle.Render(m.calendarModel.View())
	case StateAddHabit, StateAddReminder:
		content = docStyle.Render(m.form.View())
	case StateConfirmDelete:
		content = m.viewConfirmDelete()
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewTabs(),
		m.viewSummary(),
		content,
		m.viewStatus(),
		m.help.View(m),
	)
}

func (m Model) viewTabs() string {
	active := m.state
	if active >= tabCount {
		active = m.previousState
	}
	var tabs []string
	for i, title := range tabTitles {
		if active == SessionState(i) {
			tabs = append(tabs, activeTabStyle.Render(title))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) viewSummary() string {
	return summaryStyle.Render(fmt.Sprintf("%d/%d done today   %d best streak",
		m.dash.TodayCount, m.dash.TotalHabits, m.dash.BestStreak))
}

func (m Model) viewStatus() string {
	if m.err != nil {
		return dangerStyle.Render(errors.Format(m.err))
	}
	if m.status != "" {
		return statusStyle.Render(m.status)
	}
	return ""
}

func (m Model) viewThoughts() string {
	var b strings.Builder
	if m.thoughtInput.Focused() {
		b.WriteString(m.thoughtInput.View())
	} else {
		b.WriteString(mutedStyle.Render("Press 'a' to write a thought."))
	}
	b.WriteString("\n\n")

	if len(m.dash.Thoughts) == 0 {
		b.WriteString(mutedStyle.Render("No thoughts yet."))
		return b.String()
	}
	for i, t := range m.dash.Thoughts {
		line := fmt.Sprintf("%s  %s", mutedStyle.Render(t.Timestamp), t.Text)
		if i == m.thoughtCursor && !m.thoughtInput.Focused() {
			line = selectedStyle.Render("> ") + line
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (m Model) viewReminders() string {
	if len(m.dash.Reminders) == 0 {
		return "\n  No reminders yet.\n  Press 'a' to add one."
	}

	now := m.svc.Now()
	var b strings.Builder
	for i, r := range m.dash.Reminders {
		line := fmt.Sprintf("%s  %s  %s", r.Time, r.Text, mutedStyle.Render(printers.NextIn(r.Time, now)))
		if i == m.reminderCursor {
			line = selectedStyle.Render("> ") + line
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n" + mutedStyle.Render("Reminders only fire while a microhabit session or the daemon is running."))
	return b.String()
}

func (m Model) viewConfirmDelete() string {
	label := "this item"
	if m.pending != nil {
		label = m.pending.label
	}
	return lipgloss.Place(m.width, max(m.height-6, 5),
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center,
			dangerStyle.Render(fmt.Sprintf("Are you sure you want to delete %s?", label)),
			"",
			"[y] Yes",
			"[n] No",
		),
	)
}
