package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/microhabit/internal/printers"
	"github.com/julianstephens/microhabit/internal/tui/components/habitlist"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		// tabs, summary, status and help take roughly six lines
		h, v := docStyle.GetFrameSize()
		m.habitsModel.SetSize(msg.Width-h, msg.Height-v-6)
		m.calendarModel.SetSize(msg.Width-h, msg.Height-v-6)
		m.thoughtInput.Width = msg.Width - h - 4
		return m, nil

	case storeChangedMsg:
		m.refresh()
		return m, waitForChange(m.changes)

	case tickMsg:
		m.refresh()
		return m, tick()
	}

	switch m.state {
	case StateAddHabit:
		return m.updateHabitForm(msg)
	case StateAddReminder:
		return m.updateReminderForm(msg)
	case StateConfirmDelete:
		return m.updateConfirmDelete(msg)
	}

	if m.state == StateThoughts && m.thoughtInput.Focused() {
		return m.updateThoughtInput(msg)
	}

	switch msg := msg.(type) {
	case habitlist.AddHabitMsg:
		m.habitForm = &HabitFormModel{}
		names := make([]string, 0, len(m.dash.Habits))
		for _, row := range m.dash.Habits {
			names = append(names, row.Name)
		}
		m.form = NewHabitForm(m.habitForm, names)
		m.previousState = m.state
		m.state = StateAddHabit
		return m, m.form.Init()

	case habitlist.ToggleHabitMsg:
		status := fmt.Sprintf("%s marked as not done", msg.Name)
		if msg.Done {
			status = fmt.Sprintf("%s done for today", msg.Name)
		}
		m.apply(m.svc.ToggleCompletion(m.ctx, msg.Name, msg.Done), status)
		return m, nil

	case habitlist.DeleteHabitMsg:
		m.confirm(pendingDelete{tab: StateHabits, name: msg.Name, label: fmt.Sprintf("habit %q", msg.Name)})
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Tab):
			m.state = (m.state + 1) % tabCount
			return m, nil
		case key.Matches(msg, m.keys.ShiftTab):
			m.state = (m.state - 1 + tabCount) % tabCount
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.Refresh):
			m.status = ""
			m.err = nil
			m.refresh()
			return m, nil
		}
		return m.updateTab(msg)
	}

	return m, nil
}

func (m Model) updateTab(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.state {
	case StateHabits:
		m.habitsModel, cmd = m.habitsModel.Update(msg)

	case StateThoughts:
		switch {
		case key.Matches(msg, m.keys.Add), key.Matches(msg, m.keys.Submit):
			m.status = ""
			cmd = m.thoughtInput.Focus()
		case key.Matches(msg, m.keys.Up):
			m.thoughtCursor = clamp(m.thoughtCursor-1, len(m.dash.Thoughts))
		case key.Matches(msg, m.keys.Down):
			m.thoughtCursor = clamp(m.thoughtCursor+1, len(m.dash.Thoughts))
		case key.Matches(msg, m.keys.Delete):
			if len(m.dash.Thoughts) > 0 {
				t := m.dash.Thoughts[m.thoughtCursor]
				m.confirm(pendingDelete{tab: StateThoughts, id: t.ID, label: "this thought"})
			}
		}

	case StateReminders:
		switch {
		case key.Matches(msg, m.keys.Add):
			m.reminderForm = &ReminderFormModel{}
			m.form = NewReminderForm(m.reminderForm)
			m.previousState = m.state
			m.state = StateAddReminder
			cmd = m.form.Init()
		case key.Matches(msg, m.keys.Up):
			m.reminderCursor = clamp(m.reminderCursor-1, len(m.dash.Reminders))
		case key.Matches(msg, m.keys.Down):
			m.reminderCursor = clamp(m.reminderCursor+1, len(m.dash.Reminders))
		case key.Matches(msg, m.keys.Delete):
			if len(m.dash.Reminders) > 0 {
				r := m.dash.Reminders[m.reminderCursor]
				m.confirm(pendingDelete{tab: StateReminders, id: r.ID, label: fmt.Sprintf("reminder %q", r.Text)})
			}
		}

	case StateCalendar:
		m.calendarModel, cmd = m.calendarModel.Update(msg)
	}
	return m, cmd
}

func (m Model) updateThoughtInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Cancel):
			m.thoughtInput.Blur()
			return m, nil
		case key.Matches(msg, m.keys.Submit):
			_, err := m.svc.AddThought(m.ctx, m.thoughtInput.Value())
			m.apply(err, "Thought saved")
			if err == nil {
				m.thoughtInput.Reset()
				m.thoughtInput.Blur()
				m.thoughtCursor = 0
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.thoughtInput, cmd = m.thoughtInput.Update(msg)
	return m, cmd
}

func (m Model) updateHabitForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		m.state = m.previousState
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.submitHabitForm()
	case huh.StateAborted:
		m.state = m.previousState
	}
	return m, cmd
}

func (m *Model) submitHabitForm() {
	h, err := m.svc.AddHabit(m.ctx, m.habitForm.Name)
	m.apply(err, fmt.Sprintf("Added habit %q", h))
	m.state = m.previousState
}

func (m Model) updateReminderForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		m.state = m.previousState
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.submitReminderForm()
	case huh.StateAborted:
		m.state = m.previousState
	}
	return m, cmd
}

func (m *Model) submitReminderForm() {
	r, _, err := m.svc.AddReminder(m.ctx, m.reminderForm.Text, m.reminderForm.Time)
	status := ""
	if err == nil {
		status = fmt.Sprintf("Reminder set for %s (%s)", r.Time, printers.NextIn(r.Time, m.svc.Now()))
	}
	m.apply(err, status)
	m.state = m.previousState
}

func (m *Model) confirm(p pendingDelete) {
	m.pending = &p
	m.previousState = m.state
	m.state = StateConfirmDelete
}

func (m Model) updateConfirmDelete(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "y", "Y":
		p := m.pending
		var err error
		switch p.tab {
		case StateHabits:
			err = m.svc.DeleteHabit(m.ctx, p.name)
		case StateThoughts:
			err = m.svc.DeleteThought(m.ctx, p.id)
		case StateReminders:
			err = m.svc.DeleteReminder(m.ctx, p.id)
		}
		m.pending = nil
		m.state = m.previousState
		m.apply(err, "Deleted "+p.label)
	case "n", "N", "esc", "q":
		m.pending = nil
		m.state = m.previousState
	}
	return m, nil
}
