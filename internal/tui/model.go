package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/microhabit/internal/service"
	"github.com/julianstephens/microhabit/internal/storage"
	"github.com/julianstephens/microhabit/internal/tui/components/calendar"
	"github.com/julianstephens/microhabit/internal/tui/components/habitlist"
	"github.com/julianstephens/microhabit/internal/view"
)

type SessionState int

const (
	StateHabits SessionState = iota
	StateThoughts
	StateReminders
	StateCalendar
	StateAddHabit
	StateAddReminder
	StateConfirmDelete
)

const tabCount = 4

var tabTitles = []string{"Habits", "Thoughts", "Reminders", "Calendar"}

type HabitFormModel struct {
	Name string
}

type ReminderFormModel struct {
	Text string
	Time string
}

// pendingDelete is the item awaiting confirmation.
type pendingDelete struct {
	tab   SessionState
	name  string
	id    int64
	label string
}

type storeChangedMsg struct{}

type tickMsg time.Time

type Model struct {
	ctx            context.Context
	svc            *service.Service
	state          SessionState
	previousState  SessionState
	keys           KeyMap
	help           help.Model
	habitsModel    habitlist.Model
	calendarModel  calendar.Model
	thoughtInput   textinput.Model
	thoughtCursor  int
	reminderCursor int
	form           *huh.Form
	habitForm      *HabitFormModel
	reminderForm   *ReminderFormModel
	pending        *pendingDelete
	dash           view.Dashboard
	changes        <-chan storage.Change
	status         string
	err            error
	quitting       bool
	width          int
	height         int
}

// NewModel builds the UI and loads the first dashboard. changes may be nil
// when the store cannot be watched.
func NewModel(ctx context.Context, svc *service.Service, changes <-chan storage.Change) Model {
	ti := textinput.New()
	ti.Placeholder = "What's on your mind?"
	ti.CharLimit = 500
	ti.Prompt = "› "

	m := Model{
		ctx:           ctx,
		svc:           svc,
		state:         StateHabits,
		keys:          DefaultKeyMap(),
		help:          help.New(),
		habitsModel:   habitlist.New(nil, 0, 0),
		calendarModel: calendar.New(0, 0),
		thoughtInput:  ti,
		changes:       changes,
	}
	m.refresh()
	return m
}

// refresh re-derives every fragment from the stored state.
func (m *Model) refresh() {
	dash, err := m.svc.Dashboard(m.ctx)
	if err != nil {
		m.err = err
		return
	}
	m.dash = dash
	m.habitsModel.SetRows(dash.Habits)
	m.calendarModel.SetDays(dash.Calendar)
	m.thoughtCursor = clamp(m.thoughtCursor, len(dash.Thoughts))
	m.reminderCursor = clamp(m.reminderCursor, len(dash.Reminders))
}

// apply records the outcome of a mutation and re-renders.
func (m *Model) apply(err error, status string) {
	if err != nil {
		m.err = err
		m.status = ""
	} else {
		m.err = nil
		m.status = status
	}
	m.refresh()
}

func clamp(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func waitForChange(changes <-chan storage.Change) tea.Cmd {
	if changes == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return storeChangedMsg{}
	}
}

// tick re-derives once a minute so streaks and the calendar follow midnight.
func tick() tea.Cmd {
	return tea.Tick(time.Minute, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForChange(m.changes), tick())
}

func (m Model) ShortHelp() []key.Binding {
	keys := []key.Binding{m.keys.Tab, m.keys.Quit, m.keys.Help}
	switch m.state {
	case StateHabits:
		hk := m.habitsModel.Keys()
		keys = append(keys, hk.Add, hk.Toggle, hk.Delete)
	case StateThoughts:
		if m.thoughtInput.Focused() {
			return []key.Binding{m.keys.Submit, m.keys.Cancel}
		}
		keys = append(keys, m.keys.Add, m.keys.Delete)
	case StateReminders:
		keys = append(keys, m.keys.Add, m.keys.Delete)
	}
	return keys
}

func (m Model) FullHelp() [][]key.Binding {
	global := []key.Binding{m.keys.Tab, m.keys.ShiftTab, m.keys.Quit, m.keys.Help, m.keys.Refresh}
	navigation := []key.Binding{m.keys.Up, m.keys.Down}

	var actions []key.Binding
	switch m.state {
	case StateHabits:
		hk := m.habitsModel.Keys()
		actions = []key.Binding{hk.Add, hk.Toggle, hk.Delete}
	case StateThoughts:
		actions = []key.Binding{m.keys.Add, m.keys.Submit, m.keys.Cancel, m.keys.Delete}
	case StateReminders:
		actions = []key.Binding{m.keys.Add, m.keys.Delete}
	}
	return [][]key.Binding{global, navigation, actions}
}
