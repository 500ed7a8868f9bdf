package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/microhabit/internal/errors"
	"github.com/julianstephens/microhabit/internal/service"
	"github.com/julianstephens/microhabit/internal/storage"
	"github.com/julianstephens/microhabit/internal/storage/memory"
	"github.com/julianstephens/microhabit/internal/tui/components/habitlist"
)

var testNow = time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)

func newTestModel(t *testing.T) (Model, *service.Service) {
	t.Helper()
	svc := service.New(storage.New(memory.NewStore()),
		service.WithClock(func() time.Time { return testNow }))
	return NewModel(context.Background(), svc, nil), svc
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return nm, cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewModelLoadsDashboard(t *testing.T) {
	m, _ := newTestModel(t)

	if m.err != nil {
		t.Fatalf("unexpected error: %v", m.err)
	}
	if len(m.dash.Habits) != 5 {
		t.Errorf("expected 5 default habits, got %d", len(m.dash.Habits))
	}
	if got := m.viewSummary(); !strings.Contains(got, "0/5 done today") {
		t.Errorf("summary = %q", got)
	}
	if m.state != StateHabits {
		t.Errorf("initial state = %v, want StateHabits", m.state)
	}
}

func TestTabSwitching(t *testing.T) {
	m, _ := newTestModel(t)

	want := []SessionState{StateThoughts, StateReminders, StateCalendar, StateHabits}
	for _, w := range want {
		m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
		if m.state != w {
			t.Fatalf("after tab state = %v, want %v", m.state, w)
		}
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.state != StateCalendar {
		t.Errorf("after shift+tab state = %v, want StateCalendar", m.state)
	}
}

func TestToggleHabit(t *testing.T) {
	m, svc := newTestModel(t)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if cmd == nil {
		t.Fatal("expected a toggle command")
	}
	msg := cmd()
	toggle, ok := msg.(habitlist.ToggleHabitMsg)
	if !ok {
		t.Fatalf("cmd produced %T, want ToggleHabitMsg", msg)
	}
	if toggle.Name != "Floss" || !toggle.Done {
		t.Errorf("toggle = %+v, want Floss done", toggle)
	}

	m, _ = update(t, m, msg)
	if m.dash.TodayCount != 1 || !m.dash.Habits[0].Done {
		t.Errorf("dashboard not re-derived after toggle: %+v", m.dash.Habits[0])
	}

	snap, err := svc.Snapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !snap.Completions.Has("2024-01-02", "Floss") {
		t.Errorf("completion not persisted: %v", snap.Completions)
	}
}

func TestAddThought(t *testing.T) {
	m, _ := newTestModel(t)
	m.state = StateThoughts

	m, _ = update(t, m, runes("a"))
	if !m.thoughtInput.Focused() {
		t.Fatal("expected thought input to be focused")
	}

	m, _ = update(t, m, runes("slow morning"))
	// Keys that are bound elsewhere go to the input while it is focused.
	m, _ = update(t, m, runes("q"))
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.thoughtInput.Focused() {
		t.Error("expected input to blur after saving")
	}
	if len(m.dash.Thoughts) != 1 || m.dash.Thoughts[0].Text != "slow morningq" {
		t.Errorf("thoughts = %+v", m.dash.Thoughts)
	}
	if m.thoughtInput.Value() != "" {
		t.Errorf("input not cleared: %q", m.thoughtInput.Value())
	}
}

func TestAddEmptyThoughtShowsError(t *testing.T) {
	m, _ := newTestModel(t)
	m.state = StateThoughts

	m, _ = update(t, m, runes("a"))
	m, _ = update(t, m, runes("   "))
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if !errors.IsValidation(m.err) {
		t.Errorf("err = %v, want validation error", m.err)
	}
	if len(m.dash.Thoughts) != 0 {
		t.Errorf("thoughts = %+v, want none", m.dash.Thoughts)
	}
	if !strings.Contains(m.viewStatus(), "Error:") {
		t.Errorf("status = %q, want error line", m.viewStatus())
	}
}

func TestDeleteReminderRequiresConfirmation(t *testing.T) {
	m, svc := newTestModel(t)
	if _, _, err := svc.AddReminder(context.Background(), "Stretch", "14:30"); err != nil {
		t.Fatal(err)
	}
	m.refresh()
	m.state = StateReminders

	m, _ = update(t, m, runes("d"))
	if m.state != StateConfirmDelete {
		t.Fatalf("state = %v, want StateConfirmDelete", m.state)
	}
	m, _ = update(t, m, runes("n"))
	if m.state != StateReminders || len(m.dash.Reminders) != 1 {
		t.Fatalf("cancel should keep reminder: state=%v reminders=%d", m.state, len(m.dash.Reminders))
	}

	m, _ = update(t, m, runes("d"))
	m, _ = update(t, m, runes("y"))
	if m.state != StateReminders {
		t.Errorf("state = %v, want StateReminders", m.state)
	}
	if len(m.dash.Reminders) != 0 {
		t.Errorf("reminders = %+v, want none", m.dash.Reminders)
	}
	if !strings.Contains(m.status, "Stretch") {
		t.Errorf("status = %q", m.status)
	}
}

func TestSubmitReminderForm(t *testing.T) {
	m, _ := newTestModel(t)
	m.previousState = StateReminders
	m.state = StateAddReminder
	m.reminderForm = &ReminderFormModel{Text: " Stretch ", Time: "14:30"}

	m.submitReminderForm()

	if m.state != StateReminders {
		t.Errorf("state = %v, want StateReminders", m.state)
	}
	if len(m.dash.Reminders) != 1 || m.dash.Reminders[0].Text != "Stretch" {
		t.Fatalf("reminders = %+v", m.dash.Reminders)
	}
	if !strings.Contains(m.status, "14:30") || !strings.Contains(m.status, "from now") {
		t.Errorf("status = %q", m.status)
	}
}

func TestSubmitHabitFormDuplicate(t *testing.T) {
	m, _ := newTestModel(t)
	m.previousState = StateHabits
	m.state = StateAddHabit
	m.habitForm = &HabitFormModel{Name: "Floss"}

	m.submitHabitForm()

	if !errors.IsValidation(m.err) {
		t.Errorf("err = %v, want duplicate validation error", m.err)
	}
	if len(m.dash.Habits) != 5 {
		t.Errorf("habits = %d, want 5", len(m.dash.Habits))
	}
}

func TestStoreChangeRefreshes(t *testing.T) {
	m, svc := newTestModel(t)
	changes := make(chan storage.Change, 1)
	m.changes = changes

	// Another writer marks a habit behind the UI's back.
	if err := svc.ToggleCompletion(context.Background(), "Read", true); err != nil {
		t.Fatal(err)
	}
	if m.dash.TodayCount != 0 {
		t.Fatal("dashboard should not change before the change signal")
	}

	m, cmd := update(t, m, storeChangedMsg{})
	if m.dash.TodayCount != 1 {
		t.Errorf("TodayCount = %d, want 1", m.dash.TodayCount)
	}
	if cmd == nil {
		t.Fatal("expected the model to keep waiting for changes")
	}

	changes <- storage.Change{Path: "x"}
	if _, ok := cmd().(storeChangedMsg); !ok {
		t.Error("wait command should yield storeChangedMsg")
	}
}

func TestQuit(t *testing.T) {
	m, _ := newTestModel(t)
	m, cmd := update(t, m, runes("q"))
	if !m.quitting || cmd == nil {
		t.Fatal("expected quit")
	}
	if m.View() != "" {
		t.Error("view should be empty after quitting")
	}
}
