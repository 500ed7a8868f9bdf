package habitlist

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/microhabit/internal/view"
)

type AddHabitMsg struct{}

type ToggleHabitMsg struct {
	Name string
	Done bool
}

type DeleteHabitMsg struct {
	Name string
}

type Item struct {
	Row view.HabitRow
}

func (i Item) Title() string {
	if i.Row.Done {
		return "✓ " + i.Row.Name
	}
	return "○ " + i.Row.Name
}

func (i Item) Description() string {
	status := "not completed today"
	if i.Row.Done {
		status = "completed today"
	}
	switch i.Row.Streak {
	case 0:
		return status
	case 1:
		return status + " | 1 day streak"
	default:
		return fmt.Sprintf("%s | %d days streak", status, i.Row.Streak)
	}
}

func (i Item) FilterValue() string { return i.Row.Name }

type KeyMap struct {
	Add    key.Binding
	Toggle key.Binding
	Delete key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "x", "enter"),
			key.WithHelp("space", "toggle done"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
	}
}

type Model struct {
	list list.Model
	keys KeyMap
}

func New(rows []view.HabitRow, width, height int) Model {
	l := list.New(toItems(rows), list.NewDefaultDelegate(), width, height)
	l.Title = "Habits"
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	keys := DefaultKeyMap()
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Add, keys.Toggle, keys.Delete}
	}
	l.AdditionalFullHelpKeys = l.AdditionalShortHelpKeys

	return Model{list: l, keys: keys}
}

func toItems(rows []view.HabitRow) []list.Item {
	items := make([]list.Item, len(rows))
	for i, r := range rows {
		items[i] = Item{Row: r}
	}
	return items
}

// SetRows replaces the rows while keeping the cursor in range.
func (m *Model) SetRows(rows []view.HabitRow) {
	m.list.SetItems(toItems(rows))
	if idx := m.list.Index(); idx >= len(rows) && len(rows) > 0 {
		m.list.Select(len(rows) - 1)
	}
}

// Selected returns the highlighted row.
func (m Model) Selected() (view.HabitRow, bool) {
	i, ok := m.list.SelectedItem().(Item)
	return i.Row, ok
}

func (m Model) Keys() KeyMap {
	return m.keys
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Add):
			return m, func() tea.Msg { return AddHabitMsg{} }
		case key.Matches(msg, m.keys.Toggle):
			if row, ok := m.Selected(); ok {
				return m, func() tea.Msg { return ToggleHabitMsg{Name: row.Name, Done: !row.Done} }
			}
			return m, nil
		case key.Matches(msg, m.keys.Delete):
			if row, ok := m.Selected(); ok {
				return m, func() tea.Msg { return DeleteHabitMsg{Name: row.Name} }
			}
			return m, nil
		}
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return "\n  No habits yet.\n  Press 'a' to add one."
	}
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}
