package calendar

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/microhabit/internal/view"
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Bold(true)

	noneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	partialStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("108"))

	activeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("42")).
			Bold(true)

	legendStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

const cellWidth = 4

type Model struct {
	viewport viewport.Model
	days     []view.CalendarDay
}

func New(width, height int) Model {
	return Model{viewport: viewport.New(width, height)}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.days) == 0 {
		return "No history yet."
	}
	return m.viewport.View()
}

func (m *Model) SetSize(width, height int) {
	m.viewport.Width = width
	m.viewport.Height = height
	m.viewport.SetContent(Render(m.days))
}

func (m *Model) SetDays(days []view.CalendarDay) {
	m.days = days
	m.viewport.SetContent(Render(days))
}

func styleFor(level view.Level) lipgloss.Style {
	switch level {
	case view.LevelActive:
		return activeStyle
	case view.LevelPartial:
		return partialStyle
	default:
		return noneStyle
	}
}

// Render draws days as a week-per-row grid starting on Sunday.
func Render(days []view.CalendarDay) string {
	var b strings.Builder

	var header []string
	for _, d := range []string{"S", "M", "T", "W", "T", "F", "S"} {
		header = append(header, headerStyle.Render(fmt.Sprintf("%*s", cellWidth-1, d)+" "))
	}
	b.WriteString(strings.Join(header, ""))
	b.WriteString("\n")

	for i, day := range days {
		label := fmt.Sprintf("%*d", cellWidth-1, day.Day)
		style := styleFor(day.Level)
		if day.Today {
			style = style.Underline(true)
		}
		b.WriteString(style.Render(label))
		b.WriteString(" ")
		if (i+1)%7 == 0 {
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(legendStyle.Render("none ") + noneStyle.Render(" ·· "))
	b.WriteString(legendStyle.Render("  partial ") + partialStyle.Render(" ·· "))
	b.WriteString(legendStyle.Render("  all done ") + activeStyle.Render(" ·· "))
	b.WriteString("\n")

	for _, day := range days {
		if day.Today {
			b.WriteString("\n" + legendStyle.Render(day.Title))
		}
	}
	return b.String()
}
