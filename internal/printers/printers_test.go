package printers

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/julianstephens/microhabit/internal/models"
	"github.com/julianstephens/microhabit/internal/view"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func TestHabits(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, "")
	err := p.Habits([]view.HabitRow{
		{Name: "Floss", Done: true, Streak: 3},
		{Name: "Read", Done: false, Streak: 1},
		{Name: "Meditate"},
	})
	if err != nil {
		t.Fatalf("Habits() error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Habits - 3 habits", "[x]  Floss", "3 days streak", "[ ]  Read", "1 day streak", "Meditate"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestEmptyList(t *testing.T) {
	var buf bytes.Buffer
	if err := New(&buf, OutputTable).Thoughts(nil, time.Now()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "none") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestThoughtsJSON(t *testing.T) {
	var buf bytes.Buffer
	thoughts := []models.Thought{{ID: 2, Text: "b"}, {ID: 1, Text: "a"}}
	if err := New(&buf, OutputJSON).Thoughts(thoughts, time.Now()); err != nil {
		t.Fatal(err)
	}
	var got []models.Thought
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(got) != 2 || got[0].Text != "b" {
		t.Errorf("got %+v", got)
	}
}

func TestThoughtAge(t *testing.T) {
	now := time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)
	th := models.Thought{ID: now.Add(-3 * time.Hour).UnixMilli(), Timestamp: "Jan 2, 2024 9:00 AM"}
	if got := thoughtAge(th, now); got != "3 hours ago" {
		t.Errorf("thoughtAge() = %q", got)
	}
	if got := thoughtAge(models.Thought{Timestamp: "legacy"}, now); got != "legacy" {
		t.Errorf("thoughtAge() without id = %q", got)
	}
}

func TestNextIn(t *testing.T) {
	now := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		hhmm string
		want string
	}{
		{"14:30", "5 hours from now"},
		{"08:00", "23 hours from now"},
		{"nope", "invalid time"},
	}
	for _, tt := range tests {
		if got := NextIn(tt.hhmm, now); got != tt.want {
			t.Errorf("NextIn(%q) = %q, want %q", tt.hhmm, got, tt.want)
		}
	}
}

func TestReminders(t *testing.T) {
	var buf bytes.Buffer
	now := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	err := New(&buf, "").Reminders([]models.Reminder{{ID: 17, Text: "Stretch", Time: "14:30"}}, now)
	if err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Reminders - 1 reminder", "17", "14:30", "Stretch", "5 hours from now"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestToday(t *testing.T) {
	var buf bytes.Buffer
	d := view.Dashboard{Today: "2024-01-02", TodayCount: 1, TotalHabits: 2, BestStreak: 4}
	if err := New(&buf, "").Today(d); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "1/2 done today   4 best streak") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestCalendar(t *testing.T) {
	var buf bytes.Buffer
	days := view.Calendar([]models.Habit{"Floss"}, models.CompletionLog{}, time.Date(2024, 1, 31, 9, 0, 0, 0, time.UTC))
	if err := New(&buf, "").Calendar(days); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	// header + 5 weeks + rule
	if len(lines) != 7 {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}
	if lines[1] != "31  1  2  3  4  5  6" {
		t.Errorf("first week = %q", lines[1])
	}
}
