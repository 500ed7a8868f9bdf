package models

import (
	stderrors "errors"
	"reflect"
	"testing"

	"github.com/julianstephens/microhabit/internal/errors"
)

func TestReminderValidate(t *testing.T) {
	tests := []struct {
		name     string
		r        Reminder
		wantTime string
		wantErr  error
	}{
		{"valid", Reminder{Text: "Stretch", Time: "14:30"}, "14:30", nil},
		{"trims", Reminder{Text: "  Stretch ", Time: " 08:00 "}, "08:00", nil},
		{"pads single digit hour", Reminder{Text: "Stretch", Time: "9:30"}, "09:30", nil},
		{"pads after trimming", Reminder{Text: "Stretch", Time: " 7:05"}, "07:05", nil},
		{"empty text", Reminder{Text: "   ", Time: "14:30"}, "", errors.ErrEmptyInput},
		{"empty time", Reminder{Text: "Stretch", Time: ""}, "", errors.ErrEmptyInput},
		{"bad time", Reminder{Text: "Stretch", Time: "25:61"}, "", errors.ErrInvalidTime},
		{"not a time", Reminder{Text: "Stretch", Time: "noon"}, "", errors.ErrInvalidTime},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.r.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if tt.r.Time != tt.wantTime {
					t.Errorf("Time = %q, want %q", tt.r.Time, tt.wantTime)
				}
				return
			}
			if !stderrors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestReminderValidateTrimsInPlace(t *testing.T) {
	r := Reminder{Text: "  Stretch ", Time: " 08:00 "}
	if err := r.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Text != "Stretch" || r.Time != "08:00" {
		t.Errorf("expected trimmed fields, got %q %q", r.Text, r.Time)
	}
}

func TestThoughtValidate(t *testing.T) {
	th := Thought{Text: "  keep going  "}
	if err := th.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if th.Text != "keep going" {
		t.Errorf("Text = %q, want trimmed", th.Text)
	}

	empty := Thought{Text: " \t "}
	if err := empty.Validate(); !stderrors.Is(err, errors.ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput, got %v", err)
	}
}

func TestRecentThoughts(t *testing.T) {
	var thoughts []Thought
	for i := 0; i < 12; i++ {
		thoughts = append(thoughts, Thought{ID: int64(100 - i)})
	}

	recent := RecentThoughts(thoughts, 10)
	if len(recent) != 10 {
		t.Fatalf("expected 10 thoughts, got %d", len(recent))
	}
	if recent[0].ID != 100 || recent[9].ID != 91 {
		t.Errorf("unexpected window: first=%d last=%d", recent[0].ID, recent[9].ID)
	}
	if len(thoughts) != 12 {
		t.Error("RecentThoughts must not shrink the full history")
	}
	if got := RecentThoughts(thoughts[:3], 10); len(got) != 3 {
		t.Errorf("expected short list unchanged, got %d", len(got))
	}
}

func TestNormalizeHabitName(t *testing.T) {
	name, err := NormalizeHabitName("  Walk ")
	if err != nil || name != "Walk" {
		t.Fatalf("NormalizeHabitName = %q, %v", name, err)
	}
	if _, err := NormalizeHabitName(""); !stderrors.Is(err, errors.ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput, got %v", err)
	}
}

func TestNormalizeHabits(t *testing.T) {
	got := NormalizeHabits([]Habit{"Read", " ", "Floss", "Read"})
	want := []Habit{"Read", "Floss"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NormalizeHabits = %v, want %v", got, want)
	}
}

func TestDefaultHabitsIsACopy(t *testing.T) {
	a := DefaultHabits()
	a[0] = "changed"
	if DefaultHabits()[0] != "Floss" {
		t.Error("DefaultHabits shares its backing array")
	}
	if len(DefaultHabits()) != 5 {
		t.Errorf("expected 5 default habits, got %d", len(DefaultHabits()))
	}
}

func TestCompletionLogNormalizeAndClone(t *testing.T) {
	log := CompletionLog{
		"2024-01-01": {"Floss", "Floss", "Read"},
		"2024-01-02": nil,
	}
	n := log.Normalize()
	if !reflect.DeepEqual(n["2024-01-01"], []Habit{"Floss", "Read"}) {
		t.Errorf("duplicates not collapsed: %v", n["2024-01-01"])
	}
	if n["2024-01-02"] == nil {
		t.Error("nil set should become empty")
	}
	if len(CompletionLog(nil).Normalize()) != 0 {
		t.Error("nil log should normalize to empty")
	}

	c := n.Clone()
	c["2024-01-01"][0] = "mutated"
	if n["2024-01-01"][0] != "Floss" {
		t.Error("Clone shares day slices")
	}
	if !n.Has("2024-01-01", "Read") || n.Has("2024-01-01", "Exercise") {
		t.Error("Has returned wrong membership")
	}
	if n.Count("2024-01-01") != 2 {
		t.Errorf("Count = %d, want 2", n.Count("2024-01-01"))
	}
}
