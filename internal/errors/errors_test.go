package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: "",
		},
		{
			name:     "simple error",
			err:      stderrors.New("something went wrong"),
			expected: "Error: something went wrong",
		},
		{
			name:     "validation error",
			err:      Invalid("habit", "Floss", ErrDuplicateHabit),
			expected: `Error: habit "Floss": habit already exists`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Format(tt.err)
			if result != tt.expected {
				t.Errorf("Format(%v) = %q, want %q", tt.err, result, tt.expected)
			}
		})
	}
}

func TestFormatf(t *testing.T) {
	tests := []struct {
		name     string
		format   string
		args     []interface{}
		expected string
	}{
		{
			name:     "simple message",
			format:   "something went wrong",
			args:     nil,
			expected: "Error: something went wrong",
		},
		{
			name:     "formatted message with string",
			format:   "failed to load %s",
			args:     []interface{}{"store"},
			expected: "Error: failed to load store",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Formatf(tt.format, tt.args...)
			if result != tt.expected {
				t.Errorf("Formatf(%q) = %q, want %q", tt.format, result, tt.expected)
			}
		})
	}
}

func TestValidationErrorUnwrap(t *testing.T) {
	err := fmt.Errorf("add reminder: %w", Invalid("time", "25:00", ErrInvalidTime))

	if !stderrors.Is(err, ErrInvalidTime) {
		t.Error("expected wrapped error to match ErrInvalidTime")
	}
	if !IsValidation(err) {
		t.Error("expected IsValidation to be true")
	}
	if IsValidation(stderrors.New("disk full")) {
		t.Error("plain error reported as validation error")
	}

	noValue := Invalid("thought", "", ErrEmptyInput)
	if got, want := noValue.Error(), "thought: input cannot be empty"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
