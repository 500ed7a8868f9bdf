package models

import (
	"strings"

	"github.com/julianstephens/microhabit/internal/errors"
)

// Thought is a short journal entry. ID is the creation time in Unix
// milliseconds and doubles as the sort key.
type Thought struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"` // human readable
	Date      string `json:"date"`      // YYYY-MM-DD
}

// Validate trims the text in place and rejects empty entries.
func (t *Thought) Validate() error {
	t.Text = strings.TrimSpace(t.Text)
	if t.Text == "" {
		return errors.Invalid("thought", "", errors.ErrEmptyInput)
	}
	return nil
}

// RecentThoughts returns at most n of the newest thoughts. The full history is
// left untouched.
func RecentThoughts(thoughts []Thought, n int) []Thought {
	if n < 0 || len(thoughts) <= n {
		return thoughts
	}
	return thoughts[:n]
}
