package models

import (
	"strings"
	"time"

	"github.com/julianstephens/microhabit/internal/constants"
	"github.com/julianstephens/microhabit/internal/errors"
)

// Reminder fires a notification at a time of day. ID is the creation time in
// Unix milliseconds.
type Reminder struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	Time      string `json:"time"`      // HH:MM format
	CreatedAt string `json:"createdAt"` // human readable
}

// Validate trims text and time in place. Both are required and the time must
// parse as HH:MM; it is stored zero-padded.
func (r *Reminder) Validate() error {
	r.Text = strings.TrimSpace(r.Text)
	r.Time = strings.TrimSpace(r.Time)

	if r.Text == "" {
		return errors.Invalid("reminder text", "", errors.ErrEmptyInput)
	}
	if r.Time == "" {
		return errors.Invalid("reminder time", "", errors.ErrEmptyInput)
	}
	parsed, err := time.Parse(constants.TimeFormat, r.Time)
	if err != nil {
		return errors.Invalid("reminder time", r.Time, errors.ErrInvalidTime)
	}
	r.Time = parsed.Format(constants.TimeFormat)
	return nil
}
