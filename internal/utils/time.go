package utils

import (
	"fmt"
	"time"

	"github.com/julianstephens/microhabit/internal/constants"
)

// LoadLocation resolves an IANA zone name. "" and "Local" mean the system zone.
func LoadLocation(timezone string) (*time.Location, error) {
	switch timezone {
	case "", "Local":
		return time.Local, nil
	}
	return time.LoadLocation(timezone)
}

// Clock returns a wall clock that reports time in timezone. Day boundaries
// and reminder minutes are taken from it.
func Clock(timezone string) (func() time.Time, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return func() time.Time { return time.Now().In(loc) }, nil
}

// ParseTimeToMinutes converts an HH:MM time of day to minutes after midnight.
func ParseTimeToMinutes(hhmm string) (int, error) {
	t, err := time.Parse(constants.TimeFormat, hhmm)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// ParseDateInLocation parses a date-key as midnight in loc.
func ParseDateInLocation(dateKey string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(constants.DateFormat, dateKey, loc)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

func ValidateTimeFormat(hhmm string) bool {
	_, err := ParseTimeToMinutes(hhmm)
	return err == nil
}

func ValidateTimezone(timezone string) bool {
	_, err := LoadLocation(timezone)
	return err == nil
}
