package storage

import (
	"github.com/julianstephens/microhabit/internal/constants"
	"github.com/julianstephens/microhabit/internal/models"
)

// AllKeys lists every top-level record key.
var AllKeys = []string{
	constants.KeyHabits,
	constants.KeyCompletions,
	constants.KeyThoughts,
	constants.KeyReminders,
	constants.KeyLastResetDate,
}

// Snapshot is a typed view of the top-level records returned by Store.Load.
// Keys that were not requested keep their defaults and are never written back
// unless named explicitly in Save.
type Snapshot struct {
	Habits        []models.Habit       `json:"habits"`
	Completions   models.CompletionLog `json:"completions"`
	Thoughts      []models.Thought     `json:"thoughts"`
	Reminders     []models.Reminder    `json:"reminders"`
	LastResetDate string               `json:"lastResetDate,omitempty"`

	// revisions holds the revision observed for each loaded key; an empty
	// string records that the key was absent.
	revisions map[string]string
}

// NewSnapshot returns a snapshot holding the documented defaults. Saving it
// writes unconditionally since no revisions were observed.
func NewSnapshot() Snapshot {
	return Snapshot{
		Habits:      models.DefaultHabits(),
		Completions: models.CompletionLog{},
		Thoughts:    []models.Thought{},
		Reminders:   []models.Reminder{},
	}
}

// Revision returns the revision recorded for key and whether key was loaded.
func (s Snapshot) Revision(key string) (string, bool) {
	rev, ok := s.revisions[key]
	return rev, ok
}

// Unguarded drops the recorded revisions so the next Save overwrites.
func (s *Snapshot) Unguarded() {
	s.revisions = nil
}

func (s *Snapshot) observe(key, revision string) {
	if s.revisions == nil {
		s.revisions = make(map[string]string, len(AllKeys))
	}
	s.revisions[key] = revision
}

func isKnownKey(key string) bool {
	for _, k := range AllKeys {
		if k == key {
			return true
		}
	}
	return false
}
