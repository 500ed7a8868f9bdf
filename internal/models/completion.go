package models

// CompletionLog maps a date-key (YYYY-MM-DD) to the habit names completed that day.
// A name appears at most once per day. Entries for past days are never pruned.
type CompletionLog map[string][]Habit

// Has reports whether habit was completed on day.
func (c CompletionLog) Has(day string, habit Habit) bool {
	for _, h := range c[day] {
		if h == habit {
			return true
		}
	}
	return false
}

// Count returns the raw number of stored completions for day.
func (c CompletionLog) Count(day string) int {
	return len(c[day])
}

// Clone returns a deep copy so callers can mutate without touching a snapshot.
func (c CompletionLog) Clone() CompletionLog {
	out := make(CompletionLog, len(c))
	for day, names := range c {
		out[day] = append([]Habit{}, names...)
	}
	return out
}

// Normalize collapses repeated names inside a day and replaces nil sets with
// empty ones. Days whose set is empty are kept.
func (c CompletionLog) Normalize() CompletionLog {
	if c == nil {
		return CompletionLog{}
	}
	out := make(CompletionLog, len(c))
	for day, names := range c {
		seen := make(map[string]struct{}, len(names))
		set := make([]Habit, 0, len(names))
		for _, n := range names {
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			set = append(set, n)
		}
		out[day] = set
	}
	return out
}
