package printers

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"github.com/julianstephens/microhabit/internal/models"
	"github.com/julianstephens/microhabit/internal/tracker"
	"github.com/julianstephens/microhabit/internal/view"
)

const (
	OutputTable = "table"
	OutputJSON  = "json"
)

type Printer struct {
	Out    io.Writer
	Output string
}

func New(out io.Writer, output string) *Printer {
	if out == nil {
		out = color.Output
	}
	if output == "" {
		output = OutputTable
	}
	return &Printer{Out: out, Output: output}
}

func (p *Printer) json(v interface{}) error {
	enc := json.NewEncoder(p.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *Printer) Title(title string) {
	t := color.New(color.Bold, color.Underline)
	_, _ = t.Fprintln(p.Out, title)
}

func (p *Printer) TitleWithCount(title string, count int, noun string) {
	t := color.New(color.Bold, color.Underline)
	c := color.New(color.Faint)

	_, _ = t.Fprint(p.Out, title)
	_, _ = c.Fprintf(p.Out, " - %d %s\n", count, plural(noun, count))
}

func (p *Printer) none() {
	f := color.New(color.Faint, color.Italic)
	_, _ = f.Fprint(p.Out, " none\n\n")
}

func plural(noun string, n int) string {
	if n == 1 {
		return noun
	}
	return noun + "s"
}

func (p *Printer) Habits(rows []view.HabitRow) error {
	if p.Output == OutputJSON {
		return p.json(rows)
	}

	p.TitleWithCount("Habits", len(rows), "habit")
	if len(rows) == 0 {
		p.none()
		return nil
	}

	done := color.New(color.FgGreen)
	todo := color.New(color.Faint)
	streak := color.New(color.FgHiYellow)

	tbl := uitable.New()
	tbl.Separator = "  "
	for _, r := range rows {
		mark := todo.Sprint("[ ]")
		if r.Done {
			mark = done.Sprint("[x]")
		}
		s := ""
		if r.Streak > 0 {
			s = streak.Sprintf("%d %s streak", r.Streak, plural("day", r.Streak))
		}
		tbl.AddRow(mark, r.Name, s)
	}
	_, _ = fmt.Fprintln(p.Out, tbl)
	_, _ = fmt.Fprintln(p.Out)
	return nil
}

func (p *Printer) Thoughts(thoughts []models.Thought, now time.Time) error {
	if p.Output == OutputJSON {
		return p.json(thoughts)
	}

	p.TitleWithCount("Thoughts", len(thoughts), "thought")
	if len(thoughts) == 0 {
		p.none()
		return nil
	}

	id := color.New(color.FgHiYellow, color.Italic, color.Faint)
	when := color.New(color.Faint)

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.Wrap = true
	tbl.MaxColWidth = 60
	for _, t := range thoughts {
		tbl.AddRow(id.Sprint(t.ID), t.Text, when.Sprint(thoughtAge(t, now)))
	}
	_, _ = fmt.Fprintln(p.Out, tbl)
	_, _ = fmt.Fprintln(p.Out)
	return nil
}

func thoughtAge(t models.Thought, now time.Time) string {
	if t.ID <= 0 {
		return t.Timestamp
	}
	return humanize.RelTime(time.UnixMilli(t.ID), now, "ago", "from now")
}

func (p *Printer) Reminders(reminders []models.Reminder, now time.Time) error {
	if p.Output == OutputJSON {
		return p.json(reminders)
	}

	p.TitleWithCount("Reminders", len(reminders), "reminder")
	if len(reminders) == 0 {
		p.none()
		return nil
	}

	id := color.New(color.FgHiYellow, color.Italic, color.Faint)
	at := color.New(color.Bold)
	next := color.New(color.Faint)

	tbl := uitable.New()
	tbl.Separator = "  "
	for _, r := range reminders {
		tbl.AddRow(id.Sprint(r.ID), at.Sprint(r.Time), r.Text, next.Sprint(NextIn(r.Time, now)))
	}
	_, _ = fmt.Fprintln(p.Out, tbl)
	_, _ = fmt.Fprintln(p.Out)
	return nil
}

// NextIn describes when a reminder set for hhmm fires next, relative to now.
func NextIn(hhmm string, now time.Time) string {
	_, d, err := tracker.NextOccurrence(now, hhmm)
	if err != nil {
		return "invalid time"
	}
	return humanize.RelTime(now.Add(d), now, "ago", "from now")
}

func (p *Printer) ReminderAdded(r models.Reminder, delay time.Duration, now time.Time) {
	ok := color.New(color.FgGreen)
	_, _ = ok.Fprintf(p.Out, "Reminder set for %s", r.Time)
	_, _ = fmt.Fprintf(p.Out, " (%s)\n", humanize.RelTime(now.Add(delay), now, "ago", "from now"))
}

// Today prints the aggregate counters and today's habits.
func (p *Printer) Today(d view.Dashboard) error {
	if p.Output == OutputJSON {
		return p.json(struct {
			Today       string          `json:"today"`
			TodayCount  int             `json:"todayCount"`
			TotalHabits int             `json:"totalHabits"`
			BestStreak  int             `json:"bestStreak"`
			Habits      []view.HabitRow `json:"habits"`
		}{d.Today, d.TodayCount, d.TotalHabits, d.BestStreak, d.Habits})
	}

	p.Title(d.Today)
	stat := color.New(color.Bold)
	_, _ = stat.Fprintf(p.Out, "%d/%d", d.TodayCount, d.TotalHabits)
	_, _ = fmt.Fprint(p.Out, " done today   ")
	_, _ = stat.Fprintf(p.Out, "%d", d.BestStreak)
	_, _ = fmt.Fprintln(p.Out, " best streak")
	_, _ = fmt.Fprintln(p.Out)
	return p.Habits(d.Habits)
}

const calendarWidth = len("11 12 13 14 15 16 17")

// Calendar prints the five week grid, shading partial and complete days.
func (p *Printer) Calendar(days []view.CalendarDay) error {
	if p.Output == OutputJSON {
		return p.json(days)
	}

	tf := color.New(color.FgWhite, color.Italic)
	_, _ = tf.Fprintln(p.Out, " S  M  T  W  T  F  S")

	none := color.New(color.Faint, color.FgWhite)
	partial := color.New(color.FgYellow)
	active := color.New(color.Bold, color.FgGreen)

	for i, d := range days {
		c := none
		switch d.Level {
		case view.LevelPartial:
			c = partial
		case view.LevelActive:
			c = active
		}
		if d.Today {
			c = color.New(append([]color.Attribute{color.Underline}, attrsFor(d.Level)...)...)
		}
		_, _ = c.Fprintf(p.Out, "%2d", d.Day)
		if (i+1)%7 == 0 {
			_, _ = fmt.Fprintln(p.Out)
		} else {
			_, _ = fmt.Fprint(p.Out, " ")
		}
	}
	_, _ = fmt.Fprintln(p.Out, strings.Repeat("-", calendarWidth))
	return nil
}

func attrsFor(l view.Level) []color.Attribute {
	switch l {
	case view.LevelActive:
		return []color.Attribute{color.Bold, color.FgGreen}
	case view.LevelPartial:
		return []color.Attribute{color.FgYellow}
	default:
		return []color.Attribute{color.FgWhite}
	}
}
