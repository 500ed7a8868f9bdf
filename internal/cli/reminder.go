package cli

import (
	"fmt"

	"github.com/julianstephens/microhabit/internal/models"
	"github.com/julianstephens/microhabit/internal/printers"
)

type ReminderCmd struct {
	Add    ReminderAddCmd    `cmd:"" help:"Add a daily reminder."`
	List   ReminderListCmd   `cmd:"" help:"List reminders." default:"1"`
	Delete ReminderDeleteCmd `cmd:"" help:"Delete a reminder by id."`
}

type ReminderAddCmd struct {
	Time string `arg:"" help:"Time of day (HH:MM)."`
	Text string `arg:"" help:"Reminder text."`
}

func (c *ReminderAddCmd) Run(ctx *Context) error {
	if err := ctx.Open(); err != nil {
		return err
	}

	r, delay, err := ctx.Service.AddReminder(ctx.Ctx, c.Text, c.Time)
	if err != nil {
		return err
	}

	if ctx.Printer.Output == printers.OutputJSON {
		return ctx.Printer.Reminders([]models.Reminder{r}, ctx.Now())
	}
	ctx.Printer.ReminderAdded(r, delay, ctx.Now())
	fmt.Fprintln(ctx.Out, "Reminders fire while 'microhabit daemon' or the TUI is running.")
	return nil
}

type ReminderListCmd struct{}

func (c *ReminderListCmd) Run(ctx *Context) error {
	if err := ctx.Open(); err != nil {
		return err
	}

	snap, err := ctx.Service.Snapshot(ctx.Ctx)
	if err != nil {
		return err
	}
	return ctx.Printer.Reminders(snap.Reminders, ctx.Now())
}

type ReminderDeleteCmd struct {
	ID int64 `arg:"" help:"Reminder id (see 'reminder list')."`
}

func (c *ReminderDeleteCmd) Run(ctx *Context) error {
	if err := ctx.Open(); err != nil {
		return err
	}

	if err := ctx.Service.DeleteReminder(ctx.Ctx, c.ID); err != nil {
		return err
	}

	fmt.Fprintf(ctx.Out, "Deleted reminder %d\n", c.ID)
	return nil
}
