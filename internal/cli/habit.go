package cli

import (
	"fmt"
	"strings"
)

type HabitCmd struct {
	Add    HabitAddCmd    `cmd:"" help:"Add a new habit."`
	List   HabitListCmd   `cmd:"" help:"List habits with today's status and streaks." default:"1"`
	Delete HabitDeleteCmd `cmd:"" help:"Delete a habit. Its completion history is kept."`
	Done   HabitDoneCmd   `cmd:"" help:"Mark a habit as done today."`
	Undo   HabitUndoCmd   `cmd:"" help:"Mark a habit as not done today."`
}

type HabitAddCmd struct {
	Name string `arg:"" help:"Habit name."`
}

func (c *HabitAddCmd) Run(ctx *Context) error {
	if err := ctx.Open(); err != nil {
		return err
	}

	habit, err := ctx.Service.AddHabit(ctx.Ctx, c.Name)
	if err != nil {
		return err
	}

	fmt.Fprintf(ctx.Out, "Added habit: %s\n", habit)
	return nil
}

type HabitListCmd struct{}

func (c *HabitListCmd) Run(ctx *Context) error {
	if err := ctx.Open(); err != nil {
		return err
	}

	dash, err := ctx.Service.Dashboard(ctx.Ctx)
	if err != nil {
		return err
	}
	return ctx.Printer.Habits(dash.Habits)
}

type HabitDeleteCmd struct {
	Name string `arg:"" help:"Habit name."`
}

func (c *HabitDeleteCmd) Run(ctx *Context) error {
	if err := ctx.Open(); err != nil {
		return err
	}

	if err := ctx.Service.DeleteHabit(ctx.Ctx, c.Name); err != nil {
		return err
	}

	fmt.Fprintf(ctx.Out, "Deleted habit: %s\n", c.Name)
	return nil
}

type HabitDoneCmd struct {
	Name string `arg:"" help:"Habit name."`
}

func (c *HabitDoneCmd) Run(ctx *Context) error {
	return toggle(ctx, c.Name, true)
}

type HabitUndoCmd struct {
	Name string `arg:"" help:"Habit name."`
}

func (c *HabitUndoCmd) Run(ctx *Context) error {
	return toggle(ctx, c.Name, false)
}

func toggle(ctx *Context, name string, done bool) error {
	if err := ctx.Open(); err != nil {
		return err
	}

	if err := ctx.Service.ToggleCompletion(ctx.Ctx, name, done); err != nil {
		return err
	}

	dash, err := ctx.Service.Dashboard(ctx.Ctx)
	if err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	for _, row := range dash.Habits {
		if row.Name != name {
			continue
		}
		if done {
			fmt.Fprintf(ctx.Out, "✓ %s done (%d day streak)\n", row.Name, row.Streak)
		} else {
			fmt.Fprintf(ctx.Out, "○ %s marked as not done\n", row.Name)
		}
	}
	return nil
}
