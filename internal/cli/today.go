package cli

import (
	"fmt"

	"github.com/julianstephens/microhabit/internal/printers"
)

type TodayCmd struct{}

func (c *TodayCmd) Run(ctx *Context) error {
	if err := ctx.Open(); err != nil {
		return err
	}

	dash, err := ctx.Service.Dashboard(ctx.Ctx)
	if err != nil {
		return err
	}
	return ctx.Printer.Today(dash)
}

type CalendarCmd struct {
	Days bool `help:"Also list the completion ratio of every day in the window."`
}

func (c *CalendarCmd) Run(ctx *Context) error {
	if err := ctx.Open(); err != nil {
		return err
	}

	dash, err := ctx.Service.Dashboard(ctx.Ctx)
	if err != nil {
		return err
	}
	if err := ctx.Printer.Calendar(dash.Calendar); err != nil {
		return err
	}
	if c.Days && ctx.Printer.Output != printers.OutputJSON {
		for _, d := range dash.Calendar {
			fmt.Fprintln(ctx.Out, d.Title)
		}
	}
	return nil
}
