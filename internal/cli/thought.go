package cli

import (
	"fmt"
	"strings"

	"github.com/julianstephens/microhabit/internal/models"
)

type ThoughtCmd struct {
	Add    ThoughtAddCmd    `cmd:"" help:"Record a thought."`
	List   ThoughtListCmd   `cmd:"" help:"List recent thoughts, newest first." default:"1"`
	Delete ThoughtDeleteCmd `cmd:"" help:"Delete a thought by id."`
}

type ThoughtAddCmd struct {
	Text []string `arg:"" help:"Thought text."`
}

func (c *ThoughtAddCmd) Run(ctx *Context) error {
	if err := ctx.Open(); err != nil {
		return err
	}

	t, err := ctx.Service.AddThought(ctx.Ctx, strings.Join(c.Text, " "))
	if err != nil {
		return err
	}

	fmt.Fprintf(ctx.Out, "Saved thought %d\n", t.ID)
	return nil
}

type ThoughtListCmd struct {
	All bool `help:"Show every stored thought instead of the most recent ten."`
}

func (c *ThoughtListCmd) Run(ctx *Context) error {
	if err := ctx.Open(); err != nil {
		return err
	}

	var thoughts []models.Thought
	if c.All {
		snap, err := ctx.Service.Snapshot(ctx.Ctx)
		if err != nil {
			return err
		}
		thoughts = snap.Thoughts
	} else {
		dash, err := ctx.Service.Dashboard(ctx.Ctx)
		if err != nil {
			return err
		}
		thoughts = dash.Thoughts
	}
	return ctx.Printer.Thoughts(thoughts, ctx.Now())
}

type ThoughtDeleteCmd struct {
	ID int64 `arg:"" help:"Thought id (see 'thought list')."`
}

func (c *ThoughtDeleteCmd) Run(ctx *Context) error {
	if err := ctx.Open(); err != nil {
		return err
	}

	if err := ctx.Service.DeleteThought(ctx.Ctx, c.ID); err != nil {
		return err
	}

	fmt.Fprintf(ctx.Out, "Deleted thought %d\n", c.ID)
	return nil
}
