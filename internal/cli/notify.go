package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/julianstephens/microhabit/internal/notifier"
)

// NotifyCmd runs a single poll, for use from cron or a systemd timer.
type NotifyCmd struct {
	DryRun bool `help:"Print notifications instead of sending them and leave the stored day unchanged."`
}

func dryRunNotifier(w io.Writer) notifier.Notifier {
	return notifier.Func(func(ctx context.Context, n notifier.Notification) error {
		_, err := fmt.Fprintf(w, "[DryRun] %s: %s\n", n.Title, n.Message)
		return err
	})
}

func (c *NotifyCmd) Run(ctx *Context) error {
	p, err := ctx.newPoller(c.DryRun)
	if err != nil {
		return err
	}
	if err := ctx.Open(); err != nil {
		return err
	}
	defer ctx.Store.Close()

	res := p.Tick(ctx.Ctx, ctx.Now())

	if c.DryRun {
		if res.NewDay {
			fmt.Fprintf(ctx.Out, "New day: %s\n", res.Today)
		}
		if len(res.Due) == 0 {
			fmt.Fprintln(ctx.Out, "No reminders due.")
		}
	}

	if len(res.Errors) > 0 {
		return fmt.Errorf("poll finished with %d error(s): %w", len(res.Errors), errors.Join(res.Errors...))
	}
	return nil
}
