package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/julianstephens/microhabit/internal/logger"
	"github.com/julianstephens/microhabit/internal/poller"
)

const shutdownTimeout = 5 * time.Second

// DaemonCmd polls in the foreground until interrupted.
type DaemonCmd struct{}

func (c *DaemonCmd) Run(ctx *Context) error {
	p, err := ctx.newPoller(false)
	if err != nil {
		return err
	}
	if err := ctx.Open(); err != nil {
		return err
	}
	defer ctx.Store.Close()

	runCtx, stop := signal.NotifyContext(ctx.Ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := p.Start(runCtx); err != nil {
		return err
	}
	logger.Info("daemon started",
		"store", ctx.Store.Location(),
		"interval", ctx.Config.Poll.Interval,
		"mode", ctx.Config.Poll.Mode,
		"notify", ctx.Config.Notify.Backend)
	fmt.Fprintf(ctx.Out, "Polling every %s (press Ctrl+C to stop)\n", ctx.Config.Poll.Interval)

	<-runCtx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	p.Stop(stopCtx)
	logger.Info("daemon stopped")
	return nil
}

func (c *Context) newPoller(dryRun bool) (*poller.Poller, error) {
	mode, err := poller.ParseMode(c.Config.Poll.Mode)
	if err != nil {
		return nil, err
	}
	n := c.Notifier()
	if dryRun {
		n = dryRunNotifier(c.Out)
	}
	return poller.New(c.Store, n, poller.Config{
		Interval:     c.Config.Poll.Interval,
		Mode:         mode,
		NotifyNewDay: c.Config.Notify.NewDay,
		DryRun:       dryRun,
	}, c.Now), nil
}
