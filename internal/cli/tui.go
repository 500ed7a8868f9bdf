package cli

import (
	"github.com/julianstephens/microhabit/internal/scheduler"
	"github.com/julianstephens/microhabit/internal/tui"
)

type TuiCmd struct {
	ArmReminders bool `help:"Arm timers for every stored reminder, not only those added in this session. Leave off while 'microhabit daemon' is running."`
}

func (c *TuiCmd) Run(ctx *Context) error {
	if err := ctx.Open(); err != nil {
		return err
	}
	defer ctx.Store.Close()

	ctx.PerformAutomaticBackup()

	sched := scheduler.New(ctx.Notifier())
	defer sched.Stop()
	ctx.WithScheduler(sched)

	if c.ArmReminders {
		if _, err := ctx.Service.ScheduleAll(ctx.Ctx); err != nil {
			return err
		}
	}

	return tui.Run(ctx.Ctx, ctx.Service, ctx.WatchPath())
}
