package main

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/microhabit/internal/cli"
	"github.com/julianstephens/microhabit/internal/config"
	"github.com/julianstephens/microhabit/internal/constants"
	"github.com/julianstephens/microhabit/internal/errors"
	"github.com/julianstephens/microhabit/internal/logger"
)

var CLI struct {
	Version    kong.VersionFlag
	ConfigDir  string `help:"Directory holding config.yaml, the default store, logs and backups." default:"${config_dir}" env:"MICROHABIT_CONFIG_DIR"`
	ConfigFile string `help:"Read this config file instead of searching for config.yaml." type:"path"`
	Backend    string `help:"Storage backend (${backends})."`
	StorePath  string `help:"Path of a file-backed store."`
	StoreURL   string `help:"Connection string for the postgres or redis backend. Credentials must NOT be embedded; use the OS keyring or MICROHABIT_STORAGE_PASSWORD."`
	Timezone   string `help:"IANA timezone that decides when a day starts."`
	Debug      bool   `help:"Log debug output to stderr."`
	Output     string `short:"o" help:"Output format (table|json)." enum:"table,json" default:"table"`

	Init     cli.InitCmd     `cmd:"" help:"Initialize microhabit storage."`
	Tui      cli.TuiCmd      `cmd:"" help:"Launch the interactive TUI." default:"1"`
	Habit    cli.HabitCmd    `cmd:"" help:"Manage habits and today's completions."`
	Thought  cli.ThoughtCmd  `cmd:"" help:"Journal short thoughts."`
	Reminder cli.ReminderCmd `cmd:"" help:"Manage time-of-day reminders."`
	Today    cli.TodayCmd    `cmd:"" help:"Show today's progress."`
	Calendar cli.CalendarCmd `cmd:"" help:"Show the five week completion calendar."`
	Daemon   cli.DaemonCmd   `cmd:"" help:"Poll for day rollover and due reminders until interrupted."`
	Notify   cli.NotifyCmd   `cmd:"" help:"Run a single poll, for use from cron or a systemd timer."`
	Backup   cli.BackupCmd   `cmd:"" help:"Manage backups."`
	Keyring  cli.KeyringCmd  `cmd:"" help:"Manage the remote store connection string in the OS keyring."`
	Doctor   cli.DoctorCmd   `cmd:"" help:"Run health checks and diagnostics."`
	DebugCmd cli.DebugCmd    `cmd:"" name:"debug" help:"Debug commands for troubleshooting."`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("A tiny habit tracker with thoughts and reminders"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":    constants.Version,
			"config_dir": constants.DefaultConfigDir,
			"backends":   "bolt,sqlite,postgres,redis,diskv,jsonfile,memory",
		},
	)

	cfg, err := config.Load(CLI.ConfigDir, CLI.ConfigFile)
	if err != nil {
		errors.Fatal(err)
	}
	cfg.Apply(config.Overrides{
		Backend:  CLI.Backend,
		Path:     CLI.StorePath,
		URL:      CLI.StoreURL,
		Timezone: CLI.Timezone,
		Debug:    CLI.Debug,
	})
	if err := cfg.Finalize(); err != nil {
		errors.Fatal(err)
	}

	if err := logger.Init(logger.Config{
		Debug:     cfg.Debug,
		ConfigDir: cfg.ConfigDir,
		Stderr:    kctx.Selected() != nil && kctx.Selected().Name == "daemon",
	}); err != nil {
		errors.Fatal(err)
	}

	appCtx, err := cli.NewContext(context.Background(), cfg, CLI.Output)
	if err != nil {
		errors.Fatal(err)
	}

	errors.Fatal(kctx.Run(appCtx))
}
