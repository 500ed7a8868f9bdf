package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"

	"github.com/julianstephens/microhabit/internal/keyring"
	"github.com/julianstephens/microhabit/internal/notifier"
	"github.com/julianstephens/microhabit/internal/storage"
	"github.com/julianstephens/microhabit/internal/tracker"
	"github.com/julianstephens/microhabit/internal/utils"
)

type DoctorCmd struct{}

type checkStatus int

const (
	checkOK checkStatus = iota
	checkWarn
	checkFail
	checkSkipped
)

type check struct {
	name string
	// warnOnly checks report problems without failing the command.
	warnOnly bool
	// needsStore checks are skipped when the store cannot be opened.
	needsStore bool
	run        func(ctx *Context) error
}

var trayEndpoint = notifier.TrayEndpoint

func (cmd *DoctorCmd) Run(ctx *Context) error {
	fmt.Fprintln(ctx.Out, "Running diagnostics...")
	fmt.Fprintln(ctx.Out)

	checks := []check{
		{name: "Configuration", run: checkConfig},
		{name: "Clock/timezone", run: checkClockTimezone},
		{name: "Store reachable", run: checkStoreReachable},
		{name: "Data integrity", needsStore: true, run: checkDataIntegrity},
		{name: "Backups present", warnOnly: true, run: checkBackupsPresent},
		{name: "Keyring", warnOnly: true, run: checkKeyring},
		{name: "Tray application", warnOnly: true, run: checkTray},
	}

	hasError := false
	storeOK := false
	for _, c := range checks {
		status := checkOK
		var err error
		if c.needsStore && !storeOK {
			status = checkSkipped
		} else if err = c.run(ctx); err != nil {
			status = checkFail
			if c.warnOnly {
				status = checkWarn
			}
		}
		if c.name == "Store reachable" {
			storeOK = err == nil
		}
		if status == checkFail {
			hasError = true
		}
		printCheck(ctx, c.name, status, err)
	}
	ctx.Store.Close()

	fmt.Fprintln(ctx.Out)
	if hasError {
		return errors.New("diagnostics found problems")
	}
	fmt.Fprintln(ctx.Out, "All checks passed.")
	return nil
}

func printCheck(ctx *Context, name string, status checkStatus, err error) {
	switch status {
	case checkOK:
		fmt.Fprintf(ctx.Out, "%s %s: OK\n", color.GreenString("✓"), name)
	case checkWarn:
		fmt.Fprintf(ctx.Out, "%s %s: WARNING\n   %v\n", color.YellowString("⚠"), name, err)
	case checkFail:
		fmt.Fprintf(ctx.Out, "%s %s: FAIL\n   Error: %v\n", color.RedString("❌"), name, err)
	case checkSkipped:
		fmt.Fprintf(ctx.Out, "⊘ %s: SKIPPED (store not reachable)\n", name)
	}
}

func checkConfig(ctx *Context) error {
	return ctx.Config.Validate()
}

func checkClockTimezone(ctx *Context) error {
	now := ctx.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	return nil
}

func checkStoreReachable(ctx *Context) error {
	if err := ctx.Open(); err != nil {
		if errors.Is(err, storage.ErrNotInitialized) {
			return fmt.Errorf("%w: run 'microhabit init'", err)
		}
		return err
	}
	_, err := ctx.Store.Load(ctx.Ctx, storage.AllKeys...)
	return err
}

func checkDataIntegrity(ctx *Context) error {
	snap, err := ctx.Store.Load(ctx.Ctx, storage.AllKeys...)
	if err != nil {
		return err
	}

	seen := make(map[string]bool, len(snap.Habits))
	for _, h := range snap.Habits {
		if seen[string(h)] {
			return fmt.Errorf("duplicate habit %q", h)
		}
		seen[string(h)] = true
	}
	for day := range snap.Completions {
		if _, err := utils.ParseDateInLocation(day, time.Local); err != nil {
			return fmt.Errorf("completion log has invalid date %q", day)
		}
	}
	for i := range snap.Thoughts {
		if err := snap.Thoughts[i].Validate(); err != nil {
			return fmt.Errorf("thought %d: %w", snap.Thoughts[i].ID, err)
		}
	}
	for i := range snap.Reminders {
		if err := snap.Reminders[i].Validate(); err != nil {
			return fmt.Errorf("reminder %d: %w", snap.Reminders[i].ID, err)
		}
	}
	if snap.LastResetDate != "" && snap.LastResetDate > tracker.TodayKey(ctx.Now()) {
		return fmt.Errorf("last reset date %s is in the future", snap.LastResetDate)
	}
	return nil
}

func checkBackupsPresent(ctx *Context) error {
	backups, err := ctx.BackupManager().ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return errors.New("no backups found - consider creating one with 'microhabit backup create'")
	}
	return nil
}

func checkKeyring(ctx *Context) error {
	if !ctx.Config.IsRemote() || ctx.Config.Storage.URL != "" {
		return nil
	}
	if !keyringAvailable() {
		return keyring.ErrKeyringUnavailable
	}
	if _, err := keyring.GetConnectionString(); err != nil {
		return err
	}
	return nil
}

func checkTray(ctx *Context) error {
	if ctx.Config.Notify.Backend != "tray" {
		return nil
	}
	if _, _, err := trayEndpoint(); err != nil {
		return fmt.Errorf("tray application not reachable, notifications will only be logged: %v", err)
	}
	return nil
}
