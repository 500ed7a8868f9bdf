package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/julianstephens/microhabit/internal/backup"
	"github.com/julianstephens/microhabit/internal/config"
	"github.com/julianstephens/microhabit/internal/logger"
	"github.com/julianstephens/microhabit/internal/notifier"
	"github.com/julianstephens/microhabit/internal/printers"
	"github.com/julianstephens/microhabit/internal/service"
	"github.com/julianstephens/microhabit/internal/storage"
	"github.com/julianstephens/microhabit/internal/storage/backends"
	"github.com/julianstephens/microhabit/internal/utils"
)

// Context is handed to every command's Run method.
type Context struct {
	Ctx     context.Context
	Config  *config.Config
	Store   *storage.Store
	Service *service.Service
	Printer *printers.Printer
	Out     io.Writer
	In      io.Reader
	Now     func() time.Time
}

// NewContext prepares the store for cfg. The backend itself, and any remote
// connection string, is only resolved when a command first uses the store.
func NewContext(ctx context.Context, cfg *config.Config, output string) (*Context, error) {
	clock, err := utils.Clock(cfg.Timezone)
	if err != nil {
		return nil, err
	}

	store := storage.New(backends.NewDeferred(cfg))
	printer := printers.New(nil, output)
	return &Context{
		Ctx:     ctx,
		Config:  cfg,
		Store:   store,
		Service: service.New(store, service.WithClock(clock)),
		Printer: printer,
		Out:     printer.Out,
		In:      os.Stdin,
		Now:     clock,
	}, nil
}

// Open connects to an initialized store.
func (c *Context) Open() error {
	if err := c.Store.Open(c.Ctx); err != nil {
		if errors.Is(err, storage.ErrNotInitialized) || errors.Is(err, config.ErrNoConnectionString) {
			return err
		}
		return fmt.Errorf("failed to open %s store at %s: %w", c.Config.Storage.Backend, c.Store.Location(), err)
	}
	return nil
}

// WithScheduler rebuilds the service so reminders added through it arm
// session timers.
func (c *Context) WithScheduler(sched service.ReminderScheduler) {
	c.Service = service.New(c.Store, service.WithClock(c.Now), service.WithScheduler(sched))
}

// Notifier builds the notification sink selected by notify.backend. Every
// sink also records the notification in the log.
func (c *Context) Notifier() notifier.Notifier {
	switch c.Config.Notify.Backend {
	case config.NotifyStdout:
		return notifier.Multi{notifier.NewWriter(c.Out), notifier.Log{}}
	case config.NotifyLog:
		return notifier.Log{}
	default:
		return notifier.Multi{notifier.NewTray(), notifier.Log{}}
	}
}

// WatchPath is the file or directory to watch for writes from other
// processes, or "" when the backend is not on the local filesystem.
func (c *Context) WatchPath() string {
	if !backends.IsFileBacked(c.Config.Storage.Backend) {
		return ""
	}
	return c.Config.Storage.Path
}

// BackupManager returns a manager writing into the config directory.
func (c *Context) BackupManager() *backup.Manager {
	return backup.NewManager(c.Store, c.Config.ConfigDir)
}

// PerformAutomaticBackup creates an automatic backup and silently handles errors
func (c *Context) PerformAutomaticBackup() {
	if _, err := c.BackupManager().CreateBackup(c.Ctx); err != nil {
		logger.Warn("Automatic backup failed", "error", err)
	}
}
