package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/microhabit/internal/logger"
	"github.com/julianstephens/microhabit/internal/service"
	"github.com/julianstephens/microhabit/internal/storage"
)

// Run starts the interactive UI and blocks until it exits. When watchPath is
// set, writes from other processes re-render the UI.
func Run(ctx context.Context, svc *service.Service, watchPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var changes <-chan storage.Change
	if watchPath != "" {
		ch, err := storage.Watch(ctx, watchPath)
		if err != nil {
			logger.Warn("Store changes from other processes will not refresh the UI", "error", err)
		} else {
			changes = ch
		}
	}

	p := tea.NewProgram(NewModel(ctx, svc, changes), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	}
	return nil
}
