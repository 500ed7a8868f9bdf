package notifier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/julianstephens/microhabit/internal/logger"
)

// Notification is a title and message pair shown to the user.
type Notification struct {
	Title   string
	Message string
}

// Notifier delivers notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Func adapts a function to the Notifier interface.
type Func func(ctx context.Context, n Notification) error

func (f Func) Notify(ctx context.Context, n Notification) error {
	return f(ctx, n)
}

// Log writes notifications to the application log.
type Log struct{}

func (Log) Notify(ctx context.Context, n Notification) error {
	logger.Info("notification", "title", n.Title, "message", n.Message)
	return nil
}

// Writer prints notifications to W, one per line.
type Writer struct {
	mu sync.Mutex
	W  io.Writer
	// Bell rings the terminal bell before each notification.
	Bell bool
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{W: w}
}

func (w *Writer) Notify(ctx context.Context, n Notification) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	prefix := ""
	if w.Bell {
		prefix = "\a"
	}
	_, err := fmt.Fprintf(w.W, "%s[%s] %s\n", prefix, n.Title, n.Message)
	return err
}

// Multi fans a notification out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, notifier := range m {
		if err := notifier.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
