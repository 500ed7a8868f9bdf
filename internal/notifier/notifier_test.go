package notifier

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.Notify(context.Background(), Notification{Title: "Reminder", Message: "Stretch"}); err != nil {
		t.Fatalf("Notify() error: %v", err)
	}
	if got := buf.String(); got != "[Reminder] Stretch\n" {
		t.Errorf("output = %q", got)
	}

	buf.Reset()
	w.Bell = true
	w.Notify(context.Background(), Notification{Title: "A", Message: "B"})
	if got := buf.String(); got != "\a[A] B\n" {
		t.Errorf("output with bell = %q", got)
	}
}

func TestMulti(t *testing.T) {
	errA := errors.New("a failed")
	var calls []string
	m := Multi{
		Func(func(ctx context.Context, n Notification) error {
			calls = append(calls, "a")
			return errA
		}),
		Func(func(ctx context.Context, n Notification) error {
			calls = append(calls, "b")
			return nil
		}),
		Log{},
	}

	err := m.Notify(context.Background(), Notification{Title: "x"})
	if !errors.Is(err, errA) {
		t.Errorf("Notify() error = %v, want %v", err, errA)
	}
	if len(calls) != 2 {
		t.Errorf("calls = %v, want both notifiers called", calls)
	}

	if err := (Multi{}).Notify(context.Background(), Notification{}); err != nil {
		t.Errorf("empty Multi error = %v", err)
	}
}
