package notify

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"devopsmon/internal/database/relational"
)

type recordingWriter struct {
	got []relational.Notification
	err error
}

func (w *recordingWriter) InsertNotification(_ context.Context, n relational.Notification) (string, error) {
	if w.err != nil {
		return "", w.err
	}
	w.got = append(w.got, n)
	return "id", nil
}

func TestStoreNotifier(t *testing.T) {
	w := &recordingWriter{}
	n := NewStoreNotifier(w)
	if err := n.Notify(context.Background(), "ops@example.com", "DevOps Alert: CPU", "CPU usage is 85.3%"); err != nil {
		t.Fatal(err)
	}
	if len(w.got) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(w.got))
	}
	got := w.got[0]
	if got.User != "ops@example.com" || got.Subject != "DevOps Alert: CPU" || got.Kind != relational.KindAlert {
		t.Errorf("notification = %+v", got)
	}
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewTextHandler(&buf, nil)))
	if err := n.Notify(context.Background(), "u1", "subject line", "body text"); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"subject line", "user=u1", "component=notifier"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q missing %q", out, want)
		}
	}
}

func TestMultiDeliversToAllAndJoinsErrors(t *testing.T) {
	errA := errors.New("a down")
	var calls []string
	m := Multi{
		Func(func(_ context.Context, u, _, _ string) error { calls = append(calls, "a:"+u); return errA }),
		Func(func(_ context.Context, u, _, _ string) error { calls = append(calls, "b:"+u); return nil }),
	}
	err := m.Notify(context.Background(), "u", "s", "b")
	if !errors.Is(err, errA) {
		t.Errorf("expected joined error to wrap errA, got %v", err)
	}
	if len(calls) != 2 || calls[1] != "b:u" {
		t.Errorf("calls = %v", calls)
	}
}
