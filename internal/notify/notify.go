// Package notify delivers alert messages to users.
package notify

import (
	"context"
	"errors"
	"log/slog"

	"devopsmon/internal/database/relational"
)

// Notifier delivers one message to one user.
type Notifier interface {
	Notify(ctx context.Context, userID, subject, body string) error
}

// NotificationWriter persists notifications.
type NotificationWriter interface {
	InsertNotification(ctx context.Context, n relational.Notification) (string, error)
}

// StoreNotifier records each message in the notification log.
type StoreNotifier struct {
	store NotificationWriter
}

func NewStoreNotifier(store NotificationWriter) *StoreNotifier {
	return &StoreNotifier{store: store}
}

func (n *StoreNotifier) Notify(ctx context.Context, userID, subject, body string) error {
	_, err := n.store.InsertNotification(ctx, relational.Notification{
		User:    userID,
		Subject: subject,
		Body:    body,
		Kind:    relational.KindAlert,
	})
	return err
}

// LogNotifier writes each message to the log.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("component", "notifier")}
}

func (n *LogNotifier) Notify(_ context.Context, userID, subject, body string) error {
	n.logger.Warn(subject, "user", userID, "body", body)
	return nil
}

// Multi delivers to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, userID, subject, body string) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, userID, subject, body); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, userID, subject, body string) error

func (f Func) Notify(ctx context.Context, userID, subject, body string) error {
	return f(ctx, userID, subject, body)
}
