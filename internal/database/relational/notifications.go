package relational

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// KindAlert marks notifications raised by threshold breaches.
const KindAlert = "Alert"

// Notification is a delivered message to one user.
type Notification struct {
	ID        string    `json:"id"`
	User      string    `json:"for_user"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Kind      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

// InsertNotification records n and returns its id. Empty Kind defaults to
// KindAlert and a zero CreatedAt to now.
func (r *Repo) InsertNotification(ctx context.Context, n Notification) (string, error) {
	if n.User == "" {
		return "", fmt.Errorf("notification user is required")
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Kind == "" {
		n.Kind = KindAlert
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = r.now()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (notification_id, for_user, subject, body, kind, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		n.ID, n.User, n.Subject, nullStr(n.Body), n.Kind, n.CreatedAt.UTC())
	if err != nil {
		return "", fmt.Errorf("insert notification: %w", err)
	}
	return n.ID, nil
}

// QueryNotifications lists notifications for user (all users when empty),
// newest first.
func (r *Repo) QueryNotifications(ctx context.Context, user string, limit int) ([]Notification, error) {
	q := `SELECT notification_id, for_user, subject, body, kind, created_at FROM notifications`
	var args []any
	if user != "" {
		q += ` WHERE for_user = ?`
		args = append(args, user)
	}
	q += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, clampLimit(limit, 50, 1000))

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var (
			n    Notification
			body sql.NullString
		)
		if err := rows.Scan(&n.ID, &n.User, &n.Subject, &body, &n.Kind, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.Body = body.String
		out = append(out, n)
	}
	return out, rows.Err()
}
