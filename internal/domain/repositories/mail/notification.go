package mail

import (
	"context"
	"time"

	"archivist/internal/domain/models/mail"
)

// NotificationRepository stores the responsible assignment and per-user mailboxes
type NotificationRepository interface {
	// GetResponsible returns the current assignment, or nil when none is set
	GetResponsible(ctx context.Context) (*mail.ResponsibleAssignment, error)

	// SetResponsible replaces the single assignment
	SetResponsible(ctx context.Context, assignment *mail.ResponsibleAssignment) error

	// ClearResponsible removes the assignment
	ClearResponsible(ctx context.Context) error

	// Insert adds a notification; an existing (mail, user) pair is left unchanged
	Insert(ctx context.Context, n *mail.Notification) error

	// Get retrieves a single notification
	Get(ctx context.Context, mailID, userID int64) (*mail.Notification, error)

	// ListForUser returns a user's notifications, newest first
	ListForUser(ctx context.Context, userID int64, unreadOnly bool) ([]mail.NotificationView, error)

	// CountUnread counts a user's unread notifications
	CountUnread(ctx context.Context, userID int64) (int, error)

	// MarkRead flips an unread notification and stamps read_at
	MarkRead(ctx context.Context, mailID, userID int64, at time.Time) error

	// MarkAllRead flips every unread notification of a user and returns how many changed
	MarkAllRead(ctx context.Context, userID int64, at time.Time) (int, error)
}
