package mail

import (
	"context"

	"archivist/internal/domain/models"
	"archivist/internal/domain/models/mail"
)

// NotificationService routes new mail to the single responsible user
type NotificationService interface {
	// SetResponsible designates the user who receives new mail notifications
	SetResponsible(ctx context.Context, actor *models.User, userID int64) error

	// GetResponsible returns the responsible user, or nil when none is assigned
	GetResponsible(ctx context.Context) (*models.User, error)

	// RemoveResponsible clears the assignment
	RemoveResponsible(ctx context.Context, actor *models.User) error

	// NotifyNewMail adds the mail to the responsible user's mailbox.
	// It reports false when nobody is responsible.
	NotifyNewMail(ctx context.Context, m *mail.Mail) (bool, error)

	GetNotifications(ctx context.Context, userID int64, unreadOnly bool) ([]mail.NotificationView, error)
	CountUnread(ctx context.Context, userID int64) (int, error)

	// MarkAsRead is idempotent; read_at keeps the first read time
	MarkAsRead(ctx context.Context, mailID, userID int64) error

	// MarkAllAsRead returns how many notifications were flipped
	MarkAllAsRead(ctx context.Context, userID int64) (int, error)
}
