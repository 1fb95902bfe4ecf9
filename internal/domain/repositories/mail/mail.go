package mail

import (
	"context"
	"time"

	"archivist/internal/domain/models/mail"
)

// MailFilter narrows mail listings
type MailFilter struct {
	Status *mail.Status
	Limit  int
	Offset int
}

// MailRepository defines data access operations for mail records
type MailRepository interface {
	// Create inserts a mail record and fills ID and timestamps.
	// A duplicate code yields a ConflictError.
	Create(ctx context.Context, m *mail.Mail) error

	// GetByID retrieves a mail record joined with its document code and title
	GetByID(ctx context.Context, id int64) (*mail.Mail, error)

	// Update persists the editable fields of a mail record that is not ARCHIVED
	Update(ctx context.Context, m *mail.Mail) error

	// UpdateStatus moves the mail from status from to status to. When the stored
	// status is no longer from, nothing is written and a ConflictError carrying
	// the current status is returned.
	UpdateStatus(ctx context.Context, id int64, from, to mail.Status) error

	// MarkArchived moves a PROCESSED mail to ARCHIVED and stamps archived_at,
	// with the same ConflictError contract as UpdateStatus
	MarkArchived(ctx context.Context, id int64, at time.Time) error

	// List returns mail records, newest first
	List(ctx context.Context, filter MailFilter) ([]mail.Mail, error)

	// Search matches the term against code, subject, sender and recipient
	Search(ctx context.Context, term string) ([]mail.Mail, error)
}
