package mail

import (
	"context"
	"time"

	"archivist/internal/domain/models"
	"archivist/internal/domain/models/mail"
)

// WorkflowService owns the mail lifecycle
type WorkflowService interface {
	// CreateMail records a mail bound to an existing document and notifies the responsible user
	CreateMail(ctx context.Context, actor *models.User, req *CreateMailRequest) (*mail.Mail, error)

	// UpdateMail edits the descriptive fields of a mail that is not archived
	UpdateMail(ctx context.Context, actor *models.User, id int64, req *UpdateMailRequest) (*mail.Mail, error)

	// UpdateStatus moves a mail one step forward in its lifecycle
	UpdateStatus(ctx context.Context, actor *models.User, id int64, status mail.Status) (*mail.Mail, error)

	// Archive files the mail's document into a folder and closes the mail
	Archive(ctx context.Context, actor *models.User, id, destinationFolderID int64) (*mail.Mail, error)

	GetMail(ctx context.Context, actor *models.User, id int64) (*mail.Mail, error)
	ListMails(ctx context.Context, actor *models.User, req *ListMailsRequest) ([]mail.Mail, error)
	GetByStatus(ctx context.Context, actor *models.User, status mail.Status) ([]mail.Mail, error)
	SearchMails(ctx context.Context, actor *models.User, term string) ([]mail.Mail, error)
	GetReadyForArchival(ctx context.Context, actor *models.User) ([]mail.Mail, error)
}

// CreateMailRequest represents a mail creation request
type CreateMailRequest struct {
	DocumentID   int64         `json:"document_id"`
	Type         mail.MailType `json:"type"`
	Subject      string        `json:"subject"`
	Sender       string        `json:"sender"`
	Recipient    string        `json:"recipient"`
	Reference    string        `json:"reference"`
	MailDate     *time.Time    `json:"mail_date,omitempty"`
	Priority     mail.Priority `json:"priority"`
	Observations string        `json:"observations"`
	Confidential bool          `json:"confidential"`
}

// UpdateMailRequest represents a mail update. Nil fields are left unchanged.
type UpdateMailRequest struct {
	Subject      *string        `json:"subject,omitempty"`
	Sender       *string        `json:"sender,omitempty"`
	Recipient    *string        `json:"recipient,omitempty"`
	Reference    *string        `json:"reference,omitempty"`
	Priority     *mail.Priority `json:"priority,omitempty"`
	Observations *string        `json:"observations,omitempty"`
	Confidential *bool          `json:"confidential,omitempty"`
}

// ListMailsRequest narrows a mail listing
type ListMailsRequest struct {
	Status string `json:"status,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}
