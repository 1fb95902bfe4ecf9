package services

import (
	"archivist/internal/domain/models"
	"archivist/internal/domain/models/docsystem"
	"archivist/internal/domain/models/mail"
)

// Authorizer checks what an acting user may do.
// Services call it before touching a resource so that permission
// rules live in one place.
type Authorizer interface {
	// Require returns a PermissionError when the user lacks perm
	Require(user *models.User, perm models.Permission, action string) error

	// CanAccessFolder reports whether the folder is visible to the user
	CanAccessFolder(user *models.User, folder *docsystem.Folder) bool

	// CanAccessDocument reports whether the document is visible to the user
	CanAccessDocument(user *models.User, doc *docsystem.Document) bool

	// CanAccessMail reports whether the mail record is visible to the user
	CanAccessMail(user *models.User, m *mail.Mail) bool
}
