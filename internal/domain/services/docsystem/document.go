package docsystem

import (
	"context"
	"time"

	"archivist/internal/domain/models"
	"archivist/internal/domain/models/docsystem"
)

// DocumentService handles document business logic
type DocumentService interface {
	// CreateDocument imports a local file and records the document
	CreateDocument(ctx context.Context, actor *models.User, req *CreateDocumentRequest) (*docsystem.Document, error)

	// GetDocument retrieves a non-deleted document visible to the actor
	GetDocument(ctx context.Context, actor *models.User, id int64) (*docsystem.Document, error)

	// UpdateDocument edits metadata only, never file content
	UpdateDocument(ctx context.Context, actor *models.User, id int64, req *UpdateDocumentRequest) (*docsystem.Document, error)

	// MoveDocument files the document in another folder (nil = unfiled)
	MoveDocument(ctx context.Context, actor *models.User, id int64, folderID *int64) (*docsystem.Document, error)

	// DeleteDocument soft-deletes a document
	DeleteDocument(ctx context.Context, actor *models.User, id int64) error

	// RestoreDocument brings a soft-deleted document back to active
	RestoreDocument(ctx context.Context, actor *models.User, id int64) (*docsystem.Document, error)

	// PurgeDocument removes the document, its history and its stored file
	PurgeDocument(ctx context.Context, actor *models.User, id int64) error

	// ListDocuments lists visible non-deleted documents
	ListDocuments(ctx context.Context, actor *models.User, req *ListDocumentsRequest) ([]docsystem.Document, error)

	// SearchDocuments matches code, title, description and keywords
	SearchDocuments(ctx context.Context, actor *models.User, term string, limit int) ([]docsystem.Document, error)

	// GetHistory returns a document's activity entries
	GetHistory(ctx context.Context, actor *models.User, id int64) ([]docsystem.DocumentActivity, error)
}

// DocumentArchiver is the slice of document behavior the mail workflow needs
// when archiving. It must be called inside the caller's transaction.
type DocumentArchiver interface {
	ArchiveInto(ctx context.Context, documentID, folderID, userID int64, at time.Time) error
}

// CreateDocumentRequest represents a document creation request.
// SourcePath and FileName are filled by the transport layer after it has
// received or resolved the file; clients never name server paths directly.
type CreateDocumentRequest struct {
	Title        string `json:"title"`
	FolderID     *int64 `json:"folder_id,omitempty"`
	DocumentType string `json:"document_type"`
	SourcePath   string `json:"-"` // local file to import
	FileName     string `json:"-"` // name recorded as the document's file_path
	Description  string `json:"description"`
	Keywords     string `json:"keywords"`
	Confidential bool   `json:"confidential"`
	Draft        bool   `json:"draft"`
}

// UpdateDocumentRequest represents a metadata update. Nil fields are left unchanged.
type UpdateDocumentRequest struct {
	Title        *string `json:"title,omitempty"`
	DocumentType *string `json:"document_type,omitempty"`
	Description  *string `json:"description,omitempty"`
	Keywords     *string `json:"keywords,omitempty"`
	Confidential *bool   `json:"confidential,omitempty"`
	Status       *string `json:"status,omitempty"` // active or draft
}

// ListDocumentsRequest narrows a document listing
type ListDocumentsRequest struct {
	FolderID *int64 `json:"folder_id,omitempty"`
	Status   string `json:"status,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}
