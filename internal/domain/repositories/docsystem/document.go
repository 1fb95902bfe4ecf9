package docsystem

import (
	"context"
	"time"

	"archivist/internal/domain/models/docsystem"
)

// DocumentFilter narrows document listings. Deleted documents are never listed.
type DocumentFilter struct {
	FolderID *int64
	Status   docsystem.DocumentStatus // empty = any non-deleted status
	Limit    int
	Offset   int
}

// DocumentRepository defines data access operations for documents
type DocumentRepository interface {
	// Create inserts a document and fills ID and timestamps.
	// A duplicate code yields a ConflictError.
	Create(ctx context.Context, doc *docsystem.Document) error

	// GetByID retrieves a document in any status, including deleted
	GetByID(ctx context.Context, id int64) (*docsystem.Document, error)

	// Update persists the metadata fields of a document
	Update(ctx context.Context, doc *docsystem.Document) error

	// SetServerPath records where the document's file was stored
	SetServerPath(ctx context.Context, id int64, serverPath string) error

	// SetStatus changes the lifecycle status of a document
	SetStatus(ctx context.Context, id int64, status docsystem.DocumentStatus, userID int64) error

	// Move files the document under folderID (nil = unfiled)
	Move(ctx context.Context, id int64, folderID *int64, userID int64) error

	// Archive flips the document to archived inside the destination folder
	Archive(ctx context.Context, id, folderID int64, at time.Time, userID int64) error

	// HardDelete removes the document along with its activity and version rows
	HardDelete(ctx context.Context, id int64) error

	// List returns non-deleted documents matching the filter, newest first
	List(ctx context.Context, filter DocumentFilter) ([]docsystem.Document, error)

	// Search matches the term against code, title, description and keywords
	Search(ctx context.Context, term string, limit int) ([]docsystem.Document, error)

	// AddActivity appends a history entry
	AddActivity(ctx context.Context, activity *docsystem.DocumentActivity) error

	// ListActivities returns a document's history, newest first
	ListActivities(ctx context.Context, documentID int64) ([]docsystem.DocumentActivity, error)

	// AddVersion records a stored file revision
	AddVersion(ctx context.Context, version *docsystem.DocumentVersion) error
}
