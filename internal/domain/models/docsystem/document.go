package docsystem

import (
	"time"
)

// DocumentStatus is the lifecycle state of a document
type DocumentStatus string

const (
	DocumentStatusActive   DocumentStatus = "active"
	DocumentStatusDraft    DocumentStatus = "draft"
	DocumentStatusArchived DocumentStatus = "archived"
	DocumentStatusDeleted  DocumentStatus = "deleted" // soft-delete marker
)

// Valid reports whether s is a known status
func (s DocumentStatus) Valid() bool {
	switch s {
	case DocumentStatusActive, DocumentStatusDraft, DocumentStatusArchived, DocumentStatusDeleted:
		return true
	}
	return false
}

// IsDeleted reports whether the document is soft-deleted
func (s DocumentStatus) IsDeleted() bool {
	return s == DocumentStatusDeleted
}

type Document struct {
	ID           int64          `json:"id" db:"id"`
	Code         string         `json:"code" db:"code"`
	FolderID     *int64         `json:"folder_id" db:"folder_id"` // NULL = unfiled
	Title        string         `json:"title" db:"title"`
	DocumentType string         `json:"document_type" db:"document_type"`
	FilePath     string         `json:"file_path" db:"file_path"`     // Original file name
	ServerPath   string         `json:"server_path" db:"server_path"` // Durable storage path
	FileSize     int64          `json:"file_size" db:"file_size"`
	Extension    string         `json:"extension" db:"extension"`
	MimeType     string         `json:"mime_type" db:"mime_type"`
	Description  string         `json:"description" db:"description"`
	Keywords     string         `json:"keywords" db:"keywords"` // Comma-separated
	FileHash     string         `json:"file_hash" db:"file_hash"`
	Confidential bool           `json:"confidential" db:"confidential"`
	Status       DocumentStatus `json:"status" db:"status"`
	Archived     bool           `json:"archived" db:"archived"`
	ArchivedAt   *time.Time     `json:"archived_at,omitempty" db:"archived_at"`
	CreatedBy    int64          `json:"created_by" db:"created_by"`
	ModifiedBy   *int64         `json:"modified_by,omitempty" db:"modified_by"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	ModifiedAt   time.Time      `json:"modified_at" db:"modified_at"`

	// Read-side join fields, not stored
	AuthorName string `json:"author_name,omitempty"`
	FolderCode string `json:"folder_code,omitempty"`
	FolderName string `json:"folder_name,omitempty"`
	FolderIcon string `json:"folder_icon,omitempty"`
}

// Activity actions recorded against documents
const (
	ActivityCreate  = "CREATE"
	ActivityUpdate  = "UPDATE"
	ActivityMove    = "MOVE"
	ActivityDelete  = "DELETE"
	ActivityRestore = "RESTORE"
	ActivityArchive = "ARCHIVE"
)

// DocumentActivity is one entry of a document's history
type DocumentActivity struct {
	ID         int64     `json:"id" db:"id"`
	DocumentID int64     `json:"document_id" db:"document_id"`
	UserID     int64     `json:"user_id" db:"user_id"`
	Action     string    `json:"action" db:"action"`
	Detail     string    `json:"detail" db:"detail"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// DocumentVersion records a stored file revision
type DocumentVersion struct {
	ID         int64     `json:"id" db:"id"`
	DocumentID int64     `json:"document_id" db:"document_id"`
	Version    int       `json:"version" db:"version"`
	ServerPath string    `json:"server_path" db:"server_path"`
	FileHash   string    `json:"file_hash" db:"file_hash"`
	FileSize   int64     `json:"file_size" db:"file_size"`
	CreatedBy  int64     `json:"created_by" db:"created_by"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
