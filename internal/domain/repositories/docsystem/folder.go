package docsystem

import (
	"context"

	"archivist/internal/domain/models/docsystem"
)

// FolderRepository defines data access operations for folders.
// Every read excludes inactive (soft-deleted) folders.
type FolderRepository interface {
	// Create inserts a folder and fills ID and timestamps.
	// An active folder with the same code yields a ConflictError.
	Create(ctx context.Context, folder *docsystem.Folder) error

	// GetByID retrieves an active folder
	GetByID(ctx context.Context, id int64) (*docsystem.Folder, error)

	// GetByCode retrieves an active folder by its unique code
	GetByCode(ctx context.Context, code string) (*docsystem.Folder, error)

	// Update persists name, description, icon and display order
	Update(ctx context.Context, folder *docsystem.Folder) error

	// SoftDelete marks a folder inactive
	SoftDelete(ctx context.Context, id int64) error

	// ListAll returns every active folder with its document count,
	// ordered by full path then display order
	ListAll(ctx context.Context) ([]docsystem.Folder, error)

	// ListChildren returns the active children of parentID (nil = root level)
	ListChildren(ctx context.Context, parentID *int64) ([]docsystem.Folder, error)

	// Search matches the term against code, name and description
	Search(ctx context.Context, term string) ([]docsystem.Folder, error)

	// CountActiveDocuments counts non-deleted documents filed in the folder
	CountActiveDocuments(ctx context.Context, folderID int64) (int, error)
}
