package docsystem

import (
	"context"

	"archivist/internal/domain/models"
	"archivist/internal/domain/models/docsystem"
)

// FolderService handles folder business logic
type FolderService interface {
	// CreateFolder creates a folder under an existing parent (nil = root level)
	CreateFolder(ctx context.Context, actor *models.User, req *CreateFolderRequest) (*docsystem.Folder, error)

	// UpdateFolder edits name, description, icon and display order
	UpdateFolder(ctx context.Context, actor *models.User, id int64, req *UpdateFolderRequest) (*docsystem.Folder, error)

	// DeleteFolder soft-deletes an empty, non-system folder
	DeleteFolder(ctx context.Context, actor *models.User, id int64) error

	// GetFolder retrieves a folder visible to the actor
	GetFolder(ctx context.Context, actor *models.User, id int64) (*docsystem.Folder, error)

	// ListFolders returns every visible folder ordered by path
	ListFolders(ctx context.Context, actor *models.User) ([]docsystem.Folder, error)

	// ListChildren returns the visible children of parentID (nil = root level)
	ListChildren(ctx context.Context, actor *models.User, parentID *int64) ([]docsystem.Folder, error)

	// SearchFolders matches code, name and description
	SearchFolders(ctx context.Context, actor *models.User, term string) ([]docsystem.Folder, error)

	// GetPath returns the breadcrumb from the top of the tree down to the folder
	GetPath(ctx context.Context, actor *models.User, id int64) ([]docsystem.Breadcrumb, error)

	// EnsureSystemFolders creates the reserved folders that are missing
	EnsureSystemFolders(ctx context.Context) error
}

// CreateFolderRequest represents a folder creation request
type CreateFolderRequest struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	ParentID     *int64 `json:"parent_id,omitempty"` // null for root level
	Icon         string `json:"icon"`
	DisplayOrder int    `json:"display_order"`
}

// UpdateFolderRequest represents a folder update request. Nil fields are left unchanged.
type UpdateFolderRequest struct {
	Name         *string `json:"name,omitempty"`
	Description  *string `json:"description,omitempty"`
	Icon         *string `json:"icon,omitempty"`
	DisplayOrder *int    `json:"display_order,omitempty"`
}
