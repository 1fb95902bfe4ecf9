package docsystem

import (
	"time"
)

// Reserved folder codes
const (
	RootFolderCode         = "ROOT"
	TrashFolderCode        = "TRASH"
	ConfidentialFolderCode = "CONFIDENTIAL"
	ArchivesFolderCode     = "ARCHIVES"
)

// DefaultFolderIcon is used when a folder has no icon or an unknown one
const DefaultFolderIcon = "folder"

type Folder struct {
	ID           int64     `json:"id" db:"id"`
	Code         string    `json:"code" db:"code"`
	Name         string    `json:"name" db:"name"`
	Description  string    `json:"description" db:"description"`
	ParentID     *int64    `json:"parent_id" db:"parent_id"` // NULL = root level
	FullPath     string    `json:"full_path" db:"full_path"` // Materialized, e.g. /ROOT/OPS/HR
	Icon         string    `json:"icon" db:"icon"`
	DisplayOrder int       `json:"display_order" db:"display_order"`
	Active       bool      `json:"active" db:"active"`
	IsSystem     bool      `json:"is_system" db:"is_system"`
	CreatedBy    int64     `json:"created_by" db:"created_by"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	ModifiedAt   time.Time `json:"modified_at" db:"modified_at"`

	DocumentCount int `json:"document_count"` // Computed by read-side join, not stored
}

// IsConfidential reports whether the folder is the reserved confidential folder
func (f *Folder) IsConfidential() bool {
	return f.Code == ConfidentialFolderCode
}

// BuildFullPath materializes a folder path from its parent's path and its own code.
// Root-level folders hang under /ROOT; the ROOT folder itself is /ROOT.
func BuildFullPath(parentPath, code string) string {
	if parentPath == "" {
		if code == RootFolderCode {
			return "/" + RootFolderCode
		}
		return "/" + RootFolderCode + "/" + code
	}
	return parentPath + "/" + code
}

// Breadcrumb is one element of a folder's path from the top of the tree
type Breadcrumb struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}
