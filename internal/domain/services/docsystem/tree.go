package docsystem

import (
	"context"

	"archivist/internal/domain/models"
	"archivist/internal/domain/models/docsystem"
)

// TreeService defines operations for building the folder display tree
type TreeService interface {
	// GetTree returns the visible folders nested under a synthetic root node
	GetTree(ctx context.Context, actor *models.User) (*docsystem.FolderTreeNode, error)

	// Invalidate drops any cached tree after a structural change
	Invalidate(ctx context.Context)
}
