package docsystem

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildFullPath(t *testing.T) {
	assert.Equal(t, "/ROOT/OPS", BuildFullPath("", "OPS"))
	assert.Equal(t, "/ROOT/OPS/HR", BuildFullPath("/ROOT/OPS", "HR"))
	assert.Equal(t, "/ROOT", BuildFullPath("", RootFolderCode))
}

func TestDocumentStatus(t *testing.T) {
	assert.True(t, DocumentStatusDraft.Valid())
	assert.False(t, DocumentStatus("pending").Valid())
	assert.True(t, DocumentStatusDeleted.IsDeleted())
	assert.False(t, DocumentStatusArchived.IsDeleted())
}

func TestFolderTreeNode_Count(t *testing.T) {
	root := &FolderTreeNode{ID: RootNodeID, Children: []*FolderTreeNode{
		{ID: 1, Children: []*FolderTreeNode{{ID: 3}, {ID: 4}}},
		{ID: 2},
	}}
	assert.Equal(t, 4, root.Count())
}

func TestFolder_IsConfidential(t *testing.T) {
	assert.True(t, (&Folder{Code: ConfidentialFolderCode}).IsConfidential())
	assert.False(t, (&Folder{Code: "OPS"}).IsConfidential())
}
