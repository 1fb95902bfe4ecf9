package docsystem

// RootNodeID is the ID of the synthetic node at the top of the display tree
const RootNodeID int64 = 0

// FolderTreeNode represents a folder in the display tree with nested children.
// The top node is synthetic (ID 0) and holds the root-level folders.
type FolderTreeNode struct {
	ID            int64             `json:"id"`
	Code          string            `json:"code"`
	Name          string            `json:"name"`
	Icon          string            `json:"icon"`
	ParentID      *int64            `json:"parent_id"`
	FullPath      string            `json:"full_path"`
	DisplayOrder  int               `json:"display_order"`
	IsSystem      bool              `json:"is_system"`
	DocumentCount int               `json:"document_count"`
	Children      []*FolderTreeNode `json:"children"` // Pointers for proper nesting
}

// Count returns the number of real folders in the subtree, excluding the synthetic root
func (n *FolderTreeNode) Count() int {
	total := 0
	for _, child := range n.Children {
		total += 1 + child.Count()
	}
	return total
}
