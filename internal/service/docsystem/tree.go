package docsystem

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"archivist/internal/cache"
	"archivist/internal/domain/models"
	"archivist/internal/domain/models/docsystem"
	docsysRepo "archivist/internal/domain/repositories/docsystem"
	"archivist/internal/domain/services"
	docsysSvc "archivist/internal/domain/services/docsystem"
)

// treeService implements the TreeService interface
type treeService struct {
	folderRepo docsysRepo.FolderRepository
	cache      services.Cache
	ttl        time.Duration
	authorizer services.Authorizer
	logger     *slog.Logger
}

// NewTreeService creates a new tree service. The flat folder listing is
// cached for ttl; visibility filtering happens per request.
func NewTreeService(
	folderRepo docsysRepo.FolderRepository,
	c services.Cache,
	ttl time.Duration,
	authorizer services.Authorizer,
	logger *slog.Logger,
) docsysSvc.TreeService {
	return &treeService{
		folderRepo: folderRepo,
		cache:      c,
		ttl:        ttl,
		authorizer: authorizer,
		logger:     logger,
	}
}

// GetTree builds the nested folder tree under a synthetic root node
func (s *treeService) GetTree(ctx context.Context, actor *models.User) (*docsystem.FolderTreeNode, error) {
	folders, err := s.loadFolders(ctx)
	if err != nil {
		return nil, err
	}

	root := &docsystem.FolderTreeNode{
		ID:       docsystem.RootNodeID,
		Name:     docsystem.RootFolderCode,
		FullPath: "/",
		Children: []*docsystem.FolderTreeNode{},
	}

	// First pass: create a node for every visible folder
	nodes := make(map[int64]*docsystem.FolderTreeNode, len(folders))
	for i := range folders {
		f := &folders[i]
		if !s.authorizer.CanAccessFolder(actor, f) {
			continue
		}
		nodes[f.ID] = &docsystem.FolderTreeNode{
			ID:            f.ID,
			Code:          f.Code,
			Name:          f.Name,
			Icon:          f.Icon,
			ParentID:      f.ParentID,
			FullPath:      f.FullPath,
			DisplayOrder:  f.DisplayOrder,
			IsSystem:      f.IsSystem,
			DocumentCount: f.DocumentCount,
			Children:      []*docsystem.FolderTreeNode{},
		}
	}

	// Second pass: attach children to parents. A folder whose parent is
	// hidden is dropped along with its subtree.
	for i := range folders {
		node, ok := nodes[folders[i].ID]
		if !ok {
			continue
		}
		if node.ParentID == nil {
			root.Children = append(root.Children, node)
			continue
		}
		if parent, ok := nodes[*node.ParentID]; ok {
			parent.Children = append(parent.Children, node)
		}
	}

	// Third pass: order siblings
	sortTree(root)

	s.logger.Debug("folder tree built", "folders", root.Count(), "user_id", userID(actor))
	return root, nil
}

// Invalidate drops the cached folder listing
func (s *treeService) Invalidate(ctx context.Context) {
	if err := s.cache.Delete(ctx, cache.TreeKey); err != nil {
		s.logger.Warn("failed to invalidate folder tree cache", "error", err)
	}
}

func (s *treeService) loadFolders(ctx context.Context) ([]docsystem.Folder, error) {
	var folders []docsystem.Folder
	found, err := s.cache.Get(ctx, cache.TreeKey, &folders)
	if err != nil {
		s.logger.Warn("folder tree cache read failed", "error", err)
	} else if found {
		return folders, nil
	}

	folders, err = s.folderRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, cache.TreeKey, folders, s.ttl); err != nil {
		s.logger.Warn("folder tree cache write failed", "error", err)
	}
	return folders, nil
}

func sortTree(node *docsystem.FolderTreeNode) {
	sort.SliceStable(node.Children, func(i, j int) bool {
		a, b := node.Children[i], node.Children[j]
		if a.DisplayOrder != b.DisplayOrder {
			return a.DisplayOrder < b.DisplayOrder
		}
		return a.Code < b.Code
	})
	for _, child := range node.Children {
		sortTree(child)
	}
}

func userID(u *models.User) int64 {
	if u == nil {
		return 0
	}
	return u.ID
}
