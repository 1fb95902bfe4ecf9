package docsystem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"archivist/internal/catalog"
	"archivist/internal/config"
	"archivist/internal/domain"
	"archivist/internal/domain/models"
	"archivist/internal/domain/models/docsystem"
	"archivist/internal/domain/repositories"
	docsysRepo "archivist/internal/domain/repositories/docsystem"
	"archivist/internal/domain/services"
	docsysSvc "archivist/internal/domain/services/docsystem"
)

var folderCodePattern = regexp.MustCompile(`^[A-Z0-9]+$`)

type folderService struct {
	folderRepo docsysRepo.FolderRepository
	txManager  repositories.TransactionManager
	catalog    *catalog.Registry
	tree       docsysSvc.TreeService
	authorizer services.Authorizer
	audit      services.AuditLogger
	logger     *slog.Logger
}

// NewFolderService creates a new folder service
func NewFolderService(
	folderRepo docsysRepo.FolderRepository,
	txManager repositories.TransactionManager,
	registry *catalog.Registry,
	tree docsysSvc.TreeService,
	authorizer services.Authorizer,
	audit services.AuditLogger,
	logger *slog.Logger,
) docsysSvc.FolderService {
	return &folderService{
		folderRepo: folderRepo,
		txManager:  txManager,
		catalog:    registry,
		tree:       tree,
		authorizer: authorizer,
		audit:      audit,
		logger:     logger,
	}
}

// CreateFolder creates a folder. The parent read, path computation and insert
// share one transaction so the materialized path matches the stored parent.
func (s *folderService) CreateFolder(ctx context.Context, actor *models.User, req *docsysSvc.CreateFolderRequest) (*docsystem.Folder, error) {
	if err := s.authorizer.Require(actor, models.PermFolderCreate, "folder.create"); err != nil {
		return nil, err
	}

	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validateCreateRequest(req); err != nil {
		return nil, err
	}

	var folder *docsystem.Folder
	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		parentPath := ""
		if req.ParentID != nil {
			parent, err := s.folderRepo.GetByID(ctx, *req.ParentID)
			if err != nil {
				return err
			}
			if !s.authorizer.CanAccessFolder(actor, parent) {
				return domain.NewNotFoundError("folder", *req.ParentID)
			}
			parentPath = parent.FullPath
		}

		now := time.Now().UTC()
		folder = &docsystem.Folder{
			Code:         req.Code,
			Name:         req.Name,
			Description:  strings.TrimSpace(req.Description),
			ParentID:     req.ParentID,
			FullPath:     docsystem.BuildFullPath(parentPath, req.Code),
			Icon:         s.catalog.ResolveIcon(req.Icon),
			DisplayOrder: req.DisplayOrder,
			Active:       true,
			CreatedBy:    actor.ID,
			CreatedAt:    now,
			ModifiedAt:   now,
		}
		return s.folderRepo.Create(ctx, folder)
	})
	if err != nil {
		return nil, err
	}

	s.tree.Invalidate(ctx)
	s.audit.Log(ctx, actor.ID, "folder.create", folder.FullPath)
	s.logger.Info("folder created",
		"id", folder.ID,
		"code", folder.Code,
		"path", folder.FullPath,
		"parent_id", folder.ParentID,
		"user_id", actor.ID,
	)

	return folder, nil
}

// UpdateFolder edits display attributes. Code and parent are immutable.
func (s *folderService) UpdateFolder(ctx context.Context, actor *models.User, id int64, req *docsysSvc.UpdateFolderRequest) (*docsystem.Folder, error) {
	if err := s.authorizer.Require(actor, models.PermFolderUpdate, "folder.update"); err != nil {
		return nil, err
	}
	if err := s.validateUpdateRequest(req); err != nil {
		return nil, err
	}

	folder, err := s.getVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		folder.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		folder.Description = strings.TrimSpace(*req.Description)
	}
	if req.Icon != nil {
		folder.Icon = s.catalog.ResolveIcon(*req.Icon)
	}
	if req.DisplayOrder != nil {
		folder.DisplayOrder = *req.DisplayOrder
	}
	folder.ModifiedAt = time.Now().UTC()

	if err := s.folderRepo.Update(ctx, folder); err != nil {
		return nil, err
	}

	s.tree.Invalidate(ctx)
	s.audit.Log(ctx, actor.ID, "folder.update", folder.FullPath)
	s.logger.Info("folder updated", "id", folder.ID, "code", folder.Code, "user_id", actor.ID)

	return folder, nil
}

// DeleteFolder soft-deletes a folder that is neither a system folder nor holds active documents
func (s *folderService) DeleteFolder(ctx context.Context, actor *models.User, id int64) error {
	if err := s.authorizer.Require(actor, models.PermFolderDelete, "folder.delete"); err != nil {
		return err
	}

	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		folder, err := s.folderRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if folder.IsSystem {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("folder %s is a system folder", folder.Code),
				ResourceType: "folder",
				ResourceID:   fmt.Sprint(id),
			}
		}

		count, err := s.folderRepo.CountActiveDocuments(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("folder %s still contains %d document(s)", folder.Code, count),
				ResourceType: "folder",
				ResourceID:   fmt.Sprint(id),
			}
		}

		children, err := s.folderRepo.ListChildren(ctx, &id)
		if err != nil {
			return err
		}
		if len(children) > 0 {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("folder %s still has %d subfolder(s)", folder.Code, len(children)),
				ResourceType: "folder",
				ResourceID:   fmt.Sprint(id),
			}
		}

		return s.folderRepo.SoftDelete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.tree.Invalidate(ctx)
	s.audit.Log(ctx, actor.ID, "folder.delete", fmt.Sprint(id))
	s.logger.Info("folder deleted", "id", id, "user_id", actor.ID)
	return nil
}

// GetFolder retrieves a folder with its document count
func (s *folderService) GetFolder(ctx context.Context, actor *models.User, id int64) (*docsystem.Folder, error) {
	folder, err := s.getVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	count, err := s.folderRepo.CountActiveDocuments(ctx, id)
	if err != nil {
		return nil, err
	}
	folder.DocumentCount = count
	return folder, nil
}

func (s *folderService) ListFolders(ctx context.Context, actor *models.User) ([]docsystem.Folder, error) {
	folders, err := s.folderRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.visible(actor, folders), nil
}

func (s *folderService) ListChildren(ctx context.Context, actor *models.User, parentID *int64) ([]docsystem.Folder, error) {
	if parentID != nil {
		if _, err := s.getVisible(ctx, actor, *parentID); err != nil {
			return nil, err
		}
	}

	folders, err := s.folderRepo.ListChildren(ctx, parentID)
	if err != nil {
		return nil, err
	}
	return s.visible(actor, folders), nil
}

func (s *folderService) SearchFolders(ctx context.Context, actor *models.User, term string) ([]docsystem.Folder, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []docsystem.Folder{}, nil
	}
	if len(term) > config.MaxSearchTermLength {
		return nil, domain.NewValidationError("q", fmt.Sprintf("must be at most %d characters", config.MaxSearchTermLength))
	}

	folders, err := s.folderRepo.Search(ctx, term)
	if err != nil {
		return nil, err
	}
	return s.visible(actor, folders), nil
}

// GetPath walks parent links up to the top and returns the breadcrumb top-down
func (s *folderService) GetPath(ctx context.Context, actor *models.User, id int64) ([]docsystem.Breadcrumb, error) {
	folder, err := s.getVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	path := []docsystem.Breadcrumb{{ID: folder.ID, Code: folder.Code, Name: folder.Name}}
	seen := map[int64]bool{folder.ID: true}

	for current := folder; current.ParentID != nil; {
		parentID := *current.ParentID
		if seen[parentID] {
			return nil, &domain.ConflictError{
				Message:      fmt.Sprintf("folder %d has a cyclic ancestry", id),
				ResourceType: "folder",
				ResourceID:   fmt.Sprint(id),
			}
		}
		seen[parentID] = true

		parent, err := s.folderRepo.GetByID(ctx, parentID)
		if err != nil {
			return nil, err
		}
		path = append(path, docsystem.Breadcrumb{ID: parent.ID, Code: parent.Code, Name: parent.Name})
		current = parent
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	// Root-level folders hang under the ROOT system folder by path, not by parent link
	if path[0].Code != docsystem.RootFolderCode {
		root, err := s.folderRepo.GetByCode(ctx, docsystem.RootFolderCode)
		switch {
		case err == nil:
			path = append([]docsystem.Breadcrumb{{ID: root.ID, Code: root.Code, Name: root.Name}}, path...)
		case !errors.Is(err, domain.ErrNotFound):
			return nil, err
		}
	}
	return path, nil
}

// EnsureSystemFolders creates any catalog system folder that does not exist yet
func (s *folderService) EnsureSystemFolders(ctx context.Context) error {
	created := 0
	for _, sf := range s.catalog.SystemFolders() {
		_, err := s.folderRepo.GetByCode(ctx, sf.Code)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("look up system folder %s: %w", sf.Code, err)
		}

		now := time.Now().UTC()
		folder := &docsystem.Folder{
			Code:         sf.Code,
			Name:         sf.Name,
			Description:  sf.Description,
			FullPath:     docsystem.BuildFullPath("", sf.Code),
			Icon:         s.catalog.ResolveIcon(sf.Icon),
			DisplayOrder: sf.DisplayOrder,
			Active:       true,
			IsSystem:     true,
			CreatedAt:    now,
			ModifiedAt:   now,
		}
		if err := s.folderRepo.Create(ctx, folder); err != nil {
			return fmt.Errorf("create system folder %s: %w", sf.Code, err)
		}
		created++
		s.logger.Info("system folder created", "code", folder.Code, "id", folder.ID)
	}

	if created > 0 {
		s.tree.Invalidate(ctx)
	}
	return nil
}

// getVisible loads a folder and reports it missing when the actor may not see it
func (s *folderService) getVisible(ctx context.Context, actor *models.User, id int64) (*docsystem.Folder, error) {
	folder, err := s.folderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.authorizer.CanAccessFolder(actor, folder) {
		return nil, domain.NewNotFoundError("folder", id)
	}
	return folder, nil
}

func (s *folderService) visible(actor *models.User, folders []docsystem.Folder) []docsystem.Folder {
	out := make([]docsystem.Folder, 0, len(folders))
	for i := range folders {
		if s.authorizer.CanAccessFolder(actor, &folders[i]) {
			out = append(out, folders[i])
		}
	}
	return out
}

func (s *folderService) validateCreateRequest(req *docsysSvc.CreateFolderRequest) error {
	return ToValidationError(validation.ValidateStruct(req,
		validation.Field(&req.Code,
			validation.Required,
			validation.Length(config.MinFolderCodeLength, config.MaxFolderCodeLength),
			validation.Match(folderCodePattern).Error("must contain only A-Z and 0-9"),
		),
		validation.Field(&req.Name,
			validation.Required,
			validation.Length(1, config.MaxFolderNameLength),
		),
		validation.Field(&req.ParentID, validation.When(req.ParentID != nil, validation.Min(int64(1)))),
	))
}

func (s *folderService) validateUpdateRequest(req *docsysSvc.UpdateFolderRequest) error {
	if req.Name == nil && req.Description == nil && req.Icon == nil && req.DisplayOrder == nil {
		return domain.NewValidationError("", "at least one field must be provided")
	}

	rules := []*validation.FieldRules{}
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		req.Name = &trimmed
		rules = append(rules,
			validation.Field(&req.Name,
				validation.Required,
				validation.Length(1, config.MaxFolderNameLength),
			),
		)
	}

	return ToValidationError(validation.ValidateStruct(req, rules...))
}
