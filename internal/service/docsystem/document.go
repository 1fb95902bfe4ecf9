package docsystem

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"archivist/internal/config"
	"archivist/internal/domain"
	"archivist/internal/domain/models"
	"archivist/internal/domain/models/docsystem"
	"archivist/internal/domain/repositories"
	docsysRepo "archivist/internal/domain/repositories/docsystem"
	"archivist/internal/domain/services"
	docsysSvc "archivist/internal/domain/services/docsystem"
)

// documentService implements the DocumentService interface
type documentService struct {
	docRepo    docsysRepo.DocumentRepository
	folderRepo docsysRepo.FolderRepository
	codes      docsysSvc.CodeGenerator
	storage    services.FileStorage
	txManager  repositories.TransactionManager
	tree       docsysSvc.TreeService
	authorizer services.Authorizer
	audit      services.AuditLogger
	logger     *slog.Logger
	now        func() time.Time
}

// NewDocumentService creates a new document service
func NewDocumentService(
	docRepo docsysRepo.DocumentRepository,
	folderRepo docsysRepo.FolderRepository,
	codes docsysSvc.CodeGenerator,
	storage services.FileStorage,
	txManager repositories.TransactionManager,
	tree docsysSvc.TreeService,
	authorizer services.Authorizer,
	audit services.AuditLogger,
	logger *slog.Logger,
) docsysSvc.DocumentService {
	return &documentService{
		docRepo:    docRepo,
		folderRepo: folderRepo,
		codes:      codes,
		storage:    storage,
		txManager:  txManager,
		tree:       tree,
		authorizer: authorizer,
		audit:      audit,
		logger:     logger,
		now:        time.Now,
	}
}

// CreateDocument imports a local file. The document row claims its code before
// the file is stored, so a code collision never touches another document's file.
func (s *documentService) CreateDocument(ctx context.Context, actor *models.User, req *docsysSvc.CreateDocumentRequest) (*docsystem.Document, error) {
	if err := s.authorizer.Require(actor, models.PermDocumentWrite, "document.create"); err != nil {
		return nil, err
	}

	req.Title = strings.TrimSpace(req.Title)
	if err := s.validateCreateRequest(req); err != nil {
		return nil, err
	}
	if !s.storage.LocalExists(req.SourcePath) {
		return nil, domain.NewValidationError("source_path", "file does not exist")
	}

	var folder *docsystem.Folder
	if req.FolderID != nil {
		f, err := s.visibleFolder(ctx, actor, *req.FolderID)
		if err != nil {
			return nil, err
		}
		folder = f
	}

	doc, err := s.describeFile(req.SourcePath)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	doc.FolderID = req.FolderID
	doc.Title = req.Title
	doc.DocumentType = strings.TrimSpace(req.DocumentType)
	doc.FilePath = req.FileName
	if doc.FilePath == "" {
		doc.FilePath = filepath.Base(req.SourcePath)
	}
	doc.Description = strings.TrimSpace(req.Description)
	doc.Keywords = normalizeKeywords(req.Keywords)
	doc.Confidential = req.Confidential || (folder != nil && folder.IsConfidential())
	doc.Status = docsystem.DocumentStatusActive
	if req.Draft {
		doc.Status = docsystem.DocumentStatusDraft
	}
	doc.CreatedBy = actor.ID
	doc.CreatedAt = now
	doc.ModifiedAt = now

	next := func(ctx context.Context) (string, error) {
		if folder == nil {
			return s.codes.FallbackDocumentCode(s.now()), nil
		}
		return s.codes.NextDocumentCode(ctx, folder.ID, now.Year())
	}

	_, err = WithUniqueCode(ctx, s.logger, next, func(ctx context.Context, code string) error {
		doc.Code = code
		return s.insertDocument(ctx, actor, doc, req.SourcePath)
	})
	if err != nil {
		return nil, err
	}

	s.tree.Invalidate(ctx)
	s.audit.Log(ctx, actor.ID, "document.create", doc.Code)
	s.logger.Info("document created",
		"id", doc.ID,
		"code", doc.Code,
		"folder_id", doc.FolderID,
		"server_path", doc.ServerPath,
		"user_id", actor.ID,
	)

	if folder != nil {
		doc.FolderCode = folder.Code
		doc.FolderName = folder.Name
		doc.FolderIcon = folder.Icon
	}
	doc.AuthorName = actor.DisplayName()
	return doc, nil
}

// insertDocument persists the row, stores the file at sourcePath and records
// version 1. A stored file is removed again when the transaction fails.
func (s *documentService) insertDocument(ctx context.Context, actor *models.User, doc *docsystem.Document, sourcePath string) error {
	serverPath := ""
	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if err := s.docRepo.Create(ctx, doc); err != nil {
			return err
		}

		stored, err := s.storage.Store(ctx, sourcePath, doc.Code)
		if err != nil {
			return err
		}
		serverPath = stored

		if err := s.docRepo.SetServerPath(ctx, doc.ID, serverPath); err != nil {
			return err
		}

		if err := s.docRepo.AddVersion(ctx, &docsystem.DocumentVersion{
			DocumentID: doc.ID,
			Version:    1,
			ServerPath: serverPath,
			FileHash:   doc.FileHash,
			FileSize:   doc.FileSize,
			CreatedBy:  actor.ID,
			CreatedAt:  doc.CreatedAt,
		}); err != nil {
			return err
		}

		return s.docRepo.AddActivity(ctx, &docsystem.DocumentActivity{
			DocumentID: doc.ID,
			UserID:     actor.ID,
			Action:     docsystem.ActivityCreate,
			Detail:     doc.Title,
			CreatedAt:  doc.CreatedAt,
		})
	})
	if err != nil {
		if serverPath != "" {
			s.removeFile(ctx, serverPath)
		}
		return err
	}

	doc.ServerPath = serverPath
	return nil
}

// GetDocument retrieves a non-deleted document
func (s *documentService) GetDocument(ctx context.Context, actor *models.User, id int64) (*docsystem.Document, error) {
	return s.getLive(ctx, actor, id)
}

// UpdateDocument edits metadata. Archived documents keep their status.
func (s *documentService) UpdateDocument(ctx context.Context, actor *models.User, id int64, req *docsysSvc.UpdateDocumentRequest) (*docsystem.Document, error) {
	if err := s.authorizer.Require(actor, models.PermDocumentWrite, "document.update"); err != nil {
		return nil, err
	}
	if err := s.validateUpdateRequest(req); err != nil {
		return nil, err
	}

	doc, err := s.getLive(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if req.Status != nil {
		if doc.Status == docsystem.DocumentStatusArchived {
			return nil, &domain.ConflictError{
				Message:      fmt.Sprintf("document %s is archived", doc.Code),
				ResourceType: "document",
				ResourceID:   fmt.Sprint(id),
				State:        string(doc.Status),
			}
		}
		doc.Status = docsystem.DocumentStatus(*req.Status)
	}
	if req.Title != nil {
		doc.Title = *req.Title
	}
	if req.DocumentType != nil {
		doc.DocumentType = strings.TrimSpace(*req.DocumentType)
	}
	if req.Description != nil {
		doc.Description = strings.TrimSpace(*req.Description)
	}
	if req.Keywords != nil {
		doc.Keywords = normalizeKeywords(*req.Keywords)
	}
	if req.Confidential != nil {
		doc.Confidential = *req.Confidential
	}
	doc.ModifiedBy = &actor.ID
	doc.ModifiedAt = s.now().UTC()

	err = s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if err := s.docRepo.Update(ctx, doc); err != nil {
			return err
		}
		return s.addActivity(ctx, doc.ID, actor.ID, docsystem.ActivityUpdate, doc.Title)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("document updated", "id", doc.ID, "code", doc.Code, "user_id", actor.ID)
	return doc, nil
}

// MoveDocument files a document under another folder, or unfiles it when folderID is nil
func (s *documentService) MoveDocument(ctx context.Context, actor *models.User, id int64, folderID *int64) (*docsystem.Document, error) {
	if err := s.authorizer.Require(actor, models.PermDocumentWrite, "document.move"); err != nil {
		return nil, err
	}

	doc, err := s.getLive(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if doc.Status == docsystem.DocumentStatusArchived {
		return nil, &domain.ConflictError{
			Message:      fmt.Sprintf("document %s is archived and cannot be moved", doc.Code),
			ResourceType: "document",
			ResourceID:   fmt.Sprint(id),
			State:        string(doc.Status),
		}
	}

	to := "unfiled"
	if folderID != nil {
		target, err := s.visibleFolder(ctx, actor, *folderID)
		if err != nil {
			return nil, err
		}
		to = target.FullPath
	}
	from := "unfiled"
	if doc.FolderCode != "" {
		from = doc.FolderCode
	}

	err = s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if err := s.docRepo.Move(ctx, id, folderID, actor.ID); err != nil {
			return err
		}
		return s.addActivity(ctx, id, actor.ID, docsystem.ActivityMove, from+" -> "+to)
	})
	if err != nil {
		return nil, err
	}

	s.tree.Invalidate(ctx)
	s.logger.Info("document moved", "id", id, "folder_id", folderID, "user_id", actor.ID)
	return s.docRepo.GetByID(ctx, id)
}

// DeleteDocument soft-deletes a document
func (s *documentService) DeleteDocument(ctx context.Context, actor *models.User, id int64) error {
	if err := s.authorizer.Require(actor, models.PermDocumentWrite, "document.delete"); err != nil {
		return err
	}

	doc, err := s.getLive(ctx, actor, id)
	if err != nil {
		return err
	}

	err = s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if err := s.docRepo.SetStatus(ctx, id, docsystem.DocumentStatusDeleted, actor.ID); err != nil {
			return err
		}
		return s.addActivity(ctx, id, actor.ID, docsystem.ActivityDelete, doc.Code)
	})
	if err != nil {
		return err
	}

	s.tree.Invalidate(ctx)
	s.audit.Log(ctx, actor.ID, "document.delete", doc.Code)
	s.logger.Info("document deleted", "id", id, "code", doc.Code, "user_id", actor.ID)
	return nil
}

// RestoreDocument brings a soft-deleted document back to active
func (s *documentService) RestoreDocument(ctx context.Context, actor *models.User, id int64) (*docsystem.Document, error) {
	if err := s.authorizer.Require(actor, models.PermDocumentWrite, "document.restore"); err != nil {
		return nil, err
	}

	doc, err := s.getAny(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !doc.Status.IsDeleted() {
		return nil, &domain.ConflictError{
			Message:      fmt.Sprintf("document %s is not deleted", doc.Code),
			ResourceType: "document",
			ResourceID:   fmt.Sprint(id),
			State:        string(doc.Status),
		}
	}

	err = s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if err := s.docRepo.SetStatus(ctx, id, docsystem.DocumentStatusActive, actor.ID); err != nil {
			return err
		}
		return s.addActivity(ctx, id, actor.ID, docsystem.ActivityRestore, doc.Code)
	})
	if err != nil {
		return nil, err
	}

	s.tree.Invalidate(ctx)
	s.audit.Log(ctx, actor.ID, "document.restore", doc.Code)
	s.logger.Info("document restored", "id", id, "code", doc.Code, "user_id", actor.ID)
	return s.docRepo.GetByID(ctx, id)
}

// PurgeDocument removes the document row, its history and its stored file
func (s *documentService) PurgeDocument(ctx context.Context, actor *models.User, id int64) error {
	if err := s.authorizer.Require(actor, models.PermDocumentPurge, "document.purge"); err != nil {
		return err
	}

	doc, err := s.getAny(ctx, actor, id)
	if err != nil {
		return err
	}

	err = s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		return s.docRepo.HardDelete(ctx, id)
	})
	if err != nil {
		return err
	}

	if doc.ServerPath != "" {
		s.removeFile(ctx, doc.ServerPath)
	}

	s.tree.Invalidate(ctx)
	s.audit.Log(ctx, actor.ID, "document.purge", doc.Code)
	s.logger.Info("document purged", "id", id, "code", doc.Code, "user_id", actor.ID)
	return nil
}

// ListDocuments lists visible non-deleted documents, newest first
func (s *documentService) ListDocuments(ctx context.Context, actor *models.User, req *docsysSvc.ListDocumentsRequest) ([]docsystem.Document, error) {
	filter := docsysRepo.DocumentFilter{
		FolderID: req.FolderID,
		Limit:    config.ClampPageSize(req.Limit),
		Offset:   max(req.Offset, 0),
	}

	if req.Status != "" {
		status := docsystem.DocumentStatus(strings.ToLower(req.Status))
		if !status.Valid() || status.IsDeleted() {
			return nil, domain.NewValidationError("status", fmt.Sprintf("unknown status %q", req.Status))
		}
		filter.Status = status
	}

	if req.FolderID != nil {
		if _, err := s.visibleFolder(ctx, actor, *req.FolderID); err != nil {
			return nil, err
		}
	}

	docs, err := s.docRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.visible(actor, docs), nil
}

// SearchDocuments matches the term against code, title, description and keywords
func (s *documentService) SearchDocuments(ctx context.Context, actor *models.User, term string, limit int) ([]docsystem.Document, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []docsystem.Document{}, nil
	}
	if len(term) > config.MaxSearchTermLength {
		return nil, domain.NewValidationError("q", fmt.Sprintf("must be at most %d characters", config.MaxSearchTermLength))
	}

	docs, err := s.docRepo.Search(ctx, term, config.ClampPageSize(limit))
	if err != nil {
		return nil, err
	}
	return s.visible(actor, docs), nil
}

// GetHistory returns the activity of a document, including a deleted one
func (s *documentService) GetHistory(ctx context.Context, actor *models.User, id int64) ([]docsystem.DocumentActivity, error) {
	if _, err := s.getAny(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.docRepo.ListActivities(ctx, id)
}

// getAny loads a document in any status and hides it when the actor may not see it
func (s *documentService) getAny(ctx context.Context, actor *models.User, id int64) (*docsystem.Document, error) {
	doc, err := s.docRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.authorizer.CanAccessDocument(actor, doc) {
		return nil, domain.NewNotFoundError("document", id)
	}
	return doc, nil
}

// getLive is getAny restricted to non-deleted documents
func (s *documentService) getLive(ctx context.Context, actor *models.User, id int64) (*docsystem.Document, error) {
	doc, err := s.getAny(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if doc.Status.IsDeleted() {
		return nil, domain.NewNotFoundError("document", id)
	}
	return doc, nil
}

func (s *documentService) visibleFolder(ctx context.Context, actor *models.User, id int64) (*docsystem.Folder, error) {
	folder, err := s.folderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.authorizer.CanAccessFolder(actor, folder) {
		return nil, domain.NewNotFoundError("folder", id)
	}
	return folder, nil
}

func (s *documentService) visible(actor *models.User, docs []docsystem.Document) []docsystem.Document {
	out := make([]docsystem.Document, 0, len(docs))
	for i := range docs {
		if s.authorizer.CanAccessDocument(actor, &docs[i]) {
			out = append(out, docs[i])
		}
	}
	return out
}

func (s *documentService) addActivity(ctx context.Context, documentID, userID int64, action, detail string) error {
	return s.docRepo.AddActivity(ctx, &docsystem.DocumentActivity{
		DocumentID: documentID,
		UserID:     userID,
		Action:     action,
		Detail:     detail,
		CreatedAt:  s.now().UTC(),
	})
}

func (s *documentService) removeFile(ctx context.Context, serverPath string) {
	if err := s.storage.Delete(ctx, serverPath); err != nil {
		s.logger.Warn("failed to remove stored file", "server_path", serverPath, "error", err)
	}
}

// describeFile fills the file attributes of a new document
func (s *documentService) describeFile(path string) (*docsystem.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, domain.WrapStorage("stat source file", err)
	}

	hash, err := s.storage.Hash(path)
	if err != nil {
		return nil, domain.WrapStorage("hash source file", err)
	}

	mimeType := "application/octet-stream"
	if detected, err := mimetype.DetectFile(path); err == nil {
		mimeType = detected.String()
	} else {
		s.logger.Warn("mime detection failed", "path", path, "error", err)
	}

	return &docsystem.Document{
		FileSize:  info.Size(),
		Extension: strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
		MimeType:  mimeType,
		FileHash:  hash,
	}, nil
}

// normalizeKeywords trims each comma-separated keyword and drops empty ones
func normalizeKeywords(raw string) string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ",")
}

func (s *documentService) validateCreateRequest(req *docsysSvc.CreateDocumentRequest) error {
	return ToValidationError(validation.ValidateStruct(req,
		validation.Field(&req.Title,
			validation.Required,
			validation.Length(1, config.MaxDocumentTitleLength),
		),
		validation.Field(&req.SourcePath, validation.Required),
		validation.Field(&req.FolderID, validation.When(req.FolderID != nil, validation.Min(int64(1)))),
	))
}

func (s *documentService) validateUpdateRequest(req *docsysSvc.UpdateDocumentRequest) error {
	if req.Title != nil {
		trimmed := strings.TrimSpace(*req.Title)
		req.Title = &trimmed
	}

	return ToValidationError(validation.ValidateStruct(req,
		validation.Field(&req.Title,
			validation.When(req.Title != nil, validation.Required, validation.Length(1, config.MaxDocumentTitleLength)),
		),
		validation.Field(&req.Status,
			validation.When(req.Status != nil, validation.In(
				string(docsystem.DocumentStatusActive),
				string(docsystem.DocumentStatusDraft),
			).Error("must be active or draft")),
		),
	))
}
