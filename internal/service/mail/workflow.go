package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"archivist/internal/config"
	"archivist/internal/domain"
	"archivist/internal/domain/models"
	mailModels "archivist/internal/domain/models/mail"
	"archivist/internal/domain/repositories"
	docsysRepo "archivist/internal/domain/repositories/docsystem"
	mailRepo "archivist/internal/domain/repositories/mail"
	"archivist/internal/domain/services"
	docsysSvc "archivist/internal/domain/services/docsystem"
	mailSvc "archivist/internal/domain/services/mail"
	docsysService "archivist/internal/service/docsystem"
)

type workflowService struct {
	mailRepo   mailRepo.MailRepository
	docRepo    docsysRepo.DocumentRepository
	folderRepo docsysRepo.FolderRepository
	codes      docsysSvc.CodeGenerator
	archiver   docsysSvc.DocumentArchiver
	tree       docsysSvc.TreeService
	notifier   mailSvc.NotificationService
	txManager  repositories.TransactionManager
	authorizer services.Authorizer
	audit      services.AuditLogger
	logger     *slog.Logger
	now        func() time.Time
}

// NewWorkflowService creates the mail lifecycle service
func NewWorkflowService(
	mailRepo mailRepo.MailRepository,
	docRepo docsysRepo.DocumentRepository,
	folderRepo docsysRepo.FolderRepository,
	codes docsysSvc.CodeGenerator,
	archiver docsysSvc.DocumentArchiver,
	tree docsysSvc.TreeService,
	notifier mailSvc.NotificationService,
	txManager repositories.TransactionManager,
	authorizer services.Authorizer,
	audit services.AuditLogger,
	logger *slog.Logger,
) mailSvc.WorkflowService {
	return &workflowService{
		mailRepo:   mailRepo,
		docRepo:    docRepo,
		folderRepo: folderRepo,
		codes:      codes,
		archiver:   archiver,
		tree:       tree,
		notifier:   notifier,
		txManager:  txManager,
		authorizer: authorizer,
		audit:      audit,
		logger:     logger,
		now:        time.Now,
	}
}

// CreateMail records a NEW mail and routes it to the responsible user.
// Routing is best-effort: a failure is logged and the mail is kept.
func (s *workflowService) CreateMail(ctx context.Context, actor *models.User, req *mailSvc.CreateMailRequest) (*mailModels.Mail, error) {
	if err := s.authorizer.Require(actor, models.PermMailWrite, "mail.create"); err != nil {
		return nil, err
	}

	normalizeCreateRequest(req)
	if err := validateCreateRequest(req); err != nil {
		return nil, err
	}

	doc, err := s.docRepo.GetByID(ctx, req.DocumentID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if doc == nil || doc.Status.IsDeleted() || !s.authorizer.CanAccessDocument(actor, doc) {
		return nil, domain.NewValidationError("document_id", fmt.Sprintf("document %d does not exist", req.DocumentID))
	}

	now := s.now().UTC()
	m := &mailModels.Mail{
		DocumentID:   req.DocumentID,
		Type:         req.Type,
		Subject:      req.Subject,
		Sender:       req.Sender,
		Recipient:    req.Recipient,
		Reference:    req.Reference,
		MailDate:     req.MailDate,
		Priority:     req.Priority,
		Observations: req.Observations,
		Confidential: req.Confidential || doc.Confidential,
		Status:       mailModels.StatusNew,
		CreatedBy:    actor.ID,
		CreatedAt:    now,
		ModifiedAt:   now,
	}

	_, err = docsysService.WithUniqueCode(ctx, s.logger,
		func(ctx context.Context) (string, error) {
			return s.codes.NextMailCode(ctx, now.Year())
		},
		func(ctx context.Context, code string) error {
			m.Code = code
			return s.mailRepo.Create(ctx, m)
		},
	)
	if err != nil {
		return nil, err
	}

	m.DocumentCode = doc.Code
	m.DocumentTitle = doc.Title

	s.audit.Log(ctx, actor.ID, "mail.create", m.Code)
	s.logger.Info("mail created",
		"id", m.ID,
		"code", m.Code,
		"document_id", m.DocumentID,
		"type", m.Type,
		"user_id", actor.ID,
	)

	if _, err := s.notifier.NotifyNewMail(ctx, m); err != nil {
		s.logger.Warn("mail notification failed", "mail_id", m.ID, "code", m.Code, "error", err)
	}

	return m, nil
}

// UpdateMail edits descriptive fields while the mail is not archived
func (s *workflowService) UpdateMail(ctx context.Context, actor *models.User, id int64, req *mailSvc.UpdateMailRequest) (*mailModels.Mail, error) {
	if err := s.authorizer.Require(actor, models.PermMailWrite, "mail.update"); err != nil {
		return nil, err
	}
	if err := validateUpdateRequest(req); err != nil {
		return nil, err
	}

	m, err := s.getVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if m.Status.IsTerminal() {
		return nil, &domain.ConflictError{
			Message:      fmt.Sprintf("mail %s is archived", m.Code),
			ResourceType: "mail",
			ResourceID:   fmt.Sprint(id),
			State:        string(m.Status),
		}
	}

	if req.Subject != nil {
		m.Subject = *req.Subject
	}
	if req.Sender != nil {
		m.Sender = strings.TrimSpace(*req.Sender)
	}
	if req.Recipient != nil {
		m.Recipient = strings.TrimSpace(*req.Recipient)
	}
	if req.Reference != nil {
		m.Reference = strings.TrimSpace(*req.Reference)
	}
	if req.Priority != nil {
		m.Priority = *req.Priority
	}
	if req.Observations != nil {
		m.Observations = strings.TrimSpace(*req.Observations)
	}
	if req.Confidential != nil {
		m.Confidential = *req.Confidential
	}
	m.ModifiedAt = s.now().UTC()

	if err := s.mailRepo.Update(ctx, m); err != nil {
		return nil, err
	}

	s.logger.Info("mail updated", "id", m.ID, "code", m.Code, "user_id", actor.ID)
	return m, nil
}

// UpdateStatus allows a single step forward. Requesting the current status is a no-op.
// ARCHIVED is reached only through Archive.
func (s *workflowService) UpdateStatus(ctx context.Context, actor *models.User, id int64, status mailModels.Status) (*mailModels.Mail, error) {
	if err := s.authorizer.Require(actor, models.PermMailWrite, "mail.status"); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, domain.NewValidationError("status", fmt.Sprintf("unknown status %q", status))
	}

	m, err := s.getVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if m.Status == status {
		return m, nil
	}

	if status == mailModels.StatusArchived || !m.Status.CanTransitionTo(status) {
		msg := fmt.Sprintf("mail %s cannot move from %s to %s", m.Code, m.Status, status)
		if status == mailModels.StatusArchived {
			msg = fmt.Sprintf("mail %s must be archived through the archive operation", m.Code)
		}
		return nil, &domain.ConflictError{
			Message:      msg,
			ResourceType: "mail",
			ResourceID:   fmt.Sprint(id),
			State:        string(m.Status),
		}
	}

	if err := s.mailRepo.UpdateStatus(ctx, id, m.Status, status); err != nil {
		return nil, err
	}

	from := m.Status
	m.Status = status
	m.ModifiedAt = s.now().UTC()

	s.audit.Log(ctx, actor.ID, "mail.status", fmt.Sprintf("%s %s -> %s", m.Code, from, status))
	s.logger.Info("mail status changed", "id", id, "from", from, "to", status, "user_id", actor.ID)
	return m, nil
}

// Archive files the mail's document into the destination folder and closes the mail.
// Document, mail and activity changes commit together or not at all.
func (s *workflowService) Archive(ctx context.Context, actor *models.User, id, destinationFolderID int64) (*mailModels.Mail, error) {
	if err := s.authorizer.Require(actor, models.PermMailArchive, "mail.archive"); err != nil {
		return nil, err
	}
	if destinationFolderID <= 0 {
		return nil, domain.NewValidationError("destination_folder_id", "a destination folder is required")
	}

	m, err := s.getVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if m.Status != mailModels.StatusProcessed {
		return nil, &domain.ConflictError{
			Message:      fmt.Sprintf("mail %s must be PROCESSED to archive", m.Code),
			ResourceType: "mail",
			ResourceID:   fmt.Sprint(id),
			State:        string(m.Status),
		}
	}

	folder, err := s.folderRepo.GetByID(ctx, destinationFolderID)
	if err != nil {
		return nil, err
	}
	if !s.authorizer.CanAccessFolder(actor, folder) {
		return nil, domain.NewNotFoundError("folder", destinationFolderID)
	}

	at := s.now().UTC()
	// The mail is claimed first so a concurrent archive or status change loses
	// before the document is touched.
	err = s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if err := s.mailRepo.MarkArchived(ctx, id, at); err != nil {
			return fmt.Errorf("archive mail: %w", err)
		}
		if err := s.archiver.ArchiveInto(ctx, m.DocumentID, destinationFolderID, actor.ID, at); err != nil {
			return fmt.Errorf("archive document: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.Status = mailModels.StatusArchived
	m.ArchivedAt = &at
	m.ModifiedAt = at

	// the document changed folders, so cached document counts are stale
	s.tree.Invalidate(ctx)

	s.audit.Log(ctx, actor.ID, "mail.archive", fmt.Sprintf("%s -> %s", m.Code, folder.FullPath))
	s.logger.Info("mail archived",
		"id", id,
		"code", m.Code,
		"document_id", m.DocumentID,
		"folder_id", destinationFolderID,
		"user_id", actor.ID,
	)
	return m, nil
}

func (s *workflowService) GetMail(ctx context.Context, actor *models.User, id int64) (*mailModels.Mail, error) {
	return s.getVisible(ctx, actor, id)
}

func (s *workflowService) ListMails(ctx context.Context, actor *models.User, req *mailSvc.ListMailsRequest) ([]mailModels.Mail, error) {
	filter := mailRepo.MailFilter{
		Limit:  config.ClampPageSize(req.Limit),
		Offset: max(req.Offset, 0),
	}
	if req.Status != "" {
		status, err := mailModels.ParseStatus(strings.ToUpper(req.Status))
		if err != nil {
			return nil, domain.NewValidationError("status", err.Error())
		}
		filter.Status = &status
	}

	mails, err := s.mailRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.visible(actor, mails), nil
}

func (s *workflowService) GetByStatus(ctx context.Context, actor *models.User, status mailModels.Status) ([]mailModels.Mail, error) {
	if !status.Valid() {
		return nil, domain.NewValidationError("status", fmt.Sprintf("unknown status %q", status))
	}

	mails, err := s.mailRepo.List(ctx, mailRepo.MailFilter{Status: &status, Limit: config.MaxPageSize})
	if err != nil {
		return nil, err
	}
	return s.visible(actor, mails), nil
}

// SearchMails matches code, subject, sender and recipient
func (s *workflowService) SearchMails(ctx context.Context, actor *models.User, term string) ([]mailModels.Mail, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []mailModels.Mail{}, nil
	}
	if len(term) > config.MaxSearchTermLength {
		return nil, domain.NewValidationError("q", fmt.Sprintf("must be at most %d characters", config.MaxSearchTermLength))
	}

	mails, err := s.mailRepo.Search(ctx, term)
	if err != nil {
		return nil, err
	}
	return s.visible(actor, mails), nil
}

// GetReadyForArchival lists PROCESSED mail
func (s *workflowService) GetReadyForArchival(ctx context.Context, actor *models.User) ([]mailModels.Mail, error) {
	return s.GetByStatus(ctx, actor, mailModels.StatusProcessed)
}

func (s *workflowService) getVisible(ctx context.Context, actor *models.User, id int64) (*mailModels.Mail, error) {
	m, err := s.mailRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.authorizer.CanAccessMail(actor, m) {
		return nil, domain.NewNotFoundError("mail", id)
	}
	return m, nil
}

func (s *workflowService) visible(actor *models.User, mails []mailModels.Mail) []mailModels.Mail {
	out := make([]mailModels.Mail, 0, len(mails))
	for i := range mails {
		if s.authorizer.CanAccessMail(actor, &mails[i]) {
			out = append(out, mails[i])
		}
	}
	return out
}

func normalizeCreateRequest(req *mailSvc.CreateMailRequest) {
	req.Subject = strings.TrimSpace(req.Subject)
	req.Sender = strings.TrimSpace(req.Sender)
	req.Recipient = strings.TrimSpace(req.Recipient)
	req.Reference = strings.TrimSpace(req.Reference)
	req.Observations = strings.TrimSpace(req.Observations)
	req.Type = mailModels.MailType(strings.ToUpper(strings.TrimSpace(string(req.Type))))
	req.Priority = mailModels.Priority(strings.ToUpper(strings.TrimSpace(string(req.Priority))))
	if req.Priority == "" {
		req.Priority = mailModels.PriorityNormal
	}
}

func validateCreateRequest(req *mailSvc.CreateMailRequest) error {
	return docsysService.ToValidationError(validation.ValidateStruct(req,
		validation.Field(&req.DocumentID, validation.Required.Error("a document is required")),
		validation.Field(&req.Subject,
			validation.Required,
			validation.Length(1, config.MaxMailSubjectLength),
		),
		validation.Field(&req.Type,
			validation.Required,
			validation.In(mailModels.TypeIncoming, mailModels.TypeOutgoing, mailModels.TypeInternal),
		),
		validation.Field(&req.Priority,
			validation.In(mailModels.PriorityLow, mailModels.PriorityNormal, mailModels.PriorityHigh, mailModels.PriorityUrgent),
		),
	))
}

func validateUpdateRequest(req *mailSvc.UpdateMailRequest) error {
	if req.Subject != nil {
		trimmed := strings.TrimSpace(*req.Subject)
		req.Subject = &trimmed
	}
	if req.Priority != nil {
		p := mailModels.Priority(strings.ToUpper(strings.TrimSpace(string(*req.Priority))))
		req.Priority = &p
	}

	return docsysService.ToValidationError(validation.ValidateStruct(req,
		validation.Field(&req.Subject,
			validation.When(req.Subject != nil, validation.Required, validation.Length(1, config.MaxMailSubjectLength)),
		),
		validation.Field(&req.Priority,
			validation.When(req.Priority != nil,
				validation.Required,
				validation.In(mailModels.PriorityLow, mailModels.PriorityNormal, mailModels.PriorityHigh, mailModels.PriorityUrgent),
			),
		),
	))
}
