package mail

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"archivist/internal/cache"
	"archivist/internal/domain"
	"archivist/internal/domain/models"
	mailModels "archivist/internal/domain/models/mail"
	"archivist/internal/domain/repositories"
	mailRepo "archivist/internal/domain/repositories/mail"
	"archivist/internal/domain/services"
	mailSvc "archivist/internal/domain/services/mail"
)

type notificationService struct {
	notifRepo  mailRepo.NotificationRepository
	userRepo   repositories.UserRepository
	cache      services.Cache
	unreadTTL  time.Duration
	authorizer services.Authorizer
	audit      services.AuditLogger
	logger     *slog.Logger
	now        func() time.Time
}

// NewNotificationService creates the router that delivers new mail to the responsible user
func NewNotificationService(
	notifRepo mailRepo.NotificationRepository,
	userRepo repositories.UserRepository,
	c services.Cache,
	unreadTTL time.Duration,
	authorizer services.Authorizer,
	audit services.AuditLogger,
	logger *slog.Logger,
) mailSvc.NotificationService {
	return &notificationService{
		notifRepo:  notifRepo,
		userRepo:   userRepo,
		cache:      c,
		unreadTTL:  unreadTTL,
		authorizer: authorizer,
		audit:      audit,
		logger:     logger,
		now:        time.Now,
	}
}

// SetResponsible replaces the single responsible user
func (s *notificationService) SetResponsible(ctx context.Context, actor *models.User, userID int64) error {
	if err := s.authorizer.Require(actor, models.PermResponsibleAdmin, "responsible.set"); err != nil {
		return err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.Active {
		return domain.NewValidationError("user_id", fmt.Sprintf("user %d is inactive", userID))
	}

	err = s.notifRepo.SetResponsible(ctx, &mailModels.ResponsibleAssignment{
		UserID:     userID,
		AssignedBy: actor.ID,
		AssignedAt: s.now().UTC(),
	})
	if err != nil {
		return err
	}

	s.audit.Log(ctx, actor.ID, "responsible.set", user.Username)
	s.logger.Info("responsible user set", "user_id", userID, "assigned_by", actor.ID)
	return nil
}

// GetResponsible returns nil, nil when nobody is responsible
func (s *notificationService) GetResponsible(ctx context.Context) (*models.User, error) {
	assignment, err := s.notifRepo.GetResponsible(ctx)
	if err != nil {
		return nil, err
	}
	if assignment == nil {
		return nil, nil
	}
	return s.userRepo.GetByID(ctx, assignment.UserID)
}

func (s *notificationService) RemoveResponsible(ctx context.Context, actor *models.User) error {
	if err := s.authorizer.Require(actor, models.PermResponsibleAdmin, "responsible.remove"); err != nil {
		return err
	}
	if err := s.notifRepo.ClearResponsible(ctx); err != nil {
		return err
	}

	s.audit.Log(ctx, actor.ID, "responsible.remove", "")
	s.logger.Info("responsible user removed", "removed_by", actor.ID)
	return nil
}

// NotifyNewMail puts the mail in the responsible user's mailbox
func (s *notificationService) NotifyNewMail(ctx context.Context, m *mailModels.Mail) (bool, error) {
	assignment, err := s.notifRepo.GetResponsible(ctx)
	if err != nil {
		return false, err
	}
	if assignment == nil {
		s.logger.Warn("no responsible user, mail not routed", "mail_id", m.ID, "code", m.Code)
		return false, nil
	}

	err = s.notifRepo.Insert(ctx, &mailModels.Notification{
		MailID:     m.ID,
		UserID:     assignment.UserID,
		NotifiedAt: s.now().UTC(),
	})
	if err != nil {
		return false, err
	}

	s.invalidateUnread(ctx, assignment.UserID)
	s.audit.Log(ctx, assignment.UserID, "notification.new", m.Code)
	s.logger.Info("mail routed", "mail_id", m.ID, "code", m.Code, "user_id", assignment.UserID)
	return true, nil
}

func (s *notificationService) GetNotifications(ctx context.Context, userID int64, unreadOnly bool) ([]mailModels.NotificationView, error) {
	return s.notifRepo.ListForUser(ctx, userID, unreadOnly)
}

// CountUnread is served from cache when possible
func (s *notificationService) CountUnread(ctx context.Context, userID int64) (int, error) {
	key := cache.UnreadKey(userID)

	var count int
	found, err := s.cache.Get(ctx, key, &count)
	if err != nil {
		s.logger.Warn("unread count cache read failed", "user_id", userID, "error", err)
	} else if found {
		return count, nil
	}

	count, err = s.notifRepo.CountUnread(ctx, userID)
	if err != nil {
		return 0, err
	}

	if err := s.cache.Set(ctx, key, count, s.unreadTTL); err != nil {
		s.logger.Warn("unread count cache write failed", "user_id", userID, "error", err)
	}
	return count, nil
}

// MarkAsRead flips one notification. Marking an already-read notification is a no-op.
func (s *notificationService) MarkAsRead(ctx context.Context, mailID, userID int64) error {
	n, err := s.notifRepo.Get(ctx, mailID, userID)
	if err != nil {
		return err
	}
	if n.Read {
		return nil
	}

	if err := s.notifRepo.MarkRead(ctx, mailID, userID, s.now().UTC()); err != nil {
		return err
	}

	s.invalidateUnread(ctx, userID)
	s.logger.Debug("notification read", "mail_id", mailID, "user_id", userID)
	return nil
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID int64) (int, error) {
	changed, err := s.notifRepo.MarkAllRead(ctx, userID, s.now().UTC())
	if err != nil {
		return 0, err
	}

	if changed > 0 {
		s.invalidateUnread(ctx, userID)
	}
	s.logger.Debug("notifications read", "user_id", userID, "count", changed)
	return changed, nil
}

func (s *notificationService) invalidateUnread(ctx context.Context, userID int64) {
	if err := s.cache.Delete(ctx, cache.UnreadKey(userID)); err != nil {
		s.logger.Warn("failed to invalidate unread count", "user_id", userID, "error", err)
	}
}
