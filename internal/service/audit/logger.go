package audit

import (
	"context"
	"log/slog"
	"time"

	"archivist/internal/domain/models"
	"archivist/internal/domain/repositories"
	"archivist/internal/domain/services"
)

type auditLogger struct {
	repo   repositories.AuditRepository
	logger *slog.Logger
}

// NewLogger creates an audit logger backed by repo
func NewLogger(repo repositories.AuditRepository, logger *slog.Logger) services.AuditLogger {
	return &auditLogger{repo: repo, logger: logger}
}

// Log persists an audit entry. A failed write never fails the caller's operation.
func (l *auditLogger) Log(ctx context.Context, userID int64, action, detail string) {
	entry := &models.AuditEntry{
		UserID:    userID,
		Action:    action,
		Detail:    detail,
		CreatedAt: time.Now(),
	}
	if err := l.repo.Insert(ctx, entry); err != nil {
		l.logger.Warn("audit write failed",
			"user_id", userID,
			"action", action,
			"error", err,
		)
	}
}
