package repositories

import (
	"context"

	"archivist/internal/domain/models"
)

// AuditRepository persists audit trail entries
type AuditRepository interface {
	Insert(ctx context.Context, entry *models.AuditEntry) error
}
