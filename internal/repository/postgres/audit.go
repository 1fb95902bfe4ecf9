package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"archivist/internal/domain"
	"archivist/internal/domain/models"
	"archivist/internal/domain/repositories"
)

// PostgresAuditRepository implements the AuditRepository interface
type PostgresAuditRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewAuditRepository creates a new PostgresAuditRepository
func NewAuditRepository(config *RepositoryConfig) repositories.AuditRepository {
	return &PostgresAuditRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Insert appends an audit entry
func (r *PostgresAuditRepository) Insert(ctx context.Context, entry *models.AuditEntry) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, action, detail, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, r.tables.AuditLog)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		entry.UserID,
		entry.Action,
		entry.Detail,
		entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		return domain.WrapStorage("insert audit entry", err)
	}

	return nil
}
