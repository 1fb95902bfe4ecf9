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

// PostgresUserRepository implements the UserRepository interface
type PostgresUserRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewUserRepository creates a new PostgresUserRepository
func NewUserRepository(config *RepositoryConfig) repositories.UserRepository {
	return &PostgresUserRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// GetByID retrieves a user by ID
func (r *PostgresUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := fmt.Sprintf(`
		SELECT id, username, full_name, email, authority_level, role, active
		FROM %s
		WHERE id = $1
	`, r.tables.Users)

	var u models.User
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&u.ID,
		&u.Username,
		&u.FullName,
		&u.Email,
		&u.AuthorityLevel,
		&u.Role,
		&u.Active,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, domain.NewNotFoundError("user", id)
		}
		return nil, domain.WrapStorage("get user", err)
	}

	return &u, nil
}

// Upsert creates or refreshes a user keyed by username
func (r *PostgresUserRepository) Upsert(ctx context.Context, u *models.User) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (username, full_name, email, authority_level, role, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (username) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			email = EXCLUDED.email,
			authority_level = EXCLUDED.authority_level,
			role = EXCLUDED.role,
			active = EXCLUDED.active
		RETURNING id
	`, r.tables.Users)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		u.Username,
		u.FullName,
		u.Email,
		u.AuthorityLevel,
		u.Role,
		u.Active,
	).Scan(&u.ID)
	if err != nil {
		return domain.WrapStorage("upsert user", err)
	}

	return nil
}
