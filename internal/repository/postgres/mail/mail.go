package mail

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"archivist/internal/config"
	"archivist/internal/domain"
	models "archivist/internal/domain/models/mail"
	mailRepo "archivist/internal/domain/repositories/mail"
	"archivist/internal/repository/postgres"
)

// PostgresMailRepository implements the MailRepository interface
type PostgresMailRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewMailRepository creates a new mail repository
func NewMailRepository(config *postgres.RepositoryConfig) mailRepo.MailRepository {
	return &PostgresMailRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

func (r *PostgresMailRepository) mailSelect() string {
	return fmt.Sprintf(`
		SELECT m.id, m.code, m.document_id, m.type, m.subject, m.sender, m.recipient, m.reference,
		       m.mail_date, m.priority, m.observations, m.confidential, m.status, m.created_by,
		       m.archived_at, m.created_at, m.modified_at,
		       COALESCE(d.code, ''), COALESCE(d.title, '')
		FROM %s m
		LEFT JOIN %s d ON d.id = m.document_id
	`, r.tables.Mails, r.tables.Documents)
}

func scanMail(row pgx.Row, m *models.Mail) error {
	return row.Scan(
		&m.ID,
		&m.Code,
		&m.DocumentID,
		&m.Type,
		&m.Subject,
		&m.Sender,
		&m.Recipient,
		&m.Reference,
		&m.MailDate,
		&m.Priority,
		&m.Observations,
		&m.Confidential,
		&m.Status,
		&m.CreatedBy,
		&m.ArchivedAt,
		&m.CreatedAt,
		&m.ModifiedAt,
		&m.DocumentCode,
		&m.DocumentTitle,
	)
}

// Create creates a new mail record
func (r *PostgresMailRepository) Create(ctx context.Context, m *models.Mail) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (code, document_id, type, subject, sender, recipient, reference, mail_date,
			priority, observations, confidential, status, created_by, created_at, modified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at, modified_at
	`, r.tables.Mails)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		m.Code,
		m.DocumentID,
		m.Type,
		m.Subject,
		m.Sender,
		m.Recipient,
		m.Reference,
		m.MailDate,
		m.Priority,
		m.Observations,
		m.Confidential,
		m.Status,
		m.CreatedBy,
		m.CreatedAt,
		m.ModifiedAt,
	).Scan(&m.ID, &m.CreatedAt, &m.ModifiedAt)

	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("mail code %q is already taken", m.Code),
				ResourceType: "mail",
				ResourceID:   m.Code,
			}
		}
		if postgres.IsPgForeignKeyError(err) {
			return domain.NewValidationError("document_id", fmt.Sprintf("document %d does not exist", m.DocumentID))
		}
		if column, ok := postgres.CheckViolation(err, r.tables.Mails); ok {
			return domain.NewValidationError(column, "value is not allowed")
		}
		return domain.WrapStorage("create mail", err)
	}

	return nil
}

// GetByID retrieves a mail record with its document code and title
func (r *PostgresMailRepository) GetByID(ctx context.Context, id int64) (*models.Mail, error) {
	query := r.mailSelect() + ` WHERE m.id = $1`

	var m models.Mail
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := scanMail(executor.QueryRow(ctx, query, id), &m); err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, domain.NewNotFoundError("mail", id)
		}
		return nil, domain.WrapStorage("get mail", err)
	}

	return &m, nil
}

// Update persists the editable fields
func (r *PostgresMailRepository) Update(ctx context.Context, m *models.Mail) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET subject = $1, sender = $2, recipient = $3, reference = $4, priority = $5,
		    observations = $6, confidential = $7, modified_at = $8
		WHERE id = $9 AND status <> $10
	`, r.tables.Mails)

	return r.execGuarded(ctx, "update mail", m.ID, query,
		m.Subject,
		m.Sender,
		m.Recipient,
		m.Reference,
		m.Priority,
		m.Observations,
		m.Confidential,
		m.ModifiedAt,
		m.ID,
		models.StatusArchived,
	)
}

// UpdateStatus moves the mail from one status to another in a single compare-and-set
func (r *PostgresMailRepository) UpdateStatus(ctx context.Context, id int64, from, to models.Status) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = $1, modified_at = NOW()
		WHERE id = $2 AND status = $3
	`, r.tables.Mails)

	return r.execGuarded(ctx, "update mail status", id, query, to, id, from)
}

// MarkArchived closes a PROCESSED mail and stamps archived_at
func (r *PostgresMailRepository) MarkArchived(ctx context.Context, id int64, at time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = $1, archived_at = $2, modified_at = $2
		WHERE id = $3 AND status = $4
	`, r.tables.Mails)

	return r.execGuarded(ctx, "archive mail", id, query, models.StatusArchived, at, id, models.StatusProcessed)
}

// List returns mail records, newest first
func (r *PostgresMailRepository) List(ctx context.Context, filter mailRepo.MailFilter) ([]models.Mail, error) {
	var conditions []string
	var args []any

	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("m.status = $%d", len(args)))
	}

	query := r.mailSelect()
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY m.created_at DESC, m.id DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, config.ClampPageSize(filter.Limit), max(filter.Offset, 0))

	return r.queryMails(ctx, "list mails", query, args...)
}

// Search matches code, subject, sender and recipient
func (r *PostgresMailRepository) Search(ctx context.Context, term string) ([]models.Mail, error) {
	query := r.mailSelect() + `
		WHERE m.code ILIKE $1 OR m.subject ILIKE $1 OR m.sender ILIKE $1 OR m.recipient ILIKE $1
		ORDER BY m.created_at DESC
		LIMIT $2
	`

	return r.queryMails(ctx, "search mails", query, postgres.ContainsPattern(term), config.MaxPageSize)
}

// execGuarded runs an UPDATE whose WHERE clause also checks the stored status.
// No affected row means the mail is gone or its status moved underneath the caller.
func (r *PostgresMailRepository) execGuarded(ctx context.Context, op string, id int64, query string, args ...any) error {
	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, args...)
	if err != nil {
		if column, ok := postgres.CheckViolation(err, r.tables.Mails); ok {
			return domain.NewValidationError(column, "value is not allowed")
		}
		return domain.WrapStorage(op, err)
	}
	if result.RowsAffected() > 0 {
		return nil
	}

	var current models.Status
	err = executor.QueryRow(ctx, fmt.Sprintf(`SELECT status FROM %s WHERE id = $1`, r.tables.Mails), id).Scan(&current)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return domain.NewNotFoundError("mail", id)
		}
		return domain.WrapStorage(op, err)
	}
	return staleStatusError(id, current)
}

func staleStatusError(id int64, current models.Status) error {
	return &domain.ConflictError{
		Message:      fmt.Sprintf("mail %d changed concurrently and is now %s", id, current),
		ResourceType: "mail",
		ResourceID:   fmt.Sprint(id),
		State:        string(current),
	}
}

func (r *PostgresMailRepository) queryMails(ctx context.Context, op, query string, args ...any) ([]models.Mail, error) {
	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, domain.WrapStorage(op, err)
	}
	defer rows.Close()

	mails := make([]models.Mail, 0)
	for rows.Next() {
		var m models.Mail
		if err := scanMail(rows, &m); err != nil {
			return nil, domain.WrapStorage(op, err)
		}
		mails = append(mails, m)
	}

	if err := rows.Err(); err != nil {
		return nil, domain.WrapStorage(op, err)
	}

	return mails, nil
}
