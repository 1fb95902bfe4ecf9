package mail

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"archivist/internal/domain"
	models "archivist/internal/domain/models/mail"
	mailRepo "archivist/internal/domain/repositories/mail"
	"archivist/internal/repository/postgres"
)

// PostgresNotificationRepository implements the NotificationRepository interface
type PostgresNotificationRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(config *postgres.RepositoryConfig) mailRepo.NotificationRepository {
	return &PostgresNotificationRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// GetResponsible returns the single assignment, or nil when none exists
func (r *PostgresNotificationRepository) GetResponsible(ctx context.Context) (*models.ResponsibleAssignment, error) {
	query := fmt.Sprintf(`
		SELECT user_id, assigned_by, assigned_at
		FROM %s
		WHERE slot = 1
	`, r.tables.Responsible)

	var a models.ResponsibleAssignment
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query).Scan(&a.UserID, &a.AssignedBy, &a.AssignedAt)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, nil
		}
		return nil, domain.WrapStorage("get responsible", err)
	}

	return &a, nil
}

// SetResponsible replaces the assignment in the single slot
func (r *PostgresNotificationRepository) SetResponsible(ctx context.Context, a *models.ResponsibleAssignment) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (slot, user_id, assigned_by, assigned_at)
		VALUES (1, $1, $2, $3)
		ON CONFLICT (slot) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			assigned_by = EXCLUDED.assigned_by,
			assigned_at = EXCLUDED.assigned_at
	`, r.tables.Responsible)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, a.UserID, a.AssignedBy, a.AssignedAt); err != nil {
		return domain.WrapStorage("set responsible", err)
	}

	return nil
}

// ClearResponsible removes the assignment
func (r *PostgresNotificationRepository) ClearResponsible(ctx context.Context) error {
	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE slot = 1`, r.tables.Responsible)); err != nil {
		return domain.WrapStorage("clear responsible", err)
	}
	return nil
}

// Insert adds a notification; an existing (mail, user) pair is kept as is
func (r *PostgresNotificationRepository) Insert(ctx context.Context, n *models.Notification) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (mail_id, user_id, read, notified_at)
		VALUES ($1, $2, FALSE, $3)
		ON CONFLICT (mail_id, user_id) DO NOTHING
	`, r.tables.MailNotifications)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, n.MailID, n.UserID, n.NotifiedAt); err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return domain.NewNotFoundError("mail", n.MailID)
		}
		return domain.WrapStorage("insert notification", err)
	}

	return nil
}

// Get retrieves a single notification
func (r *PostgresNotificationRepository) Get(ctx context.Context, mailID, userID int64) (*models.Notification, error) {
	query := fmt.Sprintf(`
		SELECT mail_id, user_id, read, notified_at, read_at
		FROM %s
		WHERE mail_id = $1 AND user_id = $2
	`, r.tables.MailNotifications)

	var n models.Notification
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, mailID, userID).Scan(&n.MailID, &n.UserID, &n.Read, &n.NotifiedAt, &n.ReadAt)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, domain.NewNotFoundError("notification", fmt.Sprintf("%d/%d", mailID, userID))
		}
		return nil, domain.WrapStorage("get notification", err)
	}

	return &n, nil
}

// ListForUser joins notifications with mail data, newest first
func (r *PostgresNotificationRepository) ListForUser(ctx context.Context, userID int64, unreadOnly bool) ([]models.NotificationView, error) {
	query := fmt.Sprintf(`
		SELECT m.id, m.code, m.subject, m.sender, m.type, m.priority, m.status, m.mail_date,
		       n.read, n.notified_at, n.read_at
		FROM %s n
		JOIN %s m ON m.id = n.mail_id
		WHERE n.user_id = $1 AND ($2 = FALSE OR n.read = FALSE)
		ORDER BY n.notified_at DESC, m.id DESC
	`, r.tables.MailNotifications, r.tables.Mails)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID, unreadOnly)
	if err != nil {
		return nil, domain.WrapStorage("list notifications", err)
	}
	defer rows.Close()

	views := make([]models.NotificationView, 0)
	for rows.Next() {
		var v models.NotificationView
		err := rows.Scan(
			&v.MailID,
			&v.MailCode,
			&v.Subject,
			&v.Sender,
			&v.Type,
			&v.Priority,
			&v.Status,
			&v.MailDate,
			&v.Read,
			&v.NotifiedAt,
			&v.ReadAt,
		)
		if err != nil {
			return nil, domain.WrapStorage("scan notification", err)
		}
		views = append(views, v)
	}

	if err := rows.Err(); err != nil {
		return nil, domain.WrapStorage("list notifications", err)
	}

	return views, nil
}

// CountUnread counts a user's unread notifications
func (r *PostgresNotificationRepository) CountUnread(ctx context.Context, userID int64) (int, error) {
	query := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM %s
		WHERE user_id = $1 AND read = FALSE
	`, r.tables.MailNotifications)

	var count int
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, domain.WrapStorage("count unread notifications", err)
	}

	return count, nil
}

// MarkRead flips an unread notification; read ones keep their first read_at
func (r *PostgresNotificationRepository) MarkRead(ctx context.Context, mailID, userID int64, at time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET read = TRUE, read_at = $1
		WHERE mail_id = $2 AND user_id = $3 AND read = FALSE
	`, r.tables.MailNotifications)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, at, mailID, userID); err != nil {
		return domain.WrapStorage("mark notification read", err)
	}

	return nil
}

// MarkAllRead flips every unread notification of a user
func (r *PostgresNotificationRepository) MarkAllRead(ctx context.Context, userID int64, at time.Time) (int, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET read = TRUE, read_at = $1
		WHERE user_id = $2 AND read = FALSE
	`, r.tables.MailNotifications)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, at, userID)
	if err != nil {
		return 0, domain.WrapStorage("mark all notifications read", err)
	}

	return int(result.RowsAffected()), nil
}
