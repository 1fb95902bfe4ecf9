package docsystem

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
	models "archivist/internal/domain/models/docsystem"
	docsysRepo "archivist/internal/domain/repositories/docsystem"
	"archivist/internal/repository/postgres"
)

// PostgresDocumentRepository implements the DocumentRepository interface
type PostgresDocumentRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(config *postgres.RepositoryConfig) docsysRepo.DocumentRepository {
	return &PostgresDocumentRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// documentSelect joins the author and folder for display fields
func (r *PostgresDocumentRepository) documentSelect() string {
	return fmt.Sprintf(`
		SELECT d.id, d.code, d.folder_id, d.title, d.document_type, d.file_path, d.server_path,
		       d.file_size, d.extension, d.mime_type, d.description, d.keywords, d.file_hash,
		       d.confidential, d.status, d.archived, d.archived_at, d.created_by, d.modified_by,
		       d.created_at, d.modified_at,
		       COALESCE(NULLIF(u.full_name, ''), u.username, ''),
		       COALESCE(f.code, ''), COALESCE(f.name, ''), COALESCE(f.icon, '')
		FROM %s d
		LEFT JOIN %s u ON u.id = d.created_by
		LEFT JOIN %s f ON f.id = d.folder_id
	`, r.tables.Documents, r.tables.Users, r.tables.Folders)
}

func scanDocument(row pgx.Row, d *models.Document) error {
	return row.Scan(
		&d.ID,
		&d.Code,
		&d.FolderID,
		&d.Title,
		&d.DocumentType,
		&d.FilePath,
		&d.ServerPath,
		&d.FileSize,
		&d.Extension,
		&d.MimeType,
		&d.Description,
		&d.Keywords,
		&d.FileHash,
		&d.Confidential,
		&d.Status,
		&d.Archived,
		&d.ArchivedAt,
		&d.CreatedBy,
		&d.ModifiedBy,
		&d.CreatedAt,
		&d.ModifiedAt,
		&d.AuthorName,
		&d.FolderCode,
		&d.FolderName,
		&d.FolderIcon,
	)
}

// Create creates a new document
func (r *PostgresDocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (code, folder_id, title, document_type, file_path, server_path, file_size,
			extension, mime_type, description, keywords, file_hash, confidential, status,
			created_by, created_at, modified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id, created_at, modified_at
	`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		doc.Code,
		doc.FolderID,
		doc.Title,
		doc.DocumentType,
		doc.FilePath,
		doc.ServerPath,
		doc.FileSize,
		doc.Extension,
		doc.MimeType,
		doc.Description,
		doc.Keywords,
		doc.FileHash,
		doc.Confidential,
		doc.Status,
		doc.CreatedBy,
		doc.CreatedAt,
		doc.ModifiedAt,
	).Scan(&doc.ID, &doc.CreatedAt, &doc.ModifiedAt)

	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("document code %q is already taken", doc.Code),
				ResourceType: "document",
				ResourceID:   doc.Code,
			}
		}
		if postgres.IsPgForeignKeyError(err) && doc.FolderID != nil {
			return domain.NewNotFoundError("folder", *doc.FolderID)
		}
		return domain.WrapStorage("create document", err)
	}

	return nil
}

// GetByID retrieves a document by ID in any status
func (r *PostgresDocumentRepository) GetByID(ctx context.Context, id int64) (*models.Document, error) {
	query := r.documentSelect() + ` WHERE d.id = $1`

	var doc models.Document
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := scanDocument(executor.QueryRow(ctx, query, id), &doc); err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, domain.NewNotFoundError("document", id)
		}
		return nil, domain.WrapStorage("get document", err)
	}

	return &doc, nil
}

// Update persists metadata fields
func (r *PostgresDocumentRepository) Update(ctx context.Context, doc *models.Document) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $1, document_type = $2, description = $3, keywords = $4,
		    confidential = $5, status = $6, modified_by = $7, modified_at = $8
		WHERE id = $9
	`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		doc.Title,
		doc.DocumentType,
		doc.Description,
		doc.Keywords,
		doc.Confidential,
		doc.Status,
		doc.ModifiedBy,
		doc.ModifiedAt,
		doc.ID,
	)
	if err != nil {
		if column, ok := postgres.CheckViolation(err, r.tables.Documents); ok {
			return domain.NewValidationError(column, "value is not allowed")
		}
		return domain.WrapStorage("update document", err)
	}

	if result.RowsAffected() == 0 {
		return domain.NewNotFoundError("document", doc.ID)
	}

	return nil
}

// SetServerPath records the storage location of the document's file
func (r *PostgresDocumentRepository) SetServerPath(ctx context.Context, id int64, serverPath string) error {
	query := fmt.Sprintf(`UPDATE %s SET server_path = $1 WHERE id = $2`, r.tables.Documents)
	return r.execOne(ctx, "set document server path", id, query, serverPath, id)
}

// SetStatus changes the lifecycle status
func (r *PostgresDocumentRepository) SetStatus(ctx context.Context, id int64, status models.DocumentStatus, userID int64) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = $1, modified_by = $2, modified_at = NOW()
		WHERE id = $3
	`, r.tables.Documents)

	return r.execOne(ctx, "set document status", id, query, status, userID, id)
}

// Move files the document under another folder
func (r *PostgresDocumentRepository) Move(ctx context.Context, id int64, folderID *int64, userID int64) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET folder_id = $1, modified_by = $2, modified_at = NOW()
		WHERE id = $3 AND %s
	`, r.tables.Documents, postgres.LiveDocument(""))

	err := r.execOne(ctx, "move document", id, query, folderID, userID, id)
	if err != nil && postgres.IsPgForeignKeyError(err) && folderID != nil {
		return domain.NewNotFoundError("folder", *folderID)
	}
	return err
}

// Archive flips the document to archived inside the destination folder
func (r *PostgresDocumentRepository) Archive(ctx context.Context, id, folderID int64, at time.Time, userID int64) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET archived = TRUE, archived_at = $1, folder_id = $2, status = $3,
		    modified_by = $4, modified_at = $1
		WHERE id = $5 AND %s
	`, r.tables.Documents, postgres.LiveDocument(""))

	err := r.execOne(ctx, "archive document", id, query, at, folderID, models.DocumentStatusArchived, userID, id)
	if err != nil && postgres.IsPgForeignKeyError(err) {
		return domain.NewNotFoundError("folder", folderID)
	}
	return err
}

// HardDelete removes the document with its activity and version rows
func (r *PostgresDocumentRepository) HardDelete(ctx context.Context, id int64) error {
	executor := postgres.GetExecutor(ctx, r.pool)

	for _, table := range []string{r.tables.DocumentActivities, r.tables.DocumentVersions} {
		if _, err := executor.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE document_id = $1`, table), id); err != nil {
			return domain.WrapStorage("purge document history", err)
		}
	}

	result, err := executor.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Documents), id)
	if err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return &domain.ConflictError{
				Message:      "document is still referenced by a mail record",
				ResourceType: "document",
				ResourceID:   fmt.Sprint(id),
			}
		}
		return domain.WrapStorage("purge document", err)
	}

	if result.RowsAffected() == 0 {
		return domain.NewNotFoundError("document", id)
	}

	return nil
}

// List returns non-deleted documents matching the filter
func (r *PostgresDocumentRepository) List(ctx context.Context, filter docsysRepo.DocumentFilter) ([]models.Document, error) {
	where, args := buildListFilter(filter)
	query := r.documentSelect() + " WHERE " + where +
		fmt.Sprintf(" ORDER BY d.created_at DESC, d.id DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, config.ClampPageSize(filter.Limit), max(filter.Offset, 0))

	return r.queryDocuments(ctx, "list documents", query, args...)
}

// buildListFilter returns the WHERE clause and its positional arguments
func buildListFilter(filter docsysRepo.DocumentFilter) (string, []any) {
	conditions := []string{postgres.LiveDocument("d")}
	var args []any

	if filter.FolderID != nil {
		args = append(args, *filter.FolderID)
		conditions = append(conditions, fmt.Sprintf("d.folder_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("d.status = $%d", len(args)))
	}

	return strings.Join(conditions, " AND "), args
}

// Search matches the term against code, title, description and keywords
func (r *PostgresDocumentRepository) Search(ctx context.Context, term string, limit int) ([]models.Document, error) {
	query := r.documentSelect() + fmt.Sprintf(`
		WHERE %s
		  AND (d.code ILIKE $1 OR d.title ILIKE $1 OR d.description ILIKE $1 OR d.keywords ILIKE $1)
		ORDER BY d.modified_at DESC
		LIMIT $2
	`, postgres.LiveDocument("d"))

	return r.queryDocuments(ctx, "search documents", query, postgres.ContainsPattern(term), config.ClampPageSize(limit))
}

// AddActivity appends a history entry
func (r *PostgresDocumentRepository) AddActivity(ctx context.Context, a *models.DocumentActivity) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (document_id, user_id, action, detail, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, r.tables.DocumentActivities)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, a.DocumentID, a.UserID, a.Action, a.Detail, a.CreatedAt).Scan(&a.ID)
	if err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return domain.NewNotFoundError("document", a.DocumentID)
		}
		return domain.WrapStorage("insert document activity", err)
	}

	return nil
}

// ListActivities returns a document's history, newest first
func (r *PostgresDocumentRepository) ListActivities(ctx context.Context, documentID int64) ([]models.DocumentActivity, error) {
	query := fmt.Sprintf(`
		SELECT id, document_id, user_id, action, detail, created_at
		FROM %s
		WHERE document_id = $1
		ORDER BY created_at DESC, id DESC
	`, r.tables.DocumentActivities)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, documentID)
	if err != nil {
		return nil, domain.WrapStorage("list document activities", err)
	}
	defer rows.Close()

	activities := make([]models.DocumentActivity, 0)
	for rows.Next() {
		var a models.DocumentActivity
		if err := rows.Scan(&a.ID, &a.DocumentID, &a.UserID, &a.Action, &a.Detail, &a.CreatedAt); err != nil {
			return nil, domain.WrapStorage("scan document activity", err)
		}
		activities = append(activities, a)
	}

	if err := rows.Err(); err != nil {
		return nil, domain.WrapStorage("list document activities", err)
	}

	return activities, nil
}

// AddVersion records a stored file revision, numbering it after the latest one
func (r *PostgresDocumentRepository) AddVersion(ctx context.Context, v *models.DocumentVersion) error {
	query := fmt.Sprintf(`
		INSERT INTO %[1]s (document_id, version, server_path, file_hash, file_size, created_by, created_at)
		SELECT $1::bigint, COALESCE(MAX(version), 0) + 1, $2::text, $3::text, $4::bigint, $5::bigint, $6::timestamptz
		FROM %[1]s
		WHERE document_id = $1
		RETURNING id, version
	`, r.tables.DocumentVersions)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		v.DocumentID,
		v.ServerPath,
		v.FileHash,
		v.FileSize,
		v.CreatedBy,
		v.CreatedAt,
	).Scan(&v.ID, &v.Version)
	if err != nil {
		return domain.WrapStorage("insert document version", err)
	}

	return nil
}

func (r *PostgresDocumentRepository) execOne(ctx context.Context, op string, id int64, query string, args ...any) error {
	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, args...)
	if err != nil {
		return domain.WrapStorage(op, err)
	}

	if result.RowsAffected() == 0 {
		return domain.NewNotFoundError("document", id)
	}

	return nil
}

func (r *PostgresDocumentRepository) queryDocuments(ctx context.Context, op, query string, args ...any) ([]models.Document, error) {
	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, domain.WrapStorage(op, err)
	}
	defer rows.Close()

	docs := make([]models.Document, 0)
	for rows.Next() {
		var doc models.Document
		if err := scanDocument(rows, &doc); err != nil {
			return nil, domain.WrapStorage(op, err)
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, domain.WrapStorage(op, err)
	}

	return docs, nil
}
