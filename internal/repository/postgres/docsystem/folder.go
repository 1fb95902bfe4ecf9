package docsystem

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"archivist/internal/domain"
	models "archivist/internal/domain/models/docsystem"
	docsysRepo "archivist/internal/domain/repositories/docsystem"
	"archivist/internal/repository/postgres"
)

// PostgresFolderRepository implements the FolderRepository interface
type PostgresFolderRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewFolderRepository creates a new folder repository
func NewFolderRepository(config *postgres.RepositoryConfig) docsysRepo.FolderRepository {
	return &PostgresFolderRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

const folderColumns = `f.id, f.code, f.name, f.description, f.parent_id, f.full_path, f.icon,
	f.display_order, f.active, f.is_system, f.created_by, f.created_at, f.modified_at`

func scanFolder(row pgx.Row, f *models.Folder, extra ...any) error {
	dest := []any{
		&f.ID,
		&f.Code,
		&f.Name,
		&f.Description,
		&f.ParentID,
		&f.FullPath,
		&f.Icon,
		&f.DisplayOrder,
		&f.Active,
		&f.IsSystem,
		&f.CreatedBy,
		&f.CreatedAt,
		&f.ModifiedAt,
	}
	return row.Scan(append(dest, extra...)...)
}

// Create creates a new folder
func (r *PostgresFolderRepository) Create(ctx context.Context, folder *models.Folder) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (code, name, description, parent_id, full_path, icon, display_order,
			active, is_system, created_by, created_at, modified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, $8, $9, $10, $11)
		RETURNING id, created_at, modified_at
	`, r.tables.Folders)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		folder.Code,
		folder.Name,
		folder.Description,
		folder.ParentID,
		folder.FullPath,
		folder.Icon,
		folder.DisplayOrder,
		folder.IsSystem,
		folder.CreatedBy,
		folder.CreatedAt,
		folder.ModifiedAt,
	).Scan(&folder.ID, &folder.CreatedAt, &folder.ModifiedAt)

	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("a folder with code %q already exists", folder.Code),
				ResourceType: "folder",
				ResourceID:   folder.Code,
			}
		}
		if postgres.IsPgForeignKeyError(err) && folder.ParentID != nil {
			return domain.NewNotFoundError("folder", *folder.ParentID)
		}
		return domain.WrapStorage("create folder", err)
	}

	folder.Active = true
	return nil
}

// GetByID retrieves an active folder by ID
func (r *PostgresFolderRepository) GetByID(ctx context.Context, id int64) (*models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s f
		WHERE f.id = $1 AND %s
	`, folderColumns, r.tables.Folders, postgres.LiveFolder("f"))

	var f models.Folder
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := scanFolder(executor.QueryRow(ctx, query, id), &f); err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, domain.NewNotFoundError("folder", id)
		}
		return nil, domain.WrapStorage("get folder", err)
	}

	return &f, nil
}

// GetByCode retrieves an active folder by code
func (r *PostgresFolderRepository) GetByCode(ctx context.Context, code string) (*models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s f
		WHERE f.code = $1 AND %s
	`, folderColumns, r.tables.Folders, postgres.LiveFolder("f"))

	var f models.Folder
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := scanFolder(executor.QueryRow(ctx, query, code), &f); err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, domain.NewNotFoundError("folder", code)
		}
		return nil, domain.WrapStorage("get folder by code", err)
	}

	return &f, nil
}

// Update persists the editable attributes of a folder
func (r *PostgresFolderRepository) Update(ctx context.Context, folder *models.Folder) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $1, description = $2, icon = $3, display_order = $4, modified_at = $5
		WHERE id = $6 AND %s
	`, r.tables.Folders, postgres.LiveFolder(""))

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		folder.Name,
		folder.Description,
		folder.Icon,
		folder.DisplayOrder,
		folder.ModifiedAt,
		folder.ID,
	)
	if err != nil {
		return domain.WrapStorage("update folder", err)
	}

	if result.RowsAffected() == 0 {
		return domain.NewNotFoundError("folder", folder.ID)
	}

	return nil
}

// SoftDelete marks a folder inactive
func (r *PostgresFolderRepository) SoftDelete(ctx context.Context, id int64) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET active = FALSE, modified_at = NOW()
		WHERE id = $1 AND %s
	`, r.tables.Folders, postgres.LiveFolder(""))

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return domain.WrapStorage("delete folder", err)
	}

	if result.RowsAffected() == 0 {
		return domain.NewNotFoundError("folder", id)
	}

	return nil
}

// ListAll returns every active folder with its live document count
func (r *PostgresFolderRepository) ListAll(ctx context.Context) ([]models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT %s, COALESCE(dc.cnt, 0)
		FROM %s f
		LEFT JOIN (
			SELECT folder_id, COUNT(*) AS cnt
			FROM %s
			WHERE %s
			GROUP BY folder_id
		) dc ON dc.folder_id = f.id
		WHERE %s
		ORDER BY f.full_path, f.display_order
	`, folderColumns, r.tables.Folders, r.tables.Documents, postgres.LiveDocument(""), postgres.LiveFolder("f"))

	return r.queryFolders(ctx, "list folders", query, true)
}

// ListChildren returns the active children of a folder (nil = root level)
func (r *PostgresFolderRepository) ListChildren(ctx context.Context, parentID *int64) ([]models.Folder, error) {
	var query string
	var args []any

	if parentID == nil {
		query = fmt.Sprintf(`
			SELECT %s
			FROM %s f
			WHERE f.parent_id IS NULL AND %s
			ORDER BY f.display_order, f.name
		`, folderColumns, r.tables.Folders, postgres.LiveFolder("f"))
	} else {
		query = fmt.Sprintf(`
			SELECT %s
			FROM %s f
			WHERE f.parent_id = $1 AND %s
			ORDER BY f.display_order, f.name
		`, folderColumns, r.tables.Folders, postgres.LiveFolder("f"))
		args = []any{*parentID}
	}

	return r.queryFolders(ctx, "list child folders", query, false, args...)
}

// Search matches code, name and description case-insensitively
func (r *PostgresFolderRepository) Search(ctx context.Context, term string) ([]models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s f
		WHERE %s AND (f.code ILIKE $1 OR f.name ILIKE $1 OR f.description ILIKE $1)
		ORDER BY f.full_path, f.display_order
	`, folderColumns, r.tables.Folders, postgres.LiveFolder("f"))

	return r.queryFolders(ctx, "search folders", query, false, postgres.ContainsPattern(term))
}

// CountActiveDocuments counts the non-deleted documents filed in a folder
func (r *PostgresFolderRepository) CountActiveDocuments(ctx context.Context, folderID int64) (int, error) {
	query := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM %s
		WHERE folder_id = $1 AND %s
	`, r.tables.Documents, postgres.LiveDocument(""))

	var count int
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, folderID).Scan(&count); err != nil {
		return 0, domain.WrapStorage("count folder documents", err)
	}

	return count, nil
}

func (r *PostgresFolderRepository) queryFolders(ctx context.Context, op, query string, withCount bool, args ...any) ([]models.Folder, error) {
	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, domain.WrapStorage(op, err)
	}
	defer rows.Close()

	folders := make([]models.Folder, 0)
	for rows.Next() {
		var f models.Folder
		var scanErr error
		if withCount {
			scanErr = scanFolder(rows, &f, &f.DocumentCount)
		} else {
			scanErr = scanFolder(rows, &f)
		}
		if scanErr != nil {
			return nil, domain.WrapStorage(op, scanErr)
		}
		folders = append(folders, f)
	}

	if err := rows.Err(); err != nil {
		return nil, domain.WrapStorage(op, err)
	}

	r.logger.Debug("folders loaded", "op", op, "count", len(folders))
	return folders, nil
}
