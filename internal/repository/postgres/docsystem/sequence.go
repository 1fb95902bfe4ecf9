package docsystem

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"archivist/internal/domain"
	docsysRepo "archivist/internal/domain/repositories/docsystem"
	"archivist/internal/repository/postgres"
)

// MailScope is the counter scope for mail codes
const MailScope = "COU"

// DocumentScope is the counter scope for document codes with the given prefix
func DocumentScope(prefix string) string {
	return "DOC:" + prefix
}

// PostgresSequenceRepository implements SequenceRepository with an upserted counter row
// per (scope, year). The upsert takes a row lock, so concurrent callers serialize
// on the counter and never observe the same value.
type PostgresSequenceRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewSequenceRepository creates a new sequence repository
func NewSequenceRepository(config *postgres.RepositoryConfig) docsysRepo.SequenceRepository {
	return &PostgresSequenceRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// NextMailSequence returns the next sequence for COU-<year>-NNNN
func (r *PostgresSequenceRepository) NextMailSequence(ctx context.Context, year int) (int, error) {
	pattern := fmt.Sprintf("%s-%d-%%", MailScope, year)
	return r.next(ctx, MailScope, year, r.tables.Mails, pattern)
}

// NextDocumentSequence returns the next sequence for <prefix>-<year>-NNNN
func (r *PostgresSequenceRepository) NextDocumentSequence(ctx context.Context, prefix string, year int) (int, error) {
	scope := DocumentScope(prefix)
	pattern := fmt.Sprintf("%s-%d-%%", prefix, year)
	return r.next(ctx, scope, year, r.tables.Documents, pattern)
}

// next increments the counter, seeding a new one from the highest numeric
// suffix among existing codes that match pattern
func (r *PostgresSequenceRepository) next(ctx context.Context, scope string, year int, codeTable, pattern string) (int, error) {
	query := fmt.Sprintf(`
		INSERT INTO %[1]s (scope, year, value)
		VALUES ($1, $2, COALESCE((
			SELECT MAX(CAST(SUBSTRING(code FROM '([0-9]+)$') AS INTEGER))
			FROM %[2]s
			WHERE code LIKE $3
		), 0) + 1)
		ON CONFLICT (scope, year) DO UPDATE SET value = %[1]s.value + 1
		RETURNING value
	`, r.tables.CodeCounters, codeTable)

	var value int
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, scope, year, pattern).Scan(&value); err != nil {
		return 0, domain.WrapStorage("next sequence", err)
	}

	r.logger.Debug("sequence issued", "scope", scope, "year", year, "value", value)
	return value, nil
}
