package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"archivist/internal/domain/repositories"
)

// RepositoryConfig holds configuration for repository implementations
type RepositoryConfig struct {
	Pool   *pgxpool.Pool
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames holds dynamically prefixed table names
type TableNames struct {
	Prefix             string
	Users              string
	Folders            string
	Documents          string
	DocumentActivities string
	DocumentVersions   string
	Mails              string
	MailNotifications  string
	Responsible        string
	CodeCounters       string
	AuditLog           string
}

// NewTableNames creates table names with the given prefix
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Prefix:             prefix,
		Users:              fmt.Sprintf("%susers", prefix),
		Folders:            fmt.Sprintf("%sfolders", prefix),
		Documents:          fmt.Sprintf("%sdocuments", prefix),
		DocumentActivities: fmt.Sprintf("%sdocument_activities", prefix),
		DocumentVersions:   fmt.Sprintf("%sdocument_versions", prefix),
		Mails:              fmt.Sprintf("%smails", prefix),
		MailNotifications:  fmt.Sprintf("%smail_notifications", prefix),
		Responsible:        fmt.Sprintf("%smail_responsible", prefix),
		CodeCounters:       fmt.Sprintf("%scode_counters", prefix),
		AuditLog:           fmt.Sprintf("%saudit_log", prefix),
	}
}

// All returns every table, dependents first, in a safe drop order
func (t *TableNames) All() []string {
	return []string{
		t.MailNotifications,
		t.Responsible,
		t.Mails,
		t.DocumentActivities,
		t.DocumentVersions,
		t.Documents,
		t.Folders,
		t.CodeCounters,
		t.AuditLog,
		t.Users,
	}
}

// CreateConnectionPool creates a pgx connection pool.
//
// Port 6543 is treated as a PgBouncer transaction pooler, which does not support
// prepared statements, so the pool switches to QueryExecModeCacheDescribe unless
// default_query_exec_mode is set explicitly in the connection string.
//
// Table prefixes are interpolated with fmt.Sprintf before the SQL reaches the
// server, so each environment gets its own statement cache entries.
func CreateConnectionPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	// Configure pool size
	config.MaxConns = 25
	config.MinConns = 5

	if config.ConnConfig.Port == 6543 && config.ConnConfig.DefaultQueryExecMode == pgx.QueryExecModeCacheStatement {
		config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe
		slog.Debug("auto-configured cache_describe mode for PgBouncer compatibility", "port", 6543)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// GetExecutor returns the appropriate query executor for the context.
// If a transaction is present in the context, it returns the transaction.
// Otherwise, it returns the provided pool.
// This enables repositories to automatically participate in transactions when they exist.
func GetExecutor(ctx context.Context, pool *pgxpool.Pool) repositories.DBTX {
	// Check if there's a transaction in the context
	if tx := repositories.GetTx(ctx); tx != nil {
		return tx
	}
	// No transaction, use the pool
	return pool
}
