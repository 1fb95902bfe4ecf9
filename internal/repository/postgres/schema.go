package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RunSchema creates tables and indexes if they don't exist
func RunSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS ` + tables.Users + ` (
			id BIGSERIAL PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			full_name TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			authority_level INTEGER NOT NULL DEFAULT 2,
			role TEXT NOT NULL DEFAULT '',
			active BOOLEAN NOT NULL DEFAULT TRUE
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.Folders + ` (
			id BIGSERIAL PRIMARY KEY,
			code VARCHAR(10) NOT NULL,
			name VARCHAR(255) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			parent_id BIGINT REFERENCES ` + tables.Folders + `(id),
			full_path TEXT NOT NULL,
			icon TEXT NOT NULL DEFAULT 'folder',
			display_order INTEGER NOT NULL DEFAULT 0,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			is_system BOOLEAN NOT NULL DEFAULT FALSE,
			created_by BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			modified_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.Documents + ` (
			id BIGSERIAL PRIMARY KEY,
			code VARCHAR(40) NOT NULL UNIQUE,
			folder_id BIGINT REFERENCES ` + tables.Folders + `(id),
			title VARCHAR(255) NOT NULL,
			document_type TEXT NOT NULL DEFAULT '',
			file_path TEXT NOT NULL DEFAULT '',
			server_path TEXT NOT NULL DEFAULT '',
			file_size BIGINT NOT NULL DEFAULT 0,
			extension TEXT NOT NULL DEFAULT '',
			mime_type TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			keywords TEXT NOT NULL DEFAULT '',
			file_hash TEXT NOT NULL DEFAULT '',
			confidential BOOLEAN NOT NULL DEFAULT FALSE,
			status TEXT NOT NULL DEFAULT 'active'
				CHECK (status IN ('active', 'draft', 'archived', 'deleted')),
			archived BOOLEAN NOT NULL DEFAULT FALSE,
			archived_at TIMESTAMPTZ,
			created_by BIGINT NOT NULL,
			modified_by BIGINT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			modified_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.DocumentActivities + ` (
			id BIGSERIAL PRIMARY KEY,
			document_id BIGINT NOT NULL REFERENCES ` + tables.Documents + `(id) ON DELETE CASCADE,
			user_id BIGINT NOT NULL,
			action TEXT NOT NULL,
			detail TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.DocumentVersions + ` (
			id BIGSERIAL PRIMARY KEY,
			document_id BIGINT NOT NULL REFERENCES ` + tables.Documents + `(id) ON DELETE CASCADE,
			version INTEGER NOT NULL,
			server_path TEXT NOT NULL,
			file_hash TEXT NOT NULL DEFAULT '',
			file_size BIGINT NOT NULL DEFAULT 0,
			created_by BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE(document_id, version)
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.Mails + ` (
			id BIGSERIAL PRIMARY KEY,
			code VARCHAR(20) NOT NULL UNIQUE,
			document_id BIGINT NOT NULL REFERENCES ` + tables.Documents + `(id),
			type TEXT NOT NULL CHECK (type IN ('INCOMING', 'OUTGOING', 'INTERNAL')),
			subject VARCHAR(500) NOT NULL,
			sender TEXT NOT NULL DEFAULT '',
			recipient TEXT NOT NULL DEFAULT '',
			reference TEXT NOT NULL DEFAULT '',
			mail_date TIMESTAMPTZ,
			priority TEXT NOT NULL DEFAULT 'NORMAL' CHECK (priority IN ('LOW', 'NORMAL', 'HIGH', 'URGENT')),
			observations TEXT NOT NULL DEFAULT '',
			confidential BOOLEAN NOT NULL DEFAULT FALSE,
			status TEXT NOT NULL DEFAULT 'NEW' CHECK (status IN ('NEW', 'IN_PROGRESS', 'PROCESSED', 'ARCHIVED')),
			created_by BIGINT NOT NULL,
			archived_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			modified_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.MailNotifications + ` (
			mail_id BIGINT NOT NULL REFERENCES ` + tables.Mails + `(id) ON DELETE CASCADE,
			user_id BIGINT NOT NULL,
			read BOOLEAN NOT NULL DEFAULT FALSE,
			notified_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			read_at TIMESTAMPTZ,
			PRIMARY KEY (mail_id, user_id)
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.Responsible + ` (
			slot SMALLINT PRIMARY KEY DEFAULT 1 CHECK (slot = 1),
			user_id BIGINT NOT NULL,
			assigned_by BIGINT NOT NULL,
			assigned_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.CodeCounters + ` (
			scope TEXT NOT NULL,
			year INTEGER NOT NULL,
			value INTEGER NOT NULL,
			PRIMARY KEY (scope, year)
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.AuditLog + ` (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			action TEXT NOT NULL,
			detail TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	p := tables.Prefix
	indexes := []string{
		// Code is unique among active folders only, so a deleted code can be reused
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_` + p + `folders_code_active ON ` + tables.Folders + `(code) WHERE active`,
		`CREATE INDEX IF NOT EXISTS idx_` + p + `folders_parent ON ` + tables.Folders + `(parent_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + p + `folders_full_path ON ` + tables.Folders + `(full_path, display_order)`,
		`CREATE INDEX IF NOT EXISTS idx_` + p + `documents_folder_status ON ` + tables.Documents + `(folder_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_` + p + `document_activities_doc ON ` + tables.DocumentActivities + `(document_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_` + p + `mails_status ON ` + tables.Mails + `(status)`,
		`CREATE INDEX IF NOT EXISTS idx_` + p + `mails_document ON ` + tables.Mails + `(document_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + p + `mail_notifications_user ON ` + tables.MailNotifications + `(user_id, read, notified_at DESC)`,
	}

	for _, stmt := range append(statements, indexes...) {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("run schema: %w", err)
		}
	}

	return nil
}

// DropAllTables drops every table in dependency order
func DropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	for _, table := range tables.All() {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
	}
	return nil
}

// ClearData removes mail, documents and non-system folders while keeping the schema
func ClearData(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	statements := []string{
		"DELETE FROM " + tables.MailNotifications,
		"DELETE FROM " + tables.Mails,
		"DELETE FROM " + tables.DocumentActivities,
		"DELETE FROM " + tables.DocumentVersions,
		"DELETE FROM " + tables.Documents,
		"DELETE FROM " + tables.Folders + " WHERE NOT is_system",
		"DELETE FROM " + tables.CodeCounters,
	}
	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("clear data: %w", err)
		}
	}
	return nil
}
