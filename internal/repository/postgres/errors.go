package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the repositories translate into domain errors
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

func pgErrorCode(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", false
	}
	return pgErr.Code, true
}

// IsPgDuplicateError reports a unique constraint violation (code columns, usernames)
func IsPgDuplicateError(err error) bool {
	code, ok := pgErrorCode(err)
	return ok && code == pgUniqueViolation
}

// IsPgNoRowsError reports an empty single-row result
func IsPgNoRowsError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsPgForeignKeyError reports a reference to a missing folder, document or user
func IsPgForeignKeyError(err error) bool {
	code, ok := pgErrorCode(err)
	return ok && code == pgForeignKeyViolation
}

// CheckViolation reports a CHECK constraint failure and the column it guards.
// Column checks carry Postgres' default name <table>_<column>_check.
func CheckViolation(err error, table string) (string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgCheckViolation {
		return "", false
	}
	column := strings.TrimSuffix(strings.TrimPrefix(pgErr.ConstraintName, table+"_"), "_check")
	return column, true
}
