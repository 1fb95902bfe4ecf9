package services

import "context"

// AuditLogger records user actions. Failures are logged, never returned.
type AuditLogger interface {
	Log(ctx context.Context, userID int64, action, detail string)
}
