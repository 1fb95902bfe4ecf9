package config

import "time"

const (
	// MinFolderCodeLength and MaxFolderCodeLength bound folder codes.
	// Codes are short uppercase identifiers that also seed document initials.
	MinFolderCodeLength = 2
	MaxFolderCodeLength = 10

	// MaxFolderNameLength fits PostgreSQL VARCHAR(255)
	MaxFolderNameLength = 255

	// MaxDocumentTitleLength fits PostgreSQL VARCHAR(255)
	MaxDocumentTitleLength = 255

	// MaxMailSubjectLength fits PostgreSQL VARCHAR(500)
	MaxMailSubjectLength = 500

	// MaxCodeAttempts bounds retries when a generated code collides
	MaxCodeAttempts = 5

	// DefaultPageSize and MaxPageSize bound listing and search results
	DefaultPageSize = 50
	MaxPageSize     = 200

	// MaxSearchTermLength keeps ILIKE patterns reasonable
	MaxSearchTermLength = 100

	// MaxUploadBytes caps multipart document uploads
	MaxUploadBytes = 100 << 20
)

const (
	DefaultUnreadCacheTTL = 30 * time.Second
	DefaultTreeCacheTTL   = 5 * time.Minute
	DefaultRequestTimeout = 15 * time.Second
)

// ClampPageSize applies the default and maximum page size
func ClampPageSize(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}
