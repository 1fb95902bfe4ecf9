package docsystem

import (
	"context"
	"time"
)

// CodeGenerator produces unique business codes for documents and mail
type CodeGenerator interface {
	// NextMailCode returns the next COU-<year>-NNNN code
	NextMailCode(ctx context.Context, year int) (string, error)

	// NextDocumentCode returns the next <INITIALS>-<year>-NNNN code for a folder
	NextDocumentCode(ctx context.Context, folderID int64, year int) (string, error)

	// FallbackDocumentCode returns a timestamp code for unfiled documents
	FallbackDocumentCode(now time.Time) string
}
