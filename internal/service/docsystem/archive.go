package docsystem

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"archivist/internal/domain/models/docsystem"
	docsysRepo "archivist/internal/domain/repositories/docsystem"
	docsysSvc "archivist/internal/domain/services/docsystem"
)

type documentArchiver struct {
	docRepo docsysRepo.DocumentRepository
	logger  *slog.Logger
}

// NewDocumentArchiver creates the archiver used by the mail workflow
func NewDocumentArchiver(docRepo docsysRepo.DocumentRepository, logger *slog.Logger) docsysSvc.DocumentArchiver {
	return &documentArchiver{docRepo: docRepo, logger: logger}
}

// ArchiveInto flips the document to archived inside folderID and records an
// ARCHIVE activity. Runs inside the caller's transaction.
func (a *documentArchiver) ArchiveInto(ctx context.Context, documentID, folderID, userID int64, at time.Time) error {
	if err := a.docRepo.Archive(ctx, documentID, folderID, at, userID); err != nil {
		return err
	}

	err := a.docRepo.AddActivity(ctx, &docsystem.DocumentActivity{
		DocumentID: documentID,
		UserID:     userID,
		Action:     docsystem.ActivityArchive,
		Detail:     fmt.Sprintf("archived into folder %d", folderID),
		CreatedAt:  at,
	})
	if err != nil {
		return err
	}

	a.logger.Debug("document archived", "document_id", documentID, "folder_id", folderID)
	return nil
}
