package docsystem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"archivist/internal/config"
	"archivist/internal/domain"
	docsysRepo "archivist/internal/domain/repositories/docsystem"
	docsysSvc "archivist/internal/domain/services/docsystem"
)

const (
	mailCodePrefix     = "COU"
	fallbackCodePrefix = "DOC"
	maxInitialsLength  = 10
)

type codeGenerator struct {
	sequences  docsysRepo.SequenceRepository
	folderRepo docsysRepo.FolderRepository
	logger     *slog.Logger
}

// NewCodeGenerator creates a code generator backed by persistent counters
func NewCodeGenerator(
	sequences docsysRepo.SequenceRepository,
	folderRepo docsysRepo.FolderRepository,
	logger *slog.Logger,
) docsysSvc.CodeGenerator {
	return &codeGenerator{
		sequences:  sequences,
		folderRepo: folderRepo,
		logger:     logger,
	}
}

// NextMailCode returns COU-<year>-NNNN
func (g *codeGenerator) NextMailCode(ctx context.Context, year int) (string, error) {
	seq, err := g.sequences.NextMailSequence(ctx, year)
	if err != nil {
		return "", fmt.Errorf("next mail sequence: %w", err)
	}
	return formatCode(mailCodePrefix, year, seq), nil
}

// NextDocumentCode returns <INITIALS>-<year>-NNNN for the folder
func (g *codeGenerator) NextDocumentCode(ctx context.Context, folderID int64, year int) (string, error) {
	folder, err := g.folderRepo.GetByID(ctx, folderID)
	if err != nil {
		return "", err
	}

	prefix := Initials(folder.Code)
	if prefix == "" {
		return "", domain.NewValidationError("folder_id", fmt.Sprintf("folder %d has no usable code", folderID))
	}

	seq, err := g.sequences.NextDocumentSequence(ctx, prefix, year)
	if err != nil {
		return "", fmt.Errorf("next document sequence: %w", err)
	}
	return formatCode(prefix, year, seq), nil
}

// FallbackDocumentCode returns DOC-<yyyyMMddHHmmssSSS>
func (g *codeGenerator) FallbackDocumentCode(now time.Time) string {
	return fmt.Sprintf("%s-%s%03d", fallbackCodePrefix, now.Format("20060102150405"), now.Nanosecond()/int(time.Millisecond))
}

func formatCode(prefix string, year, seq int) string {
	return fmt.Sprintf("%s-%d-%04d", prefix, year, seq)
}

// Initials derives the document code prefix from a folder code:
// upper-cased alphanumerics, at most 10 characters.
func Initials(folderCode string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(folderCode) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			if b.Len() == maxInitialsLength {
				break
			}
		}
	}
	return b.String()
}

// WithUniqueCode generates a code and runs insert with it, retrying with a
// fresh code when insert reports a duplicate-code conflict.
func WithUniqueCode(
	ctx context.Context,
	logger *slog.Logger,
	next func(ctx context.Context) (string, error),
	insert func(ctx context.Context, code string) error,
) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= config.MaxCodeAttempts; attempt++ {
		code, err := next(ctx)
		if err != nil {
			return "", err
		}

		err = insert(ctx, code)
		if err == nil {
			return code, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return "", err
		}

		logger.Warn("code collision, retrying", "code", code, "attempt", attempt)
		lastErr = err
	}

	return "", fmt.Errorf("no unique code after %d attempts: %w", config.MaxCodeAttempts, lastErr)
}
