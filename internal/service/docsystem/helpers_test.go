package docsystem

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"archivist/internal/cache"
	"archivist/internal/catalog"
	"archivist/internal/domain/models"
	"archivist/internal/domain/models/docsystem"
	docsysRepo "archivist/internal/domain/repositories/docsystem"
	"archivist/internal/domain/services"
	docsysSvc "archivist/internal/domain/services/docsystem"
	"archivist/internal/repository/memory"
	"archivist/internal/service/audit"
	"archivist/internal/service/auth"
	"archivist/internal/storage"
)

type fixture struct {
	store       *memory.Store
	folderRepo  docsysRepo.FolderRepository
	docRepo     docsysRepo.DocumentRepository
	storage     *storage.LocalStorage
	storageRoot string
	codes       docsysSvc.CodeGenerator
	tree        docsysSvc.TreeService
	folders     docsysSvc.FolderService
	docs        docsysSvc.DocumentService

	admin   *models.User
	manager *models.User
	reader  *models.User
}

type fixtureOption func(*fixtureDeps)

type fixtureDeps struct {
	docRepo docsysRepo.DocumentRepository
	cache   services.Cache
}

func withDocumentRepo(wrap func(docsysRepo.DocumentRepository) docsysRepo.DocumentRepository) fixtureOption {
	return func(d *fixtureDeps) { d.docRepo = wrap(d.docRepo) }
}

func withCache(c services.Cache) fixtureOption {
	return func(d *fixtureDeps) { d.cache = c }
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()

	logger := discardLogger()
	store := memory.NewStore()
	deps := &fixtureDeps{
		docRepo: memory.NewDocumentRepository(store),
		cache:   cache.Noop{},
	}
	for _, opt := range opts {
		opt(deps)
	}

	registry, err := catalog.NewRegistry()
	require.NoError(t, err)

	root := t.TempDir()
	files, err := storage.NewLocalStorage(root, logger)
	require.NoError(t, err)

	folderRepo := memory.NewFolderRepository(store)
	txManager := memory.NewTransactionManager(store)
	authorizer := auth.NewLevelAuthorizer()
	auditLogger := audit.NewLogger(memory.NewAuditRepository(store), logger)
	codes := NewCodeGenerator(memory.NewSequenceRepository(store), folderRepo, logger)
	tree := NewTreeService(folderRepo, deps.cache, time.Minute, authorizer, logger)

	f := &fixture{
		store:       store,
		folderRepo:  folderRepo,
		docRepo:     deps.docRepo,
		storage:     files,
		storageRoot: root,
		codes:       codes,
		tree:        tree,
		folders:     NewFolderService(folderRepo, txManager, registry, tree, authorizer, auditLogger, logger),
		docs:        NewDocumentService(deps.docRepo, folderRepo, codes, files, txManager, tree, authorizer, auditLogger, logger),
	}

	admin := store.AddUser(models.User{Username: "admin", FullName: "Ada Admin", AuthorityLevel: models.AuthorityAdmin, Active: true})
	manager := store.AddUser(models.User{Username: "manager", AuthorityLevel: models.AuthorityManager, Active: true})
	reader := store.AddUser(models.User{Username: "reader", AuthorityLevel: models.AuthorityReader, Active: true})
	f.admin, f.manager, f.reader = &admin, &manager, &reader

	return f
}

func (f *fixture) mustFolder(t *testing.T, code string, parentID *int64) *docsystem.Folder {
	t.Helper()
	folder, err := f.folders.CreateFolder(context.Background(), f.admin, &docsysSvc.CreateFolderRequest{
		Code:     code,
		Name:     code + " folder",
		ParentID: parentID,
	})
	require.NoError(t, err)
	return folder
}

func (f *fixture) mustDocument(t *testing.T, title string, folderID *int64) *docsystem.Document {
	t.Helper()
	doc, err := f.docs.CreateDocument(context.Background(), f.admin, &docsysSvc.CreateDocumentRequest{
		Title:      title,
		FolderID:   folderID,
		SourcePath: writeSource(t, "source.txt", "contents of "+title),
	})
	require.NoError(t, err)
	return doc
}

func writeSource(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func ptr[T any](v T) *T {
	return &v
}
