package mail

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
	mailModels "archivist/internal/domain/models/mail"
	docsysRepo "archivist/internal/domain/repositories/docsystem"
	mailRepo "archivist/internal/domain/repositories/mail"
	"archivist/internal/domain/services"
	docsysSvc "archivist/internal/domain/services/docsystem"
	mailSvc "archivist/internal/domain/services/mail"
	"archivist/internal/repository/memory"
	"archivist/internal/service/audit"
	"archivist/internal/service/auth"
	docsysService "archivist/internal/service/docsystem"
	"archivist/internal/storage"
)

// fixedNow is the clock used by every fixture service
var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

type fixture struct {
	store    *memory.Store
	mails    mailRepo.MailRepository
	docRepo  docsysRepo.DocumentRepository
	folders  docsysSvc.FolderService
	docs     docsysSvc.DocumentService
	codes    docsysSvc.CodeGenerator
	notifier mailSvc.NotificationService
	workflow mailSvc.WorkflowService

	admin   *models.User
	manager *models.User
	reader  *models.User
}

type fixtureDeps struct {
	mails    mailRepo.MailRepository
	docRepo  docsysRepo.DocumentRepository
	cache    services.Cache
	notifier func(mailSvc.NotificationService) mailSvc.NotificationService
	tree     func(docsysSvc.TreeService) docsysSvc.TreeService
}

type fixtureOption func(*fixtureDeps)

func withMailRepo(wrap func(mailRepo.MailRepository) mailRepo.MailRepository) fixtureOption {
	return func(d *fixtureDeps) { d.mails = wrap(d.mails) }
}

func withDocumentRepo(wrap func(docsysRepo.DocumentRepository) docsysRepo.DocumentRepository) fixtureOption {
	return func(d *fixtureDeps) { d.docRepo = wrap(d.docRepo) }
}

func withCache(c services.Cache) fixtureOption {
	return func(d *fixtureDeps) { d.cache = c }
}

// withNotifier replaces the notifier seen by the workflow service only
func withNotifier(wrap func(mailSvc.NotificationService) mailSvc.NotificationService) fixtureOption {
	return func(d *fixtureDeps) { d.notifier = wrap }
}

// withTree replaces the tree service seen by the workflow service only
func withTree(wrap func(docsysSvc.TreeService) docsysSvc.TreeService) fixtureOption {
	return func(d *fixtureDeps) { d.tree = wrap }
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()

	logger := discardLogger()
	store := memory.NewStore()
	deps := &fixtureDeps{
		mails:   memory.NewMailRepository(store),
		docRepo: memory.NewDocumentRepository(store),
		cache:   cache.Noop{},
	}
	for _, opt := range opts {
		opt(deps)
	}

	registry, err := catalog.NewRegistry()
	require.NoError(t, err)
	files, err := storage.NewLocalStorage(t.TempDir(), logger)
	require.NoError(t, err)

	folderRepo := memory.NewFolderRepository(store)
	txManager := memory.NewTransactionManager(store)
	authorizer := auth.NewLevelAuthorizer()
	auditLogger := audit.NewLogger(memory.NewAuditRepository(store), logger)
	codes := docsysService.NewCodeGenerator(memory.NewSequenceRepository(store), folderRepo, logger)
	tree := docsysService.NewTreeService(folderRepo, cache.Noop{}, time.Minute, authorizer, logger)

	notifier := NewNotificationService(
		memory.NewNotificationRepository(store),
		memory.NewUserRepository(store),
		deps.cache,
		time.Minute,
		authorizer,
		auditLogger,
		logger,
	)
	notifier.(*notificationService).now = func() time.Time { return fixedNow }

	routed := notifier
	if deps.notifier != nil {
		routed = deps.notifier(notifier)
	}
	workflowTree := tree
	if deps.tree != nil {
		workflowTree = deps.tree(tree)
	}

	workflow := NewWorkflowService(
		deps.mails,
		deps.docRepo,
		folderRepo,
		codes,
		docsysService.NewDocumentArchiver(deps.docRepo, logger),
		workflowTree,
		routed,
		txManager,
		authorizer,
		auditLogger,
		logger,
	)
	workflow.(*workflowService).now = func() time.Time { return fixedNow }

	f := &fixture{
		store:    store,
		mails:    deps.mails,
		docRepo:  deps.docRepo,
		folders:  docsysService.NewFolderService(folderRepo, txManager, registry, tree, authorizer, auditLogger, logger),
		docs:     docsysService.NewDocumentService(deps.docRepo, folderRepo, codes, files, txManager, tree, authorizer, auditLogger, logger),
		codes:    codes,
		notifier: notifier,
		workflow: workflow,
	}

	admin := store.AddUser(models.User{Username: "admin", AuthorityLevel: models.AuthorityAdmin, Active: true})
	manager := store.AddUser(models.User{Username: "manager", AuthorityLevel: models.AuthorityManager, Active: true})
	reader := store.AddUser(models.User{Username: "reader", AuthorityLevel: models.AuthorityReader, Active: true})
	f.admin, f.manager, f.reader = &admin, &manager, &reader

	return f
}

func (f *fixture) mustFolder(t *testing.T, code string) *docsystem.Folder {
	t.Helper()
	folder, err := f.folders.CreateFolder(context.Background(), f.manager, &docsysSvc.CreateFolderRequest{Code: code, Name: code})
	require.NoError(t, err)
	return folder
}

func (f *fixture) mustDocument(t *testing.T, title string, folderID *int64) *docsystem.Document {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scan.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 "+title), 0o644))

	doc, err := f.docs.CreateDocument(context.Background(), f.reader, &docsysSvc.CreateDocumentRequest{
		Title:      title,
		FolderID:   folderID,
		SourcePath: path,
	})
	require.NoError(t, err)
	return doc
}

func (f *fixture) mustMail(t *testing.T, documentID int64, subject string) *mailModels.Mail {
	t.Helper()
	m, err := f.workflow.CreateMail(context.Background(), f.reader, &mailSvc.CreateMailRequest{
		DocumentID: documentID,
		Subject:    subject,
		Type:       "INCOMING",
	})
	require.NoError(t, err)
	return m
}
