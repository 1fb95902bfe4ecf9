package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archivist/internal/cache"
	"archivist/internal/catalog"
	"archivist/internal/domain/models"
	"archivist/internal/domain/models/docsystem"
	mailModels "archivist/internal/domain/models/mail"
	"archivist/internal/httputil"
	"archivist/internal/repository/memory"
	"archivist/internal/service/audit"
	"archivist/internal/service/auth"
	docsysService "archivist/internal/service/docsystem"
	mailService "archivist/internal/service/mail"
	"archivist/internal/storage"
)

const testUserHeader = "X-Test-User"

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type testServer struct {
	handler    http.Handler
	users      map[string]models.User
	importRoot string
}

// newTestServer wires the real services over in-memory repositories.
// The acting user is chosen per request through a test header.
func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()

	registry, err := catalog.NewRegistry()
	require.NoError(t, err)
	files, err := storage.NewLocalStorage(t.TempDir(), logger)
	require.NoError(t, err)

	folderRepo := memory.NewFolderRepository(store)
	docRepo := memory.NewDocumentRepository(store)
	mailRepo := memory.NewMailRepository(store)
	txManager := memory.NewTransactionManager(store)
	authorizer := auth.NewLevelAuthorizer()
	auditLogger := audit.NewLogger(memory.NewAuditRepository(store), logger)
	codes := docsysService.NewCodeGenerator(memory.NewSequenceRepository(store), folderRepo, logger)
	tree := docsysService.NewTreeService(folderRepo, cache.Noop{}, time.Minute, authorizer, logger)
	folders := docsysService.NewFolderService(folderRepo, txManager, registry, tree, authorizer, auditLogger, logger)
	docs := docsysService.NewDocumentService(docRepo, folderRepo, codes, files, txManager, tree, authorizer, auditLogger, logger)
	notifier := mailService.NewNotificationService(
		memory.NewNotificationRepository(store),
		memory.NewUserRepository(store),
		cache.Noop{},
		time.Minute,
		authorizer,
		auditLogger,
		logger,
	)
	workflow := mailService.NewWorkflowService(
		mailRepo,
		docRepo,
		folderRepo,
		codes,
		docsysService.NewDocumentArchiver(docRepo, logger),
		tree,
		notifier,
		txManager,
		authorizer,
		auditLogger,
		logger,
	)
	require.NoError(t, folders.EnsureSystemFolders(context.Background()))
	importRoot := t.TempDir()

	mux := http.NewServeMux()
	RegisterRoutes(mux, Handlers{
		Health:        NewHealthHandler(map[string]Pinger{"database": pingFunc(func(context.Context) error { return nil })}, logger),
		Folders:       NewFolderHandler(folders, logger),
		Tree:          NewTreeHandler(tree, logger),
		Documents:     NewDocumentHandler(docs, importRoot, logger),
		Mails:         NewMailHandler(workflow, logger),
		Notifications: NewNotificationHandler(notifier, logger),
	})

	users := map[string]models.User{
		"admin":   store.AddUser(models.User{Username: "admin", AuthorityLevel: models.AuthorityAdmin, Active: true}),
		"manager": store.AddUser(models.User{Username: "manager", AuthorityLevel: models.AuthorityManager, Active: true}),
		"reader":  store.AddUser(models.User{Username: "reader", AuthorityLevel: models.AuthorityReader, Active: true}),
	}

	withUser := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u, ok := users[r.Header.Get(testUserHeader)]; ok {
			r = httputil.WithUser(r, &u)
		}
		mux.ServeHTTP(w, r)
	})

	return &testServer{handler: withUser, users: users, importRoot: importRoot}
}

func (s *testServer) do(t *testing.T, user, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	r := httptest.NewRequest(method, path, reader)
	r.Header.Set("Content-Type", "application/json")
	if user != "" {
		r.Header.Set(testUserHeader, user)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, r)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// importFile drops a file into the import root and returns its relative path
func (s *testServer) importFile(t *testing.T, name, content string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(s.importRoot, name), []byte(content), 0o644))
	return name
}

func TestMailLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	manager := s.users["manager"]

	rec := s.do(t, "admin", http.MethodPut, "/api/responsible", map[string]any{"user_id": manager.ID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, manager.ID, decode[models.User](t, rec).ID)

	rec = s.do(t, "manager", http.MethodPost, "/api/folders", map[string]any{"code": "ops", "name": "Operations"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	ops := decode[docsystem.Folder](t, rec)
	assert.Equal(t, "OPS", ops.Code)
	assert.Equal(t, "/ROOT/OPS", ops.FullPath)

	rec = s.do(t, "manager", http.MethodPost, "/api/folders", map[string]any{"code": "ARC", "name": "Archive shelf"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	shelf := decode[docsystem.Folder](t, rec)

	rec = s.do(t, "reader", http.MethodPost, "/api/documents", map[string]any{
		"title":       "Supplier invoice",
		"folder_id":   ops.ID,
		"import_path": s.importFile(t, "invoice.pdf", "%PDF-1.4 invoice"),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	doc := decode[docsystem.Document](t, rec)
	assert.Equal(t, fmt.Sprintf("OPS-%d-0001", time.Now().Year()), doc.Code)

	rec = s.do(t, "reader", http.MethodPost, "/api/mails", map[string]any{
		"document_id": doc.ID,
		"subject":     "Invoice March",
		"type":        "incoming",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	m := decode[mailModels.Mail](t, rec)
	assert.Equal(t, mailModels.StatusNew, m.Status)
	assert.Regexp(t, `^COU-\d{4}-0001$`, m.Code)

	rec = s.do(t, "manager", http.MethodGet, "/api/notifications/count", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[map[string]int](t, rec)["unread"])

	mailPath := "/api/mails/" + strconv.FormatInt(m.ID, 10)

	rec = s.do(t, "manager", http.MethodPost, mailPath+"/archive", map[string]any{"destination_folder_id": shelf.ID})
	require.Equal(t, http.StatusConflict, rec.Code)
	problem := decode[map[string]any](t, rec)
	assert.Equal(t, "NEW", problem["state"])

	for _, status := range []string{"in_progress", "PROCESSED"} {
		rec = s.do(t, "reader", http.MethodPost, mailPath+"/status", map[string]any{"status": status})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec = s.do(t, "reader", http.MethodGet, "/api/mails/ready", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]mailModels.Mail](t, rec), 1)

	rec = s.do(t, "manager", http.MethodPost, mailPath+"/archive", map[string]any{"destination_folder_id": shelf.ID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, mailModels.StatusArchived, decode[mailModels.Mail](t, rec).Status)

	rec = s.do(t, "reader", http.MethodGet, "/api/documents/"+strconv.FormatInt(doc.ID, 10)+"/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[[]docsystem.DocumentActivity](t, rec)
	actions := make([]string, 0, len(history))
	for _, a := range history {
		actions = append(actions, a.Action)
	}
	assert.Contains(t, actions, docsystem.ActivityArchive)

	rec = s.do(t, "manager", http.MethodPost, "/api/notifications/"+strconv.FormatInt(m.ID, 10)+"/read", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, "manager", http.MethodGet, "/api/notifications?unread=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]mailModels.NotificationView](t, rec))
}

func TestErrorMapping(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, "", http.MethodGet, "/api/tree", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, "reader", http.MethodPost, "/api/folders", map[string]any{"code": "HR", "name": "HR"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "folder.create", decode[map[string]any](t, rec)["action"])

	rec = s.do(t, "manager", http.MethodPost, "/api/folders", map[string]any{"code": "X", "name": "Too short"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "code", decode[map[string]any](t, rec)["field"])

	rec = s.do(t, "reader", http.MethodGet, "/api/folders/9999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	rec = s.do(t, "reader", http.MethodGet, "/api/folders/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, "reader", http.MethodPost, "/api/mails", map[string]any{"document_id": 9999, "subject": "x", "type": "INCOMING"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "document_id", decode[map[string]any](t, rec)["field"])

	rec = s.do(t, "reader", http.MethodPost, "/api/notifications/9999/read", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFolderRoutes(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, "manager", http.MethodPost, "/api/folders", map[string]any{"code": "OPS", "name": "Operations"})
	require.Equal(t, http.StatusCreated, rec.Code)
	ops := decode[docsystem.Folder](t, rec)

	rec = s.do(t, "manager", http.MethodPost, "/api/folders", map[string]any{"code": "HR", "name": "Human resources", "parent_id": ops.ID})
	require.Equal(t, http.StatusCreated, rec.Code)
	hr := decode[docsystem.Folder](t, rec)
	assert.Equal(t, "/ROOT/OPS/HR", hr.FullPath)

	opsPath := "/api/folders/" + strconv.FormatInt(ops.ID, 10)

	rec = s.do(t, "reader", http.MethodGet, opsPath+"/children", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	children := decode[[]docsystem.Folder](t, rec)
	require.Len(t, children, 1)
	assert.Equal(t, "HR", children[0].Code)

	rec = s.do(t, "reader", http.MethodGet, "/api/folders/"+strconv.FormatInt(hr.ID, 10)+"/path", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	crumbs := decode[[]docsystem.Breadcrumb](t, rec)
	require.NotEmpty(t, crumbs)
	assert.Equal(t, "HR", crumbs[len(crumbs)-1].Code)

	rec = s.do(t, "reader", http.MethodGet, "/api/folders/search?q=human", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]docsystem.Folder](t, rec), 1)

	rec = s.do(t, "manager", http.MethodPatch, opsPath, map[string]any{"name": "Ops"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Ops", decode[docsystem.Folder](t, rec).Name)

	rec = s.do(t, "manager", http.MethodPatch, opsPath, map[string]any{"nmae": "typo"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, "reader", http.MethodGet, "/api/tree", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tree := decode[docsystem.FolderTreeNode](t, rec)
	assert.Equal(t, docsystem.RootNodeID, tree.ID)

	rec = s.do(t, "admin", http.MethodDelete, opsPath, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, "admin", http.MethodDelete, "/api/folders/"+strconv.FormatInt(hr.ID, 10), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestDocumentRoutes(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, "manager", http.MethodPost, "/api/folders", map[string]any{"code": "OPS", "name": "Operations"})
	require.Equal(t, http.StatusCreated, rec.Code)
	ops := decode[docsystem.Folder](t, rec)

	rec = s.do(t, "reader", http.MethodPost, "/api/documents", map[string]any{
		"title":       "Memo",
		"import_path": s.importFile(t, "memo.txt", "staff memo"),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	doc := decode[docsystem.Document](t, rec)
	docPath := "/api/documents/" + strconv.FormatInt(doc.ID, 10)

	rec = s.do(t, "reader", http.MethodPost, docPath+"/move", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, "reader", http.MethodPost, docPath+"/move", map[string]any{"folder_id": ops.ID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	moved := decode[docsystem.Document](t, rec)
	require.NotNil(t, moved.FolderID)
	assert.Equal(t, ops.ID, *moved.FolderID)

	rec = s.do(t, "reader", http.MethodGet, "/api/documents?folder_id="+strconv.FormatInt(ops.ID, 10), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]docsystem.Document](t, rec), 1)

	rec = s.do(t, "reader", http.MethodPost, docPath+"/move", map[string]any{"folder_id": nil})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decode[docsystem.Document](t, rec).FolderID)

	rec = s.do(t, "reader", http.MethodPatch, docPath, map[string]any{"keywords": "staff, memo"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, "reader", http.MethodGet, "/api/documents/search?q=memo", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]docsystem.Document](t, rec), 1)

	rec = s.do(t, "reader", http.MethodDelete, docPath, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, "reader", http.MethodGet, docPath, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, "reader", http.MethodPost, docPath+"/restore", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, "reader", http.MethodDelete, docPath+"/purge", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, "admin", http.MethodDelete, docPath+"/purge", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCreateDocument_MultipartUpload(t *testing.T) {
	s := newTestServer(t)

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	require.NoError(t, form.WriteField("title", "Scanned letter"))
	part, err := form.CreateFormFile("file", "letter.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4 scanned"))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	r := httptest.NewRequest(http.MethodPost, "/api/documents", &body)
	r.Header.Set("Content-Type", form.FormDataContentType())
	r.Header.Set(testUserHeader, "reader")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, r)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	doc := decode[docsystem.Document](t, rec)
	assert.Equal(t, "Scanned letter", doc.Title)
	assert.Equal(t, "pdf", doc.Extension)
	assert.Equal(t, "letter.pdf", doc.FilePath)
	assert.NotEmpty(t, doc.FileHash)
}

func TestCreateDocument_ServerPathsConfinedToImportRoot(t *testing.T) {
	s := newTestServer(t)
	outside := filepath.Join(t.TempDir(), "secret.txt")
	require.NoError(t, os.WriteFile(outside, []byte("top secret"), 0o644))
	require.NoError(t, os.Symlink(outside, filepath.Join(s.importRoot, "link.txt")))

	rec := s.do(t, "reader", http.MethodPost, "/api/documents", map[string]any{"title": "x", "source_path": "/etc/passwd"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "body", decode[map[string]any](t, rec)["field"])

	missing := ""
	for _, path := range []string{"/etc/passwd", "../../../../etc/passwd", "link.txt", "nope.txt"} {
		rec = s.do(t, "reader", http.MethodPost, "/api/documents", map[string]any{"title": "x", "import_path": path})
		require.Equal(t, http.StatusBadRequest, rec.Code, path)
		problem := decode[map[string]any](t, rec)
		assert.Equal(t, "import_path", problem["field"], path)
		if missing == "" {
			missing = problem["detail"].(string)
		}
		assert.Equal(t, missing, problem["detail"], "error must not reveal whether %s exists", path)
	}

	rec = s.do(t, "reader", http.MethodGet, "/api/documents", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]docsystem.Document](t, rec))
}

func TestHealthCheck(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	healthy := NewHealthHandler(map[string]Pinger{"database": pingFunc(func(context.Context) error { return nil })}, logger)
	rec := httptest.NewRecorder()
	healthy.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	degraded := NewHealthHandler(map[string]Pinger{
		"database": pingFunc(func(context.Context) error { return nil }),
		"redis":    pingFunc(func(context.Context) error { return errors.New("connection refused") }),
	}, logger)
	rec = httptest.NewRecorder()
	degraded.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	body := decode[map[string]any](t, rec)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, map[string]any{"database": "ok", "redis": "unavailable"}, body["checks"])
}
