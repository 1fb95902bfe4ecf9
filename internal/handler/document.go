package handler

import (
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"archivist/internal/config"
	"archivist/internal/domain"
	docsysSvc "archivist/internal/domain/services/docsystem"
	"archivist/internal/httputil"
)

// DocumentHandler handles document HTTP requests
type DocumentHandler struct {
	docService docsysSvc.DocumentService
	importRoot string
	logger     *slog.Logger
}

// NewDocumentHandler creates a new document handler. importRoot is the only
// directory JSON imports may read from; empty disables them.
func NewDocumentHandler(docService docsysSvc.DocumentService, importRoot string, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{
		docService: docService,
		importRoot: importRoot,
		logger:     logger,
	}
}

// moveRequest requires folder_id to be present; null files the document as unfiled
type moveRequest struct {
	FolderID httputil.Optional[int64] `json:"folder_id"`
}

// importRequest is the JSON form of document creation. ImportPath is
// relative to the handler's import root.
type importRequest struct {
	docsysSvc.CreateDocumentRequest
	ImportPath string `json:"import_path"`
}

// CreateDocument imports a file and records the document.
// Accepts a multipart upload with a "file" part, or JSON naming an import_path
// under the configured import root.
// POST /api/documents
func (h *DocumentHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req docsysSvc.CreateDocumentRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		tmpPath, err := h.receiveUpload(w, r, &req)
		if r.MultipartForm != nil {
			defer r.MultipartForm.RemoveAll()
		}
		if err != nil {
			handleError(w, h.logger, err)
			return
		}
		defer os.Remove(tmpPath)
	} else {
		var body importRequest
		if err := httputil.ParseJSON(w, r, &body); err != nil {
			handleError(w, h.logger, err)
			return
		}
		source, err := resolveImportPath(h.importRoot, body.ImportPath)
		if err != nil {
			handleError(w, h.logger, err)
			return
		}
		req = body.CreateDocumentRequest
		req.SourcePath = source
		req.FileName = filepath.Base(source)
	}

	doc, err := h.docService.CreateDocument(r.Context(), user, &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, doc)
}

// receiveUpload spools the uploaded file to a temporary path and fills req from the form
func (h *DocumentHandler) receiveUpload(w http.ResponseWriter, r *http.Request, req *docsysSvc.CreateDocumentRequest) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, config.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return "", domain.NewValidationError("file", fmt.Sprintf("invalid upload: %v", err))
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", domain.NewValidationError("file", "a file part is required")
	}
	defer file.Close()

	tmp, err := os.CreateTemp("", "upload-*"+filepath.Ext(header.Filename))
	if err != nil {
		return "", domain.WrapStorage("spool upload", err)
	}
	defer tmp.Close()

	if _, err := io.Copy(tmp, file); err != nil {
		os.Remove(tmp.Name())
		return "", domain.WrapStorage("spool upload", err)
	}

	req.SourcePath = tmp.Name()
	req.FileName = filepath.Base(header.Filename)
	req.Title = r.FormValue("title")
	req.DocumentType = r.FormValue("document_type")
	req.Description = r.FormValue("description")
	req.Keywords = r.FormValue("keywords")
	req.Confidential, _ = strconv.ParseBool(r.FormValue("confidential"))
	req.Draft, _ = strconv.ParseBool(r.FormValue("draft"))
	if raw := r.FormValue("folder_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			os.Remove(tmp.Name())
			return "", domain.NewValidationError("folder_id", fmt.Sprintf("invalid id %q", raw))
		}
		req.FolderID = &id
	}
	if req.Title == "" {
		req.Title = header.Filename
	}

	h.logger.Debug("upload received", "filename", header.Filename, "size", header.Size)
	return tmp.Name(), nil
}

// resolveImportPath maps a client-supplied relative path to a file inside root.
// Absolute paths, parent escapes and symlinks leading outside root are rejected
// with the same error as missing files.
func resolveImportPath(root, rel string) (string, error) {
	if root == "" {
		return "", domain.NewValidationError("import_path", "server-side import is disabled; upload the file instead")
	}
	if rel == "" {
		return "", domain.NewValidationError("import_path", "cannot be blank")
	}
	invalid := domain.NewValidationError("import_path", "no such file in the import directory")
	if filepath.IsAbs(rel) {
		return "", invalid
	}

	base, err := filepath.EvalSymlinks(root)
	if err != nil {
		return "", domain.WrapStorage("resolve import root", err)
	}
	resolved, err := filepath.EvalSymlinks(filepath.Join(base, rel))
	if err != nil {
		return "", invalid
	}
	inside, err := filepath.Rel(base, resolved)
	if err != nil || inside == ".." || strings.HasPrefix(inside, ".."+string(filepath.Separator)) {
		return "", invalid
	}

	info, err := os.Stat(resolved)
	if err != nil || !info.Mode().IsRegular() {
		return "", invalid
	}
	return resolved, nil
}

// ListDocuments lists visible documents
// GET /api/documents?folder_id=&status=&limit=&offset=
func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	folderID, err := httputil.QueryID(r, "folder_id")
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	limit, err := httputil.QueryInt(r, "limit", config.DefaultPageSize)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	offset, err := httputil.QueryInt(r, "offset", 0)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	docs, err := h.docService.ListDocuments(r.Context(), user, &docsysSvc.ListDocumentsRequest{
		FolderID: folderID,
		Status:   r.URL.Query().Get("status"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, docs)
}

// SearchDocuments searches documents by code, title, description and keywords
// GET /api/documents/search?q=&limit=
func (h *DocumentHandler) SearchDocuments(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	limit, err := httputil.QueryInt(r, "limit", config.DefaultPageSize)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	docs, err := h.docService.SearchDocuments(r.Context(), user, r.URL.Query().Get("q"), limit)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, docs)
}

// GetDocument retrieves a document
// GET /api/documents/{id}
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	id, err := httputil.PathID(r, "id")
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	doc, err := h.docService.GetDocument(r.Context(), user, id)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// GetHistory returns the activity entries of a document
// GET /api/documents/{id}/history
func (h *DocumentHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	id, err := httputil.PathID(r, "id")
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	history, err := h.docService.GetHistory(r.Context(), user, id)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, history)
}

// UpdateDocument edits document metadata
// PATCH /api/documents/{id}
func (h *DocumentHandler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	id, err := httputil.PathID(r, "id")
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	var req docsysSvc.UpdateDocumentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}

	doc, err := h.docService.UpdateDocument(r.Context(), user, id, &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// MoveDocument files a document in another folder
// POST /api/documents/{id}/move
func (h *DocumentHandler) MoveDocument(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	id, err := httputil.PathID(r, "id")
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	var req moveRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}
	if !req.FolderID.Present {
		handleError(w, h.logger, domain.NewValidationError("folder_id", "is required (null moves the document out of any folder)"))
		return
	}

	doc, err := h.docService.MoveDocument(r.Context(), user, id, req.FolderID.Value)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// DeleteDocument soft-deletes a document
// DELETE /api/documents/{id}
func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	id, err := httputil.PathID(r, "id")
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	if err := h.docService.DeleteDocument(r.Context(), user, id); err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondNoContent(w)
}

// RestoreDocument brings a soft-deleted document back
// POST /api/documents/{id}/restore
func (h *DocumentHandler) RestoreDocument(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	id, err := httputil.PathID(r, "id")
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	doc, err := h.docService.RestoreDocument(r.Context(), user, id)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// PurgeDocument permanently removes a document and its file
// DELETE /api/documents/{id}/purge
func (h *DocumentHandler) PurgeDocument(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	id, err := httputil.PathID(r, "id")
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	if err := h.docService.PurgeDocument(r.Context(), user, id); err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondNoContent(w)
}
