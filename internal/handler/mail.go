package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"archivist/internal/config"
	mailModels "archivist/internal/domain/models/mail"
	mailSvc "archivist/internal/domain/services/mail"
	"archivist/internal/httputil"
)

// MailHandler handles mail workflow HTTP requests
type MailHandler struct {
	workflow mailSvc.WorkflowService
	logger   *slog.Logger
}

// NewMailHandler creates a new mail handler
func NewMailHandler(workflow mailSvc.WorkflowService, logger *slog.Logger) *MailHandler {
	return &MailHandler{
		workflow: workflow,
		logger:   logger,
	}
}

type statusRequest struct {
	Status string `json:"status"`
}

type archiveRequest struct {
	DestinationFolderID int64 `json:"destination_folder_id"`
}

// CreateMail records a mail bound to a document
// POST /api/mails
func (h *MailHandler) CreateMail(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req mailSvc.CreateMailRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}

	m, err := h.workflow.CreateMail(r.Context(), user, &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, m)
}

// ListMails lists mail, optionally by status
// GET /api/mails?status=&limit=&offset=
func (h *MailHandler) ListMails(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
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

	mails, err := h.workflow.ListMails(r.Context(), user, &mailSvc.ListMailsRequest{
		Status: r.URL.Query().Get("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, mails)
}

// SearchMails matches code, subject, sender and recipient
// GET /api/mails/search?q=
func (h *MailHandler) SearchMails(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	mails, err := h.workflow.SearchMails(r.Context(), user, r.URL.Query().Get("q"))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, mails)
}

// ReadyForArchival lists PROCESSED mail
// GET /api/mails/ready
func (h *MailHandler) ReadyForArchival(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	mails, err := h.workflow.GetReadyForArchival(r.Context(), user)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, mails)
}

// GetMail retrieves a mail record
// GET /api/mails/{id}
func (h *MailHandler) GetMail(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	id, err := httputil.PathID(r, "id")
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	m, err := h.workflow.GetMail(r.Context(), user, id)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, m)
}

// UpdateMail edits the descriptive fields of a mail
// PATCH /api/mails/{id}
func (h *MailHandler) UpdateMail(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	id, err := httputil.PathID(r, "id")
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	var req mailSvc.UpdateMailRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}

	m, err := h.workflow.UpdateMail(r.Context(), user, id, &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, m)
}

// UpdateStatus moves a mail one step forward
// POST /api/mails/{id}/status
func (h *MailHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	id, err := httputil.PathID(r, "id")
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	var req statusRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}

	status := mailModels.Status(strings.ToUpper(strings.TrimSpace(req.Status)))
	m, err := h.workflow.UpdateStatus(r.Context(), user, id, status)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, m)
}

// Archive files the mail's document and closes the mail
// POST /api/mails/{id}/archive
func (h *MailHandler) Archive(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	id, err := httputil.PathID(r, "id")
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	var req archiveRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}

	m, err := h.workflow.Archive(r.Context(), user, id, req.DestinationFolderID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, m)
}
