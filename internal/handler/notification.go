package handler

import (
	"log/slog"
	"net/http"

	mailSvc "archivist/internal/domain/services/mail"
	"archivist/internal/httputil"
)

// NotificationHandler serves the caller's mailbox and the responsible assignment
type NotificationHandler struct {
	notifier mailSvc.NotificationService
	logger   *slog.Logger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notifier mailSvc.NotificationService, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		notifier: notifier,
		logger:   logger,
	}
}

type responsibleRequest struct {
	UserID int64 `json:"user_id"`
}

// ListNotifications returns the caller's notifications, newest first
// GET /api/notifications?unread=
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	unreadOnly, err := httputil.QueryBool(r, "unread", false)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	views, err := h.notifier.GetNotifications(r.Context(), user.ID, unreadOnly)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, views)
}

// CountUnread returns the caller's unread count
// GET /api/notifications/count
func (h *NotificationHandler) CountUnread(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	count, err := h.notifier.CountUnread(r.Context(), user.ID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]int{"unread": count})
}

// MarkAsRead flips one notification of the caller
// POST /api/notifications/{mailId}/read
func (h *NotificationHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	mailID, err := httputil.PathID(r, "mailId")
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	if err := h.notifier.MarkAsRead(r.Context(), mailID, user.ID); err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondNoContent(w)
}

// MarkAllAsRead flips every unread notification of the caller
// POST /api/notifications/read-all
func (h *NotificationHandler) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	changed, err := h.notifier.MarkAllAsRead(r.Context(), user.ID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]int{"updated": changed})
}

// GetResponsible returns the responsible user, or null
// GET /api/responsible
func (h *NotificationHandler) GetResponsible(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(w, r); !ok {
		return
	}

	responsible, err := h.notifier.GetResponsible(r.Context())
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, responsible)
}

// SetResponsible designates the user who receives new mail
// PUT /api/responsible
func (h *NotificationHandler) SetResponsible(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req responsibleRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}

	if err := h.notifier.SetResponsible(r.Context(), user, req.UserID); err != nil {
		handleError(w, h.logger, err)
		return
	}

	responsible, err := h.notifier.GetResponsible(r.Context())
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, responsible)
}

// RemoveResponsible clears the assignment
// DELETE /api/responsible
func (h *NotificationHandler) RemoveResponsible(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.notifier.RemoveResponsible(r.Context(), user); err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondNoContent(w)
}
