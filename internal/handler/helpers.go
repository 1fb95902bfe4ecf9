package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"archivist/internal/domain"
	"archivist/internal/domain/models"
	"archivist/internal/httputil"
)

// handleError converts domain errors to RFC 7807 responses
func handleError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var (
		validationErr *domain.ValidationError
		conflictErr   *domain.ConflictError
		notFoundErr   *domain.NotFoundError
		permissionErr *domain.PermissionError
	)

	switch {
	case errors.As(err, &validationErr):
		extras := map[string]any{}
		if validationErr.Field != "" {
			extras["field"] = validationErr.Field
		}
		httputil.RespondErrorWithExtras(w, http.StatusBadRequest, validationErr.Error(), extras)
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &notFoundErr):
		httputil.RespondErrorWithExtras(w, http.StatusNotFound, notFoundErr.Error(), map[string]any{
			"resource_type": notFoundErr.ResourceType,
		})
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &permissionErr):
		httputil.RespondErrorWithExtras(w, http.StatusForbidden, permissionErr.Error(), map[string]any{
			"action": permissionErr.Action,
		})
	case errors.Is(err, domain.ErrForbidden):
		httputil.RespondError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &conflictErr):
		extras := map[string]any{}
		if conflictErr.ResourceType != "" {
			extras["resource_type"] = conflictErr.ResourceType
		}
		if conflictErr.State != "" {
			extras["state"] = conflictErr.State
		}
		httputil.RespondErrorWithExtras(w, http.StatusConflict, conflictErr.Error(), extras)
	case errors.Is(err, domain.ErrConflict):
		httputil.RespondError(w, http.StatusConflict, err.Error())
	default:
		logger.Error("request failed", "error", err)
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// currentUser returns the authenticated user, answering 401 when there is none
func currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user := httputil.GetUser(r)
	if user == nil {
		httputil.RespondError(w, http.StatusUnauthorized, "authentication required")
		return nil, false
	}
	return user, true
}
