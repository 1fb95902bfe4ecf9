package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("permission denied")
	ErrStorage      = errors.New("storage failure")
)

// ValidationError indicates a missing or invalid required field.
// Always raised before any persistence attempt.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) StatusCode() int { return http.StatusBadRequest }

// Is allows errors.Is() to match against ErrValidation
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// PermissionError indicates the acting user's authority level is insufficient
type PermissionError struct {
	Action   string // e.g. "folder.delete"
	Required int    // highest authority level allowed
	Actual   int
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied for %s: authority level %d required, have %d", e.Action, e.Required, e.Actual)
}

func (e *PermissionError) StatusCode() int { return http.StatusForbidden }

func (e *PermissionError) Is(target error) bool { return target == ErrForbidden }

// ConflictError represents a violated state precondition or a uniqueness clash
type ConflictError struct {
	Message      string // Human-readable error message
	ResourceType string // folder, document, mail, ...
	ResourceID   string // ID of the conflicting resource, if known
	State        string // current state, when the conflict is about a status
}

func (e *ConflictError) Error() string { return e.Message }

func (e *ConflictError) StatusCode() int { return http.StatusConflict }

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// NotFoundError indicates a referenced entity does not exist
type NotFoundError struct {
	ResourceType string
	ID           string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.ResourceType, e.ID)
}

func (e *NotFoundError) StatusCode() int { return http.StatusNotFound }

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// StorageError wraps a persistence or file-storage failure
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) StatusCode() int { return http.StatusInternalServerError }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// NewValidationError is a shorthand for &ValidationError{...}
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewNotFoundError formats the id with %v so callers can pass ints or strings
func NewNotFoundError(resourceType string, id any) error {
	return &NotFoundError{ResourceType: resourceType, ID: fmt.Sprint(id)}
}

// WrapStorage wraps err in a StorageError unless it already carries a domain meaning
func WrapStorage(op string, err error) error {
	if err == nil {
		return nil
	}
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
