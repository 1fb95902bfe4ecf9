package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archivist/internal/domain"
	"archivist/internal/domain/models"
	"archivist/internal/httputil"
	"archivist/internal/repository/memory"
)

type stubVerifier struct {
	subjects map[string]string
}

func (v *stubVerifier) VerifyToken(token string) (*models.AccessClaims, error) {
	sub, ok := v.subjects[token]
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	claims := &models.AccessClaims{}
	claims.Subject = sub
	return claims, nil
}

func (v *stubVerifier) Close() error { return nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAuthMiddleware(t *testing.T) {
	store := memory.NewStore()
	active := store.AddUser(models.User{ID: 7, Username: "clerk", AuthorityLevel: models.AuthorityReader, Active: true})
	store.AddUser(models.User{ID: 8, Username: "gone", AuthorityLevel: models.AuthorityReader})

	verifier := &stubVerifier{subjects: map[string]string{
		"good":     "7",
		"inactive": "8",
		"unknown":  "99",
	}}

	var seen *models.User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = httputil.GetUser(r)
		w.WriteHeader(http.StatusOK)
	})
	h := AuthMiddleware(verifier, memory.NewUserRepository(store), discardLogger(), "/health")(next)

	tests := []struct {
		name   string
		path   string
		header string
		status int
	}{
		{"public path", "/health", "", http.StatusOK},
		{"missing token", "/api/tree", "", http.StatusUnauthorized},
		{"bad scheme", "/api/tree", "Basic good", http.StatusUnauthorized},
		{"invalid token", "/api/tree", "Bearer nope", http.StatusUnauthorized},
		{"unknown user", "/api/tree", "Bearer unknown", http.StatusUnauthorized},
		{"inactive user", "/api/tree", "Bearer inactive", http.StatusUnauthorized},
		{"valid", "/api/tree", "Bearer good", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			r := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, r)
			assert.Equal(t, tt.status, rec.Code)
		})
	}

	require.NotNil(t, seen)
	assert.Equal(t, active.ID, seen.ID)
	assert.Equal(t, models.AuthorityReader, seen.AuthorityLevel)
}

func TestRecovery(t *testing.T) {
	h := Recovery(discardLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestRecovery_ReportsRequestID(t *testing.T) {
	h := RequestLogger(discardLogger())(Recovery(discardLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"request_id":"req-42"`)
}

func TestRecovery_AbortHandlerPropagates(t *testing.T) {
	h := Recovery(discardLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestRequestLogger_RequestID(t *testing.T) {
	var fromCtx string
	h := RequestLogger(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = httputil.GetRequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.NotEmpty(t, fromCtx)
	assert.Equal(t, fromCtx, rec.Header().Get(RequestIDHeader))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, "abc-123", fromCtx)
}

func TestTimeout(t *testing.T) {
	var deadline time.Time
	var ok bool
	h := Timeout(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, ok = r.Context().Deadline()
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, time.Second)
}
