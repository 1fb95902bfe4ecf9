package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"archivist/internal/auth"
	"archivist/internal/domain"
	"archivist/internal/domain/repositories"
	"archivist/internal/httputil"
)

// AuthMiddleware validates the bearer token and loads the acting user.
// Authority comes from the users table, never from token claims.
// Paths listed in public are served without authentication.
func AuthMiddleware(verifier auth.JWTVerifier, users repositories.UserRepository, logger *slog.Logger, public ...string) func(http.Handler) http.Handler {
	open := make(map[string]bool, len(public))
	for _, p := range public {
		open[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if open[r.URL.Path] || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				httputil.RespondError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := verifier.VerifyToken(strings.TrimSpace(token))
			if err != nil {
				httputil.RespondError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			userID, err := claims.GetUserID()
			if err != nil {
				httputil.RespondError(w, http.StatusUnauthorized, "invalid token subject")
				return
			}

			user, err := users.GetByID(r.Context(), userID)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					httputil.RespondError(w, http.StatusUnauthorized, "unknown user")
					return
				}
				logger.Error("failed to load user", "user_id", userID, "error", err)
				httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			if !user.Active {
				httputil.RespondError(w, http.StatusUnauthorized, "user is inactive")
				return
			}

			next.ServeHTTP(w, httputil.WithUser(r, user))
		})
	}
}
